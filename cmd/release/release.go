package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"flag"
	"io/ioutil"
	"log"
	"net/http"

	"lockbox"
	"lockbox/ledger"
)

func main() {
	var (
		server  = flag.String("server", "http://127.0.0.1:2423", "url of lockboxd server")
		custody = flag.String("custody", "", "hex address of the custody account")
		bridge  = flag.String("bridge", "", "hex address of the bridge service account")
	)

	flag.Parse()
	if *custody == "" {
		log.Fatal("must specify custody account")
	}
	if *bridge == "" {
		log.Fatal("must specify bridge service account")
	}

	sub := lockbox.Submission{
		Accounts:    []string{*custody, *bridge},
		Instruction: hex.EncodeToString([]byte{ledger.OpUnlock}),
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(*server+"/submit", "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("error submitting release request: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := ioutil.ReadAll(resp.Body)
		log.Fatalf("status %d submitting release request: %s", resp.StatusCode, msg)
	}
	log.Printf("requested release from custody account %s, awaiting bridge %s", *custody, *bridge)
}
