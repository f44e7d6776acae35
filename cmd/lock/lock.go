package main

import (
	"bytes"
	"encoding/binary"
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
		server    = flag.String("server", "http://127.0.0.1:2423", "url of lockboxd server")
		custody   = flag.String("custody", "", "hex address of the custody account")
		depositor = flag.String("depositor", "", "hex address of the depositor account")
		amount    = flag.Uint64("amount", 0, "amount to lock")
	)

	flag.Parse()
	if *custody == "" {
		log.Fatal("must specify custody account")
	}
	if *depositor == "" {
		log.Fatal("must specify depositor account")
	}
	if *amount == 0 {
		log.Fatal("must specify a nonzero amount to lock")
	}

	instruction := make([]byte, 9)
	instruction[0] = ledger.OpLock
	binary.LittleEndian.PutUint64(instruction[1:], *amount)

	sub := lockbox.Submission{
		Accounts:    []string{*custody, *depositor},
		Instruction: hex.EncodeToString(instruction),
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(*server+"/submit", "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("error submitting lock: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := ioutil.ReadAll(resp.Body)
		log.Fatalf("status %d submitting lock: %s", resp.StatusCode, msg)
	}
	log.Printf("locked %d from %s into custody account %s", *amount, *depositor, *custody)
}
