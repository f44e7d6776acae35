package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"flag"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"

	"lockbox"
	"lockbox/ledger"
)

// Queries a custody account two ways: the balance endpoint for the
// decoded report, and optionally a check instruction so the query is
// observable in the daemon's log.
func main() {
	var (
		server  = flag.String("server", "http://127.0.0.1:2423", "url of lockboxd server")
		custody = flag.String("custody", "", "hex address of the custody account")
		check   = flag.Bool("check", false, "also submit a check instruction")
	)

	flag.Parse()
	if *custody == "" {
		log.Fatal("must specify custody account")
	}

	resp, err := http.Get(*server + "/balance?account=" + url.QueryEscape(*custody))
	if err != nil {
		log.Fatalf("error querying balance: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := ioutil.ReadAll(resp.Body)
		log.Fatalf("status %d querying balance: %s", resp.StatusCode, msg)
	}

	var report lockbox.BalanceReport
	err = json.NewDecoder(resp.Body).Decode(&report)
	if err != nil {
		log.Fatalf("error parsing balance report: %s", err)
	}
	log.Printf("custody account %s: %d locked, host balance %d", report.Account, report.LockedFunds, report.Balance)

	if !*check {
		return
	}
	sub := lockbox.Submission{
		Accounts:    []string{*custody},
		Instruction: hex.EncodeToString([]byte{ledger.OpCheck}),
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		log.Fatal(err)
	}
	resp2, err := http.Post(*server+"/submit", "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("error submitting check: %s", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode/100 != 2 {
		msg, _ := ioutil.ReadAll(resp2.Body)
		log.Fatalf("status %d submitting check: %s", resp2.StatusCode, msg)
	}
}
