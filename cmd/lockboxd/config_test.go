package main

import (
	"io/ioutil"
	"os"
	"testing"
)

func TestLoadConfigOverlay(t *testing.T) {
	f, err := ioutil.TempFile("", "lockboxd-config")
	if err != nil {
		t.Fatal(err)
	}
	tmpfile := f.Name()
	defer os.Remove(tmpfile)

	const doc = `
addr = "0.0.0.0:9000"
bridge_pubkey = "deadbeef"
`
	_, err = f.WriteString(doc)
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	cfg, err := loadConfig(tmpfile, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != "0.0.0.0:9000" {
		t.Errorf("got addr %s, want 0.0.0.0:9000", cfg.Addr)
	}
	if cfg.BridgePub != "deadbeef" {
		t.Errorf("got bridge pubkey %s, want deadbeef", cfg.BridgePub)
	}
	if cfg.DBFile != "lockbox.db" {
		t.Errorf("db not defaulted: got %s", cfg.DBFile)
	}
}

func TestOverlayFlags(t *testing.T) {
	cfg := serviceConfig{Addr: "0.0.0.0:9000", DBFile: "from-file.db"}
	cfg.overlayFlags("localhost:2423", "from-flag.db", "")
	if cfg.Addr != "0.0.0.0:9000" {
		t.Errorf("default flag clobbered file value: got %s", cfg.Addr)
	}
	if cfg.DBFile != "from-flag.db" {
		t.Errorf("explicit flag did not win: got %s", cfg.DBFile)
	}
}
