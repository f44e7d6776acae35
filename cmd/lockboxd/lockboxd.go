package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net"
	"net/http"

	_ "github.com/mattn/go-sqlite3"

	"lockbox"
)

func main() {
	ctx := context.Background()

	var (
		addr       = flag.String("addr", "localhost:2423", "server listen address")
		dbfile     = flag.String("db", "lockbox.db", "path to db")
		bridgePub  = flag.String("bridgepub", "", "hex-encoded ed25519 public key of the bridge service")
		configPath = flag.String("config", "", "path to optional TOML config file")
	)

	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = loadConfig(*configPath, cfg)
		if err != nil {
			log.Fatalf("error loading config: %s", err)
		}
	}
	cfg.overlayFlags(*addr, *dbfile, *bridgePub)

	db, err := sql.Open("sqlite3", cfg.DBFile)
	if err != nil {
		log.Fatalf("error opening db: %s", err)
	}
	defer db.Close()

	c, err := lockbox.GetCustodian(ctx, db, cfg.BridgePub)
	if err != nil {
		log.Fatal(err)
	}

	go c.ReleaseFromRequests(ctx)

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("listening on %s, custody processor %x", listener.Addr(), c.P.ID[:])

	http.HandleFunc("/submit", c.Submit)
	http.HandleFunc("/account", c.CreateAccount)
	http.HandleFunc("/balance", c.Balance)
	http.HandleFunc("/authorize", c.RecordAuthorization)
	http.HandleFunc("/releases", c.WatchReleases)
	http.Serve(listener, nil)
}
