package main

import (
	"log"

	"github.com/chain/txvm/crypto/ed25519"
)

// Generates an ed25519 keypair suitable for a custodian or bridge
// identity and prints both halves.
func main() {
	pub, prv, err := ed25519.GenerateKey(nil)
	if err != nil {
		log.Fatalf("error generating keypair: %s", err)
	}
	log.Printf("seed:   %x", prv)
	log.Printf("public: %x", pub)
}
