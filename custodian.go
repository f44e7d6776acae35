// Package lockbox is the custodian service wrapped around the custody
// ledger processor: it hosts the deterministic sandbox the processor
// runs in, persists release requests and bridge authorizations in
// sqlite, and exposes the whole thing over HTTP.
package lockbox

import (
	"context"
	"database/sql"
	"encoding/hex"
	"log"
	"sync"
	"time"

	"github.com/bobg/multichan"
	"github.com/chain/txvm/crypto/ed25519"
	"github.com/chain/txvm/errors"

	"lockbox/ledger"
	"lockbox/sandbox"
)

// Custodian ties together the processor, its sandbox, and the release
// bookkeeping. One custodian serves one processor identity.
type Custodian struct {
	DB *sql.DB
	S  *sandbox.Sandbox
	P  *ledger.Processor

	privkey   ed25519.PrivateKey
	bridgePrv ed25519.PrivateKey // only set when no external bridge key was configured

	// requests wakes ReleaseFromRequests when a new request or
	// authorization lands; releases broadcasts completed releases to
	// any number of watchers.
	requests *sync.Cond
	releases *multichan.W
}

// Release is one completed release of custody funds, as journaled and
// as broadcast to watchers.
type Release struct {
	Nonce       uint64 `json:"nonce"`
	Custody     string `json:"custody_account"`
	Beneficiary string `json:"beneficiary"`
	Amount      uint64 `json:"amount"`
}

// GetCustodian loads the custodian from db, creating and persisting
// its identity on first run. bridgePubHex is the hex-encoded ed25519
// public key of the external bridge service; when it is empty the
// custodian generates a local bridge keypair instead, which is only
// useful for development and tests.
func GetCustodian(ctx context.Context, db *sql.DB, bridgePubHex string) (*Custodian, error) {
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return nil, errors.Wrap(err, "creating db schema")
	}

	c := &Custodian{
		DB:       db,
		S:        sandbox.New(),
		requests: sync.NewCond(new(sync.Mutex)),
		releases: multichan.New((*Release)(nil)),
	}

	var bridgePub ed25519.PublicKey
	c.privkey, bridgePub, c.bridgePrv, err = getOrCreateKeys(ctx, db, bridgePubHex)
	if err != nil {
		return nil, err
	}

	var id ledger.ID
	copy(id[:], c.privkey.Public().(ed25519.PublicKey))
	c.P = &ledger.Processor{
		ID:        id,
		BridgeKey: bridgePub,
		Transfer:  c.S.Transfer,
		Notify:    c,
	}
	return c, nil
}

func getOrCreateKeys(ctx context.Context, db *sql.DB, bridgePubHex string) (prv ed25519.PrivateKey, bridgePub ed25519.PublicKey, bridgePrv ed25519.PrivateKey, err error) {
	var (
		seedHex                       string
		bridgePubBits, bridgeSeedBits []byte
	)
	err = db.QueryRowContext(ctx, "SELECT seed, bridge_pubkey, bridge_seed FROM custodian").Scan(&seedHex, &bridgePubBits, &bridgeSeedBits)
	if err == sql.ErrNoRows {
		return makeNewKeys(ctx, db, bridgePubHex)
	}
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "reading custodian keys")
	}

	seedBits, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "decoding stored custodian seed")
	}
	prv = ed25519.PrivateKey(seedBits)
	log.Printf("using preexisting custody processor %x", prv.Public().(ed25519.PublicKey))

	bridgePub = ed25519.PublicKey(bridgePubBits)
	if len(bridgeSeedBits) > 0 {
		bridgePrv = ed25519.PrivateKey(bridgeSeedBits)
	}
	return prv, bridgePub, bridgePrv, nil
}

func makeNewKeys(ctx context.Context, db *sql.DB, bridgePubHex string) (prv ed25519.PrivateKey, bridgePub ed25519.PublicKey, bridgePrv ed25519.PrivateKey, err error) {
	pub, prv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "generating custodian keypair")
	}
	log.Printf("seed: %x", prv)
	log.Printf("custody processor: %x", pub)

	if bridgePubHex != "" {
		bridgePubBits, err := hex.DecodeString(bridgePubHex)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "decoding bridge pubkey")
		}
		if len(bridgePubBits) != ed25519.PublicKeySize {
			return nil, nil, nil, errors.Wrapf(errors.New("bad bridge pubkey"), "got %d bytes, want %d", len(bridgePubBits), ed25519.PublicKeySize)
		}
		bridgePub = ed25519.PublicKey(bridgePubBits)
	} else {
		log.Print("no bridge pubkey configured, generating a local bridge keypair (dev mode)")
		bridgePub, bridgePrv, err = ed25519.GenerateKey(nil)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "generating bridge keypair")
		}
		log.Printf("bridge seed: %x", bridgePrv)
	}

	_, err = db.ExecContext(ctx, "INSERT OR IGNORE INTO custodian (seed, bridge_pubkey, bridge_seed) VALUES ($1, $2, $3)", hex.EncodeToString(prv), []byte(bridgePub), []byte(bridgePrv))
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "storing new custodian keys")
	}
	return prv, bridgePub, bridgePrv, nil
}

func parseID(s string) (id ledger.ID, err error) {
	bits, err := hex.DecodeString(s)
	if err != nil {
		return id, errors.Wrap(err, "decoding account address")
	}
	if len(bits) != len(id) {
		return id, errors.Wrapf(errors.New("bad account address"), "got %d bytes, want %d", len(bits), len(id))
	}
	copy(id[:], bits)
	return id, nil
}

func millis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}
