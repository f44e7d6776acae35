package lockbox

import (
	"encoding/hex"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"

	"github.com/chain/txvm/crypto/ed25519"

	"lockbox/ledger"
)

// AccountRequest asks the sandbox to allocate an account. Kind
// "wallet" makes a self-owned account with the requested balance (a
// faucet, in the spirit of the original testnet tooling). Kind
// "custody" makes a processor-owned custody account whose record is
// initialized with the given owner identity and zero locked funds.
type AccountRequest struct {
	Kind    string `json:"kind"`
	Balance uint64 `json:"balance,omitempty"`
	Owner   string `json:"owner,omitempty"`
}

// AccountResponse reports the new account's address, plus the seed of
// the keypair it was derived from so a client can prove control of it
// later.
type AccountResponse struct {
	Address string `json:"address"`
	Seed    string `json:"seed"`
}

// CreateAccount allocates a sandbox account. Addresses are fresh
// ed25519 public keys, so they double as identities.
func (c *Custodian) CreateAccount(w http.ResponseWriter, req *http.Request) {
	data, err := ioutil.ReadAll(req.Body)
	if err != nil {
		httpErrf(w, http.StatusInternalServerError, "reading request body: %s", err)
		return
	}
	var a AccountRequest
	err = json.Unmarshal(data, &a)
	if err != nil {
		httpErrf(w, http.StatusBadRequest, "parsing request body: %s", err)
		return
	}

	pub, prv, err := ed25519.GenerateKey(nil)
	if err != nil {
		httpErrf(w, http.StatusInternalServerError, "generating account keypair: %s", err)
		return
	}
	var id ledger.ID
	copy(id[:], pub)

	switch a.Kind {
	case "wallet":
		c.S.CreateAccount(id, id, a.Balance, 0)
		log.Printf("created wallet account %x with balance %d", id[:], a.Balance)

	case "custody":
		var owner ledger.ID
		if a.Owner != "" {
			owner, err = parseID(a.Owner)
			if err != nil {
				httpErrf(w, http.StatusBadRequest, "parsing record owner: %s", err)
				return
			}
		}
		c.S.CreateAccount(id, c.P.ID, 0, ledger.RecordSize)
		record := ledger.Record{Owner: owner}
		err = c.S.SetData(id, record.Encode())
		if err != nil {
			httpErrf(w, http.StatusInternalServerError, "initializing custody record: %s", err)
			return
		}
		log.Printf("created custody account %x owned by record owner %x", id[:], owner[:])

	default:
		httpErrf(w, http.StatusBadRequest, "unknown account kind %q", a.Kind)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(AccountResponse{
		Address: hex.EncodeToString(id[:]),
		Seed:    hex.EncodeToString(prv),
	})
	if err != nil {
		httpErrf(w, http.StatusInternalServerError, "sending response: %s", err)
	}
}
