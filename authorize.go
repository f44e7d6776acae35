package lockbox

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"

	"lockbox/ledger"
)

// Authorization is the JSON shape of the bridge service's release
// authorization callback: the fields of a ledger.ReleaseAuthorization
// with the binary ones hex-encoded.
type Authorization struct {
	Nonce       uint64 `json:"nonce"`
	Custody     string `json:"custody_account"`
	Amount      uint64 `json:"amount"`
	Beneficiary string `json:"beneficiary"`
	Signature   string `json:"signature"`
}

// RecordAuthorization accepts a signed release authorization from the
// bridge service, verifies it, attaches it to the matching pending
// request, and wakes the release worker. A token that does not verify
// against the configured bridge key is rejected outright.
func (c *Custodian) RecordAuthorization(w http.ResponseWriter, req *http.Request) {
	data, err := ioutil.ReadAll(req.Body)
	if err != nil {
		httpErrf(w, http.StatusInternalServerError, "reading request body: %s", err)
		return
	}
	var a Authorization
	err = json.Unmarshal(data, &a)
	if err != nil {
		httpErrf(w, http.StatusBadRequest, "parsing request body: %s", err)
		return
	}

	auth := ledger.ReleaseAuthorization{
		Nonce:  a.Nonce,
		Amount: a.Amount,
	}
	auth.Custody, err = parseID(a.Custody)
	if err != nil {
		httpErrf(w, http.StatusBadRequest, "parsing custody account: %s", err)
		return
	}
	auth.Beneficiary, err = parseID(a.Beneficiary)
	if err != nil {
		httpErrf(w, http.StatusBadRequest, "parsing beneficiary: %s", err)
		return
	}
	auth.Signature, err = hex.DecodeString(a.Signature)
	if err != nil {
		httpErrf(w, http.StatusBadRequest, "parsing signature: %s", err)
		return
	}

	if !auth.Verify(c.P.BridgeKey) {
		httpErrf(w, http.StatusBadRequest, "release %d: signature does not verify against bridge key", a.Nonce)
		return
	}

	ctx := req.Context()
	var state int
	err = c.DB.QueryRowContext(ctx, `SELECT state FROM release_requests WHERE nonce=$1 AND custody_account=$2`, int64(a.Nonce), auth.Custody[:]).Scan(&state)
	if err == sql.ErrNoRows {
		httpErrf(w, http.StatusNotFound, "no release request %d for custody account %s", a.Nonce, a.Custody)
		return
	}
	if err != nil {
		httpErrf(w, http.StatusInternalServerError, "reading release request %d: %s", a.Nonce, err)
		return
	}
	if releaseState(state) != releaseNotYet {
		httpErrf(w, http.StatusConflict, "release request %d already settled", a.Nonce)
		return
	}

	_, err = c.DB.ExecContext(ctx, `UPDATE release_requests SET amount=$1, beneficiary=$2, signature=$3 WHERE nonce=$4`,
		int64(a.Amount), auth.Beneficiary[:], auth.Signature, int64(a.Nonce))
	if err != nil {
		httpErrf(w, http.StatusInternalServerError, "storing authorization for release %d: %s", a.Nonce, err)
		return
	}

	log.Printf("recorded bridge authorization for release %d (%d to %s)", a.Nonce, a.Amount, a.Beneficiary)
	c.requests.Broadcast()
	w.WriteHeader(http.StatusNoContent)
}
