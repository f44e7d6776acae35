package lockbox

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"

	"github.com/chain/txvm/errors"

	"lockbox/ledger"
	"lockbox/sandbox"
)

// Submission is the invocation envelope accepted by the submit
// endpoint: the ordered account addresses and the opcode-prefixed
// instruction payload, all hex-encoded.
type Submission struct {
	Accounts    []string `json:"accounts"`
	Instruction string   `json:"instruction"`
}

// Submit executes one instruction in the sandbox. The invocation
// either commits fully or is rejected with no observable effect.
func (c *Custodian) Submit(w http.ResponseWriter, req *http.Request) {
	data, err := ioutil.ReadAll(req.Body)
	if err != nil {
		httpErrf(w, http.StatusInternalServerError, "reading request body: %s", err)
		return
	}
	var s Submission
	err = json.Unmarshal(data, &s)
	if err != nil {
		httpErrf(w, http.StatusBadRequest, "parsing request body: %s", err)
		return
	}

	addrs := make([]ledger.ID, 0, len(s.Accounts))
	for _, a := range s.Accounts {
		id, err := parseID(a)
		if err != nil {
			httpErrf(w, http.StatusBadRequest, "parsing account %s: %s", a, err)
			return
		}
		addrs = append(addrs, id)
	}
	instruction, err := hex.DecodeString(s.Instruction)
	if err != nil {
		httpErrf(w, http.StatusBadRequest, "parsing instruction: %s", err)
		return
	}

	err = c.S.Invoke(c.P, addrs, instruction)
	if err != nil {
		httpErrf(w, errStatus(err), "processing instruction: %s", err)
		return
	}
	log.Printf("processed instruction %x", instruction)
	w.WriteHeader(http.StatusNoContent)
}

// errStatus maps the processor's error taxonomy onto HTTP statuses.
func errStatus(err error) int {
	switch errors.Root(err) {
	case ledger.ErrOwnership:
		return http.StatusForbidden
	case ledger.ErrNotEnoughAccounts, ledger.ErrInvalidInstruction, ledger.ErrBalanceOverflow, ledger.ErrInsufficientFunds, ledger.ErrBadAuthorization:
		return http.StatusBadRequest
	case ledger.ErrTransferFailed:
		return http.StatusConflict
	case sandbox.ErrUnknownAccount:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// httpErrf replies to an HTTP request with the specified error, also
// logging it to stderr.
func httpErrf(w http.ResponseWriter, code int, msgfmt string, args ...interface{}) {
	http.Error(w, fmt.Sprintf(msgfmt, args...), code)
	log.Printf(msgfmt, args...)
}
