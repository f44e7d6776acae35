package lockbox

import (
	"encoding/json"
	"net/http"

	"github.com/chain/txvm/errors"

	"lockbox/ledger"
	"lockbox/sandbox"
)

// BalanceReport is the reply to a balance query: the custody record's
// locked funds plus the account's transferable host balance.
type BalanceReport struct {
	Account     string `json:"account"`
	LockedFunds uint64 `json:"locked_funds"`
	Balance     uint64 `json:"balance"`
}

// Balance reports the state of a custody account. The read goes
// through a sandbox snapshot, so it never observes a mid-invocation
// record.
func (c *Custodian) Balance(w http.ResponseWriter, req *http.Request) {
	acctHex := req.FormValue("account")
	id, err := parseID(acctHex)
	if err != nil {
		httpErrf(w, http.StatusBadRequest, "parsing account: %s", err)
		return
	}

	report := BalanceReport{Account: acctHex}
	err = c.S.View(id, func(acct *ledger.Account) error {
		record, err := ledger.DecodeRecord(acct.Data)
		if err != nil {
			return err
		}
		report.LockedFunds = record.LockedFunds
		report.Balance = acct.Balance
		return nil
	})
	if errors.Root(err) == sandbox.ErrUnknownAccount {
		httpErrf(w, http.StatusNotFound, "no account %s", acctHex)
		return
	}
	if err != nil {
		httpErrf(w, http.StatusInternalServerError, "reading custody account %s: %s", acctHex, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(report)
	if err != nil {
		httpErrf(w, http.StatusInternalServerError, "sending response: %s", err)
	}
}
