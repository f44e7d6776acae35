package lockbox

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/bobg/sqlutil"

	"lockbox/ledger"
)

type releaseState int

const (
	releaseNotYet releaseState = iota
	releaseOK
	releaseFail
)

// ReleaseRequested implements the processor's notifier: an unlock
// instruction landed, so record the request and wake the worker. The
// nonce assigned here is what the bridge must sign over to authorize
// the release.
func (c *Custodian) ReleaseRequested(custody, bridge ledger.ID, lockedFunds uint64) {
	const q = `INSERT INTO release_requests
		(custody_account, bridge_account, locked_funds, created_ms)
		VALUES ($1, $2, $3, $4)`
	_, err := c.DB.Exec(q, custody[:], bridge[:], int64(lockedFunds), millis(time.Now()))
	if err != nil {
		log.Printf("error recording release request for custody account %x: %s", custody[:], err)
		return
	}
	log.Printf("recorded release request for custody account %x (%d locked), awaiting bridge %x", custody[:], lockedFunds, bridge[:])
	c.requests.Broadcast()
}

// BalanceChecked implements the processor's notifier for check
// instructions.
func (c *Custodian) BalanceChecked(custody ledger.ID, lockedFunds uint64) {
	log.Printf("custody account %x holds %d locked", custody[:], lockedFunds)
}

// ReleaseFromRequests runs as a goroutine. Each time it is woken it
// sweeps the request table for authorized-but-unreleased requests,
// applies them through the processor, journals the outcome, and
// broadcasts completions to watchers.
func (c *Custodian) ReleaseFromRequests(ctx context.Context) {
	defer log.Print("ReleaseFromRequests exiting")

	ch := make(chan struct{})
	go func() {
		c.requests.L.Lock()
		defer c.requests.L.Unlock()
		for {
			if ctx.Err() != nil {
				return
			}
			c.requests.Wait()
			ch <- struct{}{}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
		}

		const q = `SELECT nonce, custody_account, amount, beneficiary, signature
			FROM release_requests
			WHERE state=$1 AND signature IS NOT NULL`

		var (
			nonces, amounts                      []int64
			custodies, beneficiaries, signatures [][]byte
		)
		err := sqlutil.ForQueryRows(ctx, c.DB, q, int(releaseNotYet), func(nonce int64, custody []byte, amount int64, beneficiary, signature []byte) {
			nonces = append(nonces, nonce)
			custodies = append(custodies, custody)
			amounts = append(amounts, amount)
			beneficiaries = append(beneficiaries, beneficiary)
			signatures = append(signatures, signature)
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Fatalf("reading authorized release requests: %s", err)
		}

		for i, nonce := range nonces {
			auth := ledger.ReleaseAuthorization{
				Nonce:     uint64(nonce),
				Amount:    uint64(amounts[i]),
				Signature: signatures[i],
			}
			copy(auth.Custody[:], custodies[i])
			copy(auth.Beneficiary[:], beneficiaries[i])

			state := releaseOK
			err = c.S.InvokeRelease(c.P, []ledger.ID{auth.Custody, auth.Beneficiary}, auth)
			if err != nil {
				log.Printf("error applying release %d: %s", nonce, err)
				state = releaseFail
			}

			_, err = c.DB.ExecContext(ctx, `UPDATE release_requests SET state=$1 WHERE nonce=$2`, int(state), nonce)
			if err != nil {
				log.Fatalf("updating release request %d: %s", nonce, err)
			}
			if state != releaseOK {
				continue
			}

			_, err = c.DB.ExecContext(ctx, `INSERT OR IGNORE INTO releases
				(nonce, custody_account, beneficiary, amount, released_ms)
				VALUES ($1, $2, $3, $4, $5)`,
				nonce, custodies[i], beneficiaries[i], amounts[i], millis(time.Now()))
			if err != nil {
				log.Fatalf("journaling release %d: %s", nonce, err)
			}

			log.Printf("released %d from custody account %x to %x (release %d)", amounts[i], custodies[i], beneficiaries[i], nonce)
			c.releases.Write(&Release{
				Nonce:       uint64(nonce),
				Custody:     hex.EncodeToString(custodies[i]),
				Beneficiary: hex.EncodeToString(beneficiaries[i]),
				Amount:      uint64(amounts[i]),
			})
		}
	}
}

// WatchReleases replies with the next release completed after the
// request arrives, or 408 if the request's context gives out first.
func (c *Custodian) WatchReleases(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	r := c.releases.Reader()
	got, ok := r.Read(ctx)
	if !ok {
		httpErrf(w, http.StatusRequestTimeout, "timed out waiting for a release")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(got.(*Release))
	if err != nil {
		httpErrf(w, http.StatusInternalServerError, "sending response: %s", err)
	}
}
