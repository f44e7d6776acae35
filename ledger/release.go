package ledger

import (
	"encoding/binary"

	"github.com/chain/txvm/crypto/ed25519"
	"github.com/chain/txvm/errors"
)

// unlock records a release request at the wire level. It emits the
// request to the notifier, addressed to the bridge service account,
// and deliberately mutates nothing: funds leave custody only through
// ApplyRelease, which requires the bridge's signed authorization.
func (p *Processor) unlock(r *Record, custody *Account, rest []*Account) error {
	if len(rest) < 1 {
		return errors.Wrap(ErrNotEnoughAccounts, "missing bridge service account")
	}
	bridge := rest[0]
	p.Notify.ReleaseRequested(custody.ID, bridge.ID, r.LockedFunds)
	return nil
}

// releaseAuthPrefix domain-separates authorization signatures from any
// other message the bridge key might sign.
const releaseAuthPrefix = "custody-release"

// ReleaseAuthorization is the capability that permits a decrement of
// locked funds: the bridge service's signature over a specific custody
// account, request nonce, amount, and beneficiary. The processor
// treats it as opaque except for signature verification; how the
// bridge decides to issue one is its own business.
type ReleaseAuthorization struct {
	Custody     ID
	Nonce       uint64
	Amount      uint64
	Beneficiary ID
	Signature   []byte
}

// Message is the canonical byte string the bridge signs.
func (a *ReleaseAuthorization) Message() []byte {
	msg := make([]byte, 0, len(releaseAuthPrefix)+32+8+8+32)
	msg = append(msg, releaseAuthPrefix...)
	msg = append(msg, a.Custody[:]...)
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], a.Nonce)
	msg = append(msg, scratch[:]...)
	binary.LittleEndian.PutUint64(scratch[:], a.Amount)
	msg = append(msg, scratch[:]...)
	msg = append(msg, a.Beneficiary[:]...)
	return msg
}

// Sign attaches the bridge key's signature to a.
func (a *ReleaseAuthorization) Sign(prv ed25519.PrivateKey) {
	a.Signature = ed25519.Sign(prv, a.Message())
}

// Verify reports whether a carries a valid signature by pub.
func (a *ReleaseAuthorization) Verify(pub ed25519.PublicKey) bool {
	if len(a.Signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, a.Message(), a.Signature)
}

// ApplyRelease completes an authorized release: it debits the custody
// record and moves the released amount from the custody account's
// balance to the beneficiary. The first account is the custody
// account, the second the beneficiary. This entry point is not
// reachable from opcode dispatch; holding the custody account is not
// enough to call it usefully, only a token signed by the bridge key
// is.
func (p *Processor) ApplyRelease(accounts []*Account, auth ReleaseAuthorization) error {
	if len(accounts) < 2 {
		return errors.Wrap(ErrNotEnoughAccounts, "need custody and beneficiary accounts")
	}
	custody, beneficiary := accounts[0], accounts[1]

	err := p.validateOwner(custody)
	if err != nil {
		return err
	}

	if !auth.Verify(p.BridgeKey) {
		return errors.Wrapf(ErrBadAuthorization, "bad signature on release %d", auth.Nonce)
	}
	if auth.Custody != custody.ID {
		return errors.Wrapf(ErrBadAuthorization, "release %d authorizes custody account %x, got %x", auth.Nonce, auth.Custody[:], custody.ID[:])
	}
	if auth.Beneficiary != beneficiary.ID {
		return errors.Wrapf(ErrBadAuthorization, "release %d pays %x, got account %x", auth.Nonce, auth.Beneficiary[:], beneficiary.ID[:])
	}

	record, err := DecodeRecord(custody.Data)
	if err != nil {
		return errors.Wrapf(err, "decoding record in custody account %x", custody.ID[:])
	}
	if record.LockedFunds < auth.Amount {
		return errors.Wrapf(ErrInsufficientFunds, "release %d asks for %d, only %d locked", auth.Nonce, auth.Amount, record.LockedFunds)
	}

	err = p.Transfer(custody, beneficiary, auth.Amount)
	if err != nil {
		return errors.Wrapf(ErrTransferFailed, "paying %d to beneficiary %x: %s", auth.Amount, beneficiary.ID[:], err)
	}

	record.LockedFunds -= auth.Amount
	copy(custody.Data, record.Encode())
	return nil
}
