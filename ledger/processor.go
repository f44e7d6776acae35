package ledger

import (
	"log"

	"github.com/chain/txvm/crypto/ed25519"
	"github.com/chain/txvm/errors"
)

// Instruction opcodes. The first byte of every instruction payload
// selects the operation; the remaining bytes are operation-specific.
const (
	OpLock byte = iota
	OpUnlock
	OpCheck
)

// TransferFunc is the host's value-transfer primitive. It moves amount
// from one account's balance to another's, atomically, and reports
// failure instead of partially applying.
type TransferFunc func(from, to *Account, amount uint64) error

// Notifier is the host's observability sink. The processor calls it
// synchronously, inside the invocation, for the two observable
// non-mutating effects it has: release requests addressed to the
// bridge service, and balance reports.
type Notifier interface {
	ReleaseRequested(custody, bridge ID, lockedFunds uint64)
	BalanceChecked(custody ID, lockedFunds uint64)
}

// LogNotifier writes notifications to the standard logger. It is the
// notifier of last resort for tools that have nowhere else to send
// them.
type LogNotifier struct{}

func (LogNotifier) ReleaseRequested(custody, bridge ID, lockedFunds uint64) {
	log.Printf("release of %d locked in custody account %x requested, awaiting bridge %x", lockedFunds, custody[:], bridge[:])
}

func (LogNotifier) BalanceChecked(custody ID, lockedFunds uint64) {
	log.Printf("custody account %x holds %d locked", custody[:], lockedFunds)
}

// Processor is the custody ledger state machine. It is stateless
// across invocations except through the record persisted in the
// custody account.
//
// ID is the processor identity: the required owner of every custody
// account it touches. BridgeKey is a separate capability entirely: it
// gates ApplyRelease, the only path that decrements locked funds, and
// is never derived from ID.
type Processor struct {
	ID        ID
	BridgeKey ed25519.PublicKey
	Transfer  TransferFunc
	Notify    Notifier
}

// ProcessInstruction is the single entry point, invoked once per
// external call. The first account is the custody account; instruction
// is the opcode-prefixed payload. On any error the custody account's
// bytes are left exactly as they were: the record is re-encoded and
// committed only after the dispatched operation succeeds.
func (p *Processor) ProcessInstruction(accounts []*Account, instruction []byte) error {
	if len(accounts) < 1 {
		return errors.Wrap(ErrNotEnoughAccounts, "missing custody account")
	}
	custody := accounts[0]

	// The ownership gate runs before any decode: a foreign-owned
	// account may hold attacker-controlled bytes.
	err := p.validateOwner(custody)
	if err != nil {
		return err
	}

	record, err := DecodeRecord(custody.Data)
	if err != nil {
		return errors.Wrapf(err, "decoding record in custody account %x", custody.ID[:])
	}

	if len(instruction) < 1 {
		return errors.Wrap(ErrInvalidInstruction, "empty instruction")
	}
	switch opcode := instruction[0]; opcode {
	case OpLock:
		err = p.lock(record, custody, accounts[1:], instruction[1:])
	case OpUnlock:
		err = p.unlock(record, custody, accounts[1:])
	case OpCheck:
		err = p.check(record, custody)
	default:
		err = errors.Wrapf(ErrInvalidInstruction, "unknown opcode %d", opcode)
	}
	if err != nil {
		return err
	}

	copy(custody.Data, record.Encode())
	return nil
}

func (p *Processor) validateOwner(acct *Account) error {
	if acct.Owner != p.ID {
		return errors.Wrapf(ErrOwnership, "account %x owned by %x, want %x", acct.ID[:], acct.Owner[:], p.ID[:])
	}
	return nil
}
