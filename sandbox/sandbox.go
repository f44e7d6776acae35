// Package sandbox is an in-process stand-in for the host execution
// environment the custody processor runs inside: a deterministic,
// single-threaded sandbox that supplies accounts as mutable byte
// buffers, provides the value-transfer primitive, and enforces that
// only the owning processor writes an account's storage.
//
// Invocations are run to completion one at a time. A failed invocation
// rolls every touched account back, so no partial write is ever
// observable.
package sandbox

import (
	"bytes"
	"sync"

	"github.com/chain/txvm/errors"

	"lockbox/ledger"
)

// ErrUnknownAccount means an invocation named an account address the
// sandbox has never allocated.
var ErrUnknownAccount = errors.New("unknown account")

type Sandbox struct {
	mu       sync.Mutex
	accounts map[ledger.ID]*ledger.Account
}

func New() *Sandbox {
	return &Sandbox{accounts: make(map[ledger.ID]*ledger.Account)}
}

// CreateAccount allocates an account with the given owner, funded
// balance, and a zero-initialized data buffer of dataSize bytes.
// Allocating an address twice is a no-op returning the existing
// account.
func (s *Sandbox) CreateAccount(id, owner ledger.ID, balance uint64, dataSize int) *ledger.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acct, ok := s.accounts[id]; ok {
		return acct
	}
	acct := &ledger.Account{
		ID:      id,
		Owner:   owner,
		Balance: balance,
		Data:    make([]byte, dataSize),
	}
	s.accounts[id] = acct
	return acct
}

// SetData overwrites an account's storage buffer. This is a host-level
// allocation-time operation (the host zero-initializes or seeds a
// record when it allocates the account); processors never see it.
func (s *Sandbox) SetData(id ledger.ID, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return errors.Wrapf(ErrUnknownAccount, "account %x", id[:])
	}
	acct.Data = append([]byte(nil), data...)
	return nil
}

// Transfer is the host value-transfer primitive: it moves amount from
// one account's balance to another's, or fails without moving
// anything.
func (s *Sandbox) Transfer(from, to *ledger.Account, amount uint64) error {
	if from.Balance < amount {
		return errors.Wrapf(errors.New("insufficient balance"), "account %x has %d, needs %d", from.ID[:], from.Balance, amount)
	}
	from.Balance -= amount
	to.Balance += amount
	return nil
}

// View calls fn with a snapshot copy of the named account. The copy
// shares nothing with live sandbox state, so fn cannot mutate anything
// through it.
func (s *Sandbox) View(id ledger.ID, fn func(acct *ledger.Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return errors.Wrapf(ErrUnknownAccount, "account %x", id[:])
	}
	snap := *acct
	snap.Data = append([]byte(nil), acct.Data...)
	return fn(&snap)
}

// Invoke dispatches one instruction through the processor, run to
// completion. The named accounts are passed in order; the first is the
// custody account by the processor's convention.
func (s *Sandbox) Invoke(p *ledger.Processor, addrs []ledger.ID, instruction []byte) error {
	return s.run(p, addrs, func(accounts []*ledger.Account) error {
		return p.ProcessInstruction(accounts, instruction)
	})
}

// InvokeRelease applies a bridge-authorized release through the
// processor, with the same atomicity as Invoke.
func (s *Sandbox) InvokeRelease(p *ledger.Processor, addrs []ledger.ID, auth ledger.ReleaseAuthorization) error {
	return s.run(p, addrs, func(accounts []*ledger.Account) error {
		return p.ApplyRelease(accounts, auth)
	})
}

func (s *Sandbox) run(p *ledger.Processor, addrs []ledger.ID, fn func(accounts []*ledger.Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make([]*ledger.Account, 0, len(addrs))
	undo := make([]ledger.Account, 0, len(addrs))
	for _, addr := range addrs {
		acct, ok := s.accounts[addr]
		if !ok {
			return errors.Wrapf(ErrUnknownAccount, "account %x", addr[:])
		}
		snap := *acct
		snap.Data = append([]byte(nil), acct.Data...)
		accounts = append(accounts, acct)
		undo = append(undo, snap)
	}

	err := fn(accounts)
	if err == nil {
		err = s.checkForeignWrites(p, accounts, undo)
	}
	if err != nil {
		for i, acct := range accounts {
			acct.Balance = undo[i].Balance
			acct.Data = undo[i].Data
		}
		return err
	}
	return nil
}

// checkForeignWrites enforces the host's storage-ownership rule:
// storage writes to accounts the processor does not own abort the
// invocation.
func (s *Sandbox) checkForeignWrites(p *ledger.Processor, accounts []*ledger.Account, undo []ledger.Account) error {
	for i, acct := range accounts {
		if acct.Owner == p.ID {
			continue
		}
		if !bytes.Equal(acct.Data, undo[i].Data) {
			return errors.Wrapf(errors.New("storage write to foreign account"), "account %x owned by %x", acct.ID[:], acct.Owner[:])
		}
	}
	return nil
}
