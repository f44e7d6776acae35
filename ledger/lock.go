package ledger

import (
	"encoding/binary"

	"github.com/chain/txvm/errors"
)

// lock deposits funds into custody: it moves amount from the depositor
// account to the custody account through the host transfer primitive,
// then credits the record. The overflow check runs before the transfer
// so that a rejected lock moves nothing.
func (p *Processor) lock(r *Record, custody *Account, rest []*Account, args []byte) error {
	if len(rest) < 1 {
		return errors.Wrap(ErrNotEnoughAccounts, "missing depositor account")
	}
	depositor := rest[0]

	if len(args) < 8 {
		return errors.Wrapf(ErrInvalidInstruction, "lock amount truncated: got %d bytes, want 8", len(args))
	}
	amount := binary.LittleEndian.Uint64(args[:8])

	if r.LockedFunds+amount < r.LockedFunds {
		return errors.Wrapf(ErrBalanceOverflow, "locking %d on top of %d", amount, r.LockedFunds)
	}

	err := p.Transfer(depositor, custody, amount)
	if err != nil {
		return errors.Wrapf(ErrTransferFailed, "moving %d from depositor %x into custody: %s", amount, depositor.ID[:], err)
	}

	r.LockedFunds += amount
	return nil
}
