package ledger

import "github.com/chain/txvm/errors"

// Every error the processor can return wraps one of these sentinels.
// Callers test for them with errors.Root. All are fatal to the
// invocation: the custody record is never committed after any of them.
var (
	// ErrOwnership means the custody account is owned by a different
	// processor and its bytes must not be interpreted as a record.
	ErrOwnership = errors.New("custody account owned by wrong processor")

	// ErrNotEnoughAccounts means the caller supplied fewer accounts
	// than the operation requires.
	ErrNotEnoughAccounts = errors.New("not enough accounts")

	// ErrInvalidInstruction means an unknown opcode or a truncated
	// instruction payload.
	ErrInvalidInstruction = errors.New("invalid instruction")

	// ErrMalformedRecord means the custody account's storage cannot be
	// decoded as a record.
	ErrMalformedRecord = errors.New("malformed custody record")

	// ErrBalanceOverflow means a lock would overflow the locked
	// balance.
	ErrBalanceOverflow = errors.New("locked balance overflow")

	// ErrInsufficientFunds means an authorized release asked for more
	// than is locked.
	ErrInsufficientFunds = errors.New("insufficient locked funds")

	// ErrTransferFailed means the host's value-transfer primitive
	// reported failure.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrBadAuthorization means a release authorization did not verify
	// against the bridge key or did not match the supplied accounts.
	ErrBadAuthorization = errors.New("release not authorized by bridge")
)
