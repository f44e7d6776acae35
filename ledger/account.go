package ledger

// ID is a 32-byte opaque identity. It names processors, account
// addresses, and account owners interchangeably.
type ID [32]byte

// Account is one host-supplied account: a pre-validated, mutable byte
// buffer plus the ownership and balance metadata the host attaches to
// it. The host hands accounts to the processor for the duration of a
// single invocation; the processor may only write Data on accounts it
// owns.
type Account struct {
	ID      ID
	Owner   ID
	Balance uint64
	Data    []byte
}
