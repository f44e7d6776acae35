package ledger

import (
	"encoding/binary"

	"github.com/chain/txvm/errors"
)

// RecordSize is the exact size of an encoded custody record. The
// layout is fixed and unversioned: any other length is rejected rather
// than guessed at.
const RecordSize = 40

// Record is the custody state persisted in a custody account's data
// buffer: the owner identity set at account creation, and the balance
// currently held in custody.
//
// Layout:
//
//	offset 0, 32 bytes: owner, raw identity bytes
//	offset 32, 8 bytes: locked funds, little-endian uint64
type Record struct {
	Owner       ID
	LockedFunds uint64
}

// DecodeRecord parses a custody account's storage. It fails with
// ErrMalformedRecord unless bits is exactly RecordSize bytes.
func DecodeRecord(bits []byte) (*Record, error) {
	if len(bits) != RecordSize {
		return nil, errors.Wrapf(ErrMalformedRecord, "got %d bytes, want %d", len(bits), RecordSize)
	}
	r := new(Record)
	copy(r.Owner[:], bits[:32])
	r.LockedFunds = binary.LittleEndian.Uint64(bits[32:])
	return r, nil
}

// Encode serializes r into a fresh RecordSize-byte buffer. It cannot
// fail, and DecodeRecord(r.Encode()) always reproduces r.
func (r *Record) Encode() []byte {
	bits := make([]byte, RecordSize)
	copy(bits[:32], r.Owner[:])
	binary.LittleEndian.PutUint64(bits[32:], r.LockedFunds)
	return bits
}
