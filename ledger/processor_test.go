package ledger

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/chain/txvm/errors"
)

var (
	testProcessorID = testID(0x01)
	testOwnerID     = testID(0x02)
	testCustodyID   = testID(0x03)
	testDepositorID = testID(0x04)
	testBridgeID    = testID(0x05)
)

func testID(b byte) (id ID) {
	for i := range id {
		id[i] = b
	}
	return id
}

type notification struct {
	custody ID
	other   ID
	amount  uint64
}

type testNotifier struct {
	releases []notification
	checks   []notification
}

func (n *testNotifier) ReleaseRequested(custody, bridge ID, lockedFunds uint64) {
	n.releases = append(n.releases, notification{custody, bridge, lockedFunds})
}

func (n *testNotifier) BalanceChecked(custody ID, lockedFunds uint64) {
	n.checks = append(n.checks, notification{custody: custody, amount: lockedFunds})
}

type transferCall struct {
	from, to ID
	amount   uint64
}

// testProcessor wires a processor to an in-memory transfer primitive
// that records its calls.
func testProcessor() (*Processor, *testNotifier, *[]transferCall) {
	notifier := new(testNotifier)
	calls := new([]transferCall)
	p := &Processor{
		ID:     testProcessorID,
		Notify: notifier,
		Transfer: func(from, to *Account, amount uint64) error {
			if from.Balance < amount {
				return errors.New("insufficient balance")
			}
			from.Balance -= amount
			to.Balance += amount
			*calls = append(*calls, transferCall{from.ID, to.ID, amount})
			return nil
		},
	}
	return p, notifier, calls
}

func custodyAccount(owner ID, lockedFunds uint64) *Account {
	r := Record{Owner: testOwnerID, LockedFunds: lockedFunds}
	return &Account{
		ID:    testCustodyID,
		Owner: owner,
		Data:  r.Encode(),
	}
}

func lockInstruction(amount uint64) []byte {
	instruction := make([]byte, 9)
	instruction[0] = OpLock
	binary.LittleEndian.PutUint64(instruction[1:], amount)
	return instruction
}

func TestLockDeposits(t *testing.T) {
	p, _, calls := testProcessor()
	custody := custodyAccount(testProcessorID, 0)
	depositor := &Account{ID: testDepositorID, Owner: testDepositorID, Balance: 1000}

	err := p.ProcessInstruction([]*Account{custody, depositor}, lockInstruction(500))
	if err != nil {
		t.Fatal(err)
	}

	record, err := DecodeRecord(custody.Data)
	if err != nil {
		t.Fatal(err)
	}
	if record.LockedFunds != 500 {
		t.Errorf("got %d locked, want 500", record.LockedFunds)
	}
	if len(*calls) != 1 {
		t.Fatalf("got %d transfers, want 1", len(*calls))
	}
	if got, want := (*calls)[0], (transferCall{testDepositorID, testCustodyID, 500}); got != want {
		t.Errorf("got transfer %v, want %v", got, want)
	}
	if depositor.Balance != 500 || custody.Balance != 500 {
		t.Errorf("got balances %d/%d, want 500/500", depositor.Balance, custody.Balance)
	}
}

func TestLockAccumulates(t *testing.T) {
	p, _, _ := testProcessor()
	custody := custodyAccount(testProcessorID, 0)
	depositor := &Account{ID: testDepositorID, Owner: testDepositorID, Balance: 1000}

	for _, amount := range []uint64{500, 250} {
		err := p.ProcessInstruction([]*Account{custody, depositor}, lockInstruction(amount))
		if err != nil {
			t.Fatal(err)
		}
	}
	record, _ := DecodeRecord(custody.Data)
	if record.LockedFunds != 750 {
		t.Errorf("got %d locked, want 750", record.LockedFunds)
	}
}

func TestLockOverflow(t *testing.T) {
	p, _, calls := testProcessor()
	custody := custodyAccount(testProcessorID, math.MaxUint64-10)
	depositor := &Account{ID: testDepositorID, Owner: testDepositorID, Balance: 1000}
	before := append([]byte(nil), custody.Data...)

	err := p.ProcessInstruction([]*Account{custody, depositor}, lockInstruction(11))
	if errors.Root(err) != ErrBalanceOverflow {
		t.Fatalf("got %v, want ErrBalanceOverflow", err)
	}
	if !bytes.Equal(custody.Data, before) {
		t.Error("record mutated by failed lock")
	}
	if len(*calls) != 0 {
		t.Error("transfer invoked despite overflow")
	}
}

func TestLockShortPayload(t *testing.T) {
	p, _, calls := testProcessor()
	custody := custodyAccount(testProcessorID, 0)
	depositor := &Account{ID: testDepositorID, Owner: testDepositorID, Balance: 1000}
	before := append([]byte(nil), custody.Data...)

	for _, instruction := range [][]byte{{OpLock}, {OpLock, 1, 2, 3}, lockInstruction(500)[:8]} {
		err := p.ProcessInstruction([]*Account{custody, depositor}, instruction)
		if errors.Root(err) != ErrInvalidInstruction {
			t.Errorf("instruction % x: got %v, want ErrInvalidInstruction", instruction, err)
		}
	}
	if !bytes.Equal(custody.Data, before) {
		t.Error("record mutated by truncated lock")
	}
	if len(*calls) != 0 {
		t.Error("transfer invoked despite truncated payload")
	}
}

func TestLockMissingDepositor(t *testing.T) {
	p, _, _ := testProcessor()
	custody := custodyAccount(testProcessorID, 0)

	err := p.ProcessInstruction([]*Account{custody}, lockInstruction(500))
	if errors.Root(err) != ErrNotEnoughAccounts {
		t.Fatalf("got %v, want ErrNotEnoughAccounts", err)
	}
}

func TestLockTransferFailure(t *testing.T) {
	p, _, _ := testProcessor()
	custody := custodyAccount(testProcessorID, 0)
	depositor := &Account{ID: testDepositorID, Owner: testDepositorID, Balance: 10}
	before := append([]byte(nil), custody.Data...)

	err := p.ProcessInstruction([]*Account{custody, depositor}, lockInstruction(500))
	if errors.Root(err) != ErrTransferFailed {
		t.Fatalf("got %v, want ErrTransferFailed", err)
	}
	if !bytes.Equal(custody.Data, before) {
		t.Error("record mutated by failed transfer")
	}
}

func TestOwnershipGate(t *testing.T) {
	p, _, calls := testProcessor()
	custody := custodyAccount(testID(0x99), 500)
	before := append([]byte(nil), custody.Data...)

	for _, opcode := range []byte{OpLock, OpUnlock, OpCheck} {
		err := p.ProcessInstruction([]*Account{custody}, []byte{opcode})
		if errors.Root(err) != ErrOwnership {
			t.Errorf("opcode %d: got %v, want ErrOwnership", opcode, err)
		}
	}
	if !bytes.Equal(custody.Data, before) {
		t.Error("foreign-owned account bytes changed")
	}
	if len(*calls) != 0 {
		t.Error("transfer invoked on foreign-owned account")
	}
}

func TestUnknownOpcode(t *testing.T) {
	p, _, _ := testProcessor()
	custody := custodyAccount(testProcessorID, 500)
	before := append([]byte(nil), custody.Data...)

	for _, opcode := range []byte{3, 4, 0x7f, 0xff} {
		err := p.ProcessInstruction([]*Account{custody}, []byte{opcode})
		if errors.Root(err) != ErrInvalidInstruction {
			t.Errorf("opcode %d: got %v, want ErrInvalidInstruction", opcode, err)
		}
	}
	if !bytes.Equal(custody.Data, before) {
		t.Error("record mutated by unknown opcode")
	}
}

func TestEmptyInstruction(t *testing.T) {
	p, _, _ := testProcessor()
	custody := custodyAccount(testProcessorID, 0)

	err := p.ProcessInstruction([]*Account{custody}, nil)
	if errors.Root(err) != ErrInvalidInstruction {
		t.Fatalf("got %v, want ErrInvalidInstruction", err)
	}
}

func TestNoAccounts(t *testing.T) {
	p, _, _ := testProcessor()
	err := p.ProcessInstruction(nil, []byte{OpCheck})
	if errors.Root(err) != ErrNotEnoughAccounts {
		t.Fatalf("got %v, want ErrNotEnoughAccounts", err)
	}
}

func TestMalformedStorage(t *testing.T) {
	p, _, _ := testProcessor()
	custody := &Account{ID: testCustodyID, Owner: testProcessorID, Data: make([]byte, RecordSize-1)}

	err := p.ProcessInstruction([]*Account{custody}, []byte{OpCheck})
	if errors.Root(err) != ErrMalformedRecord {
		t.Fatalf("got %v, want ErrMalformedRecord", err)
	}
}

func TestUnlockRequestsRelease(t *testing.T) {
	p, notifier, calls := testProcessor()
	custody := custodyAccount(testProcessorID, 500)
	bridge := &Account{ID: testBridgeID, Owner: testBridgeID}
	before := append([]byte(nil), custody.Data...)

	err := p.ProcessInstruction([]*Account{custody, bridge}, []byte{OpUnlock})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(custody.Data, before) {
		t.Error("unlock mutated the record")
	}
	if len(*calls) != 0 {
		t.Error("unlock moved funds")
	}
	if len(notifier.releases) != 1 {
		t.Fatalf("got %d release notifications, want 1", len(notifier.releases))
	}
	if got, want := notifier.releases[0], (notification{testCustodyID, testBridgeID, 500}); got != want {
		t.Errorf("got notification %v, want %v", got, want)
	}
}

func TestUnlockMissingBridge(t *testing.T) {
	p, notifier, _ := testProcessor()
	custody := custodyAccount(testProcessorID, 500)

	err := p.ProcessInstruction([]*Account{custody}, []byte{OpUnlock})
	if errors.Root(err) != ErrNotEnoughAccounts {
		t.Fatalf("got %v, want ErrNotEnoughAccounts", err)
	}
	if len(notifier.releases) != 0 {
		t.Error("notification emitted despite missing bridge account")
	}
}

func TestCheckReportsBalance(t *testing.T) {
	p, notifier, _ := testProcessor()
	custody := custodyAccount(testProcessorID, 500)
	before := append([]byte(nil), custody.Data...)

	err := p.ProcessInstruction([]*Account{custody}, []byte{OpCheck})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(custody.Data, before) {
		t.Error("check mutated the record")
	}
	if len(notifier.checks) != 1 {
		t.Fatalf("got %d check notifications, want 1", len(notifier.checks))
	}
	if notifier.checks[0].amount != 500 {
		t.Errorf("reported %d, want 500", notifier.checks[0].amount)
	}
}
