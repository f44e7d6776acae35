package ledger

// check reports the current locked balance through the notifier sink.
// No mutation.
func (p *Processor) check(r *Record, custody *Account) error {
	p.Notify.BalanceChecked(custody.ID, r.LockedFunds)
	return nil
}
