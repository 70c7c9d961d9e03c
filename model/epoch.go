package model

// RejectedTransaction is a candidate that was not accepted in an epoch, together
// with the rule it broke.
type RejectedTransaction struct {
	Tx *Transaction
	// Name of the failed rule, e.g. "ErrMissingTxOut".
	Reason string
}

// Epoch records the outcome of settling one batch against the ledger.
type Epoch struct {
	// Height is 1 for the first settled batch and grows by one per epoch.
	Height int64
	// Accepted transactions, in the order they were applied.
	Accepted []*Transaction
	// Rejected candidates, in the order they were seen.
	Rejected []RejectedTransaction
	// Value that vanished from each accepted transaction, keyed by transaction hash.
	Fees map[string]int64
	// Number of spendable outputs once the epoch was applied.
	LedgerSize int
}

// AcceptedHashes returns the hashes of the accepted transactions.
func (e *Epoch) AcceptedHashes() []string {
	hashes := make([]string, 0, len(e.Accepted))
	for _, tx := range e.Accepted {
		hashes = append(hashes, tx.Hash)
	}
	return hashes
}

// TotalFees sums the implicit fee of every accepted transaction.
func (e *Epoch) TotalFees() int64 {
	var total int64
	for _, fee := range e.Fees {
		total += fee
	}
	return total
}
