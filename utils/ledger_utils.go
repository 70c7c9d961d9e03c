package utils

import (
	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Rejection is a candidate that was not accepted, with the reason.
type Rejection struct {
	Tx  *model.Transaction
	Err error
}

// SettleResult is the outcome of settling one batch.
type SettleResult struct {
	// Accepted transactions, in the order they were applied to the ledger.
	Accepted []*model.Transaction
	// Rejected candidates, in batch order.
	Rejected []Rejection
	// Implicit fee of each accepted transaction, keyed by hash.
	Fees map[string]int64
}

// Handle transaction:
// 1. Validate transaction against the current ledger.
// 2. Claim every input.
// 3. Store every output.
// Nothing is touched when validation fails. Returns the implicit fee on success.
func HandleTransaction(tx *model.Transaction, l *model.Ledger, v Verifier) (int64, error) {
	// First validate the transaction.
	fee, err := checkTransaction(tx, l, v)
	if err != nil {
		return 0, err
	}

	// Claim every input
	for i := 0; i < len(tx.Inputs); i++ {
		l.Remove(tx.Inputs[i].Utxo())
	}

	// Store every output
	for k := 0; k < len(tx.Outputs); k++ {
		utxo := tx.OutputUtxo(k)
		if replaced := l.Insert(utxo, tx.Outputs[k]); replaced {
			// Hashes are assumed collision free, so this should never happen.
			log.Warn().Str("utxo", utxo.String()).Msg("settled output overwrote an existing spendable output")
		}
	}

	return clampInt64(fee), nil
}

// SettleTransactions applies txs to the ledger in one forward pass, in the given order.
// Each candidate is checked against the ledger as left by the candidates before it, so
// a transaction spending an output created in the same batch is only accepted when its
// parent comes first. The ledger is changed in place.
func SettleTransactions(txs []*model.Transaction, l *model.Ledger, v Verifier) *SettleResult {
	res := &SettleResult{
		Fees: make(map[string]int64),
	}
	accepted := make(map[string]struct{}, len(txs))

	for i, tx := range txs {
		if tx == nil {
			log.Debug().Int("position", i).Msg("skipping nil candidate")
			continue
		}
		if _, exist := accepted[tx.Hash]; exist {
			err := errors.Wrapf(ErrDuplicateTx, "transaction %s already accepted in this batch", tx.Hash)
			res.Rejected = append(res.Rejected, Rejection{Tx: tx, Err: err})
			continue
		}

		fee, err := HandleTransaction(tx, l, v)
		if err != nil {
			log.Debug().
				Str("tx", tx.Hash).
				Int("position", i).
				Str("reason", RejectReason(err)).
				Err(err).
				Msg("transaction rejected")
			res.Rejected = append(res.Rejected, Rejection{Tx: tx, Err: err})
			continue
		}

		accepted[tx.Hash] = struct{}{}
		res.Accepted = append(res.Accepted, tx)
		res.Fees[tx.Hash] = fee
	}

	return res
}

// Handle a bunch of transactions and return the mutually valid ones that were applied.
// Note that ledger will be changed directly, when passing ledger to this function, be sure
// to pass a copy if the original must survive.
func HandleTransactions(txs []*model.Transaction, l *model.Ledger, v Verifier) []*model.Transaction {
	return SettleTransactions(txs, l, v).Accepted
}
