package utils

import (
	"testing"

	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleTransaction(t *testing.T) {
	f := newTestFixture(t)
	tx := createSignedTx(t, f.alice, []model.UTXO{f.utxo(0)}, []model.Output{pay(f.bob, 6), pay(f.alice, 3)})

	fee, err := HandleTransaction(tx, f.ledger, f.verifier)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fee)

	assert.False(t, f.ledger.Contains(f.utxo(0)))
	o, ok := f.ledger.Get(tx.OutputUtxo(0))
	require.True(t, ok)
	assert.Equal(t, int64(6), o.Value)
	assert.True(t, f.ledger.Contains(tx.OutputUtxo(1)))
	assert.Equal(t, 4, f.ledger.Len())

	// Replaying it finds its input gone.
	_, err = HandleTransaction(tx, f.ledger, f.verifier)
	assert.True(t, errors.Is(err, ErrMissingTxOut))
}

func TestSettleConsumesAndProduces(t *testing.T) {
	f := newTestFixture(t)
	a := createSignedTx(t, f.alice, []model.UTXO{f.utxo(0)}, []model.Output{pay(f.bob, 10)})
	// b spends a's output within the same batch.
	b := createSignedTx(t, f.bob, []model.UTXO{a.OutputUtxo(0)}, []model.Output{pay(f.alice, 4), pay(f.bob, 5)})
	c := createSignedTx(t, f.bob, []model.UTXO{f.utxo(2)}, []model.Output{pay(f.alice, 7)})

	res := SettleTransactions([]*model.Transaction{a, b, c}, f.ledger, f.verifier)
	assert.Equal(t, []*model.Transaction{a, b, c}, res.Accepted)
	assert.Empty(t, res.Rejected)
	assert.Equal(t, map[string]int64{a.Hash: 0, b.Hash: 1, c.Hash: 0}, res.Fees)

	// Consumed.
	assert.False(t, f.ledger.Contains(f.utxo(0)))
	assert.False(t, f.ledger.Contains(f.utxo(2)))
	// Produced then consumed in the same batch.
	assert.False(t, f.ledger.Contains(a.OutputUtxo(0)))
	// Produced and still spendable.
	assert.True(t, f.ledger.Contains(b.OutputUtxo(0)))
	assert.True(t, f.ledger.Contains(b.OutputUtxo(1)))
	assert.True(t, f.ledger.Contains(c.OutputUtxo(0)))
	// Untouched.
	assert.True(t, f.ledger.Contains(f.utxo(1)))
	assert.Equal(t, 4, f.ledger.Len())
}

func TestSettleIsOrderSensitive(t *testing.T) {
	f := newTestFixture(t)
	a := createSignedTx(t, f.alice, []model.UTXO{f.utxo(0)}, []model.Output{pay(f.bob, 10)})
	b := createSignedTx(t, f.bob, []model.UTXO{a.OutputUtxo(0)}, []model.Output{pay(f.alice, 10)})

	forward := f.ledger.Clone()
	accepted := HandleTransactions([]*model.Transaction{a, b}, forward, f.verifier)
	assert.Equal(t, []*model.Transaction{a, b}, accepted)

	backward := f.ledger.Clone()
	res := SettleTransactions([]*model.Transaction{b, a}, backward, f.verifier)
	assert.Equal(t, []*model.Transaction{a}, res.Accepted)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, b, res.Rejected[0].Tx)
	assert.True(t, errors.Is(res.Rejected[0].Err, ErrMissingTxOut))
	assert.True(t, backward.Contains(a.OutputUtxo(0)))
	assert.False(t, backward.Contains(b.OutputUtxo(0)))
}

func TestSettleRejectedLeavesLedgerUntouched(t *testing.T) {
	f := newTestFixture(t)
	good := createSignedTx(t, f.bob, []model.UTXO{f.utxo(2)}, []model.Output{pay(f.alice, 7)})
	// Valid first input, then a missing one: nothing may be removed.
	partial := createSignedTx(t, f.alice, []model.UTXO{f.utxo(0), {PrevTxHash: f.genesis.Hash, Index: 42}}, []model.Output{pay(f.bob, 1)})
	overspend := createSignedTx(t, f.alice, []model.UTXO{f.utxo(1)}, []model.Output{pay(f.bob, 6)})

	withRejects := f.ledger.Clone()
	res := SettleTransactions([]*model.Transaction{partial, good, overspend}, withRejects, f.verifier)
	assert.Equal(t, []*model.Transaction{good}, res.Accepted)
	assert.Len(t, res.Rejected, 2)

	withoutRejects := f.ledger.Clone()
	HandleTransactions([]*model.Transaction{good}, withoutRejects, f.verifier)
	assert.Equal(t, withoutRejects.Snapshot(), withRejects.Snapshot())
}

func TestSettleConflictingSpendsFirstWins(t *testing.T) {
	f := newTestFixture(t)
	first := createSignedTx(t, f.alice, []model.UTXO{f.utxo(0)}, []model.Output{pay(f.bob, 10)})
	second := createSignedTx(t, f.alice, []model.UTXO{f.utxo(0)}, []model.Output{pay(f.alice, 9)})

	res := SettleTransactions([]*model.Transaction{first, second}, f.ledger, f.verifier)
	assert.Equal(t, []*model.Transaction{first}, res.Accepted)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "ErrMissingTxOut", RejectReason(res.Rejected[0].Err))
	assert.False(t, f.ledger.Contains(second.OutputUtxo(0)))
}

func TestSettleAcceptsDuplicateOnce(t *testing.T) {
	f := newTestFixture(t)
	tx := createSignedTx(t, f.alice, []model.UTXO{f.utxo(0)}, []model.Output{pay(f.bob, 10)})
	// An input-less, value-less transaction stays valid after acceptance, so only the hash
	// check keeps it from being accepted twice.
	empty, err := CreateGenesisTx([]model.Output{pay(f.bob, 0)})
	require.NoError(t, err)

	res := SettleTransactions([]*model.Transaction{tx, empty, tx, empty}, f.ledger, f.verifier)
	assert.Equal(t, []*model.Transaction{tx, empty}, res.Accepted)
	require.Len(t, res.Rejected, 2)
	assert.True(t, errors.Is(res.Rejected[0].Err, ErrDuplicateTx))
	assert.True(t, errors.Is(res.Rejected[1].Err, ErrDuplicateTx))
	assert.True(t, f.ledger.Contains(empty.OutputUtxo(0)))
}

func TestSettleEmptyAndInvalidBatches(t *testing.T) {
	f := newTestFixture(t)
	before := f.ledger.Snapshot()

	res := SettleTransactions(nil, f.ledger, f.verifier)
	assert.Empty(t, res.Accepted)
	assert.Empty(t, res.Rejected)

	theft := createSignedTx(t, f.bob, []model.UTXO{f.utxo(0)}, []model.Output{pay(f.bob, 10)})
	negative := createSignedTx(t, f.alice, []model.UTXO{f.utxo(1)}, []model.Output{pay(f.bob, -1)})
	accepted := HandleTransactions([]*model.Transaction{theft, nil, negative}, f.ledger, f.verifier)
	assert.Empty(t, accepted)
	assert.Equal(t, before, f.ledger.Snapshot())
}

func TestSettleChainInOrder(t *testing.T) {
	f := newTestFixture(t)
	a := createSignedTx(t, f.alice, []model.UTXO{f.utxo(0)}, []model.Output{pay(f.bob, 10)})
	b := createSignedTx(t, f.bob, []model.UTXO{a.OutputUtxo(0)}, []model.Output{pay(f.alice, 9)})
	c := createSignedTx(t, f.alice, []model.UTXO{b.OutputUtxo(0)}, []model.Output{pay(f.bob, 8)})

	// c comes before its parent b, so only a and b make it.
	res := SettleTransactions([]*model.Transaction{a, c, b}, f.ledger, f.verifier)
	assert.Equal(t, []*model.Transaction{a, b}, res.Accepted)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, c, res.Rejected[0].Tx)

	// The next batch picks it up.
	assert.Equal(t, []*model.Transaction{c}, HandleTransactions([]*model.Transaction{c}, f.ledger, f.verifier))
	assert.True(t, f.ledger.Contains(c.OutputUtxo(0)))
}
