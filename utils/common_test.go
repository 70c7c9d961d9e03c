package utils

import (
	"testing"

	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/stretchr/testify/require"
)

// testFixture is a ledger seeded by a genesis transaction paying alice 10 and 5 and bob 7.
type testFixture struct {
	alice    Signer
	bob      Signer
	verifier Verifier
	genesis  *model.Transaction
	ledger   *model.Ledger
}

func newTestFixture(t *testing.T) *testFixture {
	alice, err := NewSigner(SchemeSecp256k1)
	require.NoError(t, err)
	bob, err := NewSigner(SchemeSecp256k1)
	require.NoError(t, err)

	genesis, err := CreateGenesisTx([]model.Output{
		{Value: 10, PublicKey: alice.PublicKey()},
		{Value: 5, PublicKey: alice.PublicKey()},
		{Value: 7, PublicKey: bob.PublicKey()},
	})
	require.NoError(t, err)

	return &testFixture{
		alice:    alice,
		bob:      bob,
		verifier: Secp256k1Verifier{},
		genesis:  genesis,
		ledger:   model.NewLedgerFromSnapshot(GenesisSnapshot(genesis)),
	}
}

// utxo returns the k-th genesis output.
func (f *testFixture) utxo(k int) model.UTXO {
	return f.genesis.OutputUtxo(k)
}

// createSignedTx builds a transaction claiming claims, every input signed by signer.
func createSignedTx(t *testing.T, signer Signer, claims []model.UTXO, outputs []model.Output) *model.Transaction {
	tx := &model.Transaction{Outputs: outputs}
	for _, u := range claims {
		tx.Inputs = append(tx.Inputs, model.Input{PrevTxHash: u.PrevTxHash, Index: u.Index})
	}
	require.NoError(t, SignTransaction(tx, signer))
	return tx
}

func pay(signer Signer, value int64) model.Output {
	return model.Output{Value: value, PublicKey: signer.PublicKey()}
}
