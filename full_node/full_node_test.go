package full_node

import (
	"testing"

	"github.com/Luismorlan/utxo_ledger/config"
	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/Luismorlan/utxo_ledger/store"
	"github.com/Luismorlan/utxo_ledger/utils"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nodeFixture struct {
	alice   utils.Signer
	bob     utils.Signer
	genesis *model.Transaction
	node    *FullNode
}

// newNodeFixture creates a node whose ledger holds alice 10 and bob 7.
func newNodeFixture(t *testing.T, opts ...Option) *nodeFixture {
	alice, err := utils.NewSigner(utils.SchemeSecp256k1)
	require.NoError(t, err)
	bob, err := utils.NewSigner(utils.SchemeSecp256k1)
	require.NoError(t, err)

	genesis, err := utils.CreateGenesisTx([]model.Output{
		{Value: 10, PublicKey: alice.PublicKey()},
		{Value: 7, PublicKey: bob.PublicKey()},
	})
	require.NoError(t, err)

	node, err := NewFullNode(config.DefaultAppConfig(), utils.GenesisSnapshot(genesis), opts...)
	require.NoError(t, err)
	return &nodeFixture{alice: alice, bob: bob, genesis: genesis, node: node}
}

func createSignedTx(t *testing.T, signer utils.Signer, claims []model.UTXO, outputs ...model.Output) *model.Transaction {
	tx := &model.Transaction{Outputs: outputs}
	for _, u := range claims {
		tx.Inputs = append(tx.Inputs, model.Input{PrevTxHash: u.PrevTxHash, Index: u.Index})
	}
	require.NoError(t, utils.SignTransaction(tx, signer))
	return tx
}

func pay(signer utils.Signer, value int64) model.Output {
	return model.Output{Value: value, PublicKey: signer.PublicKey()}
}

func TestNewFullNode_CopiesSnapshot(t *testing.T) {
	alice, err := utils.NewSigner(utils.SchemeSecp256k1)
	require.NoError(t, err)
	u := model.UTXO{PrevTxHash: "aa", Index: 0}
	snapshot := map[model.UTXO]model.Output{u: pay(alice, 3)}

	node, err := NewFullNode(config.DefaultAppConfig(), snapshot)
	require.NoError(t, err)
	delete(snapshot, u)

	assert.Len(t, node.GetLedgerSnapshot(), 1)
	assert.Equal(t, int64(0), node.GetHeight())
	assert.Nil(t, node.GetLastEpoch())
	assert.NotEmpty(t, node.GetUUID())
}

func TestNewFullNode_UnknownScheme(t *testing.T) {
	c := config.DefaultAppConfig()
	c.SIGNATURE_SCHEME = "ed25519"
	_, err := NewFullNode(c, nil)
	assert.Error(t, err)
}

func TestAddTransactionToPool(t *testing.T) {
	f := newNodeFixture(t)

	assert.Error(t, f.node.AddTransactionToPool(nil))

	tx := createSignedTx(t, f.alice, []model.UTXO{f.genesis.OutputUtxo(0)}, pay(f.bob, 10))
	require.NoError(t, f.node.AddTransactionToPool(tx))
	assert.Error(t, f.node.AddTransactionToPool(tx), "duplicate submission")
	assert.Len(t, f.node.GetPending(), 1)

	// Hash must match content.
	tampered := createSignedTx(t, f.alice, []model.UTXO{f.genesis.OutputUtxo(0)}, pay(f.bob, 9))
	tampered.Outputs[0].Value = 1
	assert.Error(t, f.node.AddTransactionToPool(tampered))

	// Bob can't spend alice's output.
	stolen := createSignedTx(t, f.bob, []model.UTXO{f.genesis.OutputUtxo(0)}, pay(f.bob, 10))
	err := f.node.AddTransactionToPool(stolen)
	assert.ErrorIs(t, err, utils.ErrInvalidSignature)

	// An unknown input may be created by a pending transaction, so it is admitted.
	child := createSignedTx(t, f.bob, []model.UTXO{tx.OutputUtxo(0)}, pay(f.alice, 10))
	assert.NoError(t, f.node.AddTransactionToPool(child))
	assert.Len(t, f.node.GetPending(), 2)
}

func TestIsValidTransaction(t *testing.T) {
	f := newNodeFixture(t)
	tx := createSignedTx(t, f.alice, []model.UTXO{f.genesis.OutputUtxo(0)}, pay(f.bob, 11))
	assert.ErrorIs(t, f.node.IsValidTransaction(tx), utils.ErrSpendTooHigh)

	tx = createSignedTx(t, f.alice, []model.UTXO{f.genesis.OutputUtxo(0)}, pay(f.bob, 10))
	assert.NoError(t, f.node.IsValidTransaction(tx))
	assert.NoError(t, f.node.IsValidTransaction(tx))
	assert.Len(t, f.node.GetLedgerSnapshot(), 2)
}

func TestSettleEpoch_ChainInArrivalOrder(t *testing.T) {
	f := newNodeFixture(t)
	parent := createSignedTx(t, f.alice, []model.UTXO{f.genesis.OutputUtxo(0)}, pay(f.bob, 6), pay(f.alice, 3))
	child := createSignedTx(t, f.bob, []model.UTXO{parent.OutputUtxo(0), f.genesis.OutputUtxo(1)}, pay(f.alice, 13))
	require.NoError(t, f.node.AddTransactionToPool(parent))
	require.NoError(t, f.node.AddTransactionToPool(child))

	epoch, err := f.node.SettleEpoch()
	require.NoError(t, err)
	assert.Equal(t, int64(1), epoch.Height)
	assert.Equal(t, []string{parent.Hash, child.Hash}, epoch.AcceptedHashes())
	assert.Empty(t, epoch.Rejected)
	assert.Equal(t, int64(1), epoch.Fees[parent.Hash])
	assert.Equal(t, int64(0), epoch.Fees[child.Hash])
	assert.Equal(t, int64(1), epoch.TotalFees())
	assert.Equal(t, 2, epoch.LedgerSize)
	assert.Same(t, epoch, f.node.GetLastEpoch())
	assert.Equal(t, int64(1), f.node.GetHeight())
	assert.Empty(t, f.node.GetPending())

	aliceUtxos := f.node.GetUtxoForPublicKey(f.alice.PublicKey())
	assert.Len(t, aliceUtxos, 2)
	assert.Equal(t, int64(13), aliceUtxos[child.OutputUtxo(0)].Value)
	assert.Empty(t, f.node.GetUtxoForPublicKey(f.bob.PublicKey()))
}

func TestSettleEpoch_ChildBeforeParentRetries(t *testing.T) {
	f := newNodeFixture(t)
	parent := createSignedTx(t, f.alice, []model.UTXO{f.genesis.OutputUtxo(0)}, pay(f.bob, 10))
	child := createSignedTx(t, f.bob, []model.UTXO{parent.OutputUtxo(0)}, pay(f.alice, 10))
	require.NoError(t, f.node.AddTransactionToPool(child))
	require.NoError(t, f.node.AddTransactionToPool(parent))

	epoch, err := f.node.SettleEpoch()
	require.NoError(t, err)
	assert.Equal(t, []string{parent.Hash}, epoch.AcceptedHashes())
	require.Len(t, epoch.Rejected, 1)
	assert.Equal(t, child.Hash, epoch.Rejected[0].Tx.Hash)
	assert.Equal(t, "ErrMissingTxOut", epoch.Rejected[0].Reason)
	assert.Equal(t, []*model.Transaction{child}, f.node.GetPending())

	epoch, err = f.node.SettleEpoch()
	require.NoError(t, err)
	assert.Equal(t, int64(2), epoch.Height)
	assert.Equal(t, []string{child.Hash}, epoch.AcceptedHashes())
	assert.Empty(t, f.node.GetPending())
}

func TestSettleEpoch_RetryBudget(t *testing.T) {
	f := newNodeFixture(t)
	orphan := createSignedTx(t, f.alice, []model.UTXO{{PrevTxHash: "ff", Index: 0}}, pay(f.bob, 1))
	require.NoError(t, f.node.AddTransactionToPool(orphan))

	// Default budget keeps it for one more epoch.
	_, err := f.node.SettleEpoch()
	require.NoError(t, err)
	assert.Len(t, f.node.GetPending(), 1)
	_, err = f.node.SettleEpoch()
	require.NoError(t, err)
	assert.Empty(t, f.node.GetPending())

	c := config.DefaultAppConfig()
	c.PENDING_RETRY_EPOCHS = 0
	node, err := NewFullNode(c, utils.GenesisSnapshot(f.genesis))
	require.NoError(t, err)
	require.NoError(t, node.AddTransactionToPool(orphan))
	_, err = node.SettleEpoch()
	require.NoError(t, err)
	assert.Empty(t, node.GetPending())
}

func TestSettleEpoch_ConflictDropped(t *testing.T) {
	f := newNodeFixture(t)
	toBob := createSignedTx(t, f.alice, []model.UTXO{f.genesis.OutputUtxo(0)}, pay(f.bob, 10))
	toAlice := createSignedTx(t, f.alice, []model.UTXO{f.genesis.OutputUtxo(0)}, pay(f.alice, 10))
	require.NoError(t, f.node.AddTransactionToPool(toBob))
	require.NoError(t, f.node.AddTransactionToPool(toAlice))

	epoch, err := f.node.SettleEpoch()
	require.NoError(t, err)
	assert.Equal(t, []string{toBob.Hash}, epoch.AcceptedHashes())
	require.Len(t, epoch.Rejected, 1)
	assert.Equal(t, toAlice.Hash, epoch.Rejected[0].Tx.Hash)
	assert.Equal(t, int64(10), f.node.GetLedgerSnapshot()[toBob.OutputUtxo(0)].Value)
}

func TestSettleEpoch_Empty(t *testing.T) {
	f := newNodeFixture(t)
	epoch, err := f.node.SettleEpoch()
	require.NoError(t, err)
	assert.Equal(t, int64(1), epoch.Height)
	assert.Empty(t, epoch.Accepted)
	assert.Empty(t, epoch.Rejected)
	assert.Equal(t, 2, epoch.LedgerSize)
}

func TestHandleTxs(t *testing.T) {
	f := newNodeFixture(t)
	a := createSignedTx(t, f.alice, []model.UTXO{f.genesis.OutputUtxo(0)}, pay(f.bob, 10))
	b := createSignedTx(t, f.bob, []model.UTXO{a.OutputUtxo(0)}, pay(f.alice, 10))
	require.NoError(t, f.node.AddTransactionToPool(a))

	// Order matters: b needs a's output.
	accepted, err := f.node.HandleTxs([]*model.Transaction{b, a})
	require.NoError(t, err)
	assert.Equal(t, []*model.Transaction{a}, accepted)
	assert.Empty(t, f.node.GetPending(), "accepted transactions leave the pool")

	accepted, err = f.node.HandleTxs([]*model.Transaction{b, b})
	require.NoError(t, err)
	assert.Equal(t, []*model.Transaction{b}, accepted)
	epoch := f.node.GetLastEpoch()
	require.Len(t, epoch.Rejected, 1)
	assert.Equal(t, "ErrDuplicateTx", epoch.Rejected[0].Reason)
	assert.Equal(t, int64(2), f.node.GetHeight())
}

func TestSettleEpoch_Metrics(t *testing.T) {
	f := newNodeFixture(t)
	accepted := testutil.ToFloat64(prometheusTxAccepted)
	badSig := testutil.ToFloat64(prometheusTxRejected.WithLabelValues("ErrInvalidSignature"))

	tx := createSignedTx(t, f.alice, []model.UTXO{f.genesis.OutputUtxo(0)}, pay(f.bob, 10))
	forged := createSignedTx(t, f.bob, []model.UTXO{f.genesis.OutputUtxo(0)}, pay(f.bob, 10))
	_, err := f.node.HandleTxs([]*model.Transaction{forged, tx})
	require.NoError(t, err)

	assert.Equal(t, accepted+1, testutil.ToFloat64(prometheusTxAccepted))
	assert.Equal(t, badSig+1, testutil.ToFloat64(prometheusTxRejected.WithLabelValues("ErrInvalidSignature")))
	assert.Equal(t, float64(2), testutil.ToFloat64(prometheusLedgerSize))
}

func TestFullNode_PersistsAndResumes(t *testing.T) {
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	f := newNodeFixture(t, WithStore(s))
	tx := createSignedTx(t, f.alice, []model.UTXO{f.genesis.OutputUtxo(0)}, pay(f.bob, 4), pay(f.alice, 6))
	require.NoError(t, f.node.AddTransactionToPool(tx))
	_, err = f.node.SettleEpoch()
	require.NoError(t, err)

	// The stored ledger wins over the snapshot handed to the constructor.
	resumed, err := NewFullNode(config.DefaultAppConfig(), nil, WithStore(s))
	require.NoError(t, err)
	assert.Equal(t, int64(1), resumed.GetHeight())
	assert.Equal(t, f.node.GetLedgerSnapshot(), resumed.GetLedgerSnapshot())
}
