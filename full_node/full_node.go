package full_node

import (
	"sync"
	"time"

	"github.com/Luismorlan/utxo_ledger/config"
	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/Luismorlan/utxo_ledger/store"
	"github.com/Luismorlan/utxo_ledger/utils"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	uuid "github.com/satori/go.uuid"
)

// A full node owns the ledger and settles pending transactions into it, one epoch at a time.
// The settlement core has no locking of its own; the node is what serializes callers.
type FullNode struct {
	// Spendable outputs as of the last settled epoch.
	ledger *model.Ledger
	// Transaction pool it need to maintain. Incoming transaction are added to this pool.
	txPool *model.TransactionPool
	// Signature primitive matching the configured scheme.
	verifier utils.Verifier
	// Optional persistence, written after every epoch.
	store *store.LedgerStore
	// Node config.
	config config.AppConfig
	// A single mutex for changing internal state.
	m sync.RWMutex
	// A unique indentifier of this Fullnode, only used for logs and rendering.
	uuid string
	// Number of settled epochs.
	height int64
	// Outcome of the most recent epoch, nil before the first one.
	lastEpoch *model.Epoch
	logger    zerolog.Logger
}

type Option func(f *FullNode)

// WithStore persists the ledger after each epoch and resumes from the stored ledger when present.
func WithStore(s *store.LedgerStore) Option {
	return func(f *FullNode) {
		f.store = s
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(f *FullNode) {
		f.logger = l
	}
}

// WithVerifier replaces the verifier derived from the config.
func WithVerifier(v utils.Verifier) Option {
	return func(f *FullNode) {
		f.verifier = v
	}
}

// Create a full node whose ledger is a copy of snapshot, unless the store already holds a ledger.
func NewFullNode(c config.AppConfig, snapshot map[model.UTXO]model.Output, opts ...Option) (*FullNode, error) {
	initPrometheusMetrics()

	f := &FullNode{
		txPool: model.NewTransactionPool(),
		config: c,
		uuid:   uuid.NewV4().String(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.verifier == nil {
		v, err := utils.NewVerifier(c.SIGNATURE_SCHEME)
		if err != nil {
			return nil, err
		}
		f.verifier = v
	}

	if f.store != nil {
		stored, height, found, err := f.store.LoadLedger()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load stored ledger")
		}
		if found {
			f.logger.Info().Int64("height", height).Int("utxos", len(stored)).Msg("resuming from stored ledger")
			snapshot = stored
			f.height = height
		}
	}
	f.ledger = model.NewLedgerFromSnapshot(snapshot)
	prometheusLedgerSize.Set(float64(f.ledger.Len()))

	f.logger = f.logger.With().Str("node", f.uuid).Logger()
	return f, nil
}

func (f *FullNode) GetUUID() string {
	return f.uuid
}

// AddTransactionToPool queues tx for the next epoch. The transaction must carry its own hash,
// and must not break any rule other than referencing an output that doesn't exist yet: its
// parent may still be pending.
func (f *FullNode) AddTransactionToPool(tx *model.Transaction) error {
	if tx == nil {
		return errors.New("input transaction is nil")
	}
	hash, err := utils.ComputeTxHash(tx)
	if err != nil {
		return errors.Wrap(err, "malformed transaction")
	}
	if hash != tx.Hash {
		return errors.Errorf("transaction hash %s doesn't match its content %s", tx.Hash, hash)
	}

	f.m.Lock()
	defer f.m.Unlock()

	if f.txPool.Has(tx.Hash) {
		return errors.New("existing transaction, will not process")
	}
	if err := utils.CheckTransaction(tx, f.ledger, f.verifier); err != nil && !errors.Is(err, utils.ErrMissingTxOut) {
		return err
	}
	f.txPool.Add(tx)
	prometheusPendingTxs.Set(float64(f.txPool.Len()))
	f.logger.Debug().Str("tx", tx.Hash).Int("pending", f.txPool.Len()).Msg("transaction added to pool")
	return nil
}

// IsValidTransaction checks tx against the current ledger without changing anything.
func (f *FullNode) IsValidTransaction(tx *model.Transaction) error {
	f.m.RLock()
	defer f.m.RUnlock()
	return utils.CheckTransaction(tx, f.ledger, f.verifier)
}

// HandleTxs settles the given batch directly, bypassing the pool, and returns the
// accepted transactions.
func (f *FullNode) HandleTxs(txs []*model.Transaction) ([]*model.Transaction, error) {
	f.m.Lock()
	defer f.m.Unlock()

	epoch, _, err := f.settle(txs)
	for _, tx := range epoch.Accepted {
		f.txPool.Remove(tx.Hash)
	}
	prometheusPendingTxs.Set(float64(f.txPool.Len()))
	return epoch.Accepted, err
}

// SettleEpoch drains the pool in arrival order and settles it as one batch.
// Transactions rejected only because an input is missing go back to the pool until they
// have failed PENDING_RETRY_EPOCHS more times; everything else rejected is dropped.
func (f *FullNode) SettleEpoch() (*model.Epoch, error) {
	f.m.Lock()
	defer f.m.Unlock()

	pending := f.txPool.Drain()
	txs := make([]*model.Transaction, 0, len(pending))
	byTx := make(map[*model.Transaction]*model.PendingTx, len(pending))
	for _, ptx := range pending {
		txs = append(txs, ptx.Tx)
		byTx[ptx.Tx] = ptx
	}

	epoch, res, err := f.settle(txs)

	for _, rejection := range res.Rejected {
		ptx := byTx[rejection.Tx]
		if errors.Is(rejection.Err, utils.ErrMissingTxOut) && ptx.Attempts < f.config.PENDING_RETRY_EPOCHS {
			f.txPool.Requeue(ptx)
		}
	}
	prometheusPendingTxs.Set(float64(f.txPool.Len()))
	return epoch, err
}

// settle applies txs to the ledger and records the epoch. Must be called with the write lock.
// The returned error only reports a persistence failure; the epoch is applied either way.
func (f *FullNode) settle(txs []*model.Transaction) (*model.Epoch, *utils.SettleResult, error) {
	start := time.Now()
	res := utils.SettleTransactions(txs, f.ledger, f.verifier)
	f.height++

	epoch := &model.Epoch{
		Height:     f.height,
		Accepted:   res.Accepted,
		Fees:       res.Fees,
		LedgerSize: f.ledger.Len(),
	}
	for _, rejection := range res.Rejected {
		reason := utils.RejectReason(rejection.Err)
		epoch.Rejected = append(epoch.Rejected, model.RejectedTransaction{Tx: rejection.Tx, Reason: reason})
		prometheusTxRejected.WithLabelValues(reason).Inc()
	}
	f.lastEpoch = epoch

	prometheusTxAccepted.Add(float64(len(res.Accepted)))
	prometheusFees.Add(float64(epoch.TotalFees()))
	prometheusLedgerSize.Set(float64(epoch.LedgerSize))
	prometheusSettleDuration.Observe(time.Since(start).Seconds())

	f.logger.Info().
		Int64("height", epoch.Height).
		Int("accepted", len(epoch.Accepted)).
		Int("rejected", len(epoch.Rejected)).
		Int64("fees", epoch.TotalFees()).
		Int("utxos", epoch.LedgerSize).
		Msg("epoch settled")

	if f.store != nil {
		if err := f.store.SaveLedger(f.ledger, f.height); err != nil {
			f.logger.Error().Err(err).Int64("height", f.height).Msg("failed to persist ledger")
			return epoch, res, err
		}
	}
	return epoch, res, nil
}

// GetLedgerSnapshot returns a deep copy of the current ledger.
func (f *FullNode) GetLedgerSnapshot() map[model.UTXO]model.Output {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.ledger.Snapshot()
}

// Return all utxo the public key owned.
func (f *FullNode) GetUtxoForPublicKey(pk []byte) map[model.UTXO]model.Output {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.ledger.UtxosForPublicKey(pk)
}

func (f *FullNode) GetHeight() int64 {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.height
}

// GetLastEpoch returns the outcome of the most recent epoch, or nil before the first.
func (f *FullNode) GetLastEpoch() *model.Epoch {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.lastEpoch
}

// GetPending returns the pending transactions in arrival order.
func (f *FullNode) GetPending() []*model.Transaction {
	f.m.RLock()
	defer f.m.RUnlock()
	var txs []*model.Transaction
	for _, ptx := range f.txPool.Pending() {
		txs = append(txs, ptx.Tx)
	}
	return txs
}

// Close releases the store, if any.
func (f *FullNode) Close() error {
	if f.store == nil {
		return nil
	}
	return f.store.Close()
}
