package model

// PendingTx is a transaction waiting in the pool for the next epoch.
type PendingTx struct {
	Tx *Transaction
	// How many epochs already tried and failed to settle this transaction.
	Attempts int
}

// TransactionPool contains all pending transactions that haven't been settled yet.
// Arrival order is kept because settlement is order dependent.
type TransactionPool struct {
	// Key is the hex of transaction's hash.
	txs   map[string]*PendingTx
	order []string
}

// NewTransactionPool creates a new transaction pool with no transaction at all.
func NewTransactionPool() *TransactionPool {
	return &TransactionPool{
		txs: make(map[string]*PendingTx),
	}
}

// Add appends tx to the pool. Returns false if a transaction with the same hash is already pending.
func (p *TransactionPool) Add(tx *Transaction) bool {
	return p.add(&PendingTx{Tx: tx})
}

func (p *TransactionPool) add(ptx *PendingTx) bool {
	if _, exist := p.txs[ptx.Tx.Hash]; exist {
		return false
	}
	p.txs[ptx.Tx.Hash] = ptx
	p.order = append(p.order, ptx.Tx.Hash)
	return true
}

// Requeue puts a transaction back at the end of the pool with one more failed attempt.
func (p *TransactionPool) Requeue(ptx *PendingTx) bool {
	return p.add(&PendingTx{Tx: ptx.Tx, Attempts: ptx.Attempts + 1})
}

func (p *TransactionPool) Has(hash string) bool {
	_, exist := p.txs[hash]
	return exist
}

// Remove drops a pending transaction. Removing an unknown hash is a no-op.
func (p *TransactionPool) Remove(hash string) {
	if _, exist := p.txs[hash]; !exist {
		return
	}
	delete(p.txs, hash)
	for i, h := range p.order {
		if h == hash {
			p.order = append(p.order[:i], p.order[i+1:]...)
			return
		}
	}
}

func (p *TransactionPool) Len() int {
	return len(p.txs)
}

// Pending returns the pending transactions in arrival order without removing them.
func (p *TransactionPool) Pending() []*PendingTx {
	res := make([]*PendingTx, 0, len(p.order))
	for _, h := range p.order {
		res = append(res, p.txs[h])
	}
	return res
}

// Drain empties the pool and returns its content in arrival order.
func (p *TransactionPool) Drain() []*PendingTx {
	res := p.Pending()
	p.txs = make(map[string]*PendingTx)
	p.order = nil
	return res
}
