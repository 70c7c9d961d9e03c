package model

import (
	"bytes"
	"fmt"
)

// Unspent transaction output identifier.
type UTXO struct {
	// Hex string of the transaction.
	PrevTxHash string
	// The index of the output in that transaction. Together with PrevTxHash, it identifies the unique output.
	Index int64
}

func (u UTXO) String() string {
	return fmt.Sprintf("%s:%d", u.PrevTxHash, u.Index)
}

// LedgerView is the read-only side of a Ledger. Validation only ever gets this.
type LedgerView interface {
	Contains(u UTXO) bool
	Get(u UTXO) (Output, bool)
	Len() int
}

// Ledger is simply a pool of UTXO. It has no locking of its own; whoever owns
// it must serialize mutation.
type Ledger struct {
	l map[UTXO]Output
}

func NewLedger() *Ledger {
	return &Ledger{
		l: make(map[UTXO]Output),
	}
}

// NewLedgerFromSnapshot creates a ledger holding a deep copy of snapshot, so later
// changes to the caller's map or its key bytes never reach the ledger.
func NewLedgerFromSnapshot(snapshot map[UTXO]Output) *Ledger {
	l := &Ledger{
		l: make(map[UTXO]Output, len(snapshot)),
	}
	for u, o := range snapshot {
		l.l[u] = o.Clone()
	}
	return l
}

// Clone returns a deep copy of output.
func (o Output) Clone() Output {
	return Output{
		Value:     o.Value,
		PublicKey: bytes.Clone(o.PublicKey),
	}
}

// Equal reports whether both outputs carry the same value and owner.
func (o Output) Equal(other Output) bool {
	return o.Value == other.Value && bytes.Equal(o.PublicKey, other.PublicKey)
}

func (l *Ledger) Contains(u UTXO) bool {
	_, ok := l.l[u]
	return ok
}

// Get returns the output stored under u. ok is false when u is not spendable.
func (l *Ledger) Get(u UTXO) (Output, bool) {
	o, ok := l.l[u]
	return o, ok
}

// Insert stores output under u and reports whether an existing entry was overwritten.
func (l *Ledger) Insert(u UTXO, output Output) bool {
	_, replaced := l.l[u]
	l.l[u] = output
	return replaced
}

// Remove deletes u. Removing an absent identifier is a no-op.
func (l *Ledger) Remove(u UTXO) {
	delete(l.l, u)
}

func (l *Ledger) Len() int {
	return len(l.l)
}

// Range calls fn for every entry until fn returns false. Iteration order is random.
func (l *Ledger) Range(fn func(u UTXO, o Output) bool) {
	for u, o := range l.l {
		if !fn(u, o) {
			return
		}
	}
}

// Snapshot returns a deep copy of the ledger content.
func (l *Ledger) Snapshot() map[UTXO]Output {
	s := make(map[UTXO]Output, len(l.l))
	for u, o := range l.l {
		s[u] = o.Clone()
	}
	return s
}

// Clone returns an independent copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	return &Ledger{l: l.Snapshot()}
}

// UtxosForPublicKey returns all entries owned by pk.
func (l *Ledger) UtxosForPublicKey(pk []byte) map[UTXO]Output {
	res := make(map[UTXO]Output)
	for u, o := range l.l {
		if bytes.Equal(o.PublicKey, pk) {
			res[u] = o.Clone()
		}
	}
	return res
}
