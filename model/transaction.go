package model

type Input struct {
	// Hash of the transaction that outputs this coin.
	PrevTxHash string
	// The index of the output in that transaction. Together with PrevTxHash, it identifies the unique output.
	Index int64
	// Signature by the owner of the referenced output over the input's canonical message.
	Signature []byte
}

type Output struct {
	// How much value to transfer, in minor units. Signed so that a negative declared value can be
	// detected and rejected.
	Value int64
	// Public key of the receiver, in the form of bytes.
	PublicKey []byte
}

type Transaction struct {
	// Hash of this transaction in hex. New outputs are identified by (Hash, position).
	Hash string
	// All inputs of this transaction.
	Inputs []Input
	// All outputs of this transaction.
	Outputs []Output
}

// Utxo returns the identifier of the output this input claims.
func (in *Input) Utxo() UTXO {
	return UTXO{
		PrevTxHash: in.PrevTxHash,
		Index:      in.Index,
	}
}

// OutputUtxo returns the identifier minted for the k-th output of t.
func (t *Transaction) OutputUtxo(k int) UTXO {
	return UTXO{
		PrevTxHash: t.Hash,
		Index:      int64(k),
	}
}
