package utils

import (
	"math/big"
	"sort"

	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/pkg/errors"
)

// GetInputBytes converts input to byte slice. With or without the signature.
func GetInputBytes(input *model.Input, withSig bool) ([]byte, error) {
	var data []byte
	prevHash, err := HexToBytes(input.PrevTxHash)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed previous transaction hash %q", input.PrevTxHash)
	}
	data = append(data, LengthPrefixed(prevHash)...)
	data = append(data, Int64ToBytes(input.Index)...)
	if withSig {
		data = append(data, LengthPrefixed(input.Signature)...)
	}
	return data, nil
}

func GetOutputBytes(output *model.Output) []byte {
	var data []byte
	data = append(data, Int64ToBytes(output.Value)...)
	data = append(data, LengthPrefixed(output.PublicKey)...)
	return data
}

// Concat all inputs and outputs raw data in byte slices.
func GetTransactionBytes(t *model.Transaction, withSig bool) ([]byte, error) {
	var data []byte
	data = append(data, Int64ToBytes(int64(len(t.Inputs)))...)
	for i := 0; i < len(t.Inputs); i++ {
		inputData, err := GetInputBytes(&t.Inputs[i], withSig)
		if err != nil {
			return nil, err
		}
		data = append(data, inputData...)
	}

	data = append(data, Int64ToBytes(int64(len(t.Outputs)))...)
	for i := 0; i < len(t.Outputs); i++ {
		data = append(data, GetOutputBytes(&t.Outputs[i])...)
	}
	return data, nil
}

// GetInputDataToSignByIndex returns the message the index-th input signs: the output it
// claims followed by every output of the transaction. No signature is part of it.
func GetInputDataToSignByIndex(t *model.Transaction, index int) ([]byte, error) {
	var data []byte

	if index < 0 || len(t.Inputs)-1 < index {
		return nil, errors.New("index is out of the range")
	}
	inputData, err := GetInputBytes(&t.Inputs[index], false /*withSig=*/)
	if err != nil {
		return nil, err
	}
	data = append(data, inputData...)

	for i := 0; i < len(t.Outputs); i++ {
		data = append(data, GetOutputBytes(&t.Outputs[i])...)
	}
	return data, nil
}

// ComputeTxHash returns the hex SHA256 of the full transaction, signatures included.
func ComputeTxHash(t *model.Transaction) (string, error) {
	data, err := GetTransactionBytes(t, true /*withSig=*/)
	if err != nil {
		return "", err
	}
	return BytesToHex(SHA256(data)), nil
}

// FinalizeTransaction fills in the hash. Call it once every input is signed.
func FinalizeTransaction(t *model.Transaction) error {
	hash, err := ComputeTxHash(t)
	if err != nil {
		return err
	}
	t.Hash = hash
	return nil
}

// SignTransaction signs every input with signer and finalizes the hash.
func SignTransaction(t *model.Transaction, signer Signer) error {
	for i := 0; i < len(t.Inputs); i++ {
		toSignMsg, err := GetInputDataToSignByIndex(t, i)
		if err != nil {
			return err
		}
		t.Inputs[i].Signature, err = signer.Sign(toSignMsg)
		if err != nil {
			return errors.Wrapf(err, "failed to sign input %d", i)
		}
	}
	return FinalizeTransaction(t)
}

// CreateGenesisTx creates an input-less transaction minting outputs. Used to seed the
// initial ledger snapshot.
func CreateGenesisTx(outputs []model.Output) (*model.Transaction, error) {
	tx := &model.Transaction{
		Outputs: outputs,
	}
	if err := FinalizeTransaction(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// GenesisSnapshot returns the spendable outputs minted by a genesis transaction.
func GenesisSnapshot(tx *model.Transaction) map[model.UTXO]model.Output {
	snapshot := make(map[model.UTXO]model.Output, len(tx.Outputs))
	for k := range tx.Outputs {
		snapshot[tx.OutputUtxo(k)] = tx.Outputs[k]
	}
	return snapshot
}

// Create a pending transaction spending every given utxo to outputs, with the change
// going back to the signer.
func CreatePendingTransaction(signer Signer, utxos map[model.UTXO]model.Output, outputs []model.Output) (*model.Transaction, error) {
	// Sort the claimed utxos so the same wallet content always builds the same transaction.
	claimed := make([]model.UTXO, 0, len(utxos))
	for u := range utxos {
		claimed = append(claimed, u)
	}
	sort.Slice(claimed, func(i, j int) bool {
		if claimed[i].PrevTxHash != claimed[j].PrevTxHash {
			return claimed[i].PrevTxHash < claimed[j].PrevTxHash
		}
		return claimed[i].Index < claimed[j].Index
	})

	var inputs []model.Input
	// Total money from all UTXOs
	totalValue := new(big.Int)
	for _, u := range claimed {
		inputs = append(inputs, model.Input{
			PrevTxHash: u.PrevTxHash,
			Index:      u.Index,
		})
		totalValue.Add(totalValue, big.NewInt(utxos[u].Value))
	}

	// Total amount of money will be transferred to others
	totalTransferValue := new(big.Int)
	for i := 0; i < len(outputs); i++ {
		if outputs[i].Value <= 0 {
			return nil, errors.Errorf("output %d has non-positive value %d", i, outputs[i].Value)
		}
		totalTransferValue.Add(totalTransferValue, big.NewInt(outputs[i].Value))
	}

	change := new(big.Int).Sub(totalValue, totalTransferValue)
	if change.Sign() < 0 {
		return nil, errors.Errorf("insufficient balance: have %s, need %s", totalValue, totalTransferValue)
	}
	if !change.IsInt64() {
		return nil, errors.Errorf("change %s does not fit in a single output", change)
	}
	pendingOutputs := append([]model.Output{}, outputs...)
	if change.Sign() > 0 {
		pendingOutputs = append(pendingOutputs, model.Output{
			Value:     change.Int64(),
			PublicKey: signer.PublicKey(),
		})
	}

	pendingTransaction := &model.Transaction{
		Inputs:  inputs,
		Outputs: pendingOutputs,
	}
	if err := SignTransaction(pendingTransaction, signer); err != nil {
		return nil, err
	}
	return pendingTransaction, nil
}

// A transaction is valid if, checked in this order:
// 1. All inputs are UTXO.
// 2. Signatures are valid.
// 3. No double spending within the transaction.
// 1-3 are checked input by input, and the first failure rejects.
// 4. Outputs are non-negative number.
// 5. Total outputs are smaller or equal to inputs.
// The ledger is never modified.
func CheckTransaction(t *model.Transaction, l model.LedgerView, v Verifier) error {
	_, err := checkTransaction(t, l, v)
	return err
}

// IsValidTransaction reports whether t passes CheckTransaction.
func IsValidTransaction(t *model.Transaction, l model.LedgerView, v Verifier) bool {
	return CheckTransaction(t, l, v) == nil
}

// CalcTxFee returns the value t lets vanish, i.e. inputs minus outputs. t must be valid.
func CalcTxFee(t *model.Transaction, l model.LedgerView, v Verifier) (int64, error) {
	fee, err := checkTransaction(t, l, v)
	if err != nil {
		return 0, err
	}
	return clampInt64(fee), nil
}

// checkTransaction validates t and returns its fee. Sums are kept in big.Int so that
// no amount of int64 values can overflow the comparison.
func checkTransaction(t *model.Transaction, l model.LedgerView, v Verifier) (*big.Int, error) {
	totalInput := new(big.Int)
	totalOutput := new(big.Int)

	// Store all seen UTXOs to avoid double spending.
	seenUtxo := make(map[model.UTXO]struct{}, len(t.Inputs))

	for i := 0; i < len(t.Inputs); i++ {
		// Verify the input is using UTXO.
		input := &t.Inputs[i]
		inputUtxo := input.Utxo()
		output, ok := l.Get(inputUtxo)
		if !ok {
			return nil, errors.Wrapf(ErrMissingTxOut, "input %d claims %s which is not spendable", i, inputUtxo)
		}

		// Verify signature.
		inputData, err := GetInputDataToSignByIndex(t, i)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidSignature, "input %d: %s", i, err)
		}
		if !v.Verify(output.PublicKey, inputData, input.Signature) {
			return nil, errors.Wrapf(ErrInvalidSignature, "input %d signature doesn't match the owner of %s", i, inputUtxo)
		}

		// No double spending.
		if _, exist := seenUtxo[inputUtxo]; exist {
			return nil, errors.Wrapf(ErrDoubleSpendInTx, "input %d claims %s a second time", i, inputUtxo)
		}
		seenUtxo[inputUtxo] = struct{}{}

		totalInput.Add(totalInput, big.NewInt(output.Value))
	}

	for i := 0; i < len(t.Outputs); i++ {
		// Output should be non-negative number.
		value := t.Outputs[i].Value
		if value < 0 {
			return nil, errors.Wrapf(ErrBadTxOutValue, "output %d has negative value %d", i, value)
		}
		totalOutput.Add(totalOutput, big.NewInt(value))
	}

	// Anything above the outputs simply vanishes as an implicit fee.
	if totalInput.Cmp(totalOutput) < 0 {
		return nil, errors.Wrapf(ErrSpendTooHigh, "total input %s is less than total output %s", totalInput, totalOutput)
	}
	return totalInput.Sub(totalInput, totalOutput), nil
}

func clampInt64(v *big.Int) int64 {
	if v.IsInt64() {
		return v.Int64()
	}
	if v.Sign() > 0 {
		return int64(^uint64(0) >> 1)
	}
	return -int64(^uint64(0)>>1) - 1
}
