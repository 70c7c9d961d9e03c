package visualize

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"

	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/Luismorlan/utxo_ledger/utils"
	"github.com/bradleyjkemp/memviz"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

// We re-define the visualize model here because keys, signatures and hashes
// are too long to render and only clutter the graph.
type input struct {
	prevTxHash string
	index      int64
}

type output struct {
	value     int64
	publicKey string
}

type transaction struct {
	hash    string
	inputs  []input
	outputs []output
	fee     int64
}

type rejected struct {
	hash   string
	reason string
}

type utxo struct {
	prevTxHash string
	index      int64
	output     output
}

type epoch struct {
	height   int64
	accepted []transaction
	rejected []rejected
	ledger   []utxo
}

// The string of public key and hash is just too long to render, instead we take only first 3 and last 3
// characters and replace the middle part with '...'. E.g. "abcdefghi" will be rendered as "abc...ghi"
func shortenString(s string) string {
	if len(s) < 9 {
		return s
	}
	return fmt.Sprintf("%s...%s", s[0:3], s[len(s)-3:])
}

func shortenPK(pk []byte) string {
	s := utils.BytesToHex(pk)
	if len(s) < 9 {
		return s
	}
	mid := len(s) / 2
	i := mid - 1
	j := mid + 2
	return fmt.Sprintf("...%s...", s[i:j])
}

func outputToOutput(out model.Output) output {
	return output{publicKey: shortenPK(out.PublicKey), value: out.Value}
}

func txToTx(tx *model.Transaction, fee int64) transaction {
	t := transaction{
		hash: shortenString(tx.Hash),
		fee:  fee,
	}
	for i := 0; i < len(tx.Inputs); i++ {
		in := tx.Inputs[i]
		t.inputs = append(t.inputs, input{prevTxHash: shortenString(in.PrevTxHash), index: in.Index})
	}
	for i := 0; i < len(tx.Outputs); i++ {
		t.outputs = append(t.outputs, outputToOutput(tx.Outputs[i]))
	}
	return t
}

// Build the render model, with the ledger sorted so the same state always renders the same graph.
func constructData(e *model.Epoch, ledger map[model.UTXO]model.Output) epoch {
	n := epoch{height: e.Height}
	for _, tx := range e.Accepted {
		n.accepted = append(n.accepted, txToTx(tx, e.Fees[tx.Hash]))
	}
	for _, r := range e.Rejected {
		n.rejected = append(n.rejected, rejected{hash: shortenString(r.Tx.Hash), reason: r.Reason})
	}

	keys := make([]model.UTXO, 0, len(ledger))
	for u := range ledger {
		keys = append(keys, u)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].PrevTxHash != keys[j].PrevTxHash {
			return keys[i].PrevTxHash < keys[j].PrevTxHash
		}
		return keys[i].Index < keys[j].Index
	})
	for _, u := range keys {
		n.ledger = append(n.ledger, utxo{
			prevTxHash: shortenString(u.PrevTxHash),
			index:      u.Index,
			output:     outputToOutput(ledger[u]),
		})
	}
	return n
}

// WriteDot writes the DOT graph of an epoch and the ledger it left behind.
func WriteDot(w io.Writer, e *model.Epoch, ledger map[model.UTXO]model.Output) {
	data := constructData(e, ledger)
	memviz.Map(w, &data)
}

// Entry to this package, where:
// e: the epoch to render.
// ledger: spendable outputs after the epoch.
// id: unique id of the full node.
// The DOT file is converted to png when graphviz is installed. Returns the path of the
// png, or of the DOT file when graphviz is missing.
func Render(e *model.Epoch, ledger map[model.UTXO]model.Output, id string) (string, error) {
	buf := &bytes.Buffer{}
	WriteDot(buf, e, ledger)

	// Write the parsed data to disk
	fileName := fmt.Sprintf("%s/epoch-%s-%d.dot", os.TempDir(), id, e.Height)
	if err := os.WriteFile(fileName, buf.Bytes(), 0644); err != nil {
		return "", errors.Wrap(err, "failed to write dot file")
	}

	dot, err := exec.LookPath("dot")
	if err != nil {
		return fileName, nil
	}
	outputName := fmt.Sprintf("%s/epoch-%s-%d.png", os.TempDir(), id, e.Height)
	if err := exec.Command(dot, "-Tpng", fileName, "-o", outputName).Run(); err != nil {
		return fileName, errors.Wrap(err, "failed to run dot")
	}
	return outputName, nil
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Dump writes a plain text dump of an epoch and the ledger, for debug mode.
func Dump(w io.Writer, e *model.Epoch, ledger map[model.UTXO]model.Output) {
	dumpConfig.Fdump(w, e, ledger)
}
