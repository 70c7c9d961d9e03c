package wallet

import (
	"context"
	"sync"

	"github.com/Luismorlan/utxo_ledger/client"
	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/Luismorlan/utxo_ledger/network"
	"github.com/Luismorlan/utxo_ledger/service"
	"github.com/Luismorlan/utxo_ledger/utils"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// User signs and sends transactions to network.
type Wallet struct {
	signer utils.Signer
	client *client.LedgerClient
	// Spendable outputs owned by this wallet, as of the last balance refresh.
	UTXOs map[model.UTXO]model.Output
	m     sync.Mutex
	log   zerolog.Logger
}

func NewWallet(signer utils.Signer, log zerolog.Logger) *Wallet {
	return &Wallet{
		signer: signer,
		UTXOs:  make(map[model.UTXO]model.Output),
		log:    log,
	}
}

// Hex encoded public key, the address other wallets transfer to.
func (w *Wallet) GetPublicKey() string {
	return utils.BytesToHex(w.signer.PublicKey())
}

// SetFullNodeConnection replaces the node connection.
func (w *Wallet) SetFullNodeConnection(addr network.Address) error {
	c, err := client.Dial(addr)
	if err != nil {
		return err
	}
	w.SetClient(c)
	return nil
}

// SetClient replaces the node client, closing the previous one.
func (w *Wallet) SetClient(c *client.LedgerClient) {
	w.m.Lock()
	defer w.m.Unlock()
	if w.client != nil {
		w.client.Close()
	}
	w.client = c
}

func (w *Wallet) getClient() (*client.LedgerClient, error) {
	w.m.Lock()
	defer w.m.Unlock()
	if w.client == nil {
		return nil, errors.New("not connected to any full node")
	}
	return w.client, nil
}

// GetBalance refreshes UTXOs from the full node.
func (w *Wallet) GetBalance(ctx context.Context) error {
	c, err := w.getClient()
	if err != nil {
		return err
	}
	utxos, err := c.GetBalance(ctx, w.signer.PublicKey())
	if err != nil {
		return err
	}
	w.m.Lock()
	w.UTXOs = utxos
	w.m.Unlock()
	return nil
}

// GetTotalDeposit refreshes the balance and returns its total value.
func (w *Wallet) GetTotalDeposit(ctx context.Context) (int64, error) {
	if err := w.GetBalance(ctx); err != nil {
		return 0, err
	}
	w.m.Lock()
	defer w.m.Unlock()
	var total int64
	for _, o := range w.UTXOs {
		total += o.Value
	}
	return total, nil
}

// TransferMoney spends every known output of the wallet, paying value to receiverPK and
// the change back to itself.
func (w *Wallet) TransferMoney(ctx context.Context, receiverPK string, value int64) (*model.Transaction, error) {
	if err := w.GetBalance(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to get balance from full node")
	}
	pk, err := utils.HexToBytes(receiverPK)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse receiverPK")
	}
	w.m.Lock()
	tx, err := utils.CreatePendingTransaction(w.signer, w.UTXOs, []model.Output{{PublicKey: pk, Value: value}})
	w.m.Unlock()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create new transaction")
	}
	if err := w.SendTransaction(ctx, tx); err != nil {
		return nil, errors.Wrap(err, "failed to send transaction to full node")
	}
	w.log.Debug().Str("tx", tx.Hash).Int("inputs", len(tx.Inputs)).Msg("transaction sent")
	return tx, nil
}

func (w *Wallet) SendTransaction(ctx context.Context, tx *model.Transaction) error {
	c, err := w.getClient()
	if err != nil {
		return err
	}
	return c.SubmitTransaction(ctx, tx)
}

// Settle asks the connected node to settle its pending pool.
func (w *Wallet) Settle(ctx context.Context) (*service.SettleResponse, error) {
	c, err := w.getClient()
	if err != nil {
		return nil, err
	}
	return c.Settle(ctx)
}

func (w *Wallet) Close() {
	w.SetClient(nil)
}
