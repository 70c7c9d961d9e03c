// Package client is a thin wrapper over the ledger service client that applies per-call
// timeouts and converts between wire messages and model types.
package client

import (
	"context"
	"time"

	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/Luismorlan/utxo_ledger/network"
	"github.com/Luismorlan/utxo_ledger/service"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
)

const DefaultTimeout = 10 * time.Second

type LedgerClient struct {
	addr    network.Address
	conn    *grpc.ClientConn
	client  service.FullNodeServiceClient
	timeout time.Duration
}

// Dial connects to the node listening on addr.
func Dial(addr network.Address, extra ...grpc.DialOption) (*LedgerClient, error) {
	conn, err := network.Dial(addr, extra...)
	if err != nil {
		return nil, err
	}
	c := NewLedgerClient(conn)
	c.addr = addr
	return c, nil
}

// NewLedgerClient wraps an existing connection. Close closes it.
func NewLedgerClient(conn *grpc.ClientConn) *LedgerClient {
	return &LedgerClient{
		conn:    conn,
		client:  service.NewFullNodeServiceClient(conn),
		timeout: DefaultTimeout,
	}
}

// SetTimeout changes the deadline applied to every call.
func (c *LedgerClient) SetTimeout(d time.Duration) {
	c.timeout = d
}

func (c *LedgerClient) Addr() network.Address {
	return c.addr
}

// SubmitTransaction sends tx to the node's pending pool.
func (c *LedgerClient) SubmitTransaction(ctx context.Context, tx *model.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err := c.client.SetTransaction(ctx, &service.SetTransactionRequest{Tx: tx})
	return errors.Wrap(err, "fail to submit transaction")
}

// GetBalance returns every spendable output owned by pk.
func (c *LedgerClient) GetBalance(ctx context.Context, pk []byte) (map[model.UTXO]model.Output, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	res, err := c.client.GetBalance(ctx, &service.GetBalanceRequest{PublicKey: pk})
	if err != nil {
		return nil, errors.Wrap(err, "fail to get balance")
	}
	utxos := make(map[model.UTXO]model.Output, len(res.UtxoOutputPairs))
	for _, pair := range res.UtxoOutputPairs {
		utxos[pair.Utxo] = pair.Output
	}
	return utxos, nil
}

// Settle asks the node to settle its pending pool now.
func (c *LedgerClient) Settle(ctx context.Context) (*service.SettleResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	res, err := c.client.Settle(ctx, &service.SettleRequest{})
	if err != nil {
		return nil, errors.Wrap(err, "fail to settle")
	}
	return res, nil
}

func (c *LedgerClient) Close() error {
	return c.conn.Close()
}
