package full_node

import (
	"context"
	"sync"

	"github.com/Luismorlan/utxo_ledger/client"
	"github.com/Luismorlan/utxo_ledger/network"
	"github.com/Luismorlan/utxo_ledger/service"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type Peer struct {
	// A client established to connect to other full node.
	client *client.LedgerClient
	// Peer address
	addr network.Address
}

// Stringer function of peer.
func (p Peer) String() string {
	return p.addr.String()
}

// FullNodeServer exposes a FullNode over gRPC and relays accepted submissions to peers.
type FullNodeServer struct {
	// A bunch of peers that we have grpc connection to.
	peers []Peer
	// Create a mutex protect peers addition and deletion.
	pm sync.RWMutex

	fullNode *FullNode
	logger   zerolog.Logger
}

func NewFullNodeServer(f *FullNode, logger zerolog.Logger) *FullNodeServer {
	return &FullNodeServer{
		fullNode: f,
		logger:   logger,
	}
}

func (sev *FullNodeServer) GetFullNode() *FullNode {
	return sev.fullNode
}

// Return all current peers.
func (sev *FullNodeServer) GetAllPeers() []Peer {
	sev.pm.RLock()
	defer sev.pm.RUnlock()
	return append([]Peer(nil), sev.peers...)
}

// AddPeer dials addr and relays future submissions to it.
func (sev *FullNodeServer) AddPeer(addr network.Address) error {
	sev.pm.Lock()
	defer sev.pm.Unlock()
	for _, p := range sev.peers {
		if p.addr == addr {
			return errors.New("peer already exist")
		}
	}
	c, err := client.Dial(addr)
	if err != nil {
		return err
	}
	sev.peers = append(sev.peers, Peer{client: c, addr: addr})
	sev.logger.Info().Str("peer", addr.String()).Msg("peer added")
	return nil
}

// Remove a peer from the peer list.
func (sev *FullNodeServer) RemovePeer(addr network.Address) {
	sev.pm.Lock()
	defer sev.pm.Unlock()
	for i := 0; i < len(sev.peers); i++ {
		if sev.peers[i].addr == addr {
			sev.peers[i].client.Close()
			sev.peers = append(sev.peers[:i], sev.peers[i+1:]...)
			return
		}
	}
}

// Set transaction should add transaction to pool and broad cast to peer.
// A peer that already holds the transaction rejects the relay, which ends the flood.
func (sev *FullNodeServer) SetTransaction(ctx context.Context, req *service.SetTransactionRequest) (*service.SetTransactionResponse, error) {
	tx := req.Tx
	if err := sev.fullNode.AddTransactionToPool(tx); err != nil {
		return nil, err
	}

	for _, peer := range sev.GetAllPeers() {
		if err := peer.client.SubmitTransaction(context.Background(), tx); err != nil {
			sev.logger.Debug().Err(err).Str("peer", peer.String()).Str("tx", tx.Hash).Msg("relay failed")
		}
	}
	return &service.SetTransactionResponse{}, nil
}

// Return all utxo the public key owned.
func (sev *FullNodeServer) GetBalance(ctx context.Context, req *service.GetBalanceRequest) (*service.GetBalanceResponse, error) {
	l := sev.fullNode.GetUtxoForPublicKey(req.PublicKey)
	res := service.GetBalanceResponse{}
	for utxo, output := range l {
		res.UtxoOutputPairs = append(res.UtxoOutputPairs, &service.UtxoOutputPair{
			Utxo:   utxo,
			Output: output,
		})
	}
	return &res, nil
}

// Settle the pending pool as one epoch and report its outcome.
func (sev *FullNodeServer) Settle(ctx context.Context, req *service.SettleRequest) (*service.SettleResponse, error) {
	epoch, err := sev.fullNode.SettleEpoch()
	if err != nil {
		return nil, err
	}
	res := service.SettleResponse{
		Height:     epoch.Height,
		Accepted:   epoch.AcceptedHashes(),
		LedgerSize: epoch.LedgerSize,
	}
	for _, r := range epoch.Rejected {
		res.Rejected = append(res.Rejected, service.RejectedTx{Hash: r.Tx.Hash, Reason: r.Reason})
	}
	return &res, nil
}

// Close drops every peer connection.
func (sev *FullNodeServer) Close() {
	sev.pm.Lock()
	defer sev.pm.Unlock()
	for _, p := range sev.peers {
		p.client.Close()
	}
	sev.peers = nil
}
