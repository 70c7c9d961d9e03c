// Package service defines the gRPC surface of the full node. Messages are plain structs
// carried by the JSON codec registered in codec.go.
package service

import (
	"context"

	"github.com/Luismorlan/utxo_ledger/model"
	"google.golang.org/grpc"
)

const serviceName = "utxo_ledger.LedgerService"

type SetTransactionRequest struct {
	Tx *model.Transaction `json:"tx"`
}

type SetTransactionResponse struct{}

type GetBalanceRequest struct {
	PublicKey []byte `json:"public_key"`
}

type UtxoOutputPair struct {
	Utxo   model.UTXO   `json:"utxo"`
	Output model.Output `json:"output"`
}

type GetBalanceResponse struct {
	UtxoOutputPairs []*UtxoOutputPair `json:"utxo_output_pairs"`
}

// Total sums the value of every pair.
func (r *GetBalanceResponse) Total() int64 {
	var total int64
	for _, pair := range r.UtxoOutputPairs {
		total += pair.Output.Value
	}
	return total
}

type SettleRequest struct{}

type RejectedTx struct {
	Hash   string `json:"hash"`
	Reason string `json:"reason"`
}

type SettleResponse struct {
	Height     int64        `json:"height"`
	Accepted   []string     `json:"accepted"`
	Rejected   []RejectedTx `json:"rejected"`
	LedgerSize int          `json:"ledger_size"`
}

// FullNodeServiceServer is the server API for the ledger service.
type FullNodeServiceServer interface {
	// SetTransaction adds a transaction to the pending pool of the node.
	SetTransaction(context.Context, *SetTransactionRequest) (*SetTransactionResponse, error)
	// GetBalance returns every spendable output owned by a public key.
	GetBalance(context.Context, *GetBalanceRequest) (*GetBalanceResponse, error)
	// Settle settles the pending pool as one epoch.
	Settle(context.Context, *SettleRequest) (*SettleResponse, error)
}

// RegisterFullNodeServiceServer registers srv on s.
func RegisterFullNodeServiceServer(s *grpc.Server, srv FullNodeServiceServer) {
	s.RegisterService(&FullNodeService_ServiceDesc, srv)
}

func _FullNodeService_SetTransaction_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SetTransactionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FullNodeServiceServer).SetTransaction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + serviceName + "/SetTransaction",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FullNodeServiceServer).SetTransaction(ctx, req.(*SetTransactionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _FullNodeService_GetBalance_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetBalanceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FullNodeServiceServer).GetBalance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + serviceName + "/GetBalance",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FullNodeServiceServer).GetBalance(ctx, req.(*GetBalanceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _FullNodeService_Settle_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SettleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FullNodeServiceServer).Settle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + serviceName + "/Settle",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FullNodeServiceServer).Settle(ctx, req.(*SettleRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// FullNodeService_ServiceDesc describes the ledger service for grpc.Server.
var FullNodeService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*FullNodeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SetTransaction", Handler: _FullNodeService_SetTransaction_Handler},
		{MethodName: "GetBalance", Handler: _FullNodeService_GetBalance_Handler},
		{MethodName: "Settle", Handler: _FullNodeService_Settle_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger_service",
}

// FullNodeServiceClient is the client API for the ledger service.
type FullNodeServiceClient interface {
	SetTransaction(ctx context.Context, in *SetTransactionRequest, opts ...grpc.CallOption) (*SetTransactionResponse, error)
	GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*GetBalanceResponse, error)
	Settle(ctx context.Context, in *SettleRequest, opts ...grpc.CallOption) (*SettleResponse, error)
}

type fullNodeServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewFullNodeServiceClient returns a client issuing every call with the JSON codec.
func NewFullNodeServiceClient(cc grpc.ClientConnInterface) FullNodeServiceClient {
	return &fullNodeServiceClient{cc}
}

func (c *fullNodeServiceClient) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...)
}

func (c *fullNodeServiceClient) SetTransaction(ctx context.Context, in *SetTransactionRequest, opts ...grpc.CallOption) (*SetTransactionResponse, error) {
	out := new(SetTransactionResponse)
	if err := c.invoke(ctx, "SetTransaction", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fullNodeServiceClient) GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*GetBalanceResponse, error) {
	out := new(GetBalanceResponse)
	if err := c.invoke(ctx, "GetBalance", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fullNodeServiceClient) Settle(ctx context.Context, in *SettleRequest, opts ...grpc.CallOption) (*SettleResponse, error) {
	out := new(SettleResponse)
	if err := c.invoke(ctx, "Settle", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
