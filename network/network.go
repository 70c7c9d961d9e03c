// Package network holds peer addressing and the dial options every gRPC client of the
// ledger service shares.
package network

import (
	"net"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type Address struct {
	// What ip address peer fullnode is using.
	IpAddr string
	// What TCP Port peer full node is running on.
	Port string
}

// ParseAddress splits a "host:port" string.
func ParseAddress(s string) (Address, error) {
	host, port, err := net.SplitHostPort(s)
	if err != nil {
		return Address{}, errors.Wrapf(err, "invalid address %q", s)
	}
	if port == "" {
		return Address{}, errors.Errorf("invalid address %q: missing port", s)
	}
	if host == "" {
		host = "localhost"
	}
	return Address{IpAddr: host, Port: port}, nil
}

func (a Address) String() string {
	return net.JoinHostPort(a.IpAddr, a.Port)
}

// DialOptions returns the options for dialing a ledger node. Nodes serve plaintext.
func DialOptions(extra ...grpc.DialOption) []grpc.DialOption {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	return append(opts, extra...)
}

// Dial opens a connection to addr. The connection is established lazily.
func Dial(addr Address, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	conn, err := grpc.Dial(addr.String(), DialOptions(extra...)...)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to dial %s", addr)
	}
	return conn, nil
}
