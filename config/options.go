package config

import (
	"github.com/jessevdk/go-flags"
)

// NodeOptions are the command line options of the full node binary.
type NodeOptions struct {
	ConfigPath  string `short:"C" long:"configfile" description:"Path to the YAML config file" default:"full_node/cmd/config.yaml"`
	ListenAddr  string `long:"listen" description:"Interface/port for the gRPC service, overrides listen_addr"`
	DBPath      string `short:"b" long:"datadir" description:"Directory of the ledger database, overrides db_path"`
	GenesisPath string `long:"genesis" description:"Genesis snapshot file, overrides genesis_path"`
	LogLevel    string `short:"d" long:"loglevel" description:"Logging level {debug, info, warn, error}, overrides log_level"`
	DebugMode   bool   `long:"debug_mode" description:"Read commands from stdin instead of the terminal UI"`
}

// Overrides returns the config fields set on the command line.
func (o *NodeOptions) Overrides() AppConfig {
	return AppConfig{
		LISTEN_ADDR:  o.ListenAddr,
		DB_PATH:      o.DBPath,
		GENESIS_PATH: o.GenesisPath,
		LOG_LEVEL:    o.LogLevel,
	}
}

// WalletOptions are the command line options of the wallet binary.
type WalletOptions struct {
	KeyPath   string `long:"key_path" description:"File holding your private key" default:"/tmp/mykey"`
	NewKey    bool   `long:"new_key" description:"Generate a new key and save it to key_path"`
	Scheme    string `long:"scheme" description:"Signature scheme {rsa, secp256k1}" default:"secp256k1"`
	Node      string `long:"node" description:"host:port of the full node to connect to at startup"`
	LogLevel  string `short:"d" long:"loglevel" description:"Logging level {debug, info, warn, error}" default:"info"`
	DebugMode bool   `long:"debug_mode" description:"Using debug mode will disable fancy GUI."`
}

// ParseNodeOptions parses args into NodeOptions.
func ParseNodeOptions(args []string) (*NodeOptions, error) {
	opts := &NodeOptions{}
	_, err := flags.NewParser(opts, flags.Default).ParseArgs(args)
	if err != nil {
		return nil, err
	}
	return opts, nil
}

// ParseWalletOptions parses args into WalletOptions.
func ParseWalletOptions(args []string) (*WalletOptions, error) {
	opts := &WalletOptions{}
	_, err := flags.NewParser(opts, flags.Default).ParseArgs(args)
	if err != nil {
		return nil, err
	}
	return opts, nil
}
