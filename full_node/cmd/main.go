package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/Luismorlan/utxo_ledger/commands"
	"github.com/Luismorlan/utxo_ledger/config"
	"github.com/Luismorlan/utxo_ledger/full_node"
	"github.com/Luismorlan/utxo_ledger/layout"
	"github.com/Luismorlan/utxo_ledger/logger"
	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/Luismorlan/utxo_ledger/network"
	"github.com/Luismorlan/utxo_ledger/service"
	"github.com/Luismorlan/utxo_ledger/store"
	"github.com/Luismorlan/utxo_ledger/utils"
	"github.com/Luismorlan/utxo_ledger/visualize"
	"github.com/jroimartin/gocui"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
)

// Parse command from stdio.
func ParseCommand(cmd chan commands.Command) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		text, err := reader.ReadString('\n')
		if err == io.EOF {
			return
		}
		// convert CRLF to LF
		text = strings.Replace(text, "\n", "", -1)
		c, err := commands.CreateCommand(text)
		if err != nil {
			fmt.Println(err)
			continue
		}
		cmd <- c
	}
}

// Commands supported:
// 1. Settle the pending pool, list it.
// 2. Look up a balance.
// 3. Add/Remove/List peer.
// 4. Render or dump the last epoch.
func HandleCommand(cmd chan commands.Command, server *full_node.FullNodeServer, out io.Writer, log zerolog.Logger) {
	node := server.GetFullNode()
	for {
		c := <-cmd
		switch c.Op {
		case commands.SETTLE:
			epoch, err := node.SettleEpoch()
			if err != nil {
				log.Error().Err(err).Msg("epoch settled but not persisted")
			}
			for _, r := range epoch.Rejected {
				log.Info().Str("tx", r.Tx.Hash).Str("reason", r.Reason).Msg("rejected")
			}
		case commands.PENDING:
			pending := node.GetPending()
			log.Info().Int("count", len(pending)).Msg("pending transactions")
			for i, tx := range pending {
				log.Info().Int("pos", i).Str("tx", tx.Hash).Int("inputs", len(tx.Inputs)).Int("outputs", len(tx.Outputs)).Msg("pending")
			}
		case commands.BALANCE:
			pk, err := utils.HexToBytes(c.Args[0])
			if err != nil {
				log.Warn().Err(err).Msg("invalid public key")
				continue
			}
			var total int64
			utxos := node.GetUtxoForPublicKey(pk)
			for _, o := range utxos {
				total += o.Value
			}
			log.Info().Int("utxos", len(utxos)).Int64("total", total).Msg("balance")
		case commands.ADD_PEER:
			addr := network.Address{IpAddr: c.Args[0], Port: c.Args[1]}
			if err := server.AddPeer(addr); err != nil {
				log.Warn().Err(err).Str("peer", addr.String()).Msg("fail to add peer")
			}
		case commands.REMOVE_PEER:
			server.RemovePeer(network.Address{IpAddr: c.Args[0], Port: c.Args[1]})
		case commands.LIST_PEER:
			for _, p := range server.GetAllPeers() {
				log.Info().Str("peer", p.String()).Msg("peer")
			}
		case commands.SHOW:
			epoch := node.GetLastEpoch()
			if epoch == nil {
				log.Warn().Msg("no epoch settled yet")
				continue
			}
			path, err := visualize.Render(epoch, node.GetLedgerSnapshot(), node.GetUUID())
			if err != nil {
				log.Warn().Err(err).Msg("fail to render epoch")
			}
			log.Info().Str("file", path).Msg("epoch rendered")
		case commands.DUMP:
			epoch := node.GetLastEpoch()
			if epoch == nil {
				epoch = &model.Epoch{}
			}
			visualize.Dump(out, epoch, node.GetLedgerSnapshot())
		default:
			log.Warn().Interface("command", c).Msg("unrecognized command")
		}
	}
}

// Return the genesis snapshot, empty when no genesis file is configured.
func loadGenesis(path string) (map[model.UTXO]model.Output, error) {
	if path == "" {
		return map[model.UTXO]model.Output{}, nil
	}
	genesis, err := utils.ReadGenesisFile(path)
	if err != nil {
		return nil, err
	}
	return utils.GenesisSnapshot(genesis), nil
}

func main() {
	opts, err := config.ParseNodeOptions(os.Args[1:])
	if err != nil {
		os.Exit(1)
	}

	cfg, err := config.ParseAppConfig(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
	if err := cfg.ApplyOverrides(opts.Overrides()); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}

	// A command channel that takes the operator's commands.
	cmd := make(chan commands.Command)

	var g *gocui.Gui
	var out io.Writer = os.Stdout
	if !opts.DebugMode {
		g, err = layout.CreateGui(layout.NewFullNodeInput(cmd), "full_node/cmd/usage.txt")
		if err != nil {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
			os.Exit(1)
		}
		out = layout.NewViewWriter(g)
	}
	fail := func(err error, msg string) {
		if g != nil {
			g.Close()
		}
		fmt.Fprintf(os.Stderr, "%s: %+v\n", msg, err)
		os.Exit(1)
	}

	log, err := logger.New("full_node", logger.Options{Level: cfg.LOG_LEVEL, Pretty: cfg.PRETTY_LOGS, Writer: out})
	if err != nil {
		fail(err, "failed to create logger")
	}
	logger.SetGlobal(log)

	snapshot, err := loadGenesis(cfg.GENESIS_PATH)
	if err != nil {
		fail(err, "failed to load genesis")
	}

	nodeOpts := []full_node.Option{full_node.WithLogger(log)}
	if cfg.DB_PATH != "" {
		s, err := store.Open(cfg.DB_PATH)
		if err != nil {
			fail(err, "failed to open ledger store")
		}
		nodeOpts = append(nodeOpts, full_node.WithStore(s))
	}
	node, err := full_node.NewFullNode(cfg, snapshot, nodeOpts...)
	if err != nil {
		fail(err, "failed to create full node")
	}
	defer node.Close()

	lis, err := net.Listen("tcp", cfg.LISTEN_ADDR)
	if err != nil {
		fail(err, "failed to listen")
	}

	server := full_node.NewFullNodeServer(node, log)
	defer server.Close()
	grpcServer := grpc.NewServer()
	service.RegisterFullNodeServiceServer(grpcServer, server)

	if cfg.METRICS_ADDR != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.METRICS_ADDR, mux); err != nil {
				log.Error().Err(err).Str("addr", cfg.METRICS_ADDR).Msg("metrics server stopped")
			}
		}()
	}

	log.Info().
		Str("addr", cfg.LISTEN_ADDR).
		Str("scheme", cfg.SIGNATURE_SCHEME).
		Int("utxos", len(node.GetLedgerSnapshot())).
		Int64("height", node.GetHeight()).
		Msg("starting to serve")

	go HandleCommand(cmd, server, out, log)

	if g == nil {
		go ParseCommand(cmd)
		if err := grpcServer.Serve(lis); err != nil {
			log.Error().Err(err).Msg("grpc server stopped")
		}
		return
	}

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Error().Err(err).Msg("grpc server stopped")
		}
	}()
	err = g.MainLoop()
	g.Close()
	grpcServer.Stop()
	if err != nil && err != gocui.ErrQuit {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}
