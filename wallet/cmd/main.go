package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Luismorlan/utxo_ledger/commands"
	"github.com/Luismorlan/utxo_ledger/config"
	"github.com/Luismorlan/utxo_ledger/layout"
	"github.com/Luismorlan/utxo_ledger/logger"
	"github.com/Luismorlan/utxo_ledger/network"
	"github.com/Luismorlan/utxo_ledger/utils"
	"github.com/Luismorlan/utxo_ledger/wallet"
	"github.com/jroimartin/gocui"
	"github.com/rs/zerolog"
)

// Parse command from stdio.
func ParseCommand(cmd chan commands.ClientCommand) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		text, err := reader.ReadString('\n')
		if err == io.EOF {
			close(cmd)
			return
		}
		// convert CRLF to LF
		text = strings.Replace(text, "\n", "", -1)
		c, err := commands.CreateClientCommand(text)
		if err != nil {
			fmt.Println(err)
			continue
		}
		cmd <- c
	}
}

func HandleCommand(cmd chan commands.ClientCommand, w *wallet.Wallet, log zerolog.Logger) {
	ctx := context.Background()
	for c := range cmd {
		switch c.Op {
		case commands.TRANSFER:
			receiverPK := c.Args[0]
			value, _ := c.TransferValue()
			tx, err := w.TransferMoney(ctx, receiverPK, value)
			if err != nil {
				log.Warn().Err(err).Msg("fail to transfer money")
				continue
			}
			log.Info().Str("tx", tx.Hash).Str("receiver", receiverPK).Int64("value", value).Msg("successfully send transaction to fullnode")
		case commands.MY_PK:
			log.Info().Msg("\n===============DO NOT COPY THIS LINE================\n" + w.GetPublicKey() + "\n===============DO NOT COPY THIS LINE================")
		case commands.CONNECT:
			addr := network.Address{IpAddr: c.Args[0], Port: c.Args[1]}
			if err := w.SetFullNodeConnection(addr); err != nil {
				log.Warn().Err(err).Str("node", addr.String()).Msg("failed to connect to full node endpoint")
				continue
			}
			log.Info().Str("node", addr.String()).Msg("connected full node endpoint")
		case commands.GET_BALANCE:
			v, err := w.GetTotalDeposit(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("fail to get balance")
				continue
			}
			log.Info().Int64("total", v).Int("utxos", len(w.UTXOs)).Msg("your total balance")
		case commands.SETTLE_NOW:
			res, err := w.Settle(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("fail to settle")
				continue
			}
			log.Info().Int64("height", res.Height).Int("accepted", len(res.Accepted)).Int("rejected", len(res.Rejected)).Msg("epoch settled")
		default:
			log.Warn().Msgf("Unimplemented command: %d", c.Op)
		}
	}
}

func main() {
	opts, err := config.ParseWalletOptions(os.Args[1:])
	if err != nil {
		os.Exit(1)
	}

	cmd := make(chan commands.ClientCommand)

	// Choose a fancy GUI
	var g *gocui.Gui
	var out io.Writer = os.Stdout
	if !opts.DebugMode {
		g, err = layout.CreateGui(layout.NewWalletInput(cmd), "wallet/cmd/usage.txt")
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

	log, err := logger.New("wallet", logger.Options{Level: opts.LogLevel, Pretty: true, Writer: out})
	if err != nil {
		fail(err, "failed to create logger")
	}

	signer, err := utils.ParseKeyFile(opts.KeyPath, opts.Scheme, opts.NewKey)
	if err != nil {
		fail(err, "failed to load key")
	}
	w := wallet.NewWallet(signer, log)
	defer w.Close()
	log.Info().Str("key_path", opts.KeyPath).Str("scheme", opts.Scheme).Msg("Wallet public key: " + w.GetPublicKey())

	if opts.Node != "" {
		addr, err := network.ParseAddress(opts.Node)
		if err != nil {
			fail(err, "invalid node address")
		}
		if err := w.SetFullNodeConnection(addr); err != nil {
			fail(err, "failed to connect to full node")
		}
	}

	if g == nil {
		go ParseCommand(cmd)
		HandleCommand(cmd, w, log)
		return
	}

	go HandleCommand(cmd, w, log)
	err = g.MainLoop()
	g.Close()
	if err != nil && err != gocui.ErrQuit {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}
