package commands

import (
	"net"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

type Operation int

const PORT_REGEX = "^[0-9]{4,5}$"

var portRegex = regexp.MustCompile(PORT_REGEX)

const (
	DEFAULT = iota
	// Settle the pending pool as one epoch.
	SETTLE
	// List the pending transactions in arrival order.
	PENDING
	// Show the spendable outputs of a hex public key.
	BALANCE
	// Add a new peer to this full node.
	ADD_PEER
	// Renove a peer by ip and port.
	REMOVE_PEER
	// List all peers.
	LIST_PEER
	// Render the last epoch as a graph.
	SHOW
	// Dump the last epoch and the ledger as text.
	DUMP
)

// A command contains a operation and many arguments.
type Command struct {
	Op   Operation
	Args []string
}

func (c Command) IsValid() bool {
	switch c.Op {
	case SETTLE, PENDING, LIST_PEER, SHOW, DUMP:
		return len(c.Args) == 0
	case BALANCE:
		return len(c.Args) == 1 && isHex(c.Args[0])
	case ADD_PEER, REMOVE_PEER:
		if len(c.Args) != 2 {
			return false
		}
		return isHost(c.Args[0]) && isPort(c.Args[1])
	default:
		return false
	}
}

// From string, create
func CreateCommand(s string) (Command, error) {
	// split command by space.
	ss := strings.Fields(s)
	if len(ss) == 0 {
		return Command{}, errors.New("command is empty")
	}
	cmd := Command{}
	switch ss[0] {
	case "settle":
		cmd.Op = SETTLE
	case "pending":
		cmd.Op = PENDING
	case "balance":
		cmd.Op = BALANCE
	case "add_peer":
		cmd.Op = ADD_PEER
	case "remove_peer":
		cmd.Op = REMOVE_PEER
	case "list_peer":
		cmd.Op = LIST_PEER
	case "show":
		cmd.Op = SHOW
	case "dump":
		cmd.Op = DUMP
	}
	cmd.Args = ss[1:]
	if !cmd.IsValid() {
		return Command{}, errors.Errorf("invalid command %q", s)
	}
	return cmd, nil
}

// Create a brand new command with default operation.
func NewDefaultCommand() Command {
	return Command{
		Op: DEFAULT,
	}
}

func (c Command) IsDefault() bool {
	return c.Op == DEFAULT
}

// isHost accepts an ip address or localhost.
func isHost(s string) bool {
	return s == "localhost" || net.ParseIP(s) != nil
}

func isPort(s string) bool {
	return portRegex.MatchString(s)
}

func isHex(s string) bool {
	if s == "" || len(s)%2 != 0 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}
