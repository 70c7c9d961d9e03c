package commands

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// do nothing operation
	NOOP = iota
	// Initiate a money transfer from wallet
	TRANSFER
	// Print user public key
	MY_PK
	// Connect a full node with ip address and port
	CONNECT
	// Get my own balance
	GET_BALANCE
	// Ask the connected node to settle its pending pool
	SETTLE_NOW
)

type ClientCommand struct {
	Op   Operation
	Args []string
}

func (c ClientCommand) IsValid() bool {
	switch c.Op {
	case TRANSFER:
		// transfer <hex public key> <value>
		if len(c.Args) != 2 || !isHex(c.Args[0]) {
			return false
		}
		_, err := c.TransferValue()
		return err == nil
	case MY_PK, GET_BALANCE, SETTLE_NOW:
		return len(c.Args) == 0
	case CONNECT:
		if len(c.Args) != 2 {
			return false
		}
		return isHost(c.Args[0]) && isPort(c.Args[1])
	default:
		return false
	}
}

// TransferValue returns the amount of a TRANSFER command.
func (c ClientCommand) TransferValue() (int64, error) {
	if c.Op != TRANSFER || len(c.Args) != 2 {
		return 0, errors.New("not a transfer command")
	}
	v, err := strconv.ParseInt(c.Args[1], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid value %q", c.Args[1])
	}
	if v <= 0 {
		return 0, errors.Errorf("value must be positive, got %d", v)
	}
	return v, nil
}

func CreateClientCommand(s string) (ClientCommand, error) {
	// split command by space.
	ss := strings.Fields(s)
	if len(ss) == 0 {
		return ClientCommand{}, errors.New("command is empty")
	}
	cmd := ClientCommand{}
	switch ss[0] {
	case "transfer":
		cmd.Op = TRANSFER
	case "my_pk":
		cmd.Op = MY_PK
	case "connect":
		cmd.Op = CONNECT
	case "get_balance":
		cmd.Op = GET_BALANCE
	case "settle":
		cmd.Op = SETTLE_NOW
	default:
		cmd.Op = NOOP
	}
	cmd.Args = ss[1:]
	if !cmd.IsValid() {
		return ClientCommand{}, errors.Errorf("invalid command %q", s)
	}
	return cmd, nil
}
