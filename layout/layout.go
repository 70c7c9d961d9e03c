package layout

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/Luismorlan/utxo_ledger/commands"
	"github.com/jroimartin/gocui"
	"github.com/pkg/errors"
)

const (
	pastCmdView = "pastcommand"
	inputView   = "input"
	loggerView  = "logger"
	manualView  = "manual"
)

type cmd struct {
	str   string
	ready bool
	m     sync.RWMutex
}

var command cmd = cmd{}

// PastCmd is the ViewManager that logs past command.
type PastCmd struct {
	name string
}

// Input box for command, parse is the command parser of the binary the screen belongs to.
type Input struct {
	name  string
	parse func(s string) error
}

type Logger struct {
	name string
}

type Manual struct {
	name  string
	usage string
}

func (pc *PastCmd) Layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// Bottom left corner.
	v, err := g.SetView(pc.name, 1, maxY*2/3, maxX/3, maxY-6)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Autoscroll = true
	v.Wrap = true

	command.m.Lock()
	defer command.m.Unlock()
	if command.ready {
		fmt.Fprintln(v, "> "+command.str)
	}
	command.ready = false

	return nil
}

func (i *Input) Layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// Bottom left.
	v, err := g.SetView(i.name, 1, maxY-5, maxX-1, maxY-1)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Wrap = true
	v.Autoscroll = true
	v.Editor = i
	v.Editable = true
	return nil
}

func (l *Logger) Layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// Right side.
	v, err := g.SetView(l.name, maxX/3+1, 1, maxX-1, maxY-6)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Autoscroll = true
	v.Wrap = true
	return nil
}

func (m *Manual) Layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// Top left corner.
	v, err := g.SetView(m.name, 1, 1, maxX/3, maxY*2/3-1)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}
	v.Autoscroll = true
	v.Wrap = true
	v.Clear()
	fmt.Fprintln(v, m.usage)
	return nil
}

// Submit parses one line typed by the user and records it for the past command view.
func (i *Input) Submit(s string) {
	// Remove \n from string.
	s = strings.Replace(s, "\n", "", -1)
	err := i.parse(s)
	command.m.Lock()
	command.str = s
	if err != nil {
		command.str = s + "\n" + err.Error()
	}
	command.ready = true
	command.m.Unlock()
}

func (i *Input) Edit(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
	switch {
	case key == gocui.KeyEnter:
		i.Submit(v.Buffer())

		// Reset cursor.
		v.Clear()
		v.SetOrigin(0, 0)
		v.SetCursor(0, 0)

	case ch != 0 && mod == 0:
		v.EditWrite(ch)
	case key == gocui.KeySpace:
		v.EditWrite(' ')
	case key == gocui.KeyBackspace || key == gocui.KeyBackspace2:
		v.EditDelete(true)
	}
}

// NewFullNodeInput sends every valid node command to cmd.
func NewFullNodeInput(cmd chan<- commands.Command) *Input {
	return &Input{
		name: inputView,
		parse: func(s string) error {
			c, err := commands.CreateCommand(s)
			if err != nil {
				return err
			}
			// If a valid command, send to fullnode for processing.
			go func() { cmd <- c }()
			return nil
		},
	}
}

// NewWalletInput sends every valid wallet command to cmd.
func NewWalletInput(cmd chan<- commands.ClientCommand) *Input {
	return &Input{
		name: inputView,
		parse: func(s string) error {
			c, err := commands.CreateClientCommand(s)
			if err != nil {
				return err
			}
			go func() { cmd <- c }()
			return nil
		},
	}
}

func SetFocus(name string) func(g *gocui.Gui) error {
	return func(g *gocui.Gui) error {
		_, err := g.SetCurrentView(name)
		return err
	}
}

// Create a GUI, passing every command typed into input to the binary.
func CreateGui(input *Input, manualPath string) (*gocui.Gui, error) {
	usage, err := os.ReadFile(manualPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read manual %s", manualPath)
	}

	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, err
	}

	g.Cursor = true

	pc := &PastCmd{name: pastCmdView}
	l := &Logger{name: loggerView}
	m := &Manual{name: manualView, usage: string(usage)}
	focus := gocui.ManagerFunc(SetFocus(inputView))
	g.SetManager(pc, input, l, m, focus)

	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit); err != nil {
		g.Close()
		return nil, err
	}

	return g, nil
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}

// ViewWriter appends everything written to it to the logger view. Use it as the
// destination of the binary's logger while the GUI runs.
type ViewWriter struct {
	g *gocui.Gui
}

func NewViewWriter(g *gocui.Gui) *ViewWriter {
	return &ViewWriter{g: g}
}

func (w *ViewWriter) Write(p []byte) (int, error) {
	s := string(p)
	w.g.Update(func(g *gocui.Gui) error {
		v, err := g.View(loggerView)
		if err != nil {
			return nil
		}
		fmt.Fprint(v, s)
		return nil
	})
	return len(p), nil
}
