// Package cli provides line-mode terminal I/O and meta-command dispatch for
// the questline harness.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/nathoo/questline/engine"
	"github.com/nathoo/questline/engine/save"
	"github.com/nathoo/questline/errutil"
	"github.com/nathoo/questline/types"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	In        io.Reader
	Out       io.Writer
	SavePath  string
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	Logger    *slog.Logger
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine) *CLI {
	return &CLI{
		Engine:   eng,
		In:       os.Stdin,
		Out:      os.Stdout,
		SavePath: save.DefaultFileName,
		Logger:   slog.Default(),
	}
}

// Run shows the intro, then loops: prompt, input, dispatch, output.
func (c *CLI) Run() {
	for _, line := range c.Engine.Intro() {
		c.printLine(line)
	}

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		// "again" / "g" repeats the last game command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		result := c.Engine.Step(input)
		c.printResult(result)

		if c.Trace {
			c.printTrace(result)
		}
	}
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) savePath(arg string) string {
	if arg != "" {
		return arg
	}
	return c.SavePath
}

func (c *CLI) cmdSave(arg string) {
	path := c.savePath(arg)
	if err := c.Engine.SaveInventory(path); err != nil {
		errutil.LogError(c.logger(), "save failed", err)
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Inventory saved to %s.", path))
}

func (c *CLI) cmdLoad(arg string) {
	path := c.savePath(arg)
	ok, err := c.Engine.LoadInventory(path)
	if err != nil {
		errutil.LogError(c.logger(), "load failed", err)
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	if !ok {
		c.printSystem(fmt.Sprintf("No save found at %s.", path))
		return
	}
	c.printSystem(fmt.Sprintf("Inventory loaded from %s.", path))
	c.printResult(c.Engine.Step("inventory"))
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [path]  Save the inventory",
		"  /load [path]  Load the inventory",
		"  /quit         Exit game",
		"  /help         Show this help",
		"  /state        Debug: dump current state",
		"  /trace        Toggle event trace output",
		"",
		"Game commands:",
		"  look (l)                     Look around",
		"  approach <thing> (go, a)     Walk up to someone or something",
		"  leave                        Step away",
		"  interact (e, talk, open)     Interact, or continue a conversation",
		"  inventory [tab] (i)          List consumables and equipment",
		"  use <tab> <slot> (u)         Use or equip the item in a slot",
		"  move <tab> <from> <to>       Move or swap two slots",
		"  discard <tab> <slot>         Throw an item away",
		"  wait (z)                     Let time pass",
		"  again (g)                    Repeat your last command",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	s := c.Engine.State
	v := c.Engine.View()
	c.printSystem(fmt.Sprintf("Turn: %d", s.TurnCount))
	c.printSystem(fmt.Sprintf("Seed: %d (position %d)", s.RNGSeed, s.RNGPosition))
	if v.Focus != "" {
		c.printSystem("Focus: " + v.Focus)
	}
	if len(s.Removed) > 0 {
		removed := make([]string, 0, len(s.Removed))
		for id := range s.Removed {
			removed = append(removed, id)
		}
		sort.Strings(removed)
		c.printSystem("Removed: " + strings.Join(removed, ", "))
	}
	for _, d := range c.Engine.Defs.Dialogues.All() {
		shown, consumed := c.Engine.Progress(d.ID)
		if len(shown) == 0 && len(consumed) == 0 {
			continue
		}
		c.printSystem(fmt.Sprintf("Dialogue %s: shown %v, consumed %v", d.ID, shown, consumed))
	}
	if v.Weapon != "" || v.Armor != "" {
		c.printSystem(fmt.Sprintf("Equipped: weapon=%q armor=%q", v.Weapon, v.Armor))
	}
}

func (c *CLI) printTrace(result types.Result) {
	if len(result.Events) == 0 {
		return
	}
	c.printSystem(fmt.Sprintf("[trace] Events: %d", len(result.Events)))
	for _, e := range result.Events {
		c.printSystem(fmt.Sprintf("[trace]   %s %v", e.Type, e.Data))
	}
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
}

func (c *CLI) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
