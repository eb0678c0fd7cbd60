package dispatch

import (
	"fmt"
	"strings"

	"github.com/outpost-sim/server/internal/world"
)

// Saver runs a full save pass over the world, per spec.md §7's "Shutdown
// runs a save pass" rule. internal/persist's Store implements this; Loop
// is constructed without one in tests that don't care about persistence.
type Saver interface {
	Save(w *world.World) error
}

// adminCommand is one entry in the console registry, adapted from the
// teacher's server/cmd.Command/cmd.Output split: a command reads args and
// the live world through tx and returns the text an operator should see,
// rather than writing to an io.Writer directly, so ReplResult can carry
// it back over the wire unchanged.
type adminCommand struct {
	name string
	help string
	run  func(tx *world.Tx, args []string) (string, error)
}

// commandRegistry is Loop's fixed set of admin commands, grounded in the
// teacher's server/cmd/builtin package (one named command per file,
// registered by name). Built-ins here are deliberately few: spec.md 9
// keeps the core engine's admin surface narrow and pushes anything
// game-specific through the Script boundary instead.
func commandRegistry() map[string]adminCommand {
	cmds := []adminCommand{
		{
			name: "status",
			help: "Reports loaded object counts and the current tick.",
			run: func(tx *world.Tx, _ []string) (string, error) {
				w := tx.World()
				clients, entities := 0, 0
				tx.RangeClients(func(world.TransientID, *world.Client) bool { clients++; return true })
				tx.RangeEntities(func(world.TransientID, *world.Entity) bool { entities++; return true })
				return fmt.Sprintf("tick=%d clients=%d entities=%d", w.CurrentTick(), clients, entities), nil
			},
		},
		{
			name: "kick",
			help: "kick <client-id> <reason...> — disconnects a client.",
			run: func(tx *world.Tx, args []string) (string, error) {
				if len(args) < 1 {
					return "", fmt.Errorf("usage: kick <client-id> <reason...>")
				}
				var id int64
				if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
					return "", fmt.Errorf("bad client id %q: %w", args[0], err)
				}
				if err := tx.DestroyClient(world.TransientID(id)); err != nil {
					return "", err
				}
				return fmt.Sprintf("kicked client %d", id), nil
			},
		},
	}
	reg := make(map[string]adminCommand, len(cmds))
	for _, c := range cmds {
		reg[c.name] = c
	}
	return reg
}

var builtinCommands = commandRegistry()

// CommandNames lists every admin command's name, for a console's tab
// completion — the narrow, flat equivalent of the teacher's
// cmd.Commands() registry listing.
func CommandNames() []string {
	names := make([]string, 0, len(builtinCommands))
	for name := range builtinCommands {
		names = append(names, name)
	}
	return names
}

// CommandHelp returns a command's usage text, for a console to show
// alongside a completion suggestion.
func CommandHelp(name string) (string, bool) {
	c, ok := builtinCommands[name]
	if !ok {
		return "", false
	}
	return c.help, true
}

// runReplCommand parses and executes one admin console line, per spec.md
// §6's ReplCommand/ReplResult pair, replying on r.Reply if the caller
// provided one (a nil channel means fire-and-forget, e.g. a scripted
// startup command).
func (l *Loop) runReplCommand(r ReplCommand) {
	line := strings.TrimSpace(r.Line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		l.replyRepl(r, ReplResult{Err: "empty command"})
		return
	}
	cmd, ok := builtinCommands[fields[0]]
	if !ok {
		l.replyRepl(r, ReplResult{Err: fmt.Sprintf("unknown command %q", fields[0])})
		return
	}
	var result ReplResult
	l.w.RunNow(func(tx *world.Tx) {
		out, err := cmd.run(tx, fields[1:])
		if err != nil {
			result = ReplResult{Err: err.Error()}
			return
		}
		result = ReplResult{Output: out}
	})
	l.replyRepl(r, result)
}

func (l *Loop) replyRepl(r ReplCommand, result ReplResult) {
	if r.Reply == nil {
		return
	}
	select {
	case r.Reply <- result:
	default:
		l.log.Warn("dispatch: ReplCommand reply channel full, dropping result")
	}
}

// shutdown runs the save pass spec.md §7 requires before the loop exits.
// l.saver is nil in configurations (tests, tools) that never persist.
func (l *Loop) shutdown() {
	if l.saver == nil {
		return
	}
	if err := l.saver.Save(l.w); err != nil {
		l.log.Error("dispatch: shutdown save pass failed", "err", err)
	}
}
