// Package console is the admin command-line front end for a running
// server, adapted from dm-vev-adamant/server/console's go-prompt-backed
// Console. The teacher binds directly to a *server.Server and dragonfly's
// generic, reflection-typed cmd.Command registry (with per-parameter
// enum/target/position completion); this repository's admin surface is
// spec.md 6's narrow ReplCommand/ReplResult pair instead, so Console here
// sends lines into the event loop exactly the way a privileged local wire
// client would, and completion degrades to the flat name-plus-usage
// listing internal/dispatch.CommandNames/CommandHelp can actually supply.
package console

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	prompt "github.com/c-bata/go-prompt"

	"github.com/outpost-sim/server/internal/dispatch"
)

const (
	defaultPromptPrefix = "> "
	maxHistoryEntries   = 128
)

// Console reads commands from an io.Reader (defaulting to os.Stdin) and
// runs each one as a dispatch.ReplCommand against the live event loop.
type Console struct {
	inbound chan<- dispatch.Request
	log     *slog.Logger
	reader  io.Reader
	history []string
}

// New returns a Console that submits commands onto inbound — the same
// channel dispatch.NewLoop reads wire requests from.
func New(inbound chan<- dispatch.Request, log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}
	return &Console{inbound: inbound, log: log, reader: os.Stdin}
}

// WithReader sets a custom reader for the console input, enabling tests
// without relying on os.Stdin.
func (c *Console) WithReader(r io.Reader) *Console {
	if r != nil {
		c.reader = r
	}
	return c
}

// Run starts consuming commands. It blocks until ctx is cancelled or the
// underlying reader reaches EOF.
func (c *Console) Run(ctx context.Context) {
	if c.reader != os.Stdin {
		c.runScanner(ctx)
		return
	}
	c.runInteractive(ctx)
}

func (c *Console) runScanner(ctx context.Context) {
	scanner := bufio.NewScanner(c.reader)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				c.log.Error("console input error", "err", err)
			}
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c.execute(line)
	}
}

func (c *Console) runInteractive(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := prompt.Input(defaultPromptPrefix, c.complete,
			prompt.OptionTitle("Outpost Console"),
			prompt.OptionHistory(c.history),
			prompt.OptionPrefix(defaultPromptPrefix),
			prompt.OptionCompletionOnDown(),
			prompt.OptionMaxSuggestion(12),
		)

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c.execute(line)
	}
}

// execute runs one command line and logs its result. Each call waits for
// its own reply, so console input is processed one line at a time — the
// same serialization a single wire connection's requests get.
func (c *Console) execute(line string) {
	input := strings.TrimSpace(line)
	if input == "" {
		return
	}

	c.history = append(c.history, input)
	if len(c.history) > maxHistoryEntries {
		c.history = c.history[len(c.history)-maxHistoryEntries:]
	}

	reply := make(chan dispatch.ReplResult, 1)
	c.inbound <- dispatch.ReplCommand{Line: input, Reply: reply}
	result := <-reply

	if result.Err != "" {
		c.log.Error(result.Err)
		return
	}
	if result.Output != "" {
		c.log.Info(result.Output)
	}
}

func (c *Console) complete(doc prompt.Document) []prompt.Suggest {
	word := strings.TrimSpace(doc.GetWordBeforeCursor())

	names := dispatch.CommandNames()
	sort.Strings(names)
	suggestions := make([]prompt.Suggest, 0, len(names))
	for _, name := range names {
		help, _ := dispatch.CommandHelp(name)
		suggestions = append(suggestions, prompt.Suggest{Text: name, Description: help})
	}
	return prompt.FilterHasPrefix(suggestions, word, true)
}
