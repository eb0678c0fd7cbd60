package console

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/outpost-sim/server/internal/dispatch"
)

// fakeLoop answers every ReplCommand it receives on inbound, standing in
// for dispatch.Loop.Run without pulling in a whole world/timer setup.
func fakeLoop(t *testing.T, inbound <-chan dispatch.Request, answer func(line string) dispatch.ReplResult) {
	t.Helper()
	go func() {
		for req := range inbound {
			r, ok := req.(dispatch.ReplCommand)
			if !ok {
				continue
			}
			if r.Reply != nil {
				r.Reply <- answer(r.Line)
			}
		}
	}()
}

func TestExecuteSendsReplCommandAndRecordsHistory(t *testing.T) {
	inbound := make(chan dispatch.Request, 4)
	var gotLine string
	fakeLoop(t, inbound, func(line string) dispatch.ReplResult {
		gotLine = line
		return dispatch.ReplResult{Output: "tick=1 clients=0 entities=0"}
	})

	c := New(inbound, nil).WithReader(strings.NewReader("status\n"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c.Run(ctx)

	if gotLine != "status" {
		t.Fatalf("loop received line %q, want status", gotLine)
	}
	if len(c.history) != 1 || c.history[0] != "status" {
		t.Fatalf("history = %v, want [status]", c.history)
	}
}

func TestExecuteIgnoresBlankLines(t *testing.T) {
	inbound := make(chan dispatch.Request, 4)
	calls := 0
	fakeLoop(t, inbound, func(string) dispatch.ReplResult {
		calls++
		return dispatch.ReplResult{}
	})

	c := New(inbound, nil).WithReader(strings.NewReader("\n   \nstatus\n"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c.Run(ctx)

	if calls != 1 {
		t.Fatalf("loop received %d commands, want 1 (blank lines skipped)", calls)
	}
}

func TestHistoryCapsAtMaxEntries(t *testing.T) {
	inbound := make(chan dispatch.Request, maxHistoryEntries+10)
	fakeLoop(t, inbound, func(string) dispatch.ReplResult { return dispatch.ReplResult{} })

	var lines []string
	for i := 0; i < maxHistoryEntries+5; i++ {
		lines = append(lines, "status")
	}
	c := New(inbound, nil).WithReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Run(ctx)

	if len(c.history) != maxHistoryEntries {
		t.Fatalf("len(history) = %d, want %d", len(c.history), maxHistoryEntries)
	}
}
