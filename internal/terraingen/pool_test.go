package terraingen

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/outpost-sim/server/internal/dispatch"
	"github.com/outpost-sim/server/internal/vec"
	"github.com/outpost-sim/server/internal/world"
)

type fakeGenerator struct {
	inFlight  atomic.Int64
	maxInFlight atomic.Int64
	fail      func(pos vec.V2) bool
}

func (g *fakeGenerator) GenerateChunk(plane world.TransientID, pos vec.V2) ([]byte, error) {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		max := g.maxInFlight.Load()
		if n <= max || g.maxInFlight.CompareAndSwap(max, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	if g.fail != nil && g.fail(pos) {
		return nil, errors.New("generation failed")
	}
	return []byte{byte(pos.X), byte(pos.Y)}, nil
}

func TestSubmitDeliversResultForEachRequestedChunk(t *testing.T) {
	gen := &fakeGenerator{}
	results := make(chan dispatch.GenChunkResult, 16)
	pool := NewPool(context.Background(), gen, results, 2, nil)

	const n = 10
	for i := 0; i < n; i++ {
		pool.Submit(world.TransientID(1), vec.V2{X: int32(i), Y: 0})
	}
	if err := pool.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	close(results)

	got := map[int32]bool{}
	for res := range results {
		if res.Err != nil {
			t.Fatalf("result for pos %+v has Err = %v, want nil", res.Pos, res.Err)
		}
		got[res.Pos.X] = true
	}
	if len(got) != n {
		t.Fatalf("got %d distinct results, want %d", len(got), n)
	}
}

func TestSubmitBoundsConcurrencyToWorkerCount(t *testing.T) {
	gen := &fakeGenerator{}
	results := make(chan dispatch.GenChunkResult, 16)
	pool := NewPool(context.Background(), gen, results, 3, nil)

	for i := 0; i < 12; i++ {
		pool.Submit(world.TransientID(1), vec.V2{X: int32(i), Y: 0})
	}
	if err := pool.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if max := gen.maxInFlight.Load(); max > 3 {
		t.Fatalf("max concurrent GenerateChunk calls = %d, want <= 3", max)
	}
}

func TestSubmitPropagatesGeneratorError(t *testing.T) {
	gen := &fakeGenerator{fail: func(vec.V2) bool { return true }}
	results := make(chan dispatch.GenChunkResult, 4)
	pool := NewPool(context.Background(), gen, results, 2, nil)

	pool.Submit(world.TransientID(1), vec.V2{X: 1, Y: 1})
	if err := pool.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	res := <-results
	if res.Err == nil {
		t.Fatalf("result.Err = nil, want the generator's failure")
	}
}

func TestCloseStopsAcceptingWorkAfterCancellation(t *testing.T) {
	gen := &fakeGenerator{}
	results := make(chan dispatch.GenChunkResult, 4)
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, gen, results, 1, nil)
	cancel()

	if err := pool.Close(); err != nil {
		t.Fatalf("Close after cancellation: %v", err)
	}
}
