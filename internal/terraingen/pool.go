// Package terraingen is the asynchronous chunk-generation worker pool
// SPEC_FULL.md 4.15 asks for: bounded-concurrency calls into whatever
// terrain generator the embedding program supplies, feeding their results
// back onto the channel internal/dispatch's event loop already selects on
// (dispatch.GenChunkResult). internal/dispatch never imports this
// package — it only owns the read end of that channel.
//
// Grounded on dm-vev-adamant/server/world.go's generatorQueue/
// generatorWorker/handleGeneratorBackpressure, reimplemented with
// golang.org/x/sync/semaphore bounding concurrency and
// golang.org/x/sync/errgroup owning goroutine lifecycle and shutdown,
// in place of the teacher's fixed pool of worker goroutines looping on a
// buffered channel — the same non-blocking-submit-with-backpressure-log
// behavior, a different (and, for a pool whose task count is unbounded
// and unpredictable rather than fixed at startup, more idiomatic)
// concurrency primitive.
package terraingen

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/outpost-sim/server/internal/dispatch"
	"github.com/outpost-sim/server/internal/vec"
	"github.com/outpost-sim/server/internal/world"
)

// Generator produces one chunk's terrain data. Implementations are
// supplied by whatever owns the actual world-generation algorithm;
// this package only schedules and bounds concurrent calls into it.
type Generator interface {
	GenerateChunk(plane world.TransientID, pos vec.V2) ([]byte, error)
}

// Pool runs Generator.GenerateChunk calls on up to workers goroutines at
// once, delivering each one's outcome to results as a
// dispatch.GenChunkResult — success or Err populated, never both
// silently dropped, matching spec.md 9's "terrain generation as oracle"
// contract that every request eventually answers.
type Pool struct {
	gen     Generator
	results chan<- dispatch.GenChunkResult

	sem     *semaphore.Weighted
	workers int64

	g      *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	log        *slog.Logger
	saturation atomic.Uint64
	lastLogNS  atomic.Int64
}

// NewPool builds a Pool bounded to workers concurrent generations,
// delivering results onto results. parent governs the pool's lifetime;
// cancelling it (or calling Close) stops accepting new work and waits
// for in-flight generations to finish.
func NewPool(parent context.Context, gen Generator, results chan<- dispatch.GenChunkResult, workers int64, log *slog.Logger) *Pool {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(parent)
	g, ctx := errgroup.WithContext(ctx)
	return &Pool{
		gen:     gen,
		results: results,
		sem:     semaphore.NewWeighted(workers),
		workers: workers,
		g:       g,
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
	}
}

// Submit schedules asynchronous generation of one chunk. It never blocks
// the caller: if every worker slot is busy the task is still launched in
// its own goroutine, parked on the semaphore until a slot frees up,
// exactly as dm-vev-adamant's generateChunkAsync falls back to
// go w.enqueueGeneration(task) rather than drop a request when its
// buffered queue is full — a saturation warning is logged on that path,
// throttled the same way handleGeneratorBackpressure throttles its own.
func (p *Pool) Submit(plane world.TransientID, pos vec.V2) {
	if p.sem.TryAcquire(1) {
		p.g.Go(func() error {
			defer p.sem.Release(1)
			p.generate(plane, pos)
			return nil
		})
		return
	}

	p.logSaturation()
	p.g.Go(func() error {
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			// Pool is shutting down; the request is abandoned rather
			// than generated into a world no longer running.
			return nil
		}
		defer p.sem.Release(1)
		p.generate(plane, pos)
		return nil
	})
}

// generate runs one generation call and forwards its outcome, recovering
// from a panicking Generator the same way runGenerationTask does — a
// single bad chunk must never take a worker slot down permanently.
func (p *Pool) generate(plane world.TransientID, pos vec.V2) {
	var blocks []byte
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("terraingen: panic generating chunk: %v", r)
			}
		}()
		blocks, err = p.gen.GenerateChunk(plane, pos)
	}()

	select {
	case p.results <- dispatch.GenChunkResult{Plane: plane, Pos: pos, Blocks: blocks, Err: err}:
	case <-p.ctx.Done():
	}
}

// logSaturation warns at most once a minute while every worker slot is
// occupied, the same throttle handleGeneratorBackpressure applies so a
// sustained backlog doesn't flood the log.
func (p *Pool) logSaturation() {
	count := p.saturation.Add(1)
	now := time.Now().UnixNano()
	last := p.lastLogNS.Load()
	if last != 0 && time.Duration(now-last) < time.Minute {
		return
	}
	if !p.lastLogNS.CompareAndSwap(last, now) {
		return
	}
	p.log.Warn("terraingen pool saturated: chunk generation backlog detected",
		"queued_tasks", count, "workers", p.workers)
}

// Close stops accepting the effects of new Submit calls against a live
// world and waits for every in-flight generation to finish, mirroring
// generatorWorker's drain-on-shutdown guarantee that no caller is left
// waiting on a chunk that will never arrive.
func (p *Pool) Close() error {
	p.cancel()
	return p.g.Wait()
}
