// Package world implements the mutable object graph described in spec.md
// 4.5: clients, entities, inventories, planes, terrain chunks, and
// structures, linked by an attachment tree, mutated only through the typed
// operations in ops.go, and observed through the hook bus (handler.go).
package world

import "sync/atomic"

// transactionRequest is one queued unit of work submitted via World.Exec
// from outside the owning goroutine (an admin console command, a script
// continuation). The event loop (internal/dispatch) drains these each tick
// alongside wire messages and timer expirations.
type transactionRequest struct {
	fn   ExecFunc
	done chan struct{}
}

// World is the root of the object graph: six object stores plus the
// currently-installed hook bus.
type World struct {
	clients      *Store[*Client]
	entities     *Store[*Entity]
	inventories  *Store[*Inventory]
	planes       *Store[*Plane]
	chunks       *Store[*TerrainChunk]
	structures   *Store[*Structure]

	handler atomic.Pointer[Handler]

	queue chan transactionRequest
	tick  int64
}

// NewWorld creates an empty world with no planes, no handler installed
// (every callback is a no-op until Handle is called), and a transaction
// queue of the given depth.
func NewWorld(queueDepth int) *World {
	w := &World{
		clients:     NewStore[*Client](64),
		entities:    NewStore[*Entity](256),
		inventories: NewStore[*Inventory](256),
		planes:      NewStore[*Plane](4),
		chunks:      NewStore[*TerrainChunk](1024),
		structures:  NewStore[*Structure](1024),
		queue:       make(chan transactionRequest, queueDepth),
	}
	var nop Handler = NopHandler{}
	w.handler.Store(&nop)
	return w
}

// CurrentTick returns the number of ticks the event loop has driven so far.
func (w *World) CurrentTick() int64 { return w.tick }

// AdvanceTick is called once per event-loop iteration by internal/dispatch.
func (w *World) AdvanceTick() { w.tick++ }

// Handle installs h as the world's hook bus, after running it through
// SetHandlerWrap's currently-installed wrapper.
func (w *World) Handle(h Handler) {
	if h == nil {
		h = NopHandler{}
	}
	wrapped := wrapWorldHandler(w, h)
	w.handler.Store(&wrapped)
}

// Handler returns the currently installed hook bus.
func (w *World) Handler() Handler { return *w.handler.Load() }

// Exec enqueues f to run as one atomic mutation on the world's owning
// goroutine, returning a channel closed once it has run. Safe to call from
// any goroutine; internal/dispatch's event loop is the only reader of the
// queue.
func (w *World) Exec(f ExecFunc) <-chan struct{} {
	done := make(chan struct{})
	w.queue <- transactionRequest{fn: f, done: done}
	return done
}

// Queue exposes the transaction channel for internal/dispatch's select
// loop. It is not meant for direct sends; use Exec.
func (w *World) Queue() <-chan transactionRequest { return w.queue }

// Run executes one transaction request synchronously on the calling
// goroutine (which must be the world's single owning goroutine) and closes
// its done channel.
func (w *World) Run(req transactionRequest) {
	w.exec(req.fn)
	close(req.done)
}

// RunNow is a convenience for running an ExecFunc directly, bypassing the
// queue, for callers that are already on the owning goroutine (e.g. world
// bootstrapping before the event loop starts).
func (w *World) RunNow(f ExecFunc) { w.exec(f) }
