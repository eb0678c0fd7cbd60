package world

// ExecFunc is a unit of world mutation: a function that runs with exclusive
// access to the world via tx, per spec.md 5's single-threaded cooperative
// model. It must run to completion without yielding.
type ExecFunc func(tx *Tx)

// Tx is a transaction handle: the only way world operations may be called.
// It is valid only for the duration of the ExecFunc it was created for;
// retaining one past that point and calling it again panics, matching the
// teacher's txguard.ClosedPanicMessage convention so recoverable callers
// (see internal/world/txguard) can tell a stale-handle bug from a real
// panic.
type Tx struct {
	world  *World
	closed bool
}

// ClosedPanicMessage is the exact panic value Tx methods raise once closed,
// so txguard.Run can distinguish "handle used after its transaction ended"
// from any other panic and recover only that one.
const ClosedPanicMessage = "world.Tx: use of transaction after transaction finishes is not permitted"

func newTx(w *World) *Tx { return &Tx{world: w} }

func (tx *Tx) close() { tx.closed = true }

func (tx *Tx) checkOpen() {
	if tx.closed {
		panic(ClosedPanicMessage)
	}
}

// World returns the Tx's owning World, for read-only queries (config,
// clock) that don't need a store-level operation.
func (tx *Tx) World() *World {
	tx.checkOpen()
	return tx.world
}

// exec runs fn as one atomic world mutation and closes tx afterwards.
func (w *World) exec(fn ExecFunc) {
	tx := newTx(w)
	defer tx.close()
	fn(tx)
}
