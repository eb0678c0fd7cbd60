// Package txguard lets a deferred continuation (a timer callback, an
// in-flight script continuation waiting on a generated chunk) hold a *Tx
// across event-loop turns without risking a panic if the transaction it was
// handed has since closed.
package txguard

import "github.com/outpost-sim/server/internal/world"

// Run calls fn with no return value, reporting ok=false instead of
// panicking if tx has already closed.
func Run(tx *world.Tx, fn func()) (ok bool) {
	return run(tx, fn)
}

// Value calls fn and returns its result, reporting ok=false instead of
// panicking if tx has already closed.
func Value[T any](tx *world.Tx, fn func() T) (value T, ok bool) {
	ok = run(tx, func() {
		value = fn()
	})
	return
}

func run(tx *world.Tx, fn func()) (ok bool) {
	if tx == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			if msg, str := r.(string); str && msg == world.ClosedPanicMessage {
				ok = false
				return
			}
			panic(r)
		}
	}()
	fn()
	return true
}
