package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cookie identifies a scheduled wake. Cookies can safely be orphaned: a
// cancelled or never-retrieved cookie leaves at most one entry in the
// reason table. Retrieve deletes the entry it resolves; Cancel only marks
// it cancelled (spec.md 4.8).
type Cookie uint32

type command struct {
	schedule bool
	when     Time
	cookie   uint32
}

type wakeItem[T any] struct {
	when      Time
	reason    T
	cancelled bool
}

// WakeQueue schedules reasons-by-cookie for delivery at a future world
// time, ticking a Wheel on its own goroutine (original_source's
// timer_worker). The goroutine communicates with the owner only through
// channels, so Schedule/Cancel never block on wheel-internal state: the
// main event loop (internal/dispatch) selects on Fired() alongside its
// wire and terrain-gen channels, exactly as spec.md 4.9 describes the
// dispatcher merging three channels into one thread.
type WakeQueue[T any] struct {
	log *slog.Logger

	cmd  chan command
	fire chan Cookie

	mu     sync.Mutex
	items  map[uint32]*wakeItem[T]
	nextID uint32

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWakeQueue starts the background wheel goroutine, deriving world time
// from wall-clock time elapsed since base.
func NewWakeQueue[T any](log *slog.Logger, base time.Time) *WakeQueue[T] {
	ctx, cancel := context.WithCancel(context.Background())
	q := &WakeQueue[T]{
		log:    log,
		cmd:    make(chan command, 256),
		fire:   make(chan Cookie, 256),
		items:  make(map[uint32]*wakeItem[T]),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go q.run(ctx, base)
	return q
}

// Close stops the background goroutine. Pending wakes are discarded;
// already-fired cookies sitting in Fired()'s buffer remain retrievable.
func (q *WakeQueue[T]) Close() {
	q.cancel()
	<-q.done
}

// Fired delivers cookies as their wakes reach the wheel's current tick.
// Resolve each with Retrieve.
func (q *WakeQueue[T]) Fired() <-chan Cookie { return q.fire }

// Schedule registers reason to fire at world time when, returning a cookie
// that Retrieve resolves back to (when, reason) once Fired delivers it.
func (q *WakeQueue[T]) Schedule(when Time, reason T) Cookie {
	q.mu.Lock()
	id := q.nextID
	q.nextID++
	q.items[id] = &wakeItem[T]{when: when, reason: reason}
	q.mu.Unlock()

	q.cmd <- command{schedule: true, when: when, cookie: id}
	return Cookie(id)
}

// Cancel best-effort cancels a scheduled wake. A wake whose cookie is
// already in flight on the Fired channel but not yet retrieved is
// suppressed too: Retrieve then reports ok=false. A cookie that was
// already retrieved is unaffected.
func (q *WakeQueue[T]) Cancel(c Cookie) {
	q.mu.Lock()
	item, ok := q.items[uint32(c)]
	if ok {
		item.cancelled = true
	}
	q.mu.Unlock()
	if ok {
		q.cmd <- command{schedule: false, when: item.when, cookie: uint32(c)}
	}
}

// Retrieve looks up and forgets the reason bound to a fired cookie.
// Returns ok=false if the wake was cancelled before firing, including the
// case where Cancel raced with a wake already in flight on Fired.
func (q *WakeQueue[T]) Retrieve(c Cookie) (when Time, reason T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item, present := q.items[uint32(c)]
	if !present {
		return 0, reason, false
	}
	delete(q.items, uint32(c))
	if item.cancelled {
		return 0, reason, false
	}
	return item.when, item.reason, true
}

// CancelAll cancels every outstanding cookie for which match returns true,
// without requiring the caller to enumerate cookies itself. Used to drop
// all of a disconnecting client's pending wakes (spec.md 4.8's
// cancellation section) when the caller only has the reasons, not cookies,
// on hand.
func (q *WakeQueue[T]) CancelAll(match func(reason T) bool) {
	q.mu.Lock()
	var toCancel []command
	for id, item := range q.items {
		if item.cancelled || !match(item.reason) {
			continue
		}
		item.cancelled = true
		toCancel = append(toCancel, command{schedule: false, when: item.when, cookie: id})
	}
	q.mu.Unlock()
	for _, c := range toCancel {
		q.cmd <- c
	}
}

func (q *WakeQueue[T]) run(ctx context.Context, base time.Time) {
	defer close(q.done)

	now := func() Time { return Time(time.Since(base).Milliseconds()) }
	w := NewWheel(now())
	t := time.NewTimer(0)
	defer t.Stop()

	for {
		delay := time.Duration(w.NextTick()-now()) * time.Millisecond
		if delay < 0 {
			delay = 0
		}
		if !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
		t.Reset(delay)

		select {
		case <-ctx.Done():
			if q.log != nil {
				q.log.Debug("timer: wake queue stopped")
			}
			return
		case cmd := <-q.cmd:
			applyCommand(w, cmd)
			continue
		case <-t.C:
		}

		// Flush every command queued since the tick fired, so a
		// schedule/cancel sent just before the tick is applied before
		// the bucket it lands in is drained.
		draining := true
		for draining {
			select {
			case cmd := <-q.cmd:
				applyCommand(w, cmd)
			default:
				draining = false
			}
		}

		for _, cookie := range w.Advance() {
			select {
			case q.fire <- Cookie(cookie):
			case <-ctx.Done():
				return
			}
		}
	}
}

func applyCommand(w *Wheel, cmd command) {
	if cmd.schedule {
		w.Schedule(cmd.when, cmd.cookie)
	} else {
		w.Cancel(cmd.when, cmd.cookie)
	}
}
