package world

import "sync/atomic"

type handlerWrapper func(*World, Handler) Handler

var worldHandlerWrap atomic.Value

func init() {
	worldHandlerWrap.Store(handlerWrapper(func(_ *World, h Handler) Handler {
		return h
	}))
}

// SetHandlerWrap installs a wrapper applied to every handler assigned
// through World.Handle, after nil handlers are normalised away. Tests and
// embedders use it to instrument or stub script-callback behaviour without
// threading a parameter through every call site.
func SetHandlerWrap(w func(*World, Handler) Handler) {
	if w == nil {
		worldHandlerWrap.Store(handlerWrapper(func(_ *World, h Handler) Handler {
			return h
		}))
		return
	}
	worldHandlerWrap.Store(handlerWrapper(w))
}

func wrapWorldHandler(w *World, h Handler) Handler {
	return worldHandlerWrap.Load().(handlerWrapper)(w, h)
}
