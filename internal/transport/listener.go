package transport

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/outpost-sim/server/internal/dispatch"
)

// upgrader is mk48/socket_client.go's upgrader verbatim: a permissive
// CheckOrigin, since this server expects to sit behind whatever reverse
// proxy enforces origin policy rather than duplicate that check here.
var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub is the connection listener this repository ships: an http.Handler
// that upgrades incoming requests to websockets, assigns each one a
// dispatch.ClientID, and fans both directions through to the event loop —
// AddClient/RemoveClient onto inbound as connections come and go, and
// Sends routed to the right Conn by ClientID. Grounded on
// mk48/main.go's Hub.serveWs and mk48/http.go's Hub.ServeSocket.
type Hub struct {
	inbound chan<- dispatch.Request

	mu    sync.RWMutex
	conns map[dispatch.ClientID]*Conn
	next  dispatch.ClientID
}

// NewHub builds a Hub that delivers decoded requests onto inbound — the
// same channel dispatch.NewLoop's inbound parameter already reads from.
func NewHub(inbound chan<- dispatch.Request) *Hub {
	return &Hub{inbound: inbound, conns: make(map[dispatch.ClientID]*Conn)}
}

// ServeHTTP upgrades the request and registers the resulting connection,
// mirroring mk48/http.go's ServeSocket minus its per-IP connection cap —
// connection-rate limiting is left to the reverse proxy this server
// expects to run behind.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("transport: upgrade error:", err)
		return
	}

	h.mu.Lock()
	h.next++
	id := h.next
	c := newConn(id, ws, h)
	h.conns[id] = c
	h.mu.Unlock()

	h.inbound <- dispatch.AddClient{Wire: id}

	go c.writePump()
	go c.readPump()
}

// Send implements dispatch.Sender by routing to the one Conn registered
// for to, silently dropping a response addressed to an already-departed
// connection.
func (h *Hub) Send(to dispatch.ClientID, resp dispatch.Response) {
	h.mu.RLock()
	c, ok := h.conns[to]
	h.mu.RUnlock()
	if !ok {
		return
	}
	c.Send(resp)
}

// remove unregisters a connection and notifies the event loop, called
// from Conn.Destroy so every teardown path — a read error, a write error,
// or Send's backpressure case — reaches the loop exactly once.
func (h *Hub) remove(id dispatch.ClientID) {
	h.mu.Lock()
	_, ok := h.conns[id]
	delete(h.conns, id)
	h.mu.Unlock()
	if !ok {
		return
	}
	h.inbound <- dispatch.RemoveClient{Wire: id}
}
