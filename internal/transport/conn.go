package transport

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/outpost-sim/server/internal/dispatch"
)

// Timing and sizing constants, carried over unchanged from
// mk48/socket_client.go — they were already generic websocket keepalive
// tuning, not anything mk48-specific.
const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 16

	// sendBuffer bounds how far a slow reader can lag the event loop
	// before Conn gives up on it, mirroring SocketClient.send's "~1.5
	// seconds of messages" capacity comment.
	sendBuffer = 64
)

// Conn is one client connection: a goroutine pair pumping a
// *websocket.Conn, the same shape as mk48/socket_client.go's SocketClient
// and mk48/spoke.go's spokeConnection. Its Send queues a Response for
// the one ClientID it serves; Hub implements dispatch.Sender and routes
// each call to the right Conn by ClientID.
type Conn struct {
	id  dispatch.ClientID
	ws  *websocket.Conn
	hub *Hub

	send chan dispatch.Response
	once sync.Once
}

func newConn(id dispatch.ClientID, ws *websocket.Conn, hub *Hub) *Conn {
	return &Conn{
		id:   id,
		ws:   ws,
		hub:  hub,
		send: make(chan dispatch.Response, sendBuffer),
	}
}

// Send queues resp for delivery, matching SocketClient.Send's
// never-block-the-caller contract: a connection too far behind to keep up
// is destroyed rather than allowed to stall the event loop goroutine that
// calls Send.
func (c *Conn) Send(resp dispatch.Response) {
	select {
	case c.send <- resp:
	default:
		c.Destroy()
	}
}

// Destroy closes the connection and unregisters it from the hub exactly
// once, mirroring SocketClient.Close's sync.Once guard against a
// simultaneous read-error and write-error both trying to tear the same
// connection down.
func (c *Conn) Destroy() {
	c.once.Do(func() {
		close(c.send)
		_ = c.ws.Close()
		c.hub.remove(c.id)
	})
}

func (c *Conn) readPump() {
	defer c.Destroy()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		req, err := decodeRequest(raw)
		if err != nil {
			// A malformed frame is the connection's fault, not the
			// world's: drop it and keep the connection alive, per
			// spec.md §7 treating wire-local validation failures as
			// silent refusals rather than a reason to tear down state.
			continue
		}
		c.hub.inbound <- withFrom(req, c.id)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Destroy()
	}()

	for {
		select {
		case resp, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			raw, err := encodeResponse(resp)
			if err != nil {
				continue
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
