package transport

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/outpost-sim/server/internal/dispatch"
)

func dialHub(t *testing.T) (*Hub, chan dispatch.Request, *websocket.Conn) {
	t.Helper()
	inbound := make(chan dispatch.Request, 8)
	hub := NewHub(inbound)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return hub, inbound, ws
}

func TestConnectSendsAddClientWithAssignedID(t *testing.T) {
	_, inbound, _ := dialHub(t)

	select {
	case req := <-inbound:
		add, ok := req.(dispatch.AddClient)
		if !ok {
			t.Fatalf("first inbound request = %T, want dispatch.AddClient", req)
		}
		if add.Wire == 0 {
			t.Fatalf("AddClient.Wire = 0, want a nonzero assigned id")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for AddClient")
	}
}

func TestClientMessageArrivesAsRequestStampedWithConnectionID(t *testing.T) {
	_, inbound, ws := dialHub(t)

	add := (<-inbound).(dispatch.AddClient)

	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"chat","data":{"Msg":"hello"}}`)); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	select {
	case req := <-inbound:
		chat, ok := req.(dispatch.Chat)
		if !ok {
			t.Fatalf("second inbound request = %T, want dispatch.Chat", req)
		}
		if chat.From != add.Wire {
			t.Fatalf("Chat.From = %d, want %d (the connection's assigned id)", chat.From, add.Wire)
		}
		if chat.Msg != "hello" {
			t.Fatalf("Chat.Msg = %q, want hello", chat.Msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for Chat")
	}
}

func TestHubSendDeliversEnvelopeToConnectedClient(t *testing.T) {
	hub, inbound, ws := dialHub(t)
	add := (<-inbound).(dispatch.AddClient)

	hub.Send(add.Wire, dispatch.ChatUpdate{From: add.Wire, Msg: "hi there"})

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Type != "chat_update" {
		t.Fatalf("envelope.Type = %q, want chat_update", env.Type)
	}
}

func TestHubSendToUnknownClientIsSilentlyDropped(t *testing.T) {
	hub, _, _ := dialHub(t)
	hub.Send(dispatch.ClientID(999), dispatch.ChatUpdate{Msg: "nobody's listening"})
}

func TestDisconnectNotifiesRemoveClient(t *testing.T) {
	_, inbound, ws := dialHub(t)
	add := (<-inbound).(dispatch.AddClient)

	_ = ws.Close()

	select {
	case req := <-inbound:
		rm, ok := req.(dispatch.RemoveClient)
		if !ok {
			t.Fatalf("inbound request after close = %T, want dispatch.RemoveClient", req)
		}
		if rm.Wire != add.Wire {
			t.Fatalf("RemoveClient.Wire = %d, want %d", rm.Wire, add.Wire)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for RemoveClient")
	}
}
