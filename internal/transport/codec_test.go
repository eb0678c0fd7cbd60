package transport

import (
	"testing"

	"github.com/outpost-sim/server/internal/dispatch"
)

func TestDecodeRequestRoundTripsKnownType(t *testing.T) {
	raw := []byte(`{"type":"chat","data":{"From":0,"Msg":"hello"}}`)
	req, err := decodeRequest(raw)
	if err != nil {
		t.Fatalf("decodeRequest: %v", err)
	}
	chat, ok := req.(dispatch.Chat)
	if !ok {
		t.Fatalf("decodeRequest type = %T, want dispatch.Chat", req)
	}
	if chat.Msg != "hello" {
		t.Fatalf("Chat.Msg = %q, want hello", chat.Msg)
	}
}

func TestDecodeRequestRejectsUnknownType(t *testing.T) {
	if _, err := decodeRequest([]byte(`{"type":"nonsense","data":{}}`)); err == nil {
		t.Fatalf("decodeRequest(nonsense) succeeded, want error")
	}
}

func TestWithFromOverridesClientSuppliedIdentity(t *testing.T) {
	req := withFrom(dispatch.Chat{From: 99, Msg: "hi"}, dispatch.ClientID(5))
	chat, ok := req.(dispatch.Chat)
	if !ok {
		t.Fatalf("withFrom returned %T, want dispatch.Chat", req)
	}
	if chat.From != 5 {
		t.Fatalf("Chat.From = %d, want 5 (stamped by the connection, not the client)", chat.From)
	}
}

func TestEncodeResponseRoundTripsThroughDecodeRequestShapedEnvelope(t *testing.T) {
	raw, err := encodeResponse(dispatch.ChatUpdate{From: 3, Msg: "hi"})
	if err != nil {
		t.Fatalf("encodeResponse: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Type != "chat_update" {
		t.Fatalf("envelope.Type = %q, want chat_update", env.Type)
	}
	var update dispatch.ChatUpdate
	if err := json.Unmarshal(env.Data, &update); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if update.From != 3 || update.Msg != "hi" {
		t.Fatalf("ChatUpdate = %+v, want {From:3 Msg:hi}", update)
	}
}
