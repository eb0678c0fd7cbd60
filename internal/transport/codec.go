// Package transport is the one concrete wire implementation SPEC_FULL.md
// §4.13 asks this repository to ship: a github.com/gorilla/websocket
// connection carrying a github.com/json-iterator/go envelope codec.
// Nothing in internal/dispatch or internal/world imports this package —
// they only see dispatch.Request arriving on a channel and dispatch.Sender
// to answer through, so a second transport would slot in beside this one
// without touching the event loop.
package transport

import (
	"fmt"
	"reflect"

	jsoniter "github.com/json-iterator/go"

	"github.com/outpost-sim/server/internal/dispatch"
)

// json mirrors mk48/jsoniter.go's package-level Config, minus the
// unsafe.Pointer field-level encoders/decoders that repository registers
// for its fixed-point Angle/Ticks/Velocity types — this repository's
// Request/Response fields are all plain ints, strings and byte slices, so
// the default reflection-based codec already encodes them correctly and
// there is nothing fixed-point to intercept.
var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	TagKey:                 "json",
}.Froze()

// envelope is the wire shape of every message in both directions: a
// "type" tag naming the concrete Request/Response, plus its fields under
// "data". Grounded on mk48/jsoniter.go's Message{Data interface{}} and its
// decodeMessage function, which reads "type" before "data" to pick the
// concrete Go type to decode into.
type envelope struct {
	Type string          `json:"type"`
	Data jsoniter.RawMessage `json:"data"`
}

// requestTypes is the closed set of messages a connection may originate,
// named the way mk48/inbound.go names its messageType constants. Requests
// that only the server ever constructs — AddClient, RemoveClient,
// ReplCommand, Shutdown, Restart — are deliberately absent: a client
// cannot forge its own connection lifecycle over the wire.
var requestTypes = map[string]reflect.Type{
	"ping":                  reflect.TypeOf(dispatch.Ping{}),
	"login":                 reflect.TypeOf(dispatch.Login{}),
	"register":              reflect.TypeOf(dispatch.Register{}),
	"input":                 reflect.TypeOf(dispatch.Input{}),
	"interact":              reflect.TypeOf(dispatch.Interact{}),
	"use_item":              reflect.TypeOf(dispatch.UseItem{}),
	"use_ability":           reflect.TypeOf(dispatch.UseAbility{}),
	"move_item":             reflect.TypeOf(dispatch.MoveItem{}),
	"craft_recipe":          reflect.TypeOf(dispatch.CraftRecipe{}),
	"chat":                  reflect.TypeOf(dispatch.Chat{}),
	"unsubscribe_inventory": reflect.TypeOf(dispatch.UnsubscribeInventory{}),
}

// responseTypeNames is requestTypes' outbound mirror, one entry per
// concrete dispatch.Response the loop ever hands to a Sender.
var responseTypeNames = map[reflect.Type]string{
	reflect.TypeOf(dispatch.Pong{}):             "pong",
	reflect.TypeOf(dispatch.Init{}):             "init",
	reflect.TypeOf(dispatch.TerrainChunk{}):     "terrain_chunk",
	reflect.TypeOf(dispatch.UnloadChunk{}):      "unload_chunk",
	reflect.TypeOf(dispatch.EntityAppear{}):     "entity_appear",
	reflect.TypeOf(dispatch.EntityUpdate{}):     "entity_update",
	reflect.TypeOf(dispatch.EntityGone{}):       "entity_gone",
	reflect.TypeOf(dispatch.StructureAppear{}):  "structure_appear",
	reflect.TypeOf(dispatch.StructureGone{}):    "structure_gone",
	reflect.TypeOf(dispatch.InventoryUpdate{}):  "inventory_update",
	reflect.TypeOf(dispatch.OpenDialog{}):       "open_dialog",
	reflect.TypeOf(dispatch.OpenCrafting{}):     "open_crafting",
	reflect.TypeOf(dispatch.MainInventory{}):    "main_inventory",
	reflect.TypeOf(dispatch.AbilityInventory{}): "ability_inventory",
	reflect.TypeOf(dispatch.ChatUpdate{}):       "chat_update",
	reflect.TypeOf(dispatch.KickReason{}):       "kick_reason",
	reflect.TypeOf(dispatch.RegisterResult{}):   "register_result",
	reflect.TypeOf(dispatch.ClientRemoved{}):    "client_removed",
	reflect.TypeOf(dispatch.Sync{}):             "sync",
}

// decodeRequest is decodeMessage's two-field dispatch, minus the
// unsafe/pooled-iterator machinery mk48 uses to avoid an allocation per
// message: read "type", look the name up in requestTypes, decode "data"
// into a freshly allocated value of that type.
func decodeRequest(raw []byte) (dispatch.Request, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("transport: decode envelope: %w", err)
	}
	rt, ok := requestTypes[env.Type]
	if !ok {
		return nil, fmt.Errorf("transport: unknown request type %q", env.Type)
	}
	ptr := reflect.New(rt)
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, ptr.Interface()); err != nil {
			return nil, fmt.Errorf("transport: decode %s payload: %w", env.Type, err)
		}
	}
	req, ok := ptr.Elem().Interface().(dispatch.Request)
	if !ok {
		return nil, fmt.Errorf("transport: %s does not implement dispatch.Request", env.Type)
	}
	return req, nil
}

// encodeResponse is decodeRequest's outbound mirror.
func encodeResponse(resp dispatch.Response) ([]byte, error) {
	name, ok := responseTypeNames[reflect.TypeOf(resp)]
	if !ok {
		return nil, fmt.Errorf("transport: unregistered response type %T", resp)
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("transport: encode %s payload: %w", name, err)
	}
	return json.Marshal(envelope{Type: name, Data: data})
}

// withFrom stamps a decoded wire request with the ClientID of the
// connection it actually arrived on, overriding whatever (or nothing) a
// client put in the field itself. A connection cannot speak for another
// client — spec.md §7's identity comes from the transport, never the
// payload.
func withFrom(req dispatch.Request, from dispatch.ClientID) dispatch.Request {
	switch r := req.(type) {
	case dispatch.Ping:
		r.From = from
		return r
	case dispatch.Login:
		r.From = from
		return r
	case dispatch.Register:
		r.From = from
		return r
	case dispatch.Input:
		r.From = from
		return r
	case dispatch.Interact:
		r.From = from
		return r
	case dispatch.UseItem:
		r.From = from
		return r
	case dispatch.UseAbility:
		r.From = from
		return r
	case dispatch.MoveItem:
		r.From = from
		return r
	case dispatch.CraftRecipe:
		r.From = from
		return r
	case dispatch.Chat:
		r.From = from
		return r
	case dispatch.UnsubscribeInventory:
		r.From = from
		return r
	default:
		return req
	}
}
