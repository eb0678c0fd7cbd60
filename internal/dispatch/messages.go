package dispatch

import "github.com/outpost-sim/server/internal/world"

// Request is the inbound half of spec.md §6's wire protocol: every message
// a connection can send into the event loop implements it. The marker
// method is unexported, the same closed-set-of-implementations idiom the
// teacher uses for redstone.workerCommand — callers outside this package
// can receive a Request but never construct a new kind of it.
type Request interface {
	isRequest()
}

// ClientID identifies the connection a Request arrived on (or, for the
// admin surface, the connection a control Request targets). It is a bare
// int32 sharing world.TransientID's underlying representation, the same
// decoupling internal/vision uses.
type ClientID int32

// --- Wire requests (pre-auth) ----------------------------------------------

// Ping asks for a Pong carrying the same cookie back, for latency
// measurement and keepalive.
type Ping struct {
	From   ClientID
	Cookie uint64
}

func (Ping) isRequest() {}

// Login authenticates an existing account and attaches its pawn.
type Login struct {
	From   ClientID
	Name   string
	Secret string
}

func (Login) isRequest() {}

// Register creates a new account and its first pawn, with the requested
// initial appearance.
type Register struct {
	From       ClientID
	Name       string
	Secret     string
	Appearance int32
}

func (Register) isRequest() {}

// --- Client requests (post-auth) -------------------------------------------

// Input carries one tick's movement/action bitmask, timestamped in world
// time so out-of-order delivery can be detected and discarded.
type Input struct {
	From ClientID
	Time int64
	Bits uint32
}

func (Input) isRequest() {}

// Interact requests the client's pawn interact with whatever is in front
// of it (a door, a switch, an NPC).
type Interact struct {
	From ClientID
	Time int64
	Args []int32
}

func (Interact) isRequest() {}

// UseItem requests the client's pawn use the item in the given inventory
// slot against whatever is targeted.
type UseItem struct {
	From ClientID
	Time int64
	Item int32
	Args []int32
}

func (UseItem) isRequest() {}

// UseAbility requests the client's pawn invoke a granted ability.
type UseAbility struct {
	From ClientID
	Time int64
	Item int32
	Args []int32
}

func (UseAbility) isRequest() {}

// MoveItem requests a slot-to-slot transfer, validated against both
// inventories' attachment and capacity invariants before it mutates
// anything.
type MoveItem struct {
	From     ClientID
	FromInv  world.TransientID
	FromSlot int
	ToInv    world.TransientID
	ToSlot   int
	Count    int32
}

func (MoveItem) isRequest() {}

// CraftRecipe requests a crafting station produce Count copies of a
// recipe, consuming ingredients from inv.
type CraftRecipe struct {
	From    ClientID
	Station world.TransientID
	Inv     world.TransientID
	Recipe  int32
	Count   int32
}

func (CraftRecipe) isRequest() {}

// Chat requests the message be moderated and, if it passes, broadcast.
type Chat struct {
	From ClientID
	Msg  string
}

func (Chat) isRequest() {}

// UnsubscribeInventory ends a client's subscription to an inventory it is
// not the owner of (e.g. closing a chest's dialog), per spec.md 4.7's
// refcounted inventory visibility.
type UnsubscribeInventory struct {
	From ClientID
	Inv  world.TransientID
}

func (UnsubscribeInventory) isRequest() {}

// --- Admin/control requests -------------------------------------------------

// AddClient registers a new wire connection with the dispatcher before any
// Login/Register has been received on it.
type AddClient struct {
	Wire ClientID
}

func (AddClient) isRequest() {}

// RemoveClient tears down a connection's client and cancels its pending
// wakes, per spec.md 5's disconnect-cancellation guarantee.
type RemoveClient struct {
	Wire ClientID
}

func (RemoveClient) isRequest() {}

// ReplCommand runs an admin console command against the live world.
type ReplCommand struct {
	Line  string
	Reply chan<- ReplResult
}

func (ReplCommand) isRequest() {}

// Shutdown runs a save pass and ends the event loop.
type Shutdown struct {
	Done chan<- struct{}
}

func (Shutdown) isRequest() {}

// Restart optionally tells clients to refresh (SyncStatus(Refresh)) before
// the process exits for a supervisor to relaunch it.
type Restart struct {
	NotifyClients bool
}

func (Restart) isRequest() {}

// Response is the outbound half of the wire protocol: every message the
// dispatcher can send to a connection implements it.
type Response interface {
	isResponse()
}

// SyncStatus is the enum spec.md §6 names for connection health
// broadcasts.
type SyncStatus int

const (
	SyncLoading SyncStatus = iota
	SyncOK
	SyncReset
	SyncRefresh
)

// Pong answers a Ping with the same cookie.
type Pong struct{ Cookie uint64 }

func (Pong) isResponse() {}

// Init is the first response after a successful Login/Register: the
// client's pawn id and the world/day-cycle clock it should render from.
type Init struct {
	Pawn      world.TransientID
	Now       int64
	CycleBase int64
	CycleMS   int64
}

func (Init) isResponse() {}

// TerrainChunk delivers one chunk's RLE-encoded payload at a client-local
// index (spec.md §6's rolling-origin indexing).
type TerrainChunk struct {
	LocalIdx int32
	RLEData  []byte
}

func (TerrainChunk) isResponse() {}

// UnloadChunk tells the client a previously-sent chunk has left its view.
type UnloadChunk struct{ LocalIdx int32 }

func (UnloadChunk) isResponse() {}

// EntityAppear/Update/Gone mirror internal/vision's entity visibility
// transitions onto the wire.
type EntityAppear struct {
	ID         world.TransientID
	Appearance int32
	Pos        world.Motion
}

func (EntityAppear) isResponse() {}

type EntityUpdate struct {
	ID  world.TransientID
	Pos world.Motion
}

func (EntityUpdate) isResponse() {}

type EntityGone struct{ ID world.TransientID }

func (EntityGone) isResponse() {}

// StructureAppear/Gone mirror structure visibility transitions.
type StructureAppear struct {
	ID       world.TransientID
	Template world.TemplateID
}

func (StructureAppear) isResponse() {}

type StructureGone struct{ ID world.TransientID }

func (StructureGone) isResponse() {}

// InventoryUpdate carries one or more slot deltas for a subscribed
// inventory.
type InventoryUpdate struct {
	Inv    world.TransientID
	Deltas []SlotDelta
}

func (InventoryUpdate) isResponse() {}

// SlotDelta is one changed slot within an InventoryUpdate.
type SlotDelta struct {
	Slot   int
	ItemID int32
	Count  int32
}

// OpenDialog/OpenCrafting/MainInventory/AbilityInventory tell the client
// which inventory-facing UI to present and which inventory backs it.
type OpenDialog struct{ Inv world.TransientID }

func (OpenDialog) isResponse() {}

type OpenCrafting struct {
	Station world.TransientID
	Inv     world.TransientID
}

func (OpenCrafting) isResponse() {}

type MainInventory struct{ Inv world.TransientID }

func (MainInventory) isResponse() {}

type AbilityInventory struct{ Inv world.TransientID }

func (AbilityInventory) isResponse() {}

// ChatUpdate delivers one moderated chat line to be displayed.
type ChatUpdate struct {
	From ClientID
	Msg  string
}

func (ChatUpdate) isResponse() {}

// KickReason is sent just before the wire is closed, per spec.md §7's
// user-visible-behavior rule.
type KickReason struct{ Reason string }

func (KickReason) isResponse() {}

// RegisterResult answers a Register request.
type RegisterResult struct {
	Code int32
	Msg  string
}

func (RegisterResult) isResponse() {}

// ReplResult answers a ReplCommand with its textual output.
type ReplResult struct {
	Output string
	Err    string
}

func (ReplResult) isResponse() {}

// ClientRemoved confirms a RemoveClient admin request completed.
type ClientRemoved struct{ Wire ClientID }

func (ClientRemoved) isResponse() {}

// Sync broadcasts a SyncStatus change, e.g. SyncRefresh ahead of a
// Restart.
type Sync struct{ Status SyncStatus }

func (Sync) isResponse() {}
