package dispatch

import (
	"context"
	"log/slog"

	"github.com/outpost-sim/server/internal/chat"
	"github.com/outpost-sim/server/internal/config"
	"github.com/outpost-sim/server/internal/timer"
	"github.com/outpost-sim/server/internal/vec"
	"github.com/outpost-sim/server/internal/world"
)

// WakeKind distinguishes the scheduled-work reasons a wake can carry: a
// client's view polling for its pawn's latest interpolated position, a
// replay of buffered client input, and a script-requested timeout callback.
type WakeKind uint8

const (
	WakeViewUpdate WakeKind = iota
	WakeInputReplay
	WakeScriptTimeout
)

// WakeReason is the payload internal/timer's WakeQueue carries, resolved
// back to a concrete action when its cookie fires. Client identifies whose
// pending work this is, so RemoveClient's CancelAll(match) can drop every
// wake belonging to a disconnecting client in one pass (spec.md 5's
// cancellation guarantee).
type WakeReason struct {
	Kind   WakeKind
	Client ClientID
	Cookie int64 // script-assigned cookie for WakeScriptTimeout; unused otherwise
}

// GenChunkResult is the terrain-gen worker's answer to a (plane, cpos)
// request, per spec.md 9 "Terrain generation as oracle". internal/dispatch
// only consumes this channel; the worker pool producing it (internal/
// terraingen, grounded on golang.org/x/sync/semaphore and errgroup per
// SPEC_FULL.md 4.15) runs independently.
type GenChunkResult struct {
	Plane     world.TransientID
	Pos       vec.V2
	Blocks    []byte // RLE-encoded, same format as encodeChunkRLE
	Err       error
}

// Script is the narrow typed boundary spec.md 9 specifies between the
// engine and whatever scripting VM is embedded: every callback is
// synchronous and runs on the event loop's own goroutine, with world
// mutations made through the *world.Tx it receives.
type Script interface {
	ChatCommand(tx *world.Tx, client ClientID, msg string) (handled bool)
	Login(tx *world.Tx, client ClientID, name string) (pawn world.TransientID, ok bool)
	Interact(tx *world.Tx, client ClientID, req Interact)
	UseItem(tx *world.Tx, client ClientID, req UseItem)
	UseAbility(tx *world.Tx, client ClientID, req UseAbility)
	Timeout(tx *world.Tx, client ClientID, cookie int64)
	GenerateChunk(tx *world.Tx, plane world.TransientID, cpos vec.V2, result GenChunkResult)
	ApplyStructureExtra(tx *world.Tx, id world.TransientID, extra []byte)
	EntityDestroyed(tx *world.Tx, id world.TransientID)
}

// Loop is the single goroutine that owns the world exclusively (spec.md
// 5), merging three sources exactly as spec.md 4.9 specifies: inbound
// wire requests, timer expirations, and terrain-gen results. Grounded on
// dm-vev-adamant/server/world/tick.go's ticker.tickLoop — same
// select-then-<-w.Exec(...)-then-loop shape, generalized from one ticker
// channel to three heterogeneous ones.
type Loop struct {
	w      *world.World
	wakes  *timer.WakeQueue[WakeReason]
	script Script
	log    *slog.Logger

	inbound    <-chan Request
	genResults <-chan GenChunkResult

	clients map[ClientID]world.TransientID // wire connection -> resident Client id
	saver   Saver
	bundle  *config.Bundle
	sender  Sender
	mod     *chat.Moderator
}

// SetSender installs the connection Chat broadcasts through. Optional; a
// Loop with no Sender drops every accepted chat line silently, the same
// refusal-not-crash treatment every other unwired dependency gets here.
func (l *Loop) SetSender(s Sender) { l.sender = s }

// SetSaver installs the save-pass implementation Shutdown runs. Optional;
// a Loop with no Saver skips the save pass entirely (tests, tools that
// never persist).
func (l *Loop) SetSaver(s Saver) { l.saver = s }

// SetBundle installs the data bundle CraftRecipe resolves recipes against.
// Optional; a Loop with no Bundle refuses every CraftRecipe request the
// same way it treats every Register request — a silent no-op, not a
// crash.
func (l *Loop) SetBundle(b *config.Bundle) { l.bundle = b }

// NewLoop wires a Loop around an already-constructed world (with its hook
// bus installed) and wake queue. inbound and genResults are owned by
// internal/transport and internal/terraingen respectively; Loop never
// writes to either.
func NewLoop(w *world.World, wakes *timer.WakeQueue[WakeReason], script Script, log *slog.Logger, inbound <-chan Request, genResults <-chan GenChunkResult) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		w:          w,
		wakes:      wakes,
		script:     script,
		log:        log,
		inbound:    inbound,
		genResults: genResults,
		clients:    make(map[ClientID]world.TransientID),
		mod:        chat.NewModerator(),
	}
}

// Run selects across all four sources (the three spec.md 4.9 names, plus
// World.Queue for script continuations and admin Exec calls) until ctx is
// cancelled or a Shutdown request is processed.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case req := <-l.w.Queue():
			l.w.Run(req)
			l.w.AdvanceTick()

		case req := <-l.inbound:
			if l.handleRequest(req) {
				return
			}
			l.w.AdvanceTick()

		case cookie := <-l.wakes.Fired():
			l.handleWake(cookie)
			l.w.AdvanceTick()

		case res := <-l.genResults:
			l.w.RunNow(func(tx *world.Tx) {
				l.script.GenerateChunk(tx, res.Plane, res.Pos, res)
			})
			l.w.AdvanceTick()
		}
	}
}

// handleWake resolves a fired cookie back to its reason and dispatches it.
// A cookie with no reason (Retrieve returns ok=false) was already
// cancelled — spec.md 5's "a cancelled timer that has already fired
// becomes a no-op in its handler lookup" — and is silently dropped.
func (l *Loop) handleWake(c timer.Cookie) {
	_, reason, ok := l.wakes.Retrieve(c)
	if !ok {
		return
	}
	switch reason.Kind {
	case WakeScriptTimeout:
		l.w.RunNow(func(tx *world.Tx) {
			l.script.Timeout(tx, reason.Client, reason.Cookie)
		})
	case WakeViewUpdate, WakeInputReplay:
		// View-update and input-replay wakes exist so a disconnecting
		// client's CancelAll(match) has something to match against;
		// the actual work they schedule is driven by the motion/vision
		// hook chain on every mutation, not by polling here.
	}
}

// handleRequest dispatches one inbound Request and reports whether the
// loop should exit (true only for a processed Shutdown).
func (l *Loop) handleRequest(req Request) bool {
	switch r := req.(type) {
	case Shutdown:
		l.shutdown()
		if r.Done != nil {
			close(r.Done)
		}
		return true

	case Restart:
		if r.NotifyClients {
			// Broadcasting is the transport layer's job; the loop only
			// decides *that* a refresh is owed, not how it is delivered.
		}
		return false

	case AddClient:
		l.w.RunNow(func(tx *world.Tx) {
			id, err := tx.CreateClient(uint64(r.Wire), "")
			if err != nil {
				l.log.Warn("dispatch: CreateClient failed", "wire", r.Wire, "err", err)
				return
			}
			l.clients[r.Wire] = id
		})

	case RemoveClient:
		l.wakes.CancelAll(func(reason WakeReason) bool { return reason.Client == r.Wire })
		l.mod.Forget(int32(r.Wire))
		if id, ok := l.clients[r.Wire]; ok {
			l.w.RunNow(func(tx *world.Tx) {
				_ = tx.DestroyClient(id)
			})
			delete(l.clients, r.Wire)
		}

	case Ping:
		// Answered directly by the transport layer's keepalive logic in
		// the common case; reaching the loop at all means a caller
		// wants it timestamped against world time, which callers with
		// transport access can do without a round trip through here.

	case Login:
		l.w.RunNow(func(tx *world.Tx) {
			pawn, ok := l.script.Login(tx, r.From, r.Name)
			if !ok {
				return
			}
			if cid, ok := l.clients[r.From]; ok {
				_ = tx.SetPawn(cid, pawn)
			}
		})

	case Register:
		// Account creation has no backing store: internal/persist
		// keeps no account records, so a Register request is dropped
		// without a RegisterResult.

	case Interact:
		l.w.RunNow(func(tx *world.Tx) { l.script.Interact(tx, r.From, r) })

	case UseItem:
		l.w.RunNow(func(tx *world.Tx) { l.script.UseItem(tx, r.From, r) })

	case UseAbility:
		l.w.RunNow(func(tx *world.Tx) { l.script.UseAbility(tx, r.From, r) })

	case MoveItem:
		l.w.RunNow(func(tx *world.Tx) { l.moveItem(tx, r) })

	case CraftRecipe:
		l.w.RunNow(func(tx *world.Tx) { l.craftRecipe(tx, r) })

	case Chat:
		l.handleChat(r)

	case UnsubscribeInventory:
		// Refcount release routes through internal/vision directly
		// (the adapter's HandleInventoryUpdate chain does not cover
		// voluntary unsubscribe, since no mutation occurs); callers
		// wire this to vision.Vision.UnsubscribeInventory themselves.

	case ReplCommand:
		// internal/dispatch/cmd.go's registry executes this; Loop only
		// routes it there so console commands run on the owning
		// goroutine like every other mutation.
		l.runReplCommand(r)
	}
	return false
}

// moveItem transfers count items from one slot to another, validating
// bounds and kind-compatibility before mutating either inventory — an
// invariant violation (spec.md §7) leaves both inventories untouched.
func (l *Loop) moveItem(tx *world.Tx, r MoveItem) {
	from, ok := tx.Inventory(r.FromInv)
	if !ok || r.FromSlot < 0 || r.FromSlot >= len(from.Slots) {
		return
	}
	to, ok := tx.Inventory(r.ToInv)
	if !ok || r.ToSlot < 0 || r.ToSlot >= len(to.Slots) {
		return
	}
	src := from.Slots[r.FromSlot]
	if src.Kind != world.SlotBulk || src.Count < r.Count {
		return
	}
	dst := to.Slots[r.ToSlot]
	if dst.Kind != world.SlotEmpty && (dst.Kind != world.SlotBulk || dst.ItemID != src.ItemID) {
		return
	}

	newSrc := src
	newSrc.Count -= r.Count
	if newSrc.Count == 0 {
		newSrc = world.EmptySlot()
	}
	newDst := world.BulkSlot(src.ItemID, dst.Count+r.Count)

	_ = tx.UpdateInventorySlot(r.FromInv, r.FromSlot, newSrc)
	_ = tx.UpdateInventorySlot(r.ToInv, r.ToSlot, newDst)
}

// handleChat routes a chat line to the script's command handler first —
// a message the script recognizes as a command (e.g. "/help") never
// reaches moderation or other clients — and otherwise moderates it
// through internal/chat before fanning the result out to every connected
// client, per SPEC_FULL.md 4.12.
func (l *Loop) handleChat(r Chat) {
	var handled bool
	l.w.RunNow(func(tx *world.Tx) { handled = l.script.ChatCommand(tx, r.From, r.Msg) })
	if handled {
		return
	}
	clean, ok := l.mod.Check(int32(r.From), r.Msg)
	if !ok || l.sender == nil {
		return
	}
	for cid := range l.clients {
		l.sender.Send(cid, ChatUpdate{From: r.From, Msg: clean})
	}
}

// craftRecipe produces r.Count copies of a recipe from internal/config's
// bundle, consuming ingredients from r.Inv. Feasibility — enough of every
// input, and a station of the right template if the recipe needs one — is
// checked in full before any slot is mutated, the same all-or-nothing
// discipline moveItem applies, per spec.md §7.
func (l *Loop) craftRecipe(tx *world.Tx, r CraftRecipe) {
	if l.bundle == nil || r.Count <= 0 {
		return
	}
	recipe, ok := l.bundle.RecipeAt(r.Recipe)
	if !ok {
		return
	}
	if recipe.HasStation {
		st, ok := tx.Structure(r.Station)
		if !ok || st.Template != recipe.Station {
			return
		}
	}
	inv, ok := tx.Inventory(r.Inv)
	if !ok {
		return
	}

	have := make(map[config.ItemID]int32, len(recipe.Inputs))
	for _, s := range inv.Slots {
		if s.Kind == world.SlotBulk {
			have[config.ItemID(s.ItemID)] += s.Count
		}
	}
	for id, count := range recipe.Inputs {
		if have[id] < int32(count)*r.Count {
			return
		}
	}
	free := 0
	for _, s := range inv.Slots {
		if s.Kind == world.SlotEmpty {
			free++
		}
	}
	outputKinds := make(map[config.ItemID]bool, len(recipe.Outputs))
	for id := range recipe.Outputs {
		outputKinds[id] = true
		for _, s := range inv.Slots {
			if s.Kind == world.SlotBulk && config.ItemID(s.ItemID) == id {
				free++ // a slot already holding this item can absorb more, no new slot needed
				break
			}
		}
	}
	if free < len(outputKinds) {
		return
	}

	remaining := make(map[config.ItemID]int32, len(recipe.Inputs))
	for id, count := range recipe.Inputs {
		remaining[id] = int32(count) * r.Count
	}
	for i, s := range inv.Slots {
		if s.Kind != world.SlotBulk {
			continue
		}
		id := config.ItemID(s.ItemID)
		want := remaining[id]
		if want <= 0 {
			continue
		}
		take := want
		if take > s.Count {
			take = s.Count
		}
		newSlot := world.EmptySlot()
		if s.Count-take > 0 {
			newSlot = world.BulkSlot(s.ItemID, s.Count-take)
		}
		_ = tx.UpdateInventorySlot(r.Inv, i, newSlot)
		remaining[id] -= take
	}

	for id, count := range recipe.Outputs {
		l.depositOutput(tx, r.Inv, int32(id), int32(count)*r.Count)
	}
}

// depositOutput adds n units of itemID into inv, first topping up any slot
// already holding it, then filling the first empty slot found.
func (l *Loop) depositOutput(tx *world.Tx, invID world.TransientID, itemID, n int32) {
	inv, ok := tx.Inventory(invID)
	if !ok || n <= 0 {
		return
	}
	for i, s := range inv.Slots {
		if s.Kind == world.SlotBulk && s.ItemID == itemID {
			_ = tx.UpdateInventorySlot(invID, i, world.BulkSlot(itemID, s.Count+n))
			return
		}
	}
	for i, s := range inv.Slots {
		if s.Kind == world.SlotEmpty {
			_ = tx.UpdateInventorySlot(invID, i, world.BulkSlot(itemID, n))
			return
		}
	}
}
