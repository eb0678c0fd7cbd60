package dispatch

import (
	"github.com/outpost-sim/server/internal/vec"
	"github.com/outpost-sim/server/internal/vision"
	"github.com/outpost-sim/server/internal/world"
)

// Sender delivers one Response to one connection. internal/transport's
// Hub implements it; tests use a recording fake.
type Sender interface {
	Send(to ClientID, resp Response)
}

// localChunkSize is spec.md §6's LOCAL_SIZE: the client-local chunk index
// space is LOCAL_SIZE x LOCAL_SIZE, sized comfortably larger than
// vision.ViewSize so a client's full view always fits without thrashing
// index reassignment as it scrolls.
const localChunkSize = 8

// localChunkIndex assigns stable small integers to a client's currently
// visible chunk positions, per spec.md §6's "client-local chunk and
// position indices computed against a per-client rolling origin". Indices
// are reused once a chunk unloads rather than growing without bound.
type localChunkIndex struct {
	byPos map[vec.V2]int32
	free  []int32
	next  int32
}

func newLocalChunkIndex() *localChunkIndex {
	return &localChunkIndex{byPos: make(map[vec.V2]int32)}
}

func (l *localChunkIndex) assign(pos vec.V2) int32 {
	if idx, ok := l.byPos[pos]; ok {
		return idx
	}
	var idx int32
	if n := len(l.free); n > 0 {
		idx, l.free = l.free[n-1], l.free[:n-1]
	} else {
		idx, l.next = l.next, l.next+1
	}
	l.byPos[pos] = idx
	return idx
}

func (l *localChunkIndex) release(pos vec.V2) (int32, bool) {
	idx, ok := l.byPos[pos]
	if !ok {
		return 0, false
	}
	delete(l.byPos, pos)
	l.free = append(l.free, idx)
	return idx, true
}

// OutboundHooks implements vision.Hooks by resolving each bare-id
// visibility transition back into full object state (through w.RunNow,
// since every call here runs on the world's owning goroutine already) and
// handing the resulting Response to Sender. One OutboundHooks instance is
// shared by every client; per-client bookkeeping (chunk index assignment)
// lives in the chunkIdx map keyed by ClientID.
type OutboundHooks struct {
	vision.NopHooks

	w      *world.World
	sender Sender

	chunkIdx map[ClientID]*localChunkIndex
}

// NewOutboundHooks builds a hook set that fans vision transitions for
// every client out through sender.
func NewOutboundHooks(w *world.World, sender Sender) *OutboundHooks {
	return &OutboundHooks{w: w, sender: sender, chunkIdx: make(map[ClientID]*localChunkIndex)}
}

func (o *OutboundHooks) indexFor(cid int32) *localChunkIndex {
	c := ClientID(cid)
	idx, ok := o.chunkIdx[c]
	if !ok {
		idx = newLocalChunkIndex()
		o.chunkIdx[c] = idx
	}
	return idx
}

// --- Entities ----------------------------------------------------------

func (o *OutboundHooks) EntityAppear(cid, eid int32) {
	var resp EntityAppear
	o.w.RunNow(func(tx *world.Tx) {
		e, ok := tx.Entity(world.TransientID(eid))
		if !ok {
			return
		}
		resp = EntityAppear{ID: world.TransientID(eid), Appearance: e.Appearance, Pos: e.Motion}
	})
	o.sender.Send(ClientID(cid), resp)
}

func (o *OutboundHooks) EntityDisappear(cid, eid int32) {
	o.sender.Send(ClientID(cid), EntityGone{ID: world.TransientID(eid)})
}

func (o *OutboundHooks) EntityMotionUpdate(cid, eid int32) {
	var resp EntityUpdate
	o.w.RunNow(func(tx *world.Tx) {
		e, ok := tx.Entity(world.TransientID(eid))
		if !ok {
			return
		}
		resp = EntityUpdate{ID: world.TransientID(eid), Pos: e.Motion}
	})
	o.sender.Send(ClientID(cid), resp)
}

func (o *OutboundHooks) EntityAppearanceUpdate(cid, eid int32) {
	var resp EntityAppear
	o.w.RunNow(func(tx *world.Tx) {
		e, ok := tx.Entity(world.TransientID(eid))
		if !ok {
			return
		}
		resp = EntityAppear{ID: world.TransientID(eid), Appearance: e.Appearance, Pos: e.Motion}
	})
	o.sender.Send(ClientID(cid), resp)
}

func (o *OutboundHooks) PlaneChange(cid, _, _ int32) {
	o.sender.Send(ClientID(cid), Sync{Status: SyncReset})
}

// --- Terrain chunks ------------------------------------------------------

func (o *OutboundHooks) TerrainChunkAppear(cid, tcid int32, cpos vec.V2) {
	idx := o.indexFor(cid).assign(cpos)
	var payload []byte
	o.w.RunNow(func(tx *world.Tx) {
		c, ok := tx.TerrainChunk(world.TransientID(tcid))
		if !ok {
			return
		}
		payload = encodeChunkRLE(c)
	})
	o.sender.Send(ClientID(cid), TerrainChunk{LocalIdx: idx, RLEData: payload})
}

func (o *OutboundHooks) TerrainChunkDisappear(cid, _ int32, cpos vec.V2) {
	idx, ok := o.indexFor(cid).release(cpos)
	if !ok {
		return
	}
	o.sender.Send(ClientID(cid), UnloadChunk{LocalIdx: idx})
}

func (o *OutboundHooks) TerrainChunkUpdate(cid, tcid int32, cpos vec.V2) {
	idx := o.indexFor(cid).assign(cpos)
	var payload []byte
	o.w.RunNow(func(tx *world.Tx) {
		c, ok := tx.TerrainChunk(world.TransientID(tcid))
		if !ok {
			return
		}
		payload = encodeChunkRLE(c)
	})
	o.sender.Send(ClientID(cid), TerrainChunk{LocalIdx: idx, RLEData: payload})
}

// --- Structures ------------------------------------------------------------

func (o *OutboundHooks) StructureAppear(cid, sid int32) {
	var resp StructureAppear
	o.w.RunNow(func(tx *world.Tx) {
		s, ok := tx.Structure(world.TransientID(sid))
		if !ok {
			return
		}
		resp = StructureAppear{ID: world.TransientID(sid), Template: s.Template}
	})
	o.sender.Send(ClientID(cid), resp)
}

func (o *OutboundHooks) StructureDisappear(cid, sid int32) {
	o.sender.Send(ClientID(cid), StructureGone{ID: world.TransientID(sid)})
}

// --- Inventories -----------------------------------------------------------

func (o *OutboundHooks) InventoryAppear(cid, iid int32) {
	var resp InventoryUpdate
	o.w.RunNow(func(tx *world.Tx) {
		inv, ok := tx.Inventory(world.TransientID(iid))
		if !ok {
			return
		}
		resp = InventoryUpdate{Inv: world.TransientID(iid), Deltas: fullInventoryDeltas(inv)}
	})
	o.sender.Send(ClientID(cid), resp)
}

func (o *OutboundHooks) InventoryDisappear(cid, iid int32) {
	o.sender.Send(ClientID(cid), InventoryUpdate{Inv: world.TransientID(iid)})
}

func (o *OutboundHooks) InventoryUpdate(cid, iid, itemID, oldCount, newCount int32) {
	o.sender.Send(ClientID(cid), InventoryUpdate{
		Inv:    world.TransientID(iid),
		Deltas: []SlotDelta{{ItemID: itemID, Count: newCount - oldCount}},
	})
}

func fullInventoryDeltas(inv *world.Inventory) []SlotDelta {
	deltas := make([]SlotDelta, 0, len(inv.Slots))
	for i, s := range inv.Slots {
		if s.Kind == world.SlotEmpty {
			continue
		}
		deltas = append(deltas, SlotDelta{Slot: i, ItemID: s.ItemID, Count: s.Count})
	}
	return deltas
}
