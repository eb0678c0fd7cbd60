package persist

import (
	"fmt"

	"github.com/outpost-sim/server/internal/world"
)

// KV is the storage capability Writer and Reader need. store.go implements
// it over a goleveldb database; tests implement it over a plain map, since
// neither side of this package needs anything leveldb-specific beyond
// ordered-prefix iteration.
type KV interface {
	Put(key, value []byte) error
	Range(prefix byte, fn func(key, value []byte) bool) error
}

// Writer walks a world's resident objects and writes one record per object,
// keyed by stable id, grounded in original_source/server/world/save.rs's
// per-class save_* methods — adapted to write each object independently
// into a KV store rather than into one sequential stream, since every
// object already carries a durable id of its own (world.StableID) and
// needs no sequential SaveId to be assigned.
type Writer struct {
	tx *world.Tx
	kv KV
}

func NewWriter(tx *world.Tx, kv KV) *Writer { return &Writer{tx: tx, kv: kv} }

// SaveWorld writes every resident plane, client, entity, terrain chunk,
// structure, and inventory. It stops at the first storage error, per
// spec.md 7's "storage error ... aborting the current save"; a partially
// written save is never left referencing ids that do not resolve, since
// every record's cross-references are other objects' already-stable ids,
// not ids this save pass invents.
func (w *Writer) SaveWorld() error {
	var firstErr error
	fail := func(err error) bool {
		if firstErr == nil {
			firstErr = err
		}
		return firstErr == nil
	}

	w.tx.RangePlanes(func(id world.TransientID, p *world.Plane) bool {
		sid, ok := w.tx.PlaneStableID(id)
		if !ok {
			return fail(fmt.Errorf("persist: plane %d has no stable id", id))
		}
		return fail(w.kv.Put(key(classPlane, sid), encodePlane(p)))
	})
	if firstErr != nil {
		return firstErr
	}

	w.tx.RangeClients(func(id world.TransientID, c *world.Client) bool {
		sid, ok := w.tx.ClientStableID(id)
		if !ok {
			return fail(fmt.Errorf("persist: client %d has no stable id", id))
		}
		data, err := w.encodeClient(c)
		if err != nil {
			return fail(err)
		}
		return fail(w.kv.Put(key(classClient, sid), data))
	})
	if firstErr != nil {
		return firstErr
	}

	w.tx.RangeTerrainChunks(func(id world.TransientID, c *world.TerrainChunk) bool {
		sid, ok := w.tx.TerrainChunkStableID(id)
		if !ok {
			return fail(fmt.Errorf("persist: terrain chunk %d has no stable id", id))
		}
		data, err := w.encodeTerrainChunk(c)
		if err != nil {
			return fail(err)
		}
		return fail(w.kv.Put(key(classTerrainChunk, sid), data))
	})
	if firstErr != nil {
		return firstErr
	}

	w.tx.RangeEntities(func(id world.TransientID, e *world.Entity) bool {
		sid, ok := w.tx.EntityStableID(id)
		if !ok {
			return fail(fmt.Errorf("persist: entity %d has no stable id", id))
		}
		data, err := w.encodeEntity(e)
		if err != nil {
			return fail(err)
		}
		return fail(w.kv.Put(key(classEntity, sid), data))
	})
	if firstErr != nil {
		return firstErr
	}

	w.tx.RangeStructures(func(id world.TransientID, s *world.Structure) bool {
		sid, ok := w.tx.StructureStableID(id)
		if !ok {
			return fail(fmt.Errorf("persist: structure %d has no stable id", id))
		}
		data, err := w.encodeStructure(s)
		if err != nil {
			return fail(err)
		}
		return fail(w.kv.Put(key(classStructure, sid), data))
	})
	if firstErr != nil {
		return firstErr
	}

	w.tx.RangeInventories(func(id world.TransientID, inv *world.Inventory) bool {
		sid, ok := w.tx.InventoryStableID(id)
		if !ok {
			return fail(fmt.Errorf("persist: inventory %d has no stable id", id))
		}
		data, err := w.encodeInventory(inv)
		if err != nil {
			return fail(err)
		}
		return fail(w.kv.Put(key(classInventory, sid), data))
	})
	return firstErr
}

func (w *Writer) encodeClient(c *world.Client) ([]byte, error) {
	e := &encoder{}
	e.u64(c.WireID)
	e.str(c.Name)
	e.u32(c.Input)
	if c.Pawn != world.NoPawn {
		sid, ok := w.tx.EntityStableID(c.Pawn)
		if !ok {
			return nil, fmt.Errorf("persist: client's pawn %d has no stable id", c.Pawn)
		}
		e.optStableID(sid, true)
	} else {
		e.optStableID(world.NilStableID, false)
	}
	return e.bytes(), nil
}

func (w *Writer) encodeEntity(ent *world.Entity) ([]byte, error) {
	planeSid, ok := w.tx.PlaneStableID(ent.Plane)
	if !ok {
		return nil, fmt.Errorf("persist: entity's plane %d has no stable id", ent.Plane)
	}
	e := &encoder{}
	e.stableID(planeSid)
	e.motion(ent.Motion)
	e.i32(ent.Appearance)
	e.i32(ent.AnimationID)
	e.vec3f(ent.Facing[0], ent.Facing[1], ent.Facing[2])
	e.vec3f(ent.TargetVelocity[0], ent.TargetVelocity[1], ent.TargetVelocity[2])
	if ent.Attachment.Kind == world.AttachClient {
		sid, ok := w.tx.ClientStableID(ent.Attachment.ID)
		if !ok {
			return nil, fmt.Errorf("persist: entity's owning client %d has no stable id", ent.Attachment.ID)
		}
		e.optStableID(sid, true)
	} else {
		e.optStableID(world.NilStableID, false)
	}
	return e.bytes(), nil
}

func (w *Writer) encodeTerrainChunk(c *world.TerrainChunk) ([]byte, error) {
	planeSid, ok := w.tx.PlaneStableID(c.Plane)
	if !ok {
		return nil, fmt.Errorf("persist: chunk's plane %d has no stable id", c.Plane)
	}
	e := &encoder{}
	e.stableID(planeSid)
	e.v2(c.Pos)

	raw := c.Raw.Raw()
	names := make([]string, 0, 8)
	index := make(map[string]uint32, 8)
	type run struct {
		idx uint32
		n   uint32
	}
	var runs []run
	for i := 0; i < len(raw); {
		s := raw[i]
		j := i + 1
		for j < len(raw) && raw[j] == s {
			j++
		}
		name := blockName(s)
		idx, seen := index[name]
		if !seen {
			idx = uint32(len(names))
			index[name] = idx
			names = append(names, name)
		}
		runs = append(runs, run{idx: idx, n: uint32(j - i)})
		i = j
	}

	e.u32(uint32(len(names)))
	for _, n := range names {
		e.str(n)
	}
	e.u32(uint32(len(runs)))
	for _, r := range runs {
		e.u32(r.idx)
		e.u32(r.n)
	}
	return e.bytes(), nil
}

func (w *Writer) encodeStructure(s *world.Structure) ([]byte, error) {
	planeSid, ok := w.tx.PlaneStableID(s.Plane)
	if !ok {
		return nil, fmt.Errorf("persist: structure's plane %d has no stable id", s.Plane)
	}
	e := &encoder{}
	e.stableID(planeSid)
	e.v3(s.Pos)
	e.i32(int32(s.Template))
	e.u32(s.Flags)
	if s.Attachment.Kind == world.AttachChunk {
		sid, ok := w.tx.TerrainChunkStableID(s.Attachment.ID)
		if !ok {
			return nil, fmt.Errorf("persist: structure's chunk %d has no stable id", s.Attachment.ID)
		}
		e.optStableID(sid, true)
	} else {
		e.optStableID(world.NilStableID, false)
	}
	return e.bytes(), nil
}

func (w *Writer) encodeInventory(inv *world.Inventory) ([]byte, error) {
	e := &encoder{}
	e.u32(uint32(len(inv.Slots)))
	for _, s := range inv.Slots {
		e.slot(s)
	}
	kind, id := inv.Attachment.Kind, inv.Attachment.ID
	switch kind {
	case world.AttachWorld:
		e.u8(uint8(invAttachWorld))
	case world.AttachClient:
		sid, ok := w.tx.ClientStableID(id)
		if !ok {
			return nil, fmt.Errorf("persist: inventory's client %d has no stable id", id)
		}
		e.u8(uint8(invAttachClient))
		e.stableID(sid)
	case world.AttachEntity:
		sid, ok := w.tx.EntityStableID(id)
		if !ok {
			return nil, fmt.Errorf("persist: inventory's entity %d has no stable id", id)
		}
		e.u8(uint8(invAttachEntity))
		e.stableID(sid)
	case world.AttachStructure:
		sid, ok := w.tx.StructureStableID(id)
		if !ok {
			return nil, fmt.Errorf("persist: inventory's structure %d has no stable id", id)
		}
		e.u8(uint8(invAttachStructure))
		e.stableID(sid)
	default:
		return nil, fmt.Errorf("persist: inventory has invalid attachment kind %v", kind)
	}
	return e.bytes(), nil
}
