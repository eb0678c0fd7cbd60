package world

import (
	"fmt"

	"github.com/outpost-sim/server/internal/shape"
	"github.com/outpost-sim/server/internal/vec"
)

// Every exported method here is one of spec.md 4.5's typed operations: it
// checks the relevant attachment invariant, performs the mutation, and
// publishes through the hook bus before returning. Nothing else in this
// package or its callers should mutate a store directly.

// CreateClient registers a new client with no pawn and no children.
func (tx *Tx) CreateClient(wireID uint64, name string) (TransientID, error) {
	tx.checkOpen()
	if err := ValidName(name); err != nil {
		return 0, err
	}
	id := tx.world.clients.Insert(&Client{WireID: wireID, Name: name, Pawn: NoPawn})
	tx.world.Handler().HandleClientCreate(tx, id)
	return id, nil
}

// DestroyClient removes a client and, in deterministic post-order, every
// entity and inventory it owns.
func (tx *Tx) DestroyClient(id TransientID) error {
	tx.checkOpen()
	c, ok := tx.world.clients.Get(id)
	if !ok {
		return fmt.Errorf("world: no such client %d", id)
	}
	for _, eid := range append([]TransientID(nil), c.ChildEntities...) {
		_ = tx.DestroyEntity(eid)
	}
	for _, iid := range append([]TransientID(nil), c.ChildInventories...) {
		_ = tx.DestroyInventory(iid)
	}
	tx.world.clients.Remove(id)
	tx.world.Handler().HandleClientDestroy(tx, id)
	return nil
}

// SetPawn changes the entity a client controls. The previous pawn, if any,
// is left resident with its attachment unchanged — callers that want it
// destroyed call DestroyEntity separately.
func (tx *Tx) SetPawn(clientID, entityID TransientID) error {
	tx.checkOpen()
	c, ok := tx.world.clients.Get(clientID)
	if !ok {
		return fmt.Errorf("world: no such client %d", clientID)
	}
	if entityID != NoPawn {
		e, ok := tx.world.entities.Get(entityID)
		if !ok {
			return fmt.Errorf("world: no such entity %d", entityID)
		}
		if e.Attachment != ClientAttachment(clientID) {
			return fmt.Errorf("world: entity %d is not attached to client %d", entityID, clientID)
		}
	}
	old := c.Pawn
	c.Pawn = entityID
	tx.world.clients.Set(clientID, c)
	tx.world.Handler().HandleClientChangePawn(tx, clientID, old, entityID)
	return nil
}

// CreateEntity creates an entity attached to the World or to a client.
func (tx *Tx) CreateEntity(plane TransientID, pos vec.V3, attachment Attachment) (TransientID, error) {
	tx.checkOpen()
	if attachment.Kind != AttachWorld && attachment.Kind != AttachClient {
		return 0, fmt.Errorf("world: entity attachment must be World or Client, got %v", attachment.Kind)
	}
	e := &Entity{
		Plane:      plane,
		Motion:     Motion{StartPos: pos, EndPos: pos},
		Attachment: attachment,
	}
	id := tx.world.entities.Insert(e)
	if attachment.Kind == AttachClient {
		c, ok := tx.world.clients.Get(attachment.ID)
		if !ok {
			tx.world.entities.Remove(id)
			return 0, fmt.Errorf("world: no such client %d", attachment.ID)
		}
		c.ChildEntities = append(c.ChildEntities, id)
		tx.world.clients.Set(attachment.ID, c)
	}
	tx.world.Handler().HandleEntityCreate(tx, id)
	return id, nil
}

// DestroyEntity removes an entity and every inventory it owns, detaching it
// from its parent client's ChildEntities list if any.
func (tx *Tx) DestroyEntity(id TransientID) error {
	tx.checkOpen()
	e, ok := tx.world.entities.Get(id)
	if !ok {
		return fmt.Errorf("world: no such entity %d", id)
	}
	for _, iid := range append([]TransientID(nil), e.ChildInventories...) {
		_ = tx.DestroyInventory(iid)
	}
	if e.Attachment.Kind == AttachClient {
		if c, ok := tx.world.clients.Get(e.Attachment.ID); ok {
			c.ChildEntities = removeID(c.ChildEntities, id)
			if c.Pawn == id {
				c.Pawn = NoPawn
			}
			tx.world.clients.Set(e.Attachment.ID, c)
		}
	}
	tx.world.entities.Remove(id)
	tx.world.Handler().HandleEntityDestroy(tx, id)
	return nil
}

// SetEntityMotion replaces an entity's motion timeline.
func (tx *Tx) SetEntityMotion(id TransientID, m Motion) error {
	tx.checkOpen()
	e, ok := tx.world.entities.Get(id)
	if !ok {
		return fmt.Errorf("world: no such entity %d", id)
	}
	e.Motion = m
	tx.world.entities.Set(id, e)
	tx.world.Handler().HandleEntityMotionChange(tx, id, m)
	return nil
}

// SetEntityAppearance changes an entity's appearance integer.
func (tx *Tx) SetEntityAppearance(id TransientID, appearance int32) error {
	tx.checkOpen()
	e, ok := tx.world.entities.Get(id)
	if !ok {
		return fmt.Errorf("world: no such entity %d", id)
	}
	e.Appearance = appearance
	tx.world.entities.Set(id, e)
	tx.world.Handler().HandleEntityAppearanceChange(tx, id, appearance)
	return nil
}

// SetEntityPlane moves an entity to a different plane (or to Limbo).
func (tx *Tx) SetEntityPlane(id, newPlane TransientID) error {
	tx.checkOpen()
	e, ok := tx.world.entities.Get(id)
	if !ok {
		return fmt.Errorf("world: no such entity %d", id)
	}
	old := e.Plane
	e.Plane = newPlane
	tx.world.entities.Set(id, e)
	tx.world.Handler().HandleEntityPlaneChange(tx, id, old, newPlane)
	return nil
}

// CreateInventory creates an inventory attached to World, Client, Entity,
// or Structure.
func (tx *Tx) CreateInventory(size int, attachment Attachment) (TransientID, error) {
	tx.checkOpen()
	inv := NewInventory(size, attachment)
	id := tx.world.inventories.Insert(inv)
	if err := tx.attachInventory(id, attachment); err != nil {
		tx.world.inventories.Remove(id)
		return 0, err
	}
	tx.world.Handler().HandleInventoryCreate(tx, id)
	return id, nil
}

func (tx *Tx) attachInventory(id TransientID, a Attachment) error {
	switch a.Kind {
	case AttachWorld:
		return nil
	case AttachClient:
		c, ok := tx.world.clients.Get(a.ID)
		if !ok {
			return fmt.Errorf("world: no such client %d", a.ID)
		}
		c.ChildInventories = append(c.ChildInventories, id)
		tx.world.clients.Set(a.ID, c)
	case AttachEntity:
		e, ok := tx.world.entities.Get(a.ID)
		if !ok {
			return fmt.Errorf("world: no such entity %d", a.ID)
		}
		e.ChildInventories = append(e.ChildInventories, id)
		tx.world.entities.Set(a.ID, e)
	case AttachStructure:
		s, ok := tx.world.structures.Get(a.ID)
		if !ok {
			return fmt.Errorf("world: no such structure %d", a.ID)
		}
		s.ChildInventories = append(s.ChildInventories, id)
		tx.world.structures.Set(a.ID, s)
	default:
		return fmt.Errorf("world: invalid inventory attachment %v", a.Kind)
	}
	return nil
}

// DestroyInventory removes an inventory and detaches it from its parent.
func (tx *Tx) DestroyInventory(id TransientID) error {
	tx.checkOpen()
	inv, ok := tx.world.inventories.Get(id)
	if !ok {
		return fmt.Errorf("world: no such inventory %d", id)
	}
	switch inv.Attachment.Kind {
	case AttachClient:
		if c, ok := tx.world.clients.Get(inv.Attachment.ID); ok {
			c.ChildInventories = removeID(c.ChildInventories, id)
			tx.world.clients.Set(inv.Attachment.ID, c)
		}
	case AttachEntity:
		if e, ok := tx.world.entities.Get(inv.Attachment.ID); ok {
			e.ChildInventories = removeID(e.ChildInventories, id)
			tx.world.entities.Set(inv.Attachment.ID, e)
		}
	case AttachStructure:
		if s, ok := tx.world.structures.Get(inv.Attachment.ID); ok {
			s.ChildInventories = removeID(s.ChildInventories, id)
			tx.world.structures.Set(inv.Attachment.ID, s)
		}
	}
	tx.world.inventories.Remove(id)
	tx.world.Handler().HandleInventoryDestroy(tx, id)
	return nil
}

// UpdateInventorySlot overwrites one slot and publishes the change.
func (tx *Tx) UpdateInventorySlot(id TransientID, slot int, newSlot Slot) error {
	tx.checkOpen()
	inv, ok := tx.world.inventories.Get(id)
	if !ok {
		return fmt.Errorf("world: no such inventory %d", id)
	}
	if slot < 0 || slot >= len(inv.Slots) {
		return fmt.Errorf("world: slot %d out of range [0,%d)", slot, len(inv.Slots))
	}
	old := inv.Slots[slot]
	inv.Slots[slot] = newSlot
	tx.world.Handler().HandleInventoryUpdate(tx, id, slot, old, newSlot)
	return nil
}

// CreatePlane creates a new, empty plane.
func (tx *Tx) CreatePlane(name string) TransientID {
	tx.checkOpen()
	id := tx.world.planes.Insert(NewPlane(name))
	tx.world.Handler().HandlePlaneCreate(tx, id)
	return id
}

// DestroyPlane removes a plane and every chunk (and, transitively,
// structure) resident on it.
func (tx *Tx) DestroyPlane(id TransientID) error {
	tx.checkOpen()
	p, ok := tx.world.planes.Get(id)
	if !ok {
		return fmt.Errorf("world: no such plane %d", id)
	}
	for _, cid := range append([]TransientID(nil), mapValues(p.LoadedChunks)...) {
		_ = tx.DestroyTerrainChunk(cid)
	}
	tx.world.planes.Remove(id)
	tx.world.Handler().HandlePlaneDestroy(tx, id)
	return nil
}

// CreateTerrainChunk creates a resident chunk on a plane at chunk position
// cpos, registering it in the plane's LoadedChunks map.
func (tx *Tx) CreateTerrainChunk(plane TransientID, cpos vec.V2) (TransientID, error) {
	tx.checkOpen()
	p, ok := tx.world.planes.Get(plane)
	if !ok {
		return 0, fmt.Errorf("world: no such plane %d", plane)
	}
	id := tx.world.chunks.Insert(NewTerrainChunk(plane, cpos))
	p.LoadedChunks[cpos] = id
	tx.world.planes.Set(plane, p)
	tx.world.Handler().HandleTerrainChunkCreate(tx, id)
	return id, nil
}

// UpdateTerrainChunk overwrites the raw terrain shape at every tile in
// region (chunk-local coordinates) with newShape and publishes the change
// so the shape cache can recompute its merged grid for those cells.
func (tx *Tx) UpdateTerrainChunk(id TransientID, region vec.Region, newShape shape.Shape) error {
	tx.checkOpen()
	c, ok := tx.world.chunks.Get(id)
	if !ok {
		return fmt.Errorf("world: no such terrain chunk %d", id)
	}
	it := region.Points()
	for p, ok := it.Next(); ok; p, ok = it.Next() {
		c.Raw.SetShape(p, newShape)
	}
	tx.world.Handler().HandleTerrainChunkUpdate(tx, id, region)
	return nil
}

// DestroyTerrainChunk removes a chunk, every structure on it, and its entry
// from its plane's LoadedChunks map.
func (tx *Tx) DestroyTerrainChunk(id TransientID) error {
	tx.checkOpen()
	c, ok := tx.world.chunks.Get(id)
	if !ok {
		return fmt.Errorf("world: no such terrain chunk %d", id)
	}
	for _, sid := range append([]TransientID(nil), c.ChildStructures...) {
		_ = tx.DestroyStructure(sid)
	}
	if p, ok := tx.world.planes.Get(c.Plane); ok {
		delete(p.LoadedChunks, c.Pos)
		tx.world.planes.Set(c.Plane, p)
	}
	tx.world.chunks.Remove(id)
	tx.world.Handler().HandleTerrainChunkDestroy(tx, id)
	return nil
}

// CreateStructure places a structure attached to a plane or to the chunk
// containing its min corner. Callers must have already confirmed placement
// via the hook bus's CheckStructurePlacement.
func (tx *Tx) CreateStructure(plane TransientID, pos vec.V3, template TemplateID, attachment Attachment) (TransientID, error) {
	tx.checkOpen()
	if attachment.Kind != AttachPlane && attachment.Kind != AttachChunk {
		return 0, fmt.Errorf("world: structure attachment must be Plane or Chunk, got %v", attachment.Kind)
	}
	s := &Structure{Plane: plane, Pos: pos, Template: template, Attachment: attachment}
	id := tx.world.structures.Insert(s)
	if attachment.Kind == AttachChunk {
		c, ok := tx.world.chunks.Get(attachment.ID)
		if !ok {
			tx.world.structures.Remove(id)
			return 0, fmt.Errorf("world: no such terrain chunk %d", attachment.ID)
		}
		c.ChildStructures = append(c.ChildStructures, id)
		tx.world.chunks.Set(attachment.ID, c)
	}
	tx.world.Handler().HandleStructureCreate(tx, id)
	return id, nil
}

// DestroyStructure removes a structure, its inventories, and detaches it
// from its parent chunk.
func (tx *Tx) DestroyStructure(id TransientID) error {
	tx.checkOpen()
	s, ok := tx.world.structures.Get(id)
	if !ok {
		return fmt.Errorf("world: no such structure %d", id)
	}
	for _, iid := range append([]TransientID(nil), s.ChildInventories...) {
		_ = tx.DestroyInventory(iid)
	}
	if s.Attachment.Kind == AttachChunk {
		if c, ok := tx.world.chunks.Get(s.Attachment.ID); ok {
			c.ChildStructures = removeID(c.ChildStructures, id)
			tx.world.chunks.Set(s.Attachment.ID, c)
		}
	}
	tx.world.structures.Remove(id)
	tx.world.Handler().HandleStructureDestroy(tx, id)
	return nil
}

// ReplaceStructure swaps a structure's template in place (e.g. a door
// opening), publishing HandleStructureReplace for the shape cache to
// recompute its contribution.
func (tx *Tx) ReplaceStructure(id TransientID, template TemplateID) error {
	tx.checkOpen()
	s, ok := tx.world.structures.Get(id)
	if !ok {
		return fmt.Errorf("world: no such structure %d", id)
	}
	s.Template = template
	tx.world.structures.Set(id, s)
	tx.world.Handler().HandleStructureReplace(tx, id, template)
	return nil
}

func removeID(ids []TransientID, target TransientID) []TransientID {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func mapValues(m map[vec.V2]TransientID) []TransientID {
	out := make([]TransientID, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
