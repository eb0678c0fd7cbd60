package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/outpost-sim/server/internal/shape"
	"github.com/outpost-sim/server/internal/vec"
)

// Every method here is a bulk field restore used only by internal/persist's
// load pass, on a *Tx for an object that has just been fabricated and has
// never been visible to the hook bus: there is no viewer to diff against
// yet, so these skip the per-field publish ops.go's live mutators perform
// and write the fields directly, the way original_source/server/world/
// save.rs's reader populates a freshly fabricated object before it is
// reachable from anywhere else.

// RestoreEntityState fills in every Entity field a save record carries
// beyond what CreateEntity already set.
func (tx *Tx) RestoreEntityState(id TransientID, motion Motion, appearance, animationID int32, facing, targetVelocity mgl64.Vec3) error {
	tx.checkOpen()
	e, ok := tx.world.entities.Get(id)
	if !ok {
		return fmt.Errorf("world: no such entity %d", id)
	}
	e.Motion = motion
	e.Appearance = appearance
	e.AnimationID = animationID
	e.Facing = facing
	e.TargetVelocity = targetVelocity
	tx.world.entities.Set(id, e)
	return nil
}

// RestoreStructureFlags sets a structure's Flags, which CreateStructure
// always starts at zero.
func (tx *Tx) RestoreStructureFlags(id TransientID, flags uint32) error {
	tx.checkOpen()
	s, ok := tx.world.structures.Get(id)
	if !ok {
		return fmt.Errorf("world: no such structure %d", id)
	}
	s.Flags = flags
	tx.world.structures.Set(id, s)
	return nil
}

// RestoreTerrainChunkRaw overwrites a chunk's entire raw block array in one
// shot, unlike UpdateTerrainChunk's per-region hook-publishing path.
func (tx *Tx) RestoreTerrainChunkRaw(id TransientID, blocks []shape.Shape) error {
	tx.checkOpen()
	c, ok := tx.world.chunks.Get(id)
	if !ok {
		return fmt.Errorf("world: no such terrain chunk %d", id)
	}
	c.Raw.SetRaw(blocks)
	return nil
}

// RestoreClientInput sets a client's last-known input bits.
func (tx *Tx) RestoreClientInput(id TransientID, input uint32) error {
	tx.checkOpen()
	c, ok := tx.world.clients.Get(id)
	if !ok {
		return fmt.Errorf("world: no such client %d", id)
	}
	c.Input = input
	tx.world.clients.Set(id, c)
	return nil
}

// RestoreInventorySlots overwrites every slot of an inventory at once, used
// when loading rather than UpdateInventorySlot's one-slot-at-a-time path.
func (tx *Tx) RestoreInventorySlots(id TransientID, slots []Slot) error {
	tx.checkOpen()
	inv, ok := tx.world.inventories.Get(id)
	if !ok {
		return fmt.Errorf("world: no such inventory %d", id)
	}
	if len(slots) != len(inv.Slots) {
		return fmt.Errorf("world: inventory %d has %d slots, record has %d", id, len(inv.Slots), len(slots))
	}
	copy(inv.Slots, slots)
	return nil
}

// RestoreSavedChunk records that a chunk position on plane was saved to
// disk but is not currently loaded, for Plane.SavedChunks (spec.md 6's
// distinction between loaded and saved-but-unloaded chunks).
func (tx *Tx) RestoreSavedChunk(plane TransientID, pos vec.V2, sid StableID) error {
	tx.checkOpen()
	p, ok := tx.world.planes.Get(plane)
	if !ok {
		return fmt.Errorf("world: no such plane %d", plane)
	}
	p.SavedChunks[pos] = sid
	tx.world.planes.Set(plane, p)
	return nil
}
