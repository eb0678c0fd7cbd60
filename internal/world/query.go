package world

import "github.com/outpost-sim/server/internal/vec"

// Every method here is a read-only lookup into one of the six object
// stores. Unlike ops.go's mutators, these publish nothing through the hook
// bus; internal/dispatch uses them to read state a handler needs (an
// entity's current position, a client's pawn) without mutating anything.

// Client returns the client resident for id.
func (tx *Tx) Client(id TransientID) (*Client, bool) {
	tx.checkOpen()
	return tx.world.clients.Get(id)
}

// Entity returns the entity resident for id.
func (tx *Tx) Entity(id TransientID) (*Entity, bool) {
	tx.checkOpen()
	return tx.world.entities.Get(id)
}

// Inventory returns the inventory resident for id.
func (tx *Tx) Inventory(id TransientID) (*Inventory, bool) {
	tx.checkOpen()
	return tx.world.inventories.Get(id)
}

// Plane returns the plane resident for id.
func (tx *Tx) Plane(id TransientID) (*Plane, bool) {
	tx.checkOpen()
	return tx.world.planes.Get(id)
}

// TerrainChunk returns the terrain chunk resident for id.
func (tx *Tx) TerrainChunk(id TransientID) (*TerrainChunk, bool) {
	tx.checkOpen()
	return tx.world.chunks.Get(id)
}

// Structure returns the structure resident for id.
func (tx *Tx) Structure(id TransientID) (*Structure, bool) {
	tx.checkOpen()
	return tx.world.structures.Get(id)
}

// ChunkAt resolves the terrain chunk loaded at cpos on plane, if any.
func (tx *Tx) ChunkAt(plane TransientID, cpos vec.V2) (TransientID, bool) {
	tx.checkOpen()
	p, ok := tx.world.planes.Get(plane)
	if !ok {
		return 0, false
	}
	id, ok := p.LoadedChunks[cpos]
	return id, ok
}

// RangeClients visits every resident client.
func (tx *Tx) RangeClients(fn func(id TransientID, c *Client) bool) {
	tx.checkOpen()
	tx.world.clients.Range(fn)
}

// RangeEntities visits every resident entity.
func (tx *Tx) RangeEntities(fn func(id TransientID, e *Entity) bool) {
	tx.checkOpen()
	tx.world.entities.Range(fn)
}

// RangeInventories visits every resident inventory.
func (tx *Tx) RangeInventories(fn func(id TransientID, inv *Inventory) bool) {
	tx.checkOpen()
	tx.world.inventories.Range(fn)
}

// RangePlanes visits every resident plane.
func (tx *Tx) RangePlanes(fn func(id TransientID, p *Plane) bool) {
	tx.checkOpen()
	tx.world.planes.Range(fn)
}

// RangeTerrainChunks visits every resident terrain chunk.
func (tx *Tx) RangeTerrainChunks(fn func(id TransientID, c *TerrainChunk) bool) {
	tx.checkOpen()
	tx.world.chunks.Range(fn)
}

// RangeStructures visits every resident structure.
func (tx *Tx) RangeStructures(fn func(id TransientID, s *Structure) bool) {
	tx.checkOpen()
	tx.world.structures.Range(fn)
}
