package world

// Every method here threads a Store's stable-id cross-reference table
// (store.go's StableOf/ByStable/BindStable) through Tx, for
// internal/persist: a save pass needs every resident object's stable id
// (minting one on first save), and a load pass needs to bind a freshly
// fabricated object back to the stable id its record carried.

// ClientStableID returns id's stable id, minting one if it has none yet.
func (tx *Tx) ClientStableID(id TransientID) (StableID, bool) {
	tx.checkOpen()
	return tx.world.clients.StableOf(id)
}

// EntityStableID returns id's stable id, minting one if it has none yet.
func (tx *Tx) EntityStableID(id TransientID) (StableID, bool) {
	tx.checkOpen()
	return tx.world.entities.StableOf(id)
}

// InventoryStableID returns id's stable id, minting one if it has none yet.
func (tx *Tx) InventoryStableID(id TransientID) (StableID, bool) {
	tx.checkOpen()
	return tx.world.inventories.StableOf(id)
}

// StructureStableID returns id's stable id, minting one if it has none yet.
func (tx *Tx) StructureStableID(id TransientID) (StableID, bool) {
	tx.checkOpen()
	return tx.world.structures.StableOf(id)
}

// PlaneStableID returns id's stable id, minting one if it has none yet.
func (tx *Tx) PlaneStableID(id TransientID) (StableID, bool) {
	tx.checkOpen()
	return tx.world.planes.StableOf(id)
}

// TerrainChunkStableID returns id's stable id, minting one if it has none
// yet.
func (tx *Tx) TerrainChunkStableID(id TransientID) (StableID, bool) {
	tx.checkOpen()
	return tx.world.chunks.StableOf(id)
}

// ClientByStable resolves a stable id back to a resident client, if any.
func (tx *Tx) ClientByStable(sid StableID) (TransientID, bool) {
	tx.checkOpen()
	return tx.world.clients.ByStable(sid)
}

// EntityByStable resolves a stable id back to a resident entity, if any.
func (tx *Tx) EntityByStable(sid StableID) (TransientID, bool) {
	tx.checkOpen()
	return tx.world.entities.ByStable(sid)
}

// InventoryByStable resolves a stable id back to a resident inventory, if
// any.
func (tx *Tx) InventoryByStable(sid StableID) (TransientID, bool) {
	tx.checkOpen()
	return tx.world.inventories.ByStable(sid)
}

// StructureByStable resolves a stable id back to a resident structure, if
// any.
func (tx *Tx) StructureByStable(sid StableID) (TransientID, bool) {
	tx.checkOpen()
	return tx.world.structures.ByStable(sid)
}

// BindClientStable records sid as id's stable id, used when loading a
// save record whose id was already assigned before the object existed.
func (tx *Tx) BindClientStable(id TransientID, sid StableID) {
	tx.checkOpen()
	tx.world.clients.BindStable(id, sid)
}

// BindEntityStable records sid as id's stable id.
func (tx *Tx) BindEntityStable(id TransientID, sid StableID) {
	tx.checkOpen()
	tx.world.entities.BindStable(id, sid)
}

// BindInventoryStable records sid as id's stable id.
func (tx *Tx) BindInventoryStable(id TransientID, sid StableID) {
	tx.checkOpen()
	tx.world.inventories.BindStable(id, sid)
}

// BindStructureStable records sid as id's stable id.
func (tx *Tx) BindStructureStable(id TransientID, sid StableID) {
	tx.checkOpen()
	tx.world.structures.BindStable(id, sid)
}

// PlaneByStable resolves a stable id back to a resident plane, if any.
func (tx *Tx) PlaneByStable(sid StableID) (TransientID, bool) {
	tx.checkOpen()
	return tx.world.planes.ByStable(sid)
}

// TerrainChunkByStable resolves a stable id back to a resident terrain
// chunk, if any.
func (tx *Tx) TerrainChunkByStable(sid StableID) (TransientID, bool) {
	tx.checkOpen()
	return tx.world.chunks.ByStable(sid)
}

// BindPlaneStable records sid as id's stable id.
func (tx *Tx) BindPlaneStable(id TransientID, sid StableID) {
	tx.checkOpen()
	tx.world.planes.BindStable(id, sid)
}

// BindTerrainChunkStable records sid as id's stable id.
func (tx *Tx) BindTerrainChunkStable(id TransientID, sid StableID) {
	tx.checkOpen()
	tx.world.chunks.BindStable(id, sid)
}
