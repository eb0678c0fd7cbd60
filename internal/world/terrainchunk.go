package world

import (
	"github.com/outpost-sim/server/internal/shape"
	"github.com/outpost-sim/server/internal/vec"
)

// TerrainChunk is one resident CHUNK_SIZE^3 block of tiles (spec.md 3). Raw
// is the unmodified terrain. It is not one of the shape cache's three
// structure layers: the shape cache (internal/world's shapecache.go), keyed
// by this chunk's TransientID, merges Raw beneath its layer0, layer1 and
// layer2 structure grids.
type TerrainChunk struct {
	Plane TransientID
	Pos   vec.V2 // chunk coordinates within Plane

	Raw *shape.Grid

	ChildStructures []TransientID
}

// NewTerrainChunk creates a chunk of entirely Empty raw terrain.
func NewTerrainChunk(plane TransientID, pos vec.V2) *TerrainChunk {
	return &TerrainChunk{Plane: plane, Pos: pos, Raw: shape.NewGrid()}
}
