package shape

import "github.com/outpost-sim/server/internal/vec"

// Grid is a flat ChunkSize^3 array of Shape, the raw terrain layer of a
// chunk. Out-of-bounds reads return Empty rather than panicking, since the
// collision engine probes neighbouring chunk-boundary tiles speculatively.
type Grid struct {
	blocks [ChunkSize * ChunkSize * ChunkSize]Shape
}

// NewGrid returns a Grid with every tile Empty.
func NewGrid() *Grid { return &Grid{} }

func inBounds(pos vec.V3) bool {
	return pos.X >= 0 && pos.X < ChunkSize &&
		pos.Y >= 0 && pos.Y < ChunkSize &&
		pos.Z >= 0 && pos.Z < ChunkSize
}

func index(pos vec.V3) int {
	return int((pos.Z*ChunkSize+pos.Y)*ChunkSize + pos.X)
}

// GetShape implements Source.
func (g *Grid) GetShape(pos vec.V3) Shape {
	if !inBounds(pos) {
		return Empty
	}
	return g.blocks[index(pos)]
}

// SetShape writes a single tile. pos must be in bounds; callers (the world
// package) are responsible for clamping.
func (g *Grid) SetShape(pos vec.V3, s Shape) {
	if !inBounds(pos) {
		return
	}
	g.blocks[index(pos)] = s
}

// Fill sets every tile of the grid to s.
func (g *Grid) Fill(s Shape) {
	for i := range g.blocks {
		g.blocks[i] = s
	}
}

// Raw returns the backing flat array for persistence encoding. Callers must
// not mutate the returned slice's length.
func (g *Grid) Raw() []Shape { return g.blocks[:] }

// SetRaw overwrites the backing array from a flat, chunk-ordered slice, used
// when decoding a persisted chunk. Panics if the length does not match.
func (g *Grid) SetRaw(flat []Shape) {
	if len(flat) != len(g.blocks) {
		panic("shape: SetRaw length mismatch")
	}
	copy(g.blocks[:], flat)
}
