// Package shape defines the tile Shape enum, the Source capability the
// collision engine queries, and a chunked grid implementation of it. It has
// no dependency on the world package: world.ShapeCache keeps each chunk's
// layers as shape.Grid values, keeping the lattice geometry independent from object-graph
// concerns.
package shape

import "github.com/outpost-sim/server/internal/vec"

// Shape is the content of a single tile cell.
type Shape uint8

const (
	Empty Shape = iota
	Floor
	Solid
	RampE
	RampW
	RampS
	RampN
	RampTop
)

// TileSize is the number of subpixels spanning one tile.
const TileSize int32 = 32

// ChunkSize is the number of tiles along one edge of a chunk.
const ChunkSize int32 = 16

// IsRamp reports whether s is one of the four cardinal ramp shapes.
func (s Shape) IsRamp() bool {
	switch s {
	case RampE, RampW, RampS, RampN:
		return true
	default:
		return false
	}
}

// RampAngle names the inclination of the surface directly below a footprint,
// per spec.md 4.2 get_ramp_angle.
type RampAngle uint8

const (
	NoRamp RampAngle = iota
	Flat
	AngleEast
	AngleWest
	AngleSouth
	AngleNorth
)

// Angle returns the RampAngle corresponding to a ramp shape, or NoRamp for
// non-ramp shapes.
func (s Shape) Angle() RampAngle {
	switch s {
	case RampE:
		return AngleEast
	case RampW:
		return AngleWest
	case RampS:
		return AngleSouth
	case RampN:
		return AngleNorth
	default:
		return NoRamp
	}
}

// EntryDir returns the unit lattice direction a mover must be travelling in
// to "enter" the ramp (i.e. walk up it), in tile units. Panics if s is not a
// ramp shape; callers must check IsRamp first.
func (s Shape) EntryDir() vec.V3 {
	switch s {
	case RampE:
		return vec.V3{X: 1}
	case RampW:
		return vec.V3{X: -1}
	case RampS:
		return vec.V3{Y: 1}
	case RampN:
		return vec.V3{Y: -1}
	default:
		panic("shape: EntryDir of non-ramp shape")
	}
}

// MaxAltitude returns the height, in subpixels within [0, TileSize], of the
// shape's surface over the given subpixel offset (x, y) within the tile.
// Empty returns -1 (no surface at all), matching
// original_source/client/physics.rs max_altitude/altitude_at_pixel.
func (s Shape) MaxAltitude(x, y int32) int32 {
	switch s {
	case Empty:
		return -1
	case Floor:
		return 0
	case Solid, RampTop:
		return TileSize
	case RampE:
		return x
	case RampW:
		return TileSize - x
	case RampS:
		return y
	case RampN:
		return TileSize - y
	default:
		return -1
	}
}

// Source answers shape queries for a single chunk's local tile coordinates,
// in [0, ChunkSize). Positions outside that range must return Empty, as the
// collision engine relies on this to detect chunk-boundary crossings.
type Source interface {
	GetShape(pos vec.V3) Shape
}

// GetShapeBelow scans downward from pos (inclusive) for the first shape that
// is neither Empty nor RampTop, returning that shape and the z at which it
// was found. If none is found by z < 0, it returns (Empty, 0), matching
// original_source/client/physics.rs get_shape_below.
func GetShapeBelow(src Source, pos vec.V3) (Shape, int32) {
	for z := pos.Z; z >= 0; z-- {
		p := vec.V3{X: pos.X, Y: pos.Y, Z: z}
		switch s := src.GetShape(p); s {
		case Empty, RampTop:
			continue
		default:
			return s, z
		}
	}
	return Empty, 0
}
