package collision

import (
	"github.com/outpost-sim/server/internal/shape"
	"github.com/outpost-sim/server/internal/vec"
)

// faceSpan names one contact face of a box at a tile-plane crossing: the
// rectangle of tiles, in tile coordinates, swept across when the box's
// leading edge on axis touches a new tile plane. boxBottomZ is the tile row
// of the whole box's bottom, used to tell a landing-layer tile (candidate
// floor/ramp) from a tile the box merely passes through above it.
type faceSpan struct {
	axis       vec.Axis
	dir        vec.V3
	boxBottomZ int32
	tileMin    vec.V3
	tileMax    vec.V3
}

// axisOrder fixes the order single-axis faces are scanned in when more than
// one axis crosses a tile plane simultaneously (a corner or edge contact),
// matching the Z-before-Y-before-X priority of
// original_source/client/physics.rs's HIT_COMBO_ORDER.
var axisOrder = [...]vec.Axis{vec.AxisZ, vec.AxisY, vec.AxisX}

// contactFaces builds one faceSpan per axis set in hit. base is the box's
// min corner (world subpixels) at the instant of the crossing, size its
// extents, and velSign the sign of travel on each axis.
func contactFaces(base, size, velSign, hit vec.V3) []faceSpan {
	boxMax := base.Add(size)
	tiles := vec.NewRegion(base, boxMax).DivRound(shape.TileSize)

	var faces []faceSpan
	for _, a := range axisOrder {
		if hit.Get(a) == 0 {
			continue
		}
		dirSign := velSign.Get(a)
		var boundary int32
		if dirSign > 0 {
			boundary = tiles.Max.Get(a)
		} else {
			boundary = tiles.Min.Get(a) - 1
		}
		var dir vec.V3
		dir = dir.With(a, dirSign)

		faces = append(faces, faceSpan{
			axis:       a,
			dir:        dir,
			boxBottomZ: tiles.Min.Z,
			tileMin:    tiles.Min.With(a, boundary),
			tileMax:    tiles.Max.With(a, boundary+1),
		})
	}
	return faces
}

// facePositions enumerates every tile position (in tile coordinates) covered
// by a faceSpan.
func facePositions(f faceSpan) []vec.V3 {
	r := vec.NewRegion(f.tileMin, f.tileMax)
	var out []vec.V3
	it := r.Points()
	for {
		p, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, p)
	}
	return out
}
