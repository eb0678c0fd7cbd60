package collision

import (
	"math"

	"github.com/outpost-sim/server/internal/shape"
	"github.com/outpost-sim/server/internal/vec"
)

// epsilon absorbs floating point drift when deciding whether two axes cross
// a tile boundary at the same instant (a corner or edge contact).
const epsilon = 1e-9

// planeCollisions walks the leading corner of a swept box forward in time,
// yielding one event per tile-plane crossing (spec.md 4.2 step 2). Multiple
// axes may cross in the same event, in which case hit carries a bit for each
// of them — this is how corner and edge contacts are detected.
type planeCollisions struct {
	corner0  vec.V3
	velocity vec.V3
	nextTile [3]int32 // next boundary tile index per axis, X=0 Y=1 Z=2
	active   [3]bool
}

func axisIdx(a vec.Axis) int {
	switch a {
	case vec.AxisX:
		return 0
	case vec.AxisY:
		return 1
	default:
		return 2
	}
}

func newPlaneCollisions(corner, velocity vec.V3) *planeCollisions {
	pc := &planeCollisions{corner0: corner, velocity: velocity}
	for _, a := range [...]vec.Axis{vec.AxisX, vec.AxisY, vec.AxisZ} {
		i := axisIdx(a)
		v := velocity.Get(a)
		if v == 0 {
			continue
		}
		pc.active[i] = true
		pc.nextTile[i] = nextBoundaryTile(corner.Get(a), v)
	}
	return pc
}

// nextBoundaryTile returns the tile index of the first tile-plane the
// coordinate c will cross when moving with velocity v (v != 0).
func nextBoundaryTile(c, v int32) int32 {
	t := floorDiv(c, shape.TileSize)
	if v > 0 {
		return t + 1
	}
	if c%shape.TileSize == 0 {
		return t - 1
	}
	return t
}

// floorDiv performs floored division, matching vec's lattice convention.
func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func (pc *planeCollisions) timeFor(a vec.Axis) (float64, bool) {
	i := axisIdx(a)
	if !pc.active[i] {
		return 0, false
	}
	v := pc.velocity.Get(a)
	boundaryCoord := float64(pc.nextTile[i]) * float64(shape.TileSize)
	dist := boundaryCoord - float64(pc.corner0.Get(a))
	return dist / float64(v), true
}

// next advances the walk to the next tile-plane crossing, returning the
// elapsed time (rounded to whole milliseconds), the leading corner's
// position at that instant, a 0/1-valued hit vector naming which axes
// crossed, and ok=false once no axis has further velocity to report.
func (pc *planeCollisions) next() (timeMS int32, cur vec.V3, hit vec.V3, ok bool) {
	tMin := math.Inf(1)
	any := false
	for _, a := range [...]vec.Axis{vec.AxisX, vec.AxisY, vec.AxisZ} {
		t, active := pc.timeFor(a)
		if !active {
			continue
		}
		any = true
		if t < tMin {
			tMin = t
		}
	}
	if !any {
		return 0, vec.Zero, vec.Zero, false
	}

	cur = vec.New3(
		round32(float64(pc.corner0.X)+float64(pc.velocity.X)*tMin),
		round32(float64(pc.corner0.Y)+float64(pc.velocity.Y)*tMin),
		round32(float64(pc.corner0.Z)+float64(pc.velocity.Z)*tMin),
	)

	for _, a := range [...]vec.Axis{vec.AxisX, vec.AxisY, vec.AxisZ} {
		t, active := pc.timeFor(a)
		if !active {
			continue
		}
		if math.Abs(t-tMin) <= epsilon {
			hit = hit.With(a, 1)
			i := axisIdx(a)
			if pc.velocity.Get(a) > 0 {
				pc.nextTile[i]++
			} else {
				pc.nextTile[i]--
			}
		}
	}

	return int32(math.Round(tMin * 1000)), cur, hit, true
}

func round32(f float64) int32 { return int32(math.Round(f)) }
