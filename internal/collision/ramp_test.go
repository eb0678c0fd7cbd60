package collision

import (
	"testing"

	"github.com/outpost-sim/server/internal/shape"
	"github.com/outpost-sim/server/internal/vec"
)

func TestCollideOnRampClimbsAndExits(t *testing.T) {
	g := shape.NewGrid()
	for x := int32(0); x < shape.ChunkSize; x++ {
		for y := int32(0); y < shape.ChunkSize; y++ {
			switch {
			case x < 4:
				g.SetShape(vec.V3{X: x, Y: y, Z: 0}, shape.Floor)
			case x < 8:
				g.SetShape(vec.V3{X: x, Y: y, Z: 0}, shape.RampE)
				g.SetShape(vec.V3{X: x, Y: y, Z: 1}, shape.RampTop)
			default:
				g.SetShape(vec.V3{X: x, Y: y, Z: 1}, shape.Floor)
			}
		}
	}

	pos := vec.V3{X: 4 * shape.TileSize, Y: 2 * shape.TileSize, Z: 0}
	size := vec.V3{X: 16, Y: 16, Z: 16}
	velocity := vec.V3{X: 320000, Y: 0, Z: 0}

	angle, ok := GetRampAngle(g, pos, size)
	if !ok || angle != shape.AngleEast {
		t.Fatalf("GetRampAngle = (%v, %v), want (AngleEast, true)", angle, ok)
	}

	res := CollideOnRamp(g, pos, size, velocity, angle, 10000)
	switch res.Reason {
	case RampExit, RampAngleChange, Wall, Timeout, RampDysfunction:
	default:
		t.Fatalf("unexpected terminal reason %v", res.Reason)
	}
	if res.Pos.X < pos.X {
		t.Errorf("Pos.X regressed: %d < %d", res.Pos.X, pos.X)
	}
}
