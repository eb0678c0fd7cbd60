package collision

import (
	"testing"

	"github.com/outpost-sim/server/internal/shape"
	"github.com/outpost-sim/server/internal/vec"
)

func floorGrid() *shape.Grid {
	g := shape.NewGrid()
	for x := int32(0); x < shape.ChunkSize; x++ {
		for y := int32(0); y < shape.ChunkSize; y++ {
			g.SetShape(vec.V3{X: x, Y: y, Z: 0}, shape.Floor)
		}
	}
	return g
}

func TestCollideZeroVelocity(t *testing.T) {
	g := floorGrid()
	res := Collide(g, vec.V3{X: 100, Y: 100, Z: 0}, vec.V3{X: 16, Y: 16, Z: 16}, vec.Zero, 1000)
	if res.Reason != ZeroVelocity {
		t.Fatalf("Reason = %v, want ZeroVelocity", res.Reason)
	}
}

func TestCollideSlideEndAcrossOpenFloor(t *testing.T) {
	g := floorGrid()
	pos := vec.V3{X: shape.TileSize, Y: shape.TileSize, Z: 0}
	size := vec.V3{X: 16, Y: 16, Z: 16}
	velocity := vec.V3{X: 32000, Y: 0, Z: 0} // 32000 subpixels/sec east

	res := Collide(g, pos, size, velocity, 5)
	if res.Reason != SlideEnd {
		t.Fatalf("Reason = %v, want SlideEnd", res.Reason)
	}
	wantX := pos.X + 32000*5/1000
	if res.Pos.X != wantX {
		t.Errorf("Pos.X = %d, want %d", res.Pos.X, wantX)
	}
}

func TestCollideChunkBorder(t *testing.T) {
	g := floorGrid()
	pos := vec.V3{X: shape.ChunkSize*shape.TileSize - 40, Y: shape.TileSize, Z: 0}
	size := vec.V3{X: 16, Y: 16, Z: 16}
	velocity := vec.V3{X: 320000, Y: 0, Z: 0}

	res := Collide(g, pos, size, velocity, 10000)
	if res.Reason != ChunkBorder {
		t.Fatalf("Reason = %v, want ChunkBorder", res.Reason)
	}
	if got := res.Pos.X + size.X; got != shape.ChunkSize*shape.TileSize {
		t.Errorf("leading edge = %d, want %d", got, shape.ChunkSize*shape.TileSize)
	}
}

func TestCollideWall(t *testing.T) {
	g := floorGrid()
	// A solid wall column at tile x=5, spanning the full chunk height.
	for z := int32(0); z < shape.ChunkSize; z++ {
		g.SetShape(vec.V3{X: 5, Y: 2, Z: z}, shape.Solid)
	}

	pos := vec.V3{X: 3 * shape.TileSize, Y: 2 * shape.TileSize, Z: 0}
	size := vec.V3{X: 16, Y: 16, Z: 16}
	velocity := vec.V3{X: 320000, Y: 0, Z: 0}

	res := Collide(g, pos, size, velocity, 10000)
	if res.Reason != Wall {
		t.Fatalf("Reason = %v, want Wall", res.Reason)
	}
	if got := res.Pos.X + size.X; got != 5*shape.TileSize {
		t.Errorf("leading edge = %d, want %d", got, 5*shape.TileSize)
	}
}

func TestCollideNoFloor(t *testing.T) {
	g := floorGrid()
	g.SetShape(vec.V3{X: 5, Y: 2, Z: 0}, shape.Empty)

	pos := vec.V3{X: 3 * shape.TileSize, Y: 2 * shape.TileSize, Z: 0}
	size := vec.V3{X: 16, Y: 16, Z: 16}
	velocity := vec.V3{X: 320000, Y: 0, Z: 0}

	res := Collide(g, pos, size, velocity, 10000)
	if res.Reason != NoFloor {
		t.Fatalf("Reason = %v, want NoFloor", res.Reason)
	}
}

func TestCollideRampEntry(t *testing.T) {
	g := floorGrid()
	g.SetShape(vec.V3{X: 5, Y: 2, Z: 0}, shape.RampE)

	pos := vec.V3{X: 3 * shape.TileSize, Y: 2 * shape.TileSize, Z: 0}
	size := vec.V3{X: 16, Y: 16, Z: 16}
	velocity := vec.V3{X: 320000, Y: 0, Z: 0}

	res := Collide(g, pos, size, velocity, 10000)
	if res.Reason != RampEntry {
		t.Fatalf("Reason = %v, want RampEntry", res.Reason)
	}
}

func TestGetRampAngleConsistentFootprint(t *testing.T) {
	g := floorGrid()
	g.SetShape(vec.V3{X: 5, Y: 2, Z: 0}, shape.RampE)
	g.SetShape(vec.V3{X: 5, Y: 3, Z: 0}, shape.RampE)

	pos := vec.V3{X: 5 * shape.TileSize, Y: 2*shape.TileSize + 4, Z: 0}
	size := vec.V3{X: 16, Y: 16, Z: 16}

	angle, ok := GetRampAngle(g, pos, size)
	if !ok || angle != shape.AngleEast {
		t.Fatalf("GetRampAngle = (%v, %v), want (AngleEast, true)", angle, ok)
	}
}
