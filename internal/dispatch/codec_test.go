package dispatch

import (
	"testing"

	"github.com/outpost-sim/server/internal/shape"
	"github.com/outpost-sim/server/internal/vec"
	"github.com/outpost-sim/server/internal/world"
)

func TestChunkRLERoundTrips(t *testing.T) {
	c := world.NewTerrainChunk(1, vec.V2{})
	for z := int32(0); z < shape.ChunkSize; z++ {
		for y := int32(0); y < shape.ChunkSize; y++ {
			for x := int32(0); x < shape.ChunkSize; x++ {
				s := shape.Empty
				if z == 0 {
					s = shape.Floor
				}
				c.Raw.SetShape(vec.V3{X: x, Y: y, Z: z}, s)
			}
		}
	}

	encoded := encodeChunkRLE(c)
	decoded := decodeChunkRLE(encoded)
	want := c.Raw.Raw()

	if len(decoded) != len(want) {
		t.Fatalf("decoded length = %d, want %d", len(decoded), len(want))
	}
	for i := range want {
		if decoded[i] != want[i] {
			t.Fatalf("tile %d = %v, want %v", i, decoded[i], want[i])
		}
	}
}
