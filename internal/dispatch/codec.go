package dispatch

import (
	"encoding/binary"

	"github.com/outpost-sim/server/internal/shape"
	"github.com/outpost-sim/server/internal/world"
)

// encodeChunkRLE run-length encodes a chunk's raw terrain for the wire's
// TerrainChunk.RLEData (spec.md §6 "rle-data"), distinct from the
// richer block-id-table-plus-flags save-file encoding internal/persist
// uses for storage — the wire payload only ever needs the shape a tile
// renders as, never the full save record.
//
// Encoding: a sequence of (uint16 run-length, byte shape) pairs covering
// the grid's ChunkSize^3 tiles in the same flat order shape.Grid.Raw uses.
func encodeChunkRLE(c *world.TerrainChunk) []byte {
	raw := c.Raw.Raw()
	buf := make([]byte, 0, 64)
	i := 0
	for i < len(raw) {
		run := raw[i]
		j := i + 1
		for j < len(raw) && raw[j] == run && j-i < 0xFFFF {
			j++
		}
		var lenBuf [2]byte
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(j-i))
		buf = append(buf, lenBuf[0], lenBuf[1], byte(run))
		i = j
	}
	return buf
}

// decodeChunkRLE is encodeChunkRLE's inverse, used by tests and by a
// client-side renderer (out of this repo's scope, but kept symmetric so
// the format is self-checking).
func decodeChunkRLE(data []byte) []shape.Shape {
	var out []shape.Shape
	for i := 0; i+3 <= len(data); i += 3 {
		n := binary.LittleEndian.Uint16(data[i : i+2])
		s := shape.Shape(data[i+2])
		for k := uint16(0); k < n; k++ {
			out = append(out, s)
		}
	}
	return out
}
