// Package persist implements the save/load codec spec.md 6 and 7 describe:
// per-object records keyed by stable id, written through a goleveldb-backed
// store (SPEC_FULL.md 4.14). The wire-format shape is grounded in
// original_source/server/world/save.rs, adapted from its allocator-local
// SaveId remap table to direct world.StableID references, since Store[T]
// (internal/world/store.go) already mints and keeps a persistent id for
// every object that has ever been referenced — save.rs needed its own
// remap table only because its objects had no such id of their own.
package persist

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"

	"github.com/outpost-sim/server/internal/shape"
	"github.com/outpost-sim/server/internal/vec"
	"github.com/outpost-sim/server/internal/world"
)

// encoder accumulates one object's record. Every write method is
// infallible; a record only fails to materialize if its source data is
// itself invalid, which Writer checks before encoding.
type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) bytes() []byte { return e.buf.Bytes() }

func (e *encoder) u8(v uint8)   { e.buf.WriteByte(v) }
func (e *encoder) u32(v uint32) { var b [4]byte; binary.LittleEndian.PutUint32(b[:], v); e.buf.Write(b[:]) }
func (e *encoder) i32(v int32)  { e.u32(uint32(v)) }
func (e *encoder) u64(v uint64) { var b [8]byte; binary.LittleEndian.PutUint64(b[:], v); e.buf.Write(b[:]) }
func (e *encoder) i64(v int64)  { e.u64(uint64(v)) }

func (e *encoder) f64(v float64) { e.u64(math.Float64bits(v)) }

// str writes a length-prefixed UTF-8 string. Unlike save.rs's
// write_str_bytes, there is no trailing alignment padding — that padding
// was an artifact of the Rust reader's fixed-stride struct layout, which
// Go's length-prefixed decode has no need to replicate.
func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.buf.WriteString(s)
}

func (e *encoder) stableID(sid world.StableID) { e.buf.Write(sid[:]) }

// optStableID writes a presence byte followed by the id, so a zero-value
// "no parent"/"no pawn" reference round-trips without colliding with a
// genuine all-zero (impossible, but defensively handled) uuid.
func (e *encoder) optStableID(sid world.StableID, present bool) {
	if !present {
		e.u8(0)
		return
	}
	e.u8(1)
	e.stableID(sid)
}

func (e *encoder) v2(v vec.V2) { e.i32(v.X); e.i32(v.Y) }
func (e *encoder) v3(v vec.V3) { e.i32(v.X); e.i32(v.Y); e.i32(v.Z) }

func (e *encoder) vec3f(x, y, z float64) { e.f64(x); e.f64(y); e.f64(z) }

func (e *encoder) slot(s world.Slot) {
	e.u8(uint8(s.Kind))
	e.i32(s.ItemID)
	e.i32(s.Count)
	e.i64(s.ScriptID)
}

func (e *encoder) motion(m world.Motion) {
	e.v3(m.StartPos)
	e.v3(m.EndPos)
	e.i64(m.StartTimeMS)
	e.i64(m.DurationMS)
}

func (e *encoder) idList(ids []world.StableID) {
	e.u32(uint32(len(ids)))
	for _, id := range ids {
		e.stableID(id)
	}
}

// decoder is the read side of encoder, over a single object's record
// bytes. Every method returns an error rather than panicking on a short
// or corrupt buffer, since a truncated record is a storage error
// (spec.md 7), not a programmer error.
type decoder struct {
	r   *bytes.Reader
	err error
}

func newDecoder(data []byte) *decoder { return &decoder{r: bytes.NewReader(data)} }

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) u8() uint8 {
	if d.err != nil {
		return 0
	}
	b, err := d.r.ReadByte()
	if err != nil {
		d.fail(fmt.Errorf("persist: short record: %w", err))
		return 0
	}
	return b
}

func (d *decoder) read(n int) []byte {
	if d.err != nil {
		return make([]byte, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		d.fail(fmt.Errorf("persist: short record: %w", err))
	}
	return buf
}

func (d *decoder) u32() uint32 { return binary.LittleEndian.Uint32(d.read(4)) }
func (d *decoder) i32() int32  { return int32(d.u32()) }
func (d *decoder) u64() uint64 { return binary.LittleEndian.Uint64(d.read(8)) }
func (d *decoder) i64() int64  { return int64(d.u64()) }
func (d *decoder) f64() float64 { return math.Float64frombits(d.u64()) }

func (d *decoder) str() string {
	n := d.u32()
	if d.err != nil {
		return ""
	}
	return string(d.read(int(n)))
}

func (d *decoder) stableID() world.StableID {
	var sid world.StableID
	copy(sid[:], d.read(16))
	return sid
}

func (d *decoder) optStableID() (world.StableID, bool) {
	if d.u8() == 0 {
		return world.NilStableID, false
	}
	return d.stableID(), true
}

func (d *decoder) v2() vec.V2 { x := d.i32(); y := d.i32(); return vec.V2{X: x, Y: y} }
func (d *decoder) v3() vec.V3 { x := d.i32(); y := d.i32(); z := d.i32(); return vec.V3{X: x, Y: y, Z: z} }

func (d *decoder) vec3f() (x, y, z float64) { return d.f64(), d.f64(), d.f64() }

func (d *decoder) slot() world.Slot {
	kind := world.SlotKind(d.u8())
	itemID := d.i32()
	count := d.i32()
	scriptID := d.i64()
	return world.Slot{Kind: kind, ItemID: itemID, Count: count, ScriptID: scriptID}
}

func (d *decoder) motion() world.Motion {
	start := d.v3()
	end := d.v3()
	startMS := d.i64()
	durMS := d.i64()
	return world.Motion{StartPos: start, EndPos: end, StartTimeMS: startMS, DurationMS: durMS}
}

func (d *decoder) idList() []world.StableID {
	n := d.u32()
	if d.err != nil {
		return nil
	}
	out := make([]world.StableID, 0, n)
	for i := uint32(0); i < n; i++ {
		out = append(out, d.stableID())
	}
	return out
}

// done reports any decode error accumulated so far, and that every byte of
// the record was consumed (a leftover tail means the record and the
// decoder disagree about the schema version, per spec.md 6's version
// byte).
func (d *decoder) done() error {
	if d.err != nil {
		return d.err
	}
	if d.r.Len() != 0 {
		return fmt.Errorf("persist: %d trailing bytes in record", d.r.Len())
	}
	return nil
}

// blockName returns a stable textual name for a raw terrain shape, used so
// the per-chunk block-id lookup table (spec.md 6) survives a reshuffle of
// the shape.Shape enum's numeric values. The collision shape enum is fixed
// and small (internal/shape/shape.go), unlike the data bundle's block/item/
// template catalog (internal/config), so it is named here directly rather
// than through an injected catalog.
func blockName(s shape.Shape) string {
	switch s {
	case shape.Empty:
		return "empty"
	case shape.Floor:
		return "floor"
	case shape.Solid:
		return "solid"
	case shape.RampE:
		return "ramp_e"
	case shape.RampW:
		return "ramp_w"
	case shape.RampS:
		return "ramp_s"
	case shape.RampN:
		return "ramp_n"
	case shape.RampTop:
		return "ramp_top"
	default:
		return "empty"
	}
}

func blockByName(name string) shape.Shape {
	switch name {
	case "floor":
		return shape.Floor
	case "solid":
		return shape.Solid
	case "ramp_e":
		return shape.RampE
	case "ramp_w":
		return shape.RampW
	case "ramp_s":
		return shape.RampS
	case "ramp_n":
		return shape.RampN
	case "ramp_top":
		return shape.RampTop
	default:
		return shape.Empty
	}
}

// saveNamespace is the fixed uuid namespace planeUUIDSeed derives from.
// Stable ids themselves are not minted under it: they come from
// world.NewStableID (uuid.New), so they differ between runs and a save
// records whatever ids the objects already carry.
var saveNamespace = uuid.MustParse("b23f1a2e-6c62-4e7c-9c1e-9a9f0d9a7c10")

// planeUUIDSeed derives a deterministic uuid v5 from a plane's name under
// saveNamespace. No save or load path in this package calls it.
func planeUUIDSeed(planeName string) uuid.UUID {
	return uuid.NewSHA1(saveNamespace, []byte(planeName))
}
