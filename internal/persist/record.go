package persist

import (
	"fmt"

	"github.com/outpost-sim/server/internal/shape"
	"github.com/outpost-sim/server/internal/vec"
	"github.com/outpost-sim/server/internal/world"
)

// class is the one-byte tag prefixing every key this package writes,
// spec.md 9's "closed tagged union" applied to the save file's key space
// itself rather than left as an open string namespace.
type class byte

const (
	classPlane        class = 'p'
	classClient       class = 'c'
	classEntity       class = 'e'
	classTerrainChunk class = 't'
	classStructure    class = 's'
	classInventory    class = 'i'
)

// key builds the storage key for one object: its class tag followed by its
// 16-byte stable id, so a range scan over a single class prefix (KV.Range)
// enumerates every object of that class without a separate index record.
func key(c class, sid world.StableID) []byte {
	k := make([]byte, 1+16)
	k[0] = byte(c)
	copy(k[1:], sid[:])
	return k
}

// planeRecord is Plane's persisted payload: just its name plus the chunk
// positions that are saved but not currently loaded. LoadedChunks is not
// persisted directly — it is rebuilt as a side effect of replaying every
// TerrainChunk record's CreateTerrainChunk call on load.
type planeRecord struct {
	name        string
	savedChunks map[vec.V2]world.StableID
}

func encodePlane(p *world.Plane) []byte {
	e := &encoder{}
	e.str(p.Name)
	e.u32(uint32(len(p.SavedChunks)))
	for pos, sid := range p.SavedChunks {
		e.v2(pos)
		e.stableID(sid)
	}
	return e.bytes()
}

func decodePlane(data []byte) (*planeRecord, error) {
	d := newDecoder(data)
	rec := &planeRecord{savedChunks: make(map[vec.V2]world.StableID)}
	rec.name = d.str()
	n := d.u32()
	for i := uint32(0); i < n && d.err == nil; i++ {
		pos := d.v2()
		sid := d.stableID()
		rec.savedChunks[pos] = sid
	}
	return rec, d.done()
}

// clientRecord is Client's persisted payload. ChildEntities/ChildInventories
// are not persisted: they are rebuilt by replaying each child's own create
// call with a Client attachment pointing back at this record's stable id.
type clientRecord struct {
	wireID  uint64
	name    string
	input   uint32
	pawn    world.StableID
	hasPawn bool
}

func decodeClient(data []byte) (*clientRecord, error) {
	d := newDecoder(data)
	rec := &clientRecord{}
	rec.wireID = d.u64()
	rec.name = d.str()
	rec.input = d.u32()
	rec.pawn, rec.hasPawn = d.optStableID()
	return rec, d.done()
}

// entityRecord is Entity's persisted payload. Attachment is either World
// (isClientOwned false) or Client (attachClient the owning client's stable
// id); an entity attached to a structure or plane directly is not a
// modeled attachment kind (world/attachment.go restricts entities to
// World/Client), matching ops.go's CreateEntity validation.
type entityRecord struct {
	plane          world.StableID
	motion         world.Motion
	appearance     int32
	animationID    int32
	facing         [3]float64
	targetVelocity [3]float64
	attachClient   world.StableID
	isClientOwned  bool
}

func decodeEntity(data []byte) (*entityRecord, error) {
	d := newDecoder(data)
	rec := &entityRecord{}
	rec.plane = d.stableID()
	rec.motion = d.motion()
	rec.appearance = d.i32()
	rec.animationID = d.i32()
	rec.facing[0], rec.facing[1], rec.facing[2] = d.vec3f()
	rec.targetVelocity[0], rec.targetVelocity[1], rec.targetVelocity[2] = d.vec3f()
	rec.attachClient, rec.isClientOwned = d.optStableID()
	return rec, d.done()
}

// terrainChunkRecord is TerrainChunk's persisted payload: its plane, chunk
// position, and raw block array with an inline name table (spec.md 6's
// "block-id lookup table").
type terrainChunkRecord struct {
	plane  world.StableID
	pos    vec.V2
	blocks []shape.Shape
}

func decodeTerrainChunk(data []byte) (*terrainChunkRecord, error) {
	d := newDecoder(data)
	rec := &terrainChunkRecord{}
	rec.plane = d.stableID()
	rec.pos = d.v2()
	tableLen := d.u32()
	names := make([]string, tableLen)
	for i := range names {
		names[i] = d.str()
	}
	count := d.u32()
	rec.blocks = make([]shape.Shape, 0, count)
	for i := uint32(0); i < count && d.err == nil; i++ {
		idx := d.u32()
		runLen := d.u32()
		if int(idx) >= len(names) {
			continue
		}
		s := blockByName(names[idx])
		for j := uint32(0); j < runLen; j++ {
			rec.blocks = append(rec.blocks, s)
		}
	}
	if err := d.done(); err != nil {
		return nil, err
	}
	want := int(shape.ChunkSize) * int(shape.ChunkSize) * int(shape.ChunkSize)
	if len(rec.blocks) != want {
		return nil, fmt.Errorf("persist: terrain chunk record decodes to %d blocks, want %d", len(rec.blocks), want)
	}
	return rec, nil
}

// structureRecord is Structure's persisted payload. Attachment is either
// Plane (attachChunk unset) or Chunk.
type structureRecord struct {
	plane        world.StableID
	pos          vec.V3
	template     world.TemplateID
	flags        uint32
	attachChunk  world.StableID
	isChunkOwned bool
}

func decodeStructure(data []byte) (*structureRecord, error) {
	d := newDecoder(data)
	rec := &structureRecord{}
	rec.plane = d.stableID()
	rec.pos = d.v3()
	rec.template = world.TemplateID(d.i32())
	rec.flags = d.u32()
	rec.attachChunk, rec.isChunkOwned = d.optStableID()
	return rec, d.done()
}

// inventoryAttachKind mirrors world.AttachmentKind's closed set, restricted
// to the four kinds CreateInventory actually accepts.
type inventoryAttachKind uint8

const (
	invAttachWorld inventoryAttachKind = iota
	invAttachClient
	invAttachEntity
	invAttachStructure
)

type inventoryRecord struct {
	slots      []world.Slot
	attachKind inventoryAttachKind
	attachID   world.StableID
}

func decodeInventory(data []byte) (*inventoryRecord, error) {
	d := newDecoder(data)
	rec := &inventoryRecord{}
	n := d.u32()
	rec.slots = make([]world.Slot, 0, n)
	for i := uint32(0); i < n && d.err == nil; i++ {
		rec.slots = append(rec.slots, d.slot())
	}
	rec.attachKind = inventoryAttachKind(d.u8())
	if rec.attachKind != invAttachWorld {
		rec.attachID = d.stableID()
	}
	return rec, d.done()
}
