// Package dispatch implements spec.md 4.9's event loop: the single
// goroutine that owns the world exclusively, selecting among inbound wire
// messages, timer expirations, and terrain-gen results (spec.md 5), and
// wiring internal/world's hook bus into internal/vision and
// internal/timer. Grounded on dm-vev-adamant/server/world/tick.go's
// ticker (the select-on-channels/own-the-world-exclusively shape) and
// dm-vev-adamant/server/world/world.go's transaction queue, generalized
// from a fixed-rate game tick to spec.md's three-channel merge.
package dispatch

import (
	"github.com/outpost-sim/server/internal/shape"
	"github.com/outpost-sim/server/internal/vec"
	"github.com/outpost-sim/server/internal/vision"
	"github.com/outpost-sim/server/internal/world"
)

// chunkSubpixels converts a subpixel position into chunk coordinates, the
// same factor vision.RegionFor expects.
const chunkSubpixels = shape.ChunkSize * shape.TileSize

// TemplateSizer resolves a structure template to its tile-space footprint
// extents — the only template field the vision adapter needs. Implemented
// by *world.ShapeCache.
type TemplateSizer interface {
	TemplateSize(id world.TemplateID) (vec.V3, bool)
}

// VisionAdapter implements world.Handler, translating TransientID-keyed
// mutation events into internal/vision's bare-int32 appear/disappear
// calls. It is chained into world.NewChain after the shape cache (spec.md
// 4.6's fixed fan-out order: shape cache, then vision, then physics
// scheduler, then script callbacks).
type VisionAdapter struct {
	world.NopHandler

	vis       *vision.Vision
	hooks     vision.Hooks
	templates TemplateSizer
}

// NewVisionAdapter builds an adapter delivering vision events through
// hooks (typically an OutboundHooks fanning them to wire messages).
func NewVisionAdapter(vis *vision.Vision, hooks vision.Hooks, templates TemplateSizer) *VisionAdapter {
	return &VisionAdapter{vis: vis, hooks: hooks, templates: templates}
}

func chunkOfSubpixel(pos vec.V3) vec.V2 {
	return pos.Reduce().DivFloorScalar(chunkSubpixels)
}

// region2DivRound is vec.Region.DivRound's 2D analog: it expands a region
// to the smallest chunk-aligned region containing it (Min rounded down,
// Max rounded up), used to turn a structure's tile footprint into the set
// of chunks it touches.
func region2DivRound(r vec.Region2, d int32) vec.Region2 {
	return vec.Region2{
		Min: r.Min.DivFloorScalar(d),
		Max: r.Max.Add(vec.V2{X: d - 1, Y: d - 1}).DivFloorScalar(d),
	}
}

func structureFootprintChunks(pos, size vec.V3) []vec.V2 {
	footprint := vec.NewRegion2(pos.Reduce(), pos.Reduce().Add(size.Reduce()))
	chunkSpan := region2DivRound(footprint, shape.ChunkSize)
	var cells []vec.V2
	it := chunkSpan.Points()
	for p, ok := it.Next(); ok; p, ok = it.Next() {
		cells = append(cells, p)
	}
	return cells
}

// --- Clients -----------------------------------------------------------

func (a *VisionAdapter) HandleClientCreate(_ *world.Tx, id world.TransientID) {
	a.vis.AddClient(int32(id), vision.Limbo, vec.Region2{}, a.hooks)
}

func (a *VisionAdapter) HandleClientDestroy(_ *world.Tx, id world.TransientID) {
	a.vis.RemoveClient(int32(id), a.hooks)
}

// HandleClientChangePawn updates a client's view to follow its new pawn,
// per spec.md 4.8's "view update" scheduled work — a pawn change is
// itself a discontinuous jump, so the view moves immediately rather than
// waiting for the next motion event.
func (a *VisionAdapter) HandleClientChangePawn(tx *world.Tx, id, _, new world.TransientID) {
	if new == world.NoPawn {
		a.vis.SetClientView(int32(id), vision.Limbo, vec.Region2{}, a.hooks)
		return
	}
	e, ok := tx.Entity(new)
	if !ok {
		return
	}
	view := vision.RegionFor(e.Motion.EndPos, chunkSubpixels)
	a.vis.SetClientView(int32(id), int32(e.Plane), view, a.hooks)
}

// --- Entities ------------------------------------------------------------

func (a *VisionAdapter) HandleEntityCreate(tx *world.Tx, id world.TransientID) {
	e, ok := tx.Entity(id)
	if !ok {
		return
	}
	cell := chunkOfSubpixel(e.Motion.EndPos)
	a.vis.AddEntity(int32(id), int32(e.Plane), []vec.V2{cell}, a.hooks)
}

func (a *VisionAdapter) HandleEntityDestroy(_ *world.Tx, id world.TransientID) {
	a.vis.RemoveEntity(int32(id), a.hooks)
}

func (a *VisionAdapter) HandleEntityMotionChange(tx *world.Tx, id world.TransientID, m world.Motion) {
	e, ok := tx.Entity(id)
	if !ok {
		return
	}
	cell := chunkOfSubpixel(m.EndPos)
	a.vis.SetEntityArea(int32(id), int32(e.Plane), []vec.V2{cell}, a.hooks)
	a.followPawn(tx, id, e)
}

func (a *VisionAdapter) HandleEntityAppearanceChange(_ *world.Tx, id world.TransientID, _ int32) {
	a.vis.UpdateEntityAppearance(int32(id), a.hooks)
}

func (a *VisionAdapter) HandleEntityPlaneChange(tx *world.Tx, id world.TransientID, _, new world.TransientID) {
	e, ok := tx.Entity(id)
	if !ok {
		return
	}
	cell := chunkOfSubpixel(e.Motion.EndPos)
	a.vis.SetEntityArea(int32(id), int32(new), []vec.V2{cell}, a.hooks)
	a.followPawn(tx, id, e)
}

// followPawn recomputes the controlling client's view region when its
// pawn's position or plane changes. Entities not attached to a client, or
// attached but not currently the client's pawn (e.g. a previous pawn left
// resident after SetPawn moved on), are left alone.
func (a *VisionAdapter) followPawn(tx *world.Tx, entityID world.TransientID, e *world.Entity) {
	if e.Attachment.Kind != world.AttachClient {
		return
	}
	c, ok := tx.Client(e.Attachment.ID)
	if !ok || c.Pawn != entityID {
		return
	}
	view := vision.RegionFor(e.Motion.EndPos, chunkSubpixels)
	a.vis.SetClientView(int32(e.Attachment.ID), int32(e.Plane), view, a.hooks)
}

// --- Terrain chunks ------------------------------------------------------

func (a *VisionAdapter) HandleTerrainChunkCreate(tx *world.Tx, id world.TransientID) {
	c, ok := tx.TerrainChunk(id)
	if !ok {
		return
	}
	a.vis.AddTerrainChunk(int32(id), int32(c.Plane), c.Pos, a.hooks)
}

func (a *VisionAdapter) HandleTerrainChunkDestroy(_ *world.Tx, id world.TransientID) {
	a.vis.RemoveTerrainChunk(int32(id), a.hooks)
}

func (a *VisionAdapter) HandleTerrainChunkUpdate(_ *world.Tx, id world.TransientID, _ vec.Region) {
	a.vis.UpdateTerrainChunk(int32(id), a.hooks)
}

// --- Structures ------------------------------------------------------------

func (a *VisionAdapter) HandleStructureCreate(tx *world.Tx, id world.TransientID) {
	s, ok := tx.Structure(id)
	if !ok {
		return
	}
	size, ok := a.templates.TemplateSize(s.Template)
	if !ok {
		size = vec.V3{X: 1, Y: 1, Z: 1}
	}
	a.vis.AddStructure(int32(id), int32(s.Plane), structureFootprintChunks(s.Pos, size), a.hooks)
}

func (a *VisionAdapter) HandleStructureDestroy(_ *world.Tx, id world.TransientID) {
	a.vis.RemoveStructure(int32(id), a.hooks)
}

// HandleStructureReplace is a no-op for vision: a template swap changes
// what a structure looks like and what it contributes to the shape cache,
// not which chunks it occupies (position and size are fixed at creation).
// Appearance is refreshed through the script-callback path, not vision.
func (a *VisionAdapter) HandleStructureReplace(*world.Tx, world.TransientID, world.TemplateID) {}

// --- Inventories -----------------------------------------------------------

// HandleInventoryUpdate notifies subscribed viewers of a slot change.
// vision.UpdateInventory is keyed by item id rather than slot index (an
// existing internal/vision design choice); when a slot is cleared, the
// departing item's id is reported so a client can resolve which stack
// count dropped to zero.
func (a *VisionAdapter) HandleInventoryUpdate(_ *world.Tx, id world.TransientID, _ int, old, new world.Slot) {
	itemID := new.ItemID
	if new.Kind == world.SlotEmpty {
		itemID = old.ItemID
	}
	a.vis.UpdateInventory(int32(id), itemID, old.Count, new.Count, a.hooks)
}
