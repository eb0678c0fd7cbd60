package world

import (
	"github.com/outpost-sim/server/internal/shape"
	"github.com/outpost-sim/server/internal/vec"
)

// ShapeCache is listener 0 of the hook bus (spec.md 4.6): for every resident
// chunk it keeps three layered shape grids — layer0 (terrain-like structure
// overlays: rugs, foundations), layer1 (solid structures), layer2
// (attachments) — plus a merged grid the collision engine actually queries.
// Layer 0 is distinct from TerrainChunk.Raw: raw terrain is the chunk's
// natural ground, layer0 is what a Layer-0 structure paints on top of it,
// matching spec.md 4.4's rule that Layer-0 structures may not overlap one
// another even though a bare Floor tile imposes no such restriction.
//
// ShapeCache also answers spec.md 4.4's placement queries, since it is the
// only component that knows every layer's occupancy.
type ShapeCache struct {
	NopHandler

	world     *World
	templates map[TemplateID]*Template

	perChunk map[TransientID]*chunkLayers
}

// chunkLayers holds one resident chunk's structure-contributed grids and the
// structure id (0 = none) that last wrote each cell of layer0/layer1/layer2,
// used to exclude a structure's own cells when checking its replacement and
// to reject overlapping placements on the same layer.
type chunkLayers struct {
	layer0, layer1, layer2 *shape.Grid
	owner0, owner1, owner2 [shape.ChunkSize * shape.ChunkSize * shape.ChunkSize]TransientID
	merged                 *shape.Grid
}

func newChunkLayers() *chunkLayers {
	return &chunkLayers{
		layer0: shape.NewGrid(),
		layer1: shape.NewGrid(),
		layer2: shape.NewGrid(),
		merged: shape.NewGrid(),
	}
}

// NewShapeCache creates an empty cache. templates is the structure template
// catalog (internal/config), consulted to find out what shape a structure
// contributes at each footprint cell.
func NewShapeCache(w *World, templates map[TemplateID]*Template) *ShapeCache {
	return &ShapeCache{
		world:     w,
		templates: templates,
		perChunk:  make(map[TransientID]*chunkLayers),
	}
}

// TemplateSize returns a structure template's tile-space footprint extents.
// Exposed for internal/dispatch's hook-bus adapter, which needs a
// structure's footprint to index it into the vision engine but has no
// other reason to depend on the template catalog's full shape.
func (sc *ShapeCache) TemplateSize(id TemplateID) (vec.V3, bool) {
	t, ok := sc.templates[id]
	if !ok {
		return vec.V3{}, false
	}
	return t.Size, true
}

// Source returns a shape.Source over chunk id's merged grid, for the
// collision engine and get_ramp_angle. ok is false if the chunk is not
// resident.
func (sc *ShapeCache) Source(chunkID TransientID) (shape.Source, bool) {
	cl, ok := sc.perChunk[chunkID]
	if !ok {
		return nil, false
	}
	return cl.merged, true
}

// --- Handler: chunk lifecycle -------------------------------------------

func (sc *ShapeCache) HandleTerrainChunkCreate(tx *Tx, id TransientID) {
	cl := newChunkLayers()
	sc.perChunk[id] = cl
	c, ok := tx.World().chunks.Get(id)
	if !ok {
		return
	}
	sc.rebuildAll(cl, c.Raw)
}

func (sc *ShapeCache) HandleTerrainChunkDestroy(_ *Tx, id TransientID) {
	delete(sc.perChunk, id)
}

func (sc *ShapeCache) HandleTerrainChunkUpdate(tx *Tx, id TransientID, region vec.Region) {
	cl, ok := sc.perChunk[id]
	if !ok {
		return
	}
	c, ok := tx.World().chunks.Get(id)
	if !ok {
		return
	}
	sc.rebuildRegion(cl, c.Raw, region)
}

func (sc *ShapeCache) rebuildAll(cl *chunkLayers, raw *shape.Grid) {
	sc.rebuildRegion(cl, raw, vec.NewRegion(vec.V3{}, vec.V3{X: shape.ChunkSize, Y: shape.ChunkSize, Z: shape.ChunkSize}))
}

// rebuildRegion recomputes cl.merged for every cell in region (chunk-local
// tile coordinates) from raw terrain plus the three structure layers, per
// spec.md 4.3's precedence: non-Empty overrides Empty; non-Floor overrides
// Floor; Solid is never overridden.
func (sc *ShapeCache) rebuildRegion(cl *chunkLayers, raw *shape.Grid, region vec.Region) {
	it := region.Points()
	for p, ok := it.Next(); ok; p, ok = it.Next() {
		merged := raw.GetShape(p)
		merged = overlay(merged, cl.layer0.GetShape(p))
		merged = overlay(merged, cl.layer1.GetShape(p))
		merged = overlay(merged, cl.layer2.GetShape(p))
		cl.merged.SetShape(p, merged)
	}
}

// overlay applies spec.md 4.3's fixed precedence of new over existing.
func overlay(existing, new shape.Shape) shape.Shape {
	if existing == shape.Solid {
		return existing
	}
	if new == shape.Empty {
		return existing
	}
	if existing == shape.Empty || new != shape.Floor {
		return new
	}
	return existing
}

// --- Handler: structure lifecycle ---------------------------------------

func (sc *ShapeCache) HandleStructureCreate(tx *Tx, id TransientID) {
	sc.paintStructure(tx, id)
}

func (sc *ShapeCache) HandleStructureDestroy(tx *Tx, id TransientID) {
	sc.eraseStructure(tx, id)
}

func (sc *ShapeCache) HandleStructureReplace(tx *Tx, id TransientID, _ TemplateID) {
	sc.eraseStructure(tx, id)
	sc.paintStructure(tx, id)
}

// eachFootprintCell walks a structure's occupied global tile positions,
// resolving each to its resident chunk and chunk-local position. Cells in
// chunks that are not currently loaded are silently skipped.
func (sc *ShapeCache) eachFootprintCell(tx *Tx, sid TransientID, fn func(cl *chunkLayers, local vec.V3, tmpl *Template, lx, ly, lz int32)) {
	s, ok := tx.World().structures.Get(sid)
	if !ok {
		return
	}
	tmpl, ok := sc.templates[s.Template]
	if !ok {
		return
	}
	plane, ok := tx.World().planes.Get(s.Plane)
	if !ok {
		return
	}
	fp := Footprint(s.Pos, tmpl)
	it := fp.Points()
	for p, ok := it.Next(); ok; p, ok = it.Next() {
		cpos, local := tileToChunk(p)
		chunkID, ok := plane.LoadedChunks[cpos]
		if !ok {
			continue
		}
		cl, ok := sc.perChunk[chunkID]
		if !ok {
			continue
		}
		lx, ly, lz := p.X-s.Pos.X, p.Y-s.Pos.Y, p.Z-s.Pos.Z
		fn(cl, local, tmpl, lx, ly, lz)
	}
}

func (sc *ShapeCache) paintStructure(tx *Tx, sid TransientID) {
	s, ok := tx.World().structures.Get(sid)
	if !ok {
		return
	}
	tmpl, ok := sc.templates[s.Template]
	if !ok {
		return
	}
	grid, owner := layerGrid(tmpl.Layer)
	sc.eachFootprintCell(tx, sid, func(cl *chunkLayers, local vec.V3, t *Template, lx, ly, lz int32) {
		g, o := grid(cl), owner(cl)
		cellShape := t.CellShape(lx, ly, lz)
		g.SetShape(local, cellShape)
		o[shapeIndex(local)] = sid
	})
	sc.rebuildTouchedChunks(tx, sid)
}

func (sc *ShapeCache) eraseStructure(tx *Tx, sid TransientID) {
	s, ok := tx.World().structures.Get(sid)
	if !ok {
		return
	}
	tmpl, ok := sc.templates[s.Template]
	if !ok {
		return
	}
	grid, owner := layerGrid(tmpl.Layer)
	sc.eachFootprintCell(tx, sid, func(cl *chunkLayers, local vec.V3, _ *Template, _, _, _ int32) {
		g, o := grid(cl), owner(cl)
		idx := shapeIndex(local)
		if o[idx] == sid {
			g.SetShape(local, shape.Empty)
			o[idx] = 0
		}
	})
	sc.rebuildTouchedChunks(tx, sid)
}

func (sc *ShapeCache) rebuildTouchedChunks(tx *Tx, sid TransientID) {
	s, ok := tx.World().structures.Get(sid)
	if !ok {
		return
	}
	tmpl, ok := sc.templates[s.Template]
	if !ok {
		return
	}
	plane, ok := tx.World().planes.Get(s.Plane)
	if !ok {
		return
	}
	seen := map[TransientID]bool{}
	fp := Footprint(s.Pos, tmpl)
	it := fp.Points()
	for p, ok := it.Next(); ok; p, ok = it.Next() {
		cpos, _ := tileToChunk(p)
		chunkID, ok := plane.LoadedChunks[cpos]
		if !ok || seen[chunkID] {
			continue
		}
		seen[chunkID] = true
		cl, ok := sc.perChunk[chunkID]
		if !ok {
			continue
		}
		c, ok := tx.World().chunks.Get(chunkID)
		if !ok {
			continue
		}
		sc.rebuildAll(cl, c.Raw)
	}
}

func layerGrid(l Layer) (func(*chunkLayers) *shape.Grid, func(*chunkLayers) *[shape.ChunkSize * shape.ChunkSize * shape.ChunkSize]TransientID) {
	switch l {
	case LayerFloor:
		return func(cl *chunkLayers) *shape.Grid { return cl.layer0 },
			func(cl *chunkLayers) *[shape.ChunkSize * shape.ChunkSize * shape.ChunkSize]TransientID { return &cl.owner0 }
	case LayerAttachment:
		return func(cl *chunkLayers) *shape.Grid { return cl.layer2 },
			func(cl *chunkLayers) *[shape.ChunkSize * shape.ChunkSize * shape.ChunkSize]TransientID { return &cl.owner2 }
	default:
		return func(cl *chunkLayers) *shape.Grid { return cl.layer1 },
			func(cl *chunkLayers) *[shape.ChunkSize * shape.ChunkSize * shape.ChunkSize]TransientID { return &cl.owner1 }
	}
}

func shapeIndex(p vec.V3) int {
	return int((p.Z*shape.ChunkSize+p.Y)*shape.ChunkSize + p.X)
}

// tileToChunk resolves a plane-wide tile position to its chunk coordinate
// and the chunk-local tile position within it, using floored division (see
// vec.V3.DivFloorScalar) so negative coordinates resolve correctly, the same
// convention internal/collision uses for lattice arithmetic.
func tileToChunk(p vec.V3) (cpos vec.V2, local vec.V3) {
	q := p.DivFloorScalar(shape.ChunkSize)
	cpos = vec.V2{X: q.X, Y: q.Y}
	local = vec.V3{X: p.X - q.X*shape.ChunkSize, Y: p.Y - q.Y*shape.ChunkSize, Z: p.Z}
	return cpos, local
}

// --- PlacementChecker -----------------------------------------------------

// CheckStructurePlacement implements spec.md 4.4's per-layer rule, excluding
// no existing structure from the occupancy mask.
func (sc *ShapeCache) CheckStructurePlacement(tx *Tx, plane TransientID, template TemplateID, pos vec.V3) bool {
	return sc.checkPlacement(tx, plane, template, pos, 0)
}

// CheckStructureReplacement is identical except cells owned by sid are
// excluded from the occupancy mask, so a structure can be replaced in place
// by a new template of the same footprint.
func (sc *ShapeCache) CheckStructureReplacement(tx *Tx, sid TransientID, template TemplateID, pos vec.V3) bool {
	s, ok := tx.World().structures.Get(sid)
	if !ok {
		return false
	}
	return sc.checkPlacement(tx, s.Plane, template, pos, sid)
}

func (sc *ShapeCache) checkPlacement(tx *Tx, plane TransientID, templateID TemplateID, pos vec.V3, excluding TransientID) bool {
	tmpl, ok := sc.templates[templateID]
	if !ok {
		return false
	}
	pl, ok := tx.World().planes.Get(plane)
	if !ok {
		return false
	}
	fp := Footprint(pos, tmpl)
	it := fp.Points()
	for p, ok := it.Next(); ok; p, ok = it.Next() {
		lx, ly, lz := p.X-pos.X, p.Y-pos.Y, p.Z-pos.Z
		cell := tmpl.CellShape(lx, ly, lz)
		if cell == shape.Empty {
			continue
		}
		if !sc.cellAllows(tx, pl, p, tmpl.Layer, lz == 0, excluding) {
			return false
		}
	}
	return true
}

// cellAllows answers whether a single occupied template cell may be placed
// at global tile position p, given the template's layer and whether this is
// a bottom-row cell.
func (sc *ShapeCache) cellAllows(tx *Tx, pl *Plane, p vec.V3, layer Layer, bottomRow bool, excluding TransientID) bool {
	terrain, cl, ok := sc.resolve(tx, pl, p)
	if !ok {
		return false
	}
	switch layer {
	case LayerFloor:
		if bottomRow {
			if terrain != shape.Floor && terrain != shape.Empty {
				return false
			}
		} else if terrain != shape.Empty {
			return false
		}
		if owner := cl.owner0[shapeIndex(localOf(p))]; owner != 0 && owner != excluding {
			return false
		}
		return true
	case LayerSolid:
		if bottomRow {
			hasLayer0 := cl.owner0[shapeIndex(localOf(p))] != 0
			if !hasLayer0 && terrain != shape.Floor {
				return false
			}
		} else if terrain != shape.Empty {
			return false
		}
		if owner := cl.owner1[shapeIndex(localOf(p))]; owner != 0 && owner != excluding {
			return false
		}
		if owner := cl.owner2[shapeIndex(localOf(p))]; owner != 0 && owner != excluding {
			return false
		}
		return true
	default: // LayerAttachment
		if owner := cl.owner2[shapeIndex(localOf(p))]; owner != 0 && owner != excluding {
			return false
		}
		if cl.owner1[shapeIndex(localOf(p))] != 0 {
			return true
		}
		if bottomRow {
			hasLayer0 := cl.owner0[shapeIndex(localOf(p))] != 0
			if !hasLayer0 && terrain != shape.Floor {
				return false
			}
		} else if terrain != shape.Empty {
			return false
		}
		return true
	}
}

// resolve looks up the terrain shape and layer state for a global tile
// position on plane pl.
func (sc *ShapeCache) resolve(tx *Tx, pl *Plane, p vec.V3) (shape.Shape, *chunkLayers, bool) {
	cpos, local := tileToChunk(p)
	chunkID, ok := pl.LoadedChunks[cpos]
	if !ok {
		return shape.Empty, nil, false
	}
	cl, ok := sc.perChunk[chunkID]
	if !ok {
		return shape.Empty, nil, false
	}
	c, ok := tx.World().chunks.Get(chunkID)
	if !ok {
		return shape.Empty, nil, false
	}
	return c.Raw.GetShape(local), cl, true
}

func localOf(p vec.V3) vec.V3 {
	_, local := tileToChunk(p)
	return local
}
