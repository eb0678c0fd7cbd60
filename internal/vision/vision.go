// Package vision implements spec.md 4.7's area-of-interest engine: for each
// connected client (a "viewer") it tracks which entities, terrain chunks,
// structures, and subscribed inventories are currently visible, and fires
// exactly one appear/disappear event per object per viewer as view regions
// and object footprints change — never a flood of redundant events when an
// object moves within an already-visible area or leaves through one cell
// while staying visible through another.
//
// It is deliberately decoupled from internal/world: ids here are bare
// int32s (the caller passes world.TransientID values, which share that
// underlying type) so this package has no import cycle risk and can be
// unit tested without constructing a *world.World. internal/dispatch wires
// the two together by adapting world.Handler calls into the methods below.
package vision

import "github.com/outpost-sim/server/internal/vec"

// Limbo mirrors world.Limbo: the reserved plane id meaning "nowhere",
// which always appears empty regardless of what is nominally registered
// at its coordinates.
const Limbo int32 = 0

// ViewSize and ViewAnchor define a client's rectangular view in chunk
// coordinates: ViewSize chunks wide, centered ViewAnchor chunks from the
// viewer's own chunk (original_source/server/vision.rs VIEW_SIZE/VIEW_ANCHOR).
var (
	ViewSize   = vec.V2{X: 5, Y: 6}
	ViewAnchor = vec.V2{X: 2, Y: 2}
)

// RegionFor returns the chunk-coordinate view region centered (per
// ViewAnchor) on the chunk containing subpixel position pos, using
// chunkSubpixels = ChunkSize*TileSize as the conversion factor. Callers
// pass internal/shape's constants for chunkSubpixels.
func RegionFor(pos vec.V3, chunkSubpixels int32) vec.Region2 {
	center := pos.Reduce().DivFloorScalar(chunkSubpixels)
	base := center.Sub(ViewAnchor)
	return vec.NewRegion2(base, base.Add(ViewSize))
}

// Hooks is the protocol-facing callback set vision invokes as visibility
// changes. Every method name matches spec.md 4.6's hook bus vocabulary
// (on_entity_appear, etc.) with the on_ prefix dropped, Go-style.
type Hooks interface {
	EntityAppear(cid, eid int32)
	EntityDisappear(cid, eid int32)
	EntityMotionUpdate(cid, eid int32)
	EntityAppearanceUpdate(cid, eid int32)

	PlaneChange(cid, oldPlane, newPlane int32)

	TerrainChunkAppear(cid, tcid int32, cpos vec.V2)
	TerrainChunkDisappear(cid, tcid int32, cpos vec.V2)
	TerrainChunkUpdate(cid, tcid int32, cpos vec.V2)

	StructureAppear(cid, sid int32)
	StructureDisappear(cid, sid int32)

	InventoryAppear(cid, iid int32)
	InventoryDisappear(cid, iid int32)
	InventoryUpdate(cid, iid, itemID, oldCount, newCount int32)
}

// NopHooks implements Hooks with every method a no-op; embed it in a
// partial listener.
type NopHooks struct{}

func (NopHooks) EntityAppear(int32, int32)                   {}
func (NopHooks) EntityDisappear(int32, int32)                 {}
func (NopHooks) EntityMotionUpdate(int32, int32)              {}
func (NopHooks) EntityAppearanceUpdate(int32, int32)          {}
func (NopHooks) PlaneChange(int32, int32, int32)              {}
func (NopHooks) TerrainChunkAppear(int32, int32, vec.V2)      {}
func (NopHooks) TerrainChunkDisappear(int32, int32, vec.V2)   {}
func (NopHooks) TerrainChunkUpdate(int32, int32, vec.V2)      {}
func (NopHooks) StructureAppear(int32, int32)                 {}
func (NopHooks) StructureDisappear(int32, int32)              {}
func (NopHooks) InventoryAppear(int32, int32)                 {}
func (NopHooks) InventoryDisappear(int32, int32)              {}
func (NopHooks) InventoryUpdate(int32, int32, int32, int32, int32) {}

type posKey struct {
	plane int32
	chunk vec.V2
}

type viewer struct {
	plane int32
	view  vec.Region2

	visibleEntities      refcountSet[int32]
	visibleTerrainChunks refcountSet[int32]
	visibleStructures    refcountSet[int32]
	visibleInventories   refcountSet[int32]
}

func newViewer() *viewer {
	return &viewer{
		plane:                 Limbo,
		visibleEntities:       newRefcountSet[int32](),
		visibleTerrainChunks:  newRefcountSet[int32](),
		visibleStructures:     newRefcountSet[int32](),
		visibleInventories:    newRefcountSet[int32](),
	}
}

type entityState struct {
	plane   int32
	area    map[vec.V2]struct{}
	viewers map[int32]struct{}
}

type chunkState struct {
	plane   int32
	cpos    vec.V2
	viewers map[int32]struct{}
}

type structureState struct {
	plane   int32
	area    map[vec.V2]struct{}
	viewers map[int32]struct{}
}

// Vision is the AOI engine's mutable state, owned by the main simulation
// goroutine alongside the world it tracks.
type Vision struct {
	viewers      map[int32]*viewer
	viewersByPos map[posKey]map[int32]struct{}

	entities      map[int32]*entityState
	terrainChunks map[int32]*chunkState
	structures    map[int32]*structureState

	entitiesByPos      map[posKey]map[int32]struct{}
	terrainChunksByPos map[posKey]map[int32]struct{}
	structuresByPos    map[posKey]map[int32]struct{}

	inventoryViewers map[int32]map[int32]struct{}
}

// New creates an empty Vision with no viewers or tracked objects.
func New() *Vision {
	return &Vision{
		viewers:            make(map[int32]*viewer),
		viewersByPos:       make(map[posKey]map[int32]struct{}),
		entities:           make(map[int32]*entityState),
		terrainChunks:      make(map[int32]*chunkState),
		structures:         make(map[int32]*structureState),
		entitiesByPos:      make(map[posKey]map[int32]struct{}),
		terrainChunksByPos: make(map[posKey]map[int32]struct{}),
		structuresByPos:    make(map[posKey]map[int32]struct{}),
		inventoryViewers:   make(map[int32]map[int32]struct{}),
	}
}

func addTo(m map[posKey]map[int32]struct{}, k posKey, id int32) {
	s, ok := m[k]
	if !ok {
		s = make(map[int32]struct{})
		m[k] = s
	}
	s[id] = struct{}{}
}

func removeFrom(m map[posKey]map[int32]struct{}, k posKey, id int32) {
	s, ok := m[k]
	if !ok {
		return
	}
	delete(s, id)
	if len(s) == 0 {
		delete(m, k)
	}
}

func regionPoints(r vec.Region2) []vec.V2 {
	var pts []vec.V2
	it := r.Points()
	for p, ok := it.Next(); ok; p, ok = it.Next() {
		pts = append(pts, p)
	}
	return pts
}

func areaSet(area []vec.V2) map[vec.V2]struct{} {
	s := make(map[vec.V2]struct{}, len(area))
	for _, p := range area {
		s[p] = struct{}{}
	}
	return s
}

// --- Viewers (clients) ----------------------------------------------------

// AddClient registers cid as a new viewer and moves it from Limbo to plane
// and view through SetClientView, so everything already visible there
// appears (and PlaneChange fires when plane is not Limbo).
func (v *Vision) AddClient(cid int32, plane int32, view vec.Region2, h Hooks) {
	v.viewers[cid] = newViewer()
	v.SetClientView(cid, plane, view, h)
}

// RemoveClient tears down cid's view (firing disappear for everything it
// could see) and forgets it.
func (v *Vision) RemoveClient(cid int32, h Hooks) {
	v.SetClientView(cid, Limbo, vec.Region2{}, h)
	delete(v.viewers, cid)
}

// SetClientView moves viewer cid to a new plane/view region, firing
// disappear events for everything that leaves visibility before firing
// appear events for everything that enters — in that order, so a viewer
// never observes two objects more than the view size apart as visible at
// the same instant (original_source/server/vision.rs's ordering comment).
func (v *Vision) SetClientView(cid int32, newPlane int32, newView vec.Region2, h Hooks) {
	vw, ok := v.viewers[cid]
	if !ok {
		return
	}
	oldPlane, oldView := vw.plane, vw.view
	vw.plane, vw.view = newPlane, newView
	planeChange := oldPlane != newPlane

	for _, p := range regionPoints(oldView) {
		if newView.Contains(p) && !planeChange {
			continue
		}
		pos := posKey{oldPlane, p}
		for eid := range v.entitiesByPos[pos] {
			if vw.visibleEntities.release(eid) {
				h.EntityDisappear(cid, eid)
				delete(v.entities[eid].viewers, cid)
			}
		}
		for tcid := range v.terrainChunksByPos[pos] {
			if vw.visibleTerrainChunks.release(tcid) {
				cpos := v.terrainChunks[tcid].cpos
				h.TerrainChunkDisappear(cid, tcid, cpos)
				delete(v.terrainChunks[tcid].viewers, cid)
			}
		}
		for sid := range v.structuresByPos[pos] {
			if vw.visibleStructures.release(sid) {
				h.StructureDisappear(cid, sid)
				delete(v.structures[sid].viewers, cid)
			}
		}
		removeFrom(v.viewersByPos, pos, cid)
	}

	if planeChange {
		h.PlaneChange(cid, oldPlane, newPlane)
	}

	for _, p := range regionPoints(newView) {
		if oldView.Contains(p) && !planeChange {
			continue
		}
		pos := posKey{newPlane, p}
		for eid := range v.entitiesByPos[pos] {
			if vw.visibleEntities.retain(eid) {
				h.EntityAppear(cid, eid)
				v.entities[eid].viewers[cid] = struct{}{}
			}
		}
		for tcid := range v.terrainChunksByPos[pos] {
			if vw.visibleTerrainChunks.retain(tcid) {
				cpos := v.terrainChunks[tcid].cpos
				h.TerrainChunkAppear(cid, tcid, cpos)
				v.terrainChunks[tcid].viewers[cid] = struct{}{}
			}
		}
		for sid := range v.structuresByPos[pos] {
			if vw.visibleStructures.retain(sid) {
				h.StructureAppear(cid, sid)
				v.structures[sid].viewers[cid] = struct{}{}
			}
		}
		if newPlane != Limbo {
			addTo(v.viewersByPos, pos, cid)
		}
	}
}

// ClientViewPlane returns the plane a viewer is currently watching.
func (v *Vision) ClientViewPlane(cid int32) (int32, bool) {
	vw, ok := v.viewers[cid]
	if !ok {
		return 0, false
	}
	return vw.plane, true
}

// ClientViewArea returns the chunk-coordinate region a viewer currently
// watches.
func (v *Vision) ClientViewArea(cid int32) (vec.Region2, bool) {
	vw, ok := v.viewers[cid]
	if !ok {
		return vec.Region2{}, false
	}
	return vw.view, true
}

// --- Entities --------------------------------------------------------------

// AddEntity registers eid and places it on plane at the given footprint
// cells through SetEntityArea, so every viewer watching those cells sees it
// appear.
func (v *Vision) AddEntity(eid int32, plane int32, area []vec.V2, h Hooks) {
	v.entities[eid] = &entityState{plane: Limbo, area: map[vec.V2]struct{}{}, viewers: make(map[int32]struct{})}
	v.SetEntityArea(eid, plane, area, h)
}

// RemoveEntity clears eid's footprint (firing disappear for every viewer
// that could see it) and forgets it.
func (v *Vision) RemoveEntity(eid int32, h Hooks) {
	v.SetEntityArea(eid, Limbo, nil, h)
	delete(v.entities, eid)
}

// SetEntityArea moves eid to occupy new chunk-coordinate footprint cells on
// newPlane. Unlike SetClientView's ordering, entity appear/disappear for a
// single viewer can interleave safely: a viewer watching both the old and
// new footprint never sees eid flicker, since the refcount stays positive
// throughout (see the original's comment on why this is safe).
func (v *Vision) SetEntityArea(eid int32, newPlane int32, area []vec.V2, h Hooks) {
	e, ok := v.entities[eid]
	if !ok {
		return
	}
	oldPlane, oldArea := e.plane, e.area
	newArea := areaSet(area)
	planeChange := newPlane != oldPlane
	e.plane = newPlane

	for p := range newArea {
		if _, stillThere := oldArea[p]; stillThere && !planeChange {
			continue
		}
		pos := posKey{newPlane, p}
		for cid := range v.viewersByPos[pos] {
			vw := v.viewers[cid]
			if vw.visibleEntities.retain(eid) {
				h.EntityAppear(cid, eid)
				e.viewers[cid] = struct{}{}
			}
		}
		if newPlane != Limbo {
			addTo(v.entitiesByPos, pos, eid)
		}
	}

	for p := range oldArea {
		if _, stillThere := newArea[p]; stillThere && !planeChange {
			continue
		}
		pos := posKey{oldPlane, p}
		for cid := range v.viewersByPos[pos] {
			vw := v.viewers[cid]
			if vw.visibleEntities.release(eid) {
				h.EntityDisappear(cid, eid)
				delete(e.viewers, cid)
			}
		}
		removeFrom(v.entitiesByPos, pos, eid)
	}

	for cid := range e.viewers {
		h.EntityMotionUpdate(cid, eid)
	}
	e.area = newArea
}

// UpdateEntityAppearance notifies every current viewer of eid that its
// appearance changed.
func (v *Vision) UpdateEntityAppearance(eid int32, h Hooks) {
	e, ok := v.entities[eid]
	if !ok {
		return
	}
	for cid := range e.viewers {
		h.EntityAppearanceUpdate(cid, eid)
	}
}

// --- Terrain chunks ----------------------------------------------------

// AddTerrainChunk registers a stationary chunk at (plane, cpos). Chunks
// never move, so unlike entities this is a one-shot "appear" pass with no
// prior area to reconcile against.
func (v *Vision) AddTerrainChunk(tcid int32, plane int32, cpos vec.V2, h Hooks) {
	tc := &chunkState{plane: plane, cpos: cpos, viewers: make(map[int32]struct{})}
	v.terrainChunks[tcid] = tc

	pos := posKey{plane, cpos}
	for cid := range v.viewersByPos[pos] {
		vw := v.viewers[cid]
		if vw.visibleTerrainChunks.retain(tcid) {
			h.TerrainChunkAppear(cid, tcid, cpos)
			tc.viewers[cid] = struct{}{}
		}
	}
	if plane != Limbo {
		addTo(v.terrainChunksByPos, pos, tcid)
	}
}

// RemoveTerrainChunk unregisters a chunk, firing disappear for every viewer
// that could see it.
func (v *Vision) RemoveTerrainChunk(tcid int32, h Hooks) {
	tc, ok := v.terrainChunks[tcid]
	if !ok {
		return
	}
	delete(v.terrainChunks, tcid)

	pos := posKey{tc.plane, tc.cpos}
	for cid := range v.viewersByPos[pos] {
		vw := v.viewers[cid]
		if vw.visibleTerrainChunks.release(tcid) {
			h.TerrainChunkDisappear(cid, tcid, tc.cpos)
		}
	}
	removeFrom(v.terrainChunksByPos, pos, tcid)
}

// UpdateTerrainChunk notifies every current viewer that tcid's contents
// changed.
func (v *Vision) UpdateTerrainChunk(tcid int32, h Hooks) {
	tc, ok := v.terrainChunks[tcid]
	if !ok {
		return
	}
	for cid := range tc.viewers {
		h.TerrainChunkUpdate(cid, tcid, tc.cpos)
	}
}

// --- Structures ----------------------------------------------------------

// AddStructure registers a stationary structure occupying the given
// chunk-coordinate footprint cells on plane.
func (v *Vision) AddStructure(sid int32, plane int32, area []vec.V2, h Hooks) {
	s := &structureState{plane: plane, area: areaSet(area), viewers: make(map[int32]struct{})}
	v.structures[sid] = s

	for p := range s.area {
		pos := posKey{plane, p}
		for cid := range v.viewersByPos[pos] {
			vw := v.viewers[cid]
			if vw.visibleStructures.retain(sid) {
				h.StructureAppear(cid, sid)
				s.viewers[cid] = struct{}{}
			}
		}
		if plane != Limbo {
			addTo(v.structuresByPos, pos, sid)
		}
	}
}

// RemoveStructure unregisters a structure, firing disappear for every
// viewer that could see it.
func (v *Vision) RemoveStructure(sid int32, h Hooks) {
	s, ok := v.structures[sid]
	if !ok {
		return
	}
	delete(v.structures, sid)

	for p := range s.area {
		pos := posKey{s.plane, p}
		for cid := range v.viewersByPos[pos] {
			vw := v.viewers[cid]
			if vw.visibleStructures.release(sid) {
				h.StructureDisappear(cid, sid)
			}
		}
		removeFrom(v.structuresByPos, pos, sid)
	}
}

// --- Inventories -----------------------------------------------------------

// SubscribeInventory makes cid a viewer of iid (e.g. opening a container),
// firing InventoryAppear exactly once even if subscribed multiple times
// concurrently for different reasons.
func (v *Vision) SubscribeInventory(cid, iid int32, h Hooks) {
	vw, ok := v.viewers[cid]
	if !ok {
		return
	}
	if vw.visibleInventories.retain(iid) {
		s, ok := v.inventoryViewers[iid]
		if !ok {
			s = make(map[int32]struct{})
			v.inventoryViewers[iid] = s
		}
		s[cid] = struct{}{}
		h.InventoryAppear(cid, iid)
	}
}

// UnsubscribeInventory reverses SubscribeInventory.
func (v *Vision) UnsubscribeInventory(cid, iid int32, h Hooks) {
	vw, ok := v.viewers[cid]
	if !ok {
		return
	}
	if vw.visibleInventories.release(iid) {
		if s, ok := v.inventoryViewers[iid]; ok {
			delete(s, cid)
			if len(s) == 0 {
				delete(v.inventoryViewers, iid)
			}
		}
		h.InventoryDisappear(cid, iid)
	}
}

// UpdateInventory notifies every subscribed viewer that a slot in iid
// changed.
func (v *Vision) UpdateInventory(iid, itemID, oldCount, newCount int32, h Hooks) {
	for cid := range v.inventoryViewers[iid] {
		h.InventoryUpdate(cid, iid, itemID, oldCount, newCount)
	}
}
