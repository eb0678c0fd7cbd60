package vision

import (
	"testing"

	"github.com/outpost-sim/server/internal/vec"
)

type fullRecordingHooks struct {
	NopHooks
	structAppeared, structDisappeared []int32
	chunkAppeared, chunkDisappeared   []int32
	chunkUpdated                     []int32
	invAppeared, invDisappeared       []int32
	invUpdated                       []int32
}

func (h *fullRecordingHooks) StructureAppear(_, sid int32)    { h.structAppeared = append(h.structAppeared, sid) }
func (h *fullRecordingHooks) StructureDisappear(_, sid int32) { h.structDisappeared = append(h.structDisappeared, sid) }
func (h *fullRecordingHooks) TerrainChunkAppear(_, tcid int32, _ vec.V2) {
	h.chunkAppeared = append(h.chunkAppeared, tcid)
}
func (h *fullRecordingHooks) TerrainChunkDisappear(_, tcid int32, _ vec.V2) {
	h.chunkDisappeared = append(h.chunkDisappeared, tcid)
}
func (h *fullRecordingHooks) TerrainChunkUpdate(_, tcid int32, _ vec.V2) {
	h.chunkUpdated = append(h.chunkUpdated, tcid)
}
func (h *fullRecordingHooks) InventoryAppear(_, iid int32)    { h.invAppeared = append(h.invAppeared, iid) }
func (h *fullRecordingHooks) InventoryDisappear(_, iid int32) { h.invDisappeared = append(h.invDisappeared, iid) }
func (h *fullRecordingHooks) InventoryUpdate(_, iid, _, _, _ int32) {
	h.invUpdated = append(h.invUpdated, iid)
}

func TestStructureAppearsForViewerInRange(t *testing.T) {
	v := New()
	h := &fullRecordingHooks{}

	v.AddClient(1, 10, square(vec.V2{}, 5), h)
	v.AddStructure(500, 10, []vec.V2{{X: 2, Y: 2}}, h)

	if len(h.structAppeared) != 1 || h.structAppeared[0] != 500 {
		t.Fatalf("structAppeared = %v, want [500]", h.structAppeared)
	}

	v.RemoveStructure(500, h)
	if len(h.structDisappeared) != 1 || h.structDisappeared[0] != 500 {
		t.Fatalf("structDisappeared = %v, want [500]", h.structDisappeared)
	}
}

func TestTerrainChunkAppearDisappearUpdate(t *testing.T) {
	v := New()
	h := &fullRecordingHooks{}

	v.AddClient(1, 10, square(vec.V2{}, 5), h)
	v.AddTerrainChunk(900, 10, vec.V2{X: 1, Y: 1}, h)
	if len(h.chunkAppeared) != 1 || h.chunkAppeared[0] != 900 {
		t.Fatalf("chunkAppeared = %v, want [900]", h.chunkAppeared)
	}

	v.UpdateTerrainChunk(900, h)
	if len(h.chunkUpdated) != 1 || h.chunkUpdated[0] != 900 {
		t.Fatalf("chunkUpdated = %v, want [900]", h.chunkUpdated)
	}

	v.RemoveTerrainChunk(900, h)
	if len(h.chunkDisappeared) != 1 || h.chunkDisappeared[0] != 900 {
		t.Fatalf("chunkDisappeared = %v, want [900]", h.chunkDisappeared)
	}
}

func TestInventorySubscribeIsRefcounted(t *testing.T) {
	v := New()
	h := &fullRecordingHooks{}

	v.AddClient(1, 10, square(vec.V2{}, 5), h)
	v.SubscribeInventory(1, 42, h)
	v.SubscribeInventory(1, 42, h)
	if len(h.invAppeared) != 1 {
		t.Fatalf("invAppeared fired %d times, want 1 (refcounted)", len(h.invAppeared))
	}

	v.UpdateInventory(42, 7, 1, 2, h)
	if len(h.invUpdated) != 1 || h.invUpdated[0] != 42 {
		t.Fatalf("invUpdated = %v, want [42]", h.invUpdated)
	}

	v.UnsubscribeInventory(1, 42, h)
	if len(h.invDisappeared) != 0 {
		t.Fatalf("invDisappeared fired after one of two unsubscribes, want 0")
	}
	v.UnsubscribeInventory(1, 42, h)
	if len(h.invDisappeared) != 1 || h.invDisappeared[0] != 42 {
		t.Fatalf("invDisappeared = %v, want [42]", h.invDisappeared)
	}
}
