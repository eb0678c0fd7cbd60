package vision

import (
	"testing"

	"github.com/outpost-sim/server/internal/vec"
)

func TestEntityAppearsWhenViewerWatchesItsChunk(t *testing.T) {
	v := New()
	h := &recordingHooks{}

	v.AddClient(1, 10, square(vec.V2{}, 5), h)
	v.AddEntity(100, 10, []vec.V2{{X: 2, Y: 2}}, h)

	if len(h.appeared) != 1 || h.appeared[0] != 100 {
		t.Fatalf("appeared = %v, want [100]", h.appeared)
	}
}

func TestEntityDoesNotAppearOutsideView(t *testing.T) {
	v := New()
	h := &recordingHooks{}

	v.AddClient(1, 10, square(vec.V2{}, 5), h)
	v.AddEntity(100, 10, []vec.V2{{X: 50, Y: 50}}, h)

	if len(h.appeared) != 0 {
		t.Fatalf("appeared = %v, want none", h.appeared)
	}
}

func TestEntityDisappearsWhenItLeavesEveryVisibleCell(t *testing.T) {
	v := New()
	h := &recordingHooks{}

	v.AddClient(1, 10, square(vec.V2{}, 5), h)
	v.AddEntity(100, 10, []vec.V2{{X: 2, Y: 2}}, h)
	v.SetEntityArea(100, 10, []vec.V2{{X: 50, Y: 50}}, h)

	if len(h.disappeared) != 1 || h.disappeared[0] != 100 {
		t.Fatalf("disappeared = %v, want [100]", h.disappeared)
	}
}

func TestEntityStaysVisibleWhileOverlappingOldAndNewArea(t *testing.T) {
	v := New()
	h := &recordingHooks{}

	v.AddClient(1, 10, square(vec.V2{}, 5), h)
	v.AddEntity(100, 10, []vec.V2{{X: 2, Y: 2}, {X: 3, Y: 3}}, h)
	h.appeared, h.disappeared = nil, nil

	// Entity shrinks its footprint to just one of the two cells it already
	// occupied: no appear/disappear should fire, since refcount stays
	// positive throughout.
	v.SetEntityArea(100, 10, []vec.V2{{X: 3, Y: 3}}, h)

	if len(h.appeared) != 0 || len(h.disappeared) != 0 {
		t.Fatalf("appeared=%v disappeared=%v, want none", h.appeared, h.disappeared)
	}
}

func TestEntityMotionUpdateFiresForCurrentViewers(t *testing.T) {
	v := New()
	h := &recordingHooks{}

	v.AddClient(1, 10, square(vec.V2{}, 5), h)
	v.AddEntity(100, 10, []vec.V2{{X: 2, Y: 2}}, h)
	h.motionUpdates = nil

	v.SetEntityArea(100, 10, []vec.V2{{X: 2, Y: 2}}, h)

	if len(h.motionUpdates) != 1 || h.motionUpdates[0] != 100 {
		t.Fatalf("motionUpdates = %v, want [100]", h.motionUpdates)
	}
}

// Matches the example from spec.md's edge cases: a client whose view is
// [(0,0),(5,6)) loses sight of an entity that moves from chunk (4,3) (just
// inside) to chunk (5,3) (just outside) — exactly one disappear, no appear.
func TestEntityCrossingViewBoundaryFiresExactlyOneDisappear(t *testing.T) {
	v := New()
	h := &recordingHooks{}

	view := vec.NewRegion2(vec.V2{}, vec.V2{X: 5, Y: 6})
	v.AddClient(1, 10, view, h)
	v.AddEntity(100, 10, []vec.V2{{X: 4, Y: 3}}, h)
	h.appeared, h.disappeared = nil, nil

	v.SetEntityArea(100, 10, []vec.V2{{X: 5, Y: 3}}, h)

	if len(h.disappeared) != 1 || h.disappeared[0] != 100 {
		t.Fatalf("disappeared = %v, want [100]", h.disappeared)
	}
	if len(h.appeared) != 0 {
		t.Fatalf("appeared = %v, want none", h.appeared)
	}
}

func TestRemoveClientFiresDisappearForEverythingVisible(t *testing.T) {
	v := New()
	h := &recordingHooks{}

	v.AddClient(1, 10, square(vec.V2{}, 5), h)
	v.AddEntity(100, 10, []vec.V2{{X: 1, Y: 1}}, h)
	h.disappeared = nil

	v.RemoveClient(1, h)

	if len(h.disappeared) != 1 || h.disappeared[0] != 100 {
		t.Fatalf("disappeared = %v, want [100]", h.disappeared)
	}
}

func TestSetClientViewPlaneChangeFiresDisappearThenAppear(t *testing.T) {
	v := New()
	h := &recordingHooks{}

	v.AddClient(1, 10, square(vec.V2{}, 5), h)
	v.AddEntity(100, 10, []vec.V2{{X: 1, Y: 1}}, h)
	v.AddEntity(200, 20, []vec.V2{{X: 1, Y: 1}}, h)
	h.appeared, h.disappeared, h.planeChanges = nil, nil, 0

	v.SetClientView(1, 20, square(vec.V2{}, 5), h)

	if h.planeChanges != 1 {
		t.Fatalf("planeChanges = %d, want 1", h.planeChanges)
	}
	if len(h.disappeared) != 1 || h.disappeared[0] != 100 {
		t.Fatalf("disappeared = %v, want [100]", h.disappeared)
	}
	if len(h.appeared) != 1 || h.appeared[0] != 200 {
		t.Fatalf("appeared = %v, want [200]", h.appeared)
	}
}
