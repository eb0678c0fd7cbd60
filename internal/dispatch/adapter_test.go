package dispatch

import (
	"testing"

	"github.com/outpost-sim/server/internal/vec"
	"github.com/outpost-sim/server/internal/vision"
	"github.com/outpost-sim/server/internal/world"
)

type fakeTemplateSizer struct {
	size vec.V3
}

func (f fakeTemplateSizer) TemplateSize(world.TemplateID) (vec.V3, bool) {
	return f.size, true
}

type recordingHooks struct {
	vision.NopHooks
	entityAppeared    []int32
	entityDisappeared []int32
	structAppeared    []int32
	viewsSet          []vec.Region2
}

func (h *recordingHooks) EntityAppear(_, eid int32) {
	h.entityAppeared = append(h.entityAppeared, eid)
}

func (h *recordingHooks) EntityDisappear(_, eid int32) {
	h.entityDisappeared = append(h.entityDisappeared, eid)
}

func (h *recordingHooks) StructureAppear(_, sid int32) {
	h.structAppeared = append(h.structAppeared, sid)
}

func setupDispatchWorld(t *testing.T) (*world.World, *vision.Vision, *recordingHooks, *VisionAdapter) {
	t.Helper()
	w := world.NewWorld(1)
	vis := vision.New()
	hooks := &recordingHooks{}
	adapter := NewVisionAdapter(vis, hooks, fakeTemplateSizer{size: vec.V3{X: 1, Y: 1, Z: 1}})
	w.Handle(adapter)
	return w, vis, hooks, adapter
}

func TestEntityCreateDrivesVisionAppearForInRangeViewer(t *testing.T) {
	w, vis, hooks, _ := setupDispatchWorld(t)

	var planeID, clientID, entityID world.TransientID
	w.RunNow(func(tx *world.Tx) {
		planeID = tx.CreatePlane("overworld")
		clientID, _ = tx.CreateClient(1, "alice")
	})

	// Register the client as a viewer centered on the chunk the entity
	// will occupy, mirroring what HandleClientChangePawn would do once the
	// client has a pawn — here we drive it directly since this test is
	// only exercising the entity side of the adapter.
	vis.SetClientView(int32(clientID), int32(planeID), vision.RegionFor(vec.V3{}, chunkSubpixels), hooks)

	w.RunNow(func(tx *world.Tx) {
		var err error
		entityID, err = tx.CreateEntity(planeID, vec.V3{}, world.WorldAttachment())
		if err != nil {
			t.Fatalf("CreateEntity: %v", err)
		}
	})

	if len(hooks.entityAppeared) != 1 || hooks.entityAppeared[0] != int32(entityID) {
		t.Fatalf("entityAppeared = %v, want [%d]", hooks.entityAppeared, entityID)
	}

	w.RunNow(func(tx *world.Tx) {
		if err := tx.DestroyEntity(entityID); err != nil {
			t.Fatalf("DestroyEntity: %v", err)
		}
	})
	if len(hooks.entityDisappeared) != 1 || hooks.entityDisappeared[0] != int32(entityID) {
		t.Fatalf("entityDisappeared = %v, want [%d]", hooks.entityDisappeared, entityID)
	}
}

func TestClientChangePawnFollowsPawnOnMotion(t *testing.T) {
	w, vis, hooks, _ := setupDispatchWorld(t)

	var planeID, clientID, entityID, farEntityID world.TransientID
	w.RunNow(func(tx *world.Tx) {
		planeID = tx.CreatePlane("overworld")
		clientID, _ = tx.CreateClient(1, "alice")
		var err error
		entityID, err = tx.CreateEntity(planeID, vec.V3{}, world.ClientAttachment(clientID))
		if err != nil {
			t.Fatalf("CreateEntity: %v", err)
		}
		if err := tx.SetPawn(clientID, entityID); err != nil {
			t.Fatalf("SetPawn: %v", err)
		}
	})

	// The pawn itself should be visible to its own viewer now that
	// HandleClientChangePawn set the client's view to follow it.
	if len(hooks.entityAppeared) != 1 || hooks.entityAppeared[0] != int32(entityID) {
		t.Fatalf("entityAppeared after SetPawn = %v, want [%d]", hooks.entityAppeared, entityID)
	}

	// Moving the pawn far away should carry the viewer's view region with
	// it: an entity placed at the old position should no longer be
	// visible once the pawn leaves its view.
	far := vec.V3{X: 0, Y: int32(vision.ViewSize.Y+4) * chunkSubpixels, Z: 0}
	w.RunNow(func(tx *world.Tx) {
		var err error
		farEntityID, err = tx.CreateEntity(planeID, vec.V3{}, world.WorldAttachment())
		if err != nil {
			t.Fatalf("CreateEntity: %v", err)
		}
		_ = farEntityID
		if err := tx.SetEntityMotion(entityID, world.Motion{StartPos: vec.V3{}, EndPos: far}); err != nil {
			t.Fatalf("SetEntityMotion: %v", err)
		}
	})

	disappeared := map[int32]bool{}
	for _, id := range hooks.entityDisappeared {
		disappeared[id] = true
	}
	if !disappeared[int32(farEntityID)] {
		t.Fatalf("expected the entity left behind at the old position (%d) to disappear once the view followed the pawn away, disappeared=%v", farEntityID, hooks.entityDisappeared)
	}
	if disappeared[int32(entityID)] {
		t.Fatalf("pawn %d should stay visible since the view followed it, but it disappeared", entityID)
	}

	_ = vis
}

func TestStructureCreateUsesTemplateFootprint(t *testing.T) {
	w, vis, hooks, _ := setupDispatchWorld(t)

	var planeID, clientID, chunkID, structID world.TransientID
	w.RunNow(func(tx *world.Tx) {
		planeID = tx.CreatePlane("overworld")
		clientID, _ = tx.CreateClient(1, "alice")
		var err error
		chunkID, err = tx.CreateTerrainChunk(planeID, vec.V2{})
		if err != nil {
			t.Fatalf("CreateTerrainChunk: %v", err)
		}
	})

	vis.SetClientView(int32(clientID), int32(planeID), vision.RegionFor(vec.V3{}, chunkSubpixels), hooks)

	w.RunNow(func(tx *world.Tx) {
		var err error
		structID, err = tx.CreateStructure(planeID, vec.V3{X: 1, Y: 1, Z: 0}, 1, world.ChunkAttachment(chunkID))
		if err != nil {
			t.Fatalf("CreateStructure: %v", err)
		}
	})

	if len(hooks.structAppeared) != 1 || hooks.structAppeared[0] != int32(structID) {
		t.Fatalf("structAppeared = %v, want [%d]", hooks.structAppeared, structID)
	}
}
