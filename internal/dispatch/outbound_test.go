package dispatch

import (
	"testing"

	"github.com/outpost-sim/server/internal/vec"
	"github.com/outpost-sim/server/internal/world"
)

type recordingSender struct {
	sent []struct {
		to   ClientID
		resp Response
	}
}

func (s *recordingSender) Send(to ClientID, resp Response) {
	s.sent = append(s.sent, struct {
		to   ClientID
		resp Response
	}{to, resp})
}

func TestOutboundHooksDeliversEntityAppearWithCurrentState(t *testing.T) {
	w := world.NewWorld(1)
	var planeID, entityID world.TransientID
	w.RunNow(func(tx *world.Tx) {
		planeID = tx.CreatePlane("overworld")
		var err error
		entityID, err = tx.CreateEntity(planeID, vec.V3{X: 10, Y: 20, Z: 0}, world.WorldAttachment())
		if err != nil {
			t.Fatalf("CreateEntity: %v", err)
		}
	})

	sender := &recordingSender{}
	hooks := NewOutboundHooks(w, sender)

	hooks.EntityAppear(1, int32(entityID))

	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d messages, want 1", len(sender.sent))
	}
	resp, ok := sender.sent[0].resp.(EntityAppear)
	if !ok {
		t.Fatalf("sent[0].resp = %T, want EntityAppear", sender.sent[0].resp)
	}
	if resp.ID != entityID || resp.Pos.EndPos != (vec.V3{X: 10, Y: 20, Z: 0}) {
		t.Fatalf("EntityAppear = %+v, want ID=%d Pos.EndPos={10 20 0}", resp, entityID)
	}
}

func TestLocalChunkIndexReusesReleasedSlots(t *testing.T) {
	idx := newLocalChunkIndex()
	a := idx.assign(vec.V2{X: 0, Y: 0})
	b := idx.assign(vec.V2{X: 1, Y: 0})
	if a == b {
		t.Fatalf("distinct positions got the same index %d", a)
	}

	released, ok := idx.release(vec.V2{X: 0, Y: 0})
	if !ok || released != a {
		t.Fatalf("release = (%d, %v), want (%d, true)", released, ok, a)
	}

	c := idx.assign(vec.V2{X: 2, Y: 0})
	if c != a {
		t.Fatalf("assign after release = %d, want reused index %d", c, a)
	}
}

func TestTerrainChunkAppearSendsRLEAndTracksLocalIndex(t *testing.T) {
	w := world.NewWorld(1)
	var planeID, chunkID world.TransientID
	w.RunNow(func(tx *world.Tx) {
		planeID = tx.CreatePlane("overworld")
		var err error
		chunkID, err = tx.CreateTerrainChunk(planeID, vec.V2{X: 3, Y: 4})
		if err != nil {
			t.Fatalf("CreateTerrainChunk: %v", err)
		}
	})

	sender := &recordingSender{}
	hooks := NewOutboundHooks(w, sender)

	hooks.TerrainChunkAppear(1, int32(chunkID), vec.V2{X: 3, Y: 4})
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d messages, want 1", len(sender.sent))
	}
	tc, ok := sender.sent[0].resp.(TerrainChunk)
	if !ok {
		t.Fatalf("sent[0].resp = %T, want TerrainChunk", sender.sent[0].resp)
	}
	if len(tc.RLEData) == 0 {
		t.Fatalf("RLEData empty")
	}

	hooks.TerrainChunkDisappear(1, int32(chunkID), vec.V2{X: 3, Y: 4})
	if len(sender.sent) != 2 {
		t.Fatalf("sent = %d messages after disappear, want 2", len(sender.sent))
	}
	unload, ok := sender.sent[1].resp.(UnloadChunk)
	if !ok {
		t.Fatalf("sent[1].resp = %T, want UnloadChunk", sender.sent[1].resp)
	}
	if unload.LocalIdx != tc.LocalIdx {
		t.Fatalf("UnloadChunk.LocalIdx = %d, want %d", unload.LocalIdx, tc.LocalIdx)
	}
}
