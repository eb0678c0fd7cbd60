package world

import (
	"testing"

	"github.com/outpost-sim/server/internal/vec"
)

func TestCreateDestroyClient(t *testing.T) {
	w := NewWorld(1)
	var id TransientID
	var err error
	w.RunNow(func(tx *Tx) {
		id, err = tx.CreateClient(1, "Alice")
	})
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if _, ok := w.clients.Get(id); !ok {
		t.Fatalf("client %d not resident after CreateClient", id)
	}
	w.RunNow(func(tx *Tx) {
		if err := tx.DestroyClient(id); err != nil {
			t.Fatalf("DestroyClient: %v", err)
		}
	})
	if _, ok := w.clients.Get(id); ok {
		t.Fatalf("client %d still resident after DestroyClient", id)
	}
}

func TestCreateClientRejectsInvalidName(t *testing.T) {
	w := NewWorld(1)
	w.RunNow(func(tx *Tx) {
		if _, err := tx.CreateClient(1, ""); err == nil {
			t.Fatalf("CreateClient with empty name: err = nil, want error")
		}
		if _, err := tx.CreateClient(1, "this-name-is-far-too-long"); err == nil {
			t.Fatalf("CreateClient with overlong name: err = nil, want error")
		}
	})
}

func TestCreateEntityAttachedToClientRegistersChild(t *testing.T) {
	w := NewWorld(1)
	var clientID, entityID TransientID
	w.RunNow(func(tx *Tx) {
		clientID, _ = tx.CreateClient(1, "Alice")
		entityID, _ = tx.CreateEntity(0, vec.V3{}, ClientAttachment(clientID))
	})
	c, _ := w.clients.Get(clientID)
	if len(c.ChildEntities) != 1 || c.ChildEntities[0] != entityID {
		t.Fatalf("client.ChildEntities = %v, want [%d]", c.ChildEntities, entityID)
	}
}

func TestDestroyClientCascadesToEntitiesAndInventories(t *testing.T) {
	w := NewWorld(1)
	var clientID, entityID, entInvID, clientInvID TransientID
	w.RunNow(func(tx *Tx) {
		clientID, _ = tx.CreateClient(1, "Alice")
		entityID, _ = tx.CreateEntity(0, vec.V3{}, ClientAttachment(clientID))
		entInvID, _ = tx.CreateInventory(4, EntityAttachment(entityID))
		clientInvID, _ = tx.CreateInventory(4, ClientAttachment(clientID))
	})
	w.RunNow(func(tx *Tx) {
		if err := tx.DestroyClient(clientID); err != nil {
			t.Fatalf("DestroyClient: %v", err)
		}
	})
	if _, ok := w.entities.Get(entityID); ok {
		t.Fatalf("entity %d still resident after client destroyed", entityID)
	}
	if _, ok := w.inventories.Get(entInvID); ok {
		t.Fatalf("entity inventory %d still resident after cascade", entInvID)
	}
	if _, ok := w.inventories.Get(clientInvID); ok {
		t.Fatalf("client inventory %d still resident after cascade", clientInvID)
	}
}

func TestSetPawnRequiresMatchingAttachment(t *testing.T) {
	w := NewWorld(1)
	var clientA, clientB, entityID TransientID
	w.RunNow(func(tx *Tx) {
		clientA, _ = tx.CreateClient(1, "Alice")
		clientB, _ = tx.CreateClient(2, "Bob")
		entityID, _ = tx.CreateEntity(0, vec.V3{}, ClientAttachment(clientA))
	})
	w.RunNow(func(tx *Tx) {
		if err := tx.SetPawn(clientB, entityID); err == nil {
			t.Fatalf("SetPawn onto non-owning client: err = nil, want error")
		}
		if err := tx.SetPawn(clientA, entityID); err != nil {
			t.Fatalf("SetPawn onto owning client: %v", err)
		}
	})
	c, _ := w.clients.Get(clientA)
	if c.Pawn != entityID {
		t.Fatalf("client.Pawn = %d, want %d", c.Pawn, entityID)
	}
}

func TestDestroyEntityClearsClientPawn(t *testing.T) {
	w := NewWorld(1)
	var clientID, entityID TransientID
	w.RunNow(func(tx *Tx) {
		clientID, _ = tx.CreateClient(1, "Alice")
		entityID, _ = tx.CreateEntity(0, vec.V3{}, ClientAttachment(clientID))
		_ = tx.SetPawn(clientID, entityID)
	})
	w.RunNow(func(tx *Tx) {
		if err := tx.DestroyEntity(entityID); err != nil {
			t.Fatalf("DestroyEntity: %v", err)
		}
	})
	c, _ := w.clients.Get(clientID)
	if c.Pawn != NoPawn {
		t.Fatalf("client.Pawn = %d after pawn destroyed, want NoPawn", c.Pawn)
	}
}

func TestPlaneChunkStructureCascade(t *testing.T) {
	w := NewWorld(1)
	var planeID, chunkID, structID, invID TransientID
	w.RunNow(func(tx *Tx) {
		planeID = tx.CreatePlane("overworld")
		chunkID, _ = tx.CreateTerrainChunk(planeID, vec.V2{})
		structID, _ = tx.CreateStructure(planeID, vec.V3{}, 1, ChunkAttachment(chunkID))
		invID, _ = tx.CreateInventory(4, StructureAttachment(structID))
	})
	p, _ := w.planes.Get(planeID)
	if p.LoadedChunks[vec.V2{}] != chunkID {
		t.Fatalf("plane.LoadedChunks[{0,0}] = %d, want %d", p.LoadedChunks[vec.V2{}], chunkID)
	}

	w.RunNow(func(tx *Tx) {
		if err := tx.DestroyPlane(planeID); err != nil {
			t.Fatalf("DestroyPlane: %v", err)
		}
	})
	if _, ok := w.chunks.Get(chunkID); ok {
		t.Fatalf("chunk %d still resident after plane destroyed", chunkID)
	}
	if _, ok := w.structures.Get(structID); ok {
		t.Fatalf("structure %d still resident after plane cascade", structID)
	}
	if _, ok := w.inventories.Get(invID); ok {
		t.Fatalf("structure inventory %d still resident after plane cascade", invID)
	}
}

type recordingHandler struct {
	NopHandler
	created []TransientID
}

func (h *recordingHandler) HandleEntityCreate(_ *Tx, id TransientID) {
	h.created = append(h.created, id)
}

func TestHandlerFiresOnEntityCreate(t *testing.T) {
	w := NewWorld(1)
	h := &recordingHandler{}
	w.Handle(h)
	var id TransientID
	w.RunNow(func(tx *Tx) {
		id, _ = tx.CreateEntity(0, vec.V3{}, WorldAttachment())
	})
	if len(h.created) != 1 || h.created[0] != id {
		t.Fatalf("handler.created = %v, want [%d]", h.created, id)
	}
}

func TestTxPanicsAfterClose(t *testing.T) {
	w := NewWorld(1)
	var stale *Tx
	w.RunNow(func(tx *Tx) { stale = tx })

	defer func() {
		r := recover()
		if r != ClosedPanicMessage {
			t.Fatalf("recovered %v, want %q", r, ClosedPanicMessage)
		}
	}()
	_, _ = stale.CreateClient(1, "Alice")
	t.Fatalf("expected panic calling a method on a closed Tx")
}
