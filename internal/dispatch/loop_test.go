package dispatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/outpost-sim/server/internal/config"
	"github.com/outpost-sim/server/internal/timer"
	"github.com/outpost-sim/server/internal/vec"
	"github.com/outpost-sim/server/internal/world"
)

type fakeScript struct{}

func (fakeScript) ChatCommand(*world.Tx, ClientID, string) bool                { return false }
func (fakeScript) Login(*world.Tx, ClientID, string) (world.TransientID, bool) { return 0, false }
func (fakeScript) Interact(*world.Tx, ClientID, Interact)                     {}
func (fakeScript) UseItem(*world.Tx, ClientID, UseItem)                       {}
func (fakeScript) UseAbility(*world.Tx, ClientID, UseAbility)                 {}
func (fakeScript) Timeout(*world.Tx, ClientID, int64)                         {}
func (fakeScript) GenerateChunk(*world.Tx, world.TransientID, vec.V2, GenChunkResult) {}
func (fakeScript) ApplyStructureExtra(*world.Tx, world.TransientID, []byte)   {}
func (fakeScript) EntityDestroyed(*world.Tx, world.TransientID)              {}

func newTestLoop(t *testing.T) *Loop {
	t.Helper()
	w := world.NewWorld(4)
	wakes := timer.NewWakeQueue[WakeReason](nil, time.Now())
	t.Cleanup(wakes.Close)
	inbound := make(chan Request, 4)
	gen := make(chan GenChunkResult, 1)
	return NewLoop(w, wakes, fakeScript{}, nil, inbound, gen)
}

func TestAddClientThenRemoveClientRoundTrips(t *testing.T) {
	l := newTestLoop(t)

	if done := l.handleRequest(AddClient{Wire: 1}); done {
		t.Fatalf("handleRequest(AddClient) = true, want false")
	}
	if _, ok := l.clients[1]; !ok {
		t.Fatalf("client 1 not registered after AddClient")
	}

	if done := l.handleRequest(RemoveClient{Wire: 1}); done {
		t.Fatalf("handleRequest(RemoveClient) = true, want false")
	}
	if _, ok := l.clients[1]; ok {
		t.Fatalf("client 1 still registered after RemoveClient")
	}
}

func TestMoveItemTransfersBulkStack(t *testing.T) {
	l := newTestLoop(t)

	var fromID, toID world.TransientID
	l.w.RunNow(func(tx *world.Tx) {
		var err error
		fromID, err = tx.CreateInventory(4, world.WorldAttachment())
		if err != nil {
			t.Fatalf("CreateInventory: %v", err)
		}
		toID, err = tx.CreateInventory(4, world.WorldAttachment())
		if err != nil {
			t.Fatalf("CreateInventory: %v", err)
		}
		if err := tx.UpdateInventorySlot(fromID, 0, world.BulkSlot(5, 10)); err != nil {
			t.Fatalf("UpdateInventorySlot: %v", err)
		}
	})

	l.handleRequest(MoveItem{FromInv: fromID, FromSlot: 0, ToInv: toID, ToSlot: 0, Count: 4})

	l.w.RunNow(func(tx *world.Tx) {
		from, _ := tx.Inventory(fromID)
		to, _ := tx.Inventory(toID)
		if from.Slots[0].Count != 6 {
			t.Fatalf("from.Slots[0].Count = %d, want 6", from.Slots[0].Count)
		}
		if to.Slots[0].Kind != world.SlotBulk || to.Slots[0].Count != 4 || to.Slots[0].ItemID != 5 {
			t.Fatalf("to.Slots[0] = %+v, want Bulk{ItemID:5,Count:4}", to.Slots[0])
		}
	})
}

func TestShutdownRunsSaverWhenInstalled(t *testing.T) {
	l := newTestLoop(t)
	called := false
	l.SetSaver(saverFunc(func(*world.World) error { called = true; return nil }))

	done := make(chan struct{})
	if exit := l.handleRequest(Shutdown{Done: done}); !exit {
		t.Fatalf("handleRequest(Shutdown) = false, want true")
	}
	<-done
	if !called {
		t.Fatalf("Saver.Save was not called during shutdown")
	}
}

type saverFunc func(*world.World) error

func (f saverFunc) Save(w *world.World) error { return f(w) }

func testCraftingBundle(t *testing.T) *config.Bundle {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}
	paths := config.BundlePaths{
		Blocks: write("blocks.toml", "[[blocks]]\nname = \"air\"\nshape = \"empty\"\n"),
		Items: write("items.toml", `
[[items]]
name = "ore"

[[items]]
name = "ingot"
`),
		Templates: write("templates.toml", "[[templates]]\nname = \"furnace\"\nsize = [1, 1, 1]\nlayer = 1\ncells = [\"solid\"]\n"),
		Recipes: write("recipes.yaml", `
recipes:
  - name: smelt
    station: furnace
    inputs:
      ore: 2
    outputs:
      ingot: 1
`),
		Animations: write("animations.yaml", "animations: []\n"),
		Loot:       write("loot.yaml", "items: []\nstructures: []\n"),
	}
	b, err := config.LoadBundle(paths)
	if err != nil {
		t.Fatalf("LoadBundle: %v", err)
	}
	return b
}

func TestCraftRecipeConsumesInputsAndProducesOutputAtStation(t *testing.T) {
	l := newTestLoop(t)
	bundle := testCraftingBundle(t)
	l.SetBundle(bundle)

	var invID, stationID world.TransientID
	l.w.RunNow(func(tx *world.Tx) {
		var err error
		planeID := tx.CreatePlane("overworld")
		invID, err = tx.CreateInventory(4, world.WorldAttachment())
		if err != nil {
			t.Fatalf("CreateInventory: %v", err)
		}
		furnaceID, _ := bundle.TemplateID("furnace")
		stationID, err = tx.CreateStructure(planeID, vec.V3{}, furnaceID, world.PlaneAttachment(planeID))
		if err != nil {
			t.Fatalf("CreateStructure: %v", err)
		}
		oreID, _ := bundle.ItemID("ore")
		if err := tx.UpdateInventorySlot(invID, 0, world.BulkSlot(int32(oreID), 5)); err != nil {
			t.Fatalf("UpdateInventorySlot: %v", err)
		}
	})

	if _, ok := bundle.Recipe("smelt"); !ok {
		t.Fatalf("recipe smelt not found in test bundle")
	}
	l.handleRequest(CraftRecipe{Station: stationID, Inv: invID, Recipe: 0, Count: 2})

	l.w.RunNow(func(tx *world.Tx) {
		inv, _ := tx.Inventory(invID)
		oreID, _ := bundle.ItemID("ore")
		ingotID, _ := bundle.ItemID("ingot")
		oreLeft := int32(0)
		ingotsGot := int32(0)
		for _, s := range inv.Slots {
			if s.Kind != world.SlotBulk {
				continue
			}
			switch s.ItemID {
			case int32(oreID):
				oreLeft += s.Count
			case int32(ingotID):
				ingotsGot += s.Count
			}
		}
		if oreLeft != 1 {
			t.Fatalf("ore remaining = %d, want 1 (5 - 2*2)", oreLeft)
		}
		if ingotsGot != 2 {
			t.Fatalf("ingots produced = %d, want 2", ingotsGot)
		}
	})
}

func TestCraftRecipeRefusedWithoutStation(t *testing.T) {
	l := newTestLoop(t)
	bundle := testCraftingBundle(t)
	l.SetBundle(bundle)

	var invID world.TransientID
	l.w.RunNow(func(tx *world.Tx) {
		var err error
		invID, err = tx.CreateInventory(4, world.WorldAttachment())
		if err != nil {
			t.Fatalf("CreateInventory: %v", err)
		}
		oreID, _ := bundle.ItemID("ore")
		if err := tx.UpdateInventorySlot(invID, 0, world.BulkSlot(int32(oreID), 5)); err != nil {
			t.Fatalf("UpdateInventorySlot: %v", err)
		}
	})

	// No station created — r.Station is a zero TransientID, which tx.Structure
	// must reject, leaving the inventory untouched.
	l.handleRequest(CraftRecipe{Station: 0, Inv: invID, Recipe: 0, Count: 1})

	l.w.RunNow(func(tx *world.Tx) {
		inv, _ := tx.Inventory(invID)
		if inv.Slots[0].Count != 5 {
			t.Fatalf("ore count = %d, want unchanged 5 (craft must refuse without a valid station)", inv.Slots[0].Count)
		}
	})
}

func TestHandleChatBroadcastsAcceptedMessageToEveryClient(t *testing.T) {
	l := newTestLoop(t)
	sender := &recordingSender{}
	l.SetSender(sender)
	l.handleRequest(AddClient{Wire: 1})
	l.handleRequest(AddClient{Wire: 2})

	l.handleRequest(Chat{From: 1, Msg: "hello there"})

	if len(sender.sent) != 2 {
		t.Fatalf("got %d sent responses, want 2 (one per connected client)", len(sender.sent))
	}
	for _, s := range sender.sent {
		update, ok := s.resp.(ChatUpdate)
		if !ok {
			t.Fatalf("response = %#v, want ChatUpdate", s.resp)
		}
		if update.From != 1 || update.Msg != "hello there" {
			t.Fatalf("ChatUpdate = %+v, want From=1 Msg=%q", update, "hello there")
		}
	}
}

func TestHandleChatCommandNeverBroadcasts(t *testing.T) {
	l := newTestLoop(t)
	l.script = commandScript{}
	sender := &recordingSender{}
	l.SetSender(sender)
	l.handleRequest(AddClient{Wire: 1})

	l.handleRequest(Chat{From: 1, Msg: "/help"})

	if len(sender.sent) != 0 {
		t.Fatalf("got %d sent responses for a handled command, want 0", len(sender.sent))
	}
}

type commandScript struct{ fakeScript }

func (commandScript) ChatCommand(*world.Tx, ClientID, string) bool { return true }

func TestReplCommandStatusReportsCounts(t *testing.T) {
	l := newTestLoop(t)
	l.w.RunNow(func(tx *world.Tx) {
		_, _ = tx.CreateClient(1, "alice")
	})

	reply := make(chan ReplResult, 1)
	l.handleRequest(ReplCommand{Line: "status", Reply: reply})

	result := <-reply
	if result.Err != "" {
		t.Fatalf("ReplResult.Err = %q, want empty", result.Err)
	}
	if result.Output == "" {
		t.Fatalf("ReplResult.Output is empty")
	}
}
