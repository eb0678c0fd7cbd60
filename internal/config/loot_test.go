package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/outpost-sim/server/internal/world"
)

func testLootTables(t *testing.T) LootTables {
	t.Helper()
	dir := t.TempDir()
	items := map[string]ItemID{"ore": 0, "gem": 1}
	templates := map[string]world.TemplateID{"ruins": 0, "camp": 1}

	path := filepath.Join(dir, "loot.yaml")
	data := `
items:
  - name: vein
    type: multi
    parts:
      - id: 1
        chance: 100
      - id: 2
        chance: 0
  - type: object
    id: ore
    min_count: 2
    max_count: 2
  - type: object
    id: gem
    min_count: 1
    max_count: 1
  - name: either
    type: choose
    variants:
      - id: 1
        weight: 1
structures:
  - name: random_ruin
    type: choose
    variants:
      - id: 1
        weight: 1
  - type: object
    id: ruins
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write loot.yaml: %v", err)
	}

	lt, err := loadLootTables(path, items, templates)
	if err != nil {
		t.Fatalf("loadLootTables: %v", err)
	}
	return lt
}

func TestEvalItemsResolvesMultiAndChooseDeterministically(t *testing.T) {
	lt := testLootTables(t)

	drops, err := lt.EvalItems("vein")
	if err != nil {
		t.Fatalf("EvalItems(vein): %v", err)
	}
	if len(drops) != 1 {
		t.Fatalf("EvalItems(vein) = %+v, want exactly 1 drop (chance=0 part must never fire)", drops)
	}
	if drops[0].Count != 2 {
		t.Fatalf("vein drop count = %d, want 2", drops[0].Count)
	}

	drops, err = lt.EvalItems("either")
	if err != nil {
		t.Fatalf("EvalItems(either): %v", err)
	}
	if len(drops) != 1 || drops[0].Count != 2 {
		t.Fatalf("EvalItems(either) = %+v, want single ore drop of 2 (sole weighted variant)", drops)
	}
}

func TestEvalItemsUnknownTableErrors(t *testing.T) {
	lt := testLootTables(t)
	if _, err := lt.EvalItems("nonexistent"); err == nil {
		t.Fatalf("EvalItems(nonexistent) succeeded, want error")
	}
}

func TestEvalStructureResolvesChooseRecursively(t *testing.T) {
	lt := testLootTables(t)
	id, ok, err := lt.EvalStructure("random_ruin")
	if err != nil {
		t.Fatalf("EvalStructure(random_ruin): %v", err)
	}
	if !ok {
		t.Fatalf("EvalStructure(random_ruin) ok = false, want true")
	}
	if id != world.TemplateID(0) {
		t.Fatalf("EvalStructure(random_ruin) = %d, want template 0 (ruins)", id)
	}
}

func TestEvalStructureUnknownTableErrors(t *testing.T) {
	lt := testLootTables(t)
	if _, _, err := lt.EvalStructure("missing"); err == nil {
		t.Fatalf("EvalStructure(missing) succeeded, want error")
	}
}
