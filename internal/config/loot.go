package config

import (
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/outpost-sim/server/internal/world"
)

// itemTableKind/structureTableKind tag the closed union spec.md 6's loot
// tables form: Item(id,min,max) (object, no recursion), Choose(weighted
// variants), Multi(independent parts) — and the Structure analogs,
// Structure (a bare template reference) and Choose. Grounded in
// original_source/src/libserver_config/data.rs's ItemTable/StructureTable
// enums, whose "choose"/"multi" variant entries reference other entries of
// the same table by index rather than by item id directly, letting a loot
// table nest sub-tables; that indirection is kept here via TableIndex.
type itemTableKind uint8

const (
	itemTableItem itemTableKind = iota
	itemTableChoose
	itemTableMulti
)

type structureTableKind uint8

const (
	structureTableStructure structureTableKind = iota
	structureTableChoose
)

// TableIndex references another entry of the same table (the item table or
// the structure table), not an ItemID/TemplateID — see itemTableKind's doc.
type TableIndex int

// weightedVariant is one Choose branch: the sub-table to recurse into and
// its selection weight.
type weightedVariant struct {
	Table  TableIndex
	Weight int
}

// chancePart is one Multi branch: a sub-table rolled independently with the
// given chance out of 100.
type chancePart struct {
	Table  TableIndex
	Chance int
}

// itemTableEntry is one entry of an item loot table, a closed tagged union
// matching data.rs's ItemTable enum.
type itemTableEntry struct {
	kind     itemTableKind
	itemID   ItemID
	minCount uint8
	maxCount uint8
	variants []weightedVariant
	parts    []chancePart
}

// structureTableEntry is one entry of a structure loot table.
type structureTableEntry struct {
	kind     structureTableKind
	template world.TemplateID
	variants []weightedVariant
}

// LootTables is the fully resolved loot table catalog: two independently
// indexed tables (item, structure), each entry addressable only by
// TableIndex — data.rs only exposes a name for the handful of entries
// meant to be looked up from outside the file; "choose"/"multi" sub-entries
// are usually anonymous and reached only by recursion from a named root.
// r is LootTables' own source of randomness, the same
// held-by-the-owning-type convention as server/world/world.go's `r
// *rand.Rand` field and server/query_protocol.go's `rng *rand.Rand`
// (seeded from the wall clock at construction), rather than a package-level
// global — every table eval runs on the single event-loop goroutine, so no
// locking is needed around it.
type LootTables struct {
	item            []itemTableEntry
	itemByName      map[string]TableIndex
	structure       []structureTableEntry
	structureByName map[string]TableIndex

	r *rand.Rand
}

// LootDrop is one resolved item drop: an item and how many of it.
type LootDrop struct {
	Item  ItemID
	Count uint8
}

type lootFile struct {
	Items      []lootItemEntry      `yaml:"items"`
	Structures []lootStructureEntry `yaml:"structures"`
}

type lootItemEntry struct {
	Name     string             `yaml:"name,omitempty"`
	Type     string             `yaml:"type"`
	ID       string             `yaml:"id,omitempty"`
	MinCount uint8              `yaml:"min_count,omitempty"`
	MaxCount uint8              `yaml:"max_count,omitempty"`
	Variants []lootVariantEntry `yaml:"variants,omitempty"`
	Parts    []lootPartEntry    `yaml:"parts,omitempty"`
}

type lootVariantEntry struct {
	ID     int `yaml:"id"`
	Weight int `yaml:"weight"`
}

type lootPartEntry struct {
	ID     int `yaml:"id"`
	Chance int `yaml:"chance"`
}

type lootStructureEntry struct {
	Name     string             `yaml:"name,omitempty"`
	Type     string             `yaml:"type"`
	ID       string             `yaml:"id,omitempty"`
	Variants []lootVariantEntry `yaml:"variants,omitempty"`
}

// loadLootTables reads a YAML loot table file. An "object" entry's "id"
// names an item or structure template and is resolved against the already
// loaded item/template catalogs; a "choose"/"multi" entry's variant/part
// "id" is a TableIndex, an index into this same file's items/structures
// array, following data.rs's recursive table-of-tables design.
func loadLootTables(path string, items map[string]ItemID, templates map[string]world.TemplateID) (LootTables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LootTables{}, fmt.Errorf("config: read loot file %s: %w", path, err)
	}
	var f lootFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return LootTables{}, fmt.Errorf("config: parse loot file %s: %w", path, err)
	}

	lt := LootTables{
		itemByName:      make(map[string]TableIndex),
		structureByName: make(map[string]TableIndex),
		r:               rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(time.Now().UnixNano()))),
	}

	for i, e := range f.Items {
		var entry itemTableEntry
		switch e.Type {
		case "object":
			id, ok := items[e.ID]
			if !ok {
				return LootTables{}, fmt.Errorf("config: item loot table %d: unknown item %q", i, e.ID)
			}
			entry = itemTableEntry{kind: itemTableItem, itemID: id, minCount: e.MinCount, maxCount: e.MaxCount}
		case "choose":
			entry = itemTableEntry{kind: itemTableChoose, variants: toVariants(e.Variants)}
		case "multi":
			entry = itemTableEntry{kind: itemTableMulti, parts: toParts(e.Parts)}
		default:
			return LootTables{}, fmt.Errorf("config: item loot table %d: invalid type %q", i, e.Type)
		}
		lt.item = append(lt.item, entry)
		if e.Name != "" {
			lt.itemByName[e.Name] = TableIndex(i)
		}
	}

	for i, e := range f.Structures {
		var entry structureTableEntry
		switch e.Type {
		case "object":
			id, ok := templates[e.ID]
			if !ok {
				return LootTables{}, fmt.Errorf("config: structure loot table %d: unknown template %q", i, e.ID)
			}
			entry = structureTableEntry{kind: structureTableStructure, template: id}
		case "choose":
			entry = structureTableEntry{kind: structureTableChoose, variants: toVariants(e.Variants)}
		default:
			return LootTables{}, fmt.Errorf("config: structure loot table %d: invalid type %q", i, e.Type)
		}
		lt.structure = append(lt.structure, entry)
		if e.Name != "" {
			lt.structureByName[e.Name] = TableIndex(i)
		}
	}

	return lt, nil
}

func toVariants(in []lootVariantEntry) []weightedVariant {
	out := make([]weightedVariant, len(in))
	for i, v := range in {
		out[i] = weightedVariant{Table: TableIndex(v.ID), Weight: v.Weight}
	}
	return out
}

func toParts(in []lootPartEntry) []chancePart {
	out := make([]chancePart, len(in))
	for i, p := range in {
		out[i] = chancePart{Table: TableIndex(p.ID), Chance: p.Chance}
	}
	return out
}

// EvalItems resolves the named item table into a concrete list of drops,
// following every "choose"/"multi" branch the roll selects.
func (lt *LootTables) EvalItems(name string) ([]LootDrop, error) {
	idx, ok := lt.itemByName[name]
	if !ok {
		return nil, fmt.Errorf("config: unknown item loot table %q", name)
	}
	var out []LootDrop
	lt.evalItem(idx, &out)
	return out, nil
}

func (lt *LootTables) evalItem(idx TableIndex, out *[]LootDrop) {
	if int(idx) < 0 || int(idx) >= len(lt.item) {
		return
	}
	e := lt.item[idx]
	switch e.kind {
	case itemTableItem:
		count := e.minCount
		if e.maxCount > e.minCount {
			count += uint8(lt.r.IntN(int(e.maxCount-e.minCount) + 1))
		}
		*out = append(*out, LootDrop{Item: e.itemID, Count: count})
	case itemTableChoose:
		if v, ok := lt.pickWeighted(e.variants); ok {
			lt.evalItem(v, out)
		}
	case itemTableMulti:
		for _, p := range e.parts {
			if lt.r.IntN(100) < p.Chance {
				lt.evalItem(p.Table, out)
			}
		}
	}
}

// EvalStructure resolves the named structure table into at most one
// template id — spec.md 6's Structure analog of an item table, which has
// no Multi variant since a footprint can only hold one structure at a time.
func (lt *LootTables) EvalStructure(name string) (world.TemplateID, bool, error) {
	idx, ok := lt.structureByName[name]
	if !ok {
		return 0, false, fmt.Errorf("config: unknown structure loot table %q", name)
	}
	return lt.evalStructure(idx), true, nil
}

func (lt *LootTables) evalStructure(idx TableIndex) world.TemplateID {
	if int(idx) < 0 || int(idx) >= len(lt.structure) {
		return 0
	}
	e := lt.structure[idx]
	switch e.kind {
	case structureTableStructure:
		return e.template
	case structureTableChoose:
		if v, ok := lt.pickWeighted(e.variants); ok {
			return lt.evalStructure(v)
		}
	}
	return 0
}

// pickWeighted rolls a single weighted variant, data.rs's eval walking a
// running weight sum until the roll falls within a variant's slice.
func (lt *LootTables) pickWeighted(variants []weightedVariant) (TableIndex, bool) {
	total := 0
	for _, v := range variants {
		total += v.Weight
	}
	if total <= 0 {
		return 0, false
	}
	roll := lt.r.IntN(total)
	for _, v := range variants {
		if roll < v.Weight {
			return v.Table, true
		}
		roll -= v.Weight
	}
	return 0, false
}
