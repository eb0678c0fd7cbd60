// Package config loads the data bundle (spec.md 6 "Configuration"): the
// catalog of blocks, items, structure templates, recipes, animations, and
// loot tables a running server needs but which this repository's core
// (internal/world, internal/shape, internal/collision) treats as opaque
// ids. Grounded in original_source/src/libserver_config/data.rs's
// BlockData/ItemData/RecipeData/StructureTemplates/AnimationData/LootTables,
// translated from JSON parsing by hand-rolled macros into Go structs decoded
// by real format libraries: blocks, items, and templates are small,
// hand-edited tables and load from TOML (github.com/pelletier/go-toml,
// following the teacher's server/whitelist.go convention of a small
// TOML-backed file type); recipes, animations, and loot tables are more
// deeply nested and load from YAML (gopkg.in/yaml.v2).
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v2"

	"github.com/outpost-sim/server/internal/shape"
	"github.com/outpost-sim/server/internal/vec"
	"github.com/outpost-sim/server/internal/world"
)

// BlockID indexes the block catalog. The engine itself never stores a
// BlockID — internal/world.TerrainChunk.Raw holds shape.Shape directly —
// BlockID exists only at the data-bundle/wire/save boundary (spec.md 6's
// "block-id lookup table"), the same role original_source's BlockId plays
// as a plain array index rather than an engine-level concept.
type BlockID int32

// ItemID indexes the item catalog, the name-resolved form of the raw int32
// stored in world.Slot.ItemID; the engine treats item ids as opaque, so
// this is a distinct type only within this package's name/id bookkeeping.
type ItemID int32

// Block is one entry of the block catalog: a name and the tile shape it
// contributes to the terrain lattice.
type Block struct {
	Name  string
	Shape shape.Shape
}

// Item is one entry of the item catalog. Items carry no server-side
// behavior of their own in this repository — behavior lives in scripts,
// reached through Slot.ItemID — so the catalog exists only to give a
// human-editable name to each ItemID and catch unknown-item mistakes at
// load time rather than at use time.
type Item struct {
	Name string
}

// Recipe is one crafting recipe: a station template (optional — an empty
// station name means "craftable anywhere"), and item/count pairs for
// inputs and outputs.
type Recipe struct {
	Name       string
	Station    world.TemplateID
	HasStation bool
	Inputs     map[ItemID]uint8
	Outputs    map[ItemID]uint8
}

// Animation names a client-side animation clip by its framerate and frame
// length, mirroring original_source's Animation record; the engine itself
// never interprets these fields, it only looks the id up by name for
// scripts and the wire protocol.
type Animation struct {
	Name      string
	Framerate uint32
	Length    uint32
}

// Bundle is the fully loaded, cross-referenced data bundle a running
// server holds for the lifetime of the process. Bundle is built once at
// startup and is read-only thereafter — nothing in internal/world,
// internal/dispatch, or internal/persist mutates it, so no lock is needed
// past construction.
type Bundle struct {
	blocks      []Block
	blockByName map[string]BlockID

	items      []Item
	itemByName map[string]ItemID

	templates      []*world.Template
	templateByName map[string]world.TemplateID

	recipes      []Recipe
	recipeByName map[string]int

	animations      []Animation
	animationByName map[string]int

	Loot LootTables
}

// blockFile/itemFile/templateFile mirror the TOML on-disk shape: a single
// top-level array under a named key, the same "array of tables" TOML idiom
// server/whitelist.go uses for its players list.
type blockFile struct {
	Blocks []blockEntry `toml:"blocks"`
}

type blockEntry struct {
	Name  string `toml:"name"`
	Shape string `toml:"shape"`
}

type itemFile struct {
	Items []itemEntry `toml:"items"`
}

type itemEntry struct {
	Name string `toml:"name"`
}

type templateFile struct {
	Templates []templateEntry `toml:"templates"`
}

type templateEntry struct {
	Name  string   `toml:"name"`
	Size  [3]int32 `toml:"size"`
	Layer uint8    `toml:"layer"`
	Cells []string `toml:"cells"`
}

// LoadBlocks reads a TOML block catalog from path.
func LoadBlocks(path string) ([]Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read block file %s: %w", path, err)
	}
	var f blockFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse block file %s: %w", path, err)
	}
	blocks := make([]Block, 0, len(f.Blocks))
	for i, b := range f.Blocks {
		s, ok := shapeByName(b.Shape)
		if !ok {
			return nil, fmt.Errorf("config: block %d (%s): invalid shape %q", i, b.Name, b.Shape)
		}
		blocks = append(blocks, Block{Name: b.Name, Shape: s})
	}
	return blocks, nil
}

// LoadItems reads a TOML item catalog from path.
func LoadItems(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read item file %s: %w", path, err)
	}
	var f itemFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse item file %s: %w", path, err)
	}
	items := make([]Item, 0, len(f.Items))
	for _, it := range f.Items {
		items = append(items, Item{Name: it.Name})
	}
	return items, nil
}

// LoadTemplates reads a TOML structure template catalog from path. Each
// template's Cells array is row-major (z, y, x), matching
// world.Template.CellShape's indexing.
func LoadTemplates(path string) ([]*world.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read template file %s: %w", path, err)
	}
	var f templateFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse template file %s: %w", path, err)
	}
	templates := make([]*world.Template, 0, len(f.Templates))
	for i, t := range f.Templates {
		size := vec.V3{X: t.Size[0], Y: t.Size[1], Z: t.Size[2]}
		want := int(size.X) * int(size.Y) * int(size.Z)
		if len(t.Cells) != want {
			return nil, fmt.Errorf("config: template %d (%s): %d cells, want %d for size %v", i, t.Name, len(t.Cells), want, size)
		}
		cells := make([]shape.Shape, len(t.Cells))
		for j, name := range t.Cells {
			s, ok := shapeByName(name)
			if !ok {
				return nil, fmt.Errorf("config: template %d (%s): cell %d has invalid shape %q", i, t.Name, j, name)
			}
			cells[j] = s
		}
		templates = append(templates, &world.Template{
			Name:  t.Name,
			Size:  size,
			Cells: cells,
			Layer: world.Layer(t.Layer),
		})
	}
	return templates, nil
}

// recipeFile/animationFile/lootFile mirror the YAML on-disk shape — one
// top-level list per file, the natural shape for gopkg.in/yaml.v2 given
// these already arrive YAML-shaped in original_source's data files.
type recipeFile struct {
	Recipes []recipeEntry `yaml:"recipes"`
}

type recipeEntry struct {
	Name    string           `yaml:"name"`
	Station string           `yaml:"station,omitempty"`
	Inputs  map[string]uint8 `yaml:"inputs"`
	Outputs map[string]uint8 `yaml:"outputs"`
}

type animationFile struct {
	Animations []Animation `yaml:"animations"`
}

// LoadRecipes reads a YAML recipe list from path. Item and station names
// are resolved against items/templates, which must already be loaded.
func LoadRecipes(path string, items map[string]ItemID, templates map[string]world.TemplateID) ([]Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read recipe file %s: %w", path, err)
	}
	var f recipeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse recipe file %s: %w", path, err)
	}
	recipes := make([]Recipe, 0, len(f.Recipes))
	for i, r := range f.Recipes {
		rec := Recipe{Name: r.Name, Inputs: map[ItemID]uint8{}, Outputs: map[ItemID]uint8{}}
		if r.Station != "" {
			tid, ok := templates[r.Station]
			if !ok {
				return nil, fmt.Errorf("config: recipe %d (%s): unknown station %q", i, r.Name, r.Station)
			}
			rec.Station, rec.HasStation = tid, true
		}
		for name, count := range r.Inputs {
			id, ok := items[name]
			if !ok {
				return nil, fmt.Errorf("config: recipe %d (%s): unknown input item %q", i, r.Name, name)
			}
			rec.Inputs[id] = count
		}
		for name, count := range r.Outputs {
			id, ok := items[name]
			if !ok {
				return nil, fmt.Errorf("config: recipe %d (%s): unknown output item %q", i, r.Name, name)
			}
			rec.Outputs[id] = count
		}
		recipes = append(recipes, rec)
	}
	return recipes, nil
}

// LoadAnimations reads a YAML animation list from path.
func LoadAnimations(path string) ([]Animation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read animation file %s: %w", path, err)
	}
	var f animationFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse animation file %s: %w", path, err)
	}
	return f.Animations, nil
}

// BundlePaths names the on-disk files LoadBundle reads.
type BundlePaths struct {
	Blocks     string // TOML
	Items      string // TOML
	Templates  string // TOML
	Recipes    string // YAML
	Animations string // YAML
	Loot       string // YAML
}

// LoadBundle loads every data file named by p and cross-references them,
// producing one immutable Bundle. Load order matters: blocks and items have
// no dependencies, templates may reference nothing outside themselves,
// recipes reference items and templates by name, and loot tables reference
// items and templates by name and themselves (nested tables) by index.
func LoadBundle(p BundlePaths) (*Bundle, error) {
	blocks, err := LoadBlocks(p.Blocks)
	if err != nil {
		return nil, err
	}
	items, err := LoadItems(p.Items)
	if err != nil {
		return nil, err
	}
	templates, err := LoadTemplates(p.Templates)
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		blocks:         blocks,
		blockByName:    make(map[string]BlockID, len(blocks)),
		items:          items,
		itemByName:     make(map[string]ItemID, len(items)),
		templates:      templates,
		templateByName: make(map[string]world.TemplateID, len(templates)),
	}
	for i, blk := range blocks {
		b.blockByName[blk.Name] = BlockID(i)
	}
	for i, it := range items {
		b.itemByName[it.Name] = ItemID(i)
	}
	for i, t := range templates {
		b.templateByName[t.Name] = world.TemplateID(i)
	}

	recipes, err := LoadRecipes(p.Recipes, b.itemByName, b.templateByName)
	if err != nil {
		return nil, err
	}
	b.recipes = recipes
	b.recipeByName = make(map[string]int, len(recipes))
	for i, r := range recipes {
		b.recipeByName[r.Name] = i
	}

	animations, err := LoadAnimations(p.Animations)
	if err != nil {
		return nil, err
	}
	b.animations = animations
	b.animationByName = make(map[string]int, len(animations))
	for i, a := range animations {
		b.animationByName[a.Name] = i
	}

	loot, err := loadLootTables(p.Loot, b.itemByName, b.templateByName)
	if err != nil {
		return nil, err
	}
	b.Loot = loot

	return b, nil
}

// Block looks up a block by id, returning shape.Empty's zero Block if id is
// out of range (matching original_source's BlockData::shape fallback to
// Shape::Empty for an unknown id, rather than panicking on a stale save).
func (b *Bundle) Block(id BlockID) (Block, bool) {
	if int(id) < 0 || int(id) >= len(b.blocks) {
		return Block{}, false
	}
	return b.blocks[id], true
}

// BlockID resolves a block name to its id.
func (b *Bundle) BlockID(name string) (BlockID, bool) {
	id, ok := b.blockByName[name]
	return id, ok
}

// Item looks up an item by id.
func (b *Bundle) Item(id ItemID) (Item, bool) {
	if int(id) < 0 || int(id) >= len(b.items) {
		return Item{}, false
	}
	return b.items[id], true
}

// ItemID resolves an item name to its id.
func (b *Bundle) ItemID(name string) (ItemID, bool) {
	id, ok := b.itemByName[name]
	return id, ok
}

// Template looks up a structure template by id.
func (b *Bundle) Template(id world.TemplateID) (*world.Template, bool) {
	if int(id) < 0 || int(id) >= len(b.templates) {
		return nil, false
	}
	return b.templates[id], true
}

// TemplateID resolves a structure template name to its id.
func (b *Bundle) TemplateID(name string) (world.TemplateID, bool) {
	id, ok := b.templateByName[name]
	return id, ok
}

// Templates returns the full id-to-template map, in the shape
// world.NewShapeCache expects.
func (b *Bundle) Templates() map[world.TemplateID]*world.Template {
	out := make(map[world.TemplateID]*world.Template, len(b.templates))
	for i, t := range b.templates {
		out[world.TemplateID(i)] = t
	}
	return out
}

// Recipe looks up a recipe by name.
func (b *Bundle) Recipe(name string) (Recipe, bool) {
	i, ok := b.recipeByName[name]
	if !ok {
		return Recipe{}, false
	}
	return b.recipes[i], true
}

// RecipeAt looks up a recipe by index — the form CraftRecipe's wire request
// actually names one by (spec.md 6's CraftRecipe(station, inv, recipe,
// count)'s Recipe field is an int32 index into the loaded recipe list, not
// a name, so clients resolve recipe names to indices once at catalog-sync
// time rather than on every craft request).
func (b *Bundle) RecipeAt(i int32) (Recipe, bool) {
	if i < 0 || int(i) >= len(b.recipes) {
		return Recipe{}, false
	}
	return b.recipes[i], true
}

// Animation looks up an animation clip by name.
func (b *Bundle) Animation(name string) (Animation, bool) {
	i, ok := b.animationByName[name]
	if !ok {
		return Animation{}, false
	}
	return b.animations[i], true
}

func shapeByName(name string) (shape.Shape, bool) {
	switch name {
	case "empty":
		return shape.Empty, true
	case "floor":
		return shape.Floor, true
	case "solid":
		return shape.Solid, true
	case "ramp_e":
		return shape.RampE, true
	case "ramp_w":
		return shape.RampW, true
	case "ramp_s":
		return shape.RampS, true
	case "ramp_n":
		return shape.RampN, true
	case "ramp_top":
		return shape.RampTop, true
	default:
		return 0, false
	}
}
