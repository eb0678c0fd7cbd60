package world

import (
	"github.com/outpost-sim/server/internal/shape"
	"github.com/outpost-sim/server/internal/vec"
)

// Layer is a structure template's stacking precedence (spec.md 4.4).
type Layer uint8

const (
	LayerFloor       Layer = 0 // floor-like: rugs, foundations
	LayerSolid       Layer = 1 // walls, furniture
	LayerAttachment  Layer = 2 // wall-mounted fixtures, decorations
)

// TemplateID names a structure template in the data bundle's catalog
// (internal/config).
type TemplateID int32

// Template describes one kind of placeable structure: its footprint size,
// the shape it contributes to each occupied cell, and its placement layer.
type Template struct {
	Name  string
	Size  vec.V3 // tile extents
	Cells []shape.Shape
	Layer Layer
}

// CellShape returns the shape Template contributes at local tile offset
// (x,y,z) within its footprint.
func (t *Template) CellShape(x, y, z int32) shape.Shape {
	if x < 0 || y < 0 || z < 0 || x >= t.Size.X || y >= t.Size.Y || z >= t.Size.Z {
		return shape.Empty
	}
	return t.Cells[(z*t.Size.Y+y)*t.Size.X+x]
}

// Structure is a placed multi-tile object.
type Structure struct {
	Plane    TransientID
	Pos      vec.V3 // tile coordinates of the min corner
	Template TemplateID
	Flags    uint32

	Attachment       Attachment
	ChildInventories []TransientID
}

// Footprint returns the tile-space region a structure of the given template
// occupies when placed at pos.
func Footprint(pos vec.V3, t *Template) vec.Region {
	return vec.NewRegion(pos, pos.Add(t.Size))
}
