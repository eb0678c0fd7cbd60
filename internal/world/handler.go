package world

import (
	"github.com/outpost-sim/server/internal/vec"
)

// Handler is the hook bus's single interface: every world mutation routes
// through exactly one call here, per spec.md 4.6. Implementations must
// return quickly — they run synchronously, inline with the mutation, on the
// single world-owning goroutine.
type Handler interface {
	HandleClientCreate(tx *Tx, id TransientID)
	HandleClientDestroy(tx *Tx, id TransientID)
	HandleEntityCreate(tx *Tx, id TransientID)
	HandleEntityDestroy(tx *Tx, id TransientID)
	HandleInventoryCreate(tx *Tx, id TransientID)
	HandleInventoryDestroy(tx *Tx, id TransientID)
	HandlePlaneCreate(tx *Tx, id TransientID)
	HandlePlaneDestroy(tx *Tx, id TransientID)
	HandleTerrainChunkCreate(tx *Tx, id TransientID)
	HandleTerrainChunkDestroy(tx *Tx, id TransientID)
	HandleStructureCreate(tx *Tx, id TransientID)
	HandleStructureDestroy(tx *Tx, id TransientID)

	HandleEntityMotionChange(tx *Tx, id TransientID, m Motion)
	HandleEntityAppearanceChange(tx *Tx, id TransientID, appearance int32)
	HandleEntityPlaneChange(tx *Tx, id TransientID, old, new TransientID)
	HandleClientChangePawn(tx *Tx, id TransientID, old, new TransientID)
	HandleTerrainChunkUpdate(tx *Tx, id TransientID, region vec.Region)
	HandleStructureReplace(tx *Tx, id TransientID, template TemplateID)
	HandleInventoryUpdate(tx *Tx, id TransientID, slot int, old, new Slot)
}

// PlacementChecker is implemented by the shape cache, the sole authority for
// spec.md 4.4's placement queries. It is consulted directly by world
// operations rather than through the Handler fan-out, since a placement
// decision needs one authoritative answer, not N independent opinions.
type PlacementChecker interface {
	CheckStructurePlacement(tx *Tx, plane TransientID, template TemplateID, pos vec.V3) bool
	CheckStructureReplacement(tx *Tx, sid TransientID, template TemplateID, pos vec.V3) bool
}

// NopHandler implements Handler with every method a no-op. Embed it to
// implement only the callbacks a given listener cares about.
type NopHandler struct{}

func (NopHandler) HandleClientCreate(*Tx, TransientID)                        {}
func (NopHandler) HandleClientDestroy(*Tx, TransientID)                       {}
func (NopHandler) HandleEntityCreate(*Tx, TransientID)                        {}
func (NopHandler) HandleEntityDestroy(*Tx, TransientID)                       {}
func (NopHandler) HandleInventoryCreate(*Tx, TransientID)                     {}
func (NopHandler) HandleInventoryDestroy(*Tx, TransientID)                    {}
func (NopHandler) HandlePlaneCreate(*Tx, TransientID)                         {}
func (NopHandler) HandlePlaneDestroy(*Tx, TransientID)                        {}
func (NopHandler) HandleTerrainChunkCreate(*Tx, TransientID)                  {}
func (NopHandler) HandleTerrainChunkDestroy(*Tx, TransientID)                 {}
func (NopHandler) HandleStructureCreate(*Tx, TransientID)                     {}
func (NopHandler) HandleStructureDestroy(*Tx, TransientID)                    {}
func (NopHandler) HandleEntityMotionChange(*Tx, TransientID, Motion)          {}
func (NopHandler) HandleEntityAppearanceChange(*Tx, TransientID, int32)       {}
func (NopHandler) HandleEntityPlaneChange(*Tx, TransientID, TransientID, TransientID) {}
func (NopHandler) HandleClientChangePawn(*Tx, TransientID, TransientID, TransientID)  {}
func (NopHandler) HandleTerrainChunkUpdate(*Tx, TransientID, vec.Region)      {}
func (NopHandler) HandleStructureReplace(*Tx, TransientID, TemplateID)       {}
func (NopHandler) HandleInventoryUpdate(*Tx, TransientID, int, Slot, Slot)   {}

// Hooks is the full hook bus surface: notification fan-out plus the
// authoritative placement queries.
type Hooks interface {
	Handler
	PlacementChecker
}

// chain fans every call out to listeners in the order NewChain received
// them (cmd/outpostd passes the shape cache, then the vision adapter).
// placement, which may also be one of the listeners, answers placement
// queries.
type chain struct {
	listeners []Handler
	placement PlacementChecker
}

// NewChain builds a Hooks that dispatches to listeners in the given order.
// placementChecker, typically listeners[0] (the shape cache), answers
// CheckStructurePlacement/Replacement.
func NewChain(placementChecker PlacementChecker, listeners ...Handler) Hooks {
	return &chain{listeners: listeners, placement: placementChecker}
}

func (c *chain) HandleClientCreate(tx *Tx, id TransientID) {
	for _, l := range c.listeners {
		l.HandleClientCreate(tx, id)
	}
}
func (c *chain) HandleClientDestroy(tx *Tx, id TransientID) {
	for _, l := range c.listeners {
		l.HandleClientDestroy(tx, id)
	}
}
func (c *chain) HandleEntityCreate(tx *Tx, id TransientID) {
	for _, l := range c.listeners {
		l.HandleEntityCreate(tx, id)
	}
}
func (c *chain) HandleEntityDestroy(tx *Tx, id TransientID) {
	for _, l := range c.listeners {
		l.HandleEntityDestroy(tx, id)
	}
}
func (c *chain) HandleInventoryCreate(tx *Tx, id TransientID) {
	for _, l := range c.listeners {
		l.HandleInventoryCreate(tx, id)
	}
}
func (c *chain) HandleInventoryDestroy(tx *Tx, id TransientID) {
	for _, l := range c.listeners {
		l.HandleInventoryDestroy(tx, id)
	}
}
func (c *chain) HandlePlaneCreate(tx *Tx, id TransientID) {
	for _, l := range c.listeners {
		l.HandlePlaneCreate(tx, id)
	}
}
func (c *chain) HandlePlaneDestroy(tx *Tx, id TransientID) {
	for _, l := range c.listeners {
		l.HandlePlaneDestroy(tx, id)
	}
}
func (c *chain) HandleTerrainChunkCreate(tx *Tx, id TransientID) {
	for _, l := range c.listeners {
		l.HandleTerrainChunkCreate(tx, id)
	}
}
func (c *chain) HandleTerrainChunkDestroy(tx *Tx, id TransientID) {
	for _, l := range c.listeners {
		l.HandleTerrainChunkDestroy(tx, id)
	}
}
func (c *chain) HandleStructureCreate(tx *Tx, id TransientID) {
	for _, l := range c.listeners {
		l.HandleStructureCreate(tx, id)
	}
}
func (c *chain) HandleStructureDestroy(tx *Tx, id TransientID) {
	for _, l := range c.listeners {
		l.HandleStructureDestroy(tx, id)
	}
}
func (c *chain) HandleEntityMotionChange(tx *Tx, id TransientID, m Motion) {
	for _, l := range c.listeners {
		l.HandleEntityMotionChange(tx, id, m)
	}
}
func (c *chain) HandleEntityAppearanceChange(tx *Tx, id TransientID, appearance int32) {
	for _, l := range c.listeners {
		l.HandleEntityAppearanceChange(tx, id, appearance)
	}
}
func (c *chain) HandleEntityPlaneChange(tx *Tx, id TransientID, old, new TransientID) {
	for _, l := range c.listeners {
		l.HandleEntityPlaneChange(tx, id, old, new)
	}
}
func (c *chain) HandleClientChangePawn(tx *Tx, id TransientID, old, new TransientID) {
	for _, l := range c.listeners {
		l.HandleClientChangePawn(tx, id, old, new)
	}
}
func (c *chain) HandleTerrainChunkUpdate(tx *Tx, id TransientID, region vec.Region) {
	for _, l := range c.listeners {
		l.HandleTerrainChunkUpdate(tx, id, region)
	}
}
func (c *chain) HandleStructureReplace(tx *Tx, id TransientID, template TemplateID) {
	for _, l := range c.listeners {
		l.HandleStructureReplace(tx, id, template)
	}
}
func (c *chain) HandleInventoryUpdate(tx *Tx, id TransientID, slot int, old, new Slot) {
	for _, l := range c.listeners {
		l.HandleInventoryUpdate(tx, id, slot, old, new)
	}
}

func (c *chain) CheckStructurePlacement(tx *Tx, plane TransientID, template TemplateID, pos vec.V3) bool {
	if c.placement == nil {
		return true
	}
	return c.placement.CheckStructurePlacement(tx, plane, template, pos)
}

func (c *chain) CheckStructureReplacement(tx *Tx, sid TransientID, template TemplateID, pos vec.V3) bool {
	if c.placement == nil {
		return true
	}
	return c.placement.CheckStructureReplacement(tx, sid, template, pos)
}
