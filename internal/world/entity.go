package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/outpost-sim/server/internal/vec"
)

// Motion is a piecewise-linear interval of travel: the entity is at StartPos
// at StartTimeMS, linearly approaches EndPos, and reaches it at
// StartTimeMS+DurationMS. Successive motions abut at their end points
// (spec.md 3).
type Motion struct {
	StartPos    vec.V3
	EndPos      vec.V3
	StartTimeMS int64
	DurationMS  int64
}

// PositionAt returns the entity's interpolated position at world time tMS.
func (m Motion) PositionAt(tMS int64) vec.V3 {
	if m.DurationMS <= 0 {
		return m.StartPos
	}
	elapsed := tMS - m.StartTimeMS
	if elapsed <= 0 {
		return m.StartPos
	}
	if elapsed >= m.DurationMS {
		return m.EndPos
	}
	delta := m.EndPos.Sub(m.StartPos)
	return vec.New3(
		m.StartPos.X+int32(int64(delta.X)*elapsed/m.DurationMS),
		m.StartPos.Y+int32(int64(delta.Y)*elapsed/m.DurationMS),
		m.StartPos.Z+int32(int64(delta.Z)*elapsed/m.DurationMS),
	)
}

// Entity is a moving actor: a player's pawn, a dropped item, a creature.
// Facing and TargetVelocity are continuous quantities with no lattice
// meaning, so unlike every position in this package they are mgl64.Vec3
// rather than vec.V3 (SPEC_FULL 4.18).
type Entity struct {
	Plane          TransientID
	Motion         Motion
	AnimationID    int32
	Facing         mgl64.Vec3
	TargetVelocity mgl64.Vec3
	Appearance     int32
	Attachment     Attachment

	ChildInventories []TransientID
}
