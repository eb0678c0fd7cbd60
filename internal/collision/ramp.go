package collision

import (
	"github.com/outpost-sim/server/internal/shape"
	"github.com/outpost-sim/server/internal/vec"
)

// rampStepLimit bounds how many tile-footprint steps CollideOnRamp will walk
// before giving up and reporting Timeout, mirroring iterationCap's role in
// Collide.
const rampStepLimit = 2 * int(shape.ChunkSize)

// RampAxis returns the horizontal unit vector a ramp angle rises along, or
// vec.Zero for Flat/NoRamp.
func RampAxis(a shape.RampAngle) vec.V3 {
	switch a {
	case shape.AngleEast:
		return vec.V3{X: 1}
	case shape.AngleWest:
		return vec.V3{X: -1}
	case shape.AngleSouth:
		return vec.V3{Y: 1}
	case shape.AngleNorth:
		return vec.V3{Y: -1}
	default:
		return vec.Zero
	}
}

// GetRampAngle reports the incline directly beneath a box's footprint, via
// shape.GetShapeBelow at its four footprint corners. It returns NoRamp if
// the footprint does not sit squarely on a single ramp surface (spec.md 4.2
// get_ramp_angle).
func GetRampAngle(src shape.Source, pos, size vec.V3) (shape.RampAngle, bool) {
	corners := footprintCorners(pos, size)
	var angle shape.RampAngle
	for i, c := range corners {
		s, _ := shape.GetShapeBelow(src, c.DivFloorScalar(shape.TileSize))
		var a shape.RampAngle
		switch {
		case s.IsRamp():
			a = s.Angle()
		default:
			return shape.NoRamp, false
		}
		if i == 0 {
			angle = a
		} else if a != angle {
			return shape.NoRamp, false
		}
	}
	return angle, true
}

// footprintCorners returns the four subpixel-space corners of a box's
// footprint, for probing the surface underneath it tile by tile.
func footprintCorners(pos, size vec.V3) [4]vec.V3 {
	return [4]vec.V3{
		{X: pos.X, Y: pos.Y, Z: pos.Z},
		{X: pos.X + size.X - 1, Y: pos.Y, Z: pos.Z},
		{X: pos.X, Y: pos.Y + size.Y - 1, Z: pos.Z},
		{X: pos.X + size.X - 1, Y: pos.Y + size.Y - 1, Z: pos.Z},
	}
}

// CollideOnRamp sweeps a box that begins already standing on a ramp of the
// given angle. Horizontal velocity induces a proportional vertical one so
// the box tracks the incline; the sweep ends in RampExit when the footprint
// leaves the ramp onto level ground or open air, and in RampAngleChange or
// RampDysfunction when the surface beneath the footprint stops matching a
// single consistent incline (spec.md 4.2, original_source's collide_ramp).
func CollideOnRamp(src shape.Source, pos, size, velocity vec.V3, angle shape.RampAngle, maxDurationMS int32) Result {
	if velocity == vec.Zero {
		return Result{Pos: pos, Reason: ZeroVelocity}
	}

	cur := pos
	var elapsedMS int32
	for i := 0; i < rampStepLimit && elapsedMS < maxDurationMS; i++ {
		inclined := inclineVelocity(velocity, angle)
		step := Collide(src, cur, size, inclined, maxDurationMS-elapsedMS)
		elapsedMS += step.DurationMS
		cur = step.Pos

		if step.Reason == ZeroVelocity {
			return Result{Pos: cur, DurationMS: elapsedMS, Reason: SlideEnd}
		}
		if step.Reason != SlideEnd {
			step.DurationMS = elapsedMS
			return step
		}
		if elapsedMS >= maxDurationMS {
			return Result{Pos: cur, DurationMS: elapsedMS, Reason: SlideEnd}
		}

		nextAngle, onRamp := GetRampAngle(src, cur, size)
		switch {
		case !onRamp:
			return Result{Pos: cur, DurationMS: elapsedMS, Reason: RampExit}
		case nextAngle == shape.Flat && angle != shape.Flat:
			return Result{Pos: cur, DurationMS: elapsedMS, Reason: RampExit}
		case nextAngle != angle:
			return Result{Pos: cur, DurationMS: elapsedMS, Reason: RampAngleChange}
		}
	}
	return Result{Pos: cur, DurationMS: elapsedMS, Reason: Timeout}
}

// inclineVelocity adds the vertical component a ramp of the given angle
// imparts to horizontal travel: one subpixel of rise per subpixel of run.
func inclineVelocity(v vec.V3, angle shape.RampAngle) vec.V3 {
	axis := RampAxis(angle)
	if axis == vec.Zero {
		return v
	}
	run := v.Dot(axis)
	return vec.V3{X: v.X, Y: v.Y, Z: v.Z + run}
}
