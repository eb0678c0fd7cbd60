// Package collision implements the continuous-time swept-AABB collision
// algorithm over a chunked shape grid described in spec.md 4.2, grounded in
// original_source/client/physics.rs (collide/collide_ramp) and
// original_source/physics/walk.rs (the section/discontinuity tables this
// rewrite replaces with direct per-tile classification).
package collision

import (
	"github.com/outpost-sim/server/internal/shape"
	"github.com/outpost-sim/server/internal/vec"
)

// Reason classifies why Collide/CollideOnRamp stopped motion.
type Reason uint8

const (
	ZeroVelocity Reason = iota
	NoFloor
	Wall
	SlideEnd
	ChunkBorder
	Timeout
	RampEntry
	RampExit
	RampDysfunction
	RampAngleChange
)

func (r Reason) String() string {
	switch r {
	case ZeroVelocity:
		return "ZeroVelocity"
	case NoFloor:
		return "NoFloor"
	case Wall:
		return "Wall"
	case SlideEnd:
		return "SlideEnd"
	case ChunkBorder:
		return "ChunkBorder"
	case Timeout:
		return "Timeout"
	case RampEntry:
		return "RampEntry"
	case RampExit:
		return "RampExit"
	case RampDysfunction:
		return "RampDysfunction"
	case RampAngleChange:
		return "RampAngleChange"
	default:
		return "Unknown"
	}
}

// Result is the outcome of a sweep: the AABB stops at Pos after DurationMS
// milliseconds of travel along the requested velocity, for the reason Reason.
// DirAxes is a bitmask (bit 2 = X, bit 1 = Y, bit 0 = Z, matching
// original_source's bits_from_hit) naming which axes the stop occurred on.
type Result struct {
	Pos        vec.V3
	DurationMS int32
	DirAxes    uint8
	Reason     Reason
}

// iterationCap bounds the number of tile-plane crossings explored before a
// sweep reports Timeout, per spec.md 4.2 step 7 (3 * CHUNK_SIZE).
const iterationCap = 3 * int(shape.ChunkSize)

// Collide sweeps an AABB of the given size from pos along velocity
// (subpixels/sec) against src for up to maxDurationMS of travel, stopping at
// the first wall, missing floor, or chunk-boundary crossing — or, if none is
// met within the budget, at the position reached when the budget runs out
// (SlideEnd). It implements spec.md 4.2's primary (not already-on-a-ramp)
// variant.
func Collide(src shape.Source, pos, size, velocity vec.V3, maxDurationMS int32) Result {
	if velocity == vec.Zero {
		return Result{Pos: pos, Reason: ZeroVelocity}
	}

	side := velocity.IsPositive()
	corner := pos.Add(mulV(side, size))

	pc := newPlaneCollisions(corner, velocity)
	for i := 0; i < iterationCap; i++ {
		timeMS, cur, hit, ok := pc.next()
		if !ok {
			break
		}
		if timeMS >= maxDurationMS {
			end := pos.Add(velocityOverMS(velocity, maxDurationMS))
			return Result{Pos: end, DurationMS: maxDurationMS, Reason: SlideEnd}
		}
		base := cur.Sub(mulV(side, size))

		if bound := chunkBoundaryHit(cur, hit, side); bound != 0 {
			return Result{Pos: base, DurationMS: timeMS, DirAxes: bound, Reason: ChunkBorder}
		}

		for _, face := range contactFaces(base, size, velocity.Signum(), hit) {
			seenRamp := shape.NoRamp
			seenFloor := false

			if reason, blocked := scanFace(src, face, face.boxBottomZ, &seenRamp, &seenFloor); blocked {
				return Result{Pos: base, DurationMS: timeMS, DirAxes: bitsFromHit(absV(face.dir)), Reason: reason}
			}

			if seenRamp != shape.NoRamp {
				if !seenFloor {
					return Result{Pos: base, DurationMS: timeMS, DirAxes: bitsFromHit(absV(face.dir)), Reason: RampEntry}
				}
				return Result{Pos: base, DurationMS: timeMS, DirAxes: bitsFromHit(absV(face.dir)), Reason: Wall}
			}
		}
	}

	return Result{Pos: pos, DurationMS: maxDurationMS, Reason: Timeout}
}

// velocityOverMS returns the displacement velocity (subpixels/sec) produces
// over durMS milliseconds.
func velocityOverMS(velocity vec.V3, durMS int32) vec.V3 {
	return vec.New3(
		int32(int64(velocity.X)*int64(durMS)/1000),
		int32(int64(velocity.Y)*int64(durMS)/1000),
		int32(int64(velocity.Z)*int64(durMS)/1000),
	)
}

// scanFace classifies every tile touched by one contact face, in the manner
// of spec.md 4.2 step 4-5. It returns a nonzero Reason only for Wall/NoFloor
// (terminal outcomes); ramp entries are reported by the caller once the whole
// face has been scanned, since a ramp can only be entered if no floor was
// also seen on that face.
func scanFace(src shape.Source, face faceSpan, minZ int32, seenRamp *shape.RampAngle, seenFloor *bool) (Reason, bool) {
	for _, p := range facePositions(face) {
		s := src.GetShape(p)
		if p.Z == minZ {
			switch {
			case s == shape.Empty:
				return NoFloor, true
			case s == shape.Floor:
				*seenFloor = true
			case s == shape.RampTop:
				*seenRamp = shape.Flat
			case s.IsRamp() && s.EntryDir() == face.dir:
				*seenRamp = s.Angle()
			default:
				return Wall, true
			}
		} else {
			switch s {
			case shape.Empty, shape.RampTop:
				// pass through
			default:
				return Wall, true
			}
		}
	}
	return 0, false
}

func mulV(a, b vec.V3) vec.V3 { return a.Mul(b) }
func absV(v vec.V3) vec.V3    { return v.Abs() }

// bitsFromHit packs a 0/1-valued V3 into a 3-bit mask (X<<2 | Y<<1 | Z),
// matching original_source's bits_from_hit so DirAxes round-trips the same
// bit layout as the reference implementation.
func bitsFromHit(hit vec.V3) uint8 {
	return uint8(hit.X<<2) | uint8(hit.Y<<1) | uint8(hit.Z)
}

// chunkBoundaryHit reports, as a bitmask in the same layout as bitsFromHit,
// which hit axes land exactly on the chunk's outer face in the direction of
// travel (spec.md 4.2 step 6).
func chunkBoundaryHit(cur, hit, side vec.V3) uint8 {
	chunkEdge := side.Scale(shape.ChunkSize * shape.TileSize)
	var out uint8
	if hit.X != 0 && cur.X == chunkEdge.X {
		out |= 1 << 2
	}
	if hit.Y != 0 && cur.Y == chunkEdge.Y {
		out |= 1 << 1
	}
	if hit.Z != 0 && cur.Z == chunkEdge.Z {
		out |= 1
	}
	return out
}
