// Package vec implements the integer lattice vector and axis-aligned region
// algebra that every other package in outpost-sim builds on: tile, chunk, and
// subpixel coordinates are all V3/V2 values, and never floating point.
package vec

// Axis names one of the three lattice axes.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// V2 is an integer 2D vector, used for chunk-plane (x, y) coordinates
// such as vision's chunk grid.
type V2 struct {
	X, Y int32
}

// V3 is an integer 3D vector. Depending on context its components are
// measured in subpixels, tiles, or chunks; callers are responsible for not
// mixing units.
type V3 struct {
	X, Y, Z int32
}

// New3 builds a V3 from components.
func New3(x, y, z int32) V3 { return V3{X: x, Y: y, Z: z} }

// New2 builds a V2 from components.
func New2(x, y int32) V2 { return V2{X: x, Y: y} }

// Reduce drops the Z component, producing the V2 footprint of a V3.
func (v V3) Reduce() V2 { return V2{X: v.X, Y: v.Y} }

// Extend adds a Z component to a V2, producing a V3.
func (v V2) Extend(z int32) V3 { return V3{X: v.X, Y: v.Y, Z: z} }

// Get returns the component named by axis.
func (v V3) Get(a Axis) int32 {
	switch a {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// With returns v with the component named by axis replaced by val.
func (v V3) With(a Axis, val int32) V3 {
	switch a {
	case AxisX:
		v.X = val
	case AxisY:
		v.Y = val
	default:
		v.Z = val
	}
	return v
}

// WithX, WithY and WithZ are convenience wrappers around With.
func (v V3) WithX(x int32) V3 { v.X = x; return v }
func (v V3) WithY(y int32) V3 { v.Y = y; return v }
func (v V3) WithZ(z int32) V3 { v.Z = z; return v }

func (v V3) Add(o V3) V3 { return V3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v V3) Sub(o V3) V3 { return V3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v V3) Mul(o V3) V3 { return V3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }

// Scale multiplies every component by a scalar.
func (v V3) Scale(s int32) V3 { return V3{v.X * s, v.Y * s, v.Z * s} }

func (v V2) Add(o V2) V2 { return V2{v.X + o.X, v.Y + o.Y} }
func (v V2) Sub(o V2) V2 { return V2{v.X - o.X, v.Y - o.Y} }
func (v V2) Scale(s int32) V2 { return V2{v.X * s, v.Y * s} }

// DivFloor divides each component of v by the matching component of o using
// floored (mathematical) division, so that negative coordinates behave: -1/16
// is -1, not 0.
func (v V3) DivFloor(o V3) V3 {
	return V3{divFloor(v.X, o.X), divFloor(v.Y, o.Y), divFloor(v.Z, o.Z)}
}

// DivFloorScalar divides every component by the scalar d using floored
// division.
func (v V3) DivFloorScalar(d int32) V3 {
	return V3{divFloor(v.X, d), divFloor(v.Y, d), divFloor(v.Z, d)}
}

func (v V2) DivFloorScalar(d int32) V2 {
	return V2{divFloor(v.X, d), divFloor(v.Y, d)}
}

// divFloor implements floored integer division: it rounds toward negative
// infinity rather than toward zero, matching original_source's div_floor.
func divFloor(a, b int32) int32 {
	if b < 0 {
		a, b = -a, -b
	}
	if a < 0 {
		return (a - (b - 1)) / b
	}
	return a / b
}

// Clamp restricts every component of v to [lo, hi].
func (v V3) Clamp(lo, hi int32) V3 {
	return V3{clampI(v.X, lo, hi), clampI(v.Y, lo, hi), clampI(v.Z, lo, hi)}
}

func clampI(x, lo, hi int32) int32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Dot returns the dot product of v and o.
func (v V3) Dot(o V3) int32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func sign(x int32) int32 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// Signum returns a V3 whose components are -1, 0, or 1 according to the sign
// of each component of v.
func (v V3) Signum() V3 { return V3{sign(v.X), sign(v.Y), sign(v.Z)} }

func absI(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

// Abs returns the component-wise absolute value of v.
func (v V3) Abs() V3 { return V3{absI(v.X), absI(v.Y), absI(v.Z)} }

// IsPositive returns 1 for each strictly positive component, 0 otherwise.
// Useful as a 0/1 mask multiplied against a size vector to pick the leading
// corner of an AABB in the direction of travel.
func (v V3) IsPositive() V3 { return V3{boolI(v.X > 0), boolI(v.Y > 0), boolI(v.Z > 0)} }

// IsNegative returns 1 for each strictly negative component, 0 otherwise.
func (v V3) IsNegative() V3 { return V3{boolI(v.X < 0), boolI(v.Y < 0), boolI(v.Z < 0)} }

func boolI(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// Zero is the zero vector, used throughout the collision engine to test for
// a motionless query.
var Zero = V3{}

// Zero2 is the zero 2D vector.
var Zero2 = V2{}
