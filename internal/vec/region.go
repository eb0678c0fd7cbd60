package vec

// Region is a half-open axis-aligned region [Min, Max) over V3 space. It is
// used for AABBs in subpixel space, for chunk footprints in chunk space, and
// for tile spans within a chunk, depending on the units of Min/Max.
type Region struct {
	Min, Max V3
}

// NewRegion builds a Region from its corners.
func NewRegion(min, max V3) Region { return Region{Min: min, Max: max} }

// RegionAround returns the region of the given radius centered on center.
func RegionAround(center V3, radius int32) Region {
	r := V3{radius, radius, radius}
	return Region{Min: center.Sub(r), Max: center.Add(r)}
}

// Empty reports whether the region contains no points on any axis.
func (r Region) Empty() bool {
	return r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y || r.Min.Z >= r.Max.Z
}

// Size returns Max - Min.
func (r Region) Size() V3 { return r.Max.Sub(r.Min) }

// Volume returns the number of lattice points contained, 0 if empty.
func (r Region) Volume() int64 {
	if r.Empty() {
		return 0
	}
	s := r.Size()
	return int64(s.X) * int64(s.Y) * int64(s.Z)
}

// Contains reports whether p lies in the half-open region.
func (r Region) Contains(p V3) bool {
	return p.X >= r.Min.X && p.X < r.Max.X &&
		p.Y >= r.Min.Y && p.Y < r.Max.Y &&
		p.Z >= r.Min.Z && p.Z < r.Max.Z
}

// ContainsInclusive reports whether p lies in the closed region [Min, Max].
func (r Region) ContainsInclusive(p V3) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X &&
		p.Y >= r.Min.Y && p.Y <= r.Max.Y &&
		p.Z >= r.Min.Z && p.Z <= r.Max.Z
}

func minI(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func maxI(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// Join returns the smallest region containing both r and o.
func (r Region) Join(o Region) Region {
	return Region{
		Min: V3{minI(r.Min.X, o.Min.X), minI(r.Min.Y, o.Min.Y), minI(r.Min.Z, o.Min.Z)},
		Max: V3{maxI(r.Max.X, o.Max.X), maxI(r.Max.Y, o.Max.Y), maxI(r.Max.Z, o.Max.Z)},
	}
}

// Intersect returns the overlap of r and o. The result may be Empty.
func (r Region) Intersect(o Region) Region {
	return Region{
		Min: V3{maxI(r.Min.X, o.Min.X), maxI(r.Min.Y, o.Min.Y), maxI(r.Min.Z, o.Min.Z)},
		Max: V3{minI(r.Max.X, o.Max.X), minI(r.Max.Y, o.Max.Y), minI(r.Max.Z, o.Max.Z)},
	}
}

// Overlaps reports whether r and o share any point.
func (r Region) Overlaps(o Region) bool { return !r.Intersect(o).Empty() }

// Expand grows the region by amount on every axis, in both directions.
func (r Region) Expand(amount V3) Region {
	return Region{Min: r.Min.Sub(amount), Max: r.Max.Add(amount)}
}

// ClampPoint restricts p to lie within the region.
func (r Region) ClampPoint(p V3) V3 {
	return V3{
		clampI(p.X, r.Min.X, r.Max.X),
		clampI(p.Y, r.Min.Y, r.Max.Y),
		clampI(p.Z, r.Min.Z, r.Max.Z),
	}
}

// DivRound divides the region by rhs, rounding Min down and Max up so the
// result covers every lattice cell the original region touched. Used to
// convert a subpixel AABB into the span of tiles it overlaps.
func (r Region) DivRound(rhs int32) Region {
	return Region{
		Min: r.Min.DivFloorScalar(rhs),
		Max: r.Max.Add(V3{rhs - 1, rhs - 1, rhs - 1}).DivFloorScalar(rhs),
	}
}

// WithZs returns r with its Z extent replaced by [minZ, maxZ).
func (r Region) WithZs(minZ, maxZ int32) Region {
	return Region{Min: r.Min.WithZ(minZ), Max: r.Max.WithZ(maxZ)}
}

// Index maps a contained point to a flat index in raster order (x fastest,
// then y, then z), matching RegionPoints iteration order.
func (r Region) Index(p V3) int {
	off := p.Sub(r.Min)
	size := r.Size()
	return int(off.X) + int(off.Y)*int(size.X) + int(off.Z)*int(size.X)*int(size.Y)
}

// FromIndex is the inverse of Index.
func (r Region) FromIndex(i int) V3 {
	size := r.Size()
	sx, sy := int(size.X), int(size.Y)
	x := i % sx
	i /= sx
	y := i % sy
	i /= sy
	z := i
	return V3{int32(x), int32(y), int32(z)}.Add(r.Min)
}

// Region2 is the 2D analog of Region, used for chunk-grid footprints (vision
// views, structure footprints projected onto the chunk plane).
type Region2 struct {
	Min, Max V2
}

// NewRegion2 builds a Region2 from its corners.
func NewRegion2(min, max V2) Region2 { return Region2{Min: min, Max: max} }

func (r Region2) Empty() bool {
	return r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y
}

func (r Region2) Contains(p V2) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

func (r Region2) Intersect(o Region2) Region2 {
	return Region2{
		Min: V2{maxI(r.Min.X, o.Min.X), maxI(r.Min.Y, o.Min.Y)},
		Max: V2{minI(r.Max.X, o.Max.X), minI(r.Max.Y, o.Max.Y)},
	}
}

func (r Region2) Overlaps(o Region2) bool { return !r.Intersect(o).Empty() }

// Points returns an iterator in raster order (x fastest) over every point in
// the half-open region.
func (r Region) Points() *RegionPoints {
	if r.Empty() {
		return &RegionPoints{empty: true}
	}
	return &RegionPoints{min: r.Min, max: r.Max, cur: r.Min, first: true}
}

// PointsInclusive returns an iterator over every point in the closed region
// [Min, Max].
func (r Region) PointsInclusive() *RegionPoints {
	return r.WithZs(r.Min.Z, r.Max.Z+1).Add1XY().Points()
}

// Add1XY is an internal helper so PointsInclusive can reuse Points' raster
// logic; it extends X and Y by one each, matching WithZs' Z treatment.
func (r Region) Add1XY() Region {
	return Region{Min: r.Min, Max: V3{r.Max.X + 1, r.Max.Y + 1, r.Max.Z}}
}

// RegionPoints iterates the lattice points of a Region in raster order (x
// fastest, then y, then z).
type RegionPoints struct {
	min, max, cur V3
	first         bool
	empty         bool
}

// Next returns the next point and true, or the zero value and false once
// iteration is exhausted.
func (it *RegionPoints) Next() (V3, bool) {
	if it.empty {
		return V3{}, false
	}
	if it.first {
		it.first = false
		return it.cur, true
	}
	it.cur.X++
	if it.cur.X >= it.max.X {
		it.cur.X = it.min.X
		it.cur.Y++
		if it.cur.Y >= it.max.Y {
			it.cur.Y = it.min.Y
			it.cur.Z++
			if it.cur.Z >= it.max.Z {
				it.empty = true
				return V3{}, false
			}
		}
	}
	return it.cur, true
}

// Points iterates every point of a Region2 in raster order (x fastest).
func (r Region2) Points() *Region2Points {
	if r.Empty() {
		return &Region2Points{empty: true}
	}
	return &Region2Points{min: r.Min, max: r.Max, cur: r.Min, first: true}
}

// Region2Points iterates the lattice points of a Region2.
type Region2Points struct {
	min, max, cur V2
	first         bool
	empty         bool
}

func (it *Region2Points) Next() (V2, bool) {
	if it.empty {
		return V2{}, false
	}
	if it.first {
		it.first = false
		return it.cur, true
	}
	it.cur.X++
	if it.cur.X >= it.max.X {
		it.cur.X = it.min.X
		it.cur.Y++
		if it.cur.Y >= it.max.Y {
			it.empty = true
			return V2{}, false
		}
	}
	return it.cur, true
}
