package vec

import "testing"

func TestRegionPointsRasterOrder(t *testing.T) {
	r := NewRegion(V3{0, 0, 0}, V3{2, 2, 1})
	it := r.Points()
	var got []V3
	for {
		p, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, p)
	}
	want := []V3{
		{0, 0, 0}, {1, 0, 0},
		{0, 1, 0}, {1, 1, 0},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d points, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRegionIndexRoundTrip(t *testing.T) {
	r := NewRegion(V3{-1, -1, -1}, V3{3, 4, 5})
	it := r.Points()
	i := 0
	for {
		p, ok := it.Next()
		if !ok {
			break
		}
		if idx := r.Index(p); idx != i {
			t.Fatalf("Index(%+v) = %d, want %d", p, idx, i)
		}
		if back := r.FromIndex(i); back != p {
			t.Fatalf("FromIndex(%d) = %+v, want %+v", i, back, p)
		}
		i++
	}
	if want := int(r.Volume()); i != want {
		t.Fatalf("visited %d points, Volume() = %d", i, want)
	}
}

func TestRegionEmptyIntersectOverlaps(t *testing.T) {
	a := NewRegion(V3{0, 0, 0}, V3{4, 4, 4})
	b := NewRegion(V3{2, 2, 2}, V3{6, 6, 6})
	c := NewRegion(V3{10, 10, 10}, V3{12, 12, 12})

	if !a.Overlaps(b) {
		t.Error("a should overlap b")
	}
	if a.Overlaps(c) {
		t.Error("a should not overlap c")
	}
	inter := a.Intersect(b)
	if inter != (NewRegion(V3{2, 2, 2}, V3{4, 4, 4})) {
		t.Errorf("Intersect = %+v", inter)
	}
}

func TestRegionDivRound(t *testing.T) {
	r := NewRegion(V3{5, 31, 32}, V3{40, 33, 64})
	got := r.DivRound(32)
	want := NewRegion(V3{0, 0, 1}, V3{2, 2, 2})
	if got != want {
		t.Errorf("DivRound = %+v, want %+v", got, want)
	}
}
