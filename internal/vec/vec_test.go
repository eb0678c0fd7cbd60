package vec

import "testing"

func TestDivFloor(t *testing.T) {
	cases := []struct {
		a, b, want int32
	}{
		{15, 16, 0},
		{16, 16, 1},
		{-1, 16, -1},
		{-16, 16, -1},
		{-17, 16, -2},
		{0, 16, 0},
	}
	for _, c := range cases {
		v := V3{c.a, 0, 0}.DivFloorScalar(c.b)
		if v.X != c.want {
			t.Errorf("divFloor(%d, %d) = %d, want %d", c.a, c.b, v.X, c.want)
		}
	}
}

func TestSignAbs(t *testing.T) {
	v := V3{-5, 0, 7}
	if got := v.Signum(); got != (V3{-1, 0, 1}) {
		t.Errorf("Signum() = %+v", got)
	}
	if got := v.Abs(); got != (V3{5, 0, 7}) {
		t.Errorf("Abs() = %+v", got)
	}
}

func TestReduceExtend(t *testing.T) {
	v := V3{1, 2, 3}
	if got := v.Reduce(); got != (V2{1, 2}) {
		t.Errorf("Reduce() = %+v", got)
	}
	if got := v.Reduce().Extend(3); got != v {
		t.Errorf("Extend() round trip = %+v, want %+v", got, v)
	}
}

func TestIsPositiveNegative(t *testing.T) {
	v := V3{-1, 0, 1}
	if got := v.IsPositive(); got != (V3{0, 0, 1}) {
		t.Errorf("IsPositive() = %+v", got)
	}
	if got := v.IsNegative(); got != (V3{1, 0, 0}) {
		t.Errorf("IsNegative() = %+v", got)
	}
}
