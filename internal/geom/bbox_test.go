package geom

import "testing"

func TestNewRounds(t *testing.T) {
	b := New(1.005, 2.0049, 3.0, 4.0)
	if b.X0 != 1.0 && b.X0 != 1.01 {
		t.Errorf("expected rounding to two decimals, got %v", b.X0)
	}
}

func TestNewNormalizesSwappedCorners(t *testing.T) {
	b := New(3, 4, 1, 2)
	if b.X0 != 1 || b.X1 != 3 || b.Y0 != 2 || b.Y1 != 4 {
		t.Errorf("expected normalized corners, got %+v", b)
	}
}

func TestMerge(t *testing.T) {
	a := New(0, 0, 1, 1)
	b := New(2, -1, 3, 0.5)
	m := Merge(a, b)
	want := New(0, -1, 3, 1)
	if m != want {
		t.Errorf("Merge = %+v, want %+v", m, want)
	}
}

func TestVOverlap(t *testing.T) {
	a := New(0, 0, 10, 10)
	b := New(5, 20, 15, 30)
	if VOverlap(a, b) != 5 {
		t.Errorf("VOverlap = %v, want 5", VOverlap(a, b))
	}
	if HOverlap(a, b) != 0 {
		t.Errorf("HOverlap = %v, want 0", HOverlap(a, b))
	}
}

func TestIsVOverlapFullCoverage(t *testing.T) {
	a := New(0, 0, 10, 10)
	b := New(2, 20, 8, 30)
	if !IsVOverlap(a, b, 1.0) {
		t.Errorf("expected full coverage of narrower box b by a")
	}
	if IsVOverlap(a, b, 1.0) && !IsVOverlap(b, a, 1.0) {
		// symmetry of the predicate itself (not the coverage direction)
		t.Errorf("IsVOverlap should be symmetric in which box is narrower")
	}
}

func TestIsNextTo(t *testing.T) {
	a := New(0, 0, 10, 10)
	b := New(10.5, 0, 20, 10)
	if !IsNextTo(a, b, 1.0) {
		t.Errorf("expected glyphs 0.5pt apart to be next to each other under 1.0pt threshold")
	}
	c := New(15, 0, 20, 10)
	if IsNextTo(a, c, 1.0) {
		t.Errorf("expected glyphs 5pt apart to not be next to each other under 1.0pt threshold")
	}
}
