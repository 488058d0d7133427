package table

import (
	"testing"

	"github.com/patrickbr/pdf2gtfs/internal/geom"
)

func grid2x3() (*Table, [][]*Cell) {
	g := make([][]*Cell, 2)
	for r := 0; r < 2; r++ {
		g[r] = make([]*Cell, 3)
		for c := 0; c < 3; c++ {
			b := geom.New(float64(c)*10, float64(r)*10, float64(c)*10+8, float64(r)*10+8)
			g[r][c] = New("cell", b, "F1", 10)
		}
	}
	tb, err := NewFromGrid(g)
	if err != nil {
		panic(err)
	}
	return tb, g
}

func TestSymmetricLinking(t *testing.T) {
	_, g := grid2x3()
	for _, row := range g {
		for _, cell := range row {
			for d := North; d <= West; d++ {
				n := cell.Neighbor(d)
				if n == nil {
					continue
				}
				if got := n.Neighbor(d.Opposite()); got != cell {
					t.Errorf("symmetric linking violated for direction %v", d)
				}
			}
		}
	}
}

func TestRowsAndColumnsEqualLength(t *testing.T) {
	tb, _ := grid2x3()
	if tb.RowCount() != 2 {
		t.Errorf("RowCount = %d, want 2", tb.RowCount())
	}
	if tb.ColCount() != 3 {
		t.Errorf("ColCount = %d, want 3", tb.ColCount())
	}
	for _, row := range tb.AllCells() {
		if len(row) != tb.ColCount() {
			t.Errorf("row length %d != ColCount %d", len(row), tb.ColCount())
		}
	}
}

func TestGetSeriesRoundTrip(t *testing.T) {
	_, g := grid2x3()
	row := GetSeries(Horizontal, g[0][2])
	if len(row) != 3 {
		t.Fatalf("expected row of 3, got %d", len(row))
	}
	for i, c := range row {
		if c != g[0][i] {
			t.Errorf("row[%d] = %p, want %p", i, c, g[0][i])
		}
	}
}

func TestSetNeighborSplice(t *testing.T) {
	a := New("a", geom.New(0, 0, 10, 10), "", 0)
	c := New("c", geom.New(20, 0, 30, 10), "", 0)
	a.SetNeighbor(East, c)

	b := New("b", geom.New(10, 0, 20, 10), "", 0)
	a.SetNeighbor(East, b)

	if a.Neighbor(East) != b {
		t.Errorf("expected a.East == b after splice")
	}
	if b.Neighbor(East) != c {
		t.Errorf("expected b.East == c after splice")
	}
	if c.Neighbor(West) != b {
		t.Errorf("expected c.West == b after splice")
	}
	if b.Neighbor(West) != a {
		t.Errorf("expected b.West == a after splice")
	}
}

func TestSetNeighborDetach(t *testing.T) {
	a := New("a", geom.New(0, 0, 10, 10), "", 0)
	b := New("b", geom.New(10, 0, 20, 10), "", 0)
	a.SetNeighbor(East, b)
	a.SetNeighbor(East, nil)

	if a.Neighbor(East) != nil {
		t.Errorf("expected a.East == nil after detach")
	}
	if b.Neighbor(West) != nil {
		t.Errorf("expected b.West == nil after detach")
	}
}

func TestEmptyCellBBoxDerivedFromRowAndColumn(t *testing.T) {
	g := make([][]*Cell, 2)
	g[0] = []*Cell{New("a", geom.New(0, 0, 10, 10), "", 0), New("b", geom.New(20, 0, 30, 10), "", 0)}
	g[1] = []*Cell{New("c", geom.New(0, 20, 10, 30), "", 0), NewEmpty()}
	tb, err := NewFromGrid(g)
	if err != nil {
		t.Fatal(err)
	}
	empty := g[1][1]
	b := empty.BBox()
	// y-extent from its row (row 1: only "c" is non-empty -> y in [20,30])
	if b.Y0 != 20 || b.Y1 != 30 {
		t.Errorf("empty cell y-extent = [%v,%v], want [20,30]", b.Y0, b.Y1)
	}
	// x-extent from its column (col 1: only "b" is non-empty -> x in [20,30])
	if b.X0 != 20 || b.X1 != 30 {
		t.Errorf("empty cell x-extent = [%v,%v], want [20,30]", b.X0, b.X1)
	}
	_ = tb
}

func TestInsertRow(t *testing.T) {
	tb, g := grid2x3()
	newRow := []*Cell{
		New("x", geom.New(0, -10, 8, -2), "", 0),
		New("y", geom.New(10, -10, 18, -2), "", 0),
		New("z", geom.New(20, -10, 28, -2), "", 0),
	}
	if err := tb.Insert(North, g[0], newRow); err != nil {
		t.Fatal(err)
	}
	if tb.RowCount() != 3 {
		t.Errorf("RowCount after insert = %d, want 3", tb.RowCount())
	}
	top := tb.TopRow()
	for i, c := range top {
		if c != newRow[i] {
			t.Errorf("top row[%d] mismatch after insert", i)
		}
	}
}
