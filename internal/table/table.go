// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package table

import (
	"fmt"

	"github.com/patrickbr/pdf2gtfs/internal/geom"
)

// Table is a rectangular quad-linked mesh of cells (§3). It holds four
// sentinel references, each *some* cell on the respective edge,
// lazily re-seated whenever an edge is queried.
type Table struct {
	top, bot, left, right *Cell

	bboxCache map[*Cell]geom.BBox
}

// NewFromGrid builds a table from a fully rectangular grid of cells
// (grid[row][col]), linking every cell's quad-neighbors and setting
// its owning table. All rows must have equal length.
func NewFromGrid(grid [][]*Cell) (*Table, error) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil, fmt.Errorf("table: empty grid")
	}
	cols := len(grid[0])
	for r, row := range grid {
		if len(row) != cols {
			return nil, fmt.Errorf("table: row %d has %d cells, want %d", r, len(row), cols)
		}
	}

	t := &Table{bboxCache: make(map[*Cell]geom.BBox)}

	for r, row := range grid {
		for c, cell := range row {
			cell.table = t
			if c+1 < cols {
				cell.rawSetNeighbor(East, row[c+1])
				row[c+1].rawSetNeighbor(West, cell)
			}
			if r+1 < len(grid) {
				cell.rawSetNeighbor(South, grid[r+1][c])
				grid[r+1][c].rawSetNeighbor(North, cell)
			}
		}
	}

	t.top = grid[0][0]
	t.left = grid[0][0]
	t.bot = grid[len(grid)-1][0]
	t.right = grid[0][cols-1]

	return t, nil
}

// GetSeries iterates the row (o == Horizontal) or column (o == Vertical)
// through cell, starting from its leftmost/topmost member. The returned
// slice must be treated as read-only during iteration by any splicing
// operation (§4.3).
func GetSeries(o Orientation, cell *Cell) []*Cell {
	if cell == nil {
		return nil
	}
	back, fwd := North, South
	if o == Horizontal {
		back, fwd = West, East
	}

	start := cell
	for start.Neighbor(back) != nil {
		start = start.Neighbor(back)
	}

	series := []*Cell{start}
	for cur := start; cur.Neighbor(fwd) != nil; {
		cur = cur.Neighbor(fwd)
		series = append(series, cur)
	}
	return series
}

// Row returns the full row containing cell.
func (t *Table) Row(cell *Cell) []*Cell { return GetSeries(Horizontal, cell) }

// Column returns the full column containing cell.
func (t *Table) Column(cell *Cell) []*Cell { return GetSeries(Vertical, cell) }

// reseat walks the current sentinel as far as possible in the given
// direction, so a stale sentinel (spliced away from the true edge) is
// corrected lazily.
func reseat(cell *Cell, d Direction) *Cell {
	if cell == nil {
		return nil
	}
	for cell.Neighbor(d) != nil {
		cell = cell.Neighbor(d)
	}
	return cell
}

// TopRow returns the table's current top row.
func (t *Table) TopRow() []*Cell {
	t.top = reseat(t.top, North)
	return t.Row(t.top)
}

// BottomRow returns the table's current bottom row.
func (t *Table) BottomRow() []*Cell {
	t.bot = reseat(t.bot, South)
	return t.Row(t.bot)
}

// LeftColumn returns the table's current left column.
func (t *Table) LeftColumn() []*Cell {
	t.left = reseat(t.left, West)
	return t.Column(t.left)
}

// RightColumn returns the table's current right column.
func (t *Table) RightColumn() []*Cell {
	t.right = reseat(t.right, East)
	return t.Column(t.right)
}

// RowCount returns the number of rows in the table.
func (t *Table) RowCount() int { return len(t.LeftColumn()) }

// ColCount returns the number of columns in the table.
func (t *Table) ColCount() int { return len(t.TopRow()) }

// AllCells returns every cell in the table, row-major.
func (t *Table) AllCells() [][]*Cell {
	rows := make([][]*Cell, 0, t.RowCount())
	for _, left := range t.LeftColumn() {
		rows = append(rows, t.Row(left))
	}
	return rows
}

// emptyCellBBox derives the bbox of an empty cell from its row's
// y-extent and its column's x-extent (§3).
func (t *Table) emptyCellBBox(cell *Cell) geom.BBox {
	row := t.Row(cell)
	col := t.Column(cell)

	var y0, y1 float64
	haveY := false
	for _, c := range row {
		if c.IsEmpty() {
			continue
		}
		b := c.bbox
		if !haveY {
			y0, y1 = b.Y0, b.Y1
			haveY = true
		} else {
			if b.Y0 < y0 {
				y0 = b.Y0
			}
			if b.Y1 > y1 {
				y1 = b.Y1
			}
		}
	}

	var x0, x1 float64
	haveX := false
	for _, c := range col {
		if c.IsEmpty() {
			continue
		}
		b := c.bbox
		if !haveX {
			x0, x1 = b.X0, b.X1
			haveX = true
		} else {
			if b.X0 < x0 {
				x0 = b.X0
			}
			if b.X1 > x1 {
				x1 = b.X1
			}
		}
	}

	return geom.New(x0, y0, x1, y1)
}

// Bbox returns the merge of all non-empty cells' bboxes, memoized per
// cell identity to speed repeated typing queries (§4.3). The cache key
// is the first cell of the slice, which is sufficient in practice since
// callers always re-derive the same series (a row or column) through
// the same anchor cell.
func (t *Table) Bbox(cells []*Cell) geom.BBox {
	if len(cells) == 0 {
		return geom.BBox{}
	}
	if cached, ok := t.bboxCache[cells[0]]; ok {
		return cached
	}
	var boxes []geom.BBox
	for _, c := range cells {
		if !c.IsEmpty() {
			boxes = append(boxes, c.BBox())
		}
	}
	var bbox geom.BBox
	if len(boxes) > 0 {
		bbox = geom.MergeAll(boxes)
	}
	t.bboxCache[cells[0]] = bbox
	return bbox
}

// invalidateCache drops memoized bboxes; called after any splice since
// row/column membership (and therefore empty-cell derivation) may have
// changed.
func (t *Table) invalidateCache() {
	t.bboxCache = make(map[*Cell]geom.BBox)
}

// Insert splices newCells into the table in direction d, parallel to
// reference (an existing row if d is North/South, an existing column if
// d is East/West). Both slices must have equal, non-zero length and
// newCells must form a valid line in the normal orientation (pairwise
// overlap of the kind the *new* line's own rows/columns require): a
// new row's cells pairwise h-overlap (share a horizontal band), a new
// column's cells pairwise v-overlap (share a vertical band).
func (t *Table) Insert(d Direction, reference []*Cell, newCells []*Cell) error {
	if len(reference) == 0 || len(newCells) == 0 {
		return fmt.Errorf("table: insert requires non-empty reference and new cells")
	}
	if len(reference) != len(newCells) {
		return fmt.Errorf("table: insert length mismatch: reference=%d new=%d", len(reference), len(newCells))
	}

	lineDir := East
	overlapFn := geom.IsHOverlap
	if d == East || d == West {
		lineDir = South
		overlapFn = geom.IsVOverlap
	}

	for i := 0; i < len(newCells)-1; i++ {
		a, b := newCells[i], newCells[i+1]
		if a.IsEmpty() || b.IsEmpty() {
			continue
		}
		if !overlapFn(a.BBox(), b.BBox(), 0) {
			return fmt.Errorf("table: new cells at index %d/%d do not form a valid line", i, i+1)
		}
	}

	for i := 0; i < len(newCells)-1; i++ {
		newCells[i].SetNeighbor(lineDir, newCells[i+1])
	}

	for i := range reference {
		reference[i].SetNeighbor(d, newCells[i])
		newCells[i].table = t
	}

	t.reseatSentinels()
	t.invalidateCache()
	return nil
}

// reseatSentinels re-seats all four sentinels to the table's current
// extremal cells; called after any structural mutation.
func (t *Table) reseatSentinels() {
	t.top = reseat(t.top, North)
	t.bot = reseat(t.bot, South)
	t.left = reseat(t.left, West)
	t.right = reseat(t.right, East)
}
