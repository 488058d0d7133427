// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package discovery

import (
	"github.com/patrickbr/pdf2gtfs/internal/geom"
	"github.com/patrickbr/pdf2gtfs/internal/table"
)

// overlapFrac is the minimum overlap fraction a candidate other-cell
// must have with the corresponding edge cell to be spliced in during
// expansion (§4.5 step 3).
const overlapFrac = 0.66

// Expand grows t in all four directions using the pool of "other"
// cells (non-data cells from §4.2) until no direction yields a new
// row/column. Consumed cells are removed from the pool as they are
// spliced in, so a cell is used at most once.
func Expand(t *table.Table, pool []*table.Cell) []*table.Cell {
	directions := []table.Direction{table.North, table.South, table.East, table.West}

	progress := true
	for progress {
		progress = false
		for _, d := range directions {
			var added bool
			pool, added = expandOnce(t, pool, d)
			if added {
				progress = true
			}
		}
	}
	return pool
}

// expandOnce attempts a single new row/column in direction d, returning
// the (possibly reduced) candidate pool and whether a row/column was
// added.
func expandOnce(t *table.Table, pool []*table.Cell, d table.Direction) ([]*table.Cell, bool) {
	edge := edgeSeries(t, d)
	if len(edge) == 0 {
		return pool, false
	}
	bound := computeBound(edge, d)

	overlapFn := geom.IsHOverlap
	if d == table.North || d == table.South {
		overlapFn = geom.IsVOverlap
	}

	newLine := make([]*table.Cell, len(edge))
	used := make(map[int]bool)

	for i, edgeCell := range edge {
		if edgeCell.IsEmpty() {
			newLine[i] = table.NewEmpty()
			continue
		}
		bestIdx := -1
		bestOverlap := 0.0
		for j, cand := range pool {
			if used[j] || !onCorrectSide(cand, bound, d) {
				continue
			}
			if !overlapFn(cand.BBox(), edgeCell.BBox(), overlapFrac) {
				continue
			}
			ov := overlapMagnitude(cand, edgeCell, d)
			if ov > bestOverlap {
				bestOverlap = ov
				bestIdx = j
			}
		}
		if bestIdx >= 0 {
			newLine[i] = pool[bestIdx]
			used[bestIdx] = true
		} else {
			newLine[i] = table.NewEmpty()
		}
	}

	if len(used) == 0 {
		return pool, false
	}

	if err := t.Insert(d, edge, newLine); err != nil {
		// The candidates didn't form a valid line (e.g. misaligned
		// overlaps); skip this direction for this round rather than
		// failing table discovery entirely.
		return pool, false
	}

	remaining := pool[:0:0]
	for j, c := range pool {
		if !used[j] {
			remaining = append(remaining, c)
		}
	}
	return remaining, true
}

func edgeSeries(t *table.Table, d table.Direction) []*table.Cell {
	switch d {
	case table.North:
		return t.TopRow()
	case table.South:
		return t.BottomRow()
	case table.East:
		return t.RightColumn()
	default:
		return t.LeftColumn()
	}
}

// computeBound computes the extremal coordinate of the edge in
// direction d: the boundary beyond which a candidate cell must lie to
// be considered for splicing (§4.5 step 3).
func computeBound(edge []*table.Cell, d table.Direction) float64 {
	first := true
	var bound float64
	for _, c := range edge {
		if c.IsEmpty() {
			continue
		}
		b := c.BBox()
		var v float64
		switch d {
		case table.North:
			v = b.Y0
		case table.South:
			v = b.Y1
		case table.East:
			v = b.X1
		default:
			v = b.X0
		}
		if first {
			bound, first = v, false
			continue
		}
		switch d {
		case table.North, table.West:
			if v < bound {
				bound = v
			}
		default:
			if v > bound {
				bound = v
			}
		}
	}
	return bound
}

func onCorrectSide(cand *table.Cell, bound float64, d table.Direction) bool {
	b := cand.BBox()
	switch d {
	case table.North:
		return b.Y1 <= bound
	case table.South:
		return b.Y0 >= bound
	case table.East:
		return b.X0 >= bound
	default:
		return b.X1 <= bound
	}
}

func overlapMagnitude(a, b *table.Cell, d table.Direction) float64 {
	if d == table.North || d == table.South {
		return geom.VOverlap(a.BBox(), b.BBox())
	}
	return geom.HOverlap(a.BBox(), b.BBox())
}
