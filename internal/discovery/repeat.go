// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package discovery

import (
	"regexp"
	"sort"
	"strings"

	"github.com/patrickbr/pdf2gtfs/internal/config"
	"github.com/patrickbr/pdf2gtfs/internal/geom"
	"github.com/patrickbr/pdf2gtfs/internal/table"
)

var repeatValueRe = regexp.MustCompile(`^\d{1,3}(-\d{1,3})?$`)

// InsertRepeats searches the pool of "other" cells for
// identifier/value/identifier triples forming a repeat column (§4.5
// step 2) and splices each one found into t as a new column between
// the two adjacent data columns it separates. Triples stacked
// vertically (the common case) become one new column populated at the
// three rows their cells align with; triples laid out on a single line
// (the "horizontal analogue") become three single-row new columns, a
// transpose of the vertical case.
func InsertRepeats(t *table.Table, pool []*table.Cell, cfg *config.Config) []*table.Cell {
	used := map[*table.Cell]bool{}

	for _, triple := range findVerticalTriples(pool, cfg) {
		if insertVerticalRepeat(t, triple) {
			for _, c := range triple {
				used[c] = true
			}
		}
	}
	for _, triple := range findHorizontalTriples(pool, cfg) {
		if anyUsed(triple, used) {
			continue
		}
		if insertHorizontalRepeat(t, triple) {
			for _, c := range triple {
				used[c] = true
			}
		}
	}

	remaining := pool[:0:0]
	for _, c := range pool {
		if !used[c] {
			remaining = append(remaining, c)
		}
	}
	return remaining
}

func anyUsed(triple [3]*table.Cell, used map[*table.Cell]bool) bool {
	for _, c := range triple {
		if used[c] {
			return true
		}
	}
	return false
}

func isRepeatIdentText(text string, cfg *config.Config) bool {
	for _, pair := range cfg.RepeatIdentifier {
		if strings.EqualFold(text, pair[0]) || strings.EqualFold(text, pair[1]) {
			return true
		}
	}
	return false
}

// findVerticalTriples clusters pool cells into narrow-column groups
// (v-overlap) and scans each, sorted top-to-bottom, for three
// consecutive cells matching ident/value/ident.
func findVerticalTriples(pool []*table.Cell, cfg *config.Config) [][3]*table.Cell {
	clusters := clusterByOverlap(pool, func(a, b *table.Cell) bool {
		return geom.IsVOverlap(a.BBox(), b.BBox(), 0.5)
	}, func(c *table.Cell) float64 { return c.BBox().X0 })

	var triples [][3]*table.Cell
	for _, cluster := range clusters {
		sort.Slice(cluster, func(i, j int) bool { return cluster[i].BBox().Y0 < cluster[j].BBox().Y0 })
		for i := 0; i+2 < len(cluster); i++ {
			a, b, c := cluster[i], cluster[i+1], cluster[i+2]
			if isRepeatIdentText(a.Text(), cfg) && repeatValueRe.MatchString(strings.TrimSpace(b.Text())) && isRepeatIdentText(c.Text(), cfg) {
				triples = append(triples, [3]*table.Cell{a, b, c})
			}
		}
	}
	return triples
}

// findHorizontalTriples is the row-wise analogue of findVerticalTriples.
func findHorizontalTriples(pool []*table.Cell, cfg *config.Config) [][3]*table.Cell {
	clusters := clusterByOverlap(pool, func(a, b *table.Cell) bool {
		return geom.IsHOverlap(a.BBox(), b.BBox(), 0.5)
	}, func(c *table.Cell) float64 { return c.BBox().Y0 })

	var triples [][3]*table.Cell
	for _, cluster := range clusters {
		sort.Slice(cluster, func(i, j int) bool { return cluster[i].BBox().X0 < cluster[j].BBox().X0 })
		for i := 0; i+2 < len(cluster); i++ {
			a, b, c := cluster[i], cluster[i+1], cluster[i+2]
			if isRepeatIdentText(a.Text(), cfg) && repeatValueRe.MatchString(strings.TrimSpace(b.Text())) && isRepeatIdentText(c.Text(), cfg) {
				triples = append(triples, [3]*table.Cell{a, b, c})
			}
		}
	}
	return triples
}

// nearestRow returns the index of the table row whose h-band (as
// spanned by its non-empty cells) best overlaps cell's bbox.
func nearestRow(rows [][]*table.Cell, cell *table.Cell) int {
	best, bestOverlap := -1, -1.0
	for i, row := range rows {
		var box geom.BBox
		have := false
		for _, c := range row {
			if c.IsEmpty() {
				continue
			}
			if !have {
				box, have = c.BBox(), true
			} else {
				box = geom.Merge(box, c.BBox())
			}
		}
		if !have {
			continue
		}
		ov := geom.HOverlap(box, cell.BBox())
		if ov > bestOverlap {
			bestOverlap = ov
			best = i
		}
	}
	return best
}

// nearestColGap returns the column index at which a new column should
// be inserted (East of cols[idx-1], i.e. via table.Insert with d=East
// against the left column) so that the new column sits between the two
// data columns whose x-extent brackets cell's bbox.
func nearestColGap(cols [][]*table.Cell, cell *table.Cell) int {
	x := (cell.BBox().X0 + cell.BBox().X1) / 2
	for i := 0; i < len(cols)-1; i++ {
		leftX := colRightEdge(cols[i])
		rightX := colLeftEdge(cols[i+1])
		if x >= leftX && x <= rightX {
			return i
		}
	}
	if len(cols) > 0 {
		return 0
	}
	return -1
}

func colRightEdge(col []*table.Cell) float64 {
	best := 0.0
	have := false
	for _, c := range col {
		if c.IsEmpty() {
			continue
		}
		if !have || c.BBox().X1 > best {
			best, have = c.BBox().X1, true
		}
	}
	return best
}

func colLeftEdge(col []*table.Cell) float64 {
	best := 0.0
	have := false
	for _, c := range col {
		if c.IsEmpty() {
			continue
		}
		if !have || c.BBox().X0 < best {
			best, have = c.BBox().X0, true
		}
	}
	return best
}

// insertVerticalRepeat inserts triple as a single new column, populated
// at the three rows its cells individually align with.
func insertVerticalRepeat(t *table.Table, triple [3]*table.Cell) bool {
	rows := t.AllCells()
	if len(rows) == 0 {
		return false
	}
	cols := transposeCols(rows)
	gap := nearestColGap(cols, triple[0])
	if gap < 0 {
		return false
	}

	newCol := make([]*table.Cell, len(rows))
	for i := range newCol {
		newCol[i] = table.NewEmpty()
	}
	for _, c := range triple {
		r := nearestRow(rows, c)
		if r < 0 {
			return false
		}
		newCol[r] = c
	}

	reference := cols[gap]
	return t.Insert(table.East, reference, newCol) == nil
}

// insertHorizontalRepeat inserts triple as three single-row new
// columns, the transpose of the vertical case.
func insertHorizontalRepeat(t *table.Table, triple [3]*table.Cell) bool {
	rows := t.AllCells()
	if len(rows) == 0 {
		return false
	}
	r := nearestRow(rows, triple[0])
	if r < 0 {
		return false
	}
	cols := transposeCols(rows)
	gap := nearestColGap(cols, triple[0])
	if gap < 0 {
		return false
	}
	reference := cols[gap]

	ok := true
	for _, c := range triple {
		newCol := make([]*table.Cell, len(rows))
		for i := range newCol {
			newCol[i] = table.NewEmpty()
		}
		newCol[r] = c
		if err := t.Insert(table.East, reference, newCol); err != nil {
			ok = false
			break
		}
		rows = t.AllCells()
		cols = transposeCols(rows)
		reference = newCol
	}
	return ok
}

func transposeCols(rows [][]*table.Cell) [][]*table.Cell {
	if len(rows) == 0 {
		return nil
	}
	cols := make([][]*table.Cell, len(rows[0]))
	for c := range cols {
		cols[c] = make([]*table.Cell, len(rows))
		for r := range rows {
			cols[c][r] = rows[r][c]
		}
	}
	return cols
}
