// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package discovery

import (
	"github.com/patrickbr/pdf2gtfs/internal/table"
)

// Split partitions a fully typed, grown table into one sub-table per
// contiguous run of data columns between splitter columns (§4.5 step
// 4). A splitter column is one whose majority inferred type is Days or
// EntryAnnotIdent: these mark the boundary between trip columns that
// run under different day patterns or carry a distinct annotation. Any
// leading columns that contain no Data cells at all (stop name, stop
// annotation, legend columns) are shared by every resulting sub-table.
func Split(t *table.Table) []*table.Table {
	cols := transposeCols(t.AllCells())
	if len(cols) == 0 {
		return []*table.Table{t}
	}

	isSplitter := make([]bool, len(cols))
	hasData := make([]bool, len(cols))
	for i, col := range cols {
		isSplitter[i] = majorityType(col, table.Days) || majorityType(col, table.EntryAnnotIdent)
		hasData[i] = containsType(col, table.Data)
	}

	firstData := -1
	for i, v := range hasData {
		if v {
			firstData = i
			break
		}
	}
	if firstData < 0 {
		return []*table.Table{t}
	}

	var groups [][]int
	var cur []int
	for i := firstData; i < len(cols); i++ {
		if isSplitter[i] {
			if len(cur) > 0 {
				groups = append(groups, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, i)
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	if len(groups) <= 1 {
		return []*table.Table{t}
	}

	leading := make([]int, firstData)
	for i := range leading {
		leading[i] = i
	}

	rows := t.AllCells()
	var tables []*table.Table
	for _, g := range groups {
		colIdx := append(append([]int{}, leading...), g...)
		grid := make([][]*table.Cell, len(rows))
		for r, row := range rows {
			grid[r] = make([]*table.Cell, len(colIdx))
			for j, c := range colIdx {
				grid[r][j] = row[c]
			}
		}
		sub, err := table.NewFromGrid(grid)
		if err != nil {
			continue
		}
		tables = append(tables, sub)
	}
	if len(tables) == 0 {
		return []*table.Table{t}
	}
	return tables
}

func majorityType(col []*table.Cell, want table.CellType) bool {
	count, nonEmpty := 0, 0
	for _, c := range col {
		if c.IsEmpty() {
			continue
		}
		nonEmpty++
		if c.Inferred == want {
			count++
		}
	}
	return nonEmpty > 0 && count*2 > nonEmpty
}

func containsType(col []*table.Cell, want table.CellType) bool {
	for _, c := range col {
		if c.Inferred == want {
			return true
		}
	}
	return false
}
