// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package discovery

import (
	"strings"

	"github.com/patrickbr/pdf2gtfs/internal/table"
)

// RepairStopNames merges stop-name continuation rows into the previous
// data row (§4.5 step 5). A continuation row is one that carries a Stop
// cell but no Data cell anywhere - the PDF wrapped a long stop name onto
// a second physical line. Its text is appended to the nearest preceding
// row that does carry Data, and the continuation row is then dropped.
// Stop names that begin with "-" or "," are left as they are: they do
// not take over the locality of the stop above them.
func RepairStopNames(t *table.Table) (*table.Table, error) {
	rows := t.AllCells()
	stopCol := stopColumnIndex(rows)
	if stopCol < 0 {
		return t, nil
	}

	var kept [][]*table.Cell
	for _, row := range rows {
		if isContinuationRow(row, stopCol) && len(kept) > 0 {
			mergeStopText(kept[len(kept)-1][stopCol], row[stopCol])
			continue
		}
		kept = append(kept, row)
	}

	if len(kept) == len(rows) {
		return t, nil
	}
	return table.NewFromGrid(kept)
}

func stopColumnIndex(rows [][]*table.Cell) int {
	if len(rows) == 0 {
		return -1
	}
	cols := transposeCols(rows)
	for i, col := range cols {
		if majorityType(col, table.Stop) {
			return i
		}
	}
	return -1
}

func isContinuationRow(row []*table.Cell, stopCol int) bool {
	if row[stopCol].IsEmpty() {
		return false
	}
	for i, c := range row {
		if i == stopCol {
			continue
		}
		if c.Inferred == table.Data || c.Inferred == table.Time {
			return false
		}
	}
	return true
}

// mergeStopText joins a continuation cell's text onto prev's text in
// place; prev's bounding box is left unchanged.
func mergeStopText(prev, cont *table.Cell) {
	merged := strings.TrimSpace(prev.Text() + " " + cont.Text())
	prev.SetText(merged)
}
