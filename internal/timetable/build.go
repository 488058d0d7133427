// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package timetable

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/patrickbr/pdf2gtfs/internal/config"
	"github.com/patrickbr/pdf2gtfs/internal/table"
	"github.com/patrickbr/pdf2gtfs/internal/timeparse"
)

var repeatIntervalRe = regexp.MustCompile(`(\d{1,3})(?:-(\d{1,3}))?`)

// Build projects a typed, grown and split table into a Timetable
// (§4.6). The table must already have been through discovery.Split, so
// every column here belongs to a single service pattern.
func Build(t *table.Table, cfg *config.Config) *Timetable {
	rows := t.AllCells()
	cols := transposeCols(rows)

	stopCol := -1
	for i, col := range cols {
		if majorityType(col, table.Stop) {
			stopCol = i
			break
		}
	}

	tt := &Timetable{}
	if stopCol < 0 {
		return tt
	}

	tt.Stops = make([]Stop, len(rows))
	for r, row := range rows {
		s := Stop{Name: row[stopCol].Text()}
		if annot := stopRowAnnot(row, stopCol, cfg); annot != "" {
			s.Annot = annot
			s.IsArrival = matchesAny(annot, cfg.ArrivalIdentifier)
			s.IsDeparture = matchesAny(annot, cfg.DepartureIdentifier)
		}
		tt.Stops[r] = s
	}

	for i, col := range cols {
		if i == stopCol || !containsType(col, table.Data) {
			continue
		}
		tt.Entries = append(tt.Entries, buildEntry(rows, col, i, cfg))
	}

	markConnections(tt)
	return tt
}

// stopRowAnnot looks for a StopAnnot cell in the same row, adjacent to
// the stop column, and returns its text.
func stopRowAnnot(row []*table.Cell, stopCol int, cfg *config.Config) string {
	if stopCol+1 < len(row) && row[stopCol+1].Inferred == table.StopAnnot {
		return strings.TrimSpace(row[stopCol+1].Text())
	}
	if stopCol > 0 && row[stopCol-1].Inferred == table.StopAnnot {
		return strings.TrimSpace(row[stopCol-1].Text())
	}
	return ""
}

func matchesAny(text string, candidates []string) bool {
	for _, c := range candidates {
		if strings.EqualFold(text, c) {
			return true
		}
	}
	return false
}

func buildEntry(rows [][]*table.Cell, col []*table.Cell, colIdx int, cfg *config.Config) Entry {
	var e Entry
	e.Weekdays = allWeekdaysMask()

	for r, c := range col {
		switch c.Inferred {
		case table.Data:
			if mins, ok := timeparse.Parse(c.Text(), cfg.TimeFormat); ok {
				e.Times = append(e.Times, TimeEntry{StopIndex: r, Minutes: mins})
			}
		case table.Days:
			if w, ok := ParseWeekdays(c.Text(), cfg); ok {
				e.Weekdays = w
			}
		case table.RouteAnnotValue:
			e.RouteAnnot = appendAnnot(e.RouteAnnot, c.Text())
		case table.EntryAnnotValue:
			e.EntryAnnot = appendAnnot(e.EntryAnnot, c.Text())
		case table.RepeatValue:
			if iv, ok := parseRepeatInterval(c.Text()); ok {
				e.Repeat = append(e.Repeat, iv)
				e.RepeatLeft = len(e.Times) - 1
			}
		}
	}
	return e
}

func appendAnnot(cur, add string) string {
	add = strings.TrimSpace(add)
	if add == "" {
		return cur
	}
	if cur == "" {
		return add
	}
	return cur + "; " + add
}

// allWeekdaysMask is the default when a column carries no Days cell: the
// entry runs every day, and GTFS construction uses the mask as is.
func allWeekdaysMask() Weekdays { return 0b1111111 }

func parseRepeatInterval(text string) (RepeatInterval, bool) {
	m := repeatIntervalRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return RepeatInterval{}, false
	}
	lo, _ := strconv.Atoi(m[1])
	hi := lo
	if m[2] != "" {
		hi, _ = strconv.Atoi(m[2])
	}
	return RepeatInterval{Low: lo, High: hi}, true
}

// markConnections flags every stop that sits strictly between the
// first and last occurrence of some other stop name in the table's
// ordered stop list (§4.6): when a name recurs at indices i0 < i1,
// every stop at an index strictly between i0 and i1 is only being
// passed through on the way back to a stop the route already served,
// and is flagged as IsConnection regardless of whether its own name is
// also repeated elsewhere - unless i0, i1 span the whole stop list,
// which is a legitimate round-trip rather than a mid-route detour. For
// example [A, B, C, B, D] marks only C, since it falls strictly
// between the two visits to B.
func markConnections(tt *Timetable) {
	n := len(tt.Stops)
	first := map[string]int{}
	last := map[string]int{}
	for i, s := range tt.Stops {
		if _, ok := first[s.Name]; !ok {
			first[s.Name] = i
		}
		last[s.Name] = i
	}

	for i := range tt.Stops {
		for name, fi := range first {
			li := last[name]
			if fi == 0 && li == n-1 {
				continue // full-length round-trip, not a detour
			}
			if fi < i && i < li {
				tt.Stops[i].IsConnection = true
				break
			}
		}
	}
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
