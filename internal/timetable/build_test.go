package timetable

import (
	"testing"

	"github.com/patrickbr/pdf2gtfs/internal/config"
	"github.com/patrickbr/pdf2gtfs/internal/geom"
	"github.com/patrickbr/pdf2gtfs/internal/table"
)

func cell(text string, typ table.CellType) *table.Cell {
	c := table.New(text, geom.New(0, 0, 10, 10), "F1", 10)
	c.Inferred = typ
	return c
}

func TestParseWeekdays(t *testing.T) {
	cfg := config.NewDefault()
	w, ok := ParseWeekdays("Montag-Freitag", cfg)
	if !ok {
		t.Fatal("expected Montag-Freitag to resolve")
	}
	for d := 0; d < 5; d++ {
		if !w.Runs(d) {
			t.Errorf("expected weekday %d to run", d)
		}
	}
	if w.Runs(5) || w.Runs(6) {
		t.Error("expected weekend not to run")
	}
}

func TestBuildSimpleEntry(t *testing.T) {
	cfg := config.NewDefault()
	grid := [][]*table.Cell{
		{cell("Main St", table.Stop), cell("Mo-Fr", table.Days)},
		{cell("Elm St", table.Stop), cell("07:10", table.Data)},
	}
	grid[0][1].Inferred = table.Days
	grid[0][1] = cell("montag-freitag", table.Days)
	grid[1][0] = cell("Elm St", table.Stop)

	tbl, err := table.NewFromGrid(grid)
	if err != nil {
		t.Fatalf("NewFromGrid: %v", err)
	}

	tt := Build(tbl, cfg)
	if len(tt.Stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(tt.Stops))
	}
	if len(tt.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(tt.Entries))
	}
	if len(tt.Entries[0].Times) != 1 || tt.Entries[0].Times[0].Minutes != 7*60+10 {
		t.Fatalf("unexpected times: %+v", tt.Entries[0].Times)
	}
}

func TestMarkConnectionsFlagsStopPassedBetweenRevisits(t *testing.T) {
	// [A, B, C, B, D]: C sits strictly between the two visits to B, so
	// only C is a connection. Neither visit to B, nor A, nor D, is.
	tt := &Timetable{
		Stops: []Stop{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "B"}, {Name: "D"}},
	}
	markConnections(tt)

	want := []bool{false, false, true, false, false}
	for i, s := range tt.Stops {
		if s.IsConnection != want[i] {
			t.Errorf("stop %d (%s): IsConnection = %v, want %v", i, s.Name, s.IsConnection, want[i])
		}
	}
}

func TestMarkConnectionsExemptsFullRouteRoundTrip(t *testing.T) {
	// [A, B, C, A]: A's span covers the whole stop list, a legitimate
	// round trip, not a mid-route detour, so nothing is flagged.
	tt := &Timetable{
		Stops: []Stop{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "A"}},
	}
	markConnections(tt)
	for i, s := range tt.Stops {
		if s.IsConnection {
			t.Errorf("stop %d (%s): expected no connection for a full-route round trip", i, s.Name)
		}
	}
}

func TestMarkConnectionsNoRepeats(t *testing.T) {
	tt := &Timetable{
		Stops: []Stop{{Name: "A"}, {Name: "B"}, {Name: "C"}},
	}
	markConnections(tt)
	for i, s := range tt.Stops {
		if s.IsConnection {
			t.Errorf("stop %d (%s): expected no connection without a revisit", i, s.Name)
		}
	}
}
