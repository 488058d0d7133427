package discovery

import (
	"testing"

	"github.com/patrickbr/pdf2gtfs/internal/config"
	"github.com/patrickbr/pdf2gtfs/internal/geom"
	"github.com/patrickbr/pdf2gtfs/internal/table"
)

func cellAt(text string, x0, y0, x1, y1 float64) *table.Cell {
	return table.New(text, geom.New(x0, y0, x1, y1), "F1", 10)
}

func TestSeedBuildsRectangularGrid(t *testing.T) {
	data := []*table.Cell{
		cellAt("07:00", 100, 0, 130, 10),
		cellAt("07:10", 150, 0, 180, 10),
		cellAt("08:00", 100, 20, 130, 30),
		cellAt("08:10", 150, 20, 180, 30),
	}
	tbl, err := Seed(data)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if tbl.RowCount() != 2 || tbl.ColCount() != 2 {
		t.Fatalf("expected 2x2 table, got %dx%d", tbl.RowCount(), tbl.ColCount())
	}
}

func TestExpandAddsStopColumn(t *testing.T) {
	data := []*table.Cell{
		cellAt("07:00", 100, 0, 130, 10),
		cellAt("08:00", 100, 20, 130, 30),
	}
	tbl, err := Seed(data)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	pool := []*table.Cell{
		cellAt("Main St", 0, 0, 80, 10),
		cellAt("Elm St", 0, 20, 80, 30),
	}

	remaining := Expand(tbl, pool)
	if len(remaining) != 0 {
		t.Fatalf("expected both stop cells consumed, %d left", len(remaining))
	}
	if tbl.ColCount() != 2 {
		t.Fatalf("expected a new stop column, got %d cols", tbl.ColCount())
	}
	row0 := tbl.TopRow()
	if row0[0].Text() != "Main St" {
		t.Errorf("expected stop column spliced to the West, got %q", row0[0].Text())
	}
}

func TestInsertRepeatsSplicesVerticalTriple(t *testing.T) {
	cfg := config.NewDefault()
	cfg.RepeatIdentifier = [][2]string{{"alle", "Min."}}

	data := []*table.Cell{
		cellAt("07:00", 100, 0, 130, 10),
		cellAt("09:00", 300, 0, 330, 10),
	}
	tbl, err := Seed(data)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	triple := []*table.Cell{
		cellAt("alle", 200, -5, 230, 0),
		cellAt("10", 200, 2, 230, 8),
		cellAt("Min.", 200, 10, 230, 15),
	}

	remaining := InsertRepeats(tbl, triple, cfg)
	if len(remaining) != 0 {
		t.Fatalf("expected the triple to be consumed, %d left", len(remaining))
	}
	if tbl.ColCount() != 3 {
		t.Fatalf("expected a new repeat column, got %d cols", tbl.ColCount())
	}
}

func TestSplitOnDaysColumn(t *testing.T) {
	data := []*table.Cell{
		cellAt("07:00", 100, 0, 130, 10),
		cellAt("07:10", 300, 0, 330, 10),
	}
	tbl, err := Seed(data)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	stop := cellAt("Main St", 0, 0, 80, 10)
	Expand(tbl, []*table.Cell{stop})

	row := tbl.TopRow()
	for _, c := range row {
		c.Inferred = table.Data
	}
	// synthesize a splitter column in between the two data columns by
	// splicing a Days cell to the east of the first data column.
	daysCell := cellAt("Mo-Fr", 150, 0, 250, 10)
	daysCell.Inferred = table.Days
	if err := tbl.Insert(table.East, []*table.Cell{row[1]}, []*table.Cell{daysCell}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	sub := Split(tbl)
	if len(sub) != 2 {
		t.Fatalf("expected split into 2 sub-tables, got %d", len(sub))
	}
}

func TestRepairStopNamesMergesContinuation(t *testing.T) {
	row0 := []*table.Cell{cellAt("Main", 0, 0, 80, 10), cellAt("07:00", 100, 0, 130, 10)}
	row0[0].Inferred = table.Stop
	row0[1].Inferred = table.Data

	cont := cellAt("Street", 0, 11, 80, 20)
	cont.Inferred = table.Stop
	row1 := []*table.Cell{cont, table.NewEmpty()}

	grid := [][]*table.Cell{row0, row1}
	tbl, err := table.NewFromGrid(grid)
	if err != nil {
		t.Fatalf("NewFromGrid: %v", err)
	}

	repaired, err := RepairStopNames(tbl)
	if err != nil {
		t.Fatalf("RepairStopNames: %v", err)
	}
	if repaired.RowCount() != 1 {
		t.Fatalf("expected continuation row dropped, got %d rows", repaired.RowCount())
	}
	if got := repaired.TopRow()[0].Text(); got != "Main Street" {
		t.Errorf("expected merged stop name %q, got %q", "Main Street", got)
	}
}
