package table

import (
	"testing"

	"github.com/patrickbr/pdf2gtfs/internal/config"
	"github.com/patrickbr/pdf2gtfs/internal/geom"
)

func TestPhase1Time(t *testing.T) {
	ty := NewTyper(config.NewDefault())
	c := New("07:30", geom.New(0, 0, 10, 10), "F1", 10)
	probs := ty.phase1(c)
	if probs.Inferred() != Data {
		t.Errorf("expected Data to win for a time cell, got %v", probs.Inferred())
	}
}

func TestPhase1DaysHeader(t *testing.T) {
	ty := NewTyper(config.NewDefault())
	c := New("Montag-Freitag", geom.New(0, 0, 10, 10), "F1", 10)
	probs := ty.phase1(c)
	if probs.Inferred() != Days {
		t.Errorf("expected Days to win, got %v", probs.Inferred())
	}
}

func TestPhase1FallbackNormalizes(t *testing.T) {
	ty := NewTyper(config.NewDefault())
	c := New("Hauptbahnhof", geom.New(0, 0, 10, 10), "F1", 10)
	probs := ty.phase1(c)
	var sum float64
	for _, p := range probs {
		sum += p
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("expected normalized distribution summing to 1, got %v", sum)
	}
	if probs[Other] <= probs[Stop] {
		t.Errorf("expected Other to carry double weight over Stop in fallback, got Other=%v Stop=%v", probs[Other], probs[Stop])
	}
}

func TestStopColumnInference(t *testing.T) {
	cfg := config.NewDefault()
	ty := NewTyper(cfg)

	g := [][]*Cell{
		{New("Hauptbahnhof", geom.New(0, 0, 40, 10), "F1", 10), New("07:00", geom.New(50, 0, 70, 10), "F1", 10)},
		{New("Rathaus", geom.New(0, 20, 40, 30), "F1", 10), New("07:05", geom.New(50, 20, 70, 30), "F1", 10)},
	}
	tb, err := NewFromGrid(g)
	if err != nil {
		t.Fatal(err)
	}
	ty.TypeTable(tb)

	if g[0][0].Inferred != Stop {
		t.Errorf("expected Stop, got %v", g[0][0].Inferred)
	}
	if g[0][1].Inferred != Data {
		t.Errorf("expected Data, got %v", g[0][1].Inferred)
	}
}

func TestRepeatValueRequiresSandwich(t *testing.T) {
	cfg := config.NewDefault()
	ty := NewTyper(cfg)

	g := [][]*Cell{
		{
			New("07:00", geom.New(0, 0, 10, 10), "F1", 10),
			New("alle", geom.New(20, 0, 30, 10), "F1", 10),
			New("10", geom.New(40, 0, 50, 10), "F1", 10),
			New("alle", geom.New(60, 0, 70, 10), "F1", 10),
			New("08:00", geom.New(80, 0, 90, 10), "F1", 10),
		},
	}
	tb, err := NewFromGrid(g)
	if err != nil {
		t.Fatal(err)
	}
	ty.TypeTable(tb)

	if g[0][2].Inferred != RepeatValue {
		t.Errorf("expected RepeatValue for the sandwiched cell, got %v", g[0][2].Inferred)
	}
	if g[0][1].Inferred != RepeatIdentifier {
		t.Errorf("expected RepeatIdentifier, got %v", g[0][1].Inferred)
	}
}
