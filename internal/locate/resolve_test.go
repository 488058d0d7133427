package locate

import (
	"testing"

	"github.com/patrickbr/pdf2gtfs/internal/config"
	"github.com/patrickbr/pdf2gtfs/internal/osmprep"
)

func TestResolveChoosesNearestChain(t *testing.T) {
	cfg := config.NewDefault()
	cfg.MinTravelDistance = 1

	stops := []StopCandidates{
		{StopName: "A", Candidates: []osmprep.Candidate{
			{Node: osmprep.Node{Lat: 50.0, Lon: 8.0}, NameCost: 0, NodeCost: 0},
		}},
		{StopName: "B", Candidates: []osmprep.Candidate{
			// ~557m from A: inside the default [375m, 3125m] travel
			// band (25km/h bus speed, 3min offset), so this edge
			// exists and is by far the cheaper of the two.
			{Node: osmprep.Node{Lat: 50.005, Lon: 8.0}, NameCost: 0, NodeCost: 0},
			{Node: osmprep.Node{Lat: 55.0, Lon: 20.0}, NameCost: 0, NodeCost: 0},
		}},
	}

	results := Resolve(stops, cfg)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Lat != 50.005 {
		t.Errorf("expected the close candidate to win, got %+v", results[1])
	}
}

func TestResolveMissingStopGetsInterpolated(t *testing.T) {
	cfg := config.NewDefault()
	cfg.MinTravelDistance = 1

	stops := []StopCandidates{
		{StopName: "A", Candidates: []osmprep.Candidate{{Node: osmprep.Node{Lat: 50.0, Lon: 8.0}}}},
		{StopName: "B", Candidates: nil},
		{StopName: "C", Candidates: []osmprep.Candidate{{Node: osmprep.Node{Lat: 50.002, Lon: 8.002}}}},
	}

	results := Resolve(stops, cfg)
	if !results[1].Interpolated {
		t.Errorf("expected the missing stop to be interpolated: %+v", results[1])
	}
	if results[1].Lat <= 50.0 || results[1].Lat >= 50.002 {
		t.Errorf("expected interpolated lat between neighbors, got %v", results[1].Lat)
	}
}

func TestResolveRejectsCandidateOutsideTravelBand(t *testing.T) {
	cfg := config.NewDefault()
	cfg.MinTravelDistance = 1

	// Only candidate for B is ~132m from A, well under the default
	// 375m lower bound (25km/h bus speed, 3min offset), so the edge
	// must not exist and B is left without a location.
	stops := []StopCandidates{
		{StopName: "A", Candidates: []osmprep.Candidate{
			{Node: osmprep.Node{Lat: 50.0, Lon: 8.0}},
		}},
		{StopName: "B", Candidates: []osmprep.Candidate{
			{Node: osmprep.Node{Lat: 50.001, Lon: 8.001}},
		}},
	}

	results := Resolve(stops, cfg)
	if results[1].MissingReason == "" {
		t.Errorf("expected the too-close candidate to be rejected by the travel band, got %+v", results[1])
	}
}

func TestResolveDisableCloseNodeCheckSkipsTravelBand(t *testing.T) {
	cfg := config.NewDefault()
	cfg.MinTravelDistance = 1
	cfg.DisableCloseNodeCheck = true

	stops := []StopCandidates{
		{StopName: "A", Candidates: []osmprep.Candidate{
			{Node: osmprep.Node{Lat: 50.0, Lon: 8.0}},
		}},
		{StopName: "B", Candidates: []osmprep.Candidate{
			{Node: osmprep.Node{Lat: 50.001, Lon: 8.001}},
		}},
	}

	results := Resolve(stops, cfg)
	if results[1].MissingReason != "" {
		t.Errorf("expected DisableCloseNodeCheck to admit the close candidate, got %+v", results[1])
	}
}

func TestHeapOrdering(t *testing.T) {
	h := NewNodeHeap()
	a := &Node{Cost: Cost{NodeCost: 5}}
	b := &Node{Cost: Cost{NodeCost: 1}}
	c := &Node{Cost: Cost{NodeCost: 3}}
	h.Add(a)
	h.Add(b)
	h.Add(c)

	if got := h.Pop(); got != b {
		t.Errorf("expected lowest-cost node first")
	}
	if got := h.Pop(); got != c {
		t.Errorf("expected second-lowest next")
	}
	if got := h.Pop(); got != a {
		t.Errorf("expected highest-cost last")
	}
}
