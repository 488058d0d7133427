package osmprep

import (
	"testing"

	"github.com/patrickbr/pdf2gtfs/internal/config"
)

func TestNameCostExactMatch(t *testing.T) {
	cfg := config.NewDefault()
	if c := NameCost("Hauptstr.", "hauptstraße", cfg); c != 0 {
		t.Errorf("expected abbreviation-expanded exact match to cost 0, got %v", c)
	}
}

func TestNameCostNoMatch(t *testing.T) {
	cfg := config.NewDefault()
	if c := NameCost("Main St", "Elm Ave", cfg); c < 2 {
		t.Errorf("expected dissimilar names to cost more, got %v", c)
	}
}

func TestNodeCostKnownTag(t *testing.T) {
	cfg := config.NewDefault()
	n := Node{Tags: map[string]string{"highway": "bus_stop"}}
	if c := NodeCost(n, cfg); c != 0 {
		t.Errorf("expected a tagged bus stop to cost 0 for bus routes, got %v", c)
	}
}

func TestNodeCostUntagged(t *testing.T) {
	cfg := config.NewDefault()
	n := Node{Tags: map[string]string{"building": "yes"}}
	if c := NodeCost(n, cfg); c != untaggedNodeCost {
		t.Errorf("expected untagged node to get the fixed penalty, got %v", c)
	}
}

func TestCandidatesDropsNoMatch(t *testing.T) {
	cfg := config.NewDefault()
	nodes := []Node{
		{Name: "Main Street", Tags: map[string]string{"highway": "bus_stop"}},
		{Name: "Totally Unrelated", Tags: map[string]string{}},
	}
	cands := Candidates("Main Street", nodes, cfg)
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate to survive, got %d", len(cands))
	}
}
