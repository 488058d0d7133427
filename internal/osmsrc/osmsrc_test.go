package osmsrc

import (
	"strings"
	"testing"
)

func TestParseNodes(t *testing.T) {
	body := []byte(`{
		"elements": [
			{"type": "node", "id": 123, "lat": 50.1, "lon": 8.2, "tags": {"name": "Hauptbahnhof", "railway": "stop"}},
			{"type": "node", "id": 124, "lat": 50.2, "lon": 8.3},
			{"type": "way", "id": 99}
		]
	}`)

	nodes, err := parseNodes(body)
	if err != nil {
		t.Fatalf("parseNodes: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes (way excluded), got %d", len(nodes))
	}
	if nodes[0].Name != "Hauptbahnhof" || nodes[0].Tags["railway"] != "stop" {
		t.Errorf("unexpected first node: %+v", nodes[0])
	}
	if nodes[1].Name != "" {
		t.Errorf("expected untagged node to have empty name, got %q", nodes[1].Name)
	}
}

func TestBuildQueryIncludesBBox(t *testing.T) {
	q := buildQuery(BBox{South: 50, West: 8, North: 51, East: 9})
	if !strings.Contains(q, "(50.000000,8.000000,51.000000,9.000000)") {
		t.Fatalf("expected query to contain the bbox, got %q", q)
	}
}
