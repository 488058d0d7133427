package gtfsio

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteDebugZipRoundTrips(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "debug.zip")

	artifacts := []DebugArtifact{
		{Name: "page-1.txt", Data: []byte("hello table")},
		{Name: "stops.geojson", Data: []byte(`{"type":"FeatureCollection"}`)},
	}

	if err := WriteDebugZip(target, artifacts, 9); err != nil {
		t.Fatalf("WriteDebugZip: %v", err)
	}

	r, err := zip.OpenReader(target)
	if err != nil {
		t.Fatalf("opening produced zip: %v", err)
	}
	defer r.Close()

	if len(r.File) != 2 {
		t.Fatalf("expected 2 files, got %d", len(r.File))
	}

	names := map[string]bool{}
	for _, zf := range r.File {
		names[zf.Name] = true
	}
	if !names["page-1.txt"] || !names["stops.geojson"] {
		t.Errorf("missing expected entries: %v", names)
	}

	_ = os.Remove(target)
}
