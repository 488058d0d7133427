package pdfsrc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/patrickbr/pdf2gtfs/internal/config"
)

func writeDump(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestOpenAndGlyphs(t *testing.T) {
	path := writeDump(t, `{
		"pages": [
			[{"text": "08:15", "font": "F1", "size": 10, "bbox": [0,0,20,10], "upright": true}],
			[{"text": "Hauptbahnhof", "font": "F1", "size": 10, "bbox": [0,0,60,10], "upright": true}]
		]
	}`)

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	n, err := src.PageCount()
	if err != nil || n != 2 {
		t.Fatalf("expected 2 pages, got %d, err=%v", n, err)
	}

	glyphs, err := src.Glyphs(1)
	if err != nil {
		t.Fatalf("Glyphs(1): %v", err)
	}
	if len(glyphs) != 1 || glyphs[0].Text != "08:15" {
		t.Errorf("unexpected page 1 glyphs: %+v", glyphs)
	}
}

func TestPagesHonorsPageFilter(t *testing.T) {
	path := writeDump(t, `{
		"pages": [
			[{"text": "a", "font": "F1", "size": 10, "bbox": [0,0,10,10]}],
			[{"text": "b", "font": "F1", "size": 10, "bbox": [0,0,10,10]}],
			[{"text": "c", "font": "F1", "size": 10, "bbox": [0,0,10,10]}]
		]
	}`)
	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	cfg := config.NewDefault()
	cfg.Pages = []int{2}

	pages, err := Pages(src, cfg)
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page selected, got %d", len(pages))
	}
	if _, ok := pages[2]; !ok {
		t.Errorf("expected page 2 to be present, got %+v", pages)
	}
}
