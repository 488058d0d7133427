package glyph

import (
	"testing"

	"github.com/patrickbr/pdf2gtfs/internal/config"
	"github.com/patrickbr/pdf2gtfs/internal/geom"
)

func charGlyph(text string, x0, y0, x1, y1 float64, font string, size float64) Glyph {
	return Glyph{BBox: geom.New(x0, y0, x1, y1), Text: text, Font: font, FontSize: size, Upright: true}
}

func TestGroupCellsSplitsWords(t *testing.T) {
	glyphs := []Glyph{
		charGlyph("H", 0, 0, 5, 10, "F1", 10),
		charGlyph("i", 5, 0, 7, 10, "F1", 10),
		// large gap -> new cell
		charGlyph("B", 20, 0, 25, 10, "F1", 10),
		charGlyph("o", 25, 0, 30, 10, "F1", 10),
	}
	res := GroupCells(glyphs, config.NewDefault())
	if len(res.Other) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(res.Other))
	}
	if res.Other[0].Text() != "Hi" || res.Other[1].Text() != "Bo" {
		t.Errorf("unexpected cell texts: %q %q", res.Other[0].Text(), res.Other[1].Text())
	}
}

func TestGroupCellsLinesSplitByY(t *testing.T) {
	glyphs := []Glyph{
		charGlyph("A", 0, 0, 5, 10, "F1", 10),
		charGlyph("B", 0, 30, 5, 40, "F1", 10),
	}
	res := GroupCells(glyphs, config.NewDefault())
	if len(res.Other) != 2 {
		t.Fatalf("expected 2 separate-line cells, got %d", len(res.Other))
	}
}

func TestGroupCellsTagsDataCandidate(t *testing.T) {
	glyphs := []Glyph{
		charGlyph("0", 0, 0, 5, 10, "F1", 10),
		charGlyph("7", 5, 0, 10, 10, "F1", 10),
		charGlyph(":", 10, 0, 12, 10, "F1", 10),
		charGlyph("3", 12, 0, 17, 10, "F1", 10),
		charGlyph("0", 17, 0, 22, 10, "F1", 10),
	}
	res := GroupCells(glyphs, config.NewDefault())
	if len(res.Data) != 1 || res.Data[0].Text() != "07:30" {
		t.Fatalf("expected a single data cell '07:30', got data=%v other=%v", res.Data, res.Other)
	}
}

func TestGroupCellsDropsOpaqueGlyphs(t *testing.T) {
	glyphs := []Glyph{
		charGlyph("�", 0, 0, 5, 10, "F1", 10),
		charGlyph("A", 20, 0, 25, 10, "F1", 10),
	}
	res := GroupCells(glyphs, config.NewDefault())
	if len(res.Warnings) != 1 {
		t.Errorf("expected one warning for the opaque glyph, got %d", len(res.Warnings))
	}
	if len(res.Other) != 1 || res.Other[0].Text() != "A" {
		t.Errorf("expected only the valid glyph to form a cell")
	}
}
