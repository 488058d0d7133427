// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package glyph groups a page's raw positioned glyphs into lines and
// then cells (§4.2), the first step of the tabular reconstruction
// pipeline. It consumes the PDF ingestion interface (§6) and produces
// the two cell streams table discovery seeds from.
package glyph

import (
	"sort"
	"strings"

	"github.com/patrickbr/pdf2gtfs/internal/config"
	"github.com/patrickbr/pdf2gtfs/internal/geom"
	"github.com/patrickbr/pdf2gtfs/internal/table"
	"github.com/patrickbr/pdf2gtfs/internal/timeparse"
)

// SpaceGlyphWidth is the average space-glyph-advance fraction of a
// font's size, used (together with the 1.35 slack factor of §4.2) to
// decide when two adjacent glyphs belong to different cells.
const SpaceGlyphWidth = 0.25

// spaceSlack is the multiplicative slack applied to the nominal space
// width before it is used as a cell-boundary threshold (§4.2 step 3).
const spaceSlack = 1.35

// Glyph is a single positioned character as yielded by the PDF
// ingestion interface (§6): bbox, text, font identifier, font size, and
// whether it is upright (non-upright glyphs are dropped at ingest).
type Glyph struct {
	BBox     geom.BBox
	Text     string
	Font     string
	FontSize float64
	Upright  bool
}

// Result is the output of grouping a page's glyphs into cells: the
// data-candidate stream, the other stream, and any glyphs that had to
// be discarded (opaque font-encoded text), logged as warnings rather
// than propagated as errors (§7).
type Result struct {
	Data     []*table.Cell
	Other    []*table.Cell
	Warnings []string
}

// GroupCells runs the full §4.2 pipeline: drop non-upright glyphs,
// bucket into lines, split lines into cells on word-gap, and classify
// each cell as a data candidate (parses as a time) or other.
func GroupCells(glyphs []Glyph, cfg *config.Config) Result {
	var res Result

	upright := make([]Glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if !g.Upright {
			continue
		}
		if isOpaqueEncoding(g.Text) {
			res.Warnings = append(res.Warnings, "discarded glyph with opaque font-encoded text: "+g.Text)
			continue
		}
		upright = append(upright, g)
	}

	lines := groupLines(upright)
	for _, line := range lines {
		cells := groupLineIntoCells(line)
		for _, c := range cells {
			if timeparse.IsTime(c.Text(), cfg.TimeFormat) {
				res.Data = append(res.Data, c)
			} else {
				res.Other = append(res.Other, c)
			}
		}
	}

	return res
}

// isOpaqueEncoding reports whether a glyph's extracted text is not
// usable (the PDF's font encoding could not be mapped to a real
// character) - a common artifact of custom/subset fonts.
func isOpaqueEncoding(text string) bool {
	if text == "" {
		return true
	}
	for _, r := range text {
		if r == '�' || r < 0x20 && r != '\t' {
			return true
		}
	}
	return false
}

// groupLines sorts glyphs by y0 and buckets them using a y-distance
// threshold equal to half the mean glyph height (§4.2 step 2).
func groupLines(glyphs []Glyph) [][]Glyph {
	if len(glyphs) == 0 {
		return nil
	}

	sorted := make([]Glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].BBox.Y0 < sorted[j].BBox.Y0 })

	var heightSum float64
	for _, g := range sorted {
		heightSum += g.BBox.Height()
	}
	threshold := (heightSum / float64(len(sorted))) / 2

	var lines [][]Glyph
	cur := []Glyph{sorted[0]}
	lineY := sorted[0].BBox.Y0
	for _, g := range sorted[1:] {
		if g.BBox.Y0-lineY > threshold {
			lines = append(lines, cur)
			cur = nil
			lineY = g.BBox.Y0
		}
		cur = append(cur, g)
	}
	lines = append(lines, cur)

	for _, line := range lines {
		sort.Slice(line, func(i, j int) bool { return line[i].BBox.X0 < line[j].BBox.X0 })
	}
	return lines
}

// groupLineIntoCells splits a left-to-right sorted line of glyphs into
// cells: a new cell starts whenever the gap to the previous glyph's x1
// exceeds the running font's space width, or the font or font size
// changes (§4.2 step 3). Contiguous glyphs of the same font/size are
// concatenated into one cell's text.
func groupLineIntoCells(line []Glyph) []*table.Cell {
	if len(line) == 0 {
		return nil
	}

	var cells []*table.Cell
	var textBuilder strings.Builder
	var boxes []geom.BBox
	curFont := line[0].Font
	curSize := line[0].FontSize
	prevX1 := line[0].BBox.X0

	flush := func() {
		if textBuilder.Len() == 0 {
			return
		}
		bbox := geom.MergeAll(boxes)
		cells = append(cells, table.New(strings.TrimSpace(textBuilder.String()), bbox, curFont, curSize))
		textBuilder.Reset()
		boxes = nil
	}

	for i, g := range line {
		gap := g.BBox.X0 - prevX1
		spaceWidth := SpaceGlyphWidth * curSize * spaceSlack
		newCell := i > 0 && (gap > spaceWidth || g.Font != curFont || g.FontSize != curSize)
		if i == 0 {
			newCell = false
		}
		if newCell {
			flush()
			curFont = g.Font
			curSize = g.FontSize
		}
		textBuilder.WriteString(g.Text)
		boxes = append(boxes, g.BBox)
		prevX1 = g.BBox.X1
	}
	flush()

	return cells
}
