// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package pdfsrc

import (
	"fmt"
	"os"

	"github.com/valyala/fastjson"

	"github.com/patrickbr/pdf2gtfs/internal/geom"
	"github.com/patrickbr/pdf2gtfs/internal/glyph"
)

// JSONSource is a Source backed by a pre-extracted glyph dump: a JSON
// document of the form `{"pages": [[{glyph}, ...], ...]}`, one array
// entry per 1-based page, each glyph carrying its bbox/text/font/size.
// No PDF content-stream parser exists anywhere in the retrieval corpus
// this module was grounded on, so rather than fabricate one, pdf2gtfs
// consumes the output of whatever external glyph extractor produced
// this dump (e.g. a poppler/pdftotext-bbox pass, or the original
// pdfminer-based extraction) through this thin, real adapter.
type JSONSource struct {
	pages [][]glyph.Glyph
}

// Open reads a glyph-dump JSON file at path.
func Open(path string) (*JSONSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pdfsrc: reading %q: %w", path, err)
	}

	var p fastjson.Parser
	v, err := p.ParseBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("pdfsrc: parsing %q: %w", path, err)
	}

	pagesArr := v.GetArray("pages")
	pages := make([][]glyph.Glyph, len(pagesArr))
	for i, pageVal := range pagesArr {
		glyphsArr, err := pageVal.Array()
		if err != nil {
			return nil, fmt.Errorf("pdfsrc: page %d is not an array in %q", i+1, path)
		}
		glyphs := make([]glyph.Glyph, 0, len(glyphsArr))
		for _, gv := range glyphsArr {
			g, err := parseGlyph(gv)
			if err != nil {
				return nil, fmt.Errorf("pdfsrc: page %d: %w", i+1, err)
			}
			glyphs = append(glyphs, g)
		}
		pages[i] = glyphs
	}

	return &JSONSource{pages: pages}, nil
}

func parseGlyph(v *fastjson.Value) (glyph.Glyph, error) {
	text := string(v.GetStringBytes("text"))
	font := string(v.GetStringBytes("font"))
	size := v.GetFloat64("size")
	upright := true
	if b := v.Get("upright"); b != nil {
		upright = b.GetBool()
	}

	bboxArr := v.GetArray("bbox")
	if len(bboxArr) != 4 {
		return glyph.Glyph{}, fmt.Errorf("glyph %q: bbox must have 4 elements", text)
	}
	bbox := geom.BBox{
		X0: bboxArr[0].GetFloat64(),
		Y0: bboxArr[1].GetFloat64(),
		X1: bboxArr[2].GetFloat64(),
		Y1: bboxArr[3].GetFloat64(),
	}

	return glyph.Glyph{BBox: bbox, Text: text, Font: font, FontSize: size, Upright: upright}, nil
}

// PageCount returns the number of pages in the dump.
func (s *JSONSource) PageCount() (int, error) { return len(s.pages), nil }

// Glyphs returns the glyphs of the given 1-based page.
func (s *JSONSource) Glyphs(page int) ([]glyph.Glyph, error) {
	if page < 1 || page > len(s.pages) {
		return nil, fmt.Errorf("pdfsrc: page %d out of range (1-%d)", page, len(s.pages))
	}
	return s.pages[page-1], nil
}
