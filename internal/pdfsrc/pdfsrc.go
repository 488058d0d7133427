// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package pdfsrc defines the PDF ingestion boundary (§6): a Source
// yields one page's positioned glyphs at a time, insulating the rest of
// the pipeline from the concrete PDF backend in use.
package pdfsrc

import (
	"fmt"

	"github.com/patrickbr/pdf2gtfs/internal/config"
	"github.com/patrickbr/pdf2gtfs/internal/glyph"
)

// Source yields the glyphs of each page of a PDF document, honoring the
// configured page filter.
type Source interface {
	// PageCount returns the total number of pages in the document.
	PageCount() (int, error)
	// Glyphs returns every glyph on the given 1-based page.
	Glyphs(page int) ([]glyph.Glyph, error)
}

// Pages returns the glyphs of every page cfg selects (§6 pages option),
// keyed by 1-based page number; ranging over the map visits the pages
// in no particular order.
func Pages(src Source, cfg *config.Config) (map[int][]glyph.Glyph, error) {
	n, err := src.PageCount()
	if err != nil {
		return nil, fmt.Errorf("pdfsrc: page count: %w", err)
	}

	out := make(map[int][]glyph.Glyph)
	for p := 1; p <= n; p++ {
		if !cfg.IncludesPage(p) {
			continue
		}
		glyphs, err := src.Glyphs(p)
		if err != nil {
			return nil, fmt.Errorf("pdfsrc: page %d: %w", p, err)
		}
		out[p] = glyphs
	}
	return out, nil
}
