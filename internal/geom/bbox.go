// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package geom provides the axis-aligned rectangle algebra used to
// reason about glyph and cell positions on a PDF page.
package geom

import "math"

// BBox is an axis-aligned rectangle in PDF point space. The cell and
// table code treats y as growing downward; glyph ingest (internal/pdfsrc)
// takes coordinates as given and applies no page-height flip.
type BBox struct {
	X0, Y0, X1, Y1 float64
}

// New returns a BBox with coordinates rounded to two decimals, absorbing
// PDF renderer rounding tolerance. Panics are never raised here; a
// degenerate box (x0 > x1 or y0 > y1) is normalized rather than rejected,
// since upstream glyph extraction occasionally hands us swapped corners.
func New(x0, y0, x1, y1 float64) BBox {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return BBox{round2(x0), round2(y0), round2(x1), round2(y1)}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Width returns x1 - x0.
func (b BBox) Width() float64 { return b.X1 - b.X0 }

// Height returns y1 - y0.
func (b BBox) Height() float64 { return b.Y1 - b.Y0 }

// Contains returns true iff (x, y) lies within the closed rectangle.
func (b BBox) Contains(x, y float64) bool {
	return x >= b.X0 && x <= b.X1 && y >= b.Y0 && y <= b.Y1
}

// Merge returns the minimum BBox containing both a and b.
func Merge(a, b BBox) BBox {
	return BBox{
		X0: math.Min(a.X0, b.X0),
		Y0: math.Min(a.Y0, b.Y0),
		X1: math.Max(a.X1, b.X1),
		Y1: math.Max(a.Y1, b.Y1),
	}
}

// MergeAll merges a non-empty slice of boxes; panics on an empty slice,
// as the only sensible merge of zero boxes has no geometry.
func MergeAll(boxes []BBox) BBox {
	m := boxes[0]
	for _, b := range boxes[1:] {
		m = Merge(m, b)
	}
	return m
}

// VOverlap returns the absolute length of the x-axis intersection of a
// and b (rectangles sharing vertical extent - same column).
func VOverlap(a, b BBox) float64 {
	lo := math.Max(a.X0, b.X0)
	hi := math.Min(a.X1, b.X1)
	return math.Max(0, hi-lo)
}

// HOverlap returns the absolute length of the y-axis intersection of a
// and b (rectangles sharing horizontal extent - same row).
func HOverlap(a, b BBox) float64 {
	lo := math.Max(a.Y0, b.Y0)
	hi := math.Min(a.Y1, b.Y1)
	return math.Max(0, hi-lo)
}

// IsVOverlap reports whether the v-overlap of a and b is at least
// frac * min(a.Width(), b.Width()). frac == 1.0 requires total coverage
// of the narrower rectangle.
func IsVOverlap(a, b BBox, frac float64) bool {
	w := math.Min(a.Width(), b.Width())
	if w <= 0 {
		return VOverlap(a, b) > 0
	}
	return VOverlap(a, b) >= frac*w
}

// IsHOverlap reports whether the h-overlap of a and b is at least
// frac * min(a.Height(), b.Height()).
func IsHOverlap(a, b BBox, frac float64) bool {
	h := math.Min(a.Height(), b.Height())
	if h <= 0 {
		return HOverlap(a, b) > 0
	}
	return HOverlap(a, b) >= frac*h
}

// IsNextTo reports whether the horizontal gap between a and b (assumed
// left-to-right, a before b) is smaller than maxGap - the mean glyph
// advance used during glyph-to-cell grouping.
func IsNextTo(a, b BBox, maxGap float64) bool {
	gap := b.X0 - a.X1
	if gap < 0 {
		gap = a.X0 - b.X1
	}
	return gap < maxGap
}
