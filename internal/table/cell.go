// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package table implements the quad-linked cell grid (§4.3), the
// two-phase probabilistic cell typing (§4.4) and the CellType enum (§3).
package table

import "github.com/patrickbr/pdf2gtfs/internal/geom"

// Direction is one of the four quad-link directions.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

// Opposite returns the reverse direction, used to maintain the
// symmetric-linking invariant (§3): a.neighbor(d) = b implies
// b.neighbor(d.Opposite()) = a.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	default:
		return East
	}
}

// Orientation selects whether GetSeries walks a row (Horizontal) or a
// column (Vertical).
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// Cell is a single table cell: text, geometry, and its four neighbor
// links. An empty cell (IsEmpty() == true) carries no text and no
// intrinsic bbox; its bbox is derived on demand from its row's y-extent
// and column's x-extent (§3).
type Cell struct {
	text     string
	bbox     geom.BBox
	hasBBox  bool
	font     string
	fontSize float64

	neighbors [4]*Cell
	table     *Table

	Probs    TypeProbs
	Inferred CellType
}

// New returns a non-empty, text-bearing cell.
func New(text string, bbox geom.BBox, font string, fontSize float64) *Cell {
	return &Cell{text: text, bbox: bbox, hasBBox: true, font: font, fontSize: fontSize}
}

// NewEmpty returns an empty placeholder cell, used to fill rectangular
// gaps left by table growth (§4.5 step 1, step 3).
func NewEmpty() *Cell {
	return &Cell{Inferred: Empty}
}

// Text returns the cell's (already-trimmed) text; empty cells return "".
func (c *Cell) Text() string { return c.text }

// SetText overwrites a non-empty cell's text in place, used by stop
// name repair (§4.5 step 5) to merge a continuation cell's text into
// the cell it continues.
func (c *Cell) SetText(text string) { c.text = text }

// IsEmpty reports whether this is the distinguished empty-cell variant.
func (c *Cell) IsEmpty() bool { return !c.hasBBox }

// Font returns the font identifier typing uses to compare font sizes
// against neighbors; empty for cells without font metadata.
func (c *Cell) Font() string { return c.font }

// FontSize returns the cell's font size in points.
func (c *Cell) FontSize() float64 { return c.fontSize }

// Table returns the owning table, or nil if the cell has not been
// inserted into one.
func (c *Cell) Table() *Table { return c.table }

// BBox returns the cell's geometry. For an empty cell this is derived
// from the row's y-extent and the column's x-extent, per §3; a
// detached empty cell (no table) returns the zero BBox.
func (c *Cell) BBox() geom.BBox {
	if c.hasBBox {
		return c.bbox
	}
	if c.table == nil {
		return geom.BBox{}
	}
	return c.table.emptyCellBBox(c)
}

// Neighbor returns the cell's neighbor in direction d, or nil.
func (c *Cell) Neighbor(d Direction) *Cell {
	return c.neighbors[d]
}

// rawSetNeighbor sets c.neighbors[d] = n without touching n or
// maintaining any invariant; used internally by SetNeighbor and splice.
func (c *Cell) rawSetNeighbor(d Direction, n *Cell) {
	c.neighbors[d] = n
}

// SetNeighbor implements the splice contract of §4.3:
//
//   - new == nil unlinks c from its chain: the existing neighbor in
//     direction d is reattached to c's previous chain member on the
//     other side of c (or left without a neighbor there if c had
//     none), and c keeps no neighbor on either side.
//   - new != nil: if c already had a neighbor `old` in direction d,
//     new is spliced in between (c -> new -> old); otherwise new
//     simply becomes c's neighbor and c becomes new's opposite
//     neighbor.
//
// Internal splices (where `old` already had further neighbors beyond
// it) must be matched by the caller splicing every parallel row/column
// - SetNeighbor only maintains the single link pair it is given.
func (c *Cell) SetNeighbor(d Direction, new *Cell) {
	opp := d.Opposite()
	old := c.neighbors[d]

	if new == nil {
		prev := c.neighbors[opp]
		if old != nil {
			old.rawSetNeighbor(opp, prev)
		}
		if prev != nil {
			prev.rawSetNeighbor(d, old)
		}
		c.neighbors[d] = nil
		c.neighbors[opp] = nil
		return
	}

	c.neighbors[d] = new
	new.rawSetNeighbor(opp, c)
	new.rawSetNeighbor(d, old)
	if old != nil {
		old.rawSetNeighbor(opp, new)
	}
}
