// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package table

import (
	"regexp"
	"strings"

	"github.com/patrickbr/pdf2gtfs/internal/config"
	"github.com/patrickbr/pdf2gtfs/internal/timeparse"
)

var legendRe = regexp.MustCompile(`^\S+\s?[:=]\s?\S+$`)

// Typer runs the two-phase probabilistic cell classifier (§4.4) against
// an explicit, read-only configuration record.
type Typer struct {
	cfg *config.Config
}

// NewTyper returns a Typer bound to cfg.
func NewTyper(cfg *config.Config) *Typer {
	return &Typer{cfg: cfg}
}

// TypeTable runs both typing phases over every cell of t, then applies
// the post-inference Other retyping pass (§4.4 final paragraph).
func (ty *Typer) TypeTable(t *Table) {
	var all []*Cell
	for _, row := range t.AllCells() {
		all = append(all, row...)
	}

	for _, c := range all {
		if c.IsEmpty() {
			c.Probs = TypeProbs{Empty: 1}
			c.Inferred = Empty
			continue
		}
		c.Probs = ty.phase1(c)
	}

	for _, c := range all {
		if c.IsEmpty() {
			continue
		}
		ty.applyPhase2(c)
	}

	ty.retypeOther(t, all)
}

// phase1 computes the absolute, text-only indicator distribution (§4.4).
func (ty *Typer) phase1(c *Cell) TypeProbs {
	text := strings.TrimSpace(c.Text())

	var fired []CellType
	if timeparse.IsTime(text, ty.cfg.TimeFormat) {
		fired = append(fired, Data)
	}
	if ty.isDaysHeader(text) {
		fired = append(fired, Days)
	}
	if ty.isRepeatIdentifier(text) {
		fired = append(fired, RepeatIdentifier)
	}
	if ty.isStopAnnot(text) {
		fired = append(fired, StopAnnot)
	}
	if containsFold(ty.cfg.RouteIdentifier, text) {
		fired = append(fired, RouteAnnotIdent)
	}
	if containsFold(ty.cfg.AnnotIdentifier, text) {
		fired = append(fired, EntryAnnotIdent)
	}
	if legendRe.MatchString(text) {
		fired = append(fired, LegendIdent)
	}

	probs := TypeProbs{}
	if len(fired) == 0 {
		for _, t := range fallbackTypes {
			if t == Other {
				probs[t] = 2
			} else {
				probs[t] = 1
			}
		}
	} else {
		for _, t := range fired {
			probs[t] = 1
		}
		probs[Other] = 0.5
	}
	probs.Normalize()
	return probs
}

func (ty *Typer) isDaysHeader(text string) bool {
	_, ok := ty.cfg.HeaderValues[strings.ToLower(text)]
	return ok
}

func (ty *Typer) isRepeatIdentifier(text string) bool {
	low := strings.ToLower(text)
	for _, pair := range ty.cfg.RepeatIdentifier {
		if strings.EqualFold(text, pair[0]) || strings.EqualFold(text, pair[1]) || low == strings.ToLower(pair[0]) {
			return true
		}
	}
	return false
}

func (ty *Typer) isStopAnnot(text string) bool {
	return containsFold(ty.cfg.ArrivalIdentifier, text) || containsFold(ty.cfg.DepartureIdentifier, text)
}

func containsFold(list []string, text string) bool {
	for _, s := range list {
		if strings.EqualFold(s, text) {
			return true
		}
	}
	return false
}

// applyPhase2 multiplies phase-1 probabilities by the relative
// per-type weighting Rel[T] (§4.4) and sets the argmax as Inferred.
func (ty *Typer) applyPhase2(c *Cell) {
	weighted := TypeProbs{}
	for t, p := range c.Probs {
		weighted[t] = p * relWeight(c, t)
	}
	c.Inferred = weighted.Inferred()
}

func relWeight(c *Cell, t CellType) float64 {
	switch t {
	case Stop:
		return stopWeight(c)
	case StopAnnot:
		return stopAnnotWeight(c)
	case DataAnnot:
		return dataAnnotWeight(c)
	case RepeatIdentifier:
		return repeatIdentifierWeight(c)
	case RepeatValue:
		return repeatValueWeight(c)
	case EntryAnnotValue:
		return entryAnnotValueWeight(c)
	default:
		return 1.0
	}
}

// rowProvisional / colProvisional return the provisional (phase-1 argmax, before
// phase-2 re-weighting) type along a cell's row/column - used by the
// "sandwiched between Data cells" and "row/column entirely data" rules,
// which must see the raw absolute classification rather than
// recursively depend on the phase-2 result being computed.
func rowProvisional(c *Cell) []CellType {
	return provisionalSeries(GetSeries(Horizontal, c))
}

func colProvisional(c *Cell) []CellType {
	return provisionalSeries(GetSeries(Vertical, c))
}

func provisionalSeries(cells []*Cell) []CellType {
	out := make([]CellType, len(cells))
	for i, cell := range cells {
		if cell.IsEmpty() {
			out[i] = Empty
			continue
		}
		out[i] = cell.Probs.Inferred()
	}
	return out
}

func indexOf(cells []*Cell, target *Cell) int {
	for i, c := range cells {
		if c == target {
			return i
		}
	}
	return -1
}

func stopWeight(c *Cell) float64 {
	row := GetSeries(Horizontal, c)
	col := GetSeries(Vertical, c)
	rowTypes := provisionalSeries(row)
	colTypes := provisionalSeries(col)

	rowHasData := countType(rowTypes, Data) > 0
	colHasData := countType(colTypes, Data) > 0

	// Must not sit between two Data cells in either orientation.
	if sandwichedBy(row, indexOf(row, c), Data) || sandwichedBy(col, indexOf(col, c), Data) {
		return 0
	}

	weight := 1.0
	if colHasData {
		// Column contains data: the cell's row must be entirely
		// non-empty along data-aligned positions.
		if !allNonEmptyExceptSelf(row) {
			return 0
		}
	} else if rowHasData {
		if !allNonEmptyExceptSelf(col) {
			return 0
		}
	}

	if i := indexOf(row, c); i == 0 {
		weight += 0.2 // left-aligned series bonus
	}
	if hasAdjacentType(c, StopAnnot) {
		weight += 0.2
	}
	return weight
}

func stopAnnotWeight(c *Cell) float64 {
	if !hasAdjacentType(c, Stop) {
		return 0
	}
	weight := 1.0
	col := GetSeries(Vertical, c)
	for _, other := range col {
		if other != c && other.Probs.Inferred() == StopAnnot {
			weight += 0.2
			break
		}
	}
	return weight
}

func dataAnnotWeight(c *Cell) float64 {
	var dataNeighbors []*Cell
	for d := North; d <= West; d++ {
		n := c.Neighbor(d)
		if n != nil && !n.IsEmpty() && n.Probs.Inferred() == Data {
			dataNeighbors = append(dataNeighbors, n)
		}
	}
	if len(dataNeighbors) == 0 {
		return 0
	}
	var sum float64
	for _, n := range dataNeighbors {
		sum += n.FontSize()
	}
	mean := sum / float64(len(dataNeighbors))
	if c.FontSize() > 0 && c.FontSize() < mean {
		return 1.5
	}
	return 0
}

func repeatIdentifierWeight(c *Cell) float64 {
	row := GetSeries(Horizontal, c)
	col := GetSeries(Vertical, c)
	if !sandwichedBy(row, indexOf(row, c), Data) && !sandwichedBy(col, indexOf(col, c), Data) {
		return 0
	}
	weight := 1.0
	if hasAdjacentType(c, RepeatValue) {
		weight += 0.3
	}
	return weight
}

func repeatValueWeight(c *Cell) float64 {
	row := GetSeries(Horizontal, c)
	col := GetSeries(Vertical, c)
	dataOK := sandwichedBy(row, indexOf(row, c), Data) || sandwichedBy(col, indexOf(col, c), Data)
	identOK := sandwichedBy(row, indexOf(row, c), RepeatIdentifier) || sandwichedBy(col, indexOf(col, c), RepeatIdentifier)
	if !dataOK || !identOK {
		return 0
	}
	return 1.0
}

func entryAnnotValueWeight(c *Cell) float64 {
	col := GetSeries(Vertical, c)
	for _, other := range col {
		if other != c && !other.IsEmpty() && other.Probs.Inferred() == Stop {
			return 0.5
		}
	}
	return 1.0
}

func countType(types []CellType, want CellType) int {
	n := 0
	for _, t := range types {
		if t == want {
			n++
		}
	}
	return n
}

// sandwichedBy reports whether the cell at idx in series has a
// non-empty neighbor of type want on both sides.
func sandwichedBy(series []*Cell, idx int, want CellType) bool {
	if idx <= 0 || idx >= len(series)-1 {
		return false
	}
	before, after := series[idx-1], series[idx+1]
	return !before.IsEmpty() && before.Probs.Inferred() == want &&
		!after.IsEmpty() && after.Probs.Inferred() == want
}

func allNonEmptyExceptSelf(series []*Cell) bool {
	for _, c := range series {
		if c.IsEmpty() {
			return false
		}
	}
	return true
}

func hasAdjacentType(c *Cell, want CellType) bool {
	for d := North; d <= West; d++ {
		n := c.Neighbor(d)
		if n != nil && !n.IsEmpty() && n.Probs.Inferred() == want {
			return true
		}
	}
	return false
}

// retypeOther retypes Other cells sitting between two non-Other cells
// in the same row, aligned with data columns, to DataAnnot (if their
// fontsize is below the row's mean) or StopAnnot, per §4.4.
func (ty *Typer) retypeOther(t *Table, all []*Cell) {
	for _, c := range all {
		if c.IsEmpty() || c.Inferred != Other {
			continue
		}
		row := GetSeries(Horizontal, c)
		idx := indexOf(row, c)
		if idx <= 0 || idx >= len(row)-1 {
			continue
		}
		before, after := row[idx-1], row[idx+1]
		if before.IsEmpty() || after.IsEmpty() || before.Inferred == Other || after.Inferred == Other {
			continue
		}
		if !columnHasDataSomewhere(t, c) {
			continue
		}

		var sum float64
		n := 0
		for _, rc := range row {
			if !rc.IsEmpty() && rc.Inferred == Data {
				sum += rc.FontSize()
				n++
			}
		}
		if n > 0 && c.FontSize() > 0 && c.FontSize() < sum/float64(n) {
			c.Inferred = DataAnnot
		} else if hasAdjacentType(c, StopAnnot) {
			c.Inferred = StopAnnot
		}
	}
}

func columnHasDataSomewhere(_ *Table, c *Cell) bool {
	col := GetSeries(Vertical, c)
	for _, cc := range col {
		if !cc.IsEmpty() && cc.Inferred == Data {
			return true
		}
	}
	return false
}
