// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package table

// CellType is the closed set of semantic labels a Cell can carry (§3).
type CellType int

const (
	Other CellType = iota
	Empty
	Time
	Stop
	StopAnnot
	Data
	DataAnnot
	Days
	RepeatIdentifier
	RepeatValue
	RouteAnnotIdent
	RouteAnnotValue
	EntryAnnotIdent
	EntryAnnotValue
	LegendIdent
	LegendValue
)

func (t CellType) String() string {
	switch t {
	case Empty:
		return "Empty"
	case Time:
		return "Time"
	case Stop:
		return "Stop"
	case StopAnnot:
		return "StopAnnot"
	case Data:
		return "Data"
	case DataAnnot:
		return "DataAnnot"
	case Days:
		return "Days"
	case RepeatIdentifier:
		return "RepeatIdentifier"
	case RepeatValue:
		return "RepeatValue"
	case RouteAnnotIdent:
		return "RouteAnnotIdent"
	case RouteAnnotValue:
		return "RouteAnnotValue"
	case EntryAnnotIdent:
		return "EntryAnnotIdent"
	case EntryAnnotValue:
		return "EntryAnnotValue"
	case LegendIdent:
		return "LegendIdent"
	case LegendValue:
		return "LegendValue"
	default:
		return "Other"
	}
}

// TypeProbs is a probability distribution over CellTypes, as produced by
// phase 1 (absolute) typing and refined by phase 2 (relative) typing.
type TypeProbs map[CellType]float64

// Normalize scales the distribution so its values sum to 1. A
// distribution with zero total mass is left untouched (never divide by
// zero); callers see an all-zero distribution in that case, which
// Inferred resolves to Other.
func (p TypeProbs) Normalize() {
	var sum float64
	for _, v := range p {
		sum += v
	}
	if sum == 0 {
		return
	}
	for k := range p {
		p[k] /= sum
	}
}

// Inferred returns the argmax type of the distribution, defaulting to
// Other on an empty or all-zero distribution. Ties go to the type with
// the lower CellType value.
func (p TypeProbs) Inferred() CellType {
	best := Other
	bestP := 0.0
	for k, v := range p {
		if v > bestP || (v == bestP && v > 0 && k < best) {
			bestP = v
			best = k
		}
	}
	return best
}

// fallbackTypes is the equal-weight fallback set used by phase 1 when no
// absolute indicator fires (§4.4); Other gets double weight.
var fallbackTypes = []CellType{Stop, RouteAnnotValue, RepeatValue, EntryAnnotValue, DataAnnot, LegendValue, Other}
