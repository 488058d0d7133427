// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package locate

import "math"

// Kind distinguishes the three node flavors of §4.9: a normal OSM
// candidate, a sentinel for a stop with no location data at all
// (MissingNode), and a node pinned to an already-known location
// (ExistingNode, used when a stop was matched in an earlier run).
type Kind int

const (
	KindNormal Kind = iota
	KindMissing
	KindExisting
)

// Node is one (stop, candidate) pair in the search graph.
type Node struct {
	Kind Kind

	StopIndex int
	CandIndex int // index into that stop's candidate list; -1 for Missing/Existing

	Lat, Lon float64

	Parent *Node
	Cost   Cost

	hasChildren bool
	visited     bool
}

// DistExact returns the great-circle-ish planar distance in meters
// between n and other, using the equirectangular approximation (good
// enough at city scale).
func (n *Node) DistExact(other *Node) float64 {
	const metersPerLatDeg = 111320.0
	latMid := (n.Lat + other.Lat) / 2
	metersPerLonDeg := metersPerLatDeg * math.Cos(latMid*math.Pi/180)
	latDist := math.Abs(n.Lat-other.Lat) * metersPerLatDeg
	lonDist := math.Abs(n.Lon-other.Lon) * metersPerLonDeg
	return math.Hypot(latDist, lonDist)
}

// CostWithParent computes what n's cost would be if parent were its
// parent: the parent's own cost plus n's intrinsic node/name cost plus
// the travel cost between them (§4.9).
func (n *Node) CostWithParent(parent *Node, travelCost func(a, b *Node) float64) Cost {
	return Cost{
		ParentCost: parent.Cost.AsFloat(),
		NodeCost:   n.Cost.NodeCost,
		NameCost:   n.Cost.NameCost,
		TravelCost: travelCost(parent, n),
	}
}
