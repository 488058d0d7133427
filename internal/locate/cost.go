// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package locate resolves a reconstructed stop sequence to concrete
// coordinates by running a Dijkstra-style search over the implicit
// graph of (stop, OSM candidate) nodes (§4.9): each node's cost is its
// parent's cost plus its own node/name cost plus the travel cost to its
// parent, and the cheapest path from the route's first stop determines
// every stop's chosen location.
package locate

import "math"

// Cost is the additive cost of a node, split into the components §4.9
// requires to be visible for debugging (a GeoJSON/HTML export can color
// nodes by whichever component dominates).
type Cost struct {
	ParentCost float64
	NodeCost   float64
	NameCost   float64
	TravelCost float64
}

// AsFloat sums the cost's components; a node is unreachable once any
// component is +Inf.
func (c Cost) AsFloat() float64 {
	return c.ParentCost + c.NodeCost + c.NameCost + c.TravelCost
}

// StartCost rewrites a cost as the cost of a route's first node: its
// parent cost is forced to 0 regardless of what was computed, since a
// first node has no real predecessor to inherit cost from.
func StartCost(c Cost) Cost {
	c.ParentCost = 0
	return c
}

var infCost = Cost{ParentCost: math.Inf(1)}
