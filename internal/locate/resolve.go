// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package locate

import (
	"math"
	"sort"

	"github.com/patrickbr/pdf2gtfs/internal/config"
	"github.com/patrickbr/pdf2gtfs/internal/osmprep"
)

// StopCandidates is one stop's surviving OSM candidates, in the
// sequence order the resolver needs to know travel distance bounds.
type StopCandidates struct {
	StopName   string
	Candidates []osmprep.Candidate
}

// Result is a resolved stop: the chosen coordinates and whether they
// come from a real candidate or were interpolated (§4.9).
type Result struct {
	Lat, Lon      float64
	Interpolated  bool
	MissingReason string
}

// Resolve runs the Dijkstra search described in §4.9 over the
// (stop, candidate) graph built from stops, choosing for every stop the
// node on the cheapest path to the last stop, found by following parent
// pointers back from that stop's cheapest reachable node; a stop the
// path does not cover (the last stop is unreachable) takes its own
// cheapest reachable node. Stops with no surviving candidate
// get an MNode placeholder with config.MissingNodeCost; their
// coordinates are filled in afterwards by interpolation if
// cfg.InterpolateMissingLocations is set.
func Resolve(stops []StopCandidates, cfg *config.Config) []Result {
	graph := buildGraph(stops, cfg)
	runDijkstra(graph, cfg)
	results := extractResults(graph, stops)
	if cfg.InterpolateMissingLocations {
		interpolateMissing(results)
	}
	return results
}

type graphStop struct {
	nodes []*Node
}

type graph struct {
	stops []graphStop
}

func buildGraph(stops []StopCandidates, cfg *config.Config) *graph {
	g := &graph{stops: make([]graphStop, len(stops))}
	for si, s := range stops {
		if len(s.Candidates) == 0 {
			mnode := &Node{Kind: KindMissing, StopIndex: si, CandIndex: -1}
			mnode.Cost = Cost{NodeCost: float64(cfg.MissingNodeCost)}
			g.stops[si] = graphStop{nodes: []*Node{mnode}}
			continue
		}
		nodes := make([]*Node, len(s.Candidates))
		for ci, c := range s.Candidates {
			nodes[ci] = &Node{
				Kind:      KindNormal,
				StopIndex: si,
				CandIndex: ci,
				Lat:       c.Node.Lat,
				Lon:       c.Node.Lon,
				Cost:      Cost{ParentCost: math.Inf(1), NodeCost: c.NodeCost, NameCost: c.NameCost},
			}
		}
		g.stops[si] = graphStop{nodes: nodes}
	}
	return g
}

// travelCost implements calculate_travel_cost_between: a log-scaled
// penalty for how far actual distance strays from the expected
// per-stop-gap distance bounds, punished harder the further outside the
// [lower, upper] band it falls. MNodes never contribute travel cost.
//
// §4.9 only admits an edge at all when its distance lies in
// [lower, upper]; outside that band the edge does not exist, not just
// cost more, so both cost formulas below share that cutoff via +Inf.
// cfg.DisableCloseNodeCheck skips the cutoff, leaving every candidate
// reachable regardless of distance, for debugging malformed feeds.
func travelCost(a, b *Node, bounds distanceBounds, cfg *config.Config) float64 {
	if a.Kind == KindMissing || b.Kind == KindMissing {
		return 0
	}
	dist := a.DistExact(b)
	if dist < cfg.MinTravelDistance {
		return math.Inf(1)
	}
	if !cfg.DisableCloseNodeCheck && (dist < bounds.Lower || dist > bounds.Upper) {
		return math.Inf(1)
	}
	if cfg.SimpleTravelCostCalculation {
		return math.Log(math.Max(1, dist)) / math.Log(8)
	}

	lower, mid, upper := bounds.Lower, bounds.Mid, bounds.Upper
	distToMid := math.Max(1, math.Abs(dist-mid))
	logBase := 8.0
	if dist < lower && lower > 0 {
		logBase /= math.Floor(lower / dist)
	}
	if dist > upper && upper > 0 {
		logBase /= math.Floor(dist / upper)
	}
	if logBase < 1.001 {
		logBase = 1.001
	}
	inner := math.Pow(math.Log(distToMid)/math.Log(logBase), 4)
	cost := math.Log(math.Max(1, inner)) / math.Log(2)
	return math.Max(1, cost)
}

// distanceBounds is the expected travel distance window between two
// consecutive stops, derived from the configured average speed and a
// generous time-offset slack (§4.9, §6 average_travel_distance_offset).
type distanceBounds struct {
	Lower, Mid, Upper float64
}

func expectedBounds(cfg *config.Config) distanceBounds {
	mid := cfg.EffectiveAverageSpeedKMH() * 1000 / 60 * cfg.AverageTravelDistanceOffsetMin
	return distanceBounds{Lower: mid * 0.3, Mid: mid, Upper: mid * 2.5}
}

func runDijkstra(g *graph, cfg *config.Config) {
	if len(g.stops) == 0 {
		return
	}
	bounds := expectedBounds(cfg)
	heap := NewNodeHeap()

	for _, n := range g.stops[0].nodes {
		n.Cost = StartCost(n.Cost)
		heap.Add(n)
	}

	for heap.Len() > 0 {
		cur := heap.Pop()
		if cur.visited {
			continue
		}
		cur.visited = true

		next := cur.StopIndex + 1
		if next >= len(g.stops) {
			continue
		}
		for _, n := range g.stops[next].nodes {
			candidate := n.CostWithParent(cur, func(a, b *Node) float64 { return travelCost(a, b, bounds, cfg) })
			if candidate.AsFloat() == math.Inf(1) {
				continue
			}
			if n.Parent == nil || candidate.AsFloat() < n.Cost.AsFloat() {
				n.Parent = cur
				n.Cost = candidate
				cur.hasChildren = true
				heap.Update(n)
			}
		}
	}
}

func extractResults(g *graph, stops []StopCandidates) []Result {
	results := make([]Result, len(stops))
	onPath := make([]*Node, len(g.stops))
	if len(g.stops) > 0 {
		for n := cheapestReachable(g.stops[len(g.stops)-1].nodes); n != nil; n = n.Parent {
			onPath[n.StopIndex] = n
		}
	}
	for si, gs := range g.stops {
		best := onPath[si]
		if best == nil {
			best = cheapestReachable(gs.nodes)
		}
		if best == nil {
			results[si] = Result{MissingReason: "no reachable candidate"}
			continue
		}
		if best.Kind == KindMissing {
			results[si] = Result{MissingReason: "no OSM candidate survived name/tag filtering"}
			continue
		}
		results[si] = Result{Lat: best.Lat, Lon: best.Lon}
	}
	return results
}

func cheapestReachable(nodes []*Node) *Node {
	var best *Node
	for _, n := range nodes {
		if n.Parent == nil && n.Cost.ParentCost != 0 {
			continue
		}
		if best == nil || n.Cost.AsFloat() < best.Cost.AsFloat() {
			best = n
		}
	}
	return best
}

// interpolateMissing fills in the coordinates of every Result still
// missing a location by linearly interpolating between the nearest
// resolved neighbors on either side (§4.9).
func interpolateMissing(results []Result) {
	var resolvedIdx []int
	for i, r := range results {
		if r.MissingReason == "" {
			resolvedIdx = append(resolvedIdx, i)
		}
	}
	if len(resolvedIdx) < 2 {
		return
	}
	sort.Ints(resolvedIdx)

	for i, r := range results {
		if r.MissingReason == "" {
			continue
		}
		lo, hi := -1, -1
		for _, ri := range resolvedIdx {
			if ri < i {
				lo = ri
			}
			if ri > i && hi == -1 {
				hi = ri
			}
		}
		switch {
		case lo >= 0 && hi >= 0:
			frac := float64(i-lo) / float64(hi-lo)
			results[i].Lat = results[lo].Lat + (results[hi].Lat-results[lo].Lat)*frac
			results[i].Lon = results[lo].Lon + (results[hi].Lon-results[lo].Lon)*frac
			results[i].Interpolated = true
		case lo >= 0:
			results[i].Lat, results[i].Lon = results[lo].Lat, results[lo].Lon
			results[i].Interpolated = true
		case hi >= 0:
			results[i].Lat, results[i].Lon = results[hi].Lat, results[hi].Lon
			results[i].Interpolated = true
		}
	}
}
