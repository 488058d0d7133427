// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package osmprep turns a raw OSM snapshot (nodes tagged name=... plus
// a route-relevant tag set) into per-stop location candidates scored by
// name similarity and tag plausibility (§4.8), ready for
// internal/locate's Dijkstra search.
package osmprep

import (
	"math"
	"strings"
	"unicode"

	"github.com/patrickbr/pdf2gtfs/internal/config"
)

// Node is a single OSM point relevant to stop matching: its raw/
// normalized name and coordinates, plus the tags node_cost scores.
type Node struct {
	ID        int64
	Name      string
	Lat, Lon  float64
	Tags      map[string]string
}

// Candidate is one (stop name, OSM node) pairing scored for the
// resolver: NameCost measures name dissimilarity, NodeCost measures tag
// implausibility for the configured route type (§4.8).
type Candidate struct {
	Node     Node
	NameCost float64
	NodeCost float64
}

// nodeCostTable scores an OSM node's tags against the configured GTFS
// route type: 0 for a perfect match (a tagged stop/platform of exactly
// that mode), rising for tags that are merely plausible, and a fixed
// penalty for nodes with no transit tagging at all (§4.8).
var nodeCostTable = map[config.RouteType]map[string]float64{
	config.RouteBus: {
		"highway=bus_stop":        0,
		"public_transport=platform": 1,
		"public_transport=stop_position": 1,
		"amenity=bus_station":     2,
	},
	config.RouteTram: {
		"railway=tram_stop":       0,
		"public_transport=platform": 1,
	},
	config.RouteRail: {
		"railway=station":  0,
		"railway=halt":     0.5,
		"public_transport=platform": 1.5,
	},
	config.RouteSubway: {
		"station=subway":   0,
		"railway=station":  1,
	},
	config.RouteFerry: {
		"amenity=ferry_terminal": 0,
	},
}

const untaggedNodeCost = 4
const noNameMatchCost = 1000

// NodeCost scores node's tags against the configured route type.
func NodeCost(n Node, cfg *config.Config) float64 {
	table := nodeCostTable[cfg.GTFSRouteType]
	best := math.Inf(1)
	for k, v := range n.Tags {
		if c, ok := table[k+"="+v]; ok && c < best {
			best = c
		}
	}
	if math.IsInf(best, 1) {
		return untaggedNodeCost
	}
	return best
}

// NormalizeName lowercases name, expands configured abbreviations
// (matched case-insensitively) and collapses whitespace, so "Hauptstr."
// and "Hauptstraße" compare equal (§4.8).
func NormalizeName(name string, cfg *config.Config) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for abbr, full := range cfg.NameAbbrevs {
		name = strings.ReplaceAll(name, strings.ToLower(abbr), strings.ToLower(full))
	}
	var b strings.Builder
	lastSpace := false
	for _, r := range name {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// NameCost is a length-gap edit-distance proxy (§4.8): rather than a
// full Levenshtein computation (expensive over a whole OSM extract), it
// uses the normalized names' length difference combined with a
// shared-prefix/suffix bonus as a cheap approximation of edit distance.
func NameCost(stopName, osmName string, cfg *config.Config) float64 {
	a := NormalizeName(stopName, cfg)
	b := NormalizeName(osmName, cfg)
	if a == "" || b == "" {
		return noNameMatchCost
	}
	if a == b {
		return 0
	}
	if strings.Contains(b, a) || strings.Contains(a, b) {
		lenGap := math.Abs(float64(len(a) - len(b)))
		return 1 + lenGap*0.1
	}

	prefix := commonPrefixLen(a, b)
	suffix := commonSuffixLen(a, b)
	shared := prefix + suffix
	maxLen := math.Max(float64(len(a)), float64(len(b)))
	if maxLen == 0 {
		return noNameMatchCost
	}
	dissimilarity := 1 - float64(shared)/maxLen
	return 2 + dissimilarity*10
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func commonSuffixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	return n
}

// Candidates scores the OSM nodes whose normalized name contains the
// normalized stop name as whole (space-delimited) words, dropping every
// other node and any node whose name cost reaches the no-match
// threshold.
func Candidates(stopName string, nodes []Node, cfg *config.Config) []Candidate {
	stop := NormalizeName(stopName, cfg)
	var out []Candidate
	for _, n := range nodes {
		if stop == "" || !strings.Contains(" "+NormalizeName(n.Name, cfg)+" ", " "+stop+" ") {
			continue
		}
		nc := NameCost(stopName, n.Name, cfg)
		if nc >= noNameMatchCost {
			continue
		}
		out = append(out, Candidate{Node: n, NameCost: nc, NodeCost: NodeCost(n, cfg)})
	}
	return out
}
