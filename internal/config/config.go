// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package config holds the read-only configuration record consumed by
// every core package (§6 of the specification). It is built once, at
// startup, and passed explicitly - there are no package-level globals.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// RepeatStrategy selects how a repeat column's intervals are turned
// into concrete minute deltas during GTFS projection (§4.7).
type RepeatStrategy int

const (
	// RepeatMean averages all parsed intervals into a single delta.
	RepeatMean RepeatStrategy = iota
	// RepeatCycle round-robins through the parsed intervals in order;
	// an "N-M" interval contributes N, then M.
	RepeatCycle
)

func (s RepeatStrategy) String() string {
	if s == RepeatCycle {
		return "cycle"
	}
	return "mean"
}

// RouteType mirrors the GTFS route_type enum values relevant to OSM
// candidate scoring (§4.8) and the resolver's default travel speed.
type RouteType int

const (
	RouteTram RouteType = iota
	RouteBus
	RouteRail
	RouteSubway
	RouteFerry
)

// DefaultAverageSpeedKMH returns the routetype's default average speed
// in km/h, used when Config.AverageSpeed is zero.
func (rt RouteType) DefaultAverageSpeedKMH() float64 {
	switch rt {
	case RouteTram:
		return 20
	case RouteBus:
		return 25
	case RouteRail:
		return 60
	case RouteSubway:
		return 35
	case RouteFerry:
		return 30
	default:
		return 25
	}
}

// HolidayCode identifies a (country, subdivision) pair used for the
// holiday calendar projection (§4.7).
type HolidayCode struct {
	Country    string
	Subdivison string
}

// AnnotationException records a user-confirmed mapping from an
// annotation token observed on a stop to a concrete calendar exception
// (e.g. "x" on a row meaning "does not run on public holidays"). Load
// does not fill Config.AnnotationExceptions and no package of this
// module reads it; GTFS projection adds no calendar exceptions for it.
type AnnotationException struct {
	Token       string
	StopName    string
	Description string
}

// Config is the immutable configuration record described in §6. All
// fields are read-only after NewDefault/Load return.
type Config struct {
	TimeFormat string

	// HeaderValues maps a normalized header cell text (e.g. "Montag-Freitag")
	// to a 7-bit weekday mask string, MSB-first Monday..Sunday.
	HeaderValues map[string]string

	// RepeatIdentifier is a list of [prefix, suffix] pairs bracketing a
	// repeat value, e.g. {"alle", "Min."} or {"every", "min"}.
	RepeatIdentifier [][2]string

	RepeatStrategy RepeatStrategy

	// Pages is nil for "all", or else the selected 1-based page numbers,
	// without duplicates, in the order they were listed.
	Pages []int

	MaxRowDistance float64
	MinRowCount    int

	ArrivalIdentifier   []string
	DepartureIdentifier []string
	RouteIdentifier     []string
	AnnotIdentifier     []string

	GTFSRouteType RouteType
	AverageSpeed  float64 // km/h; 0 = routetype default

	MinTravelDistance               float64 // m
	AverageTravelDistanceOffsetMin  float64 // min
	MissingNodeCost                 int
	SimpleTravelCostCalculation     bool
	DisableCloseNodeCheck           bool
	InterpolateMissingLocations     bool

	HolidayCode     *HolidayCode
	GTFSDateBounds  [2]string // YYYYMMDD
	NameAbbrevs     map[string]string
	AllowedStopChars []rune

	NonInteractive bool

	AnnotationExceptions []AnnotationException

	GeoJSONDebugPath string
}

// NewDefault returns the Config used when no JSON config file is given,
// matching the German-timetable defaults pdf2gtfs ships with.
func NewDefault() *Config {
	return &Config{
		TimeFormat: "15:04",
		HeaderValues: map[string]string{
			"montag-freitag":   "1111100",
			"montag-sonntag":   "1111111",
			"samstag":          "0000010",
			"sonntag":          "0000001",
			"samstag, sonntag": "0000011",
			"sonn- und feiertag": "0000001",
		},
		RepeatIdentifier: [][2]string{{"alle", "Min."}, {"every", "min"}},
		RepeatStrategy:   RepeatMean,
		Pages:            nil,
		MaxRowDistance:   5.0,
		MinRowCount:      3,
		ArrivalIdentifier: []string{"an", "a"},
		DepartureIdentifier: []string{"ab", "d"},
		RouteIdentifier:  []string{"Linie"},
		AnnotIdentifier:  []string{"Anmerkung", "Hinweis"},
		GTFSRouteType:    RouteBus,
		AverageSpeed:     0,
		MinTravelDistance: 50,
		AverageTravelDistanceOffsetMin: 3,
		MissingNodeCost:  2000,
		SimpleTravelCostCalculation: false,
		DisableCloseNodeCheck: false,
		InterpolateMissingLocations: true,
		NameAbbrevs: map[string]string{
			"Str.":  "Straße",
			"Bhf.":  "Bahnhof",
			"Hbf.":  "Hauptbahnhof",
			"Pl.":   "Platz",
		},
		AllowedStopChars: []rune{'-', '.', '\'', '/'},
		NonInteractive:   false,
	}
}

// EffectiveAverageSpeedKMH returns AverageSpeed if set, else the
// route-type default (§6, average_speed: "0 = routetype default").
func (c *Config) EffectiveAverageSpeedKMH() float64 {
	if c.AverageSpeed > 0 {
		return c.AverageSpeed
	}
	return c.GTFSRouteType.DefaultAverageSpeedKMH()
}

// ParsePages parses the `pages` option (§6): "all", a single page
// number, or a comma-separated list of numbers/ranges like "3,5-9".
func ParsePages(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return nil, nil
	}
	seen := map[int]bool{}
	var pages []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i := strings.IndexByte(part, '-'); i > 0 {
			lo, err := strconv.Atoi(strings.TrimSpace(part[:i]))
			if err != nil {
				return nil, fmt.Errorf("invalid page range %q: %w", part, err)
			}
			hi, err := strconv.Atoi(strings.TrimSpace(part[i+1:]))
			if err != nil {
				return nil, fmt.Errorf("invalid page range %q: %w", part, err)
			}
			if lo > hi || lo < 1 {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
			for p := lo; p <= hi; p++ {
				if !seen[p] {
					seen[p] = true
					pages = append(pages, p)
				}
			}
			continue
		}
		p, err := strconv.Atoi(part)
		if err != nil || p < 1 {
			return nil, fmt.Errorf("invalid page number %q", part)
		}
		if !seen[p] {
			seen[p] = true
			pages = append(pages, p)
		}
	}
	return pages, nil
}

// IncludesPage reports whether the given 1-based page number should be
// processed under this configuration.
func (c *Config) IncludesPage(page int) bool {
	if c.Pages == nil {
		return true
	}
	for _, p := range c.Pages {
		if p == page {
			return true
		}
	}
	return false
}
