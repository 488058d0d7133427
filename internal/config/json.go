// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package config

import (
	"fmt"
	"os"

	"github.com/valyala/fastjson"
)

// Load reads a JSON configuration file and overlays it onto the
// defaults. Invalid configuration values are fatal at startup (§7).
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}

	var p fastjson.Parser
	v, err := p.Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}

	cfg := NewDefault()

	if tf := v.GetStringBytes("time_format"); tf != nil {
		cfg.TimeFormat = string(tf)
	}

	if hv := v.GetObject("header_values"); hv != nil {
		cfg.HeaderValues = map[string]string{}
		hv.Visit(func(key []byte, val *fastjson.Value) {
			sb, _ := val.StringBytes()
			cfg.HeaderValues[string(key)] = string(sb)
		})
	}

	if ri := v.GetArray("repeat_identifier"); ri != nil {
		pairs := make([][2]string, 0, len(ri))
		for _, pair := range ri {
			arr, err := pair.Array()
			if err != nil || len(arr) != 2 {
				return nil, fmt.Errorf("invalid repeat_identifier entry in %q", path)
			}
			prefix, _ := arr[0].StringBytes()
			suffix, _ := arr[1].StringBytes()
			pairs = append(pairs, [2]string{string(prefix), string(suffix)})
		}
		cfg.RepeatIdentifier = pairs
	}

	if rs := v.GetStringBytes("repeat_strategy"); rs != nil {
		switch string(rs) {
		case "mean":
			cfg.RepeatStrategy = RepeatMean
		case "cycle":
			cfg.RepeatStrategy = RepeatCycle
		default:
			return nil, fmt.Errorf("invalid repeat_strategy %q in %q", rs, path)
		}
	}

	if pg := v.GetStringBytes("pages"); pg != nil {
		pages, err := ParsePages(string(pg))
		if err != nil {
			return nil, fmt.Errorf("invalid pages in %q: %w", path, err)
		}
		cfg.Pages = pages
	}

	if mrd := v.Get("max_row_distance"); mrd != nil {
		f, err := mrd.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid max_row_distance in %q: %w", path, err)
		}
		cfg.MaxRowDistance = f
	}

	if mrc := v.Get("min_row_count"); mrc != nil {
		i, err := mrc.Int()
		if err != nil {
			return nil, fmt.Errorf("invalid min_row_count in %q: %w", path, err)
		}
		cfg.MinRowCount = i
	}

	cfg.ArrivalIdentifier = stringArrayOr(v, "arrival_identifier", cfg.ArrivalIdentifier)
	cfg.DepartureIdentifier = stringArrayOr(v, "departure_identifier", cfg.DepartureIdentifier)
	cfg.RouteIdentifier = stringArrayOr(v, "route_identifier", cfg.RouteIdentifier)
	cfg.AnnotIdentifier = stringArrayOr(v, "annot_identifier", cfg.AnnotIdentifier)

	if rt := v.GetStringBytes("gtfs_routetype"); rt != nil {
		rtv, err := ParseRouteType(string(rt))
		if err != nil {
			return nil, fmt.Errorf("invalid gtfs_routetype in %q: %w", path, err)
		}
		cfg.GTFSRouteType = rtv
	}

	if as := v.Get("average_speed"); as != nil {
		f, err := as.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid average_speed in %q: %w", path, err)
		}
		cfg.AverageSpeed = f
	}

	if mtd := v.Get("min_travel_distance"); mtd != nil {
		f, err := mtd.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid min_travel_distance in %q: %w", path, err)
		}
		cfg.MinTravelDistance = f
	}

	if off := v.Get("average_travel_distance_offset"); off != nil {
		f, err := off.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid average_travel_distance_offset in %q: %w", path, err)
		}
		cfg.AverageTravelDistanceOffsetMin = f
	}

	if mnc := v.Get("missing_node_cost"); mnc != nil {
		i, err := mnc.Int()
		if err != nil {
			return nil, fmt.Errorf("invalid missing_node_cost in %q: %w", path, err)
		}
		cfg.MissingNodeCost = i
	}

	if b := v.Get("simple_travel_cost_calculation"); b != nil {
		cfg.SimpleTravelCostCalculation = b.GetBool()
	}
	if b := v.Get("disable_close_node_check"); b != nil {
		cfg.DisableCloseNodeCheck = b.GetBool()
	}
	if b := v.Get("interpolate_missing_locations"); b != nil {
		cfg.InterpolateMissingLocations = b.GetBool()
	}
	if b := v.Get("non_interactive"); b != nil {
		cfg.NonInteractive = b.GetBool()
	}

	if hc := v.GetArray("holiday_code"); len(hc) == 2 {
		country, _ := hc[0].StringBytes()
		sub, _ := hc[1].StringBytes()
		cfg.HolidayCode = &HolidayCode{Country: string(country), Subdivison: string(sub)}
	}

	if db := v.GetArray("gtfs_date_bounds"); len(db) == 2 {
		lo, _ := db[0].StringBytes()
		hi, _ := db[1].StringBytes()
		cfg.GTFSDateBounds = [2]string{string(lo), string(hi)}
	}

	if na := v.GetObject("name_abbreviations"); na != nil {
		cfg.NameAbbrevs = map[string]string{}
		na.Visit(func(key []byte, val *fastjson.Value) {
			sb, _ := val.StringBytes()
			cfg.NameAbbrevs[string(key)] = string(sb)
		})
	}

	if asc := v.GetStringBytes("allowed_stop_chars"); asc != nil {
		cfg.AllowedStopChars = []rune(string(asc))
	}

	return cfg, nil
}

func stringArrayOr(v *fastjson.Value, key string, fallback []string) []string {
	arr := v.GetArray(key)
	if arr == nil {
		return fallback
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		sb, _ := e.StringBytes()
		out = append(out, string(sb))
	}
	return out
}

// ParseRouteType maps a route-type name ("bus", "tram", ...) to its
// RouteType value, as used both by the JSON config file's
// gtfs_routetype key and the CLI's --route-type flag.
func ParseRouteType(s string) (RouteType, error) {
	switch s {
	case "tram":
		return RouteTram, nil
	case "bus":
		return RouteBus, nil
	case "rail":
		return RouteRail, nil
	case "subway":
		return RouteSubway, nil
	case "ferry":
		return RouteFerry, nil
	}
	return 0, fmt.Errorf("unknown route type %q", s)
}
