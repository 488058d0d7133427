// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package locate

import (
	"github.com/paulmach/go.geojson"
)

// DebugFeatureCollection builds a GeoJSON FeatureCollection showing the
// location of every stop that has one, resolved or interpolated (one
// Point feature each, stops left without a location are skipped) plus the
// line connecting them in sequence order, for the --geojson-debug
// supplement (§4 SUPPLEMENTED FEATURES; a non-interactive stand-in for
// the Python original's folium map in loc_nodes.py's display_nodes).
func DebugFeatureCollection(stops []StopCandidates, results []Result) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	var line [][]float64
	for i, r := range results {
		if r.MissingReason != "" && !r.Interpolated {
			continue
		}
		pt := geojson.NewPointFeature([]float64{r.Lon, r.Lat})
		pt.SetProperty("stop_name", stops[i].StopName)
		pt.SetProperty("interpolated", r.Interpolated)
		fc.AddFeature(pt)
		line = append(line, []float64{r.Lon, r.Lat})
	}

	if len(line) >= 2 {
		fc.AddFeature(geojson.NewLineStringFeature(line))
	}

	return fc
}
