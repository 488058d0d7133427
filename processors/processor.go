// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package processors

import (
	"github.com/patrickbr/gtfsparser"
	gtfs "github.com/patrickbr/gtfsparser/gtfs"
	"math"
	"runtime"
)

// Processor modifies an existing GTFS feed in-place. cmd/pdf2gtfs runs
// a configurable slice of these, in a fixed order, over the feed
// gtfsbuild.Build just produced from the reconstructed timetables,
// before it is handed to internal/gtfsio for writing.
type Processor interface {
	Run(*gtfsparser.Feed)
}

type empty struct{}

// MaxParallelism returns the number of CPUs, or the
// maximum number of processes if the latter is smaller
// than the former
func MaxParallelism() int {
	maxProcs := runtime.GOMAXPROCS(0)
	numCPU := runtime.NumCPU()
	if maxProcs < numCPU {
		return maxProcs
	}
	return numCPU
}

// distSApprox returns an equirectangular approximation of the distance
// between two stops, in meters.
func distSApprox(a, b *gtfs.Stop) float64 {
	latA, lonA := float64(a.Lat)*math.Pi/180, float64(a.Lon)*math.Pi/180
	latB, lonB := float64(b.Lat)*math.Pi/180, float64(b.Lon)*math.Pi/180
	x := (lonB - lonA) * math.Cos((latA+latB)/2)
	y := latB - latA
	return math.Sqrt(x*x+y*y) * 6371000
}

// FloatEquals checks if the difference of two floats is
// smaller than epsilon
func FloatEquals(a float32, b float32, e float32) bool {
	if (a-b) < e && (b-a) < e {
		return true
	}
	return false
}
