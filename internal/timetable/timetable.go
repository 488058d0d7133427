// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package timetable projects a typed, grown and split table (§4.5) into
// the domain model consumed by GTFS construction (§4.6): stops in
// visiting order, one Entry per trip column, weekday service masks,
// repeat intervals, route/entry annotations and revisited-stop
// connections.
package timetable

import (
	"strings"

	"github.com/patrickbr/pdf2gtfs/internal/config"
)

// Weekdays is a 7-bit service mask, MSB-first Monday..Sunday, matching
// the bit order of config.Config.HeaderValues.
type Weekdays uint8

// Runs reports whether the mask includes the given zero-based weekday
// (0 = Monday ... 6 = Sunday).
func (w Weekdays) Runs(day int) bool {
	if day < 0 || day > 6 {
		return false
	}
	return w&(1<<(6-uint(day))) != 0
}

// ParseWeekdays maps a header cell's (normalized) text to a weekday
// mask using cfg.HeaderValues; ok is false for unrecognized text.
func ParseWeekdays(text string, cfg *config.Config) (Weekdays, bool) {
	key := strings.ToLower(strings.TrimSpace(text))
	bits, ok := cfg.HeaderValues[key]
	if !ok || len(bits) != 7 {
		return 0, false
	}
	var w Weekdays
	for i := 0; i < 7; i++ {
		if bits[i] == '1' {
			w |= 1 << uint(6-i)
		}
	}
	return w, true
}

// Stop is one row of the reconstructed table: its name (already
// repaired for continuations by the discovery package) and, if the row
// carries a StopAnnot marker, whether it denotes an arrival or
// departure instant rather than a plain through-stop.
type Stop struct {
	Name        string
	Annot       string
	IsArrival   bool
	IsDeparture bool

	// IsConnection marks a stop that is only passed through: some other
	// stop name recurs in the same ordered stop list (a circular or
	// out-and-back route revisiting the same physical stop), and this
	// row sits strictly between that name's first and last occurrence.
	// Set by markConnections during Build.
	IsConnection bool

	// Lat, Lon are filled in by the location resolver (internal/locate)
	// after projection; zero until then.
	Lat, Lon float64
}

// TimeEntry is a single scheduled visit to a stop within an Entry.
type TimeEntry struct {
	StopIndex int
	Minutes   int // minutes since midnight, the raw parsed value
}

// RepeatInterval is one parsed "N" or "N-M" repeat value (§4.6).
type RepeatInterval struct {
	Low, High int
}

// Entry is one trip column: the weekday mask it runs under, any
// route/entry annotations attached to it, and either a fixed sequence
// of stop times or a repeat interval to be expanded during GTFS
// projection (§4.7).
type Entry struct {
	Weekdays    Weekdays
	RouteAnnot  string
	EntryAnnot  string
	Times       []TimeEntry
	Repeat      []RepeatInterval
	RepeatLeft  int // index of the TimeEntry the repeat interval starts after
}

// Timetable is the fully projected table: stops in visiting order and
// one Entry per trip column.
type Timetable struct {
	Stops   []Stop
	Entries []Entry
}
