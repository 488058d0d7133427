// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package timeparse recognizes clock-of-day text cells under the
// configured time format (§4.2, §4.4) and converts them to minutes
// since midnight.
package timeparse

import (
	"strconv"
	"strings"
)

// separators tried in addition to the configured one, so "HH:MM" config
// still recognizes a stray "07.30" cell and vice versa - PDF renderers
// are not always consistent within the same timetable.
var separators = []string{":", "."}

// Parse recognizes "HH:MM", "HH.MM" (and single-digit hour variants) and
// returns minutes since midnight. layout is the configured time_format
// (e.g. "15:04"); its separator is tried first.
func Parse(text string, layout string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}

	seps := separators
	if i := strings.IndexAny(layout, ":."); i >= 0 {
		sep := string(layout[i])
		seps = append([]string{sep}, separators...)
	}

	for _, sep := range seps {
		i := strings.Index(text, sep)
		if i <= 0 || i >= len(text)-1 {
			continue
		}
		hourStr, minStr := text[:i], text[i+1:]
		hour, err := strconv.Atoi(strings.TrimSpace(hourStr))
		if err != nil || hour < 0 || hour > 47 {
			continue
		}
		minStr = strings.TrimSpace(minStr)
		if len(minStr) > 2 {
			continue
		}
		min, err := strconv.Atoi(minStr)
		if err != nil || min < 0 || min > 59 {
			continue
		}
		return hour*60 + min, true
	}
	return 0, false
}

// IsTime reports whether text parses as a time under layout.
func IsTime(text string, layout string) bool {
	_, ok := Parse(text, layout)
	return ok
}

// Format renders minutes-since-midnight (which may exceed 24h for
// overnight service-day offsets, §4.7) as "HH:MM:SS" GTFS time text.
func Format(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	return pad2(h) + ":" + pad2(m) + ":00"
}

func pad2(n int) string {
	s := strconv.Itoa(n)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}
