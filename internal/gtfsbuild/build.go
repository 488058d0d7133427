// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package gtfsbuild projects reconstructed timetables into a
// gtfsparser.Feed (§4.7): one Route per (agency, short name, long name)
// key, one Service per Entry carrying that entry's weekday mask (and the
// configured date bounds), one Trip/StopTimes sequence per Entry, with
// repeat intervals expanded into additional trips and service-day
// midnight wraps tracked as a running minute offset. Config.HolidayCode
// and Config.AnnotationExceptions are not read: no holiday projection is
// made and no calendar_dates exceptions are produced.
package gtfsbuild

import (
	"fmt"

	"github.com/patrickbr/gtfsparser"
	gtfs "github.com/patrickbr/gtfsparser/gtfs"

	"github.com/patrickbr/pdf2gtfs/internal/config"
	"github.com/patrickbr/pdf2gtfs/internal/timetable"
)

// RouteKey dedups routes the way §4.7 requires: same agency, short name
// and long name means the same route, even if it is rebuilt from
// several distinct pages/tables.
type RouteKey struct {
	AgencyID  string
	ShortName string
	LongName  string
}

// Source is one reconstructed table ready for GTFS projection, tagged
// with the route/agency identity it belongs to.
type Source struct {
	Timetable *timetable.Timetable
	Agency    RouteKey
	AgencyName string
}

// Build projects every Source into a single feed. Stops are deduped by
// name; each gtfs.Stop takes Lat/Lon from the first timetable stop of
// that name, which cmd/pdf2gtfs fills in by location resolution before
// it calls Build.
func Build(sources []Source, cfg *config.Config) (*gtfsparser.Feed, error) {
	feed := gtfsparser.NewFeed()
	feed.Agencies = map[string]*gtfs.Agency{}
	feed.Routes = map[string]*gtfs.Route{}
	feed.Trips = map[string]*gtfs.Trip{}
	feed.Services = map[string]*gtfs.Service{}
	feed.Stops = map[string]*gtfs.Stop{}

	b := &builder{feed: feed, cfg: cfg, stopsByName: map[string]*gtfs.Stop{}, routesByKey: map[RouteKey]*gtfs.Route{}}

	for _, src := range sources {
		if err := b.addSource(src); err != nil {
			return nil, err
		}
	}
	return feed, nil
}

type builder struct {
	feed        *gtfsparser.Feed
	cfg         *config.Config
	stopsByName map[string]*gtfs.Stop
	routesByKey map[RouteKey]*gtfs.Route
	nextStopID  int
	nextTripID  int
	nextSvcID   int
}

func (b *builder) addSource(src Source) error {
	agency := b.agency(src.Agency.AgencyID, src.AgencyName)
	route := b.route(src.Agency, agency)
	stops := b.stops(src.Timetable)

	for _, e := range src.Timetable.Entries {
		if err := b.addEntry(route, stops, src.Timetable, e); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) agency(id, name string) *gtfs.Agency {
	if a, ok := b.feed.Agencies[id]; ok {
		return a
	}
	a := &gtfs.Agency{Id: id, Name: name, Timezone: gtfs.NewTimezone("Europe/Berlin")}
	b.feed.Agencies[id] = a
	return a
}

func (b *builder) route(key RouteKey, agency *gtfs.Agency) *gtfs.Route {
	if r, ok := b.routesByKey[key]; ok {
		return r
	}
	r := &gtfs.Route{
		Id:         fmt.Sprintf("r%d", len(b.routesByKey)),
		Agency:     agency,
		Short_name: key.ShortName,
		Long_name:  key.LongName,
		Type:       int16(b.cfg.GTFSRouteType),
	}
	b.routesByKey[key] = r
	b.feed.Routes[r.Id] = r
	return r
}

// stops returns, in the timetable's stop order, the deduplicated
// gtfs.Stop each row maps to - creating one the first time a stop name
// is seen.
func (b *builder) stops(tt *timetable.Timetable) []*gtfs.Stop {
	out := make([]*gtfs.Stop, len(tt.Stops))
	for i, s := range tt.Stops {
		if existing, ok := b.stopsByName[s.Name]; ok {
			out[i] = existing
			continue
		}
		st := &gtfs.Stop{
			Id:   fmt.Sprintf("s%d", b.nextStopID),
			Name: s.Name,
			Lat:  s.Lat,
			Lon:  s.Lon,
		}
		b.nextStopID++
		b.stopsByName[s.Name] = st
		b.feed.Stops[st.Id] = st
		out[i] = st
	}
	return out
}

func (b *builder) addEntry(route *gtfs.Route, stops []*gtfs.Stop, tt *timetable.Timetable, e timetable.Entry) error {
	svc := b.service(e.Weekdays)

	trip, err := b.buildTrip(route, svc, stops, e.Times, e.RouteAnnot)
	if err != nil {
		return err
	}
	b.feed.Trips[trip.Id] = trip

	for _, delta := range expandRepeatDeltas(tt, e, b.cfg) {
		shifted := shiftTimes(e.Times, delta)
		rtrip, err := b.buildTrip(route, svc, stops, shifted, e.RouteAnnot)
		if err != nil {
			return err
		}
		b.feed.Trips[rtrip.Id] = rtrip
	}
	return nil
}

func (b *builder) buildTrip(route *gtfs.Route, svc *gtfs.Service, allStops []*gtfs.Stop, times []timetable.TimeEntry, headsign string) (*gtfs.Trip, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("gtfsbuild: entry has no scheduled times")
	}
	trip := &gtfs.Trip{
		Id:      fmt.Sprintf("t%d", b.nextTripID),
		Route:   route,
		Service: svc,
	}
	b.nextTripID++
	if headsign != "" {
		trip.Headsign = &headsign
	}

	offset := 0
	prevMin := times[0].Minutes
	stopTimes := make([]gtfs.StopTime, 0, len(times))
	for _, te := range times {
		if te.Minutes < prevMin {
			// Midnight wrap: a later stop's raw clock value is smaller
			// than the previous one's, so the trip crosses midnight.
			offset += 24 * 60
		}
		prevMin = te.Minutes
		absolute := te.Minutes + offset

		var st gtfs.StopTime
		st.SetStop(allStops[te.StopIndex])
		t := minutesToGTFSTime(absolute)
		st.SetArrival_time(t)
		st.SetDeparture_time(t)
		stopTimes = append(stopTimes, st)
	}
	trip.StopTimes = stopTimes
	return trip, nil
}

func (b *builder) service(w timetable.Weekdays) *gtfs.Service {
	svc := gtfs.EmptyService()
	for d := 0; d < 7; d++ {
		svc.SetDaymap(d, w.Runs(d))
	}
	lo, hi := b.cfg.GTFSDateBounds[0], b.cfg.GTFSDateBounds[1]
	if lo != "" && hi != "" {
		svc.SetStart_date(parseGTFSDate(lo))
		svc.SetEnd_date(parseGTFSDate(hi))
	}
	id := fmt.Sprintf("svc%d", b.nextSvcID)
	b.nextSvcID++
	b.feed.Services[id] = svc
	return svc
}

func parseGTFSDate(yyyymmdd string) gtfs.Date {
	if len(yyyymmdd) != 8 {
		return gtfs.Date{}
	}
	var y int
	var m, d int
	fmt.Sscanf(yyyymmdd, "%4d%2d%2d", &y, &m, &d)
	return gtfs.NewDate(uint8(d), uint8(m), uint16(y))
}

func minutesToGTFSTime(minutes int) gtfs.Time {
	return gtfs.Time{Hour: int8(minutes / 60), Minute: int8(minutes % 60), Second: 0}
}

func shiftTimes(times []timetable.TimeEntry, delta int) []timetable.TimeEntry {
	out := make([]timetable.TimeEntry, len(times))
	for i, te := range times {
		out[i] = te
		out[i].Minutes += delta
	}
	return out
}

// expandRepeatDeltas computes the minute offsets at which synthetic
// trips should be generated for entry e, per §4.7: repeated intervals
// (mean or cycle strategy, cfg.RepeatStrategy) are accumulated starting
// from e's first stop time until the shifted time reaches the next
// same-weekday-mask entry's first stop time (the "right anchor"), or
// indefinitely capped at a generous bound when no such anchor exists.
func expandRepeatDeltas(tt *timetable.Timetable, e timetable.Entry, cfg *config.Config) []int {
	if len(e.Repeat) == 0 || len(e.Times) == 0 {
		return nil
	}

	anchor := rightAnchor(tt, e)
	start := e.Times[0].Minutes

	var deltas []int
	acc := 0
	cycle := 0
	const maxRepeats = 200 // backstop against a missing/degenerate anchor
	for i := 0; i < maxRepeats; i++ {
		step := nextIntervalStep(e.Repeat, cfg.RepeatStrategy, &cycle)
		acc += step
		if anchor > 0 && start+acc >= anchor {
			break
		}
		deltas = append(deltas, acc)
		if anchor <= 0 && i >= 48 {
			// No anchor: cap at a day's worth of repeats (§4.7 Non-goal:
			// unbounded repeat expansion is not attempted).
			break
		}
	}
	return deltas
}

func nextIntervalStep(intervals []timetable.RepeatInterval, strat config.RepeatStrategy, cycle *int) int {
	if len(intervals) == 0 {
		return 0
	}
	if strat == config.RepeatCycle {
		var steps []int
		for _, iv := range intervals {
			steps = append(steps, iv.Low)
			if iv.High != iv.Low {
				steps = append(steps, iv.High)
			}
		}
		step := steps[*cycle%len(steps)]
		*cycle++
		return step
	}
	var sum, n int
	for _, iv := range intervals {
		sum += iv.Low + iv.High
		n += 2
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

// rightAnchor finds the next entry with the same weekday mask whose
// first stop time is strictly later than e's, returning its minute
// value, or 0 if there is none.
func rightAnchor(tt *timetable.Timetable, e timetable.Entry) int {
	start := e.Times[0].Minutes
	best := 0
	for _, other := range tt.Entries {
		if other.Weekdays != e.Weekdays || len(other.Times) == 0 {
			continue
		}
		if other.Times[0].Minutes <= start {
			continue
		}
		if best == 0 || other.Times[0].Minutes < best {
			best = other.Times[0].Minutes
		}
	}
	return best
}
