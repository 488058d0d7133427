package gtfsbuild

import (
	"testing"

	"github.com/patrickbr/pdf2gtfs/internal/config"
	"github.com/patrickbr/pdf2gtfs/internal/timetable"
)

func TestBuildSingleTrip(t *testing.T) {
	cfg := config.NewDefault()
	tt := &timetable.Timetable{
		Stops: []timetable.Stop{{Name: "A"}, {Name: "B"}},
		Entries: []timetable.Entry{{
			Weekdays: 0b1111100,
			Times: []timetable.TimeEntry{
				{StopIndex: 0, Minutes: 7 * 60},
				{StopIndex: 1, Minutes: 7*60 + 15},
			},
		}},
	}

	feed, err := Build([]Source{{Timetable: tt, Agency: RouteKey{AgencyID: "a1", ShortName: "1", LongName: "A - B"}, AgencyName: "Test Agency"}}, cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(feed.Stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(feed.Stops))
	}
	if len(feed.Trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(feed.Trips))
	}
	if len(feed.Routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(feed.Routes))
	}
}

func TestMidnightWrapAddsOffset(t *testing.T) {
	cfg := config.NewDefault()
	tt := &timetable.Timetable{
		Stops: []timetable.Stop{{Name: "A"}, {Name: "B"}},
		Entries: []timetable.Entry{{
			Weekdays: 0b1111100,
			Times: []timetable.TimeEntry{
				{StopIndex: 0, Minutes: 23 * 60},
				{StopIndex: 1, Minutes: 10}, // wraps past midnight
			},
		}},
	}
	feed, err := Build([]Source{{Timetable: tt, Agency: RouteKey{AgencyID: "a1", ShortName: "1"}, AgencyName: "Test"}}, cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var trip = func() (stopTimes int) {
		for _, tr := range feed.Trips {
			return len(tr.StopTimes)
		}
		return 0
	}()
	if trip != 2 {
		t.Fatalf("expected 2 stop times, got %d", trip)
	}
	for _, tr := range feed.Trips {
		if at := tr.StopTimes[1].Arrival_time(); at.Hour != 24 || at.Minute != 10 {
			t.Errorf("expected the wrapped stop time at 24:10, got %d:%02d", at.Hour, at.Minute)
		}
	}
}
