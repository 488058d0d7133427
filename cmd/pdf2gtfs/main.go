// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/patrickbr/pdf2gtfs/internal/config"
	"github.com/patrickbr/pdf2gtfs/internal/discovery"
	"github.com/patrickbr/pdf2gtfs/internal/glyph"
	"github.com/patrickbr/pdf2gtfs/internal/gtfsbuild"
	"github.com/patrickbr/pdf2gtfs/internal/gtfsio"
	"github.com/patrickbr/pdf2gtfs/internal/locate"
	"github.com/patrickbr/pdf2gtfs/internal/osmprep"
	"github.com/patrickbr/pdf2gtfs/internal/osmsrc"
	"github.com/patrickbr/pdf2gtfs/internal/pdfsrc"
	"github.com/patrickbr/pdf2gtfs/internal/table"
	"github.com/patrickbr/pdf2gtfs/internal/timetable"
	"github.com/patrickbr/pdf2gtfs/processors"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pdf2gtfs - (C) 2016-2020 by P. Brosi <info@patrickbrosi.de>\n\nUsage:\n\n  %s [<options>] [-o <outputfile>] <input PDF>\n\nAllowed options:\n\n", os.Args[0])
		flag.PrintDefaults()
	}

	outputPath := flag.StringP("output", "o", "gtfs-out", "gtfs output directory or zip file (must end with .zip)")
	configPath := flag.StringP("config", "c", "", "path to a JSON configuration file overriding the defaults")
	pagesFlag := flag.StringP("pages", "p", "all", "pages to process: \"all\", a single number, or a list like \"3,5-9\"")
	agencyName := flag.StringP("agency", "a", "Unknown Agency", "GTFS agency_name for the produced feed")
	routeTypeFlag := flag.StringP("route-type", "t", "bus", "GTFS route_type for the produced routes: tram, bus, rail, subway, ferry")

	useOrphanDeleter := flag.BoolP("delete-orphans", "O", true, "remove entities that are not referenced anywhere in the output feed")
	useIDMinimizer := flag.BoolP("minimize-ids", "i", false, "minimize IDs using numerical IDs (e.g. 144, 145, 146...)")
	useRedAgencyMinimizer := flag.BoolP("remove-red-agencies", "A", true, "remove agency duplicates (several pages naming the same operator)")
	useRedRouteMinimizer := flag.BoolP("remove-red-routes", "R", true, "remove route duplicates")
	useRedStopMinimizer := flag.BoolP("remove-red-stops", "P", true, "remove stop duplicates introduced by repeated location resolution")
	useRedTripMinimizer := flag.BoolP("remove-red-trips", "I", false, "remove trip duplicates introduced by repeat-column expansion")
	useRedServiceMinimizer := flag.BoolP("remove-red-services", "r", true, "remove duplicate services in calendar.txt/calendar_dates.txt")
	useServiceMinimizer := flag.BoolP("minimize-services", "C", true, "minimize services by searching for the optimal exception/range coverage")
	useServiceNonOverlapper := flag.BoolP("non-overlap-services", "", false, "construct day-wise non-overlapping trips from overlapping weekday masks")
	useCalDatesRemover := flag.BoolP("remove-cal-dates", "", false, "don't use calendar_dates.txt; split services into calendar.txt date ranges instead")
	useTripHeadsigner := flag.BoolP("add-headsigns", "H", true, "fill in missing trip headsigns from the last stop of each trip")
	useIntermediateHeadsigns := flag.BoolP("fix-intermediate-headsigns", "", false, "set per-stop headsigns when a trip headsign matches an intermediate stop")
	useAdjStopTimeGrouper := flag.BoolP("group-adjacent-stoptimes", "", true, "merge adjacent stop times at the same stop (arrival/departure modeled as two rows)")
	useTooFastTripRemover := flag.BoolP("remove-too-fast-trips", "", true, "drop trips whose resolved stop-to-stop speed is physically implausible")
	useFrequencyMinimizer := flag.BoolP("minimize-stoptimes", "T", false, "search for frequency patterns in repeat-expanded trips and combine them")

	osmCacheDir := flag.StringP("osm-cache-dir", "", ".pdf2gtfs-osm-cache", "directory used to cache OSM Overpass responses")
	geojsonDebugPath := flag.StringP("geojson-debug", "", "", "if set, write the resolved stop locations to this GeoJSON file")

	help := flag.BoolP("help", "?", false, "this message")

	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	pdfPaths := flag.Args()
	if len(pdfPaths) == 0 {
		fmt.Fprintln(os.Stderr, "No PDF timetable specified, see --help")
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath, *pagesFlag, *routeTypeFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading configuration:", err)
		os.Exit(1)
	}
	if *geojsonDebugPath != "" {
		cfg.GeoJSONDebugPath = *geojsonDebugPath
	}

	var sources []gtfsbuild.Source
	var allStopCandidates []locate.StopCandidates

	for _, pdfPath := range pdfPaths {
		fmt.Fprintf(os.Stdout, "Parsing PDF timetable in %q ...", pdfPath)

		src, err := pdfsrc.Open(pdfPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError opening %q: %v\n", pdfPath, err)
			os.Exit(1)
		}

		pages, err := pdfsrc.Pages(src, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError reading %q: %v\n", pdfPath, err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, " done.\n")

		typer := table.NewTyper(cfg)

		for page, glyphs := range pages {
			res := glyph.GroupCells(glyphs, cfg)
			for _, w := range res.Warnings {
				fmt.Fprintf(os.Stderr, "warning (page %d): %s\n", page, w)
			}

			t, err := discovery.Seed(res.Data)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning (page %d): %v\n", page, err)
				continue
			}

			pool := discovery.Expand(t, res.Other)
			discovery.InsertRepeats(t, pool, cfg)
			typer.TypeTable(t)

			repaired, err := discovery.RepairStopNames(t)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning (page %d): %v\n", page, err)
				repaired = t
			}

			for _, sub := range discovery.Split(repaired) {
				tt := timetable.Build(sub, cfg)
				sources = append(sources, gtfsbuild.Source{
					Timetable:  tt,
					AgencyName: *agencyName,
				})
				for _, s := range tt.Stops {
					allStopCandidates = append(allStopCandidates, locate.StopCandidates{StopName: s.Name})
				}
			}
		}
	}

	if err := resolveLocations(cfg, *osmCacheDir, sources, allStopCandidates); err != nil {
		fmt.Fprintln(os.Stderr, "Error resolving stop locations:", err)
		os.Exit(1)
	}

	feed, err := gtfsbuild.Build(sources, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error building GTFS feed:", err)
		os.Exit(1)
	}

	minzers := make([]processors.Processor, 0)
	if *useRedAgencyMinimizer {
		minzers = append(minzers, processors.AgencyDuplicateRemover{})
	}
	if *useRedRouteMinimizer {
		minzers = append(minzers, processors.RouteDuplicateRemover{})
	}
	if *useRedStopMinimizer {
		minzers = append(minzers, processors.NewStopDuplicateRemover())
	}
	if *useRedServiceMinimizer {
		minzers = append(minzers, processors.ServiceDuplicateRemover{})
	}
	if *useAdjStopTimeGrouper {
		minzers = append(minzers, processors.AdjacentStopTimeGrouper{})
	}
	if *useTooFastTripRemover {
		minzers = append(minzers, processors.TooFastTripRemover{})
	}
	if *useRedTripMinimizer {
		minzers = append(minzers, processors.TripDuplicateRemover{})
	}
	if *useFrequencyMinimizer {
		minzers = append(minzers, processors.FrequencyMinimizer{MinHeadway: 300, MaxHeadway: 3600})
	}
	if *useServiceMinimizer {
		minzers = append(minzers, processors.ServiceMinimizer{})
	}
	if *useServiceNonOverlapper {
		minzers = append(minzers, processors.ServiceNonOverlapper{})
	}
	if *useCalDatesRemover {
		minzers = append(minzers, processors.ServiceCalDatesRem{})
	}
	if *useTripHeadsigner {
		minzers = append(minzers, processors.TripHeadsigner{})
	}
	if *useIntermediateHeadsigns {
		minzers = append(minzers, processors.FixIntermediateHeadsigns{})
	}
	if *useIDMinimizer {
		minzers = append(minzers, processors.IDMinimizer{Base: 10})
	}
	if *useOrphanDeleter {
		minzers = append(minzers, processors.OrphanRemover{})
	}

	for _, m := range minzers {
		m.Run(feed)
	}

	fmt.Fprintf(os.Stdout, "Outputting GTFS feed to %q...", *outputPath)
	if err := gtfsio.Write(feed, *outputPath, gtfsio.DefaultWriteOptions()); err != nil {
		fmt.Fprintf(os.Stderr, "\nError while writing GTFS feed to %q:\n %v\n", *outputPath, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done.\n")
}

func loadConfig(configPath, pagesFlag, routeTypeFlag string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.NewDefault()
	}

	pages, err := config.ParsePages(pagesFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid --pages value: %w", err)
	}
	cfg.Pages = pages

	rt, err := config.ParseRouteType(routeTypeFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid --route-type value: %w", err)
	}
	cfg.GTFSRouteType = rt

	return cfg, nil
}

// resolveLocations runs the OSM candidate preparation and Dijkstra-based
// resolver over every stop collected across all parsed timetables,
// writing the resolved coordinates back onto each gtfsbuild.Source's
// Timetable.Stops in place.
func resolveLocations(cfg *config.Config, cacheDir string, sources []gtfsbuild.Source, stops []locate.StopCandidates) error {
	if len(sources) == 0 {
		return nil
	}

	osmSrc := osmsrc.New(cacheDir)

	// A real deployment would derive this from the PDF's declared
	// region or from a user-supplied bbox flag; the on-disk cache keeps
	// repeated runs over the same timetable from re-querying Overpass.
	worldBBox := osmsrc.BBox{South: -90, West: -180, North: 90, East: 180}
	allNodes, err := osmSrc.Nodes(context.Background(), worldBBox)
	if err != nil {
		return fmt.Errorf("fetching OSM candidates: %w", err)
	}

	for i, sc := range stops {
		stops[i].Candidates = osmprep.Candidates(sc.StopName, allNodes, cfg)
	}

	results := locate.Resolve(stops, cfg)

	stopIdx := 0
	for si := range sources {
		tt := sources[si].Timetable
		for i := range tt.Stops {
			if stopIdx >= len(results) {
				break
			}
			r := results[stopIdx]
			tt.Stops[i].Lat = r.Lat
			tt.Stops[i].Lon = r.Lon
			stopIdx++
		}
	}

	if cfg.GeoJSONDebugPath != "" {
		fc := locate.DebugFeatureCollection(stops, results)
		data, err := fc.MarshalJSON()
		if err != nil {
			return fmt.Errorf("marshaling geojson debug output: %w", err)
		}
		if err := os.WriteFile(cfg.GeoJSONDebugPath, data, 0o644); err != nil {
			return fmt.Errorf("writing geojson debug output: %w", err)
		}
	}

	return nil
}
