// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package osmsrc fetches OSM node candidates for a bounding box from an
// Overpass API endpoint and caches the raw response on disk, so that
// repeated runs over the same timetable area do not re-query the
// network (§6).
package osmsrc

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"github.com/patrickbr/pdf2gtfs/internal/osmprep"
)

// DefaultEndpoint is the public Overpass API interpreter used when no
// endpoint is configured.
const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

// MaxCacheAge is how long a cached response is trusted before it is
// considered stale and re-fetched.
const MaxCacheAge = 7 * 24 * time.Hour

// BBox is the query bounding box, south/west/north/east in WGS84
// degrees, matching Overpass QL's own argument order.
type BBox struct {
	South, West, North, East float64
}

// Source fetches OSM node candidates within a bounding box, filtered to
// the public-transport-relevant tags §4.8 cares about (any
// public_transport node, railway stops, tram stops, bus stops and ferry
// terminals), using an on-disk cache keyed by the query text.
type Source struct {
	Endpoint  string
	CacheDir  string
	Client    *http.Client
}

// New returns a Source caching responses under cacheDir.
func New(cacheDir string) *Source {
	return &Source{Endpoint: DefaultEndpoint, CacheDir: cacheDir, Client: http.DefaultClient}
}

// Nodes returns every OSM node candidate within bbox, using the on-disk
// cache when fresh (§6) and falling back to a live Overpass query
// otherwise.
func (s *Source) Nodes(ctx context.Context, bbox BBox) ([]osmprep.Node, error) {
	query := buildQuery(bbox)
	body, err := s.cachedOrFetch(ctx, query)
	if err != nil {
		return nil, err
	}
	return parseNodes(body)
}

func buildQuery(b BBox) string {
	bboxStr := fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.South, b.West, b.North, b.East)
	return "[out:json][timeout:60];\n(\n" +
		fmt.Sprintf(`  node["public_transport"](%s);`, bboxStr) + "\n" +
		fmt.Sprintf(`  node["railway"="stop"](%s);`, bboxStr) + "\n" +
		fmt.Sprintf(`  node["railway"="tram_stop"](%s);`, bboxStr) + "\n" +
		fmt.Sprintf(`  node["highway"="bus_stop"](%s);`, bboxStr) + "\n" +
		fmt.Sprintf(`  node["amenity"="ferry_terminal"](%s);`, bboxStr) + "\n" +
		");\nout body qt;"
}

// cachedOrFetch returns the raw JSON response for query, reading it
// from the on-disk cache when a fresh entry exists, and otherwise
// querying the Overpass endpoint and writing the result to cache.
func (s *Source) cachedOrFetch(ctx context.Context, query string) ([]byte, error) {
	cachePath := s.cachePath(query)
	if cachePath != "" {
		if body, fresh := readCache(cachePath); fresh {
			return body, nil
		}
	}

	body, err := s.fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	if cachePath != "" {
		_ = os.MkdirAll(filepath.Dir(cachePath), 0o755)
		_ = os.WriteFile(cachePath, body, 0o644)
	}
	return body, nil
}

func (s *Source) cachePath(query string) string {
	if s.CacheDir == "" {
		return ""
	}
	sum := sha1.Sum([]byte(query))
	return filepath.Join(s.CacheDir, hex.EncodeToString(sum[:])+".json")
}

func readCache(path string) ([]byte, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > MaxCacheAge {
		return nil, false
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return body, true
}

func (s *Source) fetch(ctx context.Context, query string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("osmsrc: building request: %w", err)
	}
	req.ContentLength = int64(len(query))

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("osmsrc: querying %s: %w", s.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("osmsrc: %s returned status %d", s.Endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("osmsrc: reading response: %w", err)
	}
	return body, nil
}

// parseNodes parses an Overpass [out:json] response into candidate
// nodes, using fastjson for the same reason internal/config uses it:
// a single allocation-light parse of a response we only read once.
func parseNodes(body []byte) ([]osmprep.Node, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("osmsrc: parsing overpass response: %w", err)
	}

	elements := v.GetArray("elements")
	nodes := make([]osmprep.Node, 0, len(elements))
	for _, el := range elements {
		if string(el.GetStringBytes("type")) != "node" {
			continue
		}
		id := el.GetInt64("id")
		lat := el.GetFloat64("lat")
		lon := el.GetFloat64("lon")

		tags := map[string]string{}
		if tagsObj := el.GetObject("tags"); tagsObj != nil {
			tagsObj.Visit(func(key []byte, val *fastjson.Value) {
				sb, _ := val.StringBytes()
				tags[string(key)] = string(sb)
			})
		}

		nodes = append(nodes, osmprep.Node{
			ID:   id,
			Name: tags["name"],
			Lat:  lat,
			Lon:  lon,
			Tags: tags,
		})
	}
	return nodes, nil
}
