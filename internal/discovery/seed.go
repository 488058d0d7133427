// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package discovery implements table discovery and growth (§4.5): it
// seeds a provisional table from data cells, inserts repeat columns,
// expands the table to cover surrounding annotation cells, splits it
// at splitter cells into independent per-service-pattern sub-tables,
// and merges stop names that wrapped onto a continuation row.
package discovery

import (
	"sort"

	"github.com/patrickbr/pdf2gtfs/internal/geom"
	"github.com/patrickbr/pdf2gtfs/internal/table"
)

const rowOverlapFrac = 0.5
const colOverlapFrac = 0.5

// Seed places every data cell into a provisional table by clustering
// them into row and column overlap partitions and cross-referencing
// the partitions to assign grid positions (§4.5 step 1). Missing grid
// positions receive Empty cells so the table is fully rectangular.
func Seed(dataCells []*table.Cell) (*table.Table, error) {
	rows := clusterByOverlap(dataCells, func(a, b *table.Cell) bool {
		return geom.IsHOverlap(a.BBox(), b.BBox(), rowOverlapFrac)
	}, func(c *table.Cell) float64 { return c.BBox().Y0 })

	cols := clusterByOverlap(dataCells, func(a, b *table.Cell) bool {
		return geom.IsVOverlap(a.BBox(), b.BBox(), colOverlapFrac)
	}, func(c *table.Cell) float64 { return c.BBox().X0 })

	rowIndex := make(map[*table.Cell]int, len(dataCells))
	for i, cluster := range rows {
		for _, c := range cluster {
			rowIndex[c] = i
		}
	}
	colIndex := make(map[*table.Cell]int, len(dataCells))
	for i, cluster := range cols {
		for _, c := range cluster {
			colIndex[c] = i
		}
	}

	grid := make([][]*table.Cell, len(rows))
	for r := range grid {
		grid[r] = make([]*table.Cell, len(cols))
		for c := range grid[r] {
			grid[r][c] = table.NewEmpty()
		}
	}
	for _, cell := range dataCells {
		r, c := rowIndex[cell], colIndex[cell]
		grid[r][c] = cell
	}

	return table.NewFromGrid(grid)
}

// clusterByOverlap greedily groups cells into clusters connected by
// overlaps(a, b), then sorts both the clusters (by mean sortKey) and
// each cluster's members. This implements the "one-column / one-row
// partition" of §4.5 step 1: cells that do not overlap any existing
// data column/row open a new column/row.
func clusterByOverlap(cells []*table.Cell, overlaps func(a, b *table.Cell) bool, sortKey func(*table.Cell) float64) [][]*table.Cell {
	var clusters [][]*table.Cell

	for _, cell := range cells {
		placed := false
		for i, cluster := range clusters {
			for _, member := range cluster {
				if overlaps(member, cell) {
					clusters[i] = append(clusters[i], cell)
					placed = true
					break
				}
			}
			if placed {
				break
			}
		}
		if !placed {
			clusters = append(clusters, []*table.Cell{cell})
		}
	}

	sort.Slice(clusters, func(i, j int) bool {
		return meanKey(clusters[i], sortKey) < meanKey(clusters[j], sortKey)
	})
	return clusters
}

func meanKey(cluster []*table.Cell, key func(*table.Cell) float64) float64 {
	var sum float64
	for _, c := range cluster {
		sum += key(c)
	}
	return sum / float64(len(cluster))
}
