// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

// Package gtfsio writes a built gtfsparser.Feed to disk (§1's
// out-of-scope mechanical GTFS emission), and packages the §9
// page-render diagnostic bundle into a debug ZIP.
package gtfsio

import (
	"fmt"
	"os"
	"path"

	"github.com/patrickbr/gtfsparser"
	"github.com/patrickbr/gtfswriter"
)

// WriteOptions mirrors the teacher's output flags (gtfstidy.go's
// ExplicitCalendar/KeepColOrder), kept so a feed built by this module
// writes out exactly as tunably as one tidied by the teacher.
type WriteOptions struct {
	ZipCompressionLevel int
	Sorted              bool
	ExplicitCalendar    bool
	KeepColOrder        bool
}

// DefaultWriteOptions matches gtfstidy.go's defaults.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{ZipCompressionLevel: 9, Sorted: true}
}

// Write emits feed as a GTFS dataset at outputPath, creating the target
// zip file or directory first if it does not yet exist.
func Write(feed *gtfsparser.Feed, outputPath string, opts WriteOptions) error {
	if _, err := os.Stat(outputPath); os.IsNotExist(err) {
		if path.Ext(outputPath) == ".zip" {
			f, cerr := os.Create(outputPath)
			if cerr != nil {
				return fmt.Errorf("gtfsio: creating %q: %w", outputPath, cerr)
			}
			f.Close()
		} else if merr := os.MkdirAll(outputPath, os.ModePerm); merr != nil {
			return fmt.Errorf("gtfsio: creating directory %q: %w", outputPath, merr)
		}
	}

	w := gtfswriter.Writer{
		ZipCompressionLevel: opts.ZipCompressionLevel,
		Sorted:              opts.Sorted,
		ExplicitCalendar:    opts.ExplicitCalendar,
		KeepColOrder:        opts.KeepColOrder,
	}
	if err := w.Write(feed, outputPath); err != nil {
		return fmt.Errorf("gtfsio: writing feed to %q: %w", outputPath, err)
	}
	return nil
}
