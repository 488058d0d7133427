// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package gtfsio

import (
	"archive/zip"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
)

// DebugArtifact is one named file going into the page-render diagnostic
// bundle (§9 supplement): e.g. a rendered page image, the discovered
// table's textual dump, or the resolved-location GeoJSON.
type DebugArtifact struct {
	Name string
	Data []byte
}

// WriteDebugZip packages artifacts into a ZIP at path, using
// klauspost/compress's flate implementation directly rather than the
// standard library's (it is already pulled in transitively through
// gtfswriter; pdf2gtfs exercises it directly here instead of adding a
// second, redundant deflate implementation).
func WriteDebugZip(path string, artifacts []DebugArtifact, level int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("gtfsio: creating debug zip %q: %w", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})
	defer zw.Close()

	for _, a := range artifacts {
		w, err := zw.Create(a.Name)
		if err != nil {
			return fmt.Errorf("gtfsio: adding %q to debug zip: %w", a.Name, err)
		}
		if _, err := w.Write(a.Data); err != nil {
			return fmt.Errorf("gtfsio: writing %q to debug zip: %w", a.Name, err)
		}
	}
	return nil
}
