// Package coordfile reads coordinate sets from CSV or JSON files for offline solving.
package coordfile

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"routekit/internal/geo"
)

type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

// FormatFor guesses the format from the file extension, defaulting to CSV.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSON
	}
	return CSV
}

// ReadFile opens path and decodes it with Read.
func ReadFile(path string, f Format) ([]geo.Coordinate, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()
	return Read(fh, f)
}

// Read decodes coordinates. CSV rows are id,x,y with an optional header row;
// JSON is an array of {"id","x","y"} objects.
func Read(r io.Reader, f Format) ([]geo.Coordinate, error) {
	switch f {
	case JSON:
		var out []geo.Coordinate
		if err := json.NewDecoder(r).Decode(&out); err != nil {
			return nil, fmt.Errorf("coordfile: %w", err)
		}
		return out, nil
	case CSV, "":
		return readCSV(r)
	}
	return nil, fmt.Errorf("coordfile: unknown format %q", f)
}

func readCSV(r io.Reader) ([]geo.Coordinate, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	var out []geo.Coordinate
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("coordfile: %w", err)
		}
		id, errID := strconv.ParseInt(rec[0], 10, 64)
		x, errX := strconv.ParseFloat(rec[1], 64)
		y, errY := strconv.ParseFloat(rec[2], 64)
		if err := errors.Join(errID, errX, errY); err != nil {
			if line == 1 && len(out) == 0 && errID != nil {
				continue
			}
			return nil, fmt.Errorf("coordfile: line %d: %w", line, err)
		}
		out = append(out, geo.Coordinate{ID: id, X: x, Y: y})
	}
}
