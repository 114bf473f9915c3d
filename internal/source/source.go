// Package source loads datasets for profiling and migration. The primary
// implementation reads CSV files with a header row, matching the flat
// record shape the rest of the pipeline works on.
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dbsmedya/migrion/internal/types"
)

// Reader produces a fully materialized dataset. Implementations own their
// underlying resource and must be usable once.
type Reader interface {
	Read() (*types.Dataset, error)
}

// CSVReader reads a dataset from a CSV file. The first row is the header
// and defines the field set; every value is kept as a string and typed
// later by the profiler.
type CSVReader struct {
	path string
	name string
}

// NewCSV creates a reader for the given CSV file. The dataset name defaults
// to the file name without extension.
func NewCSV(path string) *CSVReader {
	name := path
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndexByte(name, '.'); idx > 0 {
		name = name[:idx]
	}
	return &CSVReader{path: path, name: name}
}

// Read loads the whole file into memory.
func (r *CSVReader) Read() (*types.Dataset, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer f.Close()

	return parseCSV(f, r.name)
}

func parseCSV(rd io.Reader, name string) (*types.Dataset, error) {
	cr := csv.NewReader(rd)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("dataset %s has no header row", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	fields := make([]string, len(header))
	for i, h := range header {
		fields[i] = strings.TrimSpace(h)
		if fields[i] == "" {
			return nil, fmt.Errorf("dataset %s has an empty field name in column %d", name, i+1)
		}
	}

	ds := &types.Dataset{Name: name, Fields: fields}
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}

		rec := make(types.Record, len(fields))
		for i, field := range fields {
			rec[field] = row[i]
		}
		ds.Records = append(ds.Records, rec)
	}

	return ds, nil
}

// Slice wraps an in-memory dataset as a Reader. Tests and dry runs use it
// to feed the pipeline without touching the filesystem.
type Slice struct {
	Dataset *types.Dataset
}

func (s Slice) Read() (*types.Dataset, error) {
	if s.Dataset == nil {
		return nil, fmt.Errorf("no dataset")
	}
	return s.Dataset, nil
}
