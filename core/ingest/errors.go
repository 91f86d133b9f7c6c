package ingest

import "errors"

var (
	// ErrMalformedRecord is returned for a dataset line that is not five integers.
	ErrMalformedRecord = errors.New("malformed sensor record")
	// ErrDatasetNotFound is returned when the first dataset file does not exist.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrNoMoreDatasets is returned when the next numbered dataset does not exist.
	ErrNoMoreDatasets = errors.New("no more datasets available")
)
