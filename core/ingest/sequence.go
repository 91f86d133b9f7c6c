package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sushant-115/sensordb/core/indexing/spatial"
)

const (
	DefaultDir     = "sensors"
	DefaultPattern = "sensors_%d.txt"
)

// Dataset is one parsed dataset file.
type Dataset struct {
	Index   int
	Path    string
	Records []spatial.SensorRecord
}

// Sequence walks the numbered dataset files sensors_1.txt, sensors_2.txt, ...
// The cursor only advances when a file was read successfully.
type Sequence struct {
	Dir     string
	Pattern string

	index int
}

// NewSequence returns a sequence positioned before the first dataset.
// Empty arguments fall back to the defaults.
func NewSequence(dir, pattern string) *Sequence {
	if dir == "" {
		dir = DefaultDir
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &Sequence{Dir: dir, Pattern: pattern}
}

// Index is the number of the last dataset read, 0 before the first.
func (s *Sequence) Index() int { return s.index }

// Path returns the file name of dataset n.
func (s *Sequence) Path(n int) string {
	return filepath.Join(s.Dir, fmt.Sprintf(s.Pattern, n))
}

// OpenFirst reads dataset 1 and resets the cursor to it.
func (s *Sequence) OpenFirst() (*Dataset, error) {
	ds, err := s.read(1)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, s.Path(1))
	}
	if err != nil {
		return nil, err
	}
	s.index = 1
	return ds, nil
}

// OpenNext reads the dataset after the current one.
func (s *Sequence) OpenNext() (*Dataset, error) {
	next := s.index + 1
	ds, err := s.read(next)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoMoreDatasets, s.Path(next))
	}
	if err != nil {
		return nil, err
	}
	s.index = next
	return ds, nil
}

func (s *Sequence) read(n int) (*Dataset, error) {
	path := s.Path(n)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := ParseRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Dataset{Index: n, Path: path, Records: records}, nil
}
