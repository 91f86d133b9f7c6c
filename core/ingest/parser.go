// Package ingest reads sensor datasets: text files holding one reading per
// line as "x y humidity pollution temperature".
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sushant-115/sensordb/core/indexing/spatial"
)

const fieldsPerRecord = 5

// ParseRecords reads every record from r. Blank lines are skipped; any other
// line that is not exactly five integers fails the whole read.
func ParseRecords(r io.Reader) ([]spatial.SensorRecord, error) {
	var records []spatial.SensorRecord
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		rec, err := parseLine(text)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return records, nil
}

func parseLine(text string) (spatial.SensorRecord, error) {
	fields := strings.Fields(text)
	if len(fields) != fieldsPerRecord {
		return spatial.SensorRecord{}, fmt.Errorf("expected %d fields, got %d", fieldsPerRecord, len(fields))
	}
	var v [fieldsPerRecord]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return spatial.SensorRecord{}, fmt.Errorf("field %d: %q is not an integer", i+1, f)
		}
		v[i] = n
	}
	return *spatial.NewSensorRecord(v[0], v[1], v[2], v[3], v[4]), nil
}
