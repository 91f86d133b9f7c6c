package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sushant-115/sensordb/core/indexing/spatial"
	"github.com/sushant-115/sensordb/core/indexmanager"
	"github.com/sushant-115/sensordb/core/ingest"
)

// shell runs menu commands against one index session.
type shell struct {
	index indexmanager.IndexManager
	out   io.Writer

	// lastQuery is the most recent alert area, re-plotted by export.
	lastQuery *spatial.BoundingBox
}

func newShell(index indexmanager.IndexManager, out io.Writer) *shell {
	return &shell{index: index, out: out}
}

func (s *shell) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}

func (s *shell) printRecord(rec spatial.SensorRecord) {
	fmt.Fprintln(s.out, rec.String())
}

// parseInts converts args to integers, naming the first bad one.
func parseInts(args []string) ([]int, error) {
	values := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", a)
		}
		values[i] = v
	}
	return values, nil
}

// processCommand handles a single command line. It returns false once the
// session should end.
func (s *shell) processCommand(ctx context.Context, args []string) bool {
	if len(args) == 0 {
		return true
	}

	command := strings.ToLower(args[0])
	params := args[1:]

	switch command {
	case "range", "a":
		v, ok := s.intArgs(params, 4, "range requires <minX> <minY> <maxX> <maxY>.")
		if !ok {
			return true
		}
		box := spatial.NewBoundingBox(v[0], v[1], v[2], v[3])
		if s.index.RangeQuery(ctx, box, s.printRecord) == 0 {
			s.printf("No nodes in the range given.\n")
		}
	case "alert", "b":
		v, ok := s.intArgs(params, 3, "alert requires <x> <y> <radius>.")
		if !ok {
			return true
		}
		center := spatial.Point{X: v[0], Y: v[1]}
		s.printf("Detecting fire in area %s with radius %d...\n", center, v[2])
		box, count, err := s.index.DetectFire(ctx, center, v[2], s.printRecord)
		if err != nil {
			s.printf("Error: %v\n", err)
			return true
		}
		if count == 0 {
			s.printf("No nodes in the range given.\n")
		}
		s.lastQuery = &box
		if err := s.index.Export(ctx, s.lastQuery); err != nil {
			s.printf("Warning: export failed: %v\n", err)
		}
	case "insert", "i":
		v, ok := s.intArgs(params, 5, "insert requires <x> <y> <humidity> <pollution> <temperature>.")
		if !ok {
			return true
		}
		if err := s.index.InsertSensor(ctx, *spatial.NewSensorRecord(v[0], v[1], v[2], v[3], v[4])); err != nil {
			s.printf("Error: %v\n", err)
			return true
		}
		s.printf("Sensor inserted successfully.\n")
	case "delete", "d":
		v, ok := s.intArgs(params, 2, "delete requires <x> <y>.")
		if !ok {
			return true
		}
		err := s.index.DeleteSensor(ctx, spatial.Point{X: v[0], Y: v[1]})
		switch {
		case err == nil:
			s.printf("Sensor deleted successfully.\n")
		case errors.Is(err, spatial.ErrNotFound):
			s.printf("No sensor at (%d, %d).\n", v[0], v[1])
		default:
			s.printf("Error: %v\n", err)
		}
	case "search", "s":
		v, ok := s.intArgs(params, 2, "search requires <x> <y>.")
		if !ok {
			return true
		}
		rec, err := s.index.SearchSensor(ctx, spatial.Point{X: v[0], Y: v[1]})
		switch {
		case err == nil:
			s.printRecord(rec)
		case errors.Is(err, spatial.ErrNotFound):
			s.printf("No sensor at (%d, %d).\n", v[0], v[1])
		default:
			s.printf("Error: %v\n", err)
		}
	case "next", "n":
		res, err := s.index.LoadNext(ctx)
		switch {
		case err == nil:
			s.printf("Data from %s loaded successfully: %d updated, %d dropped.\n", res.Path, res.Updated, res.Dropped)
		case errors.Is(err, ingest.ErrNoMoreDatasets):
			s.printf("No more files available.\n")
		default:
			s.printf("Error: %v\n", err)
		}
	case "stats":
		st := s.index.Stats()
		s.printf("Records: %d\nNodes: %d\nHeight: %d\n", st.Records, st.Nodes, st.Height)
		s.printf("Splits: %d (root growths %d)\nBorrows: %d\nMerges: %d (root shrinks %d)\n",
			st.Splits, st.RootGrowths, st.Borrows, st.Merges, st.RootShrinks)
	case "verify":
		if err := s.index.Verify(); err != nil {
			s.printf("Error: %v\n", err)
			return true
		}
		s.printf("Index is consistent.\n")
	case "export":
		if err := s.index.Export(ctx, s.lastQuery); err != nil {
			s.printf("Error: %v\n", err)
			return true
		}
		s.printf("Plot data exported.\n")
	case "help":
		s.printf("Commands:\n")
		s.printf("  range|a <minX> <minY> <maxX> <maxY>\n")
		s.printf("  alert|b <x> <y> <radius>\n")
		s.printf("  insert|i <x> <y> <humidity> <pollution> <temperature>\n")
		s.printf("  delete|d <x> <y>\n")
		s.printf("  search|s <x> <y>\n")
		s.printf("  next|n\n")
		s.printf("  stats\n")
		s.printf("  verify\n")
		s.printf("  export\n")
		s.printf("  help\n")
		s.printf("  exit / quit / q\n")
	case "exit", "quit", "q":
		return false
	default:
		s.printf("Error: Unknown command. Type 'help' for a list of commands.\n")
	}
	return true
}

// intArgs parses exactly n integer parameters, printing usage otherwise.
func (s *shell) intArgs(params []string, n int, usage string) ([]int, bool) {
	if len(params) != n {
		s.printf("Error: %s\n", usage)
		return nil, false
	}
	v, err := parseInts(params)
	if err != nil {
		s.printf("Error: %v\n", err)
		return nil, false
	}
	return v, true
}
