// Package export writes the tree and query artifacts consumed by gnuplot.
package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sushant-115/sensordb/core/indexing/spatial"
)

// Source is the read-only view of an index the writers need.
type Source interface {
	Walk(fn func(spatial.NodeInfo) bool)
	RangeQuery(query spatial.BoundingBox, visit spatial.Visitor) int
	Bounds() spatial.BoundingBox
}

// WriteBoundingBoxes writes the box of every non-empty node in pre-order as a
// closed polygon of five "x y" lines. Polygons are separated by a blank line.
func WriteBoundingBoxes(w io.Writer, src Source) error {
	bw := bufio.NewWriter(w)
	var err error
	src.Walk(func(info spatial.NodeInfo) bool {
		if err != nil {
			return false
		}
		if info.Box.IsEmpty() {
			return true
		}
		err = writePolygon(bw, info.Box)
		return err == nil
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

// WritePoints writes one "x y temperature" line per indexed record.
func WritePoints(w io.Writer, src Source) error {
	bw := bufio.NewWriter(w)
	var err error
	src.RangeQuery(src.Bounds(), func(rec spatial.SensorRecord) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(bw, "%d %d %d\n", rec.X, rec.Y, rec.Temperature)
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

// WriteQueryBox writes a single query box as one closed polygon.
func WriteQueryBox(w io.Writer, box spatial.BoundingBox) error {
	bw := bufio.NewWriter(w)
	if err := writePolygon(bw, box); err != nil {
		return err
	}
	return bw.Flush()
}

func writePolygon(w io.Writer, box spatial.BoundingBox) error {
	for _, c := range box.Corners() {
		if _, err := fmt.Fprintf(w, "%d %d\n", c.X, c.Y); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
