package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sushant-115/sensordb/config"
	"github.com/sushant-115/sensordb/core/indexing/spatial"
)

// splitTree returns the two-level tree produced by five diagonal inserts
// into a fanout-four tree: root (0,0)-(40,40) over leaves (0,0)-(20,20) and
// (30,30)-(40,40).
func splitTree(t *testing.T) *spatial.RTree {
	t.Helper()
	rt, err := spatial.NewRTree(spatial.WithMaxEntries(4))
	require.NoError(t, err)
	for i := 0; i <= 4; i++ {
		require.NoError(t, rt.Insert(spatial.NewSensorRecord(i*10, i*10, 0, 0, 30+i)))
	}
	return rt
}

func TestWriteBoundingBoxes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBoundingBoxes(&buf, splitTree(t)))

	want := "0 0\n40 0\n40 40\n0 40\n0 0\n\n" +
		"0 0\n20 0\n20 20\n0 20\n0 0\n\n" +
		"30 30\n40 30\n40 40\n30 40\n30 30\n\n"
	require.Equal(t, want, buf.String())
}

func TestWriteBoundingBoxes_SkipsEmptyRoot(t *testing.T) {
	rt, err := spatial.NewRTree()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteBoundingBoxes(&buf, rt))
	require.Empty(t, buf.String())
}

func TestWritePoints(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePoints(&buf, splitTree(t)))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.ElementsMatch(t, []string{"0 0 30", "10 10 31", "20 20 32", "30 30 33", "40 40 34"}, lines)
}

func TestWriteQueryBox(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteQueryBox(&buf, spatial.SquareAround(spatial.Point{X: 5, Y: 5}, 2)))
	require.Equal(t, "3 3\n7 3\n7 7\n3 7\n3 3\n\n", buf.String())
}

func testExportConfig(dir string, plot bool) config.ExportConfig {
	cfg := config.Default().Export
	cfg.Dir = dir
	cfg.Plot = plot
	return cfg
}

func TestExporter_WritesFilesWithoutPlotting(t *testing.T) {
	called := false
	run := func(ctx context.Context, name string, args ...string) error {
		called = true
		return nil
	}
	e := NewExporter(testExportConfig(t.TempDir(), false), zap.NewNop(), run)

	require.NoError(t, e.Export(context.Background(), splitTree(t), nil))
	require.False(t, called)

	polygons, points, queryBox := e.Paths()
	for _, path := range []string{polygons, points} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NotEmpty(t, data)
	}
	data, err := os.ReadFile(queryBox)
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestExporter_RunsPlotCommand(t *testing.T) {
	var gotName string
	var gotArgs []string
	run := func(ctx context.Context, name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}
	e := NewExporter(testExportConfig(t.TempDir(), true), zap.NewNop(), run)

	query := spatial.SquareAround(spatial.Point{X: 10, Y: 10}, 5)
	require.NoError(t, e.Export(context.Background(), splitTree(t), &query))

	require.Equal(t, "gnuplot", gotName)
	require.Equal(t, "-persist", gotArgs[0])
	require.Equal(t, "-e", gotArgs[1])
	_, _, queryBox := e.Paths()
	require.Contains(t, gotArgs[2], queryBox)

	data, err := os.ReadFile(queryBox)
	require.NoError(t, err)
	require.Equal(t, "5 5\n15 5\n15 15\n5 15\n5 5\n\n", string(data))
}

func TestExporter_PlotFailure(t *testing.T) {
	boom := errors.New("no display")
	run := func(ctx context.Context, name string, args ...string) error { return boom }
	e := NewExporter(testExportConfig(t.TempDir(), true), zap.NewNop(), run)

	err := e.Export(context.Background(), splitTree(t), nil)
	require.ErrorIs(t, err, boom)
}

func TestExporter_MissingDirectory(t *testing.T) {
	e := NewExporter(testExportConfig("/nonexistent/sensordb-export", false), zap.NewNop(), nil)
	require.Error(t, e.Export(context.Background(), splitTree(t), nil))
}
