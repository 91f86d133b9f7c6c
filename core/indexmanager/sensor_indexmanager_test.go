package indexmanager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sushant-115/sensordb/config"
	"github.com/sushant-115/sensordb/core/indexing/spatial"
	"github.com/sushant-115/sensordb/core/ingest"
)

// --- Test Helpers ---

// setupTestManager creates a manager reading datasets from, and exporting
// into, a fresh temporary directory.
func setupTestManager(t *testing.T) (*SensorIndexManager, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Dataset.Dir = dir
	cfg.Export.Dir = dir

	m, err := NewSensorIndexManager(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m, dir
}

func writeDataset(t *testing.T, dir string, n int, lines ...string) {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("sensors_%d.txt", n))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func benchConfig() config.Config {
	cfg := config.Default()
	cfg.Index.MaxEntries = 8
	return cfg
}

func nopLogger() *zap.Logger { return zap.NewNop() }

// shape captures every node's box and occupancy in pre-order.
func shape(m *SensorIndexManager) []spatial.NodeInfo {
	var nodes []spatial.NodeInfo
	m.tree.Walk(func(info spatial.NodeInfo) bool {
		nodes = append(nodes, info)
		return true
	})
	return nodes
}

// --- Test Cases ---

func TestLoadInitial_InsertsEveryRecord(t *testing.T) {
	m, dir := setupTestManager(t)
	writeDataset(t, dir, 1,
		"100 100 40 10 35",
		"200 200 45 12 60",
		"150 120 50 14 90",
		"900 900 30 2 20",
		"905 910 31 3 25",
	)

	res, err := m.LoadInitial(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Index)
	require.Equal(t, 5, res.Read)
	require.Equal(t, 5, res.Inserted)
	require.Equal(t, 1, m.DatasetIndex())

	stats := m.Stats()
	require.Equal(t, 5, stats.Records)
	require.Equal(t, 2, stats.Height)
	require.NoError(t, m.Verify())
}

func TestLoadInitial_MissingDatasetIsFatal(t *testing.T) {
	m, _ := setupTestManager(t)
	_, err := m.LoadInitial(context.Background())
	require.ErrorIs(t, err, ingest.ErrDatasetNotFound)
}

// TestLoadNext_UpdatesOnlyKnownSensors replays a reload over an indexed
// sensor and an unknown coordinate: the known payload changes in place, the
// unknown reading is dropped and no node changes.
func TestLoadNext_UpdatesOnlyKnownSensors(t *testing.T) {
	m, dir := setupTestManager(t)
	ctx := context.Background()
	writeDataset(t, dir, 1, "5 5 10 20 30", "1 1 1 1 1", "2 2 2 2 2")
	writeDataset(t, dir, 2, "5 5 15 25 35", "9 9 1 1 1")

	_, err := m.LoadInitial(ctx)
	require.NoError(t, err)
	before := shape(m)

	res, err := m.LoadNext(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, res.Index)
	require.Equal(t, 1, res.Updated)
	require.Equal(t, 1, res.Dropped)
	require.Zero(t, res.Inserted)

	rec, err := m.SearchSensor(ctx, spatial.Point{X: 5, Y: 5})
	require.NoError(t, err)
	require.Equal(t, spatial.Payload{Humidity: 15, PollutionLevel: 25, Temperature: 35}, rec.Payload)

	_, err = m.SearchSensor(ctx, spatial.Point{X: 9, Y: 9})
	require.ErrorIs(t, err, spatial.ErrNotFound)
	require.Equal(t, before, shape(m))
	require.Equal(t, 3, m.Stats().Records)
}

func TestLoadNext_NoMoreDatasetsKeepsCursor(t *testing.T) {
	m, dir := setupTestManager(t)
	ctx := context.Background()
	writeDataset(t, dir, 1, "5 5 10 20 30")

	_, err := m.LoadInitial(ctx)
	require.NoError(t, err)

	_, err = m.LoadNext(ctx)
	require.ErrorIs(t, err, ingest.ErrNoMoreDatasets)
	require.Equal(t, 1, m.DatasetIndex())

	writeDataset(t, dir, 2, "5 5 11 21 31")
	res, err := m.LoadNext(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, res.Index)
}

func TestInsertDeleteSearch(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.InsertSensor(ctx, *spatial.NewSensorRecord(3, 4, 50, 5, 60)))
	rec, err := m.SearchSensor(ctx, spatial.Point{X: 3, Y: 4})
	require.NoError(t, err)
	require.Equal(t, 60, rec.Temperature)

	require.NoError(t, m.DeleteSensor(ctx, spatial.Point{X: 3, Y: 4}))
	require.ErrorIs(t, m.DeleteSensor(ctx, spatial.Point{X: 3, Y: 4}), spatial.ErrNotFound)
	_, err = m.SearchSensor(ctx, spatial.Point{X: 3, Y: 4})
	require.ErrorIs(t, err, spatial.ErrNotFound)
	require.Zero(t, m.Stats().Records)
}

func TestRangeQueryAndDetectFire(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.InsertSensor(ctx, *spatial.NewSensorRecord(1, 1, 50, 5, 60)))
	require.NoError(t, m.InsertSensor(ctx, *spatial.NewSensorRecord(2, 2, 55, 6, 65)))
	require.NoError(t, m.InsertSensor(ctx, *spatial.NewSensorRecord(50, 50, 55, 6, 95)))

	var got []spatial.SensorRecord
	count := m.RangeQuery(ctx, spatial.NewBoundingBox(0, 0, 3, 3), func(rec spatial.SensorRecord) {
		got = append(got, rec)
	})
	require.Equal(t, 2, count)
	require.Len(t, got, 2)

	box, count, err := m.DetectFire(ctx, spatial.Point{X: 48, Y: 48}, 2, nil)
	require.NoError(t, err)
	require.Equal(t, spatial.NewBoundingBox(46, 46, 50, 50), box)
	require.Equal(t, 1, count)

	_, _, err = m.DetectFire(ctx, spatial.Point{}, -1, nil)
	require.ErrorIs(t, err, spatial.ErrInvalidArgument)
}

func TestInsertSensor_ResourceExhausted(t *testing.T) {
	cfg := config.Default()
	cfg.Index.MaxNodes = 1
	m, err := NewSensorIndexManager(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()
	for i := 0; i < cfg.Index.MaxEntries; i++ {
		require.NoError(t, m.InsertSensor(ctx, *spatial.NewSensorRecord(i, i, 0, 0, 0)))
	}
	err = m.InsertSensor(ctx, *spatial.NewSensorRecord(99, 99, 0, 0, 0))
	require.ErrorIs(t, err, spatial.ErrResourceExhausted)
	require.Equal(t, cfg.Index.MaxEntries, m.Stats().Records)
}

func TestExport_WritesArtifacts(t *testing.T) {
	m, dir := setupTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.InsertSensor(ctx, *spatial.NewSensorRecord(7, 8, 1, 2, 3)))

	query := spatial.SquareAround(spatial.Point{X: 7, Y: 8}, 1)
	require.NoError(t, m.Export(ctx, &query))

	points, err := os.ReadFile(filepath.Join(dir, "sensor_nodes.dat"))
	require.NoError(t, err)
	require.Equal(t, "7 8 3\n", string(points))

	box, err := os.ReadFile(filepath.Join(dir, "bounding_boxes.dat"))
	require.NoError(t, err)
	require.Equal(t, "6 7\n8 7\n8 9\n6 9\n6 7\n\n", string(box))
}

func TestNewSensorIndexManager_RejectsBadFanout(t *testing.T) {
	cfg := config.Default()
	cfg.Index.MaxEntries = 1
	_, err := NewSensorIndexManager(cfg, zap.NewNop(), nil)
	require.ErrorIs(t, err, spatial.ErrInvalidArgument)
}
