package internaltelemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/sushant-115/sensordb/core/indexing/spatial"
)

// TestIndexMetrics_Collect registers the instruments on an SDK meter backed
// by a manual reader and checks both recorded and observed values come out.
func TestIndexMetrics_Collect(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	stats := spatial.Stats{Records: 5, Nodes: 3, Height: 2, Splits: 1, RootGrowths: 1}
	m, err := NewIndexMetrics(provider.Meter("test"), func() spatial.Stats { return stats })
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()
	m.Record(ctx, "insert", time.Now(), nil)
	m.Record(ctx, "delete", time.Now(), errors.New("boom"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	found := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			found[md.Name] = md.Data
		}
	}

	ops, ok := found["sensordb.index.operations_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, ops.DataPoints, 2)

	records, ok := found["sensordb.index.records"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, records.DataPoints, 1)
	require.Equal(t, int64(5), records.DataPoints[0].Value)

	require.Contains(t, found, "sensordb.index.operation.duration")
	require.Contains(t, found, "sensordb.index.splits_total")
	require.Contains(t, found, "sensordb.index.root_changes_total")
}
