package internaltelemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/sushant-115/sensordb/core/indexing/spatial"
)

// IndexMetrics holds all the metric instruments for the sensor index.
type IndexMetrics struct {
	OperationsCounter metric.Int64Counter
	OperationLatency  metric.Float64Histogram
	QueryMatches      metric.Int64Histogram

	records     metric.Int64ObservableGauge
	nodes       metric.Int64ObservableGauge
	height      metric.Int64ObservableGauge
	splits      metric.Int64ObservableCounter
	merges      metric.Int64ObservableCounter
	borrows     metric.Int64ObservableCounter
	rootChanges metric.Int64ObservableCounter
	reg         metric.Registration
}

// NewIndexMetrics creates and registers all the metrics for the sensor index.
// stats is polled on every collection and must be safe to call from the
// exporter's goroutine.
func NewIndexMetrics(meter metric.Meter, stats func() spatial.Stats) (*IndexMetrics, error) {
	m := &IndexMetrics{}
	var err error

	if m.OperationsCounter, err = meter.Int64Counter(
		"sensordb.index.operations_total",
		metric.WithDescription("Total number of index operations by kind and outcome."),
		metric.WithUnit("1"),
	); err != nil {
		return nil, err
	}
	if m.OperationLatency, err = meter.Float64Histogram(
		"sensordb.index.operation.duration",
		metric.WithDescription("The latency of index operations."),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.QueryMatches, err = meter.Int64Histogram(
		"sensordb.index.query.matches",
		metric.WithDescription("Number of sensors reported per range query."),
		metric.WithUnit("1"),
	); err != nil {
		return nil, err
	}

	if m.records, err = meter.Int64ObservableGauge("sensordb.index.records",
		metric.WithDescription("Sensors currently indexed.")); err != nil {
		return nil, err
	}
	if m.nodes, err = meter.Int64ObservableGauge("sensordb.index.nodes",
		metric.WithDescription("Live R-tree nodes.")); err != nil {
		return nil, err
	}
	if m.height, err = meter.Int64ObservableGauge("sensordb.index.height",
		metric.WithDescription("Number of R-tree levels.")); err != nil {
		return nil, err
	}
	if m.splits, err = meter.Int64ObservableCounter("sensordb.index.splits_total",
		metric.WithDescription("Node splits caused by overflow.")); err != nil {
		return nil, err
	}
	if m.merges, err = meter.Int64ObservableCounter("sensordb.index.merges_total",
		metric.WithDescription("Sibling merges caused by underflow.")); err != nil {
		return nil, err
	}
	if m.borrows, err = meter.Int64ObservableCounter("sensordb.index.borrows_total",
		metric.WithDescription("Sibling borrows caused by underflow.")); err != nil {
		return nil, err
	}
	if m.rootChanges, err = meter.Int64ObservableCounter("sensordb.index.root_changes_total",
		metric.WithDescription("Root growths and shrinks.")); err != nil {
		return nil, err
	}

	m.reg, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := stats()
		o.ObserveInt64(m.records, int64(s.Records))
		o.ObserveInt64(m.nodes, int64(s.Nodes))
		o.ObserveInt64(m.height, int64(s.Height))
		o.ObserveInt64(m.splits, int64(s.Splits))
		o.ObserveInt64(m.merges, int64(s.Merges))
		o.ObserveInt64(m.borrows, int64(s.Borrows))
		o.ObserveInt64(m.rootChanges, int64(s.RootGrowths), metric.WithAttributes(attribute.String("direction", "grow")))
		o.ObserveInt64(m.rootChanges, int64(s.RootShrinks), metric.WithAttributes(attribute.String("direction", "shrink")))
		return nil
	}, m.records, m.nodes, m.height, m.splits, m.merges, m.borrows, m.rootChanges)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Record adds one finished operation to the counters and latency histogram.
func (m *IndexMetrics) Record(ctx context.Context, operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := attribute.NewSet(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	m.OperationsCounter.Add(ctx, 1, metric.WithAttributeSet(attrs))
	m.OperationLatency.Record(ctx, float64(time.Since(start).Microseconds())/1000, metric.WithAttributeSet(attrs))
}

// Close unregisters the observable callback.
func (m *IndexMetrics) Close() error {
	return m.reg.Unregister()
}
