package indexmanager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sushant-115/sensordb/config"
	"github.com/sushant-115/sensordb/core/export"
	"github.com/sushant-115/sensordb/core/indexing/spatial"
	"github.com/sushant-115/sensordb/core/ingest"
	internaltelemetry "github.com/sushant-115/sensordb/internal/telemetry"
	"github.com/sushant-115/sensordb/pkg/telemetry"
)

// LoadResult summarises one dataset load.
type LoadResult struct {
	Index    int
	Path     string
	Read     int // records parsed from the file
	Inserted int // new records added (initial load only)
	Updated  int // existing records whose payload was replaced
	Dropped  int // reload records with no sensor at their coordinates
}

// ===============================================
// SensorIndexManager: session around one sensor R-tree
// ===============================================

// SensorIndexManager owns the R-tree of a CLI session together with its
// dataset cursor and exporter. Every operation holds the manager lock for its
// whole duration.
type SensorIndexManager struct {
	mu       sync.RWMutex
	tree     *spatial.RTree
	datasets *ingest.Sequence
	exporter *export.Exporter

	sessionID string
	logger    *zap.Logger
	tracer    trace.Tracer
	metrics   *internaltelemetry.IndexMetrics
}

// NewSensorIndexManager builds an empty index from cfg. A nil tel records no
// telemetry.
func NewSensorIndexManager(cfg config.Config, logger *zap.Logger, tel *telemetry.Telemetry) (*SensorIndexManager, error) {
	if tel == nil {
		tel = telemetry.Noop()
	}
	tree, err := spatial.NewRTree(
		spatial.WithMaxEntries(cfg.Index.MaxEntries),
		spatial.WithMaxNodes(cfg.Index.MaxNodes),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rtree: %w", err)
	}

	m := &SensorIndexManager{
		tree:      tree,
		datasets:  ingest.NewSequence(cfg.Dataset.Dir, cfg.Dataset.Pattern),
		sessionID: uuid.NewString(),
		tracer:    tel.Tracer,
	}
	m.logger = logger.With(zap.String("component", "sensor_index"), zap.String("session", m.sessionID))
	m.exporter = export.NewExporter(cfg.Export, m.logger, nil)

	m.metrics, err = internaltelemetry.NewIndexMetrics(tel.Meter, m.Stats)
	if err != nil {
		return nil, fmt.Errorf("failed to create index metrics: %w", err)
	}
	return m, nil
}

// Close releases the metric callbacks.
func (m *SensorIndexManager) Close() error {
	return m.metrics.Close()
}

func (m *SensorIndexManager) Name() string { return "sensor" }

// SessionID identifies this manager in logs and traces.
func (m *SensorIndexManager) SessionID() string { return m.sessionID }

// DatasetIndex is the number of the last dataset loaded, 0 before the first.
func (m *SensorIndexManager) DatasetIndex() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.datasets.Index()
}

// StartMetricsAndTrace opens the span of one index operation.
func (m *SensorIndexManager) StartMetricsAndTrace(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	attrs = append(attrs,
		attribute.String("sensordb.session", m.sessionID),
		attribute.String("sensordb.operation", operation))
	ctx, span := m.tracer.Start(ctx, "SensorIndex/"+operation, trace.WithAttributes(attrs...))
	return ctx, span, time.Now()
}

// EndMetricsAndTrace closes the span and records the operation outcome.
func (m *SensorIndexManager) EndMetricsAndTrace(ctx context.Context, span trace.Span, start time.Time, operation string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	} else {
		span.SetStatus(otelcodes.Ok, "Success")
	}
	span.End()
	m.metrics.Record(ctx, operation, start, err)
}

// failure maps expected misses to a successful outcome for telemetry.
func failure(err, miss error) error {
	if errors.Is(err, miss) {
		return nil
	}
	return err
}

// RangeQuery reports every sensor whose location lies inside box and returns
// how many there were. visit may be nil.
func (m *SensorIndexManager) RangeQuery(ctx context.Context, box spatial.BoundingBox, visit spatial.Visitor) int {
	ctx, span, start := m.StartMetricsAndTrace(ctx, "range_query", attribute.String("box", box.String()))
	m.mu.RLock()
	count := m.tree.RangeQuery(box, visit)
	m.mu.RUnlock()

	span.SetAttributes(attribute.Int("matches", count))
	m.metrics.QueryMatches.Record(ctx, int64(count))
	m.EndMetricsAndTrace(ctx, span, start, "range_query", nil)
	return count
}

// DetectFire runs a range query over the square around center and returns
// that square with the number of sensors found in it.
func (m *SensorIndexManager) DetectFire(ctx context.Context, center spatial.Point, radius int, visit spatial.Visitor) (spatial.BoundingBox, int, error) {
	if radius < 0 {
		return spatial.BoundingBox{}, 0, fmt.Errorf("%w: radius must not be negative, got %d", spatial.ErrInvalidArgument, radius)
	}
	box := spatial.SquareAround(center, radius)
	count := m.RangeQuery(ctx, box, visit)
	if count > 0 {
		m.logger.Info("Sensors found in alert area",
			zap.Stringer("center", center), zap.Int("radius", radius), zap.Int("sensors", count))
	}
	return box, count, nil
}

// InsertSensor adds rec to the index. Duplicates of an existing location are
// kept as separate records.
func (m *SensorIndexManager) InsertSensor(ctx context.Context, rec spatial.SensorRecord) (err error) {
	ctx, span, start := m.StartMetricsAndTrace(ctx, "insert", attribute.Stringer("point", rec.Point))
	defer func() { m.EndMetricsAndTrace(ctx, span, start, "insert", err) }()

	m.mu.Lock()
	defer m.mu.Unlock()
	if err = m.tree.Insert(&rec); err != nil {
		m.logger.Warn("Insert failed", zap.Stringer("point", rec.Point), zap.Error(err))
		return err
	}
	m.logger.Debug("Inserted sensor", zap.Stringer("point", rec.Point))
	return nil
}

// DeleteSensor removes one record at p. It returns spatial.ErrNotFound when
// there is none; the index is unchanged in that case.
func (m *SensorIndexManager) DeleteSensor(ctx context.Context, p spatial.Point) (err error) {
	ctx, span, start := m.StartMetricsAndTrace(ctx, "delete", attribute.Stringer("point", p))
	defer func() { m.EndMetricsAndTrace(ctx, span, start, "delete", failure(err, spatial.ErrNotFound)) }()

	m.mu.Lock()
	defer m.mu.Unlock()
	if err = m.tree.Delete(p); err != nil {
		return err
	}
	m.logger.Debug("Deleted sensor", zap.Stringer("point", p))
	return nil
}

// SearchSensor returns the record at p.
func (m *SensorIndexManager) SearchSensor(ctx context.Context, p spatial.Point) (rec spatial.SensorRecord, err error) {
	ctx, span, start := m.StartMetricsAndTrace(ctx, "search", attribute.Stringer("point", p))
	defer func() { m.EndMetricsAndTrace(ctx, span, start, "search", failure(err, spatial.ErrNotFound)) }()

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tree.Search(p)
}

// LoadInitial inserts every record of the first dataset. A missing first
// dataset is reported as ingest.ErrDatasetNotFound.
func (m *SensorIndexManager) LoadInitial(ctx context.Context) (res LoadResult, err error) {
	ctx, span, start := m.StartMetricsAndTrace(ctx, "load_initial")
	defer func() { m.EndMetricsAndTrace(ctx, span, start, "load_initial", err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	ds, err := m.datasets.OpenFirst()
	if err != nil {
		return LoadResult{}, err
	}
	res = LoadResult{Index: ds.Index, Path: ds.Path, Read: len(ds.Records)}
	for i := range ds.Records {
		rec := ds.Records[i]
		if err = m.tree.Insert(&rec); err != nil {
			return res, fmt.Errorf("failed to insert sensor %s from %s: %w", rec.Point, ds.Path, err)
		}
		res.Inserted++
	}
	span.SetAttributes(attribute.Int("records", res.Inserted))
	m.logger.Info("Loaded dataset",
		zap.String("path", ds.Path), zap.Int("records", res.Inserted), zap.Int("height", m.tree.Height()))
	return res, nil
}

// LoadNext reads the next numbered dataset and replaces the payload of every
// sensor already present at a record's coordinates. Records at unknown
// coordinates are dropped. ingest.ErrNoMoreDatasets leaves the cursor where
// it was.
func (m *SensorIndexManager) LoadNext(ctx context.Context) (res LoadResult, err error) {
	ctx, span, start := m.StartMetricsAndTrace(ctx, "load_next")
	defer func() { m.EndMetricsAndTrace(ctx, span, start, "load_next", failure(err, ingest.ErrNoMoreDatasets)) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	ds, err := m.datasets.OpenNext()
	if err != nil {
		return LoadResult{}, err
	}
	res = LoadResult{Index: ds.Index, Path: ds.Path, Read: len(ds.Records)}
	for _, rec := range ds.Records {
		switch uerr := m.tree.UpdatePayload(rec.Point, rec.Payload); {
		case uerr == nil:
			res.Updated++
		case errors.Is(uerr, spatial.ErrNotFound):
			res.Dropped++
		default:
			return res, uerr
		}
	}
	if res.Dropped > 0 {
		m.logger.Warn("Dropped readings for unknown sensors",
			zap.String("path", ds.Path), zap.Int("dropped", res.Dropped))
	}
	span.SetAttributes(attribute.Int("updated", res.Updated), attribute.Int("dropped", res.Dropped))
	m.logger.Info("Reloaded dataset", zap.String("path", ds.Path), zap.Int("updated", res.Updated))
	return res, nil
}

// Export writes the plot artifacts of the current tree, plus query when it
// is not nil.
func (m *SensorIndexManager) Export(ctx context.Context, query *spatial.BoundingBox) (err error) {
	ctx, span, start := m.StartMetricsAndTrace(ctx, "export")
	defer func() { m.EndMetricsAndTrace(ctx, span, start, "export", err) }()

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.exporter.Export(ctx, m.tree, query)
}

// Stats returns the structural counters of the tree.
func (m *SensorIndexManager) Stats() spatial.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tree.Stats()
}

// Verify checks the structural invariants of the tree.
func (m *SensorIndexManager) Verify() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.tree.CheckInvariants(); err != nil {
		m.logger.Error("Index verification failed", zap.Error(err))
		return err
	}
	return nil
}
