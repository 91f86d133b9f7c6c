package indexmanager

import (
	"context"

	"github.com/sushant-115/sensordb/core/indexing/spatial"
)

// IndexManager interface defines the session operations offered over a
// sensor index.
type IndexManager interface {
	RangeQuery(ctx context.Context, box spatial.BoundingBox, visit spatial.Visitor) int
	DetectFire(ctx context.Context, center spatial.Point, radius int, visit spatial.Visitor) (spatial.BoundingBox, int, error)
	InsertSensor(ctx context.Context, rec spatial.SensorRecord) error
	DeleteSensor(ctx context.Context, p spatial.Point) error
	SearchSensor(ctx context.Context, p spatial.Point) (spatial.SensorRecord, error)

	// LoadInitial loads the first dataset into an empty index.
	LoadInitial(ctx context.Context) (LoadResult, error)
	// LoadNext refreshes readings from the next numbered dataset.
	LoadNext(ctx context.Context) (LoadResult, error)
	// Export writes plot artifacts; query may be nil.
	Export(ctx context.Context, query *spatial.BoundingBox) error

	Stats() spatial.Stats
	Verify() error
	// Name returns the name/type of this index manager (e.g., "sensor").
	Name() string
}

var _ IndexManager = (*SensorIndexManager)(nil)
