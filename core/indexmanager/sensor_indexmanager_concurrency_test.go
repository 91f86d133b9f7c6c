package indexmanager

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sushant-115/sensordb/core/indexing/spatial"
)

// TestConcurrentWritersAndReaders drives the manager from bounded worker
// pools: writers insert a grid of sensors while readers run range queries
// and searches. The final tree must hold every sensor and stay consistent.
func TestConcurrentWritersAndReaders(t *testing.T) {
	m, _ := setupTestManager(t)
	ctx := context.Background()

	const side = 40
	var wg sync.WaitGroup
	writeSem := make(chan struct{}, 8)
	readSem := make(chan struct{}, 4)

	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			writeSem <- struct{}{}
			wg.Add(1)
			go func(x, y int) {
				defer wg.Done()
				defer func() { <-writeSem }()
				if err := m.InsertSensor(ctx, *spatial.NewSensorRecord(x, y, x, y, x+y)); err != nil {
					t.Errorf("insert (%d, %d): %v", x, y, err)
				}
			}(x, y)

			if (x+y)%10 == 0 {
				readSem <- struct{}{}
				wg.Add(1)
				go func(x, y int) {
					defer wg.Done()
					defer func() { <-readSem }()
					m.RangeQuery(ctx, spatial.SquareAround(spatial.Point{X: x, Y: y}, 3), nil)
					_, _ = m.SearchSensor(ctx, spatial.Point{X: x, Y: y})
				}(x, y)
			}
		}
	}
	wg.Wait()

	require.Equal(t, side*side, m.Stats().Records)
	require.Equal(t, side*side, m.RangeQuery(ctx, spatial.NewBoundingBox(0, 0, side-1, side-1), nil))
	require.NoError(t, m.Verify())

	rec, err := m.SearchSensor(ctx, spatial.Point{X: 17, Y: 23})
	require.NoError(t, err)
	require.Equal(t, 40, rec.Temperature)
}

func BenchmarkInsertSensor(b *testing.B) {
	m, err := NewSensorIndexManager(benchConfig(), nopLogger(), nil)
	require.NoError(b, err)
	defer m.Close()

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := m.InsertSensor(ctx, *spatial.NewSensorRecord(i%1000, i/1000, 0, 0, 0)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRangeQuery(b *testing.B) {
	m, err := NewSensorIndexManager(benchConfig(), nopLogger(), nil)
	require.NoError(b, err)
	defer m.Close()

	ctx := context.Background()
	for i := 0; i < 10000; i++ {
		require.NoError(b, m.InsertSensor(ctx, *spatial.NewSensorRecord(i%100*10, i/100*10, 0, 0, 0)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.RangeQuery(ctx, spatial.SquareAround(spatial.Point{X: i % 1000, Y: (i * 7) % 1000}, 25), nil)
	}
}
