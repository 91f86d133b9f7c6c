package spatial

import "fmt"

// Payload holds the environmental readings reported by a sensor.
type Payload struct {
	Humidity       int
	PollutionLevel int
	Temperature    int
}

// SensorRecord is a point-valued entry of the index. Its identity for lookup,
// deletion and update is the coordinate pair alone.
type SensorRecord struct {
	Point
	Payload
}

// NewSensorRecord is a convenience constructor used by loaders and tests.
func NewSensorRecord(x, y, humidity, pollutionLevel, temperature int) *SensorRecord {
	return &SensorRecord{
		Point: Point{X: x, Y: y},
		Payload: Payload{
			Humidity:       humidity,
			PollutionLevel: pollutionLevel,
			Temperature:    temperature,
		},
	}
}

// Box returns the degenerate bounding box of the record's point.
func (r SensorRecord) Box() BoundingBox {
	return PointBox(r.Point)
}

func (r SensorRecord) String() string {
	return fmt.Sprintf("Sensor at (%d, %d): Humidity = %d, Pollution Level = %d, Temperature = %d",
		r.X, r.Y, r.Humidity, r.PollutionLevel, r.Temperature)
}

// Visitor is invoked once per record matched by a range query.
type Visitor func(rec SensorRecord)
