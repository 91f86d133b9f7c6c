package spatial

import (
	"fmt"
	"math"
)

// Point is an integer coordinate pair on the sensor grid.
type Point struct {
	X, Y int
}

func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// BoundingBox represents a Minimum Bounding Rectangle (MBR) in 2D space.
// Minima never exceed maxima, except for the empty box returned by EmptyBox.
type BoundingBox struct {
	MinX, MinY int
	MaxX, MaxY int
}

// NewBoundingBox builds a box from two opposite corners, swapping coordinates
// where needed so that minima ≤ maxima.
func NewBoundingBox(minX, minY, maxX, maxY int) BoundingBox {
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return BoundingBox{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// PointBox returns the degenerate box of a single point.
func PointBox(p Point) BoundingBox {
	return BoundingBox{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
}

// EmptyBox is the box of a node without entries. It overlaps nothing and is
// the identity element of Union.
func EmptyBox() BoundingBox {
	return BoundingBox{MinX: math.MaxInt, MinY: math.MaxInt, MaxX: math.MinInt, MaxY: math.MinInt}
}

// SquareAround returns the axis-aligned square that circumscribes the circle
// of the given radius around center.
func SquareAround(center Point, radius int) BoundingBox {
	return BoundingBox{
		MinX: center.X - radius,
		MinY: center.Y - radius,
		MaxX: center.X + radius,
		MaxY: center.Y + radius,
	}
}

// IsEmpty reports whether the box encloses nothing.
func (b BoundingBox) IsEmpty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

// Area calculates the area of the box. Point boxes and the empty box have
// zero area.
func (b BoundingBox) Area() int64 {
	if b.IsEmpty() {
		return 0
	}
	return int64(b.MaxX-b.MinX) * int64(b.MaxY-b.MinY)
}

// Overlaps checks if two boxes intersect. Touching boundaries count.
func (b BoundingBox) Overlaps(other BoundingBox) bool {
	return !(b.MinX > other.MaxX || b.MaxX < other.MinX ||
		b.MinY > other.MaxY || b.MaxY < other.MinY)
}

// Contains checks if the box fully encloses another box.
func (b BoundingBox) Contains(other BoundingBox) bool {
	if other.IsEmpty() {
		return true
	}
	return b.MinX <= other.MinX && b.MaxX >= other.MaxX &&
		b.MinY <= other.MinY && b.MaxY >= other.MaxY
}

// Union returns the MBR that encloses both boxes.
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	return BoundingBox{
		MinX: min(b.MinX, other.MinX),
		MinY: min(b.MinY, other.MinY),
		MaxX: max(b.MaxX, other.MaxX),
		MaxY: max(b.MaxY, other.MaxY),
	}
}

// Enlargement calculates the increase in area if this box were to be enlarged
// to include another box.
func (b BoundingBox) Enlargement(other BoundingBox) int64 {
	return b.Union(other).Area() - b.Area()
}

// doubledCenter is the centre of the box in doubled coordinates, which keeps
// Manhattan distance comparisons exact for boxes with odd extents.
func (b BoundingBox) doubledCenter() Point {
	return Point{X: b.MinX + b.MaxX, Y: b.MinY + b.MaxY}
}

// Corners returns the closed outline of the box: bottom-left, bottom-right,
// top-right, top-left and bottom-left again.
func (b BoundingBox) Corners() [5]Point {
	return [5]Point{
		{b.MinX, b.MinY},
		{b.MaxX, b.MinY},
		{b.MaxX, b.MaxY},
		{b.MinX, b.MaxY},
		{b.MinX, b.MinY},
	}
}

func (b BoundingBox) String() string {
	if b.IsEmpty() {
		return "[empty]"
	}
	return fmt.Sprintf("[(%d, %d) - (%d, %d)]", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

func manhattan(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
