package cv

import "image"

// Region is a rectangle in frame coordinates, min-inclusive, max-exclusive.
type Region struct {
	X1, Y1, X2, Y2 int
}

type Point struct {
	X, Y int
}

// NewRegion creates a new region
func NewRegion(x1, y1, x2, y2 int) Region {
	return Region{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Contains checks if a point is within the region
func (r Region) Contains(p Point) bool {
	return p.X >= r.X1 && p.X < r.X2 && p.Y >= r.Y1 && p.Y < r.Y2
}

// Width returns the width of the region
func (r Region) Width() int {
	return r.X2 - r.X1
}

// Height returns the height of the region
func (r Region) Height() int {
	return r.Y2 - r.Y1
}

// Center returns the midpoint of the region
func (r Region) Center() Point {
	return Point{X: (r.X1 + r.X2) / 2, Y: (r.Y1 + r.Y2) / 2}
}

// Empty reports whether the region covers no pixels
func (r Region) Empty() bool {
	return r.X2 <= r.X1 || r.Y2 <= r.Y1
}

// ToImageRectangle converts Region to *image.Rectangle for matching
func (r Region) ToImageRectangle() *image.Rectangle {
	return &image.Rectangle{
		Min: image.Point{X: r.X1, Y: r.Y1},
		Max: image.Point{X: r.X2, Y: r.Y2},
	}
}

// FromImageRectangle converts an image.Rectangle to a Region
func FromImageRectangle(rect image.Rectangle) Region {
	return Region{X1: rect.Min.X, Y1: rect.Min.Y, X2: rect.Max.X, Y2: rect.Max.Y}
}
