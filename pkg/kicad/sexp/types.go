// Package sexp provides typed access to KiCad S-expression trees.
// Values in KiCad 6+ board files are already millimeters and degrees, so
// the accessors return them unconverted.
package sexp

// Position represents a 2D coordinate in the KiCad coordinate system (mm)
type Position struct {
	X float64
	Y float64
}

// PositionAngle combines position with rotation in degrees
type PositionAngle struct {
	Position
	Angle float64
}

// Size represents dimensions
type Size struct {
	Width  float64 // Width in mm
	Height float64 // Height in mm
}

// BoundingBox represents a rectangular boundary
type BoundingBox struct {
	Min Position // Minimum (top-left) corner
	Max Position // Maximum (bottom-right) corner
}

// NewBoundingBox creates an empty bounding box
func NewBoundingBox() BoundingBox {
	return BoundingBox{
		Min: Position{X: 1e9, Y: 1e9},
		Max: Position{X: -1e9, Y: -1e9},
	}
}

// IsEmpty checks if the bounding box is empty
func (bb BoundingBox) IsEmpty() bool {
	return bb.Min.X > bb.Max.X || bb.Min.Y > bb.Max.Y
}

// Expand expands the bounding box to include a position
func (bb *BoundingBox) Expand(pos Position) {
	bb.Min.X = min(bb.Min.X, pos.X)
	bb.Min.Y = min(bb.Min.Y, pos.Y)
	bb.Max.X = max(bb.Max.X, pos.X)
	bb.Max.Y = max(bb.Max.Y, pos.Y)
}

// ExpandBox expands to include another bounding box
func (bb *BoundingBox) ExpandBox(other BoundingBox) {
	if !other.IsEmpty() {
		bb.Expand(other.Min)
		bb.Expand(other.Max)
	}
}

// Width returns the width of the bounding box
func (bb BoundingBox) Width() float64 {
	return bb.Max.X - bb.Min.X
}

// Height returns the height of the bounding box
func (bb BoundingBox) Height() float64 {
	return bb.Max.Y - bb.Min.Y
}

// Center returns the center point of the bounding box
func (bb BoundingBox) Center() Position {
	return Position{
		X: (bb.Min.X + bb.Max.X) / 2.0,
		Y: (bb.Min.Y + bb.Max.Y) / 2.0,
	}
}

// UUID represents a unique identifier (uuid or tstamp in KiCad files)
type UUID string
