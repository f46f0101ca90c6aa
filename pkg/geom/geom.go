// Package geom provides the planar shapes board items expose to the
// connectivity engine and the collision and nearest-point queries run
// against them. Units are millimeters.
package geom

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrMalformed is returned by collision queries when a shape cannot be
// evaluated, e.g. a polygon with too few vertices or a self-intersecting outline.
var ErrMalformed = errors.New("geom: malformed shape")

// Point is a position on the board
type Point = r2.Vec

// Pt is shorthand for Point{X: x, Y: y}
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p translated by d
func Add(p, d Point) Point {
	return r2.Add(p, d)
}

// Sub returns the vector from q to p
func Sub(p, q Point) Point {
	return r2.Sub(p, q)
}

// Distance returns the Euclidean distance between a and b
func Distance(a, b Point) float64 {
	return r2.Norm(r2.Sub(a, b))
}

func finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Box is an axis-aligned bounding box
type Box struct {
	Min Point
	Max Point
}

// BoxOf returns the smallest box containing pts
func BoxOf(pts ...Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	b := Box{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b.Min.X = min(b.Min.X, p.X)
		b.Min.Y = min(b.Min.Y, p.Y)
		b.Max.X = max(b.Max.X, p.X)
		b.Max.Y = max(b.Max.Y, p.Y)
	}
	return b
}

// Inflate grows the box by d on every side
func (b Box) Inflate(d float64) Box {
	return Box{
		Min: Point{X: b.Min.X - d, Y: b.Min.Y - d},
		Max: Point{X: b.Max.X + d, Y: b.Max.Y + d},
	}
}

// Union returns the smallest box containing both boxes
func (b Box) Union(o Box) Box {
	return BoxOf(b.Min, b.Max, o.Min, o.Max)
}

// Intersects reports whether the boxes overlap, edges included
func (b Box) Intersects(o Box) bool {
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y
}

// Contains reports whether p lies inside the box, edges included
func (b Box) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Size returns the width and height of the box
func (b Box) Size() (w, h float64) {
	return b.Max.X - b.Min.X, b.Max.Y - b.Min.Y
}

// NearestOnSegment returns the point of segment a-b closest to p
func NearestOnSegment(p, a, b Point) Point {
	ab := r2.Sub(b, a)
	l2 := r2.Dot(ab, ab)
	if l2 == 0 {
		return a
	}
	t := r2.Dot(r2.Sub(p, a), ab) / l2
	t = math.Max(0, math.Min(1, t))
	return r2.Add(a, r2.Scale(t, ab))
}

// SegmentPointDistance returns the distance from p to segment a-b
func SegmentPointDistance(p, a, b Point) float64 {
	return Distance(p, NearestOnSegment(p, a, b))
}

// orient returns the sign of the turn a->b->c
func orient(a, b, c Point) float64 {
	return r2.Cross(r2.Sub(b, a), r2.Sub(c, a))
}

func onSegment(p, a, b Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// SegmentsIntersect reports whether segments a1-a2 and b1-b2 share a point
func SegmentsIntersect(a1, a2, b1, b2 Point) bool {
	d1 := orient(b1, b2, a1)
	d2 := orient(b1, b2, a2)
	d3 := orient(a1, a2, b1)
	d4 := orient(a1, a2, b2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(a1, b1, b2):
		return true
	case d2 == 0 && onSegment(a2, b1, b2):
		return true
	case d3 == 0 && onSegment(b1, a1, a2):
		return true
	case d4 == 0 && onSegment(b2, a1, a2):
		return true
	}
	return false
}

// segmentsCross reports a proper crossing: interiors intersect at one point
func segmentsCross(a1, a2, b1, b2 Point) bool {
	d1 := orient(b1, b2, a1)
	d2 := orient(b1, b2, a2)
	d3 := orient(a1, a2, b1)
	d4 := orient(a1, a2, b2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// SegmentDistance returns the minimum distance between two segments
func SegmentDistance(a1, a2, b1, b2 Point) float64 {
	if SegmentsIntersect(a1, a2, b1, b2) {
		return 0
	}
	return math.Min(
		math.Min(SegmentPointDistance(a1, b1, b2), SegmentPointDistance(a2, b1, b2)),
		math.Min(SegmentPointDistance(b1, a1, a2), SegmentPointDistance(b2, a1, a2)),
	)
}

// ArcPoints approximates the circular arc through start, mid and end with
// segments+1 points. Collinear input degrades to the straight polyline.
func ArcPoints(start, mid, end Point, segments int) []Point {
	if segments < 1 {
		segments = 1
	}
	center, ok := circumcenter(start, mid, end)
	if !ok {
		return []Point{start, mid, end}
	}
	radius := Distance(center, start)
	a0 := math.Atan2(start.Y-center.Y, start.X-center.X)
	a1 := math.Atan2(mid.Y-center.Y, mid.X-center.X)
	a2 := math.Atan2(end.Y-center.Y, end.X-center.X)

	// Sweep from a0 to a2 in the direction that passes a1
	sweep := normAngle(a2 - a0)
	if normAngle(a1-a0) > sweep {
		sweep -= 2 * math.Pi
	}

	pts := make([]Point, 0, segments+1)
	for i := 0; i <= segments; i++ {
		a := a0 + sweep*float64(i)/float64(segments)
		pts = append(pts, Point{X: center.X + radius*math.Cos(a), Y: center.Y + radius*math.Sin(a)})
	}
	pts[0], pts[segments] = start, end
	return pts
}

// normAngle maps a to [0, 2π)
func normAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func circumcenter(a, b, c Point) (Point, bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < 1e-12 {
		return Point{}, false
	}
	a2 := r2.Norm2(a)
	b2 := r2.Norm2(b)
	c2 := r2.Norm2(c)
	return Point{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}, true
}
