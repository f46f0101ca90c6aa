package geom

import (
	"fmt"
	"math"
)

// Shape is the copper outline of an item on one layer
type Shape interface {
	// Bounds returns the shape's bounding box
	Bounds() Box
}

// Circle is a filled disc (round pads, vias)
type Circle struct {
	Center Point
	Radius float64
}

func (c Circle) Bounds() Box {
	return BoxOf(c.Center).Inflate(c.Radius)
}

// Segment is a capsule: every point within Width/2 of the line A-B.
// Tracks and oval pads use it.
type Segment struct {
	A     Point
	B     Point
	Width float64
}

func (s Segment) Bounds() Box {
	return BoxOf(s.A, s.B).Inflate(s.Width / 2)
}

// Polygon is a simple filled polygon. The closing edge is implicit.
type Polygon struct {
	Points []Point
	bounds Box
}

// NewPolygon returns a polygon over pts with its bounds precomputed
func NewPolygon(pts []Point) *Polygon {
	return &Polygon{Points: pts, bounds: BoxOf(pts...)}
}

// Rect returns the rectangle of size w x h centered at c, rotated by
// angle degrees counter-clockwise in board coordinates (Y down)
func Rect(c Point, w, h, angle float64) *Polygon {
	hw, hh := w/2, h/2
	corners := []Point{{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh}}
	return NewPolygon(Transform(corners, c, angle))
}

// Transform rotates pts by angle degrees (KiCad convention, Y down) and
// translates them by offset
func Transform(pts []Point, offset Point, angle float64) []Point {
	rad := -angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{
			X: p.X*cos - p.Y*sin + offset.X,
			Y: p.X*sin + p.Y*cos + offset.Y,
		}
	}
	return out
}

func (p *Polygon) Bounds() Box {
	if p.bounds == (Box{}) && len(p.Points) > 0 {
		p.bounds = BoxOf(p.Points...)
	}
	return p.bounds
}

// Check performs the cheap validity checks run on every collision
func (p *Polygon) Check() error {
	if len(p.Points) < 3 {
		return fmt.Errorf("%w: polygon has %d vertices", ErrMalformed, len(p.Points))
	}
	for _, pt := range p.Points {
		if !finite(pt) {
			return fmt.Errorf("%w: non-finite vertex %v", ErrMalformed, pt)
		}
	}
	return nil
}

// Validate runs Check and also rejects self-intersecting outlines.
// Only proper crossings count; shared vertices and touching edges are
// legal in zone fills.
func (p *Polygon) Validate() error {
	if err := p.Check(); err != nil {
		return err
	}
	n := len(p.Points)
	for i := 0; i < n; i++ {
		a1, a2 := p.Points[i], p.Points[(i+1)%n]
		ea := BoxOf(a1, a2)
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent through the closing edge
			}
			b1, b2 := p.Points[j], p.Points[(j+1)%n]
			if !ea.Intersects(BoxOf(b1, b2)) {
				continue
			}
			if segmentsCross(a1, a2, b1, b2) {
				return fmt.Errorf("%w: edges %d and %d cross", ErrMalformed, i, j)
			}
		}
	}
	return nil
}

// Contains reports whether pt lies inside the polygon using ray casting
func (p *Polygon) Contains(pt Point) bool {
	if len(p.Points) < 3 || !p.Bounds().Contains(pt) {
		return false
	}
	inside := false
	n := len(p.Points)
	for i := 0; i < n; i++ {
		pi, pj := p.Points[i], p.Points[(i+1)%n]
		if ((pi.Y > pt.Y) != (pj.Y > pt.Y)) &&
			(pt.X < (pj.X-pi.X)*(pt.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}
	return inside
}

// edgeDistance returns the distance from pt to the polygon boundary
func (p *Polygon) edgeDistance(pt Point) float64 {
	best := math.Inf(1)
	n := len(p.Points)
	for i := 0; i < n; i++ {
		best = math.Min(best, SegmentPointDistance(pt, p.Points[i], p.Points[(i+1)%n]))
	}
	return best
}

// Compound is a union of shapes, e.g. an arc as a chain of segments
type Compound []Shape

func (c Compound) Bounds() Box {
	if len(c) == 0 {
		return Box{}
	}
	b := c[0].Bounds()
	for _, s := range c[1:] {
		b = b.Union(s.Bounds())
	}
	return b
}

// Polyline returns the compound of capsules along pts
func Polyline(pts []Point, width float64) Compound {
	if len(pts) == 1 {
		return Compound{Segment{A: pts[0], B: pts[0], Width: width}}
	}
	c := make(Compound, 0, len(pts)-1)
	for i := 1; i < len(pts); i++ {
		c = append(c, Segment{A: pts[i-1], B: pts[i], Width: width})
	}
	return c
}
