package geom

import (
	"fmt"
	"math"
)

// Collide reports whether a and b are closer than clearance. Touching
// shapes collide at zero clearance. Malformed operands return ErrMalformed.
func Collide(a, b Shape, clearance float64) (bool, error) {
	for _, s := range [2]Shape{a, b} {
		if p, ok := s.(*Polygon); ok {
			if err := p.Check(); err != nil {
				return false, err
			}
		}
	}
	if !a.Bounds().Inflate(clearance).Intersects(b.Bounds()) {
		return false, nil
	}

	// Reduce every pairing to a primitive on the left
	if c, ok := b.(Compound); ok {
		for _, s := range c {
			hit, err := Collide(a, s, clearance)
			if err != nil || hit {
				return hit, err
			}
		}
		return false, nil
	}

	switch sa := a.(type) {
	case Compound:
		for _, s := range sa {
			hit, err := Collide(s, b, clearance)
			if err != nil || hit {
				return hit, err
			}
		}
		return false, nil
	case Circle:
		return collideCircle(sa, b, clearance)
	case Segment:
		return collideSegment(sa, b, clearance)
	case *Polygon:
		return collidePolygon(sa, b, clearance)
	default:
		return false, fmt.Errorf("%w: unsupported shape %T", ErrMalformed, a)
	}
}

// Contains reports whether pt lies on s, within tolerance
func Contains(s Shape, pt Point, tolerance float64) (bool, error) {
	return Collide(Circle{Center: pt}, s, tolerance)
}

func collideCircle(c Circle, b Shape, clearance float64) (bool, error) {
	switch sb := b.(type) {
	case Circle:
		return Distance(c.Center, sb.Center) <= c.Radius+sb.Radius+clearance, nil
	case Segment:
		return SegmentPointDistance(c.Center, sb.A, sb.B) <= c.Radius+sb.Width/2+clearance, nil
	case *Polygon:
		if err := sb.Check(); err != nil {
			return false, err
		}
		if sb.Contains(c.Center) {
			return true, nil
		}
		return sb.edgeDistance(c.Center) <= c.Radius+clearance, nil
	}
	return false, fmt.Errorf("%w: unsupported shape %T", ErrMalformed, b)
}

func collideSegment(s Segment, b Shape, clearance float64) (bool, error) {
	switch sb := b.(type) {
	case Circle:
		return collideCircle(sb, s, clearance)
	case Segment:
		return SegmentDistance(s.A, s.B, sb.A, sb.B) <= s.Width/2+sb.Width/2+clearance, nil
	case *Polygon:
		if err := sb.Check(); err != nil {
			return false, err
		}
		if sb.Contains(s.A) || sb.Contains(s.B) {
			return true, nil
		}
		return polygonSegmentDistance(sb, s.A, s.B) <= s.Width/2+clearance, nil
	}
	return false, fmt.Errorf("%w: unsupported shape %T", ErrMalformed, b)
}

func collidePolygon(p *Polygon, b Shape, clearance float64) (bool, error) {
	if err := p.Check(); err != nil {
		return false, err
	}
	switch sb := b.(type) {
	case Circle:
		return collideCircle(sb, p, clearance)
	case Segment:
		return collideSegment(sb, p, clearance)
	case *Polygon:
		if err := sb.Check(); err != nil {
			return false, err
		}
		if p.Contains(sb.Points[0]) || sb.Contains(p.Points[0]) {
			return true, nil
		}
		n := len(sb.Points)
		for i := 0; i < n; i++ {
			if polygonSegmentDistance(p, sb.Points[i], sb.Points[(i+1)%n]) <= clearance {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("%w: unsupported shape %T", ErrMalformed, b)
}

func polygonSegmentDistance(p *Polygon, a, b Point) float64 {
	best := math.Inf(1)
	n := len(p.Points)
	for i := 0; i < n && best > 0; i++ {
		best = math.Min(best, SegmentDistance(a, b, p.Points[i], p.Points[(i+1)%n]))
	}
	return best
}

// Nearest returns the point of s closest to pt
func Nearest(s Shape, pt Point) Point {
	switch sh := s.(type) {
	case Circle:
		d := Distance(pt, sh.Center)
		if d <= sh.Radius || d == 0 {
			return pt
		}
		t := sh.Radius / d
		return Point{X: sh.Center.X + (pt.X-sh.Center.X)*t, Y: sh.Center.Y + (pt.Y-sh.Center.Y)*t}
	case Segment:
		return NearestOnSegment(pt, sh.A, sh.B)
	case *Polygon:
		if sh.Contains(pt) || len(sh.Points) == 0 {
			return pt
		}
		best, bestD := sh.Points[0], math.Inf(1)
		n := len(sh.Points)
		for i := 0; i < n; i++ {
			q := NearestOnSegment(pt, sh.Points[i], sh.Points[(i+1)%n])
			if d := Distance(pt, q); d < bestD {
				best, bestD = q, d
			}
		}
		return best
	case Compound:
		best, bestD := pt, math.Inf(1)
		for _, part := range sh {
			q := Nearest(part, pt)
			if d := Distance(pt, q); d < bestD {
				best, bestD = q, d
			}
		}
		return best
	}
	return pt
}
