package board

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/geom"
)

// Kind is the type of a board item
type Kind uint8

const (
	KindPad Kind = iota
	KindVia
	KindTrack
	KindArc
	KindZone
	KindFootprint
)

var kindNames = [...]string{"pad", "via", "track", "arc", "zone", "footprint"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// KindMask selects a set of kinds in queries
type KindMask uint8

// AllKinds matches every connectable kind
const AllKinds KindMask = 1<<KindPad | 1<<KindVia | 1<<KindTrack | 1<<KindArc | 1<<KindZone

// Mask returns the mask holding kinds
func Mask(kinds ...Kind) KindMask {
	var m KindMask
	for _, k := range kinds {
		m |= 1 << k
	}
	return m
}

func (m KindMask) Has(k Kind) bool {
	return m&(1<<k) != 0
}

// Item is a piece of board content. The board owns items; consumers
// refer to them by Handle.
type Item interface {
	// Handle returns the arena handle, zero until inserted
	Handle() Handle
	Kind() Kind
	// Net returns the net code; 0 means no net
	Net() int
	SetNet(code int)
	// OnLayers returns the copper layers the item occupies
	OnLayers() LayerSet
	// Anchors returns the canonical points of the item: pad centers,
	// track ends, via centers
	Anchors() []geom.Point
	// Shape returns the copper shape on layer, nil when absent there
	Shape(layer LayerID) geom.Shape
	// Move translates the item
	Move(delta geom.Point)

	bind(h Handle)
}

// slot carries the arena handle of an item
type slot struct {
	handle Handle
}

func (s *slot) Handle() Handle { return s.handle }
func (s *slot) bind(h Handle) { s.handle = h }

// PadShape is the flashing of a pad
type PadShape uint8

const (
	PadRect PadShape = iota
	PadCircle
	PadOval
	PadRoundRect
	PadTrapezoid
	PadCustom
)

// ParsePadShape maps a KiCad pad shape keyword
func ParsePadShape(s string) PadShape {
	switch s {
	case "circle":
		return PadCircle
	case "oval":
		return PadOval
	case "roundrect":
		return PadRoundRect
	case "trapezoid":
		return PadTrapezoid
	case "custom":
		return PadCustom
	default:
		return PadRect
	}
}

// Pad is a footprint pad in board coordinates
type Pad struct {
	slot
	Number    string
	Footprint Handle // owning footprint, zero for free pads
	Position  geom.Point
	Width     float64
	Height    float64
	Angle     float64 // degrees
	Flash     PadShape
	Drill     float64
	Layers    LayerSet
	NetCode   int
}

func (p *Pad) Kind() Kind { return KindPad }
func (p *Pad) Net() int { return p.NetCode }
func (p *Pad) SetNet(code int) { p.NetCode = code }
func (p *Pad) OnLayers() LayerSet { return p.Layers }
func (p *Pad) Anchors() []geom.Point { return []geom.Point{p.Position} }
func (p *Pad) Move(delta geom.Point) { p.Position = geom.Add(p.Position, delta) }

func (p *Pad) Shape(layer LayerID) geom.Shape {
	if !p.Layers.Has(layer) {
		return nil
	}
	switch p.Flash {
	case PadCircle:
		return geom.Circle{Center: p.Position, Radius: p.Width / 2}
	case PadOval:
		if p.Width == p.Height {
			return geom.Circle{Center: p.Position, Radius: p.Width / 2}
		}
		// Capsule along the long axis
		long, short := p.Width, p.Height
		axis := []geom.Point{{X: -(long - short) / 2}, {X: (long - short) / 2}}
		if p.Height > p.Width {
			long, short = p.Height, p.Width
			axis = []geom.Point{{Y: -(long - short) / 2}, {Y: (long - short) / 2}}
		}
		ends := geom.Transform(axis, p.Position, p.Angle)
		return geom.Segment{A: ends[0], B: ends[1], Width: short}
	default:
		return geom.Rect(p.Position, p.Width, p.Height, p.Angle)
	}
}

// Via is a plated hole joining the layers it spans
type Via struct {
	slot
	Position geom.Point
	Diameter float64
	Drill    float64
	Layers   LayerSet
	NetCode  int
}

func (v *Via) Kind() Kind { return KindVia }
func (v *Via) Net() int { return v.NetCode }
func (v *Via) SetNet(code int) { v.NetCode = code }
func (v *Via) OnLayers() LayerSet { return v.Layers }
func (v *Via) Anchors() []geom.Point { return []geom.Point{v.Position} }
func (v *Via) Move(delta geom.Point) { v.Position = geom.Add(v.Position, delta) }

func (v *Via) Shape(layer LayerID) geom.Shape {
	if !v.Layers.Has(layer) {
		return nil
	}
	return geom.Circle{Center: v.Position, Radius: v.Diameter / 2}
}

// Track is a straight copper segment on one layer
type Track struct {
	slot
	Start   geom.Point
	End     geom.Point
	Width   float64
	Layer   LayerID
	NetCode int
}

func (t *Track) Kind() Kind { return KindTrack }
func (t *Track) Net() int { return t.NetCode }
func (t *Track) SetNet(code int) { t.NetCode = code }
func (t *Track) OnLayers() LayerSet { return Layers(t.Layer) }
func (t *Track) Anchors() []geom.Point { return []geom.Point{t.Start, t.End} }

func (t *Track) Move(delta geom.Point) {
	t.Start = geom.Add(t.Start, delta)
	t.End = geom.Add(t.End, delta)
}

func (t *Track) Shape(layer LayerID) geom.Shape {
	if layer != t.Layer {
		return nil
	}
	return geom.Segment{A: t.Start, B: t.End, Width: t.Width}
}

// DefaultArcSegments is the chord count used when an arc leaves Segments zero
const DefaultArcSegments = 16

// Arc is a circular copper track through Start, Mid and End
type Arc struct {
	slot
	Start    geom.Point
	Mid      geom.Point
	End      geom.Point
	Width    float64
	Layer    LayerID
	NetCode  int
	Segments int // chord count for collisions, DefaultArcSegments when zero
}

func (a *Arc) Kind() Kind { return KindArc }
func (a *Arc) Net() int { return a.NetCode }
func (a *Arc) SetNet(code int) { a.NetCode = code }
func (a *Arc) OnLayers() LayerSet { return Layers(a.Layer) }
func (a *Arc) Anchors() []geom.Point { return []geom.Point{a.Start, a.End} }

func (a *Arc) Move(delta geom.Point) {
	a.Start = geom.Add(a.Start, delta)
	a.Mid = geom.Add(a.Mid, delta)
	a.End = geom.Add(a.End, delta)
}

func (a *Arc) Shape(layer LayerID) geom.Shape {
	if layer != a.Layer {
		return nil
	}
	n := a.Segments
	if n <= 0 {
		n = DefaultArcSegments
	}
	return a.Chords(n)
}

// Chords approximates the arc with n capsules
func (a *Arc) Chords(n int) geom.Compound {
	return geom.Polyline(geom.ArcPoints(a.Start, a.Mid, a.End, n), a.Width)
}

// Zone is a copper pour. Fills holds the filled islands per layer; a zone
// that was never filled has none and carries no copper.
type Zone struct {
	slot
	Name    string
	Layers  LayerSet
	Outline []geom.Point
	Fills   map[LayerID][]*geom.Polygon
	NetCode int
}

func (z *Zone) Kind() Kind { return KindZone }
func (z *Zone) Net() int { return z.NetCode }
func (z *Zone) SetNet(code int) { z.NetCode = code }
func (z *Zone) OnLayers() LayerSet { return z.Layers }

// Anchors returns the outline vertices
func (z *Zone) Anchors() []geom.Point { return z.Outline }

// Islands returns the filled islands on layer
func (z *Zone) Islands(layer LayerID) []*geom.Polygon {
	return z.Fills[layer]
}

// AddIsland appends a filled island on layer
func (z *Zone) AddIsland(layer LayerID, pts []geom.Point) *geom.Polygon {
	if z.Fills == nil {
		z.Fills = make(map[LayerID][]*geom.Polygon)
	}
	p := geom.NewPolygon(pts)
	z.Fills[layer] = append(z.Fills[layer], p)
	return p
}

// Filled reports whether the zone has any island
func (z *Zone) Filled() bool {
	for _, islands := range z.Fills {
		if len(islands) > 0 {
			return true
		}
	}
	return false
}

func (z *Zone) Shape(layer LayerID) geom.Shape {
	islands := z.Fills[layer]
	if len(islands) == 0 {
		return nil
	}
	c := make(geom.Compound, len(islands))
	for i, p := range islands {
		c[i] = p
	}
	return c
}

func (z *Zone) Move(delta geom.Point) {
	for i := range z.Outline {
		z.Outline[i] = geom.Add(z.Outline[i], delta)
	}
	for layer, islands := range z.Fills {
		moved := make([]*geom.Polygon, len(islands))
		for i, p := range islands {
			pts := make([]geom.Point, len(p.Points))
			for j, pt := range p.Points {
				pts[j] = geom.Add(pt, delta)
			}
			moved[i] = geom.NewPolygon(pts)
		}
		z.Fills[layer] = moved
	}
}

// Footprint groups pads. It carries no copper itself; the connectivity
// engine expands it into its pads.
type Footprint struct {
	slot
	Reference string
	Value     string
	Position  geom.Point
	Angle     float64
	Pads      []*Pad
}

func (f *Footprint) Kind() Kind { return KindFootprint }
func (f *Footprint) Net() int { return 0 }
func (f *Footprint) SetNet(int) {}
func (f *Footprint) OnLayers() LayerSet { return 0 }
func (f *Footprint) Anchors() []geom.Point { return nil }
func (f *Footprint) Shape(LayerID) geom.Shape { return nil }

// Move translates the footprint and its pads
func (f *Footprint) Move(delta geom.Point) {
	f.Position = geom.Add(f.Position, delta)
	for _, p := range f.Pads {
		p.Move(delta)
	}
}

// Pad returns the pad with the given number
func (f *Footprint) Pad(number string) *Pad {
	for _, p := range f.Pads {
		if p.Number == number {
			return p
		}
	}
	return nil
}
