package connectivity

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/board"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/geom"
)

// itemKey identifies one connectable item. Zones split into one item per
// filled island per layer; sub numbers them, 0 for everything else.
type itemKey struct {
	handle board.Handle
	sub    int
}

func (k itemKey) less(o itemKey) bool {
	if k.handle != o.handle {
		return k.handle.Less(o.handle)
	}
	return k.sub < o.sub
}

// Item is the connectivity metadata of one piece of copper. It refers to
// its board item by handle only; the board owns the content.
type Item struct {
	key     itemKey
	kind    board.Kind
	net     int
	layers  board.LayerSet
	anchors []geom.Point
	bounds  geom.Box
	rect    *rtreego.Rect
	shapes  map[board.LayerID]geom.Shape

	// malformed is the geometry error found when the item was indexed
	malformed error

	cluster *Cluster
	owner   int // net of the zone absorbing a net 0 item
	valid   bool
}

func (it *Item) Handle() board.Handle { return it.key.handle }
func (it *Item) Kind() board.Kind { return it.kind }
func (it *Item) Net() int { return it.net }
func (it *Item) Layers() board.LayerSet { return it.layers }
func (it *Item) Anchors() []geom.Point { return it.anchors }
func (it *Item) Valid() bool { return it.valid }
func (it *Item) Cluster() *Cluster { return it.cluster }
func (it *Item) Bounds() *rtreego.Rect { return it.rect }
func (it *Item) Malformed() error { return it.malformed }

// Shape returns the cached copper shape on layer
func (it *Item) Shape(layer board.LayerID) geom.Shape {
	return it.shapes[layer]
}

// clusterNet is the net whose clustering the item takes part in
func (it *Item) clusterNet() int {
	if it.net == 0 {
		return it.owner
	}
	return it.net
}

// island returns the filled polygon of a zone item
func (it *Item) island() (*geom.Polygon, bool) {
	if it.kind != board.KindZone {
		return nil, false
	}
	for _, s := range it.shapes {
		p, ok := s.(*geom.Polygon)
		return p, ok
	}
	return nil, false
}

// newItems wraps a board item. It returns nil for items without copper:
// unindexed handles, items on no copper layer and unfilled zones.
func newItems(bi board.Item, cfg *Config) []*Item {
	h := bi.Handle()
	if h.IsZero() || bi.OnLayers().Empty() {
		return nil
	}

	if z, ok := bi.(*board.Zone); ok {
		return zoneItems(z, cfg)
	}

	it := &Item{
		key:     itemKey{handle: h},
		kind:    bi.Kind(),
		net:     bi.Net(),
		layers:  bi.OnLayers(),
		anchors: finitePoints(bi.Anchors()),
		shapes:  make(map[board.LayerID]geom.Shape),
		valid:   true,
	}
	it.layers.Each(func(l board.LayerID) {
		var s geom.Shape
		if arc, ok := bi.(*board.Arc); ok && arc.Segments <= 0 {
			s = arc.Chords(cfg.ArcSegments)
		} else {
			s = bi.Shape(l)
		}
		if s != nil {
			it.shapes[l] = s
		}
	})
	if len(it.shapes) == 0 {
		return nil
	}
	for _, sh := range it.shapes {
		if err := checkShape(sh); err != nil {
			it.malformed = err
			it.anchors = nil
			break
		}
	}
	it.finish()
	return []*Item{it}
}

func zoneItems(z *board.Zone, cfg *Config) []*Item {
	var items []*Item
	sub := 0
	z.Layers.Each(func(l board.LayerID) {
		for _, island := range z.Islands(l) {
			it := &Item{
				key:     itemKey{handle: z.Handle(), sub: sub},
				kind:    board.KindZone,
				net:     z.Net(),
				layers:  board.Layers(l),
				anchors: sampleAnchors(island.Points, cfg.MaxZoneAnchors),
				shapes:  map[board.LayerID]geom.Shape{l: island},
				valid:   true,
			}
			if cfg.ValidateOutlines {
				it.malformed = island.Validate()
			} else {
				it.malformed = island.Check()
			}
			if it.malformed != nil {
				it.anchors = nil
			}
			it.finish()
			items = append(items, it)
			sub++
		}
	})
	return items
}

// checkShape runs the cheap polygon checks over s
func checkShape(s geom.Shape) error {
	switch sh := s.(type) {
	case *geom.Polygon:
		return sh.Check()
	case geom.Compound:
		for _, part := range sh {
			if err := checkShape(part); err != nil {
				return err
			}
		}
	}
	return nil
}

// finish caches the bounds and the R-tree rectangle
func (it *Item) finish() {
	first := true
	for _, s := range it.shapes {
		b := s.Bounds()
		if first {
			it.bounds, first = b, false
			continue
		}
		it.bounds = it.bounds.Union(b)
	}
	it.rect = rtreeRect(it.bounds)
}

// rtreeRect converts a box, giving degenerate and broken boxes a tiny
// extent so rtreego accepts them
func rtreeRect(b geom.Box) *rtreego.Rect {
	if !finiteBox(b) {
		b = geom.Box{}
	}
	dx := math.Max(1e-9, b.Max.X-b.Min.X)
	dy := math.Max(1e-9, b.Max.Y-b.Min.Y)
	rect, err := rtreego.NewRect(rtreego.Point{b.Min.X, b.Min.Y}, []float64{dx, dy})
	if err != nil {
		panic(err)
	}
	return rect
}

func finiteBox(b geom.Box) bool {
	for _, v := range [4]float64{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// finitePoints drops NaN and infinite anchors
func finitePoints(pts []geom.Point) []geom.Point {
	out := make([]geom.Point, 0, len(pts))
	for _, p := range pts {
		if !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0) {
			out = append(out, p)
		}
	}
	return out
}

// sampleAnchors picks at most n evenly spaced points of pts
func sampleAnchors(pts []geom.Point, n int) []geom.Point {
	if len(pts) <= n {
		return append([]geom.Point(nil), pts...)
	}
	out := make([]geom.Point, n)
	for i := range out {
		out[i] = pts[i*len(pts)/n]
	}
	return out
}
