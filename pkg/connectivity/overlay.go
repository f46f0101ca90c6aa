package connectivity

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/board"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/geom"
)

// DynamicLine is a transient ratsnest line, e.g. while dragging
type DynamicLine struct {
	A   geom.Point
	B   geom.Point
	Net int
}

// Overlay previews the connections a set of moving items would make. It
// snapshots the authoritative store when created and never writes to it.
// An Overlay is meant for one drag and is dropped afterwards.
type Overlay struct {
	local *Store
	nets  []*overlayNet
}

// overlayNet pairs the fixed copper of one net with its moving anchors
type overlayNet struct {
	net    int
	fixed  *node
	moving []Anchor
}

// NewOverlay builds a private store over items, the moving selection.
// Footprints in items contribute their pads. A nil cfg uses the
// configuration of store.
func NewOverlay(ctx context.Context, store *Store, items []board.Item, cfg *Config) (*Overlay, error) {
	if cfg == nil {
		c := store.Config()
		cfg = &c
	}
	local, err := New(cfg, WithLogger(store.log))
	if err != nil {
		return nil, err
	}
	if err := local.Build(ctx, ItemList(items), nil); err != nil {
		return nil, fmt.Errorf("failed to build overlay: %w", err)
	}

	o := &Overlay{local: local}

	moving := make(map[board.Handle]bool)
	for _, h := range local.st.index.Handles() {
		moving[h] = true
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	for _, net := range local.st.index.Nets() {
		if net == 0 {
			continue
		}
		var movingAnchors, fixed []Anchor
		for _, it := range local.st.index.NetItems(net) {
			movingAnchors = append(movingAnchors, itemAnchors(it)...)
		}
		for _, it := range store.st.index.NetItems(net) {
			if it.valid && !moving[it.key.handle] {
				fixed = append(fixed, itemAnchors(it)...)
			}
		}

		// Skip nets moving as a whole or not at all
		if len(movingAnchors) == 0 || len(fixed) == 0 {
			continue
		}
		o.nets = append(o.nets, &overlayNet{net: net, fixed: indexAnchors(fixed), moving: movingAnchors})
	}
	return o, nil
}

// Lines returns the preview lines with the selection moved by offset:
// for each net, one line from the board to the nearest moving anchor,
// then the selection's own ratsnest.
func (o *Overlay) Lines(offset geom.Point) []DynamicLine {
	var out []DynamicLine
	for _, on := range o.nets {
		var a, b geom.Point
		best := math.Inf(1)
		for _, m := range on.moving {
			p := geom.Add(m.Pos, offset)
			q, d := on.fixed.nearest(p)
			if d < best {
				a, b, best = q.Pos, p, d
			}
		}
		out = append(out, DynamicLine{A: a, B: b, Net: on.net})
	}

	for _, l := range o.local.RatsnestLines() {
		out = append(out, DynamicLine{A: geom.Add(l.A, offset), B: geom.Add(l.B, offset), Net: l.Net})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Net < out[j].Net })
	return out
}

// Local returns the private store over the selection
func (o *Overlay) Local() *Store {
	return o.local
}
