package connectivity

import (
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/board"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/geom"
)

// itemIndex is the spatial and electrical index of connectable items.
// It never marks nets dirty; the store does that.
type itemIndex struct {
	cfg      *Config
	tree     *rtreego.Rtree
	byHandle map[board.Handle][]*Item
	byNet    map[int]map[itemKey]*Item
	size     int
}

func newItemIndex(cfg *Config) *itemIndex {
	return &itemIndex{
		cfg:      cfg,
		tree:     rtreego.NewTree(2, 25, 50),
		byHandle: make(map[board.Handle][]*Item),
		byNet:    make(map[int]map[itemKey]*Item),
	}
}

// Add indexes bi and returns the new items. It returns false when bi
// carries no copper or its handle is already indexed.
func (x *itemIndex) Add(bi board.Item) ([]*Item, bool) {
	if _, ok := x.byHandle[bi.Handle()]; ok {
		return nil, false
	}
	items := newItems(bi, x.cfg)
	if len(items) == 0 {
		return nil, false
	}
	x.byHandle[bi.Handle()] = items
	for _, it := range items {
		x.tree.Insert(it)
		x.netItems(it.net)[it.key] = it
		x.size++
	}
	return items, true
}

// Remove drops the items of h and returns them. Unknown handles are a no-op.
func (x *itemIndex) Remove(h board.Handle) ([]*Item, bool) {
	items, ok := x.byHandle[h]
	if !ok {
		return nil, false
	}
	delete(x.byHandle, h)
	for _, it := range items {
		x.tree.Delete(it)
		if m := x.byNet[it.net]; m != nil {
			delete(m, it.key)
			if len(m) == 0 {
				delete(x.byNet, it.net)
			}
		}
		it.valid = false
		x.size--
	}
	return items, true
}

func (x *itemIndex) netItems(net int) map[itemKey]*Item {
	m, ok := x.byNet[net]
	if !ok {
		m = make(map[itemKey]*Item)
		x.byNet[net] = m
	}
	return m
}

// Items returns the items indexed for h
func (x *itemIndex) Items(h board.Handle) []*Item {
	return x.byHandle[h]
}

// Handles returns every indexed handle in order
func (x *itemIndex) Handles() []board.Handle {
	out := make([]board.Handle, 0, len(x.byHandle))
	for h := range x.byHandle {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// NetItems returns the items carrying net, ordered by key
func (x *itemIndex) NetItems(net int) []*Item {
	m := x.byNet[net]
	out := make([]*Item, 0, len(m))
	for _, it := range m {
		out = append(out, it)
	}
	sortItems(out)
	return out
}

// Nets returns the nets with at least one item, ascending
func (x *itemIndex) Nets() []int {
	out := make([]int, 0, len(x.byNet))
	for n := range x.byNet {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func (x *itemIndex) Len() int {
	return x.size
}

// QueryConnected returns the items touching it on a shared layer that
// also satisfy pred, ordered by key. Malformed geometry never touches
// anything; each such item found is reported as a diagnostic.
func (x *itemIndex) QueryConnected(it *Item, pred func(*Item) bool) ([]*Item, []Diagnostic) {
	var hits []*Item
	var diags []Diagnostic

	report := func(bad *Item, err error) {
		diags = append(diags, Diagnostic{Net: it.clusterNet(), Handle: bad.key.handle, Err: err})
	}

	if it.malformed != nil {
		report(it, it.malformed)
		return nil, diags
	}

	search := rtreeRect(it.bounds.Inflate(x.cfg.Clearance))
	for _, s := range x.tree.SearchIntersect(search) {
		other := s.(*Item)
		if other == it || !other.valid || !other.layers.Intersects(it.layers) {
			continue
		}
		if pred != nil && !pred(other) {
			continue
		}
		if other.malformed != nil {
			report(other, other.malformed)
			continue
		}
		touching, err := x.collide(it, other)
		if err != nil {
			report(other, err)
			continue
		}
		if touching {
			hits = append(hits, other)
		}
	}
	sortItems(hits)
	return hits, diags
}

// collide tests the two items layer by layer
func (x *itemIndex) collide(a, b *Item) (bool, error) {
	shared := a.layers & b.layers
	for _, l := range shared.IDs() {
		sa, sb := a.shapes[l], b.shapes[l]
		if sa == nil || sb == nil {
			continue
		}
		hit, err := geom.Collide(sa, sb, x.cfg.Clearance)
		if err != nil {
			return false, err
		}
		if hit {
			return true, nil
		}
	}
	return false, nil
}

// Contains reports whether the copper of it covers pt on any layer
func (x *itemIndex) Contains(it *Item, pt geom.Point) bool {
	for _, s := range it.shapes {
		if ok, err := geom.Contains(s, pt, x.cfg.Clearance+epsilon); err == nil && ok {
			return true
		}
	}
	return false
}

// epsilon absorbs rounding in point-on-copper tests
const epsilon = 1e-6

func sortItems(items []*Item) {
	sort.Slice(items, func(i, j int) bool { return items[i].key.less(items[j].key) })
}

// item resolves a key to its item, nil when not indexed
func (x *itemIndex) item(k itemKey) *Item {
	items := x.byHandle[k.handle]
	if k.sub < 0 || k.sub >= len(items) {
		return nil
	}
	return items[k.sub]
}
