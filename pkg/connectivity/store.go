package connectivity

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/board"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/geom"
)

// Store is the connectivity of one board: the item index, the clusters
// and the ratsnest of every net, and the set of nets awaiting recompute.
//
// Add, Remove, Update, RecalculateRatsnest and RemoveInvalidRefs must be
// called from one goroutine. Queries may be called from any goroutine.
type Store struct {
	cfg     *Config
	log     *log.Logger
	metrics *Metrics
	live    Liveness

	buildMu sync.Mutex // held for the whole of a Build
	mu      sync.RWMutex
	st      *state
	hidden  map[int]bool // nets with their ratsnest display turned off
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger, log.Default() otherwise
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithMetrics records recompute activity into m
func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLiveness sets the handle check used by RemoveInvalidRefs
func WithLiveness(l Liveness) Option {
	return func(s *Store) { s.live = l }
}

type netState struct {
	net      int
	clusters []*Cluster
	rn       *RatsnestGraph
	diags    []Diagnostic
}

type state struct {
	index *itemIndex
	nets  map[int]*netState
	dirty *DirtySet
	stale []Diagnostic
}

func newState(cfg *Config) *state {
	return &state{
		index: newItemIndex(cfg),
		nets:  make(map[int]*netState),
		dirty: NewDirtySet(),
	}
}

// New creates an empty store. A nil cfg uses DefaultConfig.
func New(cfg *Config, opts ...Option) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Store{
		cfg:    &c,
		hidden: make(map[int]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = log.Default()
	}
	s.st = newState(s.cfg)
	return s, nil
}

// Config returns the validated configuration
func (s *Store) Config() Config {
	return *s.cfg
}

// Build discards all derived state and rebuilds it from src. The new
// state is assembled on the side and swapped in only on success, so a
// failed or cancelled build leaves the previous state intact. A Build
// requested while another is running returns ErrBusy.
func (s *Store) Build(ctx context.Context, src Source, progress Progress) error {
	if !s.buildMu.TryLock() {
		s.metrics.build("busy")
		return ErrBusy
	}
	defer s.buildMu.Unlock()

	if progress == nil {
		progress = nopProgress{}
	}
	start := time.Now()

	st := newState(s.cfg)
	items := ItemList(src.Items()).Items()
	for i, bi := range items {
		st.index.Add(bi)
		progress.Report("index", i+1, len(items))
	}

	nets := st.index.Nets()
	s.assignOwners(st)
	work := withoutNetZero(nets)
	absorbed := st.absorbed()

	results := make([]*netState, len(work))
	s.fanOut(work, func(i, net int) {
		results[i] = s.clusterPass(st, net, st.members(net, absorbed))
	})
	if len(nets) > 0 && nets[0] == 0 {
		st.setNet(s.clusterPass(st, 0, st.unowned()))
	}
	progress.Report("cluster", len(nets), len(nets))

	// Checkpoint: nothing is published yet
	if progress.Cancelled() {
		s.metrics.build("cancelled")
		s.log.Debug("connectivity build cancelled", "items", len(items))
		return ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		s.metrics.build("cancelled")
		return fmt.Errorf("failed to build connectivity: %w", err)
	}

	s.fanOut(work, func(i, net int) {
		s.ratsnestPass(st, results[i], nil)
	})
	s.fanOut(work, func(i, net int) {
		results[i].rn.optimizeVisibility(st.index)
	})
	for _, ns := range results {
		st.setNet(ns)
	}
	progress.Report("ratsnest", len(work), len(work))

	s.mu.Lock()
	s.st = st
	unconnected := s.unconnectedLocked()
	s.mu.Unlock()

	s.reportDiagnostics(st, nets)
	s.metrics.build("ok")
	s.metrics.observe("build", start, len(nets), unconnected)
	s.log.Debug("connectivity built", "items", st.index.Len(), "nets", len(nets),
		"unconnected", unconnected, "elapsed", time.Since(start))
	return nil
}

// Add indexes a board item and marks its net dirty. Footprints add their
// pads. It returns false when nothing was added.
func (s *Store) Add(bi board.Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.each(bi, s.addLocked)
}

// Remove drops a board item and marks its net dirty. Unknown items are a
// no-op returning false.
func (s *Store) Remove(bi board.Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.each(bi, func(it board.Item) bool { return s.removeLocked(it.Handle()) })
}

// Update re-indexes an item whose geometry or net changed
func (s *Store) Update(bi board.Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.each(bi, func(it board.Item) bool {
		s.removeLocked(it.Handle())
		return s.addLocked(it)
	})
}

// each applies fn to bi, or to every pad of a footprint
func (s *Store) each(bi board.Item, fn func(board.Item) bool) bool {
	fp, ok := bi.(*board.Footprint)
	if !ok {
		return fn(bi)
	}
	done := false
	for _, p := range fp.Pads {
		if fn(p) {
			done = true
		}
	}
	return done
}

func (s *Store) addLocked(bi board.Item) bool {
	items, ok := s.st.index.Add(bi)
	if ok {
		s.st.markDirty(items)
	}
	return ok
}

func (s *Store) removeLocked(h board.Handle) bool {
	items, ok := s.st.index.Remove(h)
	if ok {
		s.st.markDirty(items)
	}
	return ok
}

// markDirty marks the nets whose clusters depend on items. Zones and
// net 0 copper also dirty net 0 so zone absorption is recomputed.
func (st *state) markDirty(items []*Item) {
	for _, it := range items {
		st.dirty.Mark(it.net)
		if it.kind == board.KindZone || it.net == 0 {
			st.dirty.Mark(0)
		}
		if it.owner != 0 {
			st.dirty.Mark(it.owner)
		}
	}
}

// RecalculateRatsnest reclusters every dirty net and rebuilds its
// ratsnest, then returns the number of nets recomputed. Nets are spread
// over the workers; the call returns once every net is done.
func (s *Store) RecalculateRatsnest() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.st
	if st.dirty.Len() == 0 {
		return 0
	}
	start := time.Now()

	if st.dirty.Has(0) {
		st.dirty.Mark(s.assignOwners(st)...)
	}
	nets := st.dirty.Drain()
	work := withoutNetZero(nets)
	absorbed := st.absorbed()

	results := make([]*netState, len(work))
	s.fanOut(work, func(i, net int) {
		ns := s.clusterPass(st, net, st.members(net, absorbed))
		var prev *RatsnestGraph
		if old := st.nets[net]; old != nil {
			prev = old.rn
		}
		s.ratsnestPass(st, ns, prev)
		results[i] = ns
	})
	if len(nets) > 0 && nets[0] == 0 {
		st.setNet(s.clusterPass(st, 0, st.unowned()))
	}
	s.fanOut(work, func(i, net int) {
		results[i].rn.optimizeVisibility(st.index)
	})
	for _, ns := range results {
		st.setNet(ns)
	}

	s.reportDiagnostics(st, nets)
	s.metrics.observe("recalculate", start, len(nets), s.unconnectedLocked())
	s.log.Debug("ratsnest recalculated", "nets", len(nets), "elapsed", time.Since(start))
	return len(nets)
}

// setNet stores ns, dropping nets left without items
func (st *state) setNet(ns *netState) {
	if len(ns.clusters) == 0 {
		delete(st.nets, ns.net)
		return
	}
	st.nets[ns.net] = ns
}

// fanOut runs fn for every net on at most cfg.Workers goroutines and
// waits for all of them
func (s *Store) fanOut(nets []int, fn func(i, net int)) {
	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for i, net := range nets {
		i, net := i, net
		g.Go(func() error {
			fn(i, net)
			return nil
		})
	}
	_ = g.Wait()
}

// clusterPass clusters exactly items under net. Net 0 passes only its
// unowned items; absorbed ones belong to their owner's pass.
func (s *Store) clusterPass(st *state, net int, items []*Item) *netState {
	clusters, diags := clusterNet(st.index, net, items)
	return &netState{net: net, clusters: clusters, diags: diags}
}

func (s *Store) ratsnestPass(st *state, ns *netState, prev *RatsnestGraph) {
	rn, diags := buildRatsnest(st.index, ns.net, ns.clusters, prev)
	ns.rn = rn
	ns.diags = append(ns.diags, diags...)
}

// assignOwners gives every net 0 item the lowest net of a zone island it
// touches, 0 when none, and returns the nets whose absorbed items changed
func (s *Store) assignOwners(st *state) []int {
	zone := func(o *Item) bool { return o.kind == board.KindZone && o.net != 0 }
	var changed []int
	for _, it := range st.index.NetItems(0) {
		owner := 0
		hits, _ := st.index.QueryConnected(it, zone)
		for _, z := range hits {
			if owner == 0 || z.net < owner {
				owner = z.net
			}
		}
		if owner != it.owner {
			changed = append(changed, it.owner, owner)
			it.owner = owner
		}
	}
	return changed
}

// absorbed groups the net 0 items by the net that owns them
func (st *state) absorbed() map[int][]*Item {
	out := make(map[int][]*Item)
	for _, it := range st.index.NetItems(0) {
		if it.owner != 0 {
			out[it.owner] = append(out[it.owner], it)
		}
	}
	return out
}

// members returns the items of net plus the net 0 items it absorbed,
// ordered by key
func (st *state) members(net int, absorbed map[int][]*Item) []*Item {
	items := append(st.index.NetItems(net), absorbed[net]...)
	sortItems(items)
	return items
}

// unowned returns the net 0 items no zone absorbed, ordered by key
func (st *state) unowned() []*Item {
	var out []*Item
	for _, it := range st.index.NetItems(0) {
		if it.owner == 0 {
			out = append(out, it)
		}
	}
	return out
}

func withoutNetZero(nets []int) []int {
	out := make([]int, 0, len(nets))
	for _, n := range nets {
		if n != 0 {
			out = append(out, n)
		}
	}
	return out
}

func (s *Store) reportDiagnostics(st *state, nets []int) {
	for _, net := range nets {
		ns := st.nets[net]
		if ns == nil {
			continue
		}
		for _, d := range ns.diags {
			s.metrics.diagnostic(d)
			s.log.Warn("connectivity diagnostic", "kind", diagnosticKind(d), "net", d.Net, "item", d.Handle, "err", d.Err)
		}
	}
}

// RemoveInvalidRefs drops every indexed item whose handle the liveness
// check rejects and marks its net dirty. It returns the number of board
// items dropped. Without a Liveness it does nothing.
func (s *Store) RemoveInvalidRefs() int {
	if s.live == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, h := range s.st.index.Handles() {
		if s.live.Valid(h) {
			continue
		}
		items, _ := s.st.index.Remove(h)
		s.st.markDirty(items)
		d := Diagnostic{Net: items[0].net, Handle: h, Err: ErrStaleReference}
		s.st.stale = append(s.st.stale, d)
		s.metrics.diagnostic(d)
		s.log.Warn("dropped stale item reference", "net", d.Net, "item", h)
		removed++
	}
	return removed
}

// GetUnconnectedCount returns the number of visible ratsnest edges over
// all nets
func (s *Store) GetUnconnectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unconnectedLocked()
}

func (s *Store) unconnectedLocked() int {
	n := 0
	for net, ns := range s.st.nets {
		if net != 0 {
			n += ns.rn.Unconnected()
		}
	}
	return n
}

// GetConnectedItems returns the items sharing a cluster with bi, filtered
// by kinds. Items not yet clustered have no connections.
func (s *Store) GetConnectedItems(bi board.Item, kinds board.KindMask) []board.Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := newHandleSet()
	for _, it := range s.st.index.Items(bi.Handle()) {
		if it.cluster == nil {
			continue
		}
		for _, o := range it.cluster.items {
			if o.valid && kinds.Has(o.kind) {
				set.add(o.key.handle)
			}
		}
	}
	set.remove(bi.Handle())
	return set.sorted()
}

// GetConnectedPads returns the pads sharing a cluster with bi
func (s *Store) GetConnectedPads(bi board.Item) []board.Handle {
	return s.GetConnectedItems(bi, board.Mask(board.KindPad))
}

// GetConnectedTracks returns the tracks and arcs sharing a cluster with bi
func (s *Store) GetConnectedTracks(bi board.Item) []board.Handle {
	return s.GetConnectedItems(bi, board.Mask(board.KindTrack, board.KindArc))
}

// GetConnectedItemsAtAnchor returns the items of bi's cluster whose copper
// covers anchor
func (s *Store) GetConnectedItemsAtAnchor(bi board.Item, anchor geom.Point, kinds board.KindMask) []board.Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := newHandleSet()
	for _, it := range s.st.index.Items(bi.Handle()) {
		if it.cluster == nil {
			continue
		}
		for _, o := range it.cluster.items {
			if o.valid && kinds.Has(o.kind) && s.st.index.Contains(o, anchor) {
				set.add(o.key.handle)
			}
		}
	}
	set.remove(bi.Handle())
	return set.sorted()
}

// GetNetItems returns the indexed items carrying net, filtered by kinds
func (s *Store) GetNetItems(net int, kinds board.KindMask) []board.Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := newHandleSet()
	for _, it := range s.st.index.NetItems(net) {
		if it.valid && kinds.Has(it.kind) {
			set.add(it.key.handle)
		}
	}
	return set.sorted()
}

// IsConnectedOnLayer reports whether another item of bi's cluster, of one
// of kinds, touches bi on layer
func (s *Store) IsConnectedOnLayer(bi board.Item, layer board.LayerID, kinds board.KindMask) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, it := range s.st.index.Items(bi.Handle()) {
		shape := it.shapes[layer]
		if it.cluster == nil || shape == nil {
			continue
		}
		for _, o := range it.cluster.items {
			if o.key.handle == it.key.handle || !o.valid || !kinds.Has(o.kind) {
				continue
			}
			other := o.shapes[layer]
			if other == nil {
				continue
			}
			if hit, err := geom.Collide(shape, other, s.cfg.Clearance); err == nil && hit {
				return true
			}
		}
	}
	return false
}

// TestTrackEndpointDangling reports the first end of a track, arc or via
// that no other item of its cluster covers
func (s *Store) TestTrackEndpointDangling(bi board.Item) (geom.Point, bool) {
	switch bi.Kind() {
	case board.KindTrack, board.KindArc, board.KindVia:
	default:
		return geom.Point{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.st.index.Items(bi.Handle())
	if len(items) == 0 || items[0].cluster == nil {
		return geom.Point{}, false
	}
	it := items[0]
	for _, end := range it.anchors {
		covered := false
		for _, o := range it.cluster.items {
			if o == it || !o.valid || !o.layers.Intersects(it.layers) {
				continue
			}
			if s.st.index.Contains(o, end) {
				covered = true
				break
			}
		}
		if !covered {
			return end, true
		}
	}
	return geom.Point{}, false
}

// ClusterInfo is a read-only view of one cluster
type ClusterInfo struct {
	Net       int
	Items     []board.Handle
	Orphaned  bool
	OriginPad board.Handle // zero when the cluster has no pad
}

// Clusters returns the clusters of net in a stable order
func (s *Store) Clusters(net int) []ClusterInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns := s.st.nets[net]
	if ns == nil {
		return nil
	}
	out := make([]ClusterInfo, 0, len(ns.clusters))
	for _, c := range ns.clusters {
		set := newHandleSet()
		for _, it := range c.items {
			set.add(it.key.handle)
		}
		info := ClusterInfo{Net: net, Items: set.sorted(), Orphaned: c.orphaned}
		if c.originPad != nil {
			info.OriginPad = c.originPad.key.handle
		}
		out = append(out, info)
	}
	return out
}

// RatsnestEdges returns the visible and hidden edges of net
func (s *Store) RatsnestEdges(net int) []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ns := s.st.nets[net]; ns != nil {
		return ns.rn.Edges()
	}
	return nil
}

// NetCodes returns the nets holding at least one cluster
func (s *Store) NetCodes() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]int, 0, len(s.st.nets))
	for n := range s.st.nets {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// DirtyNets returns the nets awaiting recompute
func (s *Store) DirtyNets() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.dirty.Nets()
}

// Diagnostics returns the conditions found by the last recompute of each
// net followed by the stale references dropped since the last Build
func (s *Store) Diagnostics() []Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nets := make([]int, 0, len(s.st.nets))
	for n := range s.st.nets {
		nets = append(nets, n)
	}
	sort.Ints(nets)

	var out []Diagnostic
	for _, n := range nets {
		out = append(out, s.st.nets[n].diags...)
	}
	return append(out, s.st.stale...)
}

// ItemCount returns the number of indexed items. Zones count once per
// filled island.
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.index.Len()
}

// SetNetRatsnestVisible turns the ratsnest display of net on or off. It
// only affects RatsnestLines.
func (s *Store) SetNetRatsnestVisible(net int, show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if show {
		delete(s.hidden, net)
	} else {
		s.hidden[net] = true
	}
}

// RatsnestLines returns the visible edges of every displayed net
func (s *Store) RatsnestLines() []DynamicLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nets := make([]int, 0, len(s.st.nets))
	for n := range s.st.nets {
		if n != 0 && !s.hidden[n] {
			nets = append(nets, n)
		}
	}
	sort.Ints(nets)

	var out []DynamicLine
	for _, n := range nets {
		for _, e := range s.st.nets[n].rn.VisibleEdges() {
			out = append(out, DynamicLine{A: e.Source.Pos, B: e.Target.Pos, Net: n})
		}
	}
	return out
}

type handleSet map[board.Handle]struct{}

func newHandleSet() handleSet { return make(handleSet) }

func (hs handleSet) add(h board.Handle) { hs[h] = struct{}{} }
func (hs handleSet) remove(h board.Handle) { delete(hs, h) }

func (hs handleSet) sorted() []board.Handle {
	out := make([]board.Handle, 0, len(hs))
	for h := range hs {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
