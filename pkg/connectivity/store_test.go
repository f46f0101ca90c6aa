package connectivity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/board"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/geom"
)

func threePads(net int) (*board.Board, []*board.Pad) {
	b := board.New()
	pads := []*board.Pad{newPad(net, 0, 0), newPad(net, 10, 0), newPad(net, 20, 0)}
	for _, p := range pads {
		b.Insert(p)
	}
	return b, pads
}

func TestNew(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, 32, s.Config().MaxZoneAnchors)

	_, err = New(&Config{Clearance: -1})
	assert.Error(t, err)

	cfg := &Config{}
	s, err = New(cfg)
	require.NoError(t, err)
	assert.Positive(t, s.Config().Workers)
	assert.Equal(t, 16, s.Config().ArcSegments)
	assert.Zero(t, cfg.Workers, "caller config is not modified")
}

func TestThreePadsGivePath(t *testing.T) {
	b, pads := threePads(5)
	s := buildStore(t, b)

	require.Len(t, s.Clusters(5), 3)
	edges := s.RatsnestEdges(5)
	require.Len(t, edges, 2)
	for _, e := range edges {
		assert.True(t, e.Visible)
		assert.InDelta(t, 10, e.Length, 1e-9)
		ends := map[board.Handle]bool{e.Source.Handle: true, e.Target.Handle: true}
		assert.False(t, ends[pads[0].Handle()] && ends[pads[2].Handle()], "outer pads are never joined directly")
	}
	assert.Equal(t, 2, s.GetUnconnectedCount())
}

func TestTrackMergesClusters(t *testing.T) {
	b, pads := threePads(5)
	s := buildStore(t, b)
	before := visibleCount(s, 5)

	tr := newTrack(5, 0, 0, 10, 0)
	b.Insert(tr)
	require.True(t, s.Add(tr))
	assert.Equal(t, []int{5}, s.DirtyNets())
	s.RecalculateRatsnest()

	clusters := s.Clusters(5)
	require.Len(t, clusters, 2)
	assert.ElementsMatch(t, []board.Handle{pads[0].Handle(), pads[1].Handle(), tr.Handle()}, clusters[0].Items)

	visible := visibleCount(s, 5)
	assert.Equal(t, 1, visible)
	assert.Less(t, visible, before)

	var edge Edge
	hidden := 0
	for _, e := range s.RatsnestEdges(5) {
		if e.Visible {
			edge = e
		} else {
			hidden++
		}
	}
	assert.ElementsMatch(t, []geom.Point{geom.Pt(10, 0), geom.Pt(20, 0)}, []geom.Point{edge.Source.Pos, edge.Target.Pos})
	assert.Equal(t, 1, hidden, "the satisfied edge is kept hidden")
	assert.Equal(t, 1, s.GetUnconnectedCount())
}

func TestSingleClusterNetHasNoEdges(t *testing.T) {
	b := board.New()
	insert(b, newPad(3, 0, 0), newPad(3, 10, 0), newTrack(3, 0, 0, 10, 0))
	s := buildStore(t, b)

	require.Len(t, s.Clusters(3), 1)
	assert.Empty(t, s.RatsnestEdges(3))
	assert.Zero(t, s.GetUnconnectedCount())
}

func TestOrphanedZoneIsland(t *testing.T) {
	b := board.New()
	z := newZone(7, 50, 50, 60, 60)
	insert(b, z)
	s := buildStore(t, b)

	clusters := s.Clusters(7)
	require.Len(t, clusters, 1)
	assert.True(t, clusters[0].Orphaned)
	assert.True(t, clusters[0].OriginPad.IsZero())
	assert.Empty(t, s.RatsnestEdges(7))
	assert.Zero(t, s.GetUnconnectedCount())

	// Two pads of the same net elsewhere still need one edge; the island
	// does not add any
	p1, p2 := newPad(7, 0, 0), newPad(7, 10, 0)
	insert(b, p1, p2)
	s.Add(p1)
	s.Add(p2)
	s.RecalculateRatsnest()
	assert.Len(t, s.Clusters(7), 3)
	assert.Equal(t, 1, s.GetUnconnectedCount())
}

func TestZoneTouchingPadIsNotOrphaned(t *testing.T) {
	b := board.New()
	p1, p2 := newPad(2, 55, 55), newPad(2, 55, 0)
	z := newZone(2, 50, 50, 60, 60)
	insert(b, p1, p2, z)
	s := buildStore(t, b)

	clusters := s.Clusters(2)
	require.Len(t, clusters, 2)
	for _, c := range clusters {
		assert.False(t, c.Orphaned)
	}
	assert.Equal(t, p1.Handle(), clusters[0].OriginPad)

	// The zone end of the edge is pulled to the island edge nearest the
	// other pad
	edges := s.RatsnestEdges(2)
	require.Len(t, edges, 1)
	assert.InDelta(t, 50, edges[0].Length, 1e-9)
	assert.Contains(t, []geom.Point{edges[0].Source.Pos, edges[0].Target.Pos}, geom.Pt(55, 50))
}

func TestNetZeroAbsorbedByZone(t *testing.T) {
	b := board.New()
	z := newZone(7, 50, 50, 60, 60)
	tr := newTrack(0, 52, 52, 58, 52)
	free := newTrack(0, 0, 0, 5, 0)
	insert(b, z, tr, free)
	s := buildStore(t, b)

	clusters := s.Clusters(7)
	require.Len(t, clusters, 1)
	assert.True(t, clusters[0].Orphaned)
	assert.ElementsMatch(t, []board.Handle{z.Handle(), tr.Handle()}, clusters[0].Items)
	assert.Equal(t, []board.Handle{z.Handle()}, s.GetConnectedItems(tr, board.AllKinds))

	zero := s.Clusters(0)
	require.Len(t, zero, 1)
	assert.Equal(t, []board.Handle{free.Handle()}, zero[0].Items)

	// Dropping the zone hands the track back to net 0
	require.True(t, s.Remove(z))
	assert.ElementsMatch(t, []int{0, 7}, s.DirtyNets())
	s.RecalculateRatsnest()
	assert.Nil(t, s.Clusters(7))
	assert.Len(t, s.Clusters(0), 2)
	assert.Empty(t, s.GetConnectedItems(tr, board.AllKinds))
}

func TestLowestZoneNetAbsorbs(t *testing.T) {
	b := board.New()
	z9, z4 := newZone(9, 0, 0, 10, 10), newZone(4, 10, 0, 20, 10)
	tr := newTrack(0, 5, 5, 15, 5)
	insert(b, z9, z4, tr)
	s := buildStore(t, b)

	require.Len(t, s.Clusters(4), 1)
	assert.Contains(t, s.Clusters(4)[0].Items, tr.Handle())
	require.Len(t, s.Clusters(9), 1)
	assert.NotContains(t, s.Clusters(9)[0].Items, tr.Handle())
	assert.Nil(t, s.Clusters(0))
}

func TestPartition(t *testing.T) {
	b := board.New()
	insert(b,
		newPad(1, 0, 0), newPad(1, 10, 0), newPad(1, 20, 0), newTrack(1, 0, 0, 10, 0),
		newPad(2, 0, 10), newVia(2, 5, 10), newTrack(2, 0, 10, 5, 10), newPad(2, 30, 10),
		newPad(3, 0, 20), newZone(3, 40, 15, 50, 25), newTrack(3, 0, 20, 40, 20),
		newPad(4, 100, 100),
	)
	s := buildStore(t, b)

	for _, net := range []int{1, 2, 3, 4} {
		seen := make(map[board.Handle]int)
		for _, c := range s.Clusters(net) {
			for _, h := range c.Items {
				seen[h]++
			}
		}
		var members []board.Handle
		for h, n := range seen {
			assert.Equal(t, 1, n, "net %d item %s in %d clusters", net, h, n)
			members = append(members, h)
		}
		assert.ElementsMatch(t, s.GetNetItems(net, board.AllKinds), members, "net %d", net)
	}

	assert.Len(t, s.Clusters(1), 2)
	assert.Len(t, s.Clusters(2), 2)
	assert.Len(t, s.Clusters(3), 1)
	assert.Len(t, s.Clusters(4), 1)
	assert.Equal(t, 2, s.GetUnconnectedCount())
	assertPartition(t, s)
}

// assertPartition checks every indexed item sits in exactly one cluster
// over all nets, net 0 included, and that the cluster belongs to the net
// the item clusters under
func assertPartition(t *testing.T, s *Store) {
	t.Helper()
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[itemKey]int)
	total := 0
	for net, ns := range s.st.nets {
		for _, c := range ns.clusters {
			for _, it := range c.items {
				seen[it.key]++
				total++
				assert.Equal(t, net, it.clusterNet(), "item %v clustered under net %d", it.key, net)
				assert.Same(t, c, it.cluster, "item %v cluster pointer", it.key)
			}
		}
	}
	for k, n := range seen {
		assert.Equal(t, 1, n, "item %v appears %d times across clusters", k, n)
	}
	assert.Equal(t, s.st.index.Len(), total)
	assert.Equal(t, s.ItemCount(), total)
}

func TestPartitionWithNetZero(t *testing.T) {
	b := board.New()
	z := newZone(7, 50, 50, 60, 60)
	inside := newTrack(0, 52, 52, 58, 52)
	free := newTrack(0, 0, 0, 5, 0)
	other := newTrack(0, 5, 0, 5, 5)
	insert(b, z, inside, free, other, newPad(7, 70, 55), newPad(1, 0, 20))
	s := buildStore(t, b)
	assertPartition(t, s)

	zero := s.Clusters(0)
	require.Len(t, zero, 1)
	assert.Equal(t, []board.Handle{free.Handle(), other.Handle()}, zero[0].Items)
	assert.Equal(t, []board.Handle{z.Handle()}, s.GetConnectedItems(inside, board.AllKinds))
	_, dangling := s.TestTrackEndpointDangling(inside)
	assert.False(t, dangling, "track inside the pour is not dangling")

	// Incremental path: a second track joins the pour, net 0 is dirty
	more := newTrack(0, 53, 58, 57, 58)
	b.Insert(more)
	require.True(t, s.Add(more))
	s.RecalculateRatsnest()
	assertPartition(t, s)
	assert.ElementsMatch(t, []board.Handle{z.Handle()}, s.GetConnectedItems(more, board.AllKinds))
	assert.Contains(t, s.Clusters(7)[0].Items, inside.Handle())
	_, dangling = s.TestTrackEndpointDangling(inside)
	assert.False(t, dangling)

	// Moving the track out of the pour hands it back to net 0
	inside.Move(geom.Pt(-40, -40))
	require.True(t, s.Update(inside))
	s.RecalculateRatsnest()
	assertPartition(t, s)
	assert.Empty(t, s.GetConnectedItems(inside, board.AllKinds))
}

func TestPadlessNetHasNoEdges(t *testing.T) {
	b := board.New()
	insert(b,
		newZone(1, 0, 0, 10, 10), newVia(1, 5, 5),
		newZone(1, 30, 0, 40, 10), newVia(1, 35, 5),
	)
	s := buildStore(t, b)

	clusters := s.Clusters(1)
	require.Len(t, clusters, 2)
	for _, c := range clusters {
		assert.True(t, c.Orphaned)
		assert.Len(t, c.Items, 2)
	}
	assert.Empty(t, s.RatsnestEdges(1))
	assert.Zero(t, s.GetUnconnectedCount())
}

func TestBuildIsIdempotent(t *testing.T) {
	b := board.New()
	insert(b,
		newPad(1, 0, 0), newPad(1, 3, 4), newPad(1, 9, 1), newPad(1, 2, 8),
		newZone(1, 20, 20, 30, 30), newPad(1, 25, 25),
		newTrack(2, 0, 50, 10, 50), newPad(2, 0, 50), newPad(2, 20, 50),
	)
	s := buildStore(t, b)
	first := map[int]snapshot{}
	for _, n := range s.NetCodes() {
		first[n] = snap(s, n)
	}

	require.NoError(t, s.Build(context.Background(), b, nil))
	for _, n := range s.NetCodes() {
		assert.Equal(t, first[n], snap(s, n), "net %d", n)
	}
	assert.Len(t, s.NetCodes(), len(first))
}

func TestRecalculateDrainsDirtySet(t *testing.T) {
	b, _ := threePads(5)
	s := buildStore(t, b)
	assert.Empty(t, s.DirtyNets())

	tr, other := newTrack(5, 10, 0, 20, 0), newPad(6, 0, 30)
	insert(b, tr, other)
	s.Add(tr)
	s.Add(other)
	assert.Equal(t, []int{5, 6}, s.DirtyNets())

	assert.Equal(t, 2, s.RecalculateRatsnest())
	assert.Empty(t, s.DirtyNets())

	before := snap(s, 5)
	assert.Zero(t, s.RecalculateRatsnest())
	assert.Equal(t, before, snap(s, 5))
}

func TestQueriesTolerateDirtyNets(t *testing.T) {
	b, pads := threePads(5)
	s := buildStore(t, b)

	tr := newTrack(5, 0, 0, 10, 0)
	b.Insert(tr)
	s.Add(tr)

	assert.Equal(t, 2, s.GetUnconnectedCount(), "results are those of the last recompute")
	assert.Empty(t, s.GetConnectedItems(tr, board.AllKinds), "not yet clustered")
	assert.Empty(t, s.GetConnectedItems(pads[0], board.AllKinds))
	assert.Equal(t, []int{5}, s.DirtyNets(), "queries leave the dirty set alone")
}

func TestAddRemoveInverse(t *testing.T) {
	b, _ := threePads(5)
	s := buildStore(t, b)
	before := snap(s, 5)

	tr := newTrack(5, 0, 0, 10, 0)
	b.Insert(tr)
	require.True(t, s.Add(tr))
	s.RecalculateRatsnest()
	require.NotEqual(t, before, snap(s, 5))

	require.True(t, s.Remove(tr))
	s.RecalculateRatsnest()
	assert.Equal(t, before, snap(s, 5))
}

func TestAddRemoveInverseKeepsHiddenEdges(t *testing.T) {
	b, _ := threePads(5)
	s := buildStore(t, b)

	join := newTrack(5, 0, 0, 10, 0)
	b.Insert(join)
	s.Add(join)
	s.RecalculateRatsnest()
	before := snap(s, 5)

	tr := newTrack(5, 10, 0, 20, 0)
	b.Insert(tr)
	s.Add(tr)
	s.RecalculateRatsnest()
	assert.Zero(t, visibleCount(s, 5))

	s.Remove(tr)
	s.RecalculateRatsnest()
	assert.Equal(t, before, snap(s, 5))
}

func TestAddRemoveEdgeCases(t *testing.T) {
	b := board.New()
	s := newTestStore(t)

	assert.False(t, s.Add(newPad(1, 0, 0)), "items not on the board have no handle")

	p := newPad(1, 0, 0)
	b.Insert(p)
	assert.True(t, s.Add(p))
	assert.False(t, s.Add(p), "already indexed")

	unfilled := &board.Zone{Layers: board.Layers(board.FCu), NetCode: 1}
	b.Insert(unfilled)
	assert.False(t, s.Add(unfilled))

	nocopper := &board.Pad{Position: geom.Pt(5, 5), Width: 1, Height: 1, NetCode: 1}
	b.Insert(nocopper)
	assert.False(t, s.Add(nocopper))

	stray := newPad(1, 9, 9)
	b.Insert(stray)
	assert.False(t, s.Remove(stray), "removing an unknown item is a no-op")
	assert.Equal(t, 1, s.ItemCount())
}

func TestFootprintExpandsToPads(t *testing.T) {
	b := board.New()
	fp := &board.Footprint{Reference: "R1", Pads: []*board.Pad{newPad(1, 0, 0), newPad(2, 2, 0)}}
	b.Insert(fp)
	s := newTestStore(t)

	require.True(t, s.Add(fp))
	assert.Equal(t, []int{1, 2}, s.DirtyNets())
	assert.Equal(t, 2, s.ItemCount())

	s.RecalculateRatsnest()
	require.True(t, s.Remove(fp))
	assert.Zero(t, s.ItemCount())
	assert.Equal(t, []int{1, 2}, s.DirtyNets())
}

func TestUpdateAfterNetChange(t *testing.T) {
	b, _ := threePads(5)
	tr := newTrack(5, 0, 0, 10, 0)
	b.Insert(tr)
	s := buildStore(t, b)
	require.Len(t, s.Clusters(5), 2)

	tr.SetNet(6)
	require.True(t, s.Update(tr))
	assert.Equal(t, []int{5, 6}, s.DirtyNets())
	s.RecalculateRatsnest()

	assert.Len(t, s.Clusters(5), 3)
	require.Len(t, s.Clusters(6), 1)
	assert.Equal(t, []board.Handle{tr.Handle()}, s.Clusters(6)[0].Items)
}

func TestUpdateAfterMove(t *testing.T) {
	b, _ := threePads(5)
	tr := newTrack(5, 0, 0, 10, 0)
	b.Insert(tr)
	s := buildStore(t, b)

	tr.Move(geom.Pt(10, 0))
	s.Update(tr)
	s.RecalculateRatsnest()

	clusters := s.Clusters(5)
	require.Len(t, clusters, 2)
	assert.Len(t, clusters[0].Items, 1, "first pad is on its own now")
}

func TestBuildBusy(t *testing.T) {
	b, _ := threePads(5)
	s := buildStore(t, b)

	s.buildMu.Lock()
	err := s.Build(context.Background(), b, nil)
	s.buildMu.Unlock()

	assert.ErrorIs(t, err, ErrBusy)
	assert.Len(t, s.Clusters(5), 3, "previous state intact")
}

func TestBuildCancelled(t *testing.T) {
	b, pads := threePads(5)
	s := buildStore(t, b)
	before := snap(s, 5)

	tr := newTrack(5, 0, 0, 10, 0)
	b.Insert(tr)

	p := &recordingProgress{cancel: true}
	err := s.Build(context.Background(), b, p)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, []string{"index", "cluster"}, p.stages, "stops before the ratsnest")
	assert.Equal(t, before, snap(s, 5))
	assert.Equal(t, len(pads), s.ItemCount())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Build(ctx, b, nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, before, snap(s, 5))
}

func TestBuildReportsProgress(t *testing.T) {
	b, _ := threePads(5)
	s := newTestStore(t)

	p := &recordingProgress{}
	require.NoError(t, s.Build(context.Background(), b, p))
	assert.Equal(t, []string{"index", "cluster", "ratsnest"}, p.stages)
}

func TestBuildDiscardsPendingEdits(t *testing.T) {
	b, _ := threePads(5)
	s := buildStore(t, b)

	stray := newPad(8, 50, 50)
	b.Insert(stray)
	s.Add(stray)
	require.NotEmpty(t, s.DirtyNets())

	require.NoError(t, s.Build(context.Background(), b, nil))
	assert.Empty(t, s.DirtyNets())
	assert.Len(t, s.Clusters(8), 1)
}
