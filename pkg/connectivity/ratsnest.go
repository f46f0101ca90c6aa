package connectivity

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/board"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/geom"
)

// Anchor is a ratsnest endpoint: a point on an item
type Anchor struct {
	Pos    geom.Point
	Handle board.Handle
	sub    int
}

func (a Anchor) key() itemKey {
	return itemKey{handle: a.Handle, sub: a.sub}
}

// Edge is a missing connection between two clusters of one net. Hidden
// edges are already satisfied by copper and kept so undo can reveal them
// without a recompute.
type Edge struct {
	Source  Anchor
	Target  Anchor
	Length  float64
	Visible bool
}

func edgeLess(a, b Edge) bool {
	if ka, kb := a.Source.key(), b.Source.key(); ka != kb {
		return ka.less(kb)
	}
	if ka, kb := a.Target.key(), b.Target.key(); ka != kb {
		return ka.less(kb)
	}
	for _, d := range [4][2]float64{
		{a.Source.Pos.X, b.Source.Pos.X},
		{a.Source.Pos.Y, b.Source.Pos.Y},
		{a.Target.Pos.X, b.Target.Pos.X},
		{a.Target.Pos.Y, b.Target.Pos.Y},
	} {
		if d[0] != d[1] {
			return d[0] < d[1]
		}
	}
	return false
}

// RatsnestGraph holds the ratsnest of one net
type RatsnestGraph struct {
	net   int
	edges []Edge // visible edges first, in spanning order
}

// Net returns the net the graph was built for
func (g *RatsnestGraph) Net() int { return g.net }

// Edges returns every edge, visible and hidden
func (g *RatsnestGraph) Edges() []Edge {
	if g == nil {
		return nil
	}
	return append([]Edge(nil), g.edges...)
}

// VisibleEdges returns the edges still to be routed
func (g *RatsnestGraph) VisibleEdges() []Edge {
	if g == nil {
		return nil
	}
	var out []Edge
	for _, e := range g.edges {
		if e.Visible {
			out = append(out, e)
		}
	}
	return out
}

// Unconnected returns the number of visible edges
func (g *RatsnestGraph) Unconnected() int {
	if g == nil {
		return 0
	}
	n := 0
	for _, e := range g.edges {
		if e.Visible {
			n++
		}
	}
	return n
}

// node is one cluster taking part in the spanning tree
type node struct {
	cluster *Cluster
	anchors []Anchor
	tree    *kdtree.Tree
	at      map[[2]float64]int // lowest anchor index per position
}

func newNode(c *Cluster) *node {
	var anchors []Anchor
	for _, it := range c.items {
		if it.valid {
			anchors = append(anchors, itemAnchors(it)...)
		}
	}
	n := indexAnchors(anchors)
	n.cluster = c
	return n
}

func itemAnchors(it *Item) []Anchor {
	out := make([]Anchor, len(it.anchors))
	for i, p := range it.anchors {
		out[i] = Anchor{Pos: p, Handle: it.key.handle, sub: it.key.sub}
	}
	return out
}

// indexAnchors builds the nearest-neighbour tree over anchors
func indexAnchors(anchors []Anchor) *node {
	n := &node{anchors: anchors, at: make(map[[2]float64]int)}
	if len(anchors) == 0 {
		return n
	}
	pts := make(kdtree.Points, 0, len(anchors))
	for i, a := range anchors {
		pos := [2]float64{a.Pos.X, a.Pos.Y}
		if _, ok := n.at[pos]; !ok {
			n.at[pos] = i
			pts = append(pts, kdtree.Point{a.Pos.X, a.Pos.Y})
		}
	}
	n.tree = kdtree.New(pts, false)
	return n
}

// nearest returns the closest anchor of n to p and the distance
func (n *node) nearest(p geom.Point) (Anchor, float64) {
	q, d2 := n.tree.Nearest(kdtree.Point{p.X, p.Y})
	qp := q.(kdtree.Point)
	return n.anchors[n.at[[2]float64{qp[0], qp[1]}]], math.Sqrt(d2)
}

type candidate struct {
	i, j   int
	source Anchor
	target Anchor
	dist   float64
}

// closestPair finds the nearest anchor pair between two nodes, querying
// the larger node's tree with the smaller node's anchors
func closestPair(a, b *node) (Anchor, Anchor, float64) {
	swapped := false
	if len(a.anchors) > len(b.anchors) {
		a, b = b, a
		swapped = true
	}
	var src, dst Anchor
	best := math.Inf(1)
	for _, p := range a.anchors {
		q, d := b.nearest(p.Pos)
		if d < best {
			src, dst, best = p, q, d
		}
	}
	if swapped {
		src, dst = dst, src
	}
	return src, dst, best
}

// buildRatsnest computes the ratsnest of net from its clusters. Edges of
// prev whose ends now share a cluster are kept hidden.
func buildRatsnest(idx *itemIndex, net int, clusters []*Cluster, prev *RatsnestGraph) (*RatsnestGraph, []Diagnostic) {
	g := &RatsnestGraph{net: net}
	if net == 0 {
		return g, nil
	}

	var diags []Diagnostic
	var nodes []*node
	for _, c := range clusters {
		if c.orphaned {
			continue
		}
		n := newNode(c)
		if len(n.anchors) == 0 {
			diags = append(diags, Diagnostic{Net: net, Handle: c.items[0].key.handle, Err: ErrIncompletePairing})
			continue
		}
		nodes = append(nodes, n)
	}

	if len(nodes) > 1 {
		g.edges = spanningEdges(nodes)
	}
	g.edges = append(g.edges, retainedEdges(idx, net, prev)...)
	return g, diags
}

// spanningEdges returns the minimum spanning set of nearest-pair edges
// between nodes. Candidates are ranked by (length, i, j) and the rank is
// the weight Kruskal sees, so ties always resolve the same way.
func spanningEdges(nodes []*node) []Edge {
	var cands []candidate
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			src, dst, d := closestPair(nodes[i], nodes[j])
			cands = append(cands, candidate{i: i, j: j, source: src, target: dst, dist: d})
		}
	}
	sort.Slice(cands, func(a, b int) bool {
		ca, cb := cands[a], cands[b]
		if ca.dist != cb.dist {
			return ca.dist < cb.dist
		}
		if ca.i != cb.i {
			return ca.i < cb.i
		}
		return ca.j < cb.j
	})

	super := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := range nodes {
		super.AddNode(simple.Node(int64(i)))
	}
	for rank, c := range cands {
		super.SetWeightedEdge(super.NewWeightedEdge(simple.Node(int64(c.i)), simple.Node(int64(c.j)), float64(rank+1)))
	}

	tree := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	path.Kruskal(tree, super)

	var ranks []int
	it := tree.WeightedEdges()
	for it.Next() {
		ranks = append(ranks, int(it.WeightedEdge().Weight())-1)
	}
	sort.Ints(ranks)

	edges := make([]Edge, 0, len(ranks))
	for _, r := range ranks {
		c := cands[r]
		edges = append(edges, Edge{Source: c.source, Target: c.target, Length: c.dist, Visible: true})
	}
	return edges
}

// retainedEdges returns the edges of prev already satisfied by copper,
// hidden. An edge survives while both end items exist, share a cluster
// and still hold their end points.
func retainedEdges(idx *itemIndex, net int, prev *RatsnestGraph) []Edge {
	if prev == nil {
		return nil
	}
	var out []Edge
	seen := make(map[Edge]bool)
	for _, e := range prev.edges {
		src, dst := idx.item(e.Source.key()), idx.item(e.Target.key())
		if src == nil || dst == nil || src.clusterNet() != net || dst.clusterNet() != net {
			continue
		}
		if src.cluster == nil || src.cluster != dst.cluster {
			continue
		}
		if !holdsAnchor(idx, src, e.Source.Pos) || !holdsAnchor(idx, dst, e.Target.Pos) {
			continue
		}
		e.Visible = false
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return edgeLess(out[i], out[j]) })
	return out
}

// holdsAnchor reports whether pt is still a valid end point on it. Zone
// ends may sit anywhere on the island; other items need an exact anchor.
func holdsAnchor(idx *itemIndex, it *Item, pt geom.Point) bool {
	if !it.valid {
		return false
	}
	if it.kind == board.KindZone {
		return idx.Contains(it, pt)
	}
	for _, a := range it.anchors {
		if a == pt {
			return true
		}
	}
	return false
}

// optimizeVisibility moves the zone ends of visible edges to the point of
// the island nearest the other end, shortening the drawn line.
func (g *RatsnestGraph) optimizeVisibility(idx *itemIndex) {
	if g == nil {
		return
	}
	for i := range g.edges {
		e := &g.edges[i]
		if !e.Visible {
			continue
		}
		if it := idx.item(e.Source.key()); it != nil {
			if isl, ok := it.island(); ok {
				e.Source.Pos = geom.Nearest(isl, e.Target.Pos)
			}
		}
		if it := idx.item(e.Target.key()); it != nil {
			if isl, ok := it.island(); ok {
				e.Target.Pos = geom.Nearest(isl, e.Source.Pos)
			}
		}
		e.Length = geom.Distance(e.Source.Pos, e.Target.Pos)
	}
}
