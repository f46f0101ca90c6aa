package connectivity

import (
	"github.com/OpenTraceLab/OpenTraceConn/pkg/board"
)

// Cluster is a maximal set of touching items clustered for one net
type Cluster struct {
	net       int
	items     []*Item
	originPad *Item
	orphaned  bool
}

// Net returns the net the cluster was computed for
func (c *Cluster) Net() int { return c.net }

// Items returns the members ordered by handle
func (c *Cluster) Items() []*Item { return c.items }

// Size returns the number of members
func (c *Cluster) Size() int { return len(c.items) }

// OriginPad returns the lowest pad of the cluster, nil when it has none
func (c *Cluster) OriginPad() *Item { return c.originPad }

// Orphaned reports whether the cluster holds zone copper but no pad. An
// orphaned cluster is left out of the ratsnest and the unconnected count.
// A net without pads, such as a stitching pour split into islands joined
// only by vias, therefore gets no ratsnest edges.
func (c *Cluster) Orphaned() bool { return c.orphaned }

// Contains reports whether it is a member
func (c *Cluster) Contains(it *Item) bool {
	return it != nil && it.cluster == c
}

// unionFind is a disjoint-set forest over item keys
type unionFind struct {
	parent map[itemKey]itemKey
	rank   map[itemKey]int
}

func newUnionFind(items []*Item) *unionFind {
	uf := &unionFind{
		parent: make(map[itemKey]itemKey, len(items)),
		rank:   make(map[itemKey]int, len(items)),
	}
	for _, it := range items {
		uf.parent[it.key] = it.key
	}
	return uf
}

// Union merges the sets of a and b
func (uf *unionFind) Union(a, b itemKey) {
	rootA, rootB := uf.Find(a), uf.Find(b)
	if rootA == rootB {
		return
	}

	// Union by rank
	switch {
	case uf.rank[rootA] < uf.rank[rootB]:
		uf.parent[rootA] = rootB
	case uf.rank[rootA] > uf.rank[rootB]:
		uf.parent[rootB] = rootA
	default:
		uf.parent[rootB] = rootA
		uf.rank[rootA]++
	}
}

// Find returns the root of k, compressing the path
func (uf *unionFind) Find(k itemKey) itemKey {
	root := k
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for k != root {
		next := uf.parent[k]
		uf.parent[k] = root
		k = next
	}
	return root
}

// clusterNet partitions items into touching clusters for net. items must
// be exactly the items taking part in net's clustering, ordered by key.
// Members' cluster pointers are updated; diagnostics are deduplicated.
func clusterNet(idx *itemIndex, net int, items []*Item) ([]*Cluster, []Diagnostic) {
	uf := newUnionFind(items)
	member := func(o *Item) bool { return o.clusterNet() == net }

	var diags []Diagnostic
	type diagKey struct {
		handle board.Handle
		msg    string
	}
	seen := make(map[diagKey]bool)
	for _, it := range items {
		hits, ds := idx.QueryConnected(it, member)
		for _, o := range hits {
			uf.Union(it.key, o.key)
		}
		for _, d := range ds {
			d.Net = net
			k := diagKey{d.Handle, d.Err.Error()}
			if !seen[k] {
				seen[k] = true
				diags = append(diags, d)
			}
		}
	}

	// Group by root. Items arrive sorted, so members are sorted and
	// clusters come out ordered by their first member.
	groups := make(map[itemKey]*Cluster)
	var clusters []*Cluster
	for _, it := range items {
		root := uf.Find(it.key)
		c, ok := groups[root]
		if !ok {
			c = &Cluster{net: net}
			groups[root] = c
			clusters = append(clusters, c)
		}
		c.items = append(c.items, it)
		it.cluster = c
	}

	for _, c := range clusters {
		zone := false
		for _, it := range c.items {
			switch it.kind {
			case board.KindPad:
				if c.originPad == nil {
					c.originPad = it
				}
			case board.KindZone:
				zone = true
			}
		}
		c.orphaned = zone && c.originPad == nil
	}
	return clusters, diags
}
