package connectivity

import "sort"

// DirtySet is a sparse set of net codes awaiting recompute
type DirtySet struct {
	nets map[int]struct{}
}

// NewDirtySet returns an empty set
func NewDirtySet() *DirtySet {
	return &DirtySet{nets: make(map[int]struct{})}
}

// Mark adds nets to the set
func (d *DirtySet) Mark(nets ...int) {
	for _, n := range nets {
		d.nets[n] = struct{}{}
	}
}

// Has reports whether net is dirty
func (d *DirtySet) Has(net int) bool {
	_, ok := d.nets[net]
	return ok
}

func (d *DirtySet) Len() int {
	return len(d.nets)
}

// Nets returns the dirty nets in ascending order without draining
func (d *DirtySet) Nets() []int {
	out := make([]int, 0, len(d.nets))
	for n := range d.nets {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Drain returns the dirty nets in ascending order and empties the set
func (d *DirtySet) Drain() []int {
	out := d.Nets()
	clear(d.nets)
	return out
}
