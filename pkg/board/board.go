// Package board is the item arena the connectivity engine tracks. Items
// are owned here and addressed by generation-checked handles, so a handle
// kept after its item was deleted is detectably stale.
package board

import (
	"fmt"
	"sort"
)

// Handle is a weak reference to a board item. The zero Handle is never valid.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h was never assigned
func (h Handle) IsZero() bool {
	return h.gen == 0
}

// Less orders handles by arena slot, then generation
func (h Handle) Less(o Handle) bool {
	if h.index != o.index {
		return h.index < o.index
	}
	return h.gen < o.gen
}

func (h Handle) String() string {
	return fmt.Sprintf("#%d.%d", h.index, h.gen)
}

type entry struct {
	item Item
	gen  uint32
	live bool
}

// Board owns the items of one design. It is not safe for concurrent
// mutation; the editing thread is the only writer.
type Board struct {
	entries []entry
	free    []uint32
	nets    map[int]string
}

// New returns an empty board
func New() *Board {
	return &Board{nets: map[int]string{0: ""}}
}

// Insert adds item to the board and returns its handle. Footprints insert
// their pads too. Inserting a live item again returns its existing handle.
func (b *Board) Insert(item Item) Handle {
	if h := item.Handle(); b.Valid(h) && b.entries[h.index].item == item {
		return h
	}

	var h Handle
	if n := len(b.free); n > 0 {
		idx := b.free[n-1]
		b.free = b.free[:n-1]
		e := &b.entries[idx]
		e.item, e.live = item, true
		h = Handle{index: idx, gen: e.gen}
	} else {
		b.entries = append(b.entries, entry{item: item, gen: 1, live: true})
		h = Handle{index: uint32(len(b.entries) - 1), gen: 1}
	}
	item.bind(h)

	if fp, ok := item.(*Footprint); ok {
		for _, p := range fp.Pads {
			p.Footprint = h
			b.Insert(p)
		}
	}
	return h
}

// Delete removes the item behind h. Deleting a footprint deletes its pads.
// The slot is recycled with a new generation.
func (b *Board) Delete(h Handle) bool {
	if !b.Valid(h) {
		return false
	}
	e := &b.entries[h.index]
	if fp, ok := e.item.(*Footprint); ok {
		for _, p := range fp.Pads {
			b.Delete(p.Handle())
		}
	}
	e.item, e.live = nil, false
	e.gen++
	b.free = append(b.free, h.index)
	return true
}

// Valid reports whether h refers to a live item
func (b *Board) Valid(h Handle) bool {
	if h.IsZero() || int(h.index) >= len(b.entries) {
		return false
	}
	e := b.entries[h.index]
	return e.live && e.gen == h.gen
}

// Get returns the item behind h, or nil for stale handles
func (b *Board) Get(h Handle) Item {
	if !b.Valid(h) {
		return nil
	}
	return b.entries[h.index].item
}

// Items returns the live connectable items in handle order. Footprints are
// left out; their pads are items of their own.
func (b *Board) Items() []Item {
	items := make([]Item, 0, len(b.entries))
	for _, e := range b.entries {
		if e.live && e.item.Kind() != KindFootprint {
			items = append(items, e.item)
		}
	}
	return items
}

// ItemsOfKind returns the live items of kind in handle order
func (b *Board) ItemsOfKind(kind Kind) []Item {
	var items []Item
	for _, e := range b.entries {
		if e.live && e.item.Kind() == kind {
			items = append(items, e.item)
		}
	}
	return items
}

// Footprints returns the live footprints in handle order
func (b *Board) Footprints() []*Footprint {
	var fps []*Footprint
	for _, e := range b.entries {
		if fp, ok := e.item.(*Footprint); ok && e.live {
			fps = append(fps, fp)
		}
	}
	return fps
}

// Footprint returns the footprint with the given reference designator
func (b *Board) Footprint(reference string) *Footprint {
	for _, fp := range b.Footprints() {
		if fp.Reference == reference {
			return fp
		}
	}
	return nil
}

// SetNet names net code
func (b *Board) SetNet(code int, name string) {
	b.nets[code] = name
}

// NetName returns the name of net code
func (b *Board) NetName(code int) string {
	return b.nets[code]
}

// NetCodes returns the declared net codes in ascending order
func (b *Board) NetCodes() []int {
	codes := make([]int, 0, len(b.nets))
	for code := range b.nets {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// Len returns the number of live items, footprints included
func (b *Board) Len() int {
	return len(b.entries) - len(b.free)
}
