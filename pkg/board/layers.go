package board

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// ErrUnknownLayer is returned for copper layer names that do not map to a layer
var ErrUnknownLayer = errors.New("board: unknown layer")

// LayerID identifies a copper layer. F.Cu is 0, inner layers are 1..30
// and B.Cu is 31, matching the KiCad stackup order.
type LayerID int8

const (
	FCu LayerID = 0
	BCu LayerID = 31
)

// In returns inner copper layer n (1..30)
func In(n int) LayerID {
	return LayerID(n)
}

func (l LayerID) String() string {
	switch {
	case l == FCu:
		return "F.Cu"
	case l == BCu:
		return "B.Cu"
	case l > FCu && l < BCu:
		return "In" + strconv.Itoa(int(l)) + ".Cu"
	default:
		return "Layer(" + strconv.Itoa(int(l)) + ")"
	}
}

// ParseLayer maps a KiCad copper layer name to its LayerID
func ParseLayer(name string) (LayerID, error) {
	switch name {
	case "F.Cu":
		return FCu, nil
	case "B.Cu":
		return BCu, nil
	}
	if rest, ok := strings.CutPrefix(name, "In"); ok {
		if num, ok := strings.CutSuffix(rest, ".Cu"); ok {
			n, err := strconv.Atoi(num)
			if err == nil && n >= 1 && n <= 30 {
				return In(n), nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLayer, name)
}

// LayerSet is a bitmask of copper layers
type LayerSet uint32

// AllCopper holds every possible copper layer
const AllCopper LayerSet = 1<<32 - 1

// Layers returns the set holding the given layers
func Layers(ids ...LayerID) LayerSet {
	var s LayerSet
	for _, id := range ids {
		s |= 1 << uint(id)
	}
	return s
}

// Span returns every layer between a and b inclusive, as a through via occupies
func Span(a, b LayerID) LayerSet {
	if a > b {
		a, b = b, a
	}
	var s LayerSet
	for l := a; l <= b; l++ {
		s |= 1 << uint(l)
	}
	return s
}

// LayersFromNames converts the layer names of a pad, via or zone into a set.
// Non-copper names such as F.Mask are ignored. "*.Cu" selects the board's
// copper layers given as copper; "F&B.Cu" selects the outer layers.
func LayersFromNames(names []string, copper LayerSet) (LayerSet, error) {
	var s LayerSet
	for _, name := range names {
		switch {
		case name == "*.Cu":
			s |= copper
		case name == "F&B.Cu":
			s |= Layers(FCu, BCu)
		case strings.HasSuffix(name, ".Cu"):
			id, err := ParseLayer(name)
			if err != nil {
				return 0, err
			}
			s |= Layers(id)
		}
	}
	return s, nil
}

func (s LayerSet) Has(l LayerID) bool {
	return l >= 0 && l <= BCu && s&(1<<uint(l)) != 0
}

func (s LayerSet) Intersects(o LayerSet) bool {
	return s&o != 0
}

func (s LayerSet) Empty() bool {
	return s == 0
}

func (s LayerSet) Count() int {
	return bits.OnesCount32(uint32(s))
}

// Each calls fn for every layer in stackup order
func (s LayerSet) Each(fn func(LayerID)) {
	for v := uint32(s); v != 0; v &= v - 1 {
		fn(LayerID(bits.TrailingZeros32(v)))
	}
}

// IDs returns the layers in stackup order
func (s LayerSet) IDs() []LayerID {
	ids := make([]LayerID, 0, s.Count())
	s.Each(func(l LayerID) { ids = append(ids, l) })
	return ids
}

func (s LayerSet) String() string {
	names := make([]string, 0, s.Count())
	s.Each(func(l LayerID) { names = append(names, l.String()) })
	return strings.Join(names, ",")
}
