package pcb

import (
	"github.com/OpenTraceLab/OpenTraceConn/pkg/kicad/sexp"
)

// Shared types (aliases to sexp package)
type Position = sexp.Position
type PositionAngle = sexp.PositionAngle
type Size = sexp.Size
type BoundingBox = sexp.BoundingBox
type UUID = sexp.UUID

var NewBoundingBox = sexp.NewBoundingBox

// Layer represents a PCB layer
type Layer struct {
	Number int    // Layer number (ordinal)
	Name   string // Layer name (e.g., "F.Cu", "B.Cu", "F.SilkS")
	Type   string // Layer type (e.g., "signal", "user")
}

// IsCopper reports whether the layer carries copper
func (l Layer) IsCopper() bool {
	return l.Type == "signal" || l.Type == "power" || l.Type == "mixed" || l.Type == "jumper"
}

// Net represents an electrical net
type Net struct {
	Number int    // Net number (ordinal)
	Name   string // Net name
}

// LayerSet represents a set of layer names as written in the file,
// including wildcards such as "*.Cu"
type LayerSet []string

// LayerMap indexes layers by ordinal
type LayerMap struct {
	byNumber map[int]*Layer
}

// NewLayerMap creates a LayerMap from a slice of layers
func NewLayerMap(layers []Layer) *LayerMap {
	lm := &LayerMap{
		byNumber: make(map[int]*Layer),
	}
	for i := range layers {
		lm.byNumber[layers[i].Number] = &layers[i]
	}
	return lm
}

// CopperLayers returns the names of the copper layers in stackup order
func (lm *LayerMap) CopperLayers() []string {
	var names []string
	for num := 0; num <= 31; num++ {
		if layer, ok := lm.byNumber[num]; ok && layer.IsCopper() {
			names = append(names, layer.Name)
		}
	}
	return names
}

// NetMap provides efficient lookup of nets by number or name
type NetMap struct {
	byNumber map[int]*Net
	byName   map[string]*Net
}

// NewNetMap creates a NetMap from a slice of nets
func NewNetMap(nets []Net) *NetMap {
	nm := &NetMap{
		byNumber: make(map[int]*Net),
		byName:   make(map[string]*Net),
	}
	for i := range nets {
		net := &nets[i]
		nm.byNumber[net.Number] = net
		if net.Name != "" {
			nm.byName[net.Name] = net
		}
	}
	return nm
}

// GetByName retrieves a net by its name (e.g., "GND", "+5V")
func (nm *NetMap) GetByName(name string) (*Net, bool) {
	net, ok := nm.byName[name]
	return net, ok
}

// GetByNumber retrieves a net by its number
func (nm *NetMap) GetByNumber(num int) (*Net, bool) {
	net, ok := nm.byNumber[num]
	return net, ok
}
