package pcb

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/kicad/sexp/kicadsexp"
)

// parsePad extracts a pad definition from a footprint
// Expected format: (pad "number" type shape (at x y [angle]) (size w h) (layers ...) (net n) ...)
func parsePad(node kicadsexp.Sexp, netMap *NetMap) (*Pad, error) {
	pad := &Pad{}

	number, err := sexp.String(node, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad number: %w", err)
	}
	pad.Number = number

	if pad.Type, err = sexp.String(node, 2); err != nil {
		return nil, fmt.Errorf("failed to parse pad type: %w", err)
	}
	if pad.Shape, err = sexp.String(node, 3); err != nil {
		return nil, fmt.Errorf("failed to parse pad shape: %w", err)
	}

	atNode, found := sexp.FindNode(node, "at")
	if !found {
		return nil, fmt.Errorf("missing required 'at' position")
	}
	if pad.Position, err = sexp.At(atNode); err != nil {
		return nil, fmt.Errorf("failed to parse pad position: %w", err)
	}

	size, err := sexp.ChildXY(node, "size")
	if err != nil {
		return nil, err
	}
	pad.Size = Size{Width: size.X, Height: size.Y}

	// Drill can be (drill d) or (drill oval w h); the first number is enough
	if drillNode, found := sexp.FindNode(node, "drill"); found {
		for i := 1; i < drillNode.Len(); i++ {
			if d, err := sexp.Float(drillNode, i); err == nil {
				pad.Drill = d
				break
			}
		}
	}

	if pad.Layers, err = layerNames(node); err != nil {
		return nil, err
	}

	pad.Net = netRef(node, netMap)
	pad.UUID = sexp.ID(node)

	return pad, nil
}

// parseFootprint extracts a footprint (component) definition
// Expected format: (footprint "library:name" (layer "layer") (at x y [angle]) ...)
func parseFootprint(node kicadsexp.Sexp, netMap *NetMap) (*Footprint, error) {
	footprint := &Footprint{}

	fpName, err := sexp.String(node, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse footprint name: %w", err)
	}
	// "Resistor_SMD:R_0603_1608Metric"
	if lib, name, ok := strings.Cut(fpName, ":"); ok && lib != "" {
		footprint.Library = lib
		footprint.Name = name
	} else {
		footprint.Name = fpName
	}

	if footprint.Layer, err = layerName(node); err != nil {
		return nil, err
	}

	atNode, found := sexp.FindNode(node, "at")
	if !found {
		return nil, fmt.Errorf("missing required 'at' position")
	}
	if footprint.Position, err = sexp.At(atNode); err != nil {
		return nil, fmt.Errorf("failed to parse position: %w", err)
	}

	// KiCad 8+ uses (property "Reference" "R1"); KiCad 6/7 uses (fp_text reference "R1")
	for _, propNode := range sexp.FindAllNodes(node, "property") {
		propName, err := sexp.String(propNode, 1)
		if err != nil {
			continue
		}
		propValue, err := sexp.String(propNode, 2)
		if err != nil {
			continue
		}
		switch propName {
		case "Reference":
			footprint.Reference = propValue
		case "Value":
			footprint.Value = propValue
		}
	}
	for _, textNode := range sexp.FindAllNodes(node, "fp_text") {
		kind, _ := sexp.String(textNode, 1)
		text, err := sexp.String(textNode, 2)
		if err != nil {
			continue
		}
		switch {
		case kind == "reference" && footprint.Reference == "":
			footprint.Reference = text
		case kind == "value" && footprint.Value == "":
			footprint.Value = text
		}
	}

	for _, padNode := range sexp.FindAllNodes(node, "pad") {
		pad, err := parsePad(padNode, netMap)
		if err != nil {
			log.Warn("skipping pad", "footprint", footprint.Reference, "line", padNode.Line(), "err", err)
			continue
		}
		footprint.Pads = append(footprint.Pads, *pad)
	}

	footprint.UUID = sexp.ID(node)

	return footprint, nil
}

// parseFootprints extracts all footprint definitions from the root node
func parseFootprints(root kicadsexp.Sexp, netMap *NetMap) []Footprint {
	var footprints []Footprint
	for _, fpNode := range sexp.FindAllNodes(root, "footprint") {
		footprint, err := parseFootprint(fpNode, netMap)
		if err != nil {
			log.Warn("skipping footprint", "line", fpNode.Line(), "err", err)
			continue
		}
		footprints = append(footprints, *footprint)
	}
	return footprints
}
