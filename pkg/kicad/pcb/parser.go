package pcb

import (
	"fmt"
	"io"
	"os"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/kicad/sexp/kicadsexp"
)

// Minimum supported KiCad version (6.0 = 20211014)
const MinSupportedVersion = 20211014

// ParseFile reads and parses a KiCad board file
func ParseFile(filename string) (*Board, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads and parses a KiCad board from an io.Reader.
// Footprints, pads, tracks and zones that fail to parse are logged and
// skipped; only header and section-level errors fail the whole board.
func Parse(r io.Reader) (*Board, error) {
	sexps, err := kicadsexp.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s-expression: %w", err)
	}
	if len(sexps) == 0 {
		return nil, fmt.Errorf("empty file or no valid s-expressions found")
	}

	root := sexps[0]
	rootName, err := sexp.NodeName(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get root node name: %w", err)
	}
	if rootName != "kicad_pcb" {
		return nil, fmt.Errorf("not a KiCad PCB file: expected 'kicad_pcb', got '%s'", rootName)
	}

	version, generator, err := parseHeader(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	board := &Board{
		Version:   version,
		Generator: generator,
	}

	if generalNode, found := sexp.FindNode(root, "general"); found {
		board.General = parseGeneral(generalNode)
	}

	if layersNode, found := sexp.FindNode(root, "layers"); found {
		layers, err := parseLayers(layersNode)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layers section: %w", err)
		}
		board.Layers = layers
	}

	nets, err := parseNets(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse nets: %w", err)
	}
	board.Nets = nets

	netMap := NewNetMap(board.Nets)
	board.Footprints = parseFootprints(root, netMap)
	board.Tracks = parseTracks(root, netMap)
	board.Arcs = parseArcs(root, netMap)
	board.Vias = parseVias(root, netMap)
	board.Zones = parseZones(root, netMap)

	return board, nil
}

// parseHeader extracts version and generator information from the root node
// Expected format: (kicad_pcb (version 20221018) (generator pcbnew) ...)
func parseHeader(root kicadsexp.Sexp) (version int, generator string, err error) {
	versionNode, found := sexp.FindNode(root, "version")
	if !found {
		return 0, "", fmt.Errorf("missing required 'version' field")
	}

	ver, err := sexp.Int(versionNode, 1)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}
	if ver < MinSupportedVersion {
		return 0, "", fmt.Errorf("unsupported KiCad version: %d (minimum required: %d / KiCad 6.0)", ver, MinSupportedVersion)
	}

	gen := "unknown"
	if hostNode, found := sexp.FindNode(root, "host"); found {
		// (host pcbnew "(6.0.0)")
		if toolName, err := sexp.String(hostNode, 1); err == nil {
			gen = toolName
		}
	} else if genNode, found := sexp.FindNode(root, "generator"); found {
		if generatorName, err := sexp.String(genNode, 1); err == nil {
			gen = generatorName
		}
	}

	return ver, gen, nil
}

// parseGeneral extracts general board properties; every field is optional
func parseGeneral(node kicadsexp.Sexp) General {
	var general General
	if thickness, _, err := sexp.ChildFloat(node, "thickness"); err == nil {
		general.Thickness = thickness
	}
	fields := map[string]*string{
		"title":   &general.Title,
		"date":    &general.Date,
		"rev":     &general.Revision,
		"company": &general.Company,
	}
	for key, dst := range fields {
		if n, found := sexp.FindNode(node, key); found {
			if v, err := sexp.String(n, 1); err == nil {
				*dst = v
			}
		}
	}
	return general
}

// parseLayers extracts layer definitions
// Expected format: (layers (0 "F.Cu" signal) (31 "B.Cu" signal) ...)
func parseLayers(node kicadsexp.Sexp) ([]Layer, error) {
	layerNodes := sexp.ListItems(node)
	if len(layerNodes) == 0 {
		return nil, fmt.Errorf("no layers defined")
	}

	var layers []Layer
	for _, layerNode := range layerNodes {
		if layerNode.IsLeaf() {
			continue
		}

		number, err := sexp.Int(layerNode, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layer number: %w", err)
		}
		name, err := sexp.String(layerNode, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layer name: %w", err)
		}
		layerType, err := sexp.String(layerNode, 2)
		if err != nil {
			layerType = "user"
		}

		layers = append(layers, Layer{Number: number, Name: name, Type: layerType})
	}

	return layers, nil
}

// parseNets extracts net definitions from the root node
// Expected format: (net 0 "") (net 1 "GND") (net 2 "+5V") ...
func parseNets(root kicadsexp.Sexp) ([]Net, error) {
	netNodes := sexp.FindAllNodes(root, "net")
	nets := make([]Net, 0, len(netNodes))

	for _, netNode := range netNodes {
		number, err := sexp.Int(netNode, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse net number: %w", err)
		}

		// Name is optional (net 0 often has empty name)
		name, _ := sexp.String(netNode, 2)
		nets = append(nets, Net{Number: number, Name: name})
	}

	return nets, nil
}

// netRef resolves the (net n "name") child of an item. Unknown net numbers
// resolve to nil, which callers treat as net 0.
func netRef(node kicadsexp.Sexp, netMap *NetMap) *Net {
	netNode, found := sexp.FindNode(node, "net")
	if !found || netMap == nil {
		return nil
	}
	if num, err := sexp.Int(netNode, 1); err == nil {
		net, _ := netMap.GetByNumber(num)
		return net
	}
	if name, err := sexp.String(netNode, 1); err == nil {
		net, _ := netMap.GetByName(name)
		return net
	}
	return nil
}

// layerName returns the single (layer "F.Cu") child of an item
func layerName(node kicadsexp.Sexp) (string, error) {
	layerNode, found := sexp.FindNode(node, "layer")
	if !found {
		return "", fmt.Errorf("missing required 'layer' field")
	}
	layer, err := sexp.String(layerNode, 1)
	if err != nil {
		return "", fmt.Errorf("failed to parse layer: %w", err)
	}
	return layer, nil
}

// layerNames returns the (layers ...) child of an item
func layerNames(node kicadsexp.Sexp) (LayerSet, error) {
	layersNode, found := sexp.FindNode(node, "layers")
	if !found {
		return nil, fmt.Errorf("missing required 'layers' field")
	}
	return LayerSet(sexp.Strings(layersNode)), nil
}
