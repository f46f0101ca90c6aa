package pcb

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/kicad/sexp/kicadsexp"
)

// parseZone extracts a zone (copper fill) definition.
// Single-layer zones use (layer "F.Cu"); multi-layer zones use
// (layers "F.Cu" "B.Cu") and tag every filled_polygon with its layer.
func parseZone(node kicadsexp.Sexp, netMap *NetMap) (*Zone, error) {
	zone := &Zone{
		Net:  netRef(node, netMap),
		UUID: sexp.ID(node),
	}

	if nameNode, found := sexp.FindNode(node, "name"); found {
		zone.Name, _ = sexp.String(nameNode, 1)
	}

	if layersNode, found := sexp.FindNode(node, "layers"); found {
		zone.Layers = LayerSet(sexp.Strings(layersNode))
	} else if layer, err := layerName(node); err == nil {
		zone.Layers = LayerSet{layer}
	}
	if len(zone.Layers) == 0 {
		return nil, fmt.Errorf("zone has no layers")
	}

	// Keepout zones carry no copper
	if _, found := sexp.FindNode(node, "keepout"); found {
		return nil, fmt.Errorf("keepout zone")
	}

	if polyNode, found := sexp.FindNode(node, "polygon"); found {
		if ptsNode, found := sexp.FindNode(polyNode, "pts"); found {
			zone.Outline = sexp.Points(ptsNode)
		}
	}

	for _, fpNode := range sexp.FindAllNodes(node, "filled_polygon") {
		ptsNode, found := sexp.FindNode(fpNode, "pts")
		if !found {
			continue
		}
		points := sexp.Points(ptsNode)
		if len(points) < 3 {
			continue
		}
		layer := zone.Layers[0]
		if l, err := layerName(fpNode); err == nil {
			layer = l
		}
		zone.Fills = append(zone.Fills, FilledPolygon{Layer: layer, Points: points})
	}

	return zone, nil
}

// parseZones extracts all copper zones; keepouts and broken zones are skipped
func parseZones(root kicadsexp.Sexp, netMap *NetMap) []Zone {
	zoneNodes := sexp.FindAllNodes(root, "zone")
	zones := make([]Zone, 0, len(zoneNodes))

	for i, zoneNode := range zoneNodes {
		zone, err := parseZone(zoneNode, netMap)
		if err != nil {
			log.Debug("skipping zone", "index", i, "line", zoneNode.Line(), "err", err)
			continue
		}
		if len(zone.Fills) == 0 {
			log.Debug("zone has no fills", "index", i, "layers", zone.Layers)
		}
		zones = append(zones, *zone)
	}

	return zones
}
