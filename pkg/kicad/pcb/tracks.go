package pcb

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/kicad/sexp/kicadsexp"
)

// defaultTrackWidth applies when a segment omits (width ...)
const defaultTrackWidth = 0.15

// parseSegment extracts a track segment (copper trace)
// Expected format: (segment (start x y) (end x y) (width w) (layer "layer") (net n) ...)
func parseSegment(node kicadsexp.Sexp, netMap *NetMap) (*Track, error) {
	track := &Track{Width: defaultTrackWidth}

	var err error
	if track.Start, err = sexp.ChildXY(node, "start"); err != nil {
		return nil, err
	}
	if track.End, err = sexp.ChildXY(node, "end"); err != nil {
		return nil, err
	}
	if width, found, err := sexp.ChildFloat(node, "width"); err != nil {
		return nil, err
	} else if found {
		track.Width = width
	}
	if track.Layer, err = layerName(node); err != nil {
		return nil, err
	}

	track.Net = netRef(node, netMap)
	track.Locked = sexp.HasSymbol(node, "locked")
	track.UUID = sexp.ID(node)

	return track, nil
}

// parseArc extracts an arc track
// Expected format: (arc (start x y) (mid x y) (end x y) (width w) (layer "layer") (net n) ...)
func parseArc(node kicadsexp.Sexp, netMap *NetMap) (*Arc, error) {
	arc := &Arc{Width: defaultTrackWidth}

	var err error
	if arc.Start, err = sexp.ChildXY(node, "start"); err != nil {
		return nil, err
	}
	if arc.Mid, err = sexp.ChildXY(node, "mid"); err != nil {
		return nil, err
	}
	if arc.End, err = sexp.ChildXY(node, "end"); err != nil {
		return nil, err
	}
	if width, found, err := sexp.ChildFloat(node, "width"); err != nil {
		return nil, err
	} else if found {
		arc.Width = width
	}
	if arc.Layer, err = layerName(node); err != nil {
		return nil, err
	}

	arc.Net = netRef(node, netMap)
	arc.Locked = sexp.HasSymbol(node, "locked")
	arc.UUID = sexp.ID(node)

	return arc, nil
}

// parseVia extracts a via definition
// Expected format: (via (at x y) (size diameter) (drill diameter) (layers "L1" "L2") (net n) ...)
func parseVia(node kicadsexp.Sexp, netMap *NetMap) (*Via, error) {
	via := &Via{}

	var err error
	if via.Position, err = sexp.ChildXY(node, "at"); err != nil {
		return nil, err
	}

	size, found, err := sexp.ChildFloat(node, "size")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("missing required 'size' field")
	}
	via.Size = size

	drill, found, err := sexp.ChildFloat(node, "drill")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("missing required 'drill' field")
	}
	via.Drill = drill

	if via.Layers, err = layerNames(node); err != nil {
		return nil, err
	}

	via.Net = netRef(node, netMap)
	via.Locked = sexp.HasSymbol(node, "locked")
	via.UUID = sexp.ID(node)

	return via, nil
}

// parseTracks extracts all track segments from the root node
func parseTracks(root kicadsexp.Sexp, netMap *NetMap) []Track {
	var tracks []Track
	for _, segmentNode := range sexp.FindAllNodes(root, "segment") {
		track, err := parseSegment(segmentNode, netMap)
		if err != nil {
			log.Warn("skipping segment", "line", segmentNode.Line(), "err", err)
			continue
		}
		tracks = append(tracks, *track)
	}
	return tracks
}

// parseArcs extracts all arc tracks from the root node
func parseArcs(root kicadsexp.Sexp, netMap *NetMap) []Arc {
	var arcs []Arc
	for _, arcNode := range sexp.FindAllNodes(root, "arc") {
		arc, err := parseArc(arcNode, netMap)
		if err != nil {
			log.Warn("skipping arc", "line", arcNode.Line(), "err", err)
			continue
		}
		arcs = append(arcs, *arc)
	}
	return arcs
}

// parseVias extracts all via definitions from the root node
func parseVias(root kicadsexp.Sexp, netMap *NetMap) []Via {
	var vias []Via
	for _, viaNode := range sexp.FindAllNodes(root, "via") {
		via, err := parseVia(viaNode, netMap)
		if err != nil {
			log.Warn("skipping via", "line", viaNode.Line(), "err", err)
			continue
		}
		vias = append(vias, *via)
	}
	return vias
}
