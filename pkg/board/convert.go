package board

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/kicad/pcb"
)

// FromPCB builds a board from a parsed KiCad file. Footprints are
// inserted first, then vias, tracks, arcs and zones, so handle order
// follows file order within each kind.
func FromPCB(pb *pcb.Board) (*Board, error) {
	b := New()
	for _, n := range pb.Nets {
		b.SetNet(n.Number, n.Name)
	}

	copper, err := LayersFromNames(pb.CopperLayers(), AllCopper)
	if err != nil {
		return nil, fmt.Errorf("failed to read layer stack: %w", err)
	}
	if copper.Empty() {
		copper = Layers(FCu, BCu)
	}

	for i := range pb.Footprints {
		fp, err := convertFootprint(&pb.Footprints[i], copper)
		if err != nil {
			return nil, fmt.Errorf("failed to convert footprint %s: %w", pb.Footprints[i].Reference, err)
		}
		b.Insert(fp)
	}

	for _, v := range pb.Vias {
		names, err := LayersFromNames(v.Layers, copper)
		if err != nil {
			return nil, fmt.Errorf("failed to convert via %s: %w", v.UUID, err)
		}
		ids := names.IDs()
		if len(ids) == 0 {
			continue
		}
		b.Insert(&Via{
			Position: point(v.Position),
			Diameter: v.Size,
			Drill:    v.Drill,
			Layers:   Span(ids[0], ids[len(ids)-1]) & copper,
			NetCode:  pcb.NetCode(v.Net),
		})
	}

	for _, t := range pb.Tracks {
		layer, err := ParseLayer(t.Layer)
		if err != nil {
			return nil, fmt.Errorf("failed to convert segment %s: %w", t.UUID, err)
		}
		b.Insert(&Track{
			Start:   point(t.Start),
			End:     point(t.End),
			Width:   t.Width,
			Layer:   layer,
			NetCode: pcb.NetCode(t.Net),
		})
	}

	for _, a := range pb.Arcs {
		layer, err := ParseLayer(a.Layer)
		if err != nil {
			return nil, fmt.Errorf("failed to convert arc %s: %w", a.UUID, err)
		}
		b.Insert(&Arc{
			Start:   point(a.Start),
			Mid:     point(a.Mid),
			End:     point(a.End),
			Width:   a.Width,
			Layer:   layer,
			NetCode: pcb.NetCode(a.Net),
		})
	}

	for i := range pb.Zones {
		z, err := convertZone(&pb.Zones[i], copper)
		if err != nil {
			return nil, fmt.Errorf("failed to convert zone %s: %w", pb.Zones[i].UUID, err)
		}
		b.Insert(z)
	}

	return b, nil
}

func point(p pcb.Position) geom.Point {
	return geom.Pt(p.X, p.Y)
}

func convertFootprint(src *pcb.Footprint, copper LayerSet) (*Footprint, error) {
	fp := &Footprint{
		Reference: src.Reference,
		Value:     src.Value,
		Position:  point(src.Position.Position),
		Angle:     src.Position.Angle,
	}
	for _, sp := range src.Pads {
		layers, err := LayersFromNames(sp.Layers, copper)
		if err != nil {
			return nil, fmt.Errorf("pad %s: %w", sp.Number, err)
		}
		// Unplated holes list copper layers but carry no copper
		if sp.Type == "np_thru_hole" {
			layers = 0
		}
		// Pad angles in the file already include the footprint rotation
		fp.Pads = append(fp.Pads, &Pad{
			Number:   sp.Number,
			Position: point(src.TransformPosition(sp.Position)),
			Width:    sp.Size.Width,
			Height:   sp.Size.Height,
			Angle:    sp.Position.Angle,
			Flash:    ParsePadShape(sp.Shape),
			Drill:    sp.Drill,
			Layers:   layers,
			NetCode:  pcb.NetCode(sp.Net),
		})
	}
	return fp, nil
}

func convertZone(src *pcb.Zone, copper LayerSet) (*Zone, error) {
	layers, err := LayersFromNames(src.Layers, copper)
	if err != nil {
		return nil, err
	}
	z := &Zone{
		Name:    src.Name,
		Layers:  layers,
		NetCode: pcb.NetCode(src.Net),
	}
	for _, p := range src.Outline {
		z.Outline = append(z.Outline, point(p))
	}
	for _, fill := range src.Fills {
		fillLayers, err := LayersFromNames([]string{fill.Layer}, copper)
		if err != nil {
			return nil, err
		}
		pts := make([]geom.Point, len(fill.Points))
		for i, p := range fill.Points {
			pts[i] = point(p)
		}
		(fillLayers & layers).Each(func(l LayerID) {
			z.AddIsland(l, pts)
		})
	}
	return z, nil
}
