package pcb

import "math"

// GetBoundingBox calculates the bounding box of the board's copper:
// tracks, arcs, vias, footprint pads and zone outlines
func (b *Board) GetBoundingBox() BoundingBox {
	bbox := NewBoundingBox()

	for _, track := range b.Tracks {
		bbox.Expand(track.Start)
		bbox.Expand(track.End)
	}

	for _, arc := range b.Arcs {
		bbox.Expand(arc.Start)
		bbox.Expand(arc.Mid)
		bbox.Expand(arc.End)
	}

	for _, via := range b.Vias {
		radius := via.Size / 2.0
		bbox.Expand(Position{X: via.Position.X - radius, Y: via.Position.Y - radius})
		bbox.Expand(Position{X: via.Position.X + radius, Y: via.Position.Y + radius})
	}

	for i := range b.Footprints {
		bbox.ExpandBox(b.Footprints[i].GetBoundingBox())
	}

	for _, zone := range b.Zones {
		for _, p := range zone.Outline {
			bbox.Expand(p)
		}
	}

	return bbox
}

// GetBoundingBox calculates the bounding box of a footprint
// Includes all pads with their positions relative to footprint position
func (fp *Footprint) GetBoundingBox() BoundingBox {
	bbox := NewBoundingBox()

	for _, pad := range fp.Pads {
		absPos := fp.TransformPosition(pad.Position)

		// Approximate as the pad's circumscribed square so rotation is covered
		half := math.Hypot(pad.Size.Width, pad.Size.Height) / 2.0
		bbox.Expand(Position{X: absPos.X - half, Y: absPos.Y - half})
		bbox.Expand(Position{X: absPos.X + half, Y: absPos.Y + half})
	}

	if len(fp.Pads) == 0 {
		bbox.Expand(fp.Position.Position)
	}

	return bbox
}

// TransformPosition transforms a relative position by footprint position and rotation
func (fp *Footprint) TransformPosition(relPos PositionAngle) Position {
	x, y := relPos.X, relPos.Y

	// KiCad angles are counter-clockwise with Y pointing down
	if fp.Position.Angle != 0 {
		angleRad := -fp.Position.Angle * math.Pi / 180.0
		cos := math.Cos(angleRad)
		sin := math.Sin(angleRad)
		x, y = x*cos-y*sin, x*sin+y*cos
	}

	return Position{X: x + fp.Position.X, Y: y + fp.Position.Y}
}
