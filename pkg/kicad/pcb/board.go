package pcb

// Board represents the copper content of a KiCad PCB
type Board struct {
	Version    int         // File format version
	Generator  string      // Generator info (e.g., "pcbnew")
	General    General     // General board properties
	Layers     []Layer     // Layer definitions
	Nets       []Net       // Electrical nets
	Footprints []Footprint // Component footprints
	Tracks     []Track     // Track segments
	Arcs       []Arc       // Arc tracks
	Vias       []Via       // Vias
	Zones      []Zone      // Copper zones
}

// General contains general board properties
type General struct {
	Thickness float64 // Board thickness in mm
	Title     string  // Board title
	Date      string  // Design date
	Revision  string  // Board revision
	Company   string  // Company name
}

// Footprint represents a component footprint
type Footprint struct {
	Library   string        // Library name
	Name      string        // Footprint name
	Layer     string        // Layer (F.Cu or B.Cu typically)
	Position  PositionAngle // Position and rotation
	Pads      []Pad         // Pads
	Reference string        // Reference designator (e.g., "R1")
	Value     string        // Component value
	UUID      UUID
}

// Pad represents a footprint pad. Position is relative to the footprint;
// use Footprint.TransformPosition for board coordinates.
type Pad struct {
	Number   string        // Pad number/name
	Type     string        // Pad type (thru_hole, smd, connect, np_thru_hole)
	Shape    string        // Pad shape (circle, rect, oval, roundrect, trapezoid, custom)
	Position PositionAngle // Position and rotation
	Size     Size          // Pad size
	Drill    float64       // Drill diameter (0 for SMD)
	Layers   LayerSet      // Layers the pad appears on
	Net      *Net          // Connected net (if any)
	UUID     UUID
}

// Track represents a copper track segment
type Track struct {
	Start  Position // Start point
	End    Position // End point
	Width  float64  // Track width in mm
	Layer  string   // Layer name
	Net    *Net     // Connected net
	Locked bool     // Whether track is locked
	UUID   UUID
}

// Arc represents a copper arc track through three points
type Arc struct {
	Start  Position
	Mid    Position
	End    Position
	Width  float64
	Layer  string
	Net    *Net
	Locked bool
	UUID   UUID
}

// Via represents a via
type Via struct {
	Position Position // Via position
	Size     float64  // Via diameter
	Drill    float64  // Drill diameter
	Layers   LayerSet // Layer pair
	Net      *Net     // Connected net
	Locked   bool     // Whether via is locked
	UUID     UUID
}

// Zone represents a copper zone. A zone spanning several layers keeps
// one Zone with one FilledPolygon per island per layer.
type Zone struct {
	Net     *Net            // Connected net
	Name    string          // Optional zone name
	Layers  LayerSet        // Layers the zone is poured on
	Outline []Position      // Zone outline polygon
	Fills   []FilledPolygon // Filled islands; empty for unfilled zones
	UUID    UUID
}

// FilledPolygon is one filled island of a zone on one layer
type FilledPolygon struct {
	Layer  string
	Points []Position
}

// NetCode returns the net number, or 0 when unassigned
func NetCode(n *Net) int {
	if n == nil {
		return 0
	}
	return n.Number
}

// CopperLayers returns the copper layer names in stackup order
func (b *Board) CopperLayers() []string {
	return NewLayerMap(b.Layers).CopperLayers()
}
