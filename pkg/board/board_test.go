package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/kicad/pcb"
)

func TestInsertDelete(t *testing.T) {
	b := New()
	tr := &Track{Start: geom.Pt(0, 0), End: geom.Pt(1, 0), Width: 0.2, Layer: FCu, NetCode: 1}

	h := b.Insert(tr)
	assert.False(t, h.IsZero())
	assert.True(t, b.Valid(h))
	assert.Equal(t, h, tr.Handle())
	assert.Equal(t, h, b.Insert(tr), "inserting a live item again keeps its handle")
	assert.Same(t, tr, b.Get(h).(*Track))

	require.True(t, b.Delete(h))
	assert.False(t, b.Valid(h))
	assert.Nil(t, b.Get(h))
	assert.False(t, b.Delete(h), "second delete is a no-op")

	// The slot is recycled with a new generation
	v := &Via{Position: geom.Pt(5, 5), Diameter: 0.8, Layers: Span(FCu, BCu), NetCode: 1}
	hv := b.Insert(v)
	assert.Equal(t, h.index, hv.index)
	assert.NotEqual(t, h, hv)
	assert.False(t, b.Valid(h))
	assert.True(t, b.Valid(hv))

	assert.False(t, b.Valid(Handle{}))
}

func TestFootprintPads(t *testing.T) {
	b := New()
	fp := &Footprint{Reference: "R1", Pads: []*Pad{
		{Number: "1", Position: geom.Pt(0, 0), Width: 1, Height: 1, Layers: Layers(FCu), NetCode: 1},
		{Number: "2", Position: geom.Pt(2, 0), Width: 1, Height: 1, Layers: Layers(FCu), NetCode: 2},
	}}
	h := b.Insert(fp)

	items := b.Items()
	require.Len(t, items, 2, "footprints contribute their pads")
	assert.Equal(t, h, fp.Pads[0].Footprint)
	assert.Same(t, fp, b.Footprint("R1"))
	assert.Same(t, fp.Pads[1], fp.Pad("2"))

	fp.Move(geom.Pt(1, 1))
	assert.Equal(t, geom.Pt(3, 1), fp.Pads[1].Position)

	require.True(t, b.Delete(h))
	assert.Empty(t, b.Items())
	assert.False(t, b.Valid(fp.Pads[0].Handle()))
	assert.Equal(t, 0, b.Len())
}

func TestLayers(t *testing.T) {
	id, err := ParseLayer("In2.Cu")
	require.NoError(t, err)
	assert.Equal(t, In(2), id)
	assert.Equal(t, "In2.Cu", id.String())

	_, err = ParseLayer("In31.Cu")
	assert.ErrorIs(t, err, ErrUnknownLayer)

	copper := Layers(FCu, In(1), BCu)
	set, err := LayersFromNames([]string{"*.Cu", "*.Mask"}, copper)
	require.NoError(t, err)
	assert.Equal(t, copper, set)

	set, err = LayersFromNames([]string{"F&B.Cu"}, copper)
	require.NoError(t, err)
	assert.Equal(t, []LayerID{FCu, BCu}, set.IDs())

	_, err = LayersFromNames([]string{"X.Cu"}, copper)
	assert.ErrorIs(t, err, ErrUnknownLayer)

	span := Span(BCu, FCu) & copper
	assert.Equal(t, 3, span.Count())
	assert.True(t, span.Has(In(1)))
	assert.False(t, Layers(FCu).Intersects(Layers(BCu)))
	assert.Equal(t, "F.Cu,B.Cu", Layers(BCu, FCu).String())
}

func TestKindMask(t *testing.T) {
	m := Mask(KindPad, KindVia)
	assert.True(t, m.Has(KindPad))
	assert.False(t, m.Has(KindTrack))
	assert.True(t, AllKinds.Has(KindZone))
	assert.False(t, AllKinds.Has(KindFootprint))
}

func TestPadShape(t *testing.T) {
	oval := &Pad{Position: geom.Pt(0, 0), Width: 1, Height: 3, Flash: PadOval, Layers: Layers(FCu)}
	seg, ok := oval.Shape(FCu).(geom.Segment)
	require.True(t, ok)
	assert.InDelta(t, 1, seg.Width, 1e-12)
	assert.InDelta(t, 2, geom.Distance(seg.A, seg.B), 1e-12)
	assert.Nil(t, oval.Shape(BCu))

	round := &Pad{Position: geom.Pt(1, 1), Width: 2, Height: 2, Flash: PadCircle, Layers: Layers(FCu)}
	assert.Equal(t, geom.Circle{Center: geom.Pt(1, 1), Radius: 1}, round.Shape(FCu))

	rect := &Pad{Position: geom.Pt(0, 0), Width: 2, Height: 1, Flash: PadRect, Layers: Layers(FCu)}
	_, ok = rect.Shape(FCu).(*geom.Polygon)
	assert.True(t, ok)
}

func TestZoneIslands(t *testing.T) {
	z := &Zone{Layers: Layers(FCu, BCu), NetCode: 1}
	assert.False(t, z.Filled())
	assert.Nil(t, z.Shape(FCu))

	z.AddIsland(FCu, []geom.Point{geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(1, 1)})
	assert.True(t, z.Filled())
	assert.Len(t, z.Islands(FCu), 1)
	assert.Empty(t, z.Islands(BCu))

	z.Move(geom.Pt(10, 0))
	assert.Equal(t, geom.Pt(10, 0), z.Islands(FCu)[0].Points[0])
	assert.Equal(t, 10.0, z.Islands(FCu)[0].Bounds().Min.X)
}

func TestFromPCB(t *testing.T) {
	pb, err := pcb.ParseFile("../../testdata/boards/demo.kicad_pcb")
	require.NoError(t, err)

	b, err := FromPCB(pb)
	require.NoError(t, err)

	assert.Equal(t, "GND", b.NetName(1))
	assert.Equal(t, []int{0, 1, 2, 3}, b.NetCodes())
	assert.Len(t, b.Footprints(), 3)
	assert.Len(t, b.ItemsOfKind(KindPad), 6)
	assert.Len(t, b.ItemsOfKind(KindTrack), 5)
	assert.Len(t, b.ItemsOfKind(KindArc), 1)
	assert.Len(t, b.ItemsOfKind(KindVia), 1)
	require.Len(t, b.ItemsOfKind(KindZone), 1)

	j1 := b.Footprint("J1")
	require.NotNil(t, j1)
	assert.Equal(t, Layers(FCu, BCu), j1.Pad("1").Layers, "*.Cu expands to the board's copper")
	assert.InDelta(t, 92.54, j1.Pad("2").Position.X, 1e-9)

	r2 := b.Footprint("R2")
	require.NotNil(t, r2)
	assert.InDelta(t, 51, r2.Pad("1").Position.Y, 1e-9)

	via := b.ItemsOfKind(KindVia)[0].(*Via)
	assert.Equal(t, Layers(FCu, BCu), via.Layers)

	zone := b.ItemsOfKind(KindZone)[0].(*Zone)
	assert.Equal(t, 1, zone.Net())
	assert.Len(t, zone.Islands(FCu), 1)
	assert.Len(t, zone.Islands(BCu), 1)
}
