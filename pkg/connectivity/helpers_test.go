package connectivity

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/board"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/geom"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Workers = 4
	s, err := New(cfg, append([]Option{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	return s
}

func buildStore(t *testing.T, b *board.Board, opts ...Option) *Store {
	t.Helper()
	s := newTestStore(t, opts...)
	require.NoError(t, s.Build(context.Background(), b, nil))
	return s
}

func newPad(net int, x, y float64) *board.Pad {
	return &board.Pad{
		Number:   "1",
		Position: geom.Pt(x, y),
		Width:    1,
		Height:   1,
		Flash:    board.PadRect,
		Layers:   board.Layers(board.FCu),
		NetCode:  net,
	}
}

func newTrack(net int, x1, y1, x2, y2 float64) *board.Track {
	return &board.Track{
		Start:   geom.Pt(x1, y1),
		End:     geom.Pt(x2, y2),
		Width:   0.25,
		Layer:   board.FCu,
		NetCode: net,
	}
}

func newVia(net int, x, y float64) *board.Via {
	return &board.Via{
		Position: geom.Pt(x, y),
		Diameter: 0.8,
		Drill:    0.4,
		Layers:   board.Layers(board.FCu, board.BCu),
		NetCode:  net,
	}
}

// newZone returns a zone filled with one rectangular island on F.Cu
func newZone(net int, x0, y0, x1, y1 float64) *board.Zone {
	pts := []geom.Point{geom.Pt(x0, y0), geom.Pt(x1, y0), geom.Pt(x1, y1), geom.Pt(x0, y1)}
	z := &board.Zone{
		Layers:  board.Layers(board.FCu),
		Outline: append([]geom.Point(nil), pts...),
		NetCode: net,
	}
	z.AddIsland(board.FCu, pts)
	return z
}

func insert(b *board.Board, items ...board.Item) {
	for _, it := range items {
		b.Insert(it)
	}
}

// visibleCount returns the visible ratsnest edges of net
func visibleCount(s *Store, net int) int {
	n := 0
	for _, e := range s.RatsnestEdges(net) {
		if e.Visible {
			n++
		}
	}
	return n
}

type snapshot struct {
	clusters []ClusterInfo
	edges    []Edge
}

func snap(s *Store, net int) snapshot {
	return snapshot{clusters: s.Clusters(net), edges: s.RatsnestEdges(net)}
}

type recordingProgress struct {
	stages []string
	cancel bool
}

func (p *recordingProgress) Report(stage string, done, total int) {
	if n := len(p.stages); n == 0 || p.stages[n-1] != stage {
		p.stages = append(p.stages, stage)
	}
}

func (p *recordingProgress) Cancelled() bool { return p.cancel }

// testContext stands in for testing.T.Context (Go 1.24+): it is
// canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
