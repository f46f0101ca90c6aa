package editscript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/board"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/geom"
)

var (
	// ErrUnknownRef is returned for references that resolve to no live item
	ErrUnknownRef = errors.New("editscript: unknown reference")

	// ErrExpectation is returned when an expect command fails
	ErrExpectation = errors.New("editscript: expectation failed")
)

const (
	defaultTrackWidth = 0.25
	defaultViaSize    = 0.8
	defaultViaDrill   = 0.4
)

// Env is what a script runs against
type Env struct {
	Board *board.Board
	Store *connectivity.Store
	Out   io.Writer   // transcript, discarded when nil
	Log   *log.Logger // log.Default() when nil
}

// Result summarizes a run
type Result struct {
	Commands    int
	Unconnected int // after the last command
}

type runner struct {
	env    *Env
	out    io.Writer
	log    *log.Logger
	labels map[string]board.Handle
}

// Run executes script against env, writing one transcript line per
// command. It stops at the first failing command.
func Run(ctx context.Context, script *Script, env *Env) (*Result, error) {
	r := &runner{env: env, out: env.Out, log: env.Log, labels: make(map[string]board.Handle)}
	if r.out == nil {
		r.out = io.Discard
	}
	if r.log == nil {
		r.log = log.Default()
	}

	res := &Result{}
	for _, cmd := range script.Commands {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.exec(ctx, cmd); err != nil {
			return res, fmt.Errorf("line %d: %w", cmd.Pos.Line, err)
		}
		res.Commands++
	}
	res.Unconnected = env.Store.GetUnconnectedCount()
	return res, nil
}

func (r *runner) exec(ctx context.Context, cmd *Command) error {
	b, s := r.env.Board, r.env.Store
	switch {
	case cmd.AddTrack != nil:
		return r.addTrack(cmd.AddTrack)

	case cmd.AddVia != nil:
		a := cmd.AddVia
		size := defaultViaSize
		if a.Size != nil {
			size = *a.Size
		}
		via := &board.Via{
			Position: point(a.At),
			Diameter: size,
			Drill:    defaultViaDrill,
			Layers:   board.Layers(board.FCu, board.BCu),
			NetCode:  a.Net,
		}
		return r.insert(a.Label, via)

	case cmd.Remove != nil:
		it, err := r.resolve(*cmd.Remove)
		if err != nil {
			return err
		}
		s.Remove(it)
		b.Delete(it.Handle())
		r.printf("remove %s", cmd.Remove.Value)

	case cmd.Delete != nil:
		// Board-side only; the store keeps a stale reference until a sweep
		it, err := r.resolve(*cmd.Delete)
		if err != nil {
			return err
		}
		b.Delete(it.Handle())
		r.printf("delete %s", cmd.Delete.Value)

	case cmd.Move != nil:
		it, err := r.resolve(cmd.Move.Ref)
		if err != nil {
			return err
		}
		it.Move(point(cmd.Move.By))
		s.Update(it)
		r.printf("move %s by %s", cmd.Move.Ref.Value, fmtPoint(point(cmd.Move.By)))

	case cmd.SetNet != nil:
		it, err := r.resolve(cmd.SetNet.Ref)
		if err != nil {
			return err
		}
		it.SetNet(cmd.SetNet.Net)
		s.Update(it)
		r.printf("setnet %s %d", cmd.SetNet.Ref.Value, cmd.SetNet.Net)

	case cmd.Recalc:
		n := s.RecalculateRatsnest()
		r.printf("recalc: %d nets, %d unconnected", n, s.GetUnconnectedCount())

	case cmd.Rebuild:
		if err := s.Build(ctx, b, nil); err != nil {
			return fmt.Errorf("failed to rebuild: %w", err)
		}
		r.printf("rebuild: %d items, %d unconnected", s.ItemCount(), s.GetUnconnectedCount())

	case cmd.Sweep:
		r.printf("sweep: %d stale", s.RemoveInvalidRefs())

	case cmd.Expect != nil:
		return r.expect(cmd.Expect)

	case cmd.Drag != nil:
		return r.drag(ctx, cmd.Drag)
	}
	return nil
}

func (r *runner) addTrack(a *AddTrack) error {
	layer, err := board.ParseLayer(a.Layer)
	if err != nil {
		return err
	}
	width := defaultTrackWidth
	if a.Width != nil {
		width = *a.Width
	}
	return r.insert(a.Label, &board.Track{
		Start:   point(a.From),
		End:     point(a.To),
		Width:   width,
		Layer:   layer,
		NetCode: a.Net,
	})
}

func (r *runner) insert(label string, it board.Item) error {
	if _, dup := r.labels[label]; dup {
		return fmt.Errorf("label %q already defined", label)
	}
	h := r.env.Board.Insert(it)
	r.labels[label] = h
	r.env.Store.Add(it)
	r.printf("add %s %s %s", it.Kind(), label, h)
	return nil
}

func (r *runner) expect(e *Expect) error {
	s := r.env.Store
	switch {
	case e.Unconnected != nil:
		got := s.GetUnconnectedCount()
		if got != *e.Unconnected {
			return fmt.Errorf("%w: unconnected = %d, want %d", ErrExpectation, got, *e.Unconnected)
		}
		r.printf("expect unconnected %d: ok", got)
	case e.Clusters != nil:
		got := len(s.Clusters(e.Clusters.Net))
		if got != e.Clusters.Count {
			return fmt.Errorf("%w: net %d clusters = %d, want %d", ErrExpectation, e.Clusters.Net, got, e.Clusters.Count)
		}
		r.printf("expect clusters %d %d: ok", e.Clusters.Net, got)
	}
	return nil
}

func (r *runner) drag(ctx context.Context, d *Drag) error {
	items := make([]board.Item, 0, len(d.Refs))
	for _, ref := range d.Refs {
		it, err := r.resolve(ref)
		if err != nil {
			return err
		}
		items = append(items, it)
	}
	o, err := connectivity.NewOverlay(ctx, r.env.Store, items, nil)
	if err != nil {
		return err
	}
	lines := o.Lines(point(d.By))
	r.printf("drag: %d lines", len(lines))
	for _, l := range lines {
		r.printf("  net %d: %s -> %s", l.Net, fmtPoint(l.A), fmtPoint(l.B))
	}
	return nil
}

// resolve maps a reference to a live board item
func (r *runner) resolve(ref Ref) (board.Item, error) {
	b := r.env.Board
	v := ref.Value

	if h, ok := r.labels[v]; ok {
		if it := b.Get(h); it != nil {
			return it, nil
		}
		return nil, fmt.Errorf("%w: %s was deleted", ErrUnknownRef, v)
	}

	if kind, idx, ok := strings.Cut(v, "#"); ok {
		n, err := strconv.Atoi(idx)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRef, v)
		}
		for _, k := range []board.Kind{board.KindPad, board.KindVia, board.KindTrack, board.KindArc, board.KindZone, board.KindFootprint} {
			if k.String() != kind {
				continue
			}
			items := b.ItemsOfKind(k)
			if n < 0 || n >= len(items) {
				return nil, fmt.Errorf("%w: %s (board has %d)", ErrUnknownRef, v, len(items))
			}
			return items[n], nil
		}
		return nil, fmt.Errorf("%w: unknown kind in %s", ErrUnknownRef, v)
	}

	if fpRef, num, ok := strings.Cut(v, "."); ok {
		if fp := b.Footprint(fpRef); fp != nil {
			if p := fp.Pad(num); p != nil {
				return p, nil
			}
		}
		return nil, fmt.Errorf("%w: pad %s", ErrUnknownRef, v)
	}

	if fp := b.Footprint(v); fp != nil {
		return fp, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownRef, v)
}

func (r *runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
	r.log.Debug(fmt.Sprintf(format, args...))
}

func point(p Point) geom.Point {
	return geom.Pt(p.X, p.Y)
}

func fmtPoint(p geom.Point) string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}
