package sexp

import (
	"testing"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/kicad/sexp/kicadsexp"
)

func mustParse(t *testing.T, input string) kicadsexp.Sexp {
	t.Helper()
	sexps, err := kicadsexp.ParseString(input)
	if err != nil {
		t.Fatalf("Failed to parse s-expression: %v", err)
	}
	return sexps[0]
}

func TestFindNode(t *testing.T) {
	node := mustParse(t, `(via (at 1 2) (size 0.8) (drill 0.4) (layers "F.Cu" "B.Cu") (net 3))`)

	at, ok := FindNode(node, "at")
	if !ok {
		t.Fatal("FindNode(at) not found")
	}
	pos, err := XY(at)
	if err != nil {
		t.Fatalf("XY() error: %v", err)
	}
	if pos.X != 1 || pos.Y != 2 {
		t.Errorf("XY() = %+v, want (1, 2)", pos)
	}

	if _, ok := FindNode(node, "missing"); ok {
		t.Errorf("FindNode(missing) found a node")
	}

	layers, _ := FindNode(node, "layers")
	got := Strings(layers)
	if len(got) != 2 || got[0] != "F.Cu" || got[1] != "B.Cu" {
		t.Errorf("Strings(layers) = %v, want [F.Cu B.Cu]", got)
	}

	size, found, err := ChildFloat(node, "size")
	if err != nil || !found || size != 0.8 {
		t.Errorf("ChildFloat(size) = %v, %v, %v, want 0.8, true, nil", size, found, err)
	}
}

func TestAt(t *testing.T) {
	tests := []struct {
		input     string
		wantX     float64
		wantY     float64
		wantAngle float64
		wantErr   bool
	}{
		{input: "(at 10 20)", wantX: 10, wantY: 20},
		{input: "(at 10 20 90)", wantX: 10, wantY: 20, wantAngle: 90},
		{input: "(at 10)", wantErr: true},
		{input: "(at x 20)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := At(mustParse(t, tt.input))
			if tt.wantErr {
				if err == nil {
					t.Errorf("At() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("At() unexpected error: %v", err)
			}
			if got.X != tt.wantX || got.Y != tt.wantY || got.Angle != tt.wantAngle {
				t.Errorf("At() = %+v, want (%v, %v, %v)", got, tt.wantX, tt.wantY, tt.wantAngle)
			}
		})
	}
}

func TestHasSymbol(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "(segment (start 0 0) locked)", want: true},
		{input: "(segment (start 0 0) (locked yes))", want: true},
		{input: "(segment (start 0 0) (locked no))", want: false},
		{input: "(segment (start 0 0))", want: false},
		{input: `(segment (net_name "locked"))`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := HasSymbol(mustParse(t, tt.input), "locked"); got != tt.want {
				t.Errorf("HasSymbol() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointsAndID(t *testing.T) {
	pts := mustParse(t, "(pts (xy 0 0) (xy 1 0) (arc (start 1 0) (mid 1 1) (end 0 1)) (xy 0 1))")
	got := Points(pts)
	if len(got) != 3 {
		t.Fatalf("Points() returned %d points, want 3", len(got))
	}
	if got[2].X != 0 || got[2].Y != 1 {
		t.Errorf("Points()[2] = %+v, want (0, 1)", got[2])
	}

	if id := ID(mustParse(t, `(pad "1" (uuid "abc"))`)); id != "abc" {
		t.Errorf("ID() = %q, want %q", id, "abc")
	}
	if id := ID(mustParse(t, `(footprint "x" (tstamp 1234))`)); id != "1234" {
		t.Errorf("ID() = %q, want %q", id, "1234")
	}
}

func TestBoundingBox(t *testing.T) {
	bb := NewBoundingBox()
	if !bb.IsEmpty() {
		t.Errorf("NewBoundingBox() should be empty")
	}
	bb.Expand(Position{X: 1, Y: 2})
	bb.Expand(Position{X: -3, Y: 6})
	if bb.Width() != 4 || bb.Height() != 4 {
		t.Errorf("size = %v x %v, want 4 x 4", bb.Width(), bb.Height())
	}
	if c := bb.Center(); c.X != -1 || c.Y != 4 {
		t.Errorf("Center() = %+v, want (-1, 4)", c)
	}
}
