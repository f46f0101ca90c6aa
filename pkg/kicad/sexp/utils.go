package sexp

import (
	"fmt"
	"strconv"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/kicad/sexp/kicadsexp"
)

// AsList returns s as a list, or nil for atoms
func AsList(s kicadsexp.Sexp) *kicadsexp.List {
	l, _ := s.(*kicadsexp.List)
	return l
}

// NodeName returns the keyword of a list node, e.g. "via" for (via ...)
func NodeName(s kicadsexp.Sexp) (string, error) {
	l := AsList(s)
	if l == nil {
		return "", fmt.Errorf("expected list, got atom")
	}
	name := l.Keyword()
	if name == "" {
		return "", fmt.Errorf("expected symbol at head of list on line %d", l.Line())
	}
	return name, nil
}

// FindNode returns the first child list whose keyword is key.
// Example: FindNode(node, "at") finds (at 100 50) in a pad.
func FindNode(s kicadsexp.Sexp, key string) (*kicadsexp.List, bool) {
	l := AsList(s)
	if l == nil {
		return nil, false
	}
	for _, elem := range l.Elements {
		if child := AsList(elem); child != nil && child.Keyword() == key {
			return child, true
		}
	}
	return nil, false
}

// FindAllNodes returns every child list whose keyword is key
func FindAllNodes(s kicadsexp.Sexp, key string) []*kicadsexp.List {
	l := AsList(s)
	if l == nil {
		return nil
	}
	var results []*kicadsexp.List
	for _, elem := range l.Elements {
		if child := AsList(elem); child != nil && child.Keyword() == key {
			results = append(results, child)
		}
	}
	return results
}

// ListItems returns the elements after the keyword
func ListItems(s kicadsexp.Sexp) []kicadsexp.Sexp {
	l := AsList(s)
	if l == nil || l.Len() <= 1 {
		return nil
	}
	return l.Elements[1:]
}

// HasSymbol reports whether the list holds the bare symbol, e.g. locked
// in (segment ... locked). KiCad 7+ writes (locked yes) instead; both count.
func HasSymbol(s kicadsexp.Sexp, symbol string) bool {
	l := AsList(s)
	if l == nil {
		return false
	}
	for _, elem := range l.Elements[min(1, l.Len()):] {
		switch v := elem.(type) {
		case *kicadsexp.Atom:
			if !v.Quoted && v.Value == symbol {
				return true
			}
		case *kicadsexp.List:
			if v.Keyword() == symbol {
				flag, err := String(v, 1)
				return err != nil || flag == "yes" || flag == "true"
			}
		}
	}
	return false
}

// String extracts the atom value at index. Index 0 is the keyword.
func String(s kicadsexp.Sexp, index int) (string, error) {
	l := AsList(s)
	if l == nil {
		return "", fmt.Errorf("expected list, got atom")
	}
	if index < 0 || index >= l.Len() {
		return "", fmt.Errorf("index %d out of bounds (length %d) on line %d", index, l.Len(), l.Line())
	}
	a, ok := l.Elements[index].(*kicadsexp.Atom)
	if !ok {
		return "", fmt.Errorf("expected atom at index %d on line %d", index, l.Line())
	}
	return a.Value, nil
}

// Float extracts a float64 value at index
func Float(s kicadsexp.Sexp, index int) (float64, error) {
	str, err := String(s, index)
	if err != nil {
		return 0, err
	}
	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse float %q: %w", str, err)
	}
	return val, nil
}

// Int extracts an int value at index
func Int(s kicadsexp.Sexp, index int) (int, error) {
	str, err := String(s, index)
	if err != nil {
		return 0, err
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("failed to parse int %q: %w", str, err)
	}
	return val, nil
}

// XY extracts (keyword X Y) such as (start 1 2) or (xy 1 2)
func XY(s kicadsexp.Sexp) (Position, error) {
	x, err := Float(s, 1)
	if err != nil {
		return Position{}, fmt.Errorf("failed to parse X: %w", err)
	}
	y, err := Float(s, 2)
	if err != nil {
		return Position{}, fmt.Errorf("failed to parse Y: %w", err)
	}
	return Position{X: x, Y: y}, nil
}

// At extracts (at X Y [angle]); the angle is optional
func At(s kicadsexp.Sexp) (PositionAngle, error) {
	pos, err := XY(s)
	if err != nil {
		return PositionAngle{}, err
	}
	result := PositionAngle{Position: pos}
	if angle, err := Float(s, 3); err == nil {
		result.Angle = angle
	}
	return result, nil
}

// ChildXY finds the child (key X Y) of s and extracts it
func ChildXY(s kicadsexp.Sexp, key string) (Position, error) {
	node, ok := FindNode(s, key)
	if !ok {
		return Position{}, fmt.Errorf("missing required '%s' position", key)
	}
	pos, err := XY(node)
	if err != nil {
		return Position{}, fmt.Errorf("failed to parse %s position: %w", key, err)
	}
	return pos, nil
}

// ChildFloat finds the child (key V) of s and extracts V
func ChildFloat(s kicadsexp.Sexp, key string) (float64, bool, error) {
	node, ok := FindNode(s, key)
	if !ok {
		return 0, false, nil
	}
	v, err := Float(node, 1)
	if err != nil {
		return 0, true, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return v, true, nil
}

// Strings returns all atom values after the keyword,
// e.g. ["F.Cu", "B.Cu"] for (layers "F.Cu" "B.Cu")
func Strings(s kicadsexp.Sexp) []string {
	var out []string
	for _, item := range ListItems(s) {
		if a, ok := item.(*kicadsexp.Atom); ok && a.Value != "" {
			out = append(out, a.Value)
		}
	}
	return out
}

// Points extracts the (xy X Y) coordinates of a (pts ...) node.
// Arc entries inside pts are skipped.
func Points(s kicadsexp.Sexp) []Position {
	var points []Position
	for _, item := range ListItems(s) {
		l := AsList(item)
		if l == nil || l.Keyword() != "xy" {
			continue
		}
		if pos, err := XY(l); err == nil {
			points = append(points, pos)
		}
	}
	return points
}

// ID extracts the item identity from (uuid "...") or the older (tstamp ...)
func ID(s kicadsexp.Sexp) UUID {
	for _, key := range []string{"uuid", "tstamp"} {
		if node, ok := FindNode(s, key); ok {
			if id, err := String(node, 1); err == nil {
				return UUID(id)
			}
		}
	}
	return ""
}
