// Package kicadsexp provides a lightweight streaming S-expression parser
// for KiCad board files. Unlike general-purpose sexp libraries it reads
// through a buffered reader, so large zone fills never need to be held as
// one string.
package kicadsexp

import (
	"io"
	"strings"
)

// Sexp represents an S-expression node: an *Atom or a *List.
type Sexp interface {
	// IsLeaf returns true if this is an atom (not a list)
	IsLeaf() bool

	// Line returns the 1-based source line the node starts on
	Line() int

	// String returns the s-expression text of the node
	String() string
}

// Atom is a symbol, number or quoted string
type Atom struct {
	Value  string
	Quoted bool // true when the atom was a "quoted string" in the source
	line   int
}

func (a *Atom) IsLeaf() bool { return true }
func (a *Atom) Line() int    { return a.line }

func (a *Atom) String() string {
	if a.Quoted {
		return `"` + strings.ReplaceAll(a.Value, `"`, `\"`) + `"`
	}
	return a.Value
}

// List is a parenthesized sequence of nodes
type List struct {
	Elements []Sexp
	line     int
}

func (l *List) IsLeaf() bool { return false }
func (l *List) Line() int    { return l.line }

func (l *List) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, elem := range l.Elements {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(elem.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Len returns the number of elements in the list
func (l *List) Len() int {
	return len(l.Elements)
}

// Get returns the element at index, or nil when out of range
func (l *List) Get(index int) Sexp {
	if index < 0 || index >= len(l.Elements) {
		return nil
	}
	return l.Elements[index]
}

// Keyword returns the leading symbol of the list, e.g. "segment" for
// (segment (start 0 0) ...). Empty when the list does not start with an atom.
func (l *List) Keyword() string {
	if len(l.Elements) == 0 {
		return ""
	}
	if a, ok := l.Elements[0].(*Atom); ok && !a.Quoted {
		return a.Value
	}
	return ""
}

// Parse parses all top-level S-expressions from r
func Parse(r io.Reader) ([]Sexp, error) {
	return NewParser(r).ParseAll()
}

// ParseString parses S-expressions from a string
func ParseString(s string) ([]Sexp, error) {
	return Parse(strings.NewReader(s))
}
