package editscript

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Script is a parsed edit script
type Script struct {
	Commands []*Command `@@*`
}

// Command is one edit, query or expectation
type Command struct {
	Pos lexer.Position

	AddTrack *AddTrack `  "add" "track" @@`
	AddVia   *AddVia   ` | "add" "via" @@`
	Remove   *Ref      ` | "remove" @@`
	Delete   *Ref      ` | "delete" @@`
	Move     *Move     ` | "move" @@`
	SetNet   *SetNet   ` | "setnet" @@`
	Recalc   bool      ` | @"recalc"`
	Rebuild  bool      ` | @"rebuild"`
	Sweep    bool      ` | @"sweep"`
	Expect   *Expect   ` | "expect" @@`
	Drag     *Drag     ` | "drag" @@`
}

// Point is an x y pair in mm
type Point struct {
	X float64 `@Number`
	Y float64 `@Number`
}

// Ref names a board item: a script label, a footprint pad (R1.2) or an
// item by kind and board order (track#0)
type Ref struct {
	Value string `@(IndexRef | DotRef | Ident)`
}

// AddTrack: add track <label> net <n> layer <L> from <x> <y> to <x> <y> [width <w>]
type AddTrack struct {
	Label string   `@Ident`
	Net   int      `"net" @Number`
	Layer string   `"layer" @(DotRef | Ident)`
	From  Point    `"from" @@`
	To    Point    `"to" @@`
	Width *float64 `( "width" @Number )?`
}

// AddVia: add via <label> net <n> at <x> <y> [size <d>]
type AddVia struct {
	Label string   `@Ident`
	Net   int      `"net" @Number`
	At    Point    `"at" @@`
	Size  *float64 `( "size" @Number )?`
}

// Move: move <ref> by <dx> <dy>
type Move struct {
	Ref Ref   `@@`
	By  Point `"by" @@`
}

// SetNet: setnet <ref> <n>
type SetNet struct {
	Ref Ref `@@`
	Net int `@Number`
}

// Expect checks the store after the preceding commands
type Expect struct {
	Unconnected *int            `  "unconnected" @Number`
	Clusters    *ExpectClusters ` | "clusters" @@`
}

// ExpectClusters: expect clusters <net> <n>
type ExpectClusters struct {
	Net   int `@Number`
	Count int `@Number`
}

// Drag: drag <ref>[,<ref>...] by <dx> <dy>
type Drag struct {
	Refs []Ref `@@ ( "," @@ )*`
	By   Point `"by" @@`
}
