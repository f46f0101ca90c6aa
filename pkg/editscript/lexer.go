package editscript

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// ScriptLexer tokenizes edit scripts. Rules are tried in order, so the
// reference forms come before keywords and plain identifiers.
var ScriptLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},

	// track#3, via#0: items by kind and board order
	{Name: "IndexRef", Pattern: `[a-z]+#[0-9]+`},

	// R1.2 is pad 2 of footprint R1; layer names such as F.Cu lex the same
	{Name: "DotRef", Pattern: `[A-Za-z_][A-Za-z0-9_]*\.[A-Za-z0-9_]+`},

	{Name: "Keyword", Pattern: `(?:add|track|via|remove|delete|move|setnet|recalc|rebuild|sweep|expect|unconnected|clusters|drag|net|layer|from|to|width|at|size|by)\b`},

	{Name: "Number", Pattern: `[-+]?(?:[0-9]*\.)?[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Comma", Pattern: `,`},
})
