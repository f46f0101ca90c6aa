package kicadsexp

import (
	"fmt"
	"io"
)

// maxDepth bounds list nesting; KiCad files never get close
const maxDepth = 512

// Parser parses S-expressions from a lexer
type Parser struct {
	lexer   *Lexer
	current Token
	depth   int
}

// NewParser creates a new parser from an io.Reader
func NewParser(r io.Reader) *Parser {
	return &Parser{
		lexer: NewLexer(r),
	}
}

// ParseAll parses all top-level S-expressions from the input
func (p *Parser) ParseAll() ([]Sexp, error) {
	var result []Sexp

	if err := p.advance(); err != nil {
		return nil, err
	}

	for p.current.Type != TokenEOF {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		result = append(result, expr)

		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (p *Parser) advance() error {
	tok, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

// parseExpr parses a single S-expression starting at the current token
func (p *Parser) parseExpr() (Sexp, error) {
	switch p.current.Type {
	case TokenLeftParen:
		return p.parseList()
	case TokenSymbol:
		return &Atom{Value: p.current.Value, line: p.current.Line}, nil
	case TokenString:
		return &Atom{Value: p.current.Value, Quoted: true, line: p.current.Line}, nil
	case TokenRightParen:
		return nil, fmt.Errorf("unexpected ')' on line %d", p.current.Line)
	default:
		return nil, fmt.Errorf("unexpected %v on line %d", p.current.Type, p.current.Line)
	}
}

// parseList parses a list: ( ... )
func (p *Parser) parseList() (Sexp, error) {
	start := p.current.Line
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return nil, fmt.Errorf("nesting deeper than %d on line %d", maxDepth, start)
	}

	list := &List{line: start}
	for {
		if err := p.advance(); err != nil {
			return nil, err
		}

		if p.current.Type == TokenRightParen {
			break
		}
		if p.current.Type == TokenEOF {
			return nil, fmt.Errorf("unexpected EOF in list starting on line %d", start)
		}

		elem, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list.Elements = append(list.Elements, elem)
	}

	return list, nil
}
