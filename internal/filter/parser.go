package filter

import (
	"strings"
)

// Parse parses filter text. Failures are InvalidFilterSyntax errors carrying
// the byte offset of the offending token.
func Parse(text string) (Expression, error) {
	tokens, err := lex(text)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}

	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, syntaxError(tok.pos, "unexpected %s %q", tok.kind, tok.text)
	}

	return expr, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}

	return tok
}

func (p *parser) keyword(word string) bool {
	tok := p.peek()
	if tok.kind == tokenWord && strings.EqualFold(tok.text, word) {
		p.pos++
		return true
	}

	return false
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.next()
	if tok.kind != kind {
		return tok, syntaxError(tok.pos, "expected %s, got %s %q", kind, tok.kind, tok.text)
	}

	return tok, nil
}

func (p *parser) parseOr() (Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.keyword("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}

		left = &Logical{Op: OpOr, Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseAnd() (Expression, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for p.keyword("and") {
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}

		left = &Logical{Op: OpAnd, Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseTerm() (Expression, error) {
	tok := p.peek()

	switch {
	case tok.kind == tokenLParen:
		p.next()

		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(tokenRParen); err != nil {
			return nil, err
		}

		return expr, nil
	case tok.kind == tokenWord && strings.EqualFold(tok.text, "not") && p.startsTerm(p.pos+1):
		p.next()

		expr, err := p.parseTerm()
		if err != nil {
			return nil, err
		}

		return &Not{Expr: expr}, nil
	case tok.kind == tokenWord:
		return p.parseAttrExpression()
	default:
		return nil, syntaxError(tok.pos, "expected attribute path or '(', got %s %q", tok.kind, tok.text)
	}
}

// startsTerm tells "not (x)" and "not x eq 1" apart from an attribute
// literally named "not".
func (p *parser) startsTerm(i int) bool {
	if i >= len(p.tokens) {
		return false
	}

	tok := p.tokens[i]
	if tok.kind == tokenLParen {
		return true
	}

	if tok.kind != tokenWord {
		return false
	}

	_, isOp := compareOperator(tok.text)

	return !isOp && !strings.EqualFold(tok.text, "pr")
}

func (p *parser) parseAttrExpression() (Expression, error) {
	tok := p.next()

	path, err := parseAttrPath(tok)
	if err != nil {
		return nil, err
	}

	if p.peek().kind == tokenLBracket {
		p.next()

		sub, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(tokenRBracket); err != nil {
			return nil, err
		}

		return &ValuePath{Path: path, Filter: sub}, nil
	}

	opTok := p.next()
	if opTok.kind != tokenWord {
		return nil, syntaxError(opTok.pos, "expected operator after %q, got %s", tok.text, opTok.kind)
	}

	if strings.EqualFold(opTok.text, "pr") {
		return &Presence{Path: path}, nil
	}

	op, ok := compareOperator(opTok.text)
	if !ok {
		return nil, syntaxError(opTok.pos, "unknown operator %q", opTok.text)
	}

	value, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}

	return &Comparison{Path: path, Op: op, Value: value}, nil
}

func (p *parser) parseLiteral() (Literal, error) {
	tok := p.next()

	switch tok.kind {
	case tokenString:
		return Literal{Text: tok.text, Quoted: true}, nil
	case tokenWord:
		if strings.EqualFold(tok.text, "null") {
			return Literal{Text: tok.text, Null: true}, nil
		}

		return Literal{Text: tok.text}, nil
	default:
		return Literal{}, syntaxError(tok.pos, "expected comparison value, got %s", tok.kind)
	}
}

// parseAttrPath splits a dotted attribute path. A leading schema URN
// ("urn:ietf:params:scim:schemas:core:2.0:User:userName") is dropped.
func parseAttrPath(tok token) (AttrPath, error) {
	text := tok.text
	if len(text) > 4 && strings.EqualFold(text[:4], "urn:") {
		i := strings.LastIndexByte(text, ':')
		text = text[i+1:]
	}

	names := strings.Split(text, ".")
	for _, name := range names {
		if name == "" {
			return AttrPath{}, syntaxError(tok.pos, "invalid attribute path %q", tok.text)
		}
	}

	return AttrPath{Names: names}, nil
}
