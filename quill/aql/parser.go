package aql

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SyntaxError reports a malformed query. Offset is the byte offset of
// the first offending character in the input.
type SyntaxError struct {
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Message)
}

// Parse parses a query string into an expression tree. The entire input
// must be consumed; trailing text is a *SyntaxError.
//
// Grammar:
//
//	query        := or_expr
//	or_expr      := and_expr ( "OR" and_expr )*
//	and_expr     := not_expr ( "AND"? not_expr )*
//	not_expr     := ( "-" | "NOT" )? term
//	term         := "(" query ")" | range_expr | fielded_term | default_term
//	range_expr   := field ":" ( ">=" | "<=" | ">" | "<" ) value_no_ws
//	fielded_term := field ":" value_item ( "," value_item )*
//	default_term := quoted_phrase | bareword
//
// AND, OR and NOT are case-insensitive and recognized only at a word
// boundary; "orange" is a bareword, not OR + "ange". Adjacent terms are an
// implicit conjunction, so AND is interchangeable with juxtaposition.
func Parse(input string) (Expr, error) {
	p := &parser{input: input}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return nil, p.errorf(p.pos, "unexpected trailing input")
	}
	return expr, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) errorf(offset int, format string, args ...any) error {
	return &SyntaxError{Offset: offset, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

// parseAnd accumulates a left-associative conjunction: an explicit AND
// keyword and plain juxtaposition are equivalent. The chain ends at end of
// input, at a closing paren, or before an OR keyword.
func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		if p.keyword("AND") {
			if p.atChainEnd() {
				return nil, p.errorf(p.pos, "expected term after AND")
			}
			right, err := p.parseNot()
			if err != nil {
				return nil, err
			}
			left = And{Left: left, Right: right}
			continue
		}
		if p.atChainEnd() {
			return left, nil
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
}

func (p *parser) parseNot() (Expr, error) {
	p.skipSpace()
	negOffset := p.pos
	negated := p.eatByte('-') || p.keyword("NOT")
	return p.parseTerm(negated, negOffset)
}

// parseTerm parses a single term. The negation marker, if one was
// present, applies only to leaves: a fielded comma list shares the flag
// across its desugared terms, and negating a parenthesized group is an
// error since compound nodes carry no negation of their own.
func (p *parser) parseTerm(negated bool, negOffset int) (Expr, error) {
	p.skipSpace()
	start := p.pos
	if p.pos >= len(p.input) {
		return nil, p.errorf(start, "expected term")
	}

	if p.input[p.pos] == '(' {
		if negated {
			return nil, p.errorf(negOffset, "cannot negate a grouped expression")
		}
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.eatByte(')') {
			return nil, p.errorf(p.pos, "expected ')' to close group opened at offset %d", start)
		}
		return inner, nil
	}

	// A field prefix is an alphanumeric run immediately followed by ':'.
	if field := p.scanAlnum(); field != "" && p.peekByte() == ':' {
		p.pos++
		if c := p.peekByte(); c == '<' || c == '>' {
			return p.parseRangeRest(field, negated)
		}
		return p.parseFieldedRest(field, negated)
	}
	p.pos = start

	value, phrase, ok, err := p.scanValueItem(false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.errorf(start, "expected term")
	}
	return Term{Value: value, Phrase: phrase, Negated: negated}, nil
}

// parseRangeRest parses the operator and value of "field:>2024-01-01"
// style comparisons. The field and ':' have already been consumed.
func (p *parser) parseRangeRest(field string, negated bool) (Expr, error) {
	var op RangeOp
	switch {
	case p.eatPrefix(">="):
		op = Gte
	case p.eatPrefix("<="):
		op = Lte
	case p.eatByte('>'):
		op = Gt
	default:
		p.eatByte('<')
		op = Lt
	}

	start := p.pos
	for p.pos < len(p.input) {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if unicode.IsSpace(r) || r == ')' {
			break
		}
		p.pos += size
	}
	if p.pos == start {
		return nil, p.errorf(start, "expected value after range operator")
	}
	return Range{Field: field, Op: op, Value: p.input[start:p.pos], Negated: negated}, nil
}

// parseFieldedRest parses the value list of "field:a,b,c". A single value
// yields one term; a comma-separated list desugars into a left-folded AND
// chain of same-field terms sharing the negation flag.
func (p *parser) parseFieldedRest(field string, negated bool) (Expr, error) {
	value, phrase, ok, err := p.scanValueItem(true)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.errorf(p.pos, "expected value after %q", field+":")
	}

	var expr Expr = Term{Field: field, Value: value, Phrase: phrase, Negated: negated}
	for p.peekByte() == ',' {
		mark := p.pos
		p.pos++
		value, phrase, ok, err = p.scanValueItem(true)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Trailing comma: leave it for the caller.
			p.pos = mark
			break
		}
		expr = And{Left: expr, Right: Term{Field: field, Value: value, Phrase: phrase, Negated: negated}}
	}
	return expr, nil
}

// scanValueItem scans a quoted phrase or a bareword. Barewords stop at
// whitespace and ')', and additionally at ',' inside a fielded value list.
// ok is false when no bareword character was available.
func (p *parser) scanValueItem(inFielded bool) (value string, phrase, ok bool, err error) {
	if p.peekByte() == '"' {
		open := p.pos
		p.pos++
		start := p.pos
		for p.pos < len(p.input) && p.input[p.pos] != '"' {
			p.pos++
		}
		if p.pos >= len(p.input) {
			return "", false, false, p.errorf(open, "unterminated phrase")
		}
		value = p.input[start:p.pos]
		p.pos++
		return value, true, true, nil
	}

	start := p.pos
	for p.pos < len(p.input) {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if unicode.IsSpace(r) || r == ')' || (inFielded && r == ',') {
			break
		}
		p.pos += size
	}
	if p.pos == start {
		return "", false, false, nil
	}
	return p.input[start:p.pos], false, true, nil
}

// atChainEnd reports whether the implicit-AND chain should stop: end of
// input, a closing paren, or an upcoming OR keyword (left unconsumed for
// parseOr).
func (p *parser) atChainEnd() bool {
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] == ')' {
		return true
	}
	return p.peekKeyword("OR")
}

// keyword consumes kw if it appears next, case-insensitively and at a
// word boundary (followed by whitespace, '(', '"', or end of input).
func (p *parser) keyword(kw string) bool {
	p.skipSpace()
	if !p.peekKeyword(kw) {
		return false
	}
	p.pos += len(kw)
	return true
}

func (p *parser) peekKeyword(kw string) bool {
	end := p.pos + len(kw)
	if end > len(p.input) {
		return false
	}
	if !strings.EqualFold(p.input[p.pos:end], kw) {
		return false
	}
	if end == len(p.input) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(p.input[end:])
	return unicode.IsSpace(r) || r == '(' || r == '"'
}

func (p *parser) scanAlnum() string {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

func (p *parser) peekByte() byte {
	if p.pos < len(p.input) {
		return p.input[p.pos]
	}
	return 0
}

func (p *parser) eatByte(c byte) bool {
	if p.pos < len(p.input) && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) eatPrefix(s string) bool {
	if strings.HasPrefix(p.input[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}
