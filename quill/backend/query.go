// Package backend defines the engine-agnostic query representation the
// compiler emits. It is a closed sum; a storage adapter lowers it to
// whatever a concrete search engine executes.
package backend

import (
	"fmt"
	"strings"
)

// Query is a compiled, immutable backend query.
type Query interface {
	isQuery()
	String() string
}

// Term matches a single value against one field. Phrase terms must match
// as a contiguous phrase rather than independent tokens.
type Term struct {
	Field  string
	Value  string
	Phrase bool
}

func (Term) isQuery() {}

func (t Term) String() string {
	if t.Phrase {
		return fmt.Sprintf("%s:%q", t.Field, t.Value)
	}
	return fmt.Sprintf("%s:%s", t.Field, t.Value)
}

// BoundKind classifies one end of a range.
type BoundKind int

const (
	Unbounded BoundKind = iota
	Included
	Excluded
)

// Bound is one end of a numeric range.
type Bound struct {
	Kind  BoundKind
	Value int64
}

func (b Bound) bracket(open bool) string {
	switch b.Kind {
	case Included:
		if open {
			return fmt.Sprintf("[%d", b.Value)
		}
		return fmt.Sprintf("%d]", b.Value)
	case Excluded:
		if open {
			return fmt.Sprintf("(%d", b.Value)
		}
		return fmt.Sprintf("%d)", b.Value)
	default:
		if open {
			return "("
		}
		return ")"
	}
}

// Range matches a numeric field between two bounds.
type Range struct {
	Field string
	Lower Bound
	Upper Bound
}

func (Range) isQuery() {}

func (r Range) String() string {
	return fmt.Sprintf("%s:%s..%s", r.Field, r.Lower.bracket(true), r.Upper.bracket(false))
}

// And requires both subqueries to match.
type And struct {
	Left  Query
	Right Query
}

func (And) isQuery() {}

func (a And) String() string {
	return fmt.Sprintf("(%s AND %s)", a.Left, a.Right)
}

// Or requires at least one subquery to match.
type Or struct {
	Left  Query
	Right Query
}

func (Or) isQuery() {}

func (o Or) String() string {
	return fmt.Sprintf("(%s OR %s)", o.Left, o.Right)
}

// Not excludes documents matching the inner query. On its own it selects
// nothing; the compiler always pairs it with MatchAll under an And.
type Not struct {
	Inner Query
}

func (Not) isQuery() {}

func (n Not) String() string {
	return fmt.Sprintf("NOT %s", n.Inner)
}

// MatchAll matches every document.
type MatchAll struct{}

func (MatchAll) isQuery() {}

func (MatchAll) String() string { return "*" }

// FoldOr combines queries into a left-folded disjunction. A single query
// is returned as-is, without an Or wrapper.
func FoldOr(queries []Query) Query {
	if len(queries) == 0 {
		return nil
	}
	out := queries[0]
	for _, q := range queries[1:] {
		out = Or{Left: out, Right: q}
	}
	return out
}

// Dump renders a query as an indented tree, for explain output.
func Dump(q Query) string {
	var b strings.Builder
	dump(&b, q, 0)
	return b.String()
}

func dump(b *strings.Builder, q Query, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v := q.(type) {
	case And:
		fmt.Fprintf(b, "%sAND\n", indent)
		dump(b, v.Left, depth+1)
		dump(b, v.Right, depth+1)
	case Or:
		fmt.Fprintf(b, "%sOR\n", indent)
		dump(b, v.Left, depth+1)
		dump(b, v.Right, depth+1)
	case Not:
		fmt.Fprintf(b, "%sNOT\n", indent)
		dump(b, v.Inner, depth+1)
	default:
		fmt.Fprintf(b, "%s%s\n", indent, q)
	}
}
