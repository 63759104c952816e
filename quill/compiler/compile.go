// Package compiler turns a parsed query expression into an engine-agnostic
// backend query, validating every referenced field against a schema.
package compiler

import (
	"fmt"

	"github.com/quillsearch/quill/quill/aql"
	"github.com/quillsearch/quill/quill/backend"
)

// FieldType is the indexing type of a schema field.
type FieldType string

const (
	FieldText FieldType = "text"
	FieldDate FieldType = "date"
)

// FieldHandle is a resolved schema field.
type FieldHandle struct {
	Name string
	Type FieldType
}

// Schema is the collaborator contract the compiler resolves fields
// against. Kept as a minimal interface here to avoid a dependency on the
// concrete schema type.
type Schema interface {
	Resolve(name string) (FieldHandle, bool)
	DefaultFields() []FieldHandle
}

// UnknownFieldError is returned when a query references a field the
// schema does not define. It aborts the whole compile; no partial query
// is produced.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field: %s", e.Field)
}

// Compile lowers an expression tree to a backend query. It is a pure
// recursive transform: the same expression and schema always produce a
// structurally equal query.
func Compile(expr aql.Expr, schema Schema) (backend.Query, error) {
	switch e := expr.(type) {
	case aql.Term:
		return compileTerm(e, schema)
	case aql.Range:
		return compileRange(e, schema)
	case aql.And:
		left, err := Compile(e.Left, schema)
		if err != nil {
			return nil, err
		}
		right, err := Compile(e.Right, schema)
		if err != nil {
			return nil, err
		}
		return backend.And{Left: left, Right: right}, nil
	case aql.Or:
		left, err := Compile(e.Left, schema)
		if err != nil {
			return nil, err
		}
		right, err := Compile(e.Right, schema)
		if err != nil {
			return nil, err
		}
		return backend.Or{Left: left, Right: right}, nil
	default:
		return nil, fmt.Errorf("unknown expression type: %T", expr)
	}
}

// compileTerm builds the match for one leaf term. A term without a field
// searches every default field; negation is distributed per default field
// before the results are OR-combined, so "-x" means
// (all AND NOT title:x) OR (all AND NOT body:x).
func compileTerm(t aql.Term, schema Schema) (backend.Query, error) {
	var fields []FieldHandle
	if t.Field == "" {
		fields = schema.DefaultFields()
	} else {
		h, ok := schema.Resolve(t.Field)
		if !ok {
			return nil, &UnknownFieldError{Field: t.Field}
		}
		fields = []FieldHandle{h}
	}

	subs := make([]backend.Query, 0, len(fields))
	for _, h := range fields {
		sub, err := leafMatch(h, t.Value, t.Phrase)
		if err != nil {
			return nil, err
		}
		if t.Negated {
			sub = negate(sub)
		}
		subs = append(subs, sub)
	}
	return backend.FoldOr(subs), nil
}

// leafMatch builds the engine query for a single field. Terms against a
// date field become an inclusive single-day range, so "date:2024-05-01"
// works as equality.
func leafMatch(h FieldHandle, value string, phrase bool) (backend.Query, error) {
	if h.Type == FieldDate {
		secs, err := DateSeconds(value)
		if err != nil {
			return nil, err
		}
		return backend.Range{
			Field: h.Name,
			Lower: backend.Bound{Kind: backend.Included, Value: secs},
			Upper: backend.Bound{Kind: backend.Included, Value: secs},
		}, nil
	}
	return backend.Term{Field: h.Name, Value: value, Phrase: phrase}, nil
}

func compileRange(r aql.Range, schema Schema) (backend.Query, error) {
	h, ok := schema.Resolve(r.Field)
	if !ok {
		return nil, &UnknownFieldError{Field: r.Field}
	}
	if h.Type != FieldDate {
		return nil, fmt.Errorf("field %s is not a date field", r.Field)
	}

	secs, err := DateSeconds(r.Value)
	if err != nil {
		return nil, err
	}

	q := backend.Range{Field: h.Name}
	switch r.Op {
	case aql.Lt:
		q.Upper = backend.Bound{Kind: backend.Excluded, Value: secs}
	case aql.Lte:
		q.Upper = backend.Bound{Kind: backend.Included, Value: secs}
	case aql.Gt:
		q.Lower = backend.Bound{Kind: backend.Excluded, Value: secs}
	case aql.Gte:
		q.Lower = backend.Bound{Kind: backend.Included, Value: secs}
	}

	if r.Negated {
		return negate(q), nil
	}
	return q, nil
}

// negate wraps a query as "everything except q". The MatchAll clause is
// what makes the exclusion yield documents at all.
func negate(q backend.Query) backend.Query {
	return backend.And{Left: backend.MatchAll{}, Right: backend.Not{Inner: q}}
}
