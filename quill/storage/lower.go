package storage

import (
	"fmt"
	"strings"

	"github.com/quillsearch/quill/quill/backend"
	"github.com/quillsearch/quill/quill/storage/sqlbuilder"
)

// TextMatcher builds the engine-specific CTE body for a single-field text
// match; everything else lowers the same way on every SQL engine.
type TextMatcher interface {
	MatchSQL(b *sqlbuilder.Builder, t backend.Term) (string, error)
}

// LowerQuery walks a backend query bottom-up, emitting one CTE per node:
// And becomes INTERSECT, Or becomes UNION, Not becomes EXCEPT against
// the notes table, and ranges probe the field_date table.
func LowerQuery(b *sqlbuilder.Builder, m TextMatcher, q backend.Query) (*Lowered, error) {
	l := &lowerer{b: b, m: m}
	result, err := l.lower(q)
	if err != nil {
		return nil, err
	}
	return &Lowered{CTEs: l.ctes, ResultCTE: result, ExplainSteps: l.steps}, nil
}

type lowerer struct {
	b     *sqlbuilder.Builder
	m     TextMatcher
	ctes  []CTE
	steps []string
	n     int
}

func (l *lowerer) next() string {
	name := fmt.Sprintf("cte_%d", l.n)
	l.n++
	return name
}

func (l *lowerer) emit(sqlBody, step string) string {
	name := l.next()
	l.ctes = append(l.ctes, CTE{Name: name, SQL: sqlBody})
	l.steps = append(l.steps, step)
	return name
}

func (l *lowerer) lower(q backend.Query) (string, error) {
	switch v := q.(type) {
	case backend.Term:
		body, err := l.m.MatchSQL(l.b, v)
		if err != nil {
			return "", err
		}
		return l.emit(body, fmt.Sprintf("MATCH %s", v)), nil

	case backend.Range:
		var conds []string
		conds = append(conds, fmt.Sprintf("field = %s", l.b.Arg(v.Field)))
		if c, ok := boundCond("value", v.Lower, true, l.b); ok {
			conds = append(conds, c)
		}
		if c, ok := boundCond("value", v.Upper, false, l.b); ok {
			conds = append(conds, c)
		}
		body := fmt.Sprintf("SELECT note_id FROM field_date WHERE %s", strings.Join(conds, " AND "))
		return l.emit(body, fmt.Sprintf("RANGE %s", v)), nil

	case backend.And:
		left, err := l.lower(v.Left)
		if err != nil {
			return "", err
		}
		right, err := l.lower(v.Right)
		if err != nil {
			return "", err
		}
		body := fmt.Sprintf("SELECT note_id FROM %s INTERSECT SELECT note_id FROM %s", left, right)
		return l.emit(body, fmt.Sprintf("INTERSECT %s AND %s", left, right)), nil

	case backend.Or:
		left, err := l.lower(v.Left)
		if err != nil {
			return "", err
		}
		right, err := l.lower(v.Right)
		if err != nil {
			return "", err
		}
		body := fmt.Sprintf("SELECT note_id FROM %s UNION SELECT note_id FROM %s", left, right)
		return l.emit(body, fmt.Sprintf("UNION %s OR %s", left, right)), nil

	case backend.Not:
		inner, err := l.lower(v.Inner)
		if err != nil {
			return "", err
		}
		body := fmt.Sprintf("SELECT id AS note_id FROM notes EXCEPT SELECT note_id FROM %s", inner)
		return l.emit(body, fmt.Sprintf("EXCEPT NOT %s", inner)), nil

	case backend.MatchAll:
		return l.emit("SELECT id AS note_id FROM notes", "ALL"), nil

	default:
		return "", fmt.Errorf("unknown query type: %T", q)
	}
}

func boundCond(col string, bd backend.Bound, lower bool, b *sqlbuilder.Builder) (string, bool) {
	var op string
	switch bd.Kind {
	case backend.Included:
		op = "<="
		if lower {
			op = ">="
		}
	case backend.Excluded:
		op = "<"
		if lower {
			op = ">"
		}
	default:
		return "", false
	}
	return fmt.Sprintf("%s %s %s", col, op, b.Arg(bd.Value)), true
}

// BuildSearchSQL assembles the final statement: the lowered CTE chain
// joined back to the notes table, newest first. Callers pass limit+1 to
// detect whether more results remain.
func BuildSearchSQL(lowered *Lowered, b *sqlbuilder.Builder, limitPlusOne int) string {
	var cteParts []string
	for _, cte := range lowered.CTEs {
		cteParts = append(cteParts, fmt.Sprintf("%s AS (%s)", cte.Name, cte.SQL))
	}
	var withClause string
	if len(cteParts) > 0 {
		withClause = fmt.Sprintf("WITH %s ", strings.Join(cteParts, ", "))
	}
	return fmt.Sprintf(
		"%sSELECT n.note_id, n.data_json, n.created_at, n.updated_at FROM notes n JOIN %s r ON n.id = r.note_id ORDER BY n.updated_at DESC, n.id DESC LIMIT %s",
		withClause, lowered.ResultCTE, b.Arg(limitPlusOne),
	)
}
