package aql

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseBareTerm(t *testing.T) {
	expr, err := Parse("hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	term, ok := expr.(Term)
	if !ok {
		t.Fatalf("expected Term, got %T", expr)
	}
	if term.Field != "" || term.Value != "hello" || term.Phrase || term.Negated {
		t.Errorf("expected bare term hello, got %+v", term)
	}
}

func TestParseFieldedTerm(t *testing.T) {
	expr, err := Parse("title:standup")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	term, ok := expr.(Term)
	if !ok {
		t.Fatalf("expected Term, got %T", expr)
	}
	if term.Field != "title" || term.Value != "standup" {
		t.Errorf("expected title:standup, got %+v", term)
	}
}

func TestParsePhrase(t *testing.T) {
	expr, err := Parse(`"quarterly review"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	term, ok := expr.(Term)
	if !ok {
		t.Fatalf("expected Term, got %T", expr)
	}
	if !term.Phrase || term.Value != "quarterly review" {
		t.Errorf("expected phrase 'quarterly review', got %+v", term)
	}
}

func TestParseFieldedPhrase(t *testing.T) {
	expr, err := Parse(`title:"weekly sync"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	term, ok := expr.(Term)
	if !ok {
		t.Fatalf("expected Term, got %T", expr)
	}
	if term.Field != "title" || !term.Phrase || term.Value != "weekly sync" {
		t.Errorf("expected title phrase 'weekly sync', got %+v", term)
	}
}

func TestParseEmptyPhrase(t *testing.T) {
	expr, err := Parse(`""`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	term, ok := expr.(Term)
	if !ok {
		t.Fatalf("expected Term, got %T", expr)
	}
	if !term.Phrase || term.Value != "" {
		t.Errorf("expected empty phrase, got %+v", term)
	}
}

func TestParseImplicitAndIsLeftAssociative(t *testing.T) {
	expr, err := Parse("a b c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := And{
		Left:  And{Left: Term{Value: "a"}, Right: Term{Value: "b"}},
		Right: Term{Value: "c"},
	}
	if !reflect.DeepEqual(expr, want) {
		t.Errorf("expected %+v, got %+v", want, expr)
	}
}

func TestParseExplicitAndEqualsImplicit(t *testing.T) {
	explicit, err := Parse("a AND b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	implicit, err := Parse("a b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(explicit, implicit) {
		t.Errorf("explicit AND %+v differs from juxtaposition %+v", explicit, implicit)
	}
}

func TestParseOrBindsLooserThanAnd(t *testing.T) {
	expr, err := Parse("a b OR c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Or{
		Left:  And{Left: Term{Value: "a"}, Right: Term{Value: "b"}},
		Right: Term{Value: "c"},
	}
	if !reflect.DeepEqual(expr, want) {
		t.Errorf("expected %+v, got %+v", want, expr)
	}
}

func TestParseKeywordsCaseInsensitive(t *testing.T) {
	upper, err := Parse("a OR b AND NOT c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lower, err := Parse("a or b and not c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(upper, lower) {
		t.Errorf("uppercase keywords %+v differ from lowercase %+v", upper, lower)
	}
}

func TestParseKeywordNeedsWordBoundary(t *testing.T) {
	expr, err := Parse("orange")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	term, ok := expr.(Term)
	if !ok {
		t.Fatalf("expected Term, got %T", expr)
	}
	if term.Value != "orange" {
		t.Errorf("expected bareword orange, got %+v", term)
	}

	expr, err = Parse("a ORdinary")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := expr.(Or); ok {
		t.Fatalf("ORdinary was taken as an OR keyword: %+v", expr)
	}
}

func TestParseKeywordBeforeParen(t *testing.T) {
	expr, err := Parse("a OR(b c)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orExpr, ok := expr.(Or)
	if !ok {
		t.Fatalf("expected Or, got %T", expr)
	}
	if _, ok := orExpr.Right.(And); !ok {
		t.Errorf("expected right to be And, got %T", orExpr.Right)
	}
}

func TestParseDashNegation(t *testing.T) {
	expr, err := Parse("-status:done")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	term, ok := expr.(Term)
	if !ok {
		t.Fatalf("expected Term, got %T", expr)
	}
	if term.Field != "status" || term.Value != "done" || !term.Negated {
		t.Errorf("expected negated status:done, got %+v", term)
	}
}

func TestParseNotKeywordNegation(t *testing.T) {
	dash, err := Parse("-draft")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kw, err := Parse("NOT draft")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(dash, kw) {
		t.Errorf("dash negation %+v differs from NOT %+v", dash, kw)
	}
}

func TestParseCommaListDesugarsToAnd(t *testing.T) {
	expr, err := Parse("tags:work,urgent,q3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := And{
		Left: And{
			Left:  Term{Field: "tags", Value: "work"},
			Right: Term{Field: "tags", Value: "urgent"},
		},
		Right: Term{Field: "tags", Value: "q3"},
	}
	if !reflect.DeepEqual(expr, want) {
		t.Errorf("expected %+v, got %+v", want, expr)
	}
}

func TestParseNegatedCommaListSharesFlag(t *testing.T) {
	expr, err := Parse("-tags:a,b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	andExpr, ok := expr.(And)
	if !ok {
		t.Fatalf("expected And, got %T", expr)
	}
	left, ok := andExpr.Left.(Term)
	if !ok || !left.Negated {
		t.Errorf("expected negated left term, got %+v", andExpr.Left)
	}
	right, ok := andExpr.Right.(Term)
	if !ok || !right.Negated {
		t.Errorf("expected negated right term, got %+v", andExpr.Right)
	}
}

func TestParseCommaListWithPhrases(t *testing.T) {
	expr, err := Parse(`tags:"deep work",focus`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	andExpr, ok := expr.(And)
	if !ok {
		t.Fatalf("expected And, got %T", expr)
	}
	left, ok := andExpr.Left.(Term)
	if !ok || !left.Phrase || left.Value != "deep work" {
		t.Errorf("expected phrase 'deep work', got %+v", andExpr.Left)
	}
}

func TestParseRangeOperators(t *testing.T) {
	cases := []struct {
		input string
		op    RangeOp
	}{
		{"date:>2025-01-01", Gt},
		{"date:>=2025-01-01", Gte},
		{"date:<2025-01-01", Lt},
		{"date:<=2025-01-01", Lte},
	}
	for _, tc := range cases {
		expr, err := Parse(tc.input)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.input, err)
		}
		rng, ok := expr.(Range)
		if !ok {
			t.Fatalf("%s: expected Range, got %T", tc.input, expr)
		}
		if rng.Field != "date" || rng.Op != tc.op || rng.Value != "2025-01-01" {
			t.Errorf("%s: got %+v", tc.input, rng)
		}
	}
}

func TestParseNegatedRange(t *testing.T) {
	expr, err := Parse("-date:<2024-06-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rng, ok := expr.(Range)
	if !ok {
		t.Fatalf("expected Range, got %T", expr)
	}
	if !rng.Negated || rng.Op != Lt {
		t.Errorf("expected negated date:<..., got %+v", rng)
	}
}

func TestParseRangeValueIsUnparsedLiteral(t *testing.T) {
	expr, err := Parse("-price:<=100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rng, ok := expr.(Range)
	if !ok {
		t.Fatalf("expected Range, got %T", expr)
	}
	if rng.Field != "price" || rng.Op != Lte || rng.Value != "100" || !rng.Negated {
		t.Errorf("expected negated price:<=100, got %+v", rng)
	}
}

func TestParseParenGrouping(t *testing.T) {
	expr, err := Parse("(a OR b) c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	andExpr, ok := expr.(And)
	if !ok {
		t.Fatalf("expected And, got %T", expr)
	}
	if _, ok := andExpr.Left.(Or); !ok {
		t.Errorf("expected left to be Or, got %T", andExpr.Left)
	}
}

func TestParseNestedParens(t *testing.T) {
	expr, err := Parse("((a))")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	term, ok := expr.(Term)
	if !ok {
		t.Fatalf("expected Term, got %T", expr)
	}
	if term.Value != "a" {
		t.Errorf("expected a, got %+v", term)
	}
}

func TestParseNegatedGroupIsError(t *testing.T) {
	_, err := Parse("-(a OR b)")
	assertSyntaxError(t, err, 0)
	_, err = Parse("title:x NOT (a b)")
	assertSyntaxError(t, err, 8)
}

func TestParseUnterminatedPhrase(t *testing.T) {
	_, err := Parse(`title:"abc`)
	assertSyntaxError(t, err, 6)
}

func TestParseUnclosedGroup(t *testing.T) {
	_, err := Parse("(a OR b")
	assertSyntaxError(t, err, 7)
}

func TestParseTrailingInput(t *testing.T) {
	_, err := Parse("a)")
	assertSyntaxError(t, err, 1)
}

func TestParseEmptyInput(t *testing.T) {
	_, err := Parse("")
	assertSyntaxError(t, err, 0)
	_, err = Parse("   ")
	assertSyntaxError(t, err, 3)
}

func TestParseDanglingOperators(t *testing.T) {
	for _, input := range []string{"a AND", "a OR", "NOT", "-"} {
		if _, err := Parse(input); err == nil {
			t.Errorf("%q: expected error, got none", input)
		}
	}
}

func TestParseMissingFieldValue(t *testing.T) {
	_, err := Parse("title:")
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
	_, err = Parse("date:>")
	assertSyntaxError(t, err, 6)
}

func TestParseComplexQuery(t *testing.T) {
	// type:meeting (title:standup OR tags:sync) -status:done date:>=2025-01-01
	expr, err := Parse("type:meeting (title:standup OR tags:sync) -status:done date:>=2025-01-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outer, ok := expr.(And)
	if !ok {
		t.Fatalf("expected And, got %T", expr)
	}
	rng, ok := outer.Right.(Range)
	if !ok || rng.Op != Gte {
		t.Fatalf("expected trailing range, got %+v", outer.Right)
	}
	mid, ok := outer.Left.(And)
	if !ok {
		t.Fatalf("expected And, got %T", outer.Left)
	}
	neg, ok := mid.Right.(Term)
	if !ok || !neg.Negated || neg.Field != "status" {
		t.Errorf("expected negated status term, got %+v", mid.Right)
	}
	inner, ok := mid.Left.(And)
	if !ok {
		t.Fatalf("expected And, got %T", mid.Left)
	}
	if _, ok := inner.Right.(Or); !ok {
		t.Errorf("expected grouped Or, got %T", inner.Right)
	}
}

func assertSyntaxError(t *testing.T, err error, offset int) {
	t.Helper()
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
	if serr.Offset != offset {
		t.Errorf("expected offset %d, got %d (%s)", offset, serr.Offset, serr.Message)
	}
}
