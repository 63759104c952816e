package aql

// Expr is a parsed query expression.
type Expr interface {
	isExpr()
}

// Term is a leaf match against a single field, or against the default
// field set when Field is empty. Phrase terms were quote-delimited and
// must match as a contiguous phrase.
type Term struct {
	Field   string // "" means the default field set
	Value   string
	Phrase  bool
	Negated bool
}

func (Term) isExpr() {}

// RangeOp is a range comparison operator.
type RangeOp int

const (
	Lt RangeOp = iota
	Lte
	Gt
	Gte
)

func (op RangeOp) String() string {
	switch op {
	case Lt:
		return "<"
	case Lte:
		return "<="
	case Gt:
		return ">"
	case Gte:
		return ">="
	default:
		return "?"
	}
}

// Range is a leaf comparison of a field against an unparsed literal,
// currently always a YYYY-MM-DD calendar date.
type Range struct {
	Field   string
	Op      RangeOp
	Value   string
	Negated bool
}

func (Range) isExpr() {}

// And is the boolean conjunction of two expressions.
type And struct {
	Left  Expr
	Right Expr
}

func (And) isExpr() {}

// Or is the boolean disjunction of two expressions.
type Or struct {
	Left  Expr
	Right Expr
}

func (Or) isExpr() {}
