package quill

import "time"

// Note is one document of the personal corpus. Date is a YYYY-MM-DD
// calendar date.
type Note struct {
	ID       string   `json:"id"`
	Type     string   `json:"type,omitempty"`
	Category string   `json:"category,omitempty"`
	Title    string   `json:"title,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Status   string   `json:"status,omitempty"`
	Body     string   `json:"body,omitempty"`
	Filename string   `json:"filename,omitempty"`
	Date     string   `json:"date,omitempty"`
}

// IndexOptions configures index behavior.
type IndexOptions struct {
	Now func() time.Time
}

// DefaultIndexOptions returns sensible defaults.
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{Now: time.Now}
}

// SearchOptions configures a search operation.
type SearchOptions struct {
	Limit   int
	Explain bool
}

// SearchResult is the result of a search operation, newest note first.
type SearchResult struct {
	Notes        []Note
	HasMore      bool
	ExplainQuery string
	ExplainSQL   string
	ExplainSteps []string
}

// DefaultSearchLimit caps result pages when the caller does not ask for
// an explicit limit.
const DefaultSearchLimit = 20
