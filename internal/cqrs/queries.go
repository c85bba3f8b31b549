package cqrs

// ---------- Book queries ----------

// ListBooksQuery holds the raw query-string values; parsing and defaults
// are applied by the query service.
type ListBooksQuery struct {
	Limit   string
	Page    string
	Keyword string
}

// GetBookQuery fetches a single book by ID.
type GetBookQuery struct {
	BookID string
}
