package models

// SearchParams captures the inputs of a single user search. Limit is sent to
// the API unchanged.
type SearchParams struct {
	Query string
	Limit int
}
