package discovery

import "fmt"

// SearchError is returned by a Searcher that could not produce candidates.
type SearchError struct {
	Backend string
	Query   string
	Message string
	Cause   error
}

func (e *SearchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s search %q: %s: %v", e.Backend, e.Query, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s search %q: %s", e.Backend, e.Query, e.Message)
}

func (e *SearchError) Unwrap() error {
	return e.Cause
}
