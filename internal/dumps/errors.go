package dumps

import (
	"errors"
	"fmt"
)

// ErrNoDump is reported when a listing page contains no dump dates.
var ErrNoDump = errors.New("dumps: no dump found")

// RetrievalError is returned when a language's listing page cannot be
// fetched.
type RetrievalError struct {
	Language string
	URL      string
	Err      error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("dumps: could not retrieve %s for %s: %v", e.URL, e.Language, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
