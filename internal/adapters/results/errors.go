package results

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds for results errors.
var (
	ErrUnauthorized = errors.New("results API rejected the key")
	ErrNotFound     = errors.New("results API resource not found")
	ErrNoTeam       = errors.New("team key is not configured")
)

// APIError is a non-200 answer from the results API.
type APIError struct {
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("results API %s: status %d: %s", e.Path, e.Status, e.Body)
}

// Is lets callers match on the sentinel kinds.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}
