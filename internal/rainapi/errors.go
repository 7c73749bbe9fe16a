package rainapi

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the API key was rejected. Terminal for the page
	// that hit it; there is nothing the visitor can do.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound means the reservation or client does not exist.
	ErrNotFound = errors.New("not found")
)

// StatusError is any other non-success response. Callers treat it as
// recoverable: log it, keep state, let the visitor retry.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rainapi: unexpected response status=%d body=%s", e.Status, e.Body)
}
