package api

import (
	"errors"
	"fmt"
)

// APIError is a non-2xx response with the server's error message attached.
type APIError struct {
	StatusCode int
	Msg        string
}

func (e *APIError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Msg)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// ErrContract is wrapped by errors returned when a response payload does not
// match the canonical wire schema.
var ErrContract = errors.New("backend contract violation")

// Message extracts a user-facing string from any error produced by the client.
// Server-reported messages win; everything else collapses to a generic fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Msg != "" {
		return apiErr.Msg
	}
	return fallback
}
