package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTimestamp means no parse strategy matched the input text.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrInvalidCoordinate means lat/lon was not numeric or out of range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrAllEndpointsFailed means none of the three weather endpoints
	// returned data for a point. Only a row-level error when the enricher
	// is configured to require data; by default the row is kept with an
	// all-null observation and a warning.
	ErrAllEndpointsFailed = errors.New("all weather endpoints failed")
)

// EndpointError records a single endpoint failure. Non-fatal: only that
// endpoint's fields are nulled, the other two calls proceed.
type EndpointError struct {
	Endpoint string // "forecast", "marine", or "ocean"
	Err      error
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("%s endpoint: %v", e.Endpoint, e.Err)
}

func (e *EndpointError) Unwrap() error { return e.Err }
