package llm

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse means the vendor returned a success status but no usable
// text payload.
var ErrEmptyResponse = errors.New("provider returned empty response")

// ErrTimeout means the search-augmented vendor exceeded its call deadline.
var ErrTimeout = errors.New("provider call timed out")

// ProviderError is a non-2xx HTTP response from a vendor endpoint.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error: status %d: %s", e.Provider, e.StatusCode, e.Message)
}
