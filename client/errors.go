package client

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Configuration errors, surfaced when building a request, never through a
// Completion callback.
var (
	// ErrOperationIDRequired is returned when a persisted-query attempt is
	// requested for an operation without a stable identifier.
	ErrOperationIDRequired = errors.New("persisted queries require an operation id")

	// ErrEndpointRequired is returned by NewClient when no endpoint is given.
	ErrEndpointRequired = errors.New("graphql endpoint is required")
)

// HTTPError is the outcome of an attempt that reached the server but came
// back with a non-2xx status. The raw body and status are kept for
// diagnostics.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("received error response %q: %s", e.Status, bodyText(e.Body))
}

// InvalidResponseError is the outcome of a 2xx attempt whose body was empty
// or did not decode as a JSON object.
type InvalidResponseError struct {
	Body []byte
}

func (e *InvalidResponseError) Error() string {
	if len(e.Body) == 0 {
		return "invalid response: empty body"
	}

	return fmt.Sprintf("invalid response: not a JSON object: %s", bodyText(e.Body))
}

// ProtocolViolationError reports a collaborator handing back neither a
// response nor an error. The underlying HTTP client breaks its contract if
// this ever surfaces.
type ProtocolViolationError struct{}

func (e *ProtocolViolationError) Error() string {
	return "protocol violation: http client returned no response and no error"
}

func bodyText(body []byte) string {
	if len(body) == 0 {
		return "Empty response body"
	}

	if !utf8.Valid(body) {
		return "Unreadable response body"
	}

	return fmt.Sprintf("%.1000s", body)
}
