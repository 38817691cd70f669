package client

import (
	"errors"
	"fmt"
)

// TransportError is a failure to reach the server at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("server responded with status %d: %s", e.StatusCode, e.Body)
}

// LogicalFailure is a 2xx response whose body is a message instead of a
// result. The message is meant for the user.
type LogicalFailure struct {
	Message string
}

func (e *LogicalFailure) Error() string {
	return e.Message
}

var (
	ErrUnexpectedResponse = errors.New("unexpected response")

	ErrInvalidTransition  = errors.New("action not allowed in the request's current status")
	ErrBusy               = errors.New("another action on this request is still running")
	ErrCancelled          = errors.New("cancelled")
	ErrForbidden          = errors.New("action not permitted for this user")
	ErrNotInStore         = errors.New("request is not loaded")
	ErrNoShortlistees     = errors.New("no shortlisted CSR to assign")
	ErrSuperseded         = errors.New("load superseded by a newer one")
	ErrPaginationDisabled = errors.New("search results cannot be paginated")
)

// UserMessage renders err the way it should be shown to a user. Logical
// failures are returned verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		logical   *LogicalFailure
		httpErr   *HTTPError
		transport *TransportError
	)

	switch {
	case errors.As(err, &logical):
		return logical.Message
	case errors.As(err, &httpErr):
		if httpErr.Body != "" {
			return fmt.Sprintf("Server error (%d): %s", httpErr.StatusCode, httpErr.Body)
		}
		return fmt.Sprintf("Server error (%d)", httpErr.StatusCode)
	case errors.As(err, &transport):
		return "Network error: " + transport.Err.Error()
	case errors.Is(err, ErrUnexpectedResponse):
		return "Unexpected response from server"
	}

	return err.Error()
}
