package transport

import (
	"errors"
	"fmt"
)

// Category classifies a transport-level failure, independent of which
// concrete transport (stdio, HTTP+SSE) produced it.
type Category string

const (
	// CategoryNetwork covers I/O or connectivity failures: pipe closed,
	// connection refused, read EOF, child process exited.
	CategoryNetwork Category = "network"
	// CategoryTimeout covers read/poll/request deadlines exceeded.
	CategoryTimeout Category = "timeout"
	// CategoryProtocol covers framing violations and malformed JSON at a
	// frame boundary.
	CategoryProtocol Category = "protocol"
	// CategoryHTTPStatus covers a non-2xx HTTP response that the retry
	// policy declined to retry.
	CategoryHTTPStatus Category = "http_status"
)

// Error is a categorized transport-layer failure. Callers distinguish
// categories with errors.As and the Is* helpers rather than string
// matching.
type Error struct {
	Category Category
	Op       string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + string(e.Category)
	}
	return e.Op + ": " + string(e.Category) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// NewNetworkError wraps err as a CategoryNetwork transport Error.
func NewNetworkError(op string, err error) *Error {
	return &Error{Category: CategoryNetwork, Op: op, Err: err}
}

// NewTimeoutError wraps err as a CategoryTimeout transport Error.
func NewTimeoutError(op string, err error) *Error {
	return &Error{Category: CategoryTimeout, Op: op, Err: err}
}

// NewProtocolError wraps err as a CategoryProtocol transport Error.
func NewProtocolError(op string, err error) *Error {
	return &Error{Category: CategoryProtocol, Op: op, Err: err}
}

// IsTimeout reports whether err is, or wraps, a CategoryTimeout Error.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Category == CategoryTimeout
}

// IsNetwork reports whether err is, or wraps, a CategoryNetwork Error.
func IsNetwork(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Category == CategoryNetwork
}

// IsProtocol reports whether err is, or wraps, a CategoryProtocol Error.
func IsProtocol(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Category == CategoryProtocol
}

// HTTPStatusError is a non-2xx HTTP response the retry policy declined to
// retry, carrying the status code and a body snippet for diagnostics.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// NewHTTPStatusError builds an HTTPStatusError, truncating body to a short
// diagnostic snippet.
func NewHTTPStatusError(statusCode int, body string) *HTTPStatusError {
	const maxSnippet = 512
	if len(body) > maxSnippet {
		body = body[:maxSnippet]
	}
	return &HTTPStatusError{StatusCode: statusCode, Body: body}
}

// IsHTTPStatus reports whether err is, or wraps, an HTTPStatusError.
func IsHTTPStatus(err error) bool {
	var e *HTTPStatusError
	return errors.As(err, &e)
}
