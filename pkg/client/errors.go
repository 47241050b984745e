package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrTransport indicates a call to the backend failed.
var ErrTransport = errors.New("transport error")

// TransportError describes a failed backend call: either the request never
// completed (Err set) or the backend answered with a non-2xx status.
type TransportError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	Detail     string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s %s: %d %s: %s", e.Op, e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	default:
		return fmt.Sprintf("%s: %s %s: %d %s", e.Op, e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// IsNotFound reports whether err is a 404 answer from the backend.
func IsNotFound(err error) bool {
	var te *TransportError

	return errors.As(err, &te) && te.StatusCode == http.StatusNotFound
}

// StatusCode returns the HTTP status of a TransportError, or zero.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}

	return 0
}
