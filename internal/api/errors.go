package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches a RemoteError carrying a 404.
var ErrNotFound = errors.New("not found")

// RemoteError is any failure at the transport boundary: network error or non-2xx response.
// StatusCode is 0 when no response was received.
type RemoteError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Details    map[string]string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}
