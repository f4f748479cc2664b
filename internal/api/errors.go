package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError is a non-2xx backend response.
type StatusError struct {
	Endpoint string
	Method   string
	Status   int

	// Message is the server-supplied text from an {"error": ...} or
	// {"message": ...} body, empty when the body carried none.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Endpoint, e.Status)
}

// StatusOf returns the HTTP status carried by err, or 0 when err did not come
// from a backend response (network failure, decoding, cancellation).
func StatusOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}
	return 0
}

// ServerMessage returns the server-supplied message carried by err, if any.
func ServerMessage(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Message
	}
	return ""
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func newStatusError(cl call, resp *http.Response) *StatusError {
	statusErr := &StatusError{
		Endpoint: cl.endpoint,
		Method:   cl.method,
		Status:   resp.StatusCode,
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return statusErr
	}
	var body errorBody
	if json.Unmarshal(raw, &body) == nil {
		statusErr.Message = body.Error
		if statusErr.Message == "" {
			statusErr.Message = body.Message
		}
		return statusErr
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		statusErr.Message = strings.TrimSpace(string(raw))
	}
	return statusErr
}
