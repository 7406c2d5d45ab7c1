package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// RequestError is the only failure kind returned by Client.
// Status is 0 when no HTTP response was received.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// newStatusError builds the error for a non-2xx response. The detail comes
// from the JSON body's "message" field, else the re-serialized JSON body.
func newStatusError(status int, body []byte) *RequestError {
	msg := fmt.Sprintf("Request failed (%d %s)", status, http.StatusText(status))
	if detail := errorDetail(body); detail != "" {
		msg += ": " + detail
	}
	return &RequestError{Status: status, Message: msg}
}

func errorDetail(body []byte) string {
	if len(strings.TrimSpace(string(body))) == 0 {
		return ""
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload == nil {
		return ""
	}
	if obj, ok := payload.(map[string]any); ok {
		if m, ok := obj["message"].(string); ok && m != "" {
			return m
		}
	}
	compact, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(compact)
}

func transportError(err error) *RequestError {
	return &RequestError{Message: fmt.Sprintf("Request failed: %v", err)}
}

func decodeError(status int, err error) *RequestError {
	return &RequestError{Status: status, Message: fmt.Sprintf("Invalid response (%d): %v", status, err)}
}
