package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Error is a non-2xx response. Backend errors carry
// {"error": code, "message": text, "details": any}.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" && e.Code != msg {
		return e.Code + ": " + msg
	}
	return msg
}

func newError(status int, body []byte) *Error {
	e := &Error{Status: status}
	var decoded struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
		Details any    `json:"details"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil {
		switch v := decoded.Error.(type) {
		case string:
			e.Code = v
		case map[string]any:
			if s, ok := v["error"].(string); ok {
				e.Code = s
			}
			if s, ok := v["message"].(string); ok && decoded.Message == "" {
				decoded.Message = s
			}
		}
		e.Message = decoded.Message
		e.Details = decoded.Details
		return e
	}
	e.Message = strings.TrimSpace(string(body))
	if len(e.Message) > 200 {
		e.Message = e.Message[:200] + "..."
	}
	return e
}

// StatusOf returns the HTTP status of an *Error in err's chain, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }
