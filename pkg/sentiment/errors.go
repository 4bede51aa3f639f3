package sentiment

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyText is returned by Predict for blank input; no request is sent.
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrEmptyBatch is returned by BatchPredict when no text is given.
	ErrEmptyBatch = errors.New("no texts provided")
)

// ProviderError reports a failed backend call: a transport failure, a
// non-success status, an error envelope, or an undecodable body.
type ProviderError struct {
	Endpoint   string
	StatusCode int // 0 when the request never got a response
	Message    string
	RequestID  string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, msg)
}

// Unwrap returns the underlying cause, if any.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// UserMessage turns an error into the short text shown to the user. Server
// supplied messages win; otherwise the status class picks a generic hint.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrEmptyText) {
		return "Please enter some text to analyze"
	}
	if errors.Is(err, ErrEmptyBatch) {
		return "Please enter some texts to analyze"
	}
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return err.Error()
	}
	if pe.Message != "" {
		return pe.Message
	}
	switch {
	case pe.StatusCode == 0:
		return "Network error. Please check your connection."
	case pe.StatusCode >= http.StatusInternalServerError:
		return "Server error. Please try again later."
	case pe.StatusCode >= http.StatusBadRequest:
		return "Invalid request. Please check your input."
	default:
		return "An error occurred. Please try again."
	}
}
