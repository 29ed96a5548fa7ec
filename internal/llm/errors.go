package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrRateLimit is a 429 from the provider.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse is a completion that is empty, not JSON when JSON was
// asked for, or does not satisfy the request schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

func invalid(content json.RawMessage, format string, args ...any) error {
	return &ErrInvalidResponse{Content: content, Err: fmt.Errorf(format, args...)}
}

// ErrProviderUnavailable covers transport failures and 5xx answers.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "LLM provider unavailable"
	}
	return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded is a structured response cut off at MaxTokens.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// ErrUnauthorized is a rejected API key.
type ErrUnauthorized struct {
	Err error
}

func (e *ErrUnauthorized) Error() string {
	return fmt.Sprintf("LLM provider rejected credentials: %v", e.Err)
}

func (e *ErrUnauthorized) Unwrap() error { return e.Err }

// classifyStatus maps an SDK error carrying an HTTP status onto the error
// types above. Status 0 means no response was received.
func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{Err: err}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &ErrUnauthorized{Err: err}
	default:
		return &ErrProviderUnavailable{Err: err}
	}
}

// IsTransient reports whether err is worth another attempt. Cancellation,
// truncation and bad credentials are final.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var (
		maxTok *ErrMaxTokensExceeded
		unauth *ErrUnauthorized
	)
	return !errors.As(err, &maxTok) && !errors.As(err, &unauth)
}
