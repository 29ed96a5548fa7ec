package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries an HTTP status and a stable machine-readable code
// alongside the underlying cause.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(code, msg string) *Error {
	return New(http.StatusBadRequest, code, errors.New(msg))
}

func NotFound(code, msg string) *Error {
	return New(http.StatusNotFound, code, errors.New(msg))
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
