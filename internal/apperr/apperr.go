package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Class partitions every remote failure into the categories the workflow
// reacts to. Read paths fall back on AccessDenied, the invoker retries only
// Server and Network, everything else is surfaced as-is.
type Class string

const (
	AccessDenied Class = "access_denied"
	NotFound     Class = "not_found"
	Validation   Class = "validation"
	Server       Class = "server"
	Network      Class = "network"
)

// Error is a classified failure. Status carries the originating HTTP status
// when there was one (0 for transport failures).
type Error struct {
	Class   Class
	Message string
	Status  int
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Class, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

func New(class Class, message string) *Error {
	return &Error{Class: class, Message: message}
}

func Newf(class Class, format string, args ...any) *Error {
	return &Error{Class: class, Message: fmt.Sprintf(format, args...)}
}

// FromStatus maps an HTTP response status to a classified error.
func FromStatus(status int, message string) *Error {
	var class Class
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		class = AccessDenied
	case status == http.StatusNotFound:
		class = NotFound
	case status >= 400 && status < 500:
		class = Validation
	default:
		class = Server
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Class: class, Message: message, Status: status}
}

// Is reports whether err is (or wraps) a classified error of the given class.
func Is(err error, class Class) bool {
	var e *Error
	return errors.As(err, &e) && e.Class == class
}

// Retryable reports whether err is worth another attempt: server-side and
// transport failures only. Client errors are terminal.
func Retryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Class == Server || e.Class == Network
}

// HTTPStatus maps an error back to a response status for the portal surface.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Class {
	case AccessDenied:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Validation:
		return http.StatusBadRequest
	case Network:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
