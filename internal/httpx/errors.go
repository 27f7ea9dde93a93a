// Package httpx holds the gin middleware and the API error type shared by
// every handler.
package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an API error. Every Error carries exactly one.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindRetryLater   Kind = "retry_later"
	KindInternal     Kind = "internal"
)

// Error is the single error shape handlers return to clients. The Msg is
// what the caller sees; internal detail stays in the log.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func E(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

func (e *Error) status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindRetryLater:
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}

// WriteError maps err onto a JSON {"error": ...} response. Errors that are
// not *Error are treated as internal and the caller only sees a generic
// message.
func WriteError(c *gin.Context, err error) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.status(), gin.H{"error": apiErr.Msg})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
