// Package apperr holds the error taxonomy shared by the engine, the stores and
// the HTTP layer. Errors are built with cockroachdb/errors and marked with one
// of the sentinels below so callers can branch with errors.Is.
package apperr

import (
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrRender           = errors.New("render error")
	ErrDatabase         = errors.New("database error")
	ErrStorage          = errors.New("storage error")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInternal         = errors.New("internal error")
)

var statusCodes = []struct {
	ref    error
	status int
}{
	{ErrValidation, http.StatusBadRequest},
	{ErrInvalidOperation, http.StatusBadRequest},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrNotFound, http.StatusNotFound},
	{ErrConflict, http.StatusConflict},
	{ErrRender, http.StatusInternalServerError},
	{ErrDatabase, http.StatusInternalServerError},
	{ErrStorage, http.StatusBadGateway},
	{ErrInternal, http.StatusInternalServerError},
}

// Builder chains context onto an error. Mark must be the last call.
type Builder struct {
	err error
}

// New starts a chain from a fresh message.
func New(msg string) *Builder {
	return &Builder{err: errors.New(msg)}
}

// Newf starts a chain from a formatted message.
func Newf(format string, args ...any) *Builder {
	return &Builder{err: errors.Newf(format, args...)}
}

// Wrap starts a chain from an existing error.
func Wrap(err error) *Builder {
	return &Builder{err: err}
}

// WithMessage adds internal context that is never shown to API clients.
func (b *Builder) WithMessage(msg string) *Builder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

// WithMessagef is WithMessage with formatting.
func (b *Builder) WithMessagef(format string, args ...any) *Builder {
	b.err = errors.WithMessagef(b.err, format, args...)
	return b
}

// WithHint adds the message shown to API clients.
func (b *Builder) WithHint(hint string) *Builder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

// WithHintf is WithHint with formatting.
func (b *Builder) WithHintf(format string, args ...any) *Builder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// Mark tags the error with a sentinel and returns it.
func (b *Builder) Mark(reference error) error {
	return errors.Mark(b.err, reference)
}

func IsValidation(err error) bool       { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool         { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool         { return errors.Is(err, ErrConflict) }
func IsInvalidOperation(err error) bool { return errors.Is(err, ErrInvalidOperation) }
func IsRender(err error) bool           { return errors.Is(err, ErrRender) }

// HTTPStatus maps an error onto a response status. Unmarked errors are 500.
func HTTPStatus(err error) int {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.ref) {
			return sc.status
		}
	}
	return http.StatusInternalServerError
}

// Hint returns the first non-empty hint attached to err, or fallback.
func Hint(err error, fallback string) string {
	for _, h := range errors.GetAllHints(err) {
		if h = strings.TrimSpace(h); h != "" {
			return h
		}
	}
	return fallback
}
