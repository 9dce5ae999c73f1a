// Package apperr holds the error kinds surfaced by the service layer.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindAlreadyReviewed Kind = "already_reviewed"
	KindConflict        Kind = "conflict"
	KindForbidden       Kind = "forbidden"
	KindRateLimited     Kind = "rate_limited"
	KindStorage         Kind = "storage"
	KindPersistence     Kind = "persistence"
)

// Sentinels for errors.Is; matching compares Kind only.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrAlreadyReviewed = &Error{Kind: KindAlreadyReviewed}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrRateLimited     = &Error{Kind: KindRateLimited}
	ErrStorage         = &Error{Kind: KindStorage}
	ErrPersistence     = &Error{Kind: KindPersistence}
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Fields maps request field names to human readable problems.
	Fields        map[string]string
	RetryAfterSec int64
	Err           error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, e.Fields[k]))
		}
		b.WriteString(" [")
		b.WriteString(strings.Join(parts, "; "))
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Kind == e.Kind
}

func Validation(op string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Op: op, Fields: fields}
}

func ValidationField(op, field, message string) *Error {
	return Validation(op, map[string]string{field: message})
}

func NotFound(op, message string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: message}
}

func AlreadyReviewed(op, currentStatus string) *Error {
	return &Error{
		Kind:    KindAlreadyReviewed,
		Op:      op,
		Message: "submission is already " + currentStatus,
		Fields:  map[string]string{"status": currentStatus},
	}
}

func Conflict(op, message string) *Error {
	return &Error{Kind: KindConflict, Op: op, Message: message}
}

func Forbidden(op, message string) *Error {
	return &Error{Kind: KindForbidden, Op: op, Message: message}
}

func RateLimited(op string, retryAfterSec int64) *Error {
	return &Error{Kind: KindRateLimited, Op: op, RetryAfterSec: retryAfterSec}
}

func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

func Persistence(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Op: op, Err: err}
}

// As extracts the first *Error in the chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
