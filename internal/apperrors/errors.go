// Package apperrors classifies failures so handlers can map them to
// distinct externally-visible statuses instead of generic 500s.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind is the failure taxonomy of the core.
type Kind int

const (
	// KindNotFound: task/approval/user/team missing. Terminal.
	KindNotFound Kind = iota + 1
	// KindInvalidState: operation conflicts with current stored state
	// (approval already resolved, team empty, task not in team). Terminal.
	KindInvalidState
	// KindUnauthorized: actor lacks the role or team scope. Terminal.
	KindUnauthorized
	// KindExternalService: model-assisted recommender unreachable or
	// returned garbage. Recoverable where a fallback exists.
	KindExternalService
	// KindTransient: transaction timeout or conflict; safe to retry.
	KindTransient
)

// Error carries a kind plus a client-safe message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or 0 when err carries no kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsInvalidState(err error) bool { return KindOf(err) == KindInvalidState }
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsExternal(err error) bool     { return KindOf(err) == KindExternalService }
func IsTransient(err error) bool    { return KindOf(err) == KindTransient }
