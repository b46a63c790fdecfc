// Package apperr classifies failures so transport layers can decide what to
// surface. Validation, not-found and auth errors carry messages safe to show
// a caller; internal errors are logged and surfaced generically; decryption
// errors are recoverable and scoped to a single message.
package apperr

import "github.com/pkg/errors"

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAuth
	KindDecryption
)

type Error struct {
	kind Kind
	err  error
}

func (e *Error) Error() string { return e.err.Error() }
func (e *Error) Unwrap() error { return e.err }
func (e *Error) Kind() Kind    { return e.kind }

func New(kind Kind, msg string) error {
	return &Error{kind: kind, err: errors.New(msg)}
}

func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{kind: kind, err: errors.Errorf(format, args...)}
}

// Wrap attaches a kind to err, keeping the cause chain intact.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, err: errors.Wrap(err, msg)}
}

// KindOf reports the kind of err, walking the wrap chain. Unclassified
// errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsAuth(err error) bool       { return KindOf(err) == KindAuth }
func IsDecryption(err error) bool { return KindOf(err) == KindDecryption }
func IsInternal(err error) bool   { return KindOf(err) == KindInternal }
