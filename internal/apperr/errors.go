// Package apperr defines the error kinds returned by the command and query
// services. Callers match kinds with errors.Is and read the user-facing
// message from Error().
package apperr

import "errors"

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateResource  = errors.New("duplicate resource")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPersistence        = errors.New("persistence error")
)

// Error pairs a kind with a message that is safe to show to API clients.
// Err, when set, is the underlying cause and is never shown.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or nil if err carries none.
func KindOf(err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return nil
}
