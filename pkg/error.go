package pkg

import (
	"fmt"
	"strings"
)

// Error is a chain of errors, innermost first. It reports every member to
// errors.Is and errors.As.
type Error []error

// MakeError flattens errs into an Error, dropping nils. The result is nil
// when no error remains.
func MakeError(errs ...error) Error {
	var e Error

	for _, err := range errs {
		if err != nil {
			e = append(e, UnwrapErrors(err)...)
		}
	}

	return e
}

// MakeErrorf constructs an Error from a formatted message.
func MakeErrorf(format string, args ...any) Error {
	return MakeError(fmt.Errorf(format, args...))
}

// Err returns e as an error, or nil when e is empty.
func (e Error) Err() error {
	if len(e) == 0 {
		return nil
	}

	return e
}

// Error joins the messages of the chain with "; ".
func (e Error) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}

	return strings.Join(msgs, "; ")
}

// Wrap appends errs to the chain.
func (e Error) Wrap(errs ...error) Error {
	return append(e, errs...)
}

// Unwrap returns the members of the chain.
func (e Error) Unwrap() []error {
	return e
}

// UnwrapErrors flattens only multi-error values (those with an
// Unwrap() []error method). Single-cause wrappers are kept whole so their
// messages and attributes survive.
func UnwrapErrors(err error) Error {
	if err == nil {
		return nil
	}

	multi, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return Error{err}
	}

	var chain Error
	for _, wrapped := range multi.Unwrap() {
		chain = append(chain, UnwrapErrors(wrapped)...)
	}

	return chain
}
