// Package errors adds stack-carrying wrappers and out-of-band error reporting
// on top of the standard errors package.
package errors

import (
	stderrors "errors"

	pkgerrors "github.com/pkg/errors"
)

func New(msg string) error {
	return pkgerrors.New(msg)
}

func Errorf(format string, args ...interface{}) error {
	return pkgerrors.Errorf(format, args...)
}

// Wrap returns nil when err is nil.
func Wrap(err error, msg string) error {
	return pkgerrors.Wrap(err, msg)
}

func Wrapf(err error, format string, args ...interface{}) error {
	return pkgerrors.Wrapf(err, format, args...)
}

func WithStack(err error) error {
	return pkgerrors.WithStack(err)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// WrapAndReport wraps err and sends it to the registered reporters.
func WrapAndReport(err error, msg string) error {
	if err == nil {
		return nil
	}
	wrapped := pkgerrors.Wrap(err, msg)
	report(wrapped)
	return wrapped
}

// Report sends err to the registered reporters without altering it.
func Report(err error) {
	report(err)
}
