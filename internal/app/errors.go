package app

import (
	"errors"
	"fmt"
)

// Exit codes of the ecal binary.
const (
	exitOK       = 0
	exitGeneric  = 1
	exitUsage    = 2
	exitReadOnly = 3
	exitNotFound = 4
	exitBackend  = 5
)

// AppError attaches an exit code to an error. Printed marks errors whose
// message already went to stderr, so the top level does not repeat it.
type AppError struct {
	Code    int
	Err     error
	Printed bool
}

func (e AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func Wrap(code int, err error) error {
	if err == nil {
		return nil
	}
	return AppError{Code: code, Err: err}
}

func WrapPrinted(code int, err error) error {
	if err == nil {
		return nil
	}
	return AppError{Code: code, Err: err, Printed: true}
}

// ExitCode resolves err to the process exit code: the innermost
// AppError's code, exitGeneric for anything else.
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var e AppError
	if errors.As(err, &e) {
		return e.Code
	}
	return exitGeneric
}
