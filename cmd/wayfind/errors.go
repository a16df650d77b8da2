package main

import "errors"

// codedError carries a process exit code alongside the underlying error so
// commands can signal config failures and partial plans distinctly.
type codedError struct {
	code  int
	msg   string
	cause error
}

func (e *codedError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *codedError) Unwrap() error {
	return e.cause
}

// wrapExit wraps an error with an exit code and message.
func wrapExit(code int, msg string, cause error) error {
	return &codedError{code: code, msg: msg, cause: cause}
}

// asCodedError extracts a codedError from an error chain.
func asCodedError(err error, target **codedError) bool {
	return errors.As(err, target)
}
