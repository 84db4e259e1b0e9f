// SPDX-License-Identifier: MPL-2.0

package applet

import (
	"errors"
	"fmt"

	"github.com/invowk/multicall/pkg/types"
)

// ErrAppletNotFound is the sentinel error wrapped by LookupError.
var ErrAppletNotFound = errors.New("applet not found")

type (
	// UsageError reports a violated calling contract: a wrong argument count,
	// an explicit help request or an unparsable option.
	UsageError struct {
		Applet string
		Usage  string
		// Reason is an optional one-line explanation printed before the usage.
		Reason string
	}

	// LookupError reports an invocation name that matches no registered applet.
	LookupError struct {
		Name string
	}

	// ExitError makes the dispatcher exit with Code. A nil Err means the
	// failure has already been reported and nothing more is printed.
	ExitError struct {
		Code types.ExitCode
		Err  error
	}
)

// Error implements the error interface.
func (e *UsageError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "usage: " + e.Usage
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	return fmt.Sprintf("called as %s: %s", e.Name, ErrAppletNotFound)
}

// Unwrap returns ErrAppletNotFound for errors.Is detection.
func (e *LookupError) Unwrap() error { return ErrAppletNotFound }

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// Failure returns a silent ExitError with status 1, for applets that have
// already reported their diagnostics.
func Failure() error {
	return &ExitError{Code: 1}
}
