// SPDX-License-Identifier: MPL-2.0

package fswalk

import (
	"errors"
	"fmt"
	"os"
)

// IOError is a system call failure on one entry.
type IOError struct {
	// Op is the failed operation ("stat", "lstat", "opendir", or the
	// operation named by a callback).
	Op string
	// Path is the entry path as seen by the walk.
	Path string
	// Err is the underlying error, usually a syscall.Errno.
	Err error
}

// Error renders "<path>: <description>".
func (e *IOError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error { return e.Err }

// NewIOError wraps err for path. An *os.PathError or *os.LinkError is
// unwrapped so the message names the path only once.
func NewIOError(op, path string, err error) *IOError {
	var pathErr *os.PathError
	var linkErr *os.LinkError
	switch {
	case errors.As(err, &pathErr):
		err = pathErr.Err
	case errors.As(err, &linkErr):
		err = linkErr.Err
	}
	return &IOError{Op: op, Path: path, Err: err}
}

// Errors aggregates the failures of one walk, in visit order.
type Errors struct {
	errs []error
}

func (e *Errors) add(err error) {
	e.errs = append(e.errs, err)
}

// Len returns the number of collected failures.
func (e *Errors) Len() int { return len(e.errs) }

// Errors returns the collected failures.
func (e *Errors) Errors() []error { return e.errs }

// Error summarizes the failures, ending with the last one.
func (e *Errors) Error() string {
	switch len(e.errs) {
	case 0:
		return "no errors"
	case 1:
		return e.errs[0].Error()
	default:
		return fmt.Sprintf("%d errors: last error: %v", len(e.errs), e.errs[len(e.errs)-1])
	}
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *Errors) Unwrap() []error { return e.errs }

func (e *Errors) err() error {
	if len(e.errs) == 0 {
		return nil
	}
	return e
}

// Each calls fn for every failure aggregated in err. A non-aggregate err is
// passed to fn as is. Used to report after the traversal.
func Each(err error, fn func(error)) {
	if err == nil {
		return
	}
	var agg *Errors
	if errors.As(err, &agg) {
		for _, e := range agg.errs {
			fn(e)
		}
		return
	}
	fn(err)
}
