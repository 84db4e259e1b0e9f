// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"io"
	"os"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/fswalk"

	"golang.org/x/exp/constraints"
)

// openOperand opens an input operand. StdinOperand names the invocation's
// standard input, which is never closed.
func openOperand(inv *applet.Invocation, operand string) (io.ReadCloser, error) {
	if operand == applet.StdinOperand {
		return io.NopCloser(inv.Stdin), nil
	}
	f, err := os.Open(inv.Path(operand))
	if err != nil {
		return nil, fswalk.NewIOError("open", operand, err)
	}
	return f, nil
}

// withOperand runs fn on an opened operand and closes it afterwards.
// A close failure is returned when fn succeeded.
func withOperand(inv *applet.Invocation, operand string, fn func(r io.Reader) error) (err error) {
	rc, err := openOperand(inv, operand)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = fswalk.NewIOError("close", operand, closeErr)
		}
	}()

	return fn(rc)
}

// walkOperands walks every operand with opts, reporting failures through
// the invocation. Failures are printed as they happen unless the invocation
// asks to complain after the traversal. Any failure yields applet.Failure.
func walkOperands(ctx context.Context, inv *applet.Invocation, operands []string, opts fswalk.Options) error {
	opts.Dir = inv.Dir
	opts.Logger = inv.Logger
	if !inv.ComplainAfterTraversal {
		opts.OnError = inv.Report
	}

	failed := false
	for _, operand := range operands {
		err := fswalk.Walk(ctx, operand, opts)
		if err == nil {
			continue
		}
		failed = true
		if inv.ComplainAfterTraversal {
			fswalk.Each(err, inv.Report)
		}
		if ctx.Err() != nil {
			break
		}
	}
	if failed {
		return applet.Failure()
	}
	return nil
}

// blockCount limits kilobytes to the 64-bit widths stat and statfs report,
// where 1024 is representable.
type blockCount interface {
	constraints.Integer
	~int64 | ~uint64
}

// kilobytes converts count units of size bytes to 1024-byte units.
func kilobytes[T blockCount](count, size T) T {
	return count * size / 1024
}
