// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/utmp"
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "dutmp",
		Usage:   "dutmp [FILE]...",
		MinArgs: 0,
		MaxArgs: applet.Unbounded,
		Entry: applet.FileAction{
			Stdin:  true,
			Action: dutmpAction,
		},
	})
}

// dutmpAction dumps utmp records in pipe-delimited form.
func dutmpAction(_ context.Context, inv *applet.Invocation, operand string) error {
	return withOperand(inv, operand, func(r io.Reader) error {
		ur := utmp.NewReader(r)
		for {
			rec, err := ur.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("%s: %w", operand, err)
			}
			inv.Println(rec.String())
		}
	})
}
