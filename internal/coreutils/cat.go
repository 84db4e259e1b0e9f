// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"io"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/fswalk"
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "cat",
		Usage:   "cat [FILE]...",
		MinArgs: 0,
		MaxArgs: applet.Unbounded,
		Entry: applet.FileAction{
			Stdin:  true,
			Action: catAction,
		},
	})
}

func catAction(_ context.Context, inv *applet.Invocation, operand string) error {
	return withOperand(inv, operand, func(r io.Reader) error {
		if _, err := io.Copy(inv.Stdout, r); err != nil {
			return fswalk.NewIOError("read", operand, err)
		}
		return nil
	})
}
