// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/fswalk"

	"github.com/spf13/pflag"
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "touch",
		Usage:   "touch [-c] FILE...",
		MinArgs: 1,
		MaxArgs: applet.Unbounded,
		Entry: applet.FileAction{
			Options: func(fs *pflag.FlagSet, inv *applet.Invocation) {
				fs.BoolVarP(&inv.Force, "no-create", "c", false, "do not create any files")
			},
			Action: touchAction,
		},
	})
}

// touchAction sets the access and modification times to now, creating the
// file unless -c was given.
func touchAction(_ context.Context, inv *applet.Invocation, operand string) error {
	p := inv.Path(operand)
	now := time.Now()
	err := os.Chtimes(p, now, now)
	if !errors.Is(err, fs.ErrNotExist) {
		if err != nil {
			return fswalk.NewIOError("utimes", operand, err)
		}
		return nil
	}
	if inv.Force {
		return nil
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE, 0o666)
	if err != nil {
		return fswalk.NewIOError("create", operand, err)
	}
	if err := f.Close(); err != nil {
		return fswalk.NewIOError("close", operand, err)
	}
	return nil
}
