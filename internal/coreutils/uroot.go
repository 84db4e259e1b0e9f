// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"

	"github.com/invowk/multicall/internal/applet"

	"github.com/u-root/u-root/pkg/core"
	"github.com/u-root/u-root/pkg/core/cp"
	"github.com/u-root/u-root/pkg/core/ls"
	"github.com/u-root/u-root/pkg/core/mv"
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "ls",
		Usage:   "ls [-laRhQ] [FILE]...",
		MinArgs: 0,
		MaxArgs: applet.Unbounded,
		Entry:   coreCommand(func() core.Command { return ls.New() }),
	})
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "cp",
		Usage:   "cp [-rRfnP] SOURCE... DEST",
		MinArgs: 2,
		MaxArgs: applet.Unbounded,
		Entry:   coreCommand(func() core.Command { return cp.New() }),
	})
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "mv",
		Usage:   "mv [-fn] SOURCE... DEST",
		MinArgs: 2,
		MaxArgs: applet.Unbounded,
		Entry:   coreCommand(func() core.Command { return mv.New() }),
	})
}

// coreCommand adapts a u-root core utility to an applet entry. The command
// parses its own options and runs in the invocation's environment.
func coreCommand(newCmd func() core.Command) applet.MainFunc {
	return func(ctx context.Context, inv *applet.Invocation, argv []string) error {
		cmd := newCmd()
		cmd.SetIO(inv.Stdin, inv.Stdout, inv.Stderr)
		cmd.SetWorkingDir(inv.Dir)
		if inv.LookupEnv != nil {
			cmd.SetLookupEnv(inv.LookupEnv)
		}
		return cmd.RunContext(ctx, argv[1:]...)
	}
}
