// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"os"
	"path"
	"strings"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/fswalk"

	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "mkdir",
		Usage:   "mkdir [-p] [-m MODE] DIRECTORY...",
		MinArgs: 1,
		MaxArgs: applet.Unbounded,
		Entry: applet.FileAction{
			Options: func(fs *pflag.FlagSet, inv *applet.Invocation) {
				fs.BoolVarP(&inv.MakeParents, "parents", "p", false, "no error if existing, make parent directories as needed")
				fs.VarP(&modeValue{and: &inv.ModeAnd, or: &inv.ModeOr}, "mode", "m", "set permission bits, not a=rwx - umask")
			},
			Action: mkdirAction,
		},
	})
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "rmdir",
		Usage:   "rmdir [-p] DIRECTORY...",
		MinArgs: 1,
		MaxArgs: applet.Unbounded,
		Entry: applet.FileAction{
			Options: func(fs *pflag.FlagSet, inv *applet.Invocation) {
				fs.BoolVarP(&inv.MakeParents, "parents", "p", false, "remove DIRECTORY and its ancestors")
			},
			Action: rmdirAction,
		},
	})
}

func mkdirAction(_ context.Context, inv *applet.Invocation, operand string) error {
	perm := 0o777&inv.ModeAnd | inv.ModeOr
	explicit := inv.ModeAnd != ^uint32(0)
	p := inv.Path(operand)

	if inv.MakeParents {
		if err := os.MkdirAll(p, os.FileMode(perm&0o777)); err != nil {
			return fswalk.NewIOError("mkdir", operand, err)
		}
	} else if err := unix.Mkdir(p, perm); err != nil {
		return fswalk.NewIOError("mkdir", operand, err)
	}

	// The umask does not apply to an explicit mode.
	if explicit {
		if err := unix.Chmod(p, perm); err != nil {
			return fswalk.NewIOError("chmod", operand, err)
		}
	}
	return nil
}

func rmdirAction(_ context.Context, inv *applet.Invocation, operand string) error {
	for {
		if err := unix.Rmdir(inv.Path(operand)); err != nil {
			return fswalk.NewIOError("rmdir", operand, err)
		}
		if !inv.MakeParents {
			return nil
		}
		parent := path.Dir(strings.TrimRight(operand, "/"))
		if parent == "." || parent == "/" || parent == operand {
			return nil
		}
		operand = parent
	}
}
