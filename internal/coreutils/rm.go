// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/fswalk"

	"golang.org/x/sys/unix"
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "rm",
		Usage:   "rm [-rRf] FILE...",
		MinArgs: 1,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(rmMain),
	})
}

func rmMain(ctx context.Context, inv *applet.Invocation, argv []string) error {
	fs := inv.FlagSet()
	fs.BoolVarP(&inv.Recursive, "recursive", "r", false, "remove directories and their contents")
	fs.BoolVarP(&inv.Force, "force", "f", false, "ignore nonexistent files")
	fs.BoolP("R", "R", false, "same as -r")
	operands, err := inv.Parse(fs, argv[1:])
	if err != nil {
		return err
	}
	if r, _ := fs.GetBool("R"); r {
		inv.Recursive = true
	}
	if len(operands) == 0 {
		if inv.Force {
			return nil
		}
		return inv.UsageError("missing operand")
	}

	if inv.Force {
		operands = existing(inv, operands)
	}

	unlink := func(n *fswalk.Node) error {
		return unix.Unlink(n.Abs)
	}
	rmdir := func(n *fswalk.Node) error {
		if !inv.Recursive {
			return fswalk.NewIOError("rmdir", n.Path, unix.EISDIR)
		}
		return unix.Rmdir(n.Abs)
	}

	return walkOperands(ctx, inv, operands, fswalk.Options{
		Recurse:           inv.Recursive,
		DirsAfterContents: true,
		OnFile:            unlink,
		OnSymlink:         unlink,
		OnDir:             rmdir,
	})
}

// existing drops the operands that do not exist.
func existing(inv *applet.Invocation, operands []string) []string {
	kept := operands[:0:0]
	for _, operand := range operands {
		if _, err := os.Lstat(inv.Path(operand)); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		kept = append(kept, operand)
	}
	return kept
}
