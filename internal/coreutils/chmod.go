// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"strings"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/fswalk"

	"golang.org/x/sys/unix"
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "chmod",
		Usage:   "chmod [-R] MODE[,MODE]... FILE...",
		MinArgs: 2,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(chmodMain),
	})
}

// chmodMain parses its options by hand: a symbolic mode such as "-x" looks
// like an option to a flag parser.
func chmodMain(ctx context.Context, inv *applet.Invocation, argv []string) error {
	args := argv[1:]
	for len(args) > 0 && isRecursiveOption(args[0]) {
		inv.Recursive = true
		args = args[1:]
	}
	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		return inv.UsageError("missing operand")
	}

	spec := args[0]
	if _, err := applyMode(spec, 0, false); err != nil {
		return err
	}
	octal := isOctalMode(spec)
	if octal {
		perm, _ := parseOctalMode(spec)
		inv.ModeAnd, inv.ModeOr = 0, perm
	}

	change := func(n *fswalk.Node) error {
		var perm uint32
		if octal {
			perm = n.Perm()&inv.ModeAnd | inv.ModeOr
		} else {
			perm, _ = applyMode(spec, n.Perm(), n.IsDir())
		}
		if perm == n.Perm() {
			return nil
		}
		return unix.Chmod(n.Abs, perm)
	}

	return walkOperands(ctx, inv, args[1:], fswalk.Options{
		Recurse:        inv.Recursive,
		FollowSymlinks: true,
		OnFile:         change,
		OnDir:          change,
	})
}

// isRecursiveOption matches "-R", "-RR" and so on.
func isRecursiveOption(arg string) bool {
	return len(arg) > 1 && arg[0] == '-' && strings.Trim(arg[1:], "R") == ""
}
