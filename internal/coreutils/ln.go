// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/fswalk"

	"golang.org/x/sys/unix"
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "ln",
		Usage:   "ln [-s] [-f] [-n] TARGET... LINK|DIRECTORY",
		MinArgs: 2,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(lnMain),
	})
}

func lnMain(_ context.Context, inv *applet.Invocation, argv []string) error {
	var symbolic, noDereference bool

	fs := inv.FlagSet()
	fs.BoolVarP(&symbolic, "symbolic", "s", false, "make symbolic links instead of hard links")
	fs.BoolVarP(&inv.Force, "force", "f", false, "remove existing destination files")
	fs.BoolVarP(&noDereference, "no-dereference", "n", false, "treat LINK as a normal file if it is a symbolic link to a directory")
	operands, err := inv.Parse(fs, argv[1:])
	if err != nil {
		return err
	}
	if len(operands) < 2 {
		return inv.UsageError("missing operand")
	}
	inv.Dereference = !noDereference

	targets := operands[:len(operands)-1]
	inv.Destination = operands[len(operands)-1]

	intoDir := isDirectory(inv.Path(inv.Destination), inv.Dereference)
	if len(targets) > 1 && !intoDir {
		return fswalk.NewIOError("ln", inv.Destination, unix.ENOTDIR)
	}

	failed := false
	for _, target := range targets {
		inv.Source = target
		link := inv.Destination
		if intoDir {
			link = strings.TrimRight(link, "/") + "/" + path.Base(target)
		}
		if err := makeLink(inv, symbolic, target, link); err != nil {
			inv.Report(err)
			failed = true
		}
	}
	if failed {
		return applet.Failure()
	}
	return nil
}

// makeLink links link to target. A symbolic link stores target verbatim; a
// hard link resolves it against the working directory.
func makeLink(inv *applet.Invocation, symbolic bool, target, link string) error {
	linkPath := inv.Path(link)
	if inv.Force {
		if err := os.Remove(linkPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fswalk.NewIOError("remove", link, err)
		}
	}

	var err error
	if symbolic {
		err = unix.Symlink(target, linkPath)
	} else {
		err = unix.Link(inv.Path(target), linkPath)
	}
	if err != nil {
		return fswalk.NewIOError("link", link, err)
	}
	return nil
}

func isDirectory(p string, follow bool) bool {
	stat := os.Lstat
	if follow {
		stat = os.Stat
	}
	info, err := stat(p)
	return err == nil && info.IsDir()
}
