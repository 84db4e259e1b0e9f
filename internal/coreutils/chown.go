// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"strings"

	"github.com/invowk/multicall/internal/accounts"
	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/fswalk"
	"github.com/invowk/multicall/internal/issue"

	"golang.org/x/sys/unix"
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "chown",
		Usage:   "chown [-R] OWNER[:.][GROUP] FILE...",
		MinArgs: 2,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(chownMain),
	})
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "chgrp",
		Usage:   "chgrp [-R] GROUP FILE...",
		MinArgs: 2,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(chownMain),
	})
}

// chownMain serves both chown and chgrp; the applet name selects how the
// first operand is read.
func chownMain(ctx context.Context, inv *applet.Invocation, argv []string) error {
	fs := inv.FlagSet()
	fs.BoolVarP(&inv.Recursive, "recursive", "R", false, "operate on files and directories recursively")
	fs.SetInterspersed(false)
	operands, err := inv.Parse(fs, argv[1:])
	if err != nil {
		return err
	}
	if len(operands) < 2 {
		return inv.UsageError("missing operand")
	}

	owner, group := "", operands[0]
	if inv.Applet.Name == "chown" {
		owner, group = splitOwner(inv.Config.Accounts.PasswdFile, operands[0])
	}

	if owner != "" {
		uid, err := accounts.ResolveUser(inv.Config.Accounts.PasswdFile, owner)
		if err != nil {
			return lookupError("user", owner, inv.Config.Accounts.PasswdFile, err)
		}
		inv.ChangeOwner, inv.UID = true, uid
	}
	if group != "" {
		gid, err := accounts.ResolveGroup(inv.Config.Accounts.GroupFile, group)
		if err != nil {
			return lookupError("group", group, inv.Config.Accounts.GroupFile, err)
		}
		inv.ChangeGroup, inv.GID = true, gid
	}
	if !inv.ChangeOwner && !inv.ChangeGroup {
		return inv.UsageError("missing owner")
	}

	// Ownership errors are listed once the traversal is over.
	inv.ComplainAfterTraversal = true

	change := func(n *fswalk.Node) error {
		uid, gid := -1, -1
		if inv.ChangeOwner {
			uid = inv.UID
		}
		if inv.ChangeGroup {
			gid = inv.GID
		}
		return unix.Chown(n.Abs, uid, gid)
	}

	return walkOperands(ctx, inv, operands[1:], fswalk.Options{
		Recurse:        inv.Recursive,
		FollowSymlinks: true,
		OnFile:         change,
		OnDir:          change,
	})
}

// splitOwner splits OWNER[:GROUP]. A '.' separates the group only when there
// is no ':' and the whole spec is not itself a known user name.
func splitOwner(passwdFile, spec string) (owner, group string) {
	if owner, group, ok := strings.Cut(spec, ":"); ok {
		return owner, group
	}
	if !strings.Contains(spec, ".") {
		return spec, ""
	}
	if _, err := accounts.ResolveUser(passwdFile, spec); err == nil {
		return spec, ""
	}
	owner, group, _ = strings.Cut(spec, ".")
	return owner, group
}

func lookupError(kind, name, file string, err error) error {
	return issue.NewErrorContext().
		WithOperation("look up " + kind).
		WithResource(name).
		WithSuggestion("Use a numeric " + kind + " id").
		WithSuggestion("Check that " + file + " lists the " + kind).
		Wrap(err).
		BuildError()
}
