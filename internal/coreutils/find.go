// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"path"
	"strings"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/fswalk"

	"github.com/bmatcuk/doublestar/v4"
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "find",
		Usage:   "find [PATH...] [-follow] [-name PATTERN] [-type f|d|l] [-print]",
		MinArgs: 0,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(findMain),
	})
}

// findQuery is the conjunction of the tests given on the command line.
type findQuery struct {
	name     string
	fileType byte
}

func (q *findQuery) match(n *fswalk.Node) bool {
	if q.name != "" {
		if ok, _ := doublestar.Match(q.name, path.Base(n.Path)); !ok {
			return false
		}
	}
	switch q.fileType {
	case 'f':
		return n.Mode().IsRegular()
	case 'd':
		return n.IsDir()
	case 'l':
		return n.IsSymlink()
	}
	return true
}

func findMain(ctx context.Context, inv *applet.Invocation, argv []string) error {
	args := argv[1:]

	var roots []string
	for len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		roots = append(roots, args[0])
		args = args[1:]
	}
	if len(roots) == 0 {
		roots = []string{"."}
	}

	var q findQuery
	for len(args) > 0 {
		expr := args[0]
		args = args[1:]
		switch expr {
		case "-follow":
			inv.Dereference = true
		case "-print":
		case "-name", "-type":
			if len(args) == 0 {
				return inv.UsageError("missing argument to " + expr)
			}
			value := args[0]
			args = args[1:]
			if expr == "-type" {
				if len(value) != 1 || !strings.Contains("fdl", value) {
					return inv.UsageError("unknown argument to -type: " + value)
				}
				q.fileType = value[0]
				continue
			}
			if !doublestar.ValidatePattern(value) {
				return inv.UsageError("invalid pattern: " + value)
			}
			q.name = value
		default:
			return inv.UsageError("unknown expression: " + expr)
		}
	}

	visit := func(n *fswalk.Node) error {
		if q.match(n) {
			inv.Println(n.Path)
		}
		return nil
	}

	return walkOperands(ctx, inv, roots, fswalk.Options{
		Recurse:        true,
		FollowSymlinks: inv.Dereference,
		OnFile:         visit,
		OnDir:          visit,
		OnSymlink:      visit,
	})
}
