// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/fswalk"
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "du",
		Usage:   "du [-s] [-l] [FILE...]",
		MinArgs: 0,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(duMain),
	})
}

type devIno struct {
	dev, ino uint64
}

// diskUsage accumulates 1K-block totals bottom-up during a post-order walk.
type diskUsage struct {
	inv        *applet.Invocation
	summarize  bool
	countLinks bool

	totals map[string]int64
	seen   map[devIno]struct{}
}

func (d *diskUsage) size(n *fswalk.Node) int64 {
	if n.IsSymlink() {
		return 0
	}
	if !n.IsDir() && n.Nlink() > 1 && !d.countLinks {
		key := devIno{n.Dev(), n.Ino()}
		if _, ok := d.seen[key]; ok {
			return 0
		}
		d.seen[key] = struct{}{}
	}
	return kilobytes(n.Blocks(), 512)
}

func (d *diskUsage) add(n *fswalk.Node, total int64) {
	if n.Parent != "" {
		d.totals[n.Parent] += total
	}
	if n.Depth == 0 || (n.IsDir() && !d.summarize) {
		d.inv.Printf("%d\t%s\n", total, n.Path)
	}
}

func (d *diskUsage) onFile(n *fswalk.Node) error {
	d.add(n, d.size(n))
	return nil
}

func (d *diskUsage) onDir(n *fswalk.Node) error {
	total := d.totals[n.Path] + d.size(n)
	delete(d.totals, n.Path)
	d.add(n, total)
	return nil
}

func duMain(ctx context.Context, inv *applet.Invocation, argv []string) error {
	d := &diskUsage{inv: inv}

	fs := inv.FlagSet()
	fs.BoolVarP(&d.summarize, "summarize", "s", false, "display only a total for each argument")
	fs.BoolVarP(&d.countLinks, "count-links", "l", false, "count sizes many times if hard linked")
	operands, err := inv.Parse(fs, argv[1:])
	if err != nil {
		return err
	}
	if len(operands) == 0 {
		operands = []string{"."}
	}

	failed := false
	for _, operand := range operands {
		// Hard links are counted once per operand.
		d.totals = make(map[string]int64)
		d.seen = make(map[devIno]struct{})
		if err := walkOperands(ctx, inv, []string{operand}, fswalk.Options{
			Recurse:           true,
			DirsAfterContents: true,
			VisitFailedDirs:   true,
			OnFile:            d.onFile,
			OnDir:             d.onDir,
			OnSymlink:         d.onFile,
		}); err != nil {
			failed = true
			if ctx.Err() != nil {
				break
			}
		}
	}
	if failed {
		return applet.Failure()
	}
	return nil
}
