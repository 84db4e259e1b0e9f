// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"strings"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/fswalk"
	"github.com/invowk/multicall/internal/mounttab"

	"golang.org/x/sys/unix"
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "df",
		Usage:   "df [FILE]...",
		MinArgs: 0,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(dfMain),
	})
}

// fsUsage is the space accounting of one filesystem, in 1K blocks.
type fsUsage struct {
	total, used, avail uint64
}

func newFSUsage(st *unix.Statfs_t) fsUsage {
	bsize := uint64(st.Bsize)
	return fsUsage{
		total: kilobytes(st.Blocks, bsize),
		used:  kilobytes(st.Blocks-st.Bfree, bsize),
		avail: kilobytes(st.Bavail, bsize),
	}
}

// percent returns the used share of the space available to users, rounded up.
func (u fsUsage) percent() uint64 {
	if u.used+u.avail == 0 {
		return 0
	}
	return (u.used*100 + u.used + u.avail - 1) / (u.used + u.avail)
}

func dfMain(_ context.Context, inv *applet.Invocation, argv []string) error {
	entries, err := mounttab.ReadFile(inv.Config.Mounts.Table)
	if err != nil {
		return fswalk.NewIOError("open", inv.Config.Mounts.Table, err)
	}

	inv.Printf("%-20s %11s %11s %11s %5s %s\n", "Filesystem", "1k-blocks", "Used", "Available", "Use%", "Mounted on")

	if len(argv) == 1 {
		for _, e := range entries {
			var st unix.Statfs_t
			if err := unix.Statfs(e.Target, &st); err != nil || st.Blocks == 0 {
				continue
			}
			printUsage(inv, e, newFSUsage(&st))
		}
		return nil
	}

	failed := false
	for _, operand := range argv[1:] {
		var st unix.Statfs_t
		if err := unix.Statfs(inv.Path(operand), &st); err != nil {
			inv.Report(fswalk.NewIOError("statfs", operand, err))
			failed = true
			continue
		}
		e := mountOf(entries, inv.Path(operand))
		printUsage(inv, e, newFSUsage(&st))
	}
	if failed {
		return applet.Failure()
	}
	return nil
}

func printUsage(inv *applet.Invocation, e mounttab.Entry, u fsUsage) {
	inv.Printf("%-20s %11d %11d %11d %4d%% %s\n", e.Source, u.total, u.used, u.avail, u.percent(), e.Target)
}

// mountOf returns the entry whose mount point is the longest prefix of path.
func mountOf(entries []mounttab.Entry, path string) mounttab.Entry {
	best := mounttab.Entry{Source: "-", Target: path}
	bestLen := -1
	for _, e := range entries {
		t := e.Target
		inside := path == t || t == "/" || strings.HasPrefix(path, strings.TrimRight(t, "/")+"/")
		if inside && len(t) > bestLen {
			best, bestLen = e, len(t)
		}
	}
	return best
}
