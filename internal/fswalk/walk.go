// SPDX-License-Identifier: MPL-2.0

package fswalk

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/karrick/godirwalk"
	"golang.org/x/sys/unix"
)

type (
	// Action is a per-entry callback. A non-nil error marks the entry as failed.
	Action func(n *Node) error

	// Options configures a walk.
	Options struct {
		// Recurse descends into directories. Without it a directory root only
		// receives OnDir.
		Recurse bool
		// FollowSymlinks reads metadata with stat instead of lstat.
		FollowSymlinks bool
		// DirsAfterContents calls OnDir after a directory's children
		// (post-order) instead of before them (pre-order).
		DirsAfterContents bool
		// VisitFailedDirs still calls a post-order OnDir when some of the
		// directory's descendants failed. The directory is reported as failed
		// either way.
		VisitFailedDirs bool

		// OnFile is called for every entry that is not a directory. Optional.
		OnFile Action
		// OnDir is called for every directory. Optional.
		OnDir Action
		// OnSymlink is called for symbolic links when FollowSymlinks is false.
		// When nil, links are skipped as successful no-ops.
		OnSymlink Action

		// OnError receives each failure as it happens. When nil, failures are
		// only returned from Walk for the caller to report afterwards.
		OnError func(err error)

		// Dir is the directory relative roots are resolved against.
		// Empty means the process working directory.
		Dir string
		// Logger receives a debug record per visited entry. Optional.
		Logger *log.Logger
	}
)

type walker struct {
	opts    Options
	errs    Errors
	stopped bool
}

// Walk visits root and, with Recurse, everything below it.
//
// Failures below the root do not stop the walk: remaining siblings are still
// visited and every failure is collected. A directory whose pre-order OnDir
// fails is not descended into, and a directory with a failed descendant does
// not receive its post-order OnDir unless VisitFailedDirs is set. Entries are
// visited in directory order, unsorted. Cancellation of ctx is checked before
// each entry.
//
// Walk returns nil when every applicable callback succeeded, otherwise an
// *Errors holding the failures in visit order.
func Walk(ctx context.Context, root string, opts Options) error {
	w := &walker{opts: opts}
	if !w.canceled(ctx) {
		w.walk(ctx, root, "", 0, opts.Recurse)
	}
	return w.errs.err()
}

// walk visits one entry and reports whether it and all its descendants
// succeeded.
func (w *walker) walk(ctx context.Context, path, parent string, depth int, recurse bool) bool {
	n := &Node{Path: path, Abs: w.abs(path), Parent: parent, Depth: depth}
	if !w.stat(n) {
		return false
	}

	if w.opts.Logger != nil {
		w.opts.Logger.Debug("visit", "path", path, "mode", n.Mode())
	}

	switch {
	case n.IsSymlink():
		if w.opts.OnSymlink == nil {
			return true
		}
		return w.call(w.opts.OnSymlink, n)
	case !n.IsDir():
		return w.call(w.opts.OnFile, n)
	case !recurse:
		return w.call(w.opts.OnDir, n)
	}

	names, err := godirwalk.ReadDirnames(n.Abs, nil)
	if err != nil {
		w.fail(NewIOError("opendir", path, err))
		return false
	}

	if !w.opts.DirsAfterContents && !w.call(w.opts.OnDir, n) {
		return false
	}

	ok := true
	for _, name := range names {
		if name == "." || name == ".." {
			continue
		}
		if w.canceled(ctx) {
			return false
		}
		if !w.walk(ctx, childPath(path, name), path, depth+1, true) {
			ok = false
		}
	}

	if w.opts.DirsAfterContents && (ok || w.opts.VisitFailedDirs) {
		ok = w.call(w.opts.OnDir, n) && ok
	}
	return ok
}

func (w *walker) stat(n *Node) bool {
	var err error
	op := "lstat"
	if w.opts.FollowSymlinks {
		op = "stat"
		err = unix.Stat(n.Abs, &n.stat)
	} else {
		err = unix.Lstat(n.Abs, &n.stat)
	}
	if err != nil {
		w.fail(NewIOError(op, n.Path, err))
		return false
	}
	return true
}

func (w *walker) call(action Action, n *Node) bool {
	if action == nil {
		return true
	}
	err := action(n)
	if err == nil {
		return true
	}

	var errno syscall.Errno
	var ioErr *IOError
	if errors.As(err, &errno) && !errors.As(err, &ioErr) {
		err = NewIOError("", n.Path, err)
	}
	w.fail(err)
	return false
}

func (w *walker) fail(err error) {
	w.errs.add(err)
	if w.opts.OnError != nil {
		w.opts.OnError(err)
	}
}

// canceled records ctx's error the first time it is seen.
func (w *walker) canceled(ctx context.Context) bool {
	err := ctx.Err()
	if err == nil {
		return false
	}
	if !w.stopped {
		w.stopped = true
		w.fail(err)
	}
	return true
}

func (w *walker) abs(path string) string {
	if w.opts.Dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(w.opts.Dir, path)
}

// childPath appends name to dir without doubling a trailing separator.
func childPath(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}
