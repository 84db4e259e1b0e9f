// SPDX-License-Identifier: MPL-2.0

// Package coreutils implements the applets linked into the multicall binary.
//
// Every applet registers itself in applet.DefaultRegistry from an init
// function, so importing this package for its side effects is enough to make
// the whole set available to a Dispatcher:
//
//	import _ "github.com/invowk/multicall/internal/coreutils"
//
// Applets that act on directory trees (chmod, chown, chgrp, rm, find, du) run
// on top of the fswalk package. Applets applying one action per operand
// (mkdir, rmdir, touch, cat, more, dutmp) use applet.FileAction. The ls, cp
// and mv applets delegate to the u-root core utilities.
package coreutils
