// SPDX-License-Identifier: MPL-2.0

// Package fswalk implements the recursive filesystem action framework shared
// by the tree applets (chmod, chown, chgrp, du, find, rm).
//
// Walk visits a root path depth-first and applies caller-supplied callbacks to
// files, directories and, optionally, symbolic links. Directories can be
// handled before their contents (pre-order, for applets that change a
// directory before descending) or after them (post-order, for applets that
// need the directory empty first).
package fswalk
