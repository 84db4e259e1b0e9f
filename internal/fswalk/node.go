// SPDX-License-Identifier: MPL-2.0

package fswalk

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

// Node is one filesystem entry visited by Walk. It is a value owned by the
// callback receiving it; the walker never reuses or mutates it.
type Node struct {
	// Path is the entry path as built from the walk root: the parent path,
	// a '/', and the entry name.
	Path string
	// Abs is Path resolved against Options.Dir, suitable for system calls.
	Abs string
	// Parent is the parent's Path, or "" for the walk root.
	Parent string
	// Depth is 0 for the walk root and grows by one per directory level.
	Depth int

	stat unix.Stat_t
}

// Stat returns a copy of the raw metadata.
func (n *Node) Stat() unix.Stat_t { return n.stat }

// IsDir reports whether the entry is a directory.
func (n *Node) IsDir() bool { return n.stat.Mode&unix.S_IFMT == unix.S_IFDIR }

// IsSymlink reports whether the entry is a symbolic link. Always false when
// symlinks are followed.
func (n *Node) IsSymlink() bool { return n.stat.Mode&unix.S_IFMT == unix.S_IFLNK }

// Perm returns the permission bits including setuid, setgid and sticky, in
// their raw 07777 encoding.
func (n *Node) Perm() uint32 { return n.stat.Mode & 0o7777 }

// Mode returns the entry type and permissions as an fs.FileMode.
func (n *Node) Mode() fs.FileMode { return fileMode(n.stat.Mode) }

// Uid returns the owner's user id.
func (n *Node) Uid() int { return int(n.stat.Uid) }

// Gid returns the owner's group id.
func (n *Node) Gid() int { return int(n.stat.Gid) }

// Size returns the size in bytes.
func (n *Node) Size() int64 { return n.stat.Size }

// Blocks returns the number of 512-byte blocks allocated.
func (n *Node) Blocks() int64 { return n.stat.Blocks }

// Nlink returns the hard link count.
func (n *Node) Nlink() uint64 { return uint64(n.stat.Nlink) }

// Dev returns the id of the device holding the entry.
func (n *Node) Dev() uint64 { return uint64(n.stat.Dev) }

// Ino returns the inode number.
func (n *Node) Ino() uint64 { return n.stat.Ino }

// ModTime returns the last modification time.
func (n *Node) ModTime() time.Time {
	sec, nsec := n.stat.Mtim.Unix()
	return time.Unix(sec, nsec)
}

func fileMode(m uint32) fs.FileMode {
	mode := fs.FileMode(m & 0o777)
	switch m & unix.S_IFMT {
	case unix.S_IFBLK:
		mode |= fs.ModeDevice
	case unix.S_IFCHR:
		mode |= fs.ModeDevice | fs.ModeCharDevice
	case unix.S_IFDIR:
		mode |= fs.ModeDir
	case unix.S_IFIFO:
		mode |= fs.ModeNamedPipe
	case unix.S_IFLNK:
		mode |= fs.ModeSymlink
	case unix.S_IFSOCK:
		mode |= fs.ModeSocket
	}
	if m&unix.S_ISUID != 0 {
		mode |= fs.ModeSetuid
	}
	if m&unix.S_ISGID != 0 {
		mode |= fs.ModeSetgid
	}
	if m&unix.S_ISVTX != 0 {
		mode |= fs.ModeSticky
	}
	return mode
}
