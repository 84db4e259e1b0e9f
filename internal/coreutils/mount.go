// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/fswalk"
	"github.com/invowk/multicall/internal/mounttab"

	"golang.org/x/sys/unix"
)

// fstabFile lists the filesystems mounted by "mount -a".
const fstabFile = "/etc/fstab"

// mountOptions maps option names to the flag bits they clear and set.
var mountOptions = map[string]struct{ clear, set uintptr }{
	"async":    {clear: unix.MS_SYNCHRONOUS},
	"defaults": {},
	"dev":      {clear: unix.MS_NODEV},
	"exec":     {clear: unix.MS_NOEXEC},
	"nodev":    {set: unix.MS_NODEV},
	"noexec":   {set: unix.MS_NOEXEC},
	"nosuid":   {set: unix.MS_NOSUID},
	"remount":  {set: unix.MS_REMOUNT},
	"ro":       {set: unix.MS_RDONLY},
	"rw":       {clear: unix.MS_RDONLY},
	"suid":     {clear: unix.MS_NOSUID},
	"sync":     {set: unix.MS_SYNCHRONOUS},
}

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "mount",
		Usage:   "mount [-a] [-f] [-r|-w] [-t TYPE] [-o OPTIONS] [DEVICE DIRECTORY]",
		MinArgs: 0,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(mountMain),
	})
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "umount",
		Usage:   "umount [-a] [-f] [-l] [-r] FILESYSTEM|DIRECTORY...",
		MinArgs: 0,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(umountMain),
	})
}

// parseMountOptions folds a comma-separated option list into flags. Options
// unknown to the kernel flag table are passed on as filesystem data.
func parseMountOptions(opts string, flags uintptr) (uintptr, string) {
	var data []string
	for _, opt := range strings.Split(opts, ",") {
		if opt == "" {
			continue
		}
		if o, ok := mountOptions[strings.ToLower(opt)]; ok {
			flags = flags&^o.clear | o.set
			continue
		}
		data = append(data, opt)
	}
	return flags, strings.Join(data, ",")
}

func mountMain(_ context.Context, inv *applet.Invocation, argv []string) error {
	var (
		fsType, opts        string
		readOnly, readWrite bool
		all, fake           bool
	)

	fs := inv.FlagSet()
	fs.StringVarP(&fsType, "types", "t", "auto", "filesystem type")
	fs.StringVarP(&opts, "options", "o", "", "comma-separated mount options")
	fs.BoolVarP(&readOnly, "read-only", "r", false, "mount read-only")
	fs.BoolVarP(&readWrite, "rw", "w", false, "mount read-write")
	fs.BoolVarP(&all, "all", "a", false, "mount every filesystem listed in "+fstabFile)
	fs.BoolVarP(&fake, "fake", "f", false, "do everything except the mount system call")
	fs.BoolP("verbose", "v", false, "ignored")
	operands, err := inv.Parse(fs, argv[1:])
	if err != nil {
		return err
	}

	if len(argv) == 1 {
		return listMounts(inv)
	}

	var flags uintptr
	if readOnly {
		flags |= unix.MS_RDONLY
	}
	flags, data := parseMountOptions(opts, flags)
	if readWrite {
		flags &^= unix.MS_RDONLY
	}

	if all {
		return mountAll(inv, fake)
	}
	if len(operands) != 2 {
		return inv.UsageError("")
	}

	inv.Source, inv.Destination = operands[0], operands[1]
	return mountOne(inv, fake, inv.Source, inv.Destination, fsType, flags, data)
}

func mountOne(inv *applet.Invocation, fake bool, source, target, fsType string, flags uintptr, data string) error {
	inv.Logger.Debug("mount", "source", source, "target", target, "type", fsType, "flags", flags, "data", data)
	if fake {
		return nil
	}
	if err := unix.Mount(source, inv.Path(target), fsType, flags, data); err != nil {
		return fswalk.NewIOError("mount", target, err)
	}
	return nil
}

func listMounts(inv *applet.Invocation) error {
	entries, err := mounttab.ReadFile(inv.Config.Mounts.Table)
	if err != nil {
		return fswalk.NewIOError("open", inv.Config.Mounts.Table, err)
	}
	for _, e := range entries {
		inv.Printf("%s on %s type %s (%s)\n", e.Source, e.Target, e.FSType, e.OptionString())
	}
	return nil
}

// mountAll mounts the fstab entries that are neither noauto, swap nor nfs.
// The root filesystem is remounted with its fstab options.
func mountAll(inv *applet.Invocation, fake bool) error {
	entries, err := mounttab.ReadFile(fstabFile)
	if err != nil {
		return fswalk.NewIOError("open", fstabFile, err)
	}

	failed := false
	for _, e := range entries {
		if e.HasOption("noauto") || strings.Contains(e.FSType, "swap") || strings.Contains(e.FSType, "nfs") {
			continue
		}
		flags, data := parseMountOptions(e.OptionString(), 0)
		if e.Target == "/" {
			flags |= unix.MS_REMOUNT
		}
		err := mountOne(inv, fake, e.Source, e.Target, e.FSType, flags, data)
		if err != nil && flags&unix.MS_REMOUNT == 0 {
			err = mountOne(inv, fake, e.Source, e.Target, e.FSType, flags|unix.MS_REMOUNT, data)
		}
		if err != nil {
			inv.Report(err)
			failed = true
		}
	}
	if failed {
		return applet.Failure()
	}
	return nil
}

func umountMain(_ context.Context, inv *applet.Invocation, argv []string) error {
	var all, remount bool

	fs := inv.FlagSet()
	fs.BoolVarP(&all, "all", "a", false, "unmount every filesystem in the mount table")
	fs.BoolVarP(&inv.Force, "force", "f", false, "force the unmount")
	lazy := fs.BoolP("lazy", "l", false, "detach the filesystem now, clean up later")
	fs.BoolVarP(&remount, "read-only", "r", false, "remount read-only if the unmount fails")
	operands, err := inv.Parse(fs, argv[1:])
	if err != nil {
		return err
	}

	var flags int
	if inv.Force {
		flags |= unix.MNT_FORCE
	}
	if *lazy {
		flags |= unix.MNT_DETACH
	}

	entries, err := mounttab.ReadFile(inv.Config.Mounts.Table)
	if err != nil {
		entries = nil
		if all {
			return fswalk.NewIOError("open", inv.Config.Mounts.Table, err)
		}
	}

	if all {
		operands = operands[:0]
		for _, e := range slices.Backward(entries) {
			if !strings.Contains(e.Target, "proc") {
				operands = append(operands, e.Target)
			}
		}
	} else if len(operands) == 0 {
		return inv.UsageError("missing operand")
	}

	failed := false
	for _, operand := range operands {
		if err := umountOne(inv, entries, operand, flags, remount); err != nil {
			inv.Report(err)
			failed = true
		}
	}
	if failed {
		return applet.Failure()
	}
	return nil
}

// umountOne unmounts a mount point, or the mount point of a device listed in
// the mount table.
func umountOne(inv *applet.Invocation, entries []mounttab.Entry, name string, flags int, remount bool) error {
	target, source := name, ""
	for _, e := range entries {
		if e.Source == name {
			target, source = e.Target, e.Source
			break
		}
		if e.Target == name {
			source = e.Source
		}
	}

	err := unix.Unmount(inv.Path(target), flags)
	if err == nil {
		return nil
	}
	if remount && errors.Is(err, unix.EBUSY) {
		if rerr := unix.Mount(source, inv.Path(target), "", unix.MS_REMOUNT|unix.MS_RDONLY, ""); rerr == nil {
			inv.Report(errors.New(target + " busy - remounted read-only"))
			return nil
		}
	}
	return fswalk.NewIOError("umount", target, err)
}
