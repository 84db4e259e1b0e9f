// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/utmp"

	"golang.org/x/sys/unix"
)

// utmpFile records the current logins.
const utmpFile = "/var/run/utmp"

func init() {
	for _, d := range []*applet.Descriptor{
		{Name: "true", Usage: "true", Entry: applet.MainFunc(trueMain)},
		{Name: "false", Usage: "false", Entry: applet.MainFunc(falseMain)},
		{Name: "pwd", Usage: "pwd", Entry: applet.MainFunc(pwdMain)},
		{Name: "sync", Usage: "sync", Entry: applet.MainFunc(syncMain)},
		{Name: "logname", Usage: "logname", Entry: applet.MainFunc(lognameMain)},
		{Name: "clear", Usage: "clear", Entry: applet.MainFunc(clearMain)},
		{Name: "yes", Usage: "yes [STRING]...", MaxArgs: applet.Unbounded, Entry: applet.MainFunc(yesMain)},
		{Name: "length", Usage: "length STRING", MinArgs: 1, MaxArgs: 1, Entry: applet.MainFunc(lengthMain)},
	} {
		applet.RegisterDefault(d)
	}
}

func trueMain(context.Context, *applet.Invocation, []string) error { return nil }

func falseMain(context.Context, *applet.Invocation, []string) error { return applet.Failure() }

func pwdMain(_ context.Context, inv *applet.Invocation, _ []string) error {
	dir := inv.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		dir = wd
	}
	inv.Println(dir)
	return nil
}

func syncMain(context.Context, *applet.Invocation, []string) error {
	unix.Sync()
	return nil
}

func clearMain(_ context.Context, inv *applet.Invocation, _ []string) error {
	inv.Printf("\033[H\033[J")
	return nil
}

// lognameMain prints the user logged in on the standard input terminal, as
// recorded in utmp, falling back to $LOGNAME.
func lognameMain(_ context.Context, inv *applet.Invocation, _ []string) error {
	if name := loginName(inv); name != "" {
		inv.Println(name)
		return nil
	}
	return errors.New("no login name")
}

func loginName(inv *applet.Invocation) string {
	if f, ok := inv.Stdin.(*os.File); ok {
		if tty, err := os.Readlink(fmt.Sprintf("/proc/self/fd/%d", f.Fd())); err == nil {
			if name := utmpUser(utmpFile, strings.TrimPrefix(tty, "/dev/")); name != "" {
				return name
			}
		}
	}
	return inv.Getenv("LOGNAME")
}

// utmpUser returns the user of the login process on line, or "".
func utmpUser(file, line string) string {
	f, err := os.Open(file)
	if err != nil {
		return ""
	}
	defer f.Close()

	r := utmp.NewReader(f)
	for {
		rec, err := r.Next()
		if err != nil {
			return ""
		}
		if rec.Type == utmp.UserProcess && rec.LineString() == line {
			return rec.UserString()
		}
	}
}

func yesMain(ctx context.Context, inv *applet.Invocation, argv []string) error {
	line := "y\n"
	if len(argv) > 1 {
		line = strings.Join(argv[1:], " ") + "\n"
	}
	for ctx.Err() == nil {
		if _, err := io.WriteString(inv.Stdout, line); err != nil {
			return &applet.ExitError{Code: applet.ExitFailure, Err: err}
		}
	}
	return ctx.Err()
}

// lengthMain prints the length of its argument in bytes.
func lengthMain(_ context.Context, inv *applet.Invocation, argv []string) error {
	inv.Println(len(argv[1]))
	return nil
}
