// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"strconv"
	"strings"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/fswalk"

	"golang.org/x/sys/unix"
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "kill",
		Usage:   "kill [-SIGNAL] PID... | kill -l",
		MinArgs: 1,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(killMain),
	})
}

// killMain parses its options by hand since "-9" and "-HUP" are signals.
func killMain(_ context.Context, inv *applet.Invocation, argv []string) error {
	args := argv[1:]
	if args[0] == "-l" {
		for sig := unix.Signal(1); sig < 32; sig++ {
			if name := unix.SignalName(sig); name != "" {
				inv.Printf("%2d) %s\n", sig, strings.TrimPrefix(name, "SIG"))
			}
		}
		return nil
	}

	sig := unix.SIGTERM
	if strings.HasPrefix(args[0], "-") {
		s, ok := parseSignal(args[0][1:])
		if !ok {
			return inv.UsageError("invalid signal: " + args[0][1:])
		}
		sig = s
		args = args[1:]
	}
	if len(args) == 0 {
		return inv.UsageError("missing process id")
	}

	failed := false
	for _, arg := range args {
		pid, err := strconv.Atoi(arg)
		if err != nil {
			return inv.UsageError("invalid process id: " + arg)
		}
		if err := unix.Kill(pid, sig); err != nil {
			inv.Report(fswalk.NewIOError("kill", arg, err))
			failed = true
		}
	}
	if failed {
		return applet.Failure()
	}
	return nil
}

// parseSignal accepts a signal number or a name with or without "SIG".
func parseSignal(s string) (unix.Signal, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n >= 65 {
			return 0, false
		}
		return unix.Signal(n), true
	}
	name := strings.ToUpper(s)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	sig := unix.SignalNum(name)
	return sig, sig != 0
}
