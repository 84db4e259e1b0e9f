// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"

	"github.com/invowk/multicall/internal/applet"

	"golang.org/x/sys/unix"
)

// initPID is the process id of init, which performs the shutdown.
const initPID = 1

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "halt",
		Usage:   "halt",
		MinArgs: 0,
		MaxArgs: 0,
		Entry:   signalInit(unix.SIGUSR1),
	})
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "reboot",
		Usage:   "reboot",
		MinArgs: 0,
		MaxArgs: 0,
		Entry:   signalInit(unix.SIGINT),
	})
}

// signalInit asks init to halt (SIGUSR1) or reboot (SIGINT) the system.
func signalInit(sig unix.Signal) applet.MainFunc {
	return func(_ context.Context, inv *applet.Invocation, _ []string) error {
		inv.Logger.Debug("signal init", "signal", unix.SignalName(sig))
		return unix.Kill(initPID, sig)
	}
}
