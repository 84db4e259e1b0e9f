// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"strings"

	"github.com/invowk/multicall/internal/applet"
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "echo",
		Usage:   "echo [-n] [ARG]...",
		MinArgs: 0,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(echoMain),
	})
}

// echoMain accepts no option other than -n; anything else is printed.
func echoMain(_ context.Context, inv *applet.Invocation, argv []string) error {
	args := argv[1:]
	newline := true
	for len(args) > 0 && args[0] == "-n" {
		newline = false
		args = args[1:]
	}

	inv.Printf("%s", strings.Join(args, " "))
	if newline {
		inv.Println()
	}
	return nil
}
