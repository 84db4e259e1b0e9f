// SPDX-License-Identifier: MPL-2.0

package applet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/invowk/multicall/internal/config"
	"github.com/invowk/multicall/internal/issue"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

type (
	// HandlerContext carries the process environment an applet runs in.
	// Applets started from the sh applet receive the interpreter's streams and
	// working directory instead of the process ones.
	HandlerContext struct {
		// Stdin is the input stream for the applet.
		Stdin io.Reader
		// Stdout is the output stream for the applet.
		Stdout io.Writer
		// Stderr is the diagnostic stream for the applet.
		Stderr io.Writer
		// Dir is the working directory relative paths are resolved against.
		// Empty means the process working directory.
		Dir string
		// LookupEnv retrieves environment variables.
		LookupEnv func(string) (string, bool)
		// ListEnv lists the environment as "key=value" pairs.
		// Nil means the process environment.
		ListEnv func() []string
	}

	// Invocation is the per-dispatch context handed to an applet entry.
	// The applet's option parsing fills it before any traversal starts;
	// walker callbacks only read it.
	Invocation struct {
		HandlerContext

		// Applet is the descriptor being run.
		Applet *Descriptor
		// Dispatcher is the dispatcher running this invocation, for applets
		// that start other applets.
		Dispatcher *Dispatcher
		// Logger receives debug-level tracing.
		Logger *log.Logger
		// Config is the loaded configuration. Never nil.
		Config *config.Config

		Recursive              bool
		Force                  bool
		MakeParents            bool
		ChangeOwner            bool
		ChangeGroup            bool
		PreserveMtime          bool
		Dereference            bool
		ComplainAfterTraversal bool

		Source      string
		Destination string

		// UID and GID are meaningful only when ChangeOwner and ChangeGroup are set.
		UID int
		GID int

		// ModeAnd and ModeOr adjust permission bits: mode&ModeAnd | ModeOr.
		ModeAnd uint32
		ModeOr  uint32
	}
)

// newInvocation creates an Invocation with every flag cleared and the mode
// masks imposing no restriction.
func newInvocation(d *Dispatcher, desc *Descriptor) *Invocation {
	return &Invocation{
		HandlerContext: d.Env,
		Applet:         desc,
		Dispatcher:     d,
		Logger:         d.logger().WithPrefix(desc.Name),
		Config:         d.config(),
		UID:            -1,
		GID:            -1,
		ModeAnd:        ^uint32(0),
		ModeOr:         0o777,
	}
}

// Path resolves p against the invocation's working directory.
// Absolute paths and the empty Dir leave p unchanged.
func (inv *Invocation) Path(p string) string {
	if inv.Dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(inv.Dir, p)
}

// Getenv returns the value of an environment variable, or "" if unset.
func (inv *Invocation) Getenv(name string) string {
	if inv.LookupEnv == nil {
		return ""
	}
	v, _ := inv.LookupEnv(name)
	return v
}

// Environ returns the environment the applet runs in as "key=value" pairs.
func (inv *Invocation) Environ() []string {
	if inv.ListEnv == nil {
		return os.Environ()
	}
	return inv.ListEnv()
}

// FlagSet creates a flag set for the applet's options. Parse errors are
// returned rather than printed.
func (inv *Invocation) FlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(inv.Applet.Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	return fs
}

// Parse parses args with fs and returns the remaining operands.
// A parse failure becomes a UsageError.
func (inv *Invocation) Parse(fs *pflag.FlagSet, args []string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, inv.UsageError("")
		}
		return nil, inv.UsageError(err.Error())
	}
	return fs.Args(), nil
}

// UsageError builds a UsageError for the running applet.
func (inv *Invocation) UsageError(reason string) error {
	return &UsageError{Applet: inv.Applet.Name, Usage: inv.Applet.Usage, Reason: reason}
}

// Report prints err as an applet diagnostic without ending the invocation.
func (inv *Invocation) Report(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(inv.Stderr, "%s: %s\n", inv.Applet.Name, formatError(err, inv.verbose()))
}

// Println writes a line to the applet's standard output.
func (inv *Invocation) Println(a ...any) {
	fmt.Fprintln(inv.Stdout, a...)
}

// Printf writes formatted output to the applet's standard output.
func (inv *Invocation) Printf(format string, a ...any) {
	fmt.Fprintf(inv.Stdout, format, a...)
}

func (inv *Invocation) verbose() bool {
	return inv.Logger.GetLevel() <= log.DebugLevel
}

// formatError renders an applet error for display. Actionable errors carry
// suggestions and, in verbose mode, their full cause chain.
func formatError(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
