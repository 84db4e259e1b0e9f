// SPDX-License-Identifier: MPL-2.0

package applet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/invowk/multicall/internal/config"
	"github.com/invowk/multicall/pkg/types"

	"github.com/charmbracelet/log"
)

const (
	// ExitFailure is the status of failed applets and usage errors.
	ExitFailure types.ExitCode = 1
	// ExitNotFound is the status of an invocation name matching no applet.
	ExitNotFound types.ExitCode = 127

	helpFlag = "--help"
)

// Dispatcher resolves invocations against a Registry and runs applets under
// their argument-count contract.
type Dispatcher struct {
	// Registry is the set of runnable applets. Nil means DefaultRegistry.
	Registry *Registry
	// Env is the environment copied into every Invocation.
	Env HandlerContext
	// Logger is the parent logger of applet loggers. Nil discards logs.
	Logger *log.Logger
	// Config is handed to applets. Nil means config.DefaultConfig().
	Config *config.Config
}

// NewDispatcher creates a Dispatcher bound to the process standard streams,
// working directory and environment.
func NewDispatcher(reg *Registry, cfg *config.Config, logger *log.Logger) *Dispatcher {
	dir, err := os.Getwd()
	if err != nil {
		dir = ""
	}
	return &Dispatcher{
		Registry: reg,
		Env: HandlerContext{
			Stdin:     os.Stdin,
			Stdout:    os.Stdout,
			Stderr:    os.Stderr,
			Dir:       dir,
			LookupEnv: os.LookupEnv,
			ListEnv:   os.Environ,
		},
		Logger: logger,
		Config: cfg,
	}
}

// WithEnv returns a copy of d that runs applets in env.
func (d *Dispatcher) WithEnv(env HandlerContext) *Dispatcher {
	c := *d
	c.Env = env
	return &c
}

// Lookup finds an applet in the dispatcher's registry.
func (d *Dispatcher) Lookup(name string) (*Descriptor, bool) {
	return d.registry().Lookup(name)
}

// Run resolves argv[0] and dispatches to the matching applet.
// An unresolved name is reported on stderr and yields ExitNotFound.
func (d *Dispatcher) Run(ctx context.Context, argv []string) types.ExitCode {
	if len(argv) == 0 {
		fmt.Fprintln(d.Env.Stderr, "multicall: empty argument vector")
		return ExitFailure
	}

	desc, ok := d.registry().Resolve(argv[0])
	if !ok {
		err := &LookupError{Name: Basename(argv[0])}
		fmt.Fprintf(d.Env.Stderr, "multicall: %s\n", err)
		return ExitNotFound
	}
	return d.Dispatch(ctx, desc, argv)
}

// Dispatch runs desc with argv after checking its argument-count contract.
// argv[0] is the invocation name and is not counted.
func (d *Dispatcher) Dispatch(ctx context.Context, desc *Descriptor, argv []string) types.ExitCode {
	argc := len(argv) - 1
	if !desc.acceptsArgCount(argc) || (argc >= 1 && desc.Usage != "" && argv[1] == helpFlag) {
		d.printUsage(&UsageError{Applet: desc.Name, Usage: desc.Usage})
		return ExitFailure
	}

	inv := newInvocation(d, desc)
	inv.Logger.Debug("dispatch", "argc", argc, "dir", inv.Dir)

	err := desc.Entry.run(ctx, inv, argv)
	return d.exitCode(inv, err)
}

// exitCode reports err and maps it to the process exit status.
func (d *Dispatcher) exitCode(inv *Invocation, err error) types.ExitCode {
	if err == nil {
		return 0
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		d.printUsage(usageErr)
		return ExitFailure
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			inv.Report(exitErr.Err)
		}
		return exitErr.Code
	}

	inv.Report(err)
	return ExitFailure
}

func (d *Dispatcher) printUsage(e *UsageError) {
	if e.Reason != "" {
		fmt.Fprintf(d.Env.Stderr, "%s: %s\n", e.Applet, e.Reason)
	}
	fmt.Fprintf(d.Env.Stderr, "Usage:\t%s\n", e.Usage)
}

func (d *Dispatcher) registry() *Registry {
	if d.Registry == nil {
		return DefaultRegistry
	}
	return d.Registry
}

func (d *Dispatcher) logger() *log.Logger {
	if d.Logger == nil {
		return log.New(io.Discard)
	}
	return d.Logger
}

func (d *Dispatcher) config() *config.Config {
	if d.Config == nil {
		return config.DefaultConfig()
	}
	return d.Config
}
