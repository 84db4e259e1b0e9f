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
	"github.com/invowk/multicall/internal/fswalk"
	"github.com/invowk/multicall/pkg/types"

	"golang.org/x/term"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

func init() {
	applet.RegisterDefault(&applet.Descriptor{
		Name:    "sh",
		Usage:   "sh [-c SCRIPT [NAME [ARG]...] | FILE [ARG]...]",
		MinArgs: 0,
		MaxArgs: applet.Unbounded,
		Entry:   applet.MainFunc(shMain),
	})
}

func shMain(ctx context.Context, inv *applet.Invocation, argv []string) error {
	var command string

	fs := inv.FlagSet()
	fs.StringVarP(&command, "command", "c", "", "read commands from the SCRIPT string")
	fs.SetInterspersed(false)
	operands, err := inv.Parse(fs, argv[1:])
	if err != nil {
		return err
	}

	var (
		src       io.Reader
		name      string
		params    []string
		fromStdin bool
	)
	switch {
	case fs.Changed("command"):
		src, name = strings.NewReader(command), "sh"
		if len(operands) > 0 {
			name, params = operands[0], operands[1:]
		}
	case len(operands) > 0:
		f, err := os.Open(inv.Path(operands[0]))
		if err != nil {
			return fswalk.NewIOError("open", operands[0], err)
		}
		defer f.Close()
		src, name, params = f, operands[0], operands[1:]
	default:
		src, name, fromStdin = inv.Stdin, "sh", true
	}

	tty, isTTY := src.(*os.File)
	isTTY = isTTY && fromStdin && term.IsTerminal(int(tty.Fd()))

	stdin := inv.Stdin
	if fromStdin && !isTTY {
		// The script consumes standard input.
		stdin = nil
	}
	opts := []interp.RunnerOption{
		interp.StdIO(stdin, inv.Stdout, inv.Stderr),
		interp.Env(expand.ListEnviron(inv.Environ()...)),
		interp.Params(append([]string{"--"}, params...)...),
	}
	if inv.Dir != "" {
		opts = append(opts, interp.Dir(inv.Dir))
	}
	if inv.Config.Shell.BuiltinApplets {
		opts = append(opts, interp.ExecHandlers(appletExecHandler(inv)))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	parser := syntax.NewParser()
	if isTTY {
		return shellStatus(interactive(ctx, inv, parser, runner, tty))
	}

	prog, err := parser.Parse(src, name)
	if err != nil {
		return &applet.ExitError{Code: 2, Err: err}
	}
	return shellStatus(runner.Run(ctx, prog))
}

// appletExecHandler runs registered applets in-process, in the shell's
// current streams and directory. Other commands go to the next handler.
func appletExecHandler(inv *applet.Invocation) func(interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			desc, ok := inv.Dispatcher.Lookup(args[0])
			if !ok {
				return next(ctx, args)
			}

			hc := interp.HandlerCtx(ctx)
			env := applet.HandlerContext{
				Stdin:  hc.Stdin,
				Stdout: hc.Stdout,
				Stderr: hc.Stderr,
				Dir:    hc.Dir,
				LookupEnv: func(name string) (string, bool) {
					v := hc.Env.Get(name)
					if !v.Exported || !v.Set {
						return "", false
					}
					return v.String(), true
				},
				ListEnv: func() []string {
					return exportedVars(hc.Env)
				},
			}
			if env.Stdin == nil {
				env.Stdin = strings.NewReader("")
			}

			code := inv.Dispatcher.WithEnv(env).Dispatch(ctx, desc, args)
			if !code.IsSuccess() {
				return interp.ExitStatus(code.Status())
			}
			return nil
		}
	}
}

// exportedVars lists the variables a child process of the shell would see.
func exportedVars(env expand.Environ) []string {
	var pairs []string
	env.Each(func(name string, vr expand.Variable) bool {
		if vr.Exported && vr.Set {
			pairs = append(pairs, name+"="+vr.String())
		}
		return true
	})
	return pairs
}

// interactive reads and runs statements from a terminal until end of input
// or an exit builtin.
func interactive(ctx context.Context, inv *applet.Invocation, parser *syntax.Parser, runner *interp.Runner, tty *os.File) error {
	fmt.Fprint(inv.Stderr, "$ ")
	var runErr error
	err := parser.Interactive(tty, func(stmts []*syntax.Stmt) bool {
		if parser.Incomplete() {
			fmt.Fprint(inv.Stderr, "> ")
			return true
		}
		for _, stmt := range stmts {
			runErr = runner.Run(ctx, stmt)
			if runner.Exited() {
				return false
			}
		}
		fmt.Fprint(inv.Stderr, "$ ")
		return true
	})
	if err != nil {
		return err
	}
	return runErr
}

// shellStatus maps the interpreter result to the applet result.
func shellStatus(err error) error {
	if err == nil {
		return nil
	}
	var status interp.ExitStatus
	if errors.As(err, &status) {
		if status == 0 {
			return nil
		}
		return &applet.ExitError{Code: types.ExitCode(status)}
	}
	return err
}
