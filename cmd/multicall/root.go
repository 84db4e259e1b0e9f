// SPDX-License-Identifier: MPL-2.0

// Package cmd is the multicall front end. It dispatches on the invocation name
// and falls back to the management CLI when invoked under its own name.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/config"
	"github.com/invowk/multicall/internal/issue"
	"github.com/invowk/multicall/internal/logging"
	"github.com/invowk/multicall/pkg/types"

	// Registers the applets in applet.DefaultRegistry.
	_ "github.com/invowk/multicall/internal/coreutils"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// App carries what the management commands share.
type App struct {
	Registry *applet.Registry
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer

	// Set by the root command before any subcommand runs.
	Config     *config.Config
	ConfigPath string
	Logger     *log.Logger

	cfgFile string
	verbose bool
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the binary with the process arguments and exits.
// This is called by main.main().
func Execute() {
	os.Exit(Run(context.Background(), os.Args).Status())
}

// Run selects between applet dispatch and the management CLI.
//
// An invocation name other than a configured self name runs the applet of
// that name. Under a self name, a first argument naming an applet runs that
// applet with the remaining arguments, busybox style.
func Run(ctx context.Context, argv []string) types.ExitCode {
	app := &App{
		Registry: applet.DefaultRegistry,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
	return app.run(ctx, argv)
}

func (a *App) run(ctx context.Context, argv []string) types.ExitCode {
	if len(argv) == 0 {
		argv = []string{config.AppName}
	}

	cfg, err := a.loadConfig(ctx, "")
	if !cfg.IsSelfName(applet.Basename(argv[0])) {
		a.warn(err)
		return a.dispatch(ctx, cfg, argv)
	}
	if len(argv) > 1 {
		if _, ok := a.Registry.Lookup(argv[1]); ok {
			a.warn(err)
			return a.dispatch(ctx, cfg, argv[1:])
		}
	}
	// The root command reloads with --config and reports its own failures.
	return a.execute(ctx, argv[1:])
}

// dispatch runs an applet. An interrupt cancels the applet's context.
func (a *App) dispatch(ctx context.Context, cfg *config.Config, argv []string) types.ExitCode {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	d := applet.NewDispatcher(a.Registry, cfg, logging.New(a.Stderr, cfg.Log.Level))
	d.Env.Stdin, d.Env.Stdout, d.Env.Stderr = a.Stdin, a.Stdout, a.Stderr
	return d.Run(ctx, argv)
}

// execute runs the management CLI with args.
func (a *App) execute(ctx context.Context, args []string) types.ExitCode {
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	if err := fang.Execute(
		ctx,
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return applet.ExitFailure
	}
	return 0
}

func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   config.AppName,
		Short: "A multi-call binary of UNIX utilities",
		Long: TitleStyle.Render(config.AppName) + SubtitleStyle.Render(" - A multi-call binary of UNIX utilities") + `

multicall acts as the utility it is invoked as. A link named 'cat'
pointing at the binary behaves like cat; so does 'multicall cat'.

` + SubtitleStyle.Render("Examples:") + `
  multicall list                  List the available applets
  multicall ls -l                 Run the ls applet
  multicall install ~/bin         Link every applet into ~/bin
  multicall config show           Show the current configuration`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg, err := app.loadConfig(cmd.Context(), app.cfgFile)
			app.warn(err)
			app.Config = cfg
			level := app.Config.Log.Level
			if app.verbose {
				level = config.LogLevelDebug
			}
			app.Logger = logging.New(app.Stderr, level)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.cfgFile, "config", "", "config file (default is $HOME/.config/multicall/config.cue)")

	rootCmd.AddCommand(newListCommand(app))
	rootCmd.AddCommand(newInstallCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// loadConfig loads the configuration from path, $MULTICALL_CONFIG, or the
// default locations, in that order. On failure it returns the defaults along
// with the error.
func (a *App) loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv(config.EnvConfigFile)
	}
	cfg, cfgPath, err := config.Load(ctx, config.LoadOptions{ConfigFilePath: path})
	if err != nil {
		a.ConfigPath = ""
		return config.DefaultConfig(), err
	}
	a.ConfigPath = cfgPath
	return cfg, nil
}

// warn surfaces a config loading error without stopping the run.
func (a *App) warn(err error) {
	if err != nil {
		fmt.Fprintln(a.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, a.verbose))
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
