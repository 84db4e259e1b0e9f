// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/invowk/multicall/internal/applet"
	"github.com/invowk/multicall/internal/issue"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type (
	// installOptions controls how applet links are created.
	installOptions struct {
		dir      string
		hardlink bool
		force    bool
	}

	// installResult lists what an install run did.
	installResult struct {
		installed []string
		skipped   []string
	}
)

func newInstallCommand(app *App) *cobra.Command {
	var opts installOptions

	installCmd := &cobra.Command{
		Use:   "install [DIR]",
		Short: "Link every applet name to this binary",
		Long: `Create one link per applet in DIR, each pointing at this binary.

DIR defaults to install.dir from the configuration. Existing files are left
alone unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.dir = args[0]
			} else {
				opts.dir = app.Config.Install.Dir
			}
			if !cmd.Flags().Changed("hardlink") {
				opts.hardlink = app.Config.Install.Hardlink
			}

			exe, err := executablePath()
			if err != nil {
				return err
			}

			res, err := installApplets(app.Registry, exe, opts, app.Logger)
			out := cmd.OutOrStdout()
			for _, name := range res.skipped {
				fmt.Fprintln(out, WarningStyle.Render("Skipped: ")+name+SubtitleStyle.Render(" (exists)"))
			}
			fmt.Fprintln(out, SuccessStyle.Render(fmt.Sprintf("Installed %d applets in %s", len(res.installed), opts.dir)))
			if err != nil {
				return &ExitError{Code: applet.ExitFailure, Err: err}
			}
			return nil
		},
	}
	installCmd.Flags().BoolVar(&opts.hardlink, "hardlink", false, "create hard links instead of symbolic links")
	installCmd.Flags().BoolVarP(&opts.force, "force", "f", false, "replace existing files")

	return installCmd
}

// executablePath returns the resolved path of the running binary.
func executablePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate the executable: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve the executable: %w", err)
	}
	return resolved, nil
}

// installApplets links every registered applet name in opts.dir to exe.
// Link failures do not stop the run; they are joined into the returned error.
func installApplets(reg *applet.Registry, exe string, opts installOptions, logger *log.Logger) (installResult, error) {
	var (
		res  installResult
		errs []error
	)

	if err := os.MkdirAll(opts.dir, 0o755); err != nil {
		return res, issue.WrapWithContext(err, "create install directory", opts.dir)
	}

	res.installed = make([]string, 0, reg.Len())
	for _, name := range reg.Names() {
		link := filepath.Join(opts.dir, name)

		if _, err := os.Lstat(link); err == nil {
			if !opts.force {
				res.skipped = append(res.skipped, name)
				continue
			}
			if err := os.Remove(link); err != nil {
				errs = append(errs, issue.WrapWithContext(err, "replace", link))
				continue
			}
		}

		var err error
		if opts.hardlink {
			err = os.Link(exe, link)
		} else {
			err = os.Symlink(exe, link)
		}
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				err = issue.NewErrorContext().
					WithOperation("create link").
					WithResource(link).
					WithSuggestion("Choose a directory you can write to").
					WithSuggestion("Run the install as a user allowed to write to " + opts.dir).
					Wrap(err).
					BuildError()
			} else {
				err = issue.WrapWithContext(err, "create link", link)
			}
			errs = append(errs, err)
			continue
		}
		if logger != nil {
			logger.Debug("installed", "applet", name, "link", link, "hardlink", opts.hardlink)
		}
		res.installed = append(res.installed, name)
	}

	return res, errors.Join(errs...)
}
