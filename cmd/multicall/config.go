// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/invowk/multicall/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `multicall config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage multicall configuration",
		Long: `Manage multicall configuration.

The first file found is used:
  - the --config flag or $MULTICALL_CONFIG
  - $XDG_CONFIG_HOME/multicall/config.cue (~/.config/multicall/config.cue)
  - /etc/multicall/config.cue

Every setting can be overridden with a MULTICALL_ environment variable,
e.g. MULTICALL_LOG_LEVEL=debug.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			showConfig(cmd.OutOrStdout(), app.Config, app.ConfigPath)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(app.Config))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(cmd.OutOrStdout(), app.ConfigPath)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Configuration file: ")+path)
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config, path string) {
	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	if path != "" {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	value := func(v any) string { return SuccessStyle.Render(fmt.Sprint(v)) }
	pager := value(cfg.Pager.Lines)
	if cfg.Pager.Lines == 0 {
		pager = SubtitleStyle.Render("(terminal height)")
	}

	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("log.level"), value(cfg.Log.Level))
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("self_names"), value(strings.Join(cfg.SelfNames, ", ")))
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("install.dir"), value(cfg.Install.Dir))
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("install.hardlink"), value(cfg.Install.Hardlink))
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("shell.builtin_applets"), value(cfg.Shell.BuiltinApplets))
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("accounts.passwd_file"), value(cfg.Accounts.PasswdFile))
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("accounts.group_file"), value(cfg.Accounts.GroupFile))
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("mounts.table"), value(cfg.Mounts.Table))
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("pager.lines"), pager)
}

// showConfigPath prints the file in use, or where a new per-user file would go.
func showConfigPath(w io.Writer, path string) error {
	if path != "" {
		fmt.Fprintln(w, path)
		return nil
	}

	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, cfgDir+"/"+config.ConfigFileName+"."+config.ConfigFileExt)
	fmt.Fprintln(w, SubtitleStyle.Render("(file does not exist, using defaults)"))
	return nil
}
