// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/invowk/multicall/internal/applet"

	"github.com/spf13/cobra"
)

func newListCommand(app *App) *cobra.Command {
	var usage bool

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the available applets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listApplets(cmd.OutOrStdout(), app.Registry, usage)
			return nil
		},
	}
	listCmd.Flags().BoolVarP(&usage, "usage", "u", false, "show the usage line of each applet")

	return listCmd
}

// listApplets prints the applet names in sorted order, one per line, with
// their usage lines aligned in a second column when usage is set.
func listApplets(w io.Writer, reg *applet.Registry, usage bool) {
	names := reg.Names()
	if !usage {
		for _, name := range names {
			fmt.Fprintln(w, CmdStyle.Render(name))
		}
		return
	}

	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}
	for _, name := range names {
		desc, _ := reg.Lookup(name)
		pad := strings.Repeat(" ", width-len(name)+2)
		fmt.Fprintln(w, CmdStyle.Render(name)+pad+SubtitleStyle.Render(desc.Usage))
	}
}
