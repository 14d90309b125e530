package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	var f selectionFlags
	var configPath string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the directories a run would select, one per line",
		Long: `list performs event interpretation, change resolution, gating, and
selection exactly like run, then prints the sorted directory set
without executing anything. The working tree is never modified; a
--head ref is resolved but not checked out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			sel, _, err := w.selection(cmd.Context(), cmd, &f, false)
			if err != nil {
				return err
			}
			for _, dir := range sel.Dirs {
				fmt.Fprintln(cmd.OutOrStdout(), dir)
			}
			return nil
		},
	}
	addSelectionFlags(cmd, &f)
	cmd.Flags().StringVar(&configPath, "config", "", "config file path (default <root>/cictl.toml)")
	return cmd
}
