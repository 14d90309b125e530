package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/cictl/internal/config"
)

var configCmd = newConfigCmd()

func newConfigCmd() *cobra.Command {
	var (
		output   string
		force    bool
		validate string
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write the starter cictl.toml or validate an existing one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if validate != "" {
				if _, err := config.Load(validate); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", validate)
				return nil
			}
			if err := config.WriteTemplate(output, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&output, "output", config.DefaultFile, "where to write the starter config")
	fl.BoolVar(&force, "force", false, "overwrite an existing config file")
	fl.StringVar(&validate, "validate", "", "validate this config file instead of writing one")
	return cmd
}
