package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <id> <remote>",
		Short: "Push a committed component to a remote scope",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsumer(cmd)
			if err != nil {
				return err
			}
			comp, err := c.ExportAction(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s\n", comp.ID())
			return nil
		},
	}
}
