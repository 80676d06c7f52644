package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	var inline bool

	cmd := &cobra.Command{
		Use:   "remove [--inline] <id>",
		Short: "Remove a component from the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsumer(cmd)
			if err != nil {
				return err
			}
			if err := c.Remove(args[0], inline); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&inline, "inline", "i", false, "remove an inline component")
	return cmd
}
