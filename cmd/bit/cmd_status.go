package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which inline components are new or modified",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsumer(cmd)
			if err != nil {
				return err
			}
			entries, err := c.Status(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "no inline components")
				return nil
			}
			for _, e := range entries {
				if e.Latest.IsZero() {
					fmt.Fprintf(out, "%-10s %s\n", e.State, e.ID)
					continue
				}
				fmt.Fprintf(out, "%-10s %s (latest %s)\n", e.State, e.ID, e.Latest)
			}
			return nil
		},
	}
}
