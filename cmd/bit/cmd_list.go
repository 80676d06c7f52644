package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var inline bool
	var scopeName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workspace or scope components",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsumer(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch {
			case inline:
				comps, err := c.ListInline()
				if err != nil {
					return err
				}
				for _, comp := range comps {
					fmt.Fprintf(out, "%s/%s\n", comp.Box, comp.Name)
				}
			case cmd.Flags().Changed("scope"):
				records, err := c.Scope().List(strings.TrimSpace(scopeName))
				if err != nil {
					return err
				}
				for _, rec := range records {
					fmt.Fprintf(out, "%s\t%v\n", rec.BitID(rec.Latest()), rec.VersionNumbers())
				}
			default:
				ids, err := c.ListComponents()
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&inline, "inline", "i", false, "list inline components")
	cmd.Flags().StringVar(&scopeName, "scope", "", "list the components a scope holds (\"\" for the local scope)")
	return cmd
}
