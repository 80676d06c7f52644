package main

import (
	"fmt"

	"github.com/odvcencio/bit/pkg/consumer"
	"github.com/odvcencio/bit/pkg/diff"
	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <box/name>",
		Short: "Show changes of an inline component since its latest version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := consumer.ParseInlineID(args[0])
			if err != nil {
				return err
			}
			c, err := openConsumer(cmd)
			if err != nil {
				return err
			}
			d, err := c.Diff(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), diff.Format(d))
			return nil
		},
	}
}
