package main

import (
	"fmt"

	"github.com/odvcencio/bit/pkg/consumer"
	"github.com/spf13/cobra"
)

func newCreateCmd() *cobra.Command {
	var withSpecs bool
	var withBitJSON bool

	cmd := &cobra.Command{
		Use:   "create <box/name>",
		Short: "Scaffold a new inline component",
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
			if _, err := c.CreateBit(consumer.CreateOptions{ID: id, WithSpecs: withSpecs, WithBitJSON: withBitJSON}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created inline component %s\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&withSpecs, "specs", "s", false, "scaffold a spec file")
	cmd.Flags().BoolVarP(&withBitJSON, "json", "j", false, "write a component bit.json")
	return cmd
}
