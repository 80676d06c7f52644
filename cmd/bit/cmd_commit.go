package main

import (
	"fmt"

	"github.com/odvcencio/bit/pkg/consumer"
	"github.com/spf13/cobra"
)

func newCommitCmd() *cobra.Command {
	var message string
	var force bool

	cmd := &cobra.Command{
		Use:   "commit <box/name>",
		Short: "Version an inline component into the scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}
			id, err := consumer.ParseInlineID(args[0])
			if err != nil {
				return err
			}
			c, err := openConsumer(cmd)
			if err != nil {
				return err
			}

			comp, err := c.Commit(cmd.Context(), id, consumer.CommitOptions{Message: message, Force: force})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", comp.ID(), message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "commit even when nothing changed")
	return cmd
}
