package main

import (
	"fmt"
	"strings"

	"github.com/odvcencio/bit/pkg/object"
	"github.com/spf13/cobra"
)

func newCatObjectCmd() *cobra.Command {
	var kindOnly bool

	cmd := &cobra.Command{
		Use:   "cat-object <ref>",
		Short: "Print a stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := object.ParseRef(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			c, err := openConsumer(cmd)
			if err != nil {
				return err
			}
			rec, err := c.Scope().Repository().LoadSync(ref)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if kindOnly {
				fmt.Fprintln(out, rec.Kind())
				return nil
			}
			content, err := rec.Content()
			if err != nil {
				return err
			}
			out.Write(content)
			if len(content) > 0 && content[len(content)-1] != '\n' {
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&kindOnly, "type", "t", false, "print only the record kind")
	return cmd
}
