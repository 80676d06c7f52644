package main

import (
	"fmt"

	"github.com/odvcencio/bit/pkg/consumer"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var opts consumer.ImportOptions

	cmd := &cobra.Command{
		Use:   "import [id]",
		Short: "Import a component, or every workspace dependency when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.ID = args[0]
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			c, err := openConsumer(cmd)
			if err != nil {
				return err
			}

			imported, err := c.ImportAction(cmd.Context(), opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(imported) == 0 {
				fmt.Fprintln(out, "nothing to import")
				return nil
			}
			for _, comp := range imported {
				fmt.Fprintf(out, "imported %s\n", comp.ID())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Save, "save", "s", false, "record the component in bit.json")
	cmd.Flags().BoolVarP(&opts.Tester, "tester", "t", false, "import as the workspace tester")
	cmd.Flags().BoolVarP(&opts.Compiler, "compiler", "c", false, "import as the workspace compiler")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose-import", "v", false, "log every imported component")
	return cmd
}
