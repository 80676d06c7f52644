package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/bit/pkg/consumer"
	"github.com/odvcencio/bit/pkg/scope"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var bare bool
	var name string

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create a workspace, or a bare scope with --bare",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			if err := os.MkdirAll(abs, 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}

			logger := newLogger(cmd.ErrOrStderr())
			if bare {
				if name == "" {
					name = filepath.Base(abs)
				}
				s, err := scope.Init(name, scope.Options{Path: abs, Logger: logger})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "initialized bare scope %q in %s\n", s.Name(), s.Path())
				return nil
			}

			c, err := consumer.Create(abs, consumer.Options{Logger: logger, ScopeName: name})
			if err != nil {
				return err
			}
			if err := c.Write(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized workspace with scope %q in %s\n", c.Scope().Name(), c.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&bare, "bare", false, "create a bare scope to serve as a remote")
	cmd.Flags().StringVar(&name, "name", "", "scope name (default: directory name)")
	return cmd
}
