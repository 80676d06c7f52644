package main

import (
	"fmt"

	"github.com/odvcencio/bit/pkg/consumer"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config <key> [value]",
		Short: "Get or set user settings (user.name, user.email)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := consumer.GlobalConfigPath()
			if err != nil {
				return err
			}
			cfg, err := consumer.LoadGlobalConfig(path)
			if err != nil {
				return err
			}

			var field *string
			switch args[0] {
			case "user.name":
				field = &cfg.User.Name
			case "user.email":
				field = &cfg.User.Email
			default:
				return fmt.Errorf("%w: unknown config key %q", consumer.ErrValidation, args[0])
			}

			if len(args) == 1 {
				fmt.Fprintln(cmd.OutOrStdout(), *field)
				return nil
			}
			*field = args[1]
			return cfg.Save(path)
		},
	}
}
