package main

import (
	"github.com/odvcencio/bit/pkg/consumer"
	"github.com/spf13/cobra"
)

// openConsumer loads the workspace enclosing the current directory.
func openConsumer(cmd *cobra.Command) (*consumer.Consumer, error) {
	return consumer.Load(".", consumer.Options{Logger: newLogger(cmd.ErrOrStderr())})
}
