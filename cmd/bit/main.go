package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/odvcencio/bit/pkg/object"
	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(reportError(os.Stderr, err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bit",
		Short:         "Component package manager on a content-addressed scope",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "log debug output to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newCreateCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newCommitCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newRemoveCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newCatObjectCmd())
	root.AddCommand(newRemoteCmd())
	root.AddCommand(newConfigCmd())
	return root
}

// reportError prints err and returns the process exit code. A corrupt or
// incomplete object store is fatal and exits 2.
func reportError(w io.Writer, err error) int {
	if errors.Is(err, object.ErrConsistency) || errors.Is(err, object.ErrDecode) {
		fmt.Fprintf(w, "fatal: %v\n", err)
		return 2
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "bit 0.1.0-dev")
		},
	}
}
