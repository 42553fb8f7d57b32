package main

import (
	"os"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

func main() {
	root := &cobra.Command{
		Use:           "tradesim",
		Short:         "Deterministic trade scenario runner",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand())

	if err := root.Execute(); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
