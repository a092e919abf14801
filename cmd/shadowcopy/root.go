package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shadowcopy",
		Short:         "Trace operations on documents through shadow wrappers",
		Long:          `shadowcopy loads a YAML or JSON document, wraps it with watching, guard and telemetry traps, and reports what each operation did.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newTraceCmd())
	root.AddCommand(newVersionCmd())
	return root
}
