package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "auditctl",
		Short:        "Inspect audit report extraction offline",
		SilenceUsage: true,
	}
	root.PersistentFlags().Bool("debug", false, "Log every rejected candidate")

	root.AddCommand(newExtractCmd())
	root.AddCommand(newPromptCmd())
	return root
}
