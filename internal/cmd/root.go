package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the pbxd command tree, mirroring the teacher's
// internal/cmd.NewRootCmd: a bare root command whose only job is to host
// subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pbxd",
		Short: "HTTP bridge between JSON/XML clients and an Avaya Communication Manager SAT session",
	}

	cmd.AddCommand(newServeCmd())
	return cmd
}
