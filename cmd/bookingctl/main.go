// Command bookingctl runs maintenance tasks against the booking database.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "bookingctl",
		Short:        "Maintenance commands for the booking service",
		SilenceUsage: true,
	}
	root.AddCommand(migrateCmd())
	root.AddCommand(createAdminCmd())
	root.AddCommand(resetPasswordsCmd())
	return root
}
