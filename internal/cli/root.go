// Package cli holds the jarde command line tool.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the jarde root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jarde",
		Short: "Warehouse stock reconciliation",
		Long: `jarde replays approved check-ins and check-outs for a date range and
reports the expected quantity of every product and variant, optionally
compared with a physical count sheet.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.AddCommand(newReportCmd())
	return cmd
}
