package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the installation prefix and the working area",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledgerOnly, _ := cmd.Flags().GetBool("ledger")
			return c.app.Clean(cmd.Context(), app.CleanOptions{
				ConfigPath: configPath(cmd),
				LedgerOnly: ledgerOnly,
			})
		},
	}

	cmd.Flags().BoolP("ledger", "l", false, "Only forget which targets were built, keep downloads and the prefix")

	return cmd
}
