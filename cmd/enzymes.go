package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gbs-tools/gogbs/pkg/enzyme"
)

func init() {
	rootCmd.AddCommand(enzymesCmd)
}

var enzymesCmd = &cobra.Command{
	Use:   "enzymes",
	Short: "List the supported restriction enzymes",
	Long: `List the supported restriction enzymes, one per line.

Names are matched without regard to case, and the roman numeral I may be written as 1,
e.g. apek1 for ApeKI. Double digests are written with a dash, e.g. PstI-MspI.`,

	RunE: func(cmd *cobra.Command, args []string) (err error) {
		for _, name := range enzyme.Names() {
			if _, err = fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
				return
			}
		}
		return
	},
}
