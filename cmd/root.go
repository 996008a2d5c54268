package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootQuiet bool

var (
	rootCmd = &cobra.Command{
		Use:     "gogbs",
		Short:   "demultiplexing and tag homology for genotyping-by-sequencing reads",
		Long:    `demultiplexing and tag homology for genotyping-by-sequencing reads`,
		Version: "0.1.0",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(os.Stderr)
			if rootQuiet {
				log.SetLevel(log.WarnLevel)
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootQuiet, "quiet", "", false, "Only log warnings and errors")
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
