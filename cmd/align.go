package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gbs-tools/gogbs/pkg/align"
)

var alignSeqA string
var alignSeqB string
var alignTraceback bool

func init() {
	rootCmd.AddCommand(alignCmd)

	alignCmd.Flags().StringVarP(&alignSeqA, "seq-a", "a", "", "Query sequence")
	alignCmd.Flags().StringVarP(&alignSeqB, "seq-b", "b", "", "Reference sequence")
	alignCmd.Flags().BoolVarP(&alignTraceback, "traceback", "", false, "Also print the aligned sequences and the query's CIGAR")
}

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Smith-Waterman local alignment score of two sequences",
	Long: `Smith-Waterman local alignment score of two sequences.

Matches score 2, mismatches 0 and each gap base -1.

Example usage:
	gogbs align -a CAGCTTACGGATTTG -b CAGCTTACGATTTG --traceback`,

	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a := strings.ToUpper(alignSeqA)
		b := strings.ToUpper(alignSeqB)
		w := cmd.OutOrStdout()

		if !alignTraceback {
			_, err = fmt.Fprintln(w, align.Score(a, b))
			return
		}

		aln := align.Align(a, b)
		_, err = fmt.Fprintf(w, "score\t%d\na\t%d\t%s\nb\t%d\t%s\ncigar\t%s\n",
			aln.Score, aln.AStart, aln.A, aln.BStart, aln.B, aln.Cigar.String())
		return
	},
}
