package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gbs-tools/gogbs/pkg/closest"
	"github.com/gbs-tools/gogbs/pkg/gfio"
	"github.com/gbs-tools/gogbs/pkg/homology"
)

var closestThreads int
var closestQuery string
var closestTarget string
var closestOutfile string
var closestWordLength int
var closestMaxDup int
var closestMaxDivergence int
var closestTagWords int
var closestBest bool
var closestNumber int
var closestAlign bool
var closestSAM string

func init() {
	rootCmd.AddCommand(closestCmd)

	closestCmd.Flags().IntVarP(&closestThreads, "threads", "t", 1, "Number of threads to use")
	closestCmd.Flags().StringVarP(&closestQuery, "query", "q", "stdin", "Tags to find matches for, in fasta format")
	closestCmd.Flags().StringVarP(&closestTarget, "target", "", "", "Reference tags to search for matches in, in fasta format")
	closestCmd.Flags().StringVarP(&closestOutfile, "outfile", "o", "stdout", "The output file to write")
	closestCmd.Flags().IntVarP(&closestWordLength, "word-length", "", homology.DefaultWordLength, "Length of the indexed sub-words, in bases (must divide 32)")
	closestCmd.Flags().IntVarP(&closestMaxDup, "max-dup", "", homology.DefaultMaxDuplicates, "Drop sub-words found more often than this")
	closestCmd.Flags().IntVarP(&closestMaxDivergence, "max-divergence", "d", 3, "Most substitutions between a query and a match")
	closestCmd.Flags().IntVarP(&closestTagWords, "tag-words", "", 2, "Tag length in 32-base words")
	closestCmd.Flags().BoolVarP(&closestBest, "best", "", false, "Only report the matches at the smallest divergence")
	closestCmd.Flags().IntVarP(&closestNumber, "number", "n", 0, "Report at most this many matches per query (0 for all)")
	closestCmd.Flags().BoolVarP(&closestAlign, "align", "", false, "Add Smith-Waterman score and CIGAR columns for every match")
	closestCmd.Flags().StringVarP(&closestSAM, "sam", "", "", "Also write the alignments of every match to this SAM file (implies --align)")
}

var closestCmd = &cobra.Command{
	Use:   "closest",
	Short: "Find the reference tags homologous to each query tag",
	Long: `Find the reference tags homologous to each query tag.

Example usage:
	gogbs closest --target reference_tags.fasta -q query_tags.fasta -d 2 -o closest.csv

The output is a csv-format file with one line per query, in input order, and columns
query, matches and divergence. Matches are ';'-delimited reference tag names, closest first,
and divergence is the matching ';'-delimited list of substitution counts. With --align,
score and cigar columns are added. With --sam, each query's matches are also written as SAM
records against the reference tags, the closest as the primary alignment.`,

	RunE: func(cmd *cobra.Command, args []string) (err error) {

		query, err := gfio.OpenIn(*cmd.Flag("query"))
		if err != nil {
			return err
		}
		defer query.Close()

		target, err := gfio.OpenIn(*cmd.Flag("target"))
		if err != nil {
			return err
		}
		defer target.Close()

		out, err := gfio.OpenOut(*cmd.Flag("outfile"))
		if err != nil {
			return err
		}
		defer out.Close()

		opts := closest.Options{
			TagWords: closestTagWords,
			Index: homology.Options{
				WordLength:    closestWordLength,
				MaxDuplicates: closestMaxDup,
			},
			MaxDivergence: closestMaxDivergence,
			BestOnly:      closestBest,
			Number:        closestNumber,
			Align:         closestAlign,
			Threads:       closestThreads,
		}

		if closestSAM != "" {
			samOut, err := gfio.OpenOut(*cmd.Flag("sam"))
			if err != nil {
				return err
			}
			defer samOut.Close()
			opts.SAM = samOut
		}

		err = closest.Closest(query, target, out, opts)

		return
	},
}
