package cmd

import (
	"errors"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gbs-tools/gogbs/pkg/decode"
	"github.com/gbs-tools/gogbs/pkg/demux"
	"github.com/gbs-tools/gogbs/pkg/fastaio"
	"github.com/gbs-tools/gogbs/pkg/gfio"
)

var decodeKeyfile string
var decodeFlowcell string
var decodeLane string
var decodeEnzyme string
var decodeFastq string
var decodeFastq2 string
var decodeFormat string
var decodeMinQuality int
var decodeQualityOffset int
var decodeMismatches int
var decodeTagWords int
var decodeThreads int
var decodeOutfile string
var decodeNumpy string
var decodeProgress bool

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().StringVarP(&decodeKeyfile, "keyfile", "k", "", "Tab-delimited key file of barcodes and samples")
	decodeCmd.Flags().StringVarP(&decodeFlowcell, "flowcell", "", "", "Flowcell of the reads")
	decodeCmd.Flags().StringVarP(&decodeLane, "lane", "", "", "Lane of the reads")
	decodeCmd.Flags().StringVarP(&decodeEnzyme, "enzyme", "e", "", "Restriction enzyme (default: the key file's Enzyme column)")
	decodeCmd.Flags().StringVarP(&decodeFastq, "fastq", "i", "stdin", "Reads to decode, optionally gzipped")
	decodeCmd.Flags().StringVarP(&decodeFastq2, "fastq2", "", "", "Mates of the reads in --fastq, for paired-end decoding")
	decodeCmd.Flags().StringVarP(&decodeFormat, "format", "", "fastq", "Read format: fastq or qseq")
	decodeCmd.Flags().IntVarP(&decodeMinQuality, "min-quality", "", 0, "Reject reads with a base below this quality in the barcode and tag (0 disables)")
	decodeCmd.Flags().IntVarP(&decodeQualityOffset, "quality-offset", "", decode.DefaultConfig().QualityOffset, "ASCII offset of quality scores")
	decodeCmd.Flags().IntVarP(&decodeMismatches, "mismatches", "m", 0, "Mismatches allowed in barcode and overhang")
	decodeCmd.Flags().IntVarP(&decodeTagWords, "tag-words", "", decode.DefaultConfig().TagWords, "Tag length in 32-base words")
	decodeCmd.Flags().IntVarP(&decodeThreads, "threads", "t", 1, "Number of threads to use")
	decodeCmd.Flags().StringVarP(&decodeOutfile, "outfile", "o", "stdout", "Tag counts to write, as tsv")
	decodeCmd.Flags().StringVarP(&decodeNumpy, "numpy", "", "", "Also write the taxa x tags count matrix to this .npy file")
	decodeCmd.Flags().BoolVarP(&decodeProgress, "progress", "", false, "Show a running count of reads")
}

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Demultiplex GBS reads and count tags per sample",
	Long: `Demultiplex GBS reads and count tags per sample.

Example usage:
	gogbs decode -k key.txt --flowcell C08L7ACXX --lane 1 -i reads.fastq.gz -t 4 -o counts.tsv

Each read is assigned to a sample by its barcode, trimmed at the next cut site or adapter,
and counted. The output is a tsv-format file with columns taxon, tag, length and count.

With --numpy, the counts are also written as an int32 matrix with one row per taxon and one
column per tag. The row names are written to <numpy>.taxa.txt and the column tags, in order,
to <numpy>.tags.fasta.`,

	RunE: func(cmd *cobra.Command, args []string) (err error) {

		if decodeKeyfile == "" || decodeFlowcell == "" || decodeLane == "" {
			return errors.New("--keyfile, --flowcell and --lane are required")
		}

		format, err := decode.ParseFormat(decodeFormat)
		if err != nil {
			return err
		}

		cfg := decode.Config{
			TagWords:           decodeTagWords,
			MinQuality:         decodeMinQuality,
			QualityOffset:      decodeQualityOffset,
			MaxBarcodeMismatch: decodeMismatches,
			Format:             format,
		}

		keys, err := gfio.OpenIn(*cmd.Flag("keyfile"))
		if err != nil {
			return err
		}
		d, err := demux.NewLaneDecoder(keys, decodeFlowcell, decodeLane, decodeEnzyme, cfg)
		keys.Close()
		if err != nil {
			return err
		}

		reads, err := gfio.OpenIn(*cmd.Flag("fastq"))
		if err != nil {
			return err
		}
		defer reads.Close()

		opts := demux.Options{Threads: decodeThreads, Progress: decodeProgress}

		var res *demux.Result
		if decodeFastq2 == "" {
			res, err = demux.Run(reads, d, opts)
		} else {
			var mates io.ReadCloser
			mates, err = gfio.OpenIn(*cmd.Flag("fastq2"))
			if err != nil {
				return err
			}
			defer mates.Close()
			res, err = demux.RunPaired(reads, mates, d, opts)
		}
		if err != nil {
			return err
		}

		out, err := gfio.OpenOut(*cmd.Flag("outfile"))
		if err != nil {
			return err
		}
		defer out.Close()

		if err = res.WriteTagCounts(out); err != nil {
			return err
		}

		if decodeNumpy != "" {
			err = writeNumpy(res, decodeNumpy)
		}

		return
	},
}

func writeNumpy(res *demux.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	taxa, tags, err := res.WriteNumpy(f)
	if err != nil {
		return err
	}

	rows, err := os.Create(path + ".taxa.txt")
	if err != nil {
		return err
	}
	defer rows.Close()
	for _, t := range taxa {
		if _, err := io.WriteString(rows, t+"\n"); err != nil {
			return err
		}
	}

	cols, err := os.Create(path + ".tags.fasta")
	if err != nil {
		return err
	}
	defer cols.Close()
	if err := fastaio.WriteTags(cols, tags); err != nil {
		return err
	}

	log.Infof("wrote %d x %d count matrix to %s", len(taxa), len(tags), path)

	return nil
}
