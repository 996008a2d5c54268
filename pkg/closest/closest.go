/*
Package closest finds, for every query tag, the reference tags it is homologous
to within a bounded number of substitutions
*/
package closest

import (
	"bufio"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/gbs-tools/gogbs/pkg/align"
	"github.com/gbs-tools/gogbs/pkg/encoding"
	"github.com/gbs-tools/gogbs/pkg/fastaio"
	"github.com/gbs-tools/gogbs/pkg/homology"
	"github.com/gbs-tools/gogbs/pkg/sam"
)

// Options configures a search
type Options struct {
	// TagWords is the number of 32-base words every tag is packed to
	TagWords      int
	Index         homology.Options
	MaxDivergence int
	// BestOnly keeps only the matches at the smallest divergence
	BestOnly bool
	// Number caps how many matches are reported per query. 0 means all.
	Number int
	// Align refines every reported match with a local alignment
	Align bool
	// SAM, if set, receives the alignments in SAM format. It implies Align.
	SAM     io.Writer
	Threads int
}

// DefaultOptions searches 64 base tags for references within 3 substitutions
func DefaultOptions() Options {
	return Options{
		TagWords:      2,
		Index:         homology.DefaultOptions(),
		MaxDivergence: 3,
	}
}

type match struct {
	tname      string
	tidx       int
	divergence int
	aln        align.Alignment
}

type resultsStruct struct {
	query   fastaio.TagRecord
	matches []match
}

func findClosest(idx *homology.Index, targets []fastaio.TagRecord, opts Options, cIn chan fastaio.TagRecord, cOut chan resultsStruct) {
	for query := range cIn {
		hits := idx.Query(query.Words, opts.MaxDivergence, opts.BestOnly)

		matches := make([]match, 0, len(hits))
		for t, d := range hits {
			matches = append(matches, match{tname: targets[t].ID, tidx: t, divergence: d})
		}
		matches = keepClosest(matches, opts.Number)

		if opts.Align {
			q := trimmed(query)
			for i := range matches {
				matches[i].aln = align.Align(q, trimmed(targets[matches[i].tidx]))
			}
		}

		cOut <- resultsStruct{query: query, matches: matches}
	}
}

func trimmed(tr fastaio.TagRecord) string {
	return tr.Seq[:tr.Length]
}

func writeResult(w io.Writer, r resultsStruct, withAlign bool) error {
	names := make([]string, len(r.matches))
	divs := make([]string, len(r.matches))
	scores := make([]string, len(r.matches))
	cigars := make([]string, len(r.matches))
	for i, m := range r.matches {
		names[i] = m.tname
		divs[i] = strconv.Itoa(m.divergence)
		scores[i] = strconv.Itoa(m.aln.Score)
		cigars[i] = m.aln.Cigar.String()
	}

	line := r.query.ID + "," + strings.Join(names, ";") + "," + strings.Join(divs, ";")
	if withAlign {
		line += "," + strings.Join(scores, ";") + "," + strings.Join(cigars, ";")
	}
	_, err := w.Write([]byte(line + "\n"))
	return err
}

func writeSAM(sw *sam.Writer, r resultsStruct) error {
	hits := make([]sam.Hit, len(r.matches))
	for i, m := range r.matches {
		hits[i] = sam.Hit{Target: m.tidx, Divergence: m.divergence, Alignment: m.aln}
	}
	return sw.Write(r.query, hits)
}

// writeClosest writes results in query order as they arrive
func writeClosest(ch chan resultsStruct, w io.Writer, withAlign bool, sw *sam.Writer, cDone chan bool, cErr chan error) {
	outputMap := make(map[int]resultsStruct)
	counter := 0

	// keep draining ch after an error so the workers can finish
	var err error
	for r := range ch {
		outputMap[r.query.Idx] = r
		for {
			next, ok := outputMap[counter]
			if !ok {
				break
			}
			if err == nil {
				err = writeResult(w, next, withAlign)
			}
			if err == nil && sw != nil {
				err = writeSAM(sw, next)
			}
			delete(outputMap, counter)
			counter++
		}
	}

	if err != nil {
		cErr <- err
		return
	}
	cDone <- true
}

// Closest indexes the reference tags in target, then writes one csv line per
// tag in query: its matching references and their divergences.
func Closest(query, target io.Reader, out io.Writer, opts Options) error {
	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if opts.SAM != nil {
		opts.Align = true
	}
	if opts.TagWords < 1 {
		return fmt.Errorf("tag length must be at least one word, got %d", opts.TagWords)
	}
	capacity := opts.TagWords * encoding.BasesPerWord

	targets, err := fastaio.ReadTagsToList(target, capacity)
	if err != nil {
		return err
	}

	words := make([][]uint64, len(targets))
	for i, t := range targets {
		words[i] = t.Words
	}
	idx, err := homology.Build(words, opts.Index)
	if err != nil {
		return err
	}
	log.Infof("indexed %s reference tags: %s sub-words, %s over-represented sub-words dropped",
		humanize.Comma(int64(idx.TagCount())),
		humanize.Comma(int64(idx.Len())),
		humanize.Comma(int64(idx.Excluded())))

	var sw *sam.Writer
	if opts.SAM != nil {
		sw, err = sam.NewWriter(opts.SAM, targets)
		if err != nil {
			return err
		}
	}

	bw := bufio.NewWriter(out)
	header := "query,matches,divergence"
	if opts.Align {
		header += ",score,cigar"
	}
	if _, err := bw.WriteString(header + "\n"); err != nil {
		return err
	}

	cErr := make(chan error)
	cQuery := make(chan fastaio.TagRecord, threads)
	cQueryDone := make(chan bool)
	cResults := make(chan resultsStruct, threads)
	cWriteDone := make(chan bool)

	go fastaio.ReadTags(query, capacity, cQuery, cErr, cQueryDone)

	var wg sync.WaitGroup
	wg.Add(threads)
	for n := 0; n < threads; n++ {
		go func() {
			findClosest(idx, targets, opts, cQuery, cResults)
			wg.Done()
		}()
	}

	go writeClosest(cResults, bw, opts.Align, sw, cWriteDone, cErr)

	// the reader sends nothing after its error or done signal
	var readErr error
	select {
	case readErr = <-cErr:
	case <-cQueryDone:
	}
	close(cQuery)

	wg.Wait()
	close(cResults)

	var writeErr error
	select {
	case writeErr = <-cErr:
	case <-cWriteDone:
	}

	if readErr != nil {
		return readErr
	}
	if writeErr != nil {
		return writeErr
	}
	return bw.Flush()
}
