/*
Package demux runs a decoder over a whole read file on a pool of goroutines and
counts how often each tag is seen in each taxon.
*/
package demux

import (
	"errors"
	"io"
	"runtime"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/gbs-tools/gogbs/pkg/decode"
	"github.com/gbs-tools/gogbs/pkg/fastq"
)

// Options configures a run
type Options struct {
	// Threads is the number of decoding goroutines. 0 means one per CPU.
	Threads int
	// Progress shows a running read count on stderr
	Progress bool
}

func (o Options) threads() int {
	if o.Threads <= 0 {
		return runtime.NumCPU()
	}
	return o.Threads
}

type outcome struct {
	tags []decode.EncodedRead
	err  error
}

// Run decodes every read in r and tallies the results
func Run(r io.Reader, d *decode.Decoder, opts Options) (*Result, error) {
	cRead := make(chan decode.Read, opts.threads())
	cReadDone := make(chan bool)
	cErr := make(chan error)

	go fastq.ReadReads(r, d.Config().Format, cRead, cErr, cReadDone)

	return run(d, opts, cErr, cReadDone, func(cOut chan outcome) {
		for rd := range cRead {
			er, err := d.Decode(rd)
			if err != nil {
				cOut <- outcome{err: err}
				continue
			}
			cOut <- outcome{tags: []decode.EncodedRead{er}}
		}
	}, func() { close(cRead) })
}

// RunPaired decodes every pair of reads in r1 and r2. Both tags of an accepted
// pair are counted.
func RunPaired(r1, r2 io.Reader, d *decode.Decoder, opts Options) (*Result, error) {
	cPair := make(chan fastq.Pair, opts.threads())
	cReadDone := make(chan bool)
	cErr := make(chan error)

	go fastq.ReadPairs(r1, r2, d.Config().Format, cPair, cErr, cReadDone)

	return run(d, opts, cErr, cReadDone, func(cOut chan outcome) {
		for p := range cPair {
			pr, err := d.DecodePair(p.Forward, p.Backward)
			if err != nil {
				cOut <- outcome{err: err}
				continue
			}
			cOut <- outcome{tags: []decode.EncodedRead{pr.Forward, pr.Backward}}
		}
	}, func() { close(cPair) })
}

func run(d *decode.Decoder, opts Options, cErr chan error, cReadDone chan bool, work func(chan outcome), closeIn func()) (*Result, error) {
	threads := opts.threads()
	log.Infof("decoding with %d threads, %d base tags", threads, d.Capacity())

	var bar *pb.ProgressBar
	if opts.Progress {
		bar = pb.Simple.Start64(0)
		defer bar.Finish()
	}

	cOut := make(chan outcome, threads)
	cWorkDone := make(chan bool)
	cTallyDone := make(chan bool)

	var wg sync.WaitGroup
	wg.Add(threads)
	for n := 0; n < threads; n++ {
		go func() {
			work(cOut)
			wg.Done()
		}()
	}
	go func() {
		wg.Wait()
		cWorkDone <- true
	}()

	res := newResult()
	go func() {
		for o := range cOut {
			res.add(o)
			if bar != nil {
				bar.Increment()
			}
		}
		cTallyDone <- true
	}()

	var readErr error
	select {
	case readErr = <-cErr:
	case <-cReadDone:
	}
	closeIn()

	<-cWorkDone
	close(cOut)
	<-cTallyDone

	if readErr != nil {
		return nil, readErr
	}

	res.log()

	return res, nil
}

func (res *Result) add(o outcome) {
	res.Reads++
	if o.err != nil {
		for _, r := range decode.Rejections {
			if errors.Is(o.err, r) {
				res.Rejected[r]++
				return
			}
		}
		res.Rejected[o.err]++
		return
	}
	res.Accepted++
	for _, er := range o.tags {
		res.count(er)
	}
}

func (res *Result) log() {
	log.Infof("%s reads, %s accepted, %s distinct tags in %s taxa",
		humanize.Comma(int64(res.Reads)),
		humanize.Comma(int64(res.Accepted)),
		humanize.Comma(int64(res.DistinctTags())),
		humanize.Comma(int64(len(res.Taxa()))))
	for _, r := range decode.Rejections {
		if n := res.Rejected[r]; n > 0 {
			log.WithField("reason", r.Error()).Infof("%s reads rejected", humanize.Comma(int64(n)))
		}
	}
}
