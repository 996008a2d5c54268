package demux

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/kshedden/gonpy"

	"github.com/gbs-tools/gogbs/pkg/barcode"
	"github.com/gbs-tools/gogbs/pkg/decode"
	"github.com/gbs-tools/gogbs/pkg/enzyme"
	"github.com/gbs-tools/gogbs/pkg/keyfile"
)

func newTestDecoder(t *testing.T) *decode.Decoder {
	p, err := enzyme.Get("ApeKI")
	if err != nil {
		t.Fatal(err)
	}
	rows := []keyfile.Row{
		{Flowcell: "FC1", Lane: "1", Barcode: "CTCC", Sample: "B73", LibraryPrepID: "1"},
		{Flowcell: "FC1", Lane: "1", Barcode: "TGCA", Sample: "Mo17", LibraryPrepID: "2"},
	}
	table, err := barcode.Build(rows, "FC1", "1", p)
	if err != nil {
		t.Fatal(err)
	}
	d, err := decode.NewDecoder(p, table, decode.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func fastqOf(seqs ...string) []byte {
	var b strings.Builder
	for i, s := range seqs {
		b.WriteString("@r" + string(rune('a'+i)) + "\n" + s + "\n+\n" + strings.Repeat("h", len(s)) + "\n")
	}
	return []byte(b.String())
}

var singleReads = fastqOf(
	"CTCC"+"CAGCTTACGG",
	"TGCA"+"CAGCTTACGG",
	"CTCC"+"CAGCTTACGG",
	"GGGG"+"CAGCTTACGG",
	"CTCCCA",
)

func TestRun(t *testing.T) {
	d := newTestDecoder(t)

	res, err := Run(bytes.NewReader(singleReads), d, Options{Threads: 2})
	if err != nil {
		t.Fatal(err)
	}

	if res.Reads != 5 || res.Accepted != 3 {
		t.Errorf("problem in TestRun: %d reads, %d accepted", res.Reads, res.Accepted)
	}
	if res.Rejected[decode.ErrNoBarcodeMatch] != 1 || res.Rejected[decode.ErrMalformedRead] != 1 {
		t.Errorf("problem in TestRun: rejections %v", res.Rejected)
	}
	if res.DistinctTags() != 1 {
		t.Errorf("problem in TestRun: %d distinct tags", res.DistinctTags())
	}

	out := new(bytes.Buffer)
	if err := res.WriteTagCounts(out); err != nil {
		t.Fatal(err)
	}
	want := "taxon\ttag\tlength\tcount\n" +
		"B73:FC1:1:1\tCAGCTTACGG\t10\t2\n" +
		"Mo17:FC1:1:2\tCAGCTTACGG\t10\t1\n"
	if out.String() != want {
		t.Errorf("problem in TestRun: tag counts\n%s", out.String())
	}
}

func TestRunPaired(t *testing.T) {
	d := newTestDecoder(t)

	fwd := fastqOf("CTCC"+"CAGCTTACGG", "GGGG"+"CAGCTTACGG")
	bwd := fastqOf("CTGCAATTCCGG", "CTGCAATTCCGG")

	res, err := RunPaired(bytes.NewReader(fwd), bytes.NewReader(bwd), d, Options{Threads: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.Reads != 2 || res.Accepted != 1 || res.Rejected[decode.ErrNoBarcodeMatch] != 1 {
		t.Errorf("problem in TestRunPaired: %d %d %v", res.Reads, res.Accepted, res.Rejected)
	}

	tags := res.Tags()
	if len(tags) != 2 || tags[0] != "CAGCTTACGG" || tags[1] != "CTGCAATTCCGG" {
		t.Errorf("problem in TestRunPaired: %v", tags)
	}
	for _, tc := range res.TagCounts() {
		if tc.Taxon != "B73:FC1:1:1" || tc.Count != 1 {
			t.Errorf("problem in TestRunPaired: %+v", tc)
		}
	}
}

func TestRunBadInput(t *testing.T) {
	d := newTestDecoder(t)
	if _, err := Run(bytes.NewReader([]byte("not a fastq file\n")), d, Options{Threads: 2}); err == nil {
		t.Errorf("problem in TestRunBadInput")
	}
}

// settled waits for the goroutine count to drop back to n
func settled(n int) bool {
	for i := 0; i < 100; i++ {
		if runtime.NumGoroutine() <= n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestRunBadInputStopsWorkers(t *testing.T) {
	d := newTestDecoder(t)
	truncated := append(fastqOf("CTCC"+"CAGCTTACGG", "TGCA"+"CAGCTTACGG"), []byte("@rc\nCTCC\n")...)

	before := runtime.NumGoroutine()
	for i := 0; i < 5; i++ {
		if _, err := Run(bytes.NewReader(truncated), d, Options{Threads: 4}); err == nil {
			t.Errorf("problem in TestRunBadInputStopsWorkers: no error")
		}
		_, err := RunPaired(bytes.NewReader(singleReads), bytes.NewReader(truncated), d, Options{Threads: 4})
		if err == nil {
			t.Errorf("problem in TestRunBadInputStopsWorkers: no paired error")
		}
	}
	if !settled(before) {
		t.Errorf("problem in TestRunBadInputStopsWorkers: %d goroutines still running, started with %d", runtime.NumGoroutine(), before)
	}
}

func TestWriteNumpy(t *testing.T) {
	d := newTestDecoder(t)

	res, err := Run(bytes.NewReader(singleReads), d, Options{Threads: 3})
	if err != nil {
		t.Fatal(err)
	}

	out := new(bytes.Buffer)
	taxa, tags, err := res.WriteNumpy(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(taxa) != 2 || taxa[0] != "B73:FC1:1:1" || len(tags) != 1 || tags[0] != "CAGCTTACGG" {
		t.Errorf("problem in TestWriteNumpy: labels %v %v", taxa, tags)
	}

	npr, err := gonpy.NewReader(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(npr.Shape) != 2 || npr.Shape[0] != 2 || npr.Shape[1] != 1 {
		t.Errorf("problem in TestWriteNumpy: shape %v", npr.Shape)
	}
	data, err := npr.GetInt32()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 2 || data[0] != 2 || data[1] != 1 {
		t.Errorf("problem in TestWriteNumpy: data %v", data)
	}
}
