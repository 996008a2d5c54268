package decode

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/gbs-tools/gogbs/pkg/barcode"
	"github.com/gbs-tools/gogbs/pkg/encoding"
	"github.com/gbs-tools/gogbs/pkg/enzyme"
	"github.com/gbs-tools/gogbs/pkg/keyfile"
)

func newTestDecoder(t *testing.T, cfg Config) *Decoder {
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
	d, err := NewDecoder(p, table, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDecodeTrimsAtCutSite(t *testing.T) {
	d := newTestDecoder(t, DefaultConfig())

	genomic := "CAGC" + strings.Repeat("A", 12) + "GCAGC" + "TTGGCCTTGGCCTTGGCCTTGGCC"
	er, err := d.Decode(Read{Seq: "CTCC" + genomic})
	if err != nil {
		t.Fatal(err)
	}

	tag := "CAGC" + strings.Repeat("A", 12) + "GCAG"
	if er.Length != 20 || er.Sequence() != tag {
		t.Errorf("problem in TestDecodeTrimsAtCutSite: %d %s", er.Length, er.Sequence())
	}
	if encoding.Unpack(er.Words) != tag+strings.Repeat("A", 44) {
		t.Errorf("problem in TestDecodeTrimsAtCutSite: padding %s", encoding.Unpack(er.Words))
	}
	if er.Taxon != "B73:FC1:1:1" {
		t.Errorf("problem in TestDecodeTrimsAtCutSite: taxon %s", er.Taxon)
	}
}

func TestDecodeApeKIOverlap(t *testing.T) {
	d := newTestDecoder(t, DefaultConfig())

	// GCAGC at position 2 is the overlapping GCWGCWGC site
	er, err := d.Decode(Read{Seq: "TGCA" + "CAGCAGCTTACGGATTACCAGCTGCAAAA"})
	if err != nil {
		t.Fatal(err)
	}
	if er.Sequence() != "CAGCTTACGGATTACCAGCTG" {
		t.Errorf("problem in TestDecodeApeKIOverlap: %s", er.Sequence())
	}
	if er.Taxon != "Mo17:FC1:1:2" {
		t.Errorf("problem in TestDecodeApeKIOverlap: taxon %s", er.Taxon)
	}
}

func TestDecodeNoCutSite(t *testing.T) {
	d := newTestDecoder(t, DefaultConfig())

	long := "CAGC" + strings.Repeat("TTACG", 30)
	er, err := d.Decode(Read{Seq: "CTCC" + long})
	if err != nil {
		t.Fatal(err)
	}
	if er.Length != 64 || er.Sequence() != long[:64] {
		t.Errorf("problem in TestDecodeNoCutSite: long %d", er.Length)
	}

	er, err = d.Decode(Read{Seq: "CTCC" + "CAGCTTAC"})
	if err != nil {
		t.Fatal(err)
	}
	if er.Length != 8 || er.Sequence() != "CAGCTTAC" {
		t.Errorf("problem in TestDecodeNoCutSite: short %d %s", er.Length, er.Sequence())
	}
}

func TestDecodeRejections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinQuality = 20
	d := newTestDecoder(t, cfg)

	good := "CTCC" + "CAGC" + strings.Repeat("TTACG", 20)
	goodQual := strings.Repeat("h", len(good))

	tests := []struct {
		name string
		read Read
		err  error
	}{
		{"short", Read{Seq: "CTCCCA"}, ErrMalformedRead},
		{"qual length", Read{Seq: good, Qual: "hhh"}, ErrMalformedRead},
		{"low quality", Read{Seq: good, Qual: goodQual[:5] + "B" + goodQual[6:]}, ErrLowQuality},
		{"ambiguous", Read{Seq: good[:10] + "N" + good[11:]}, ErrAmbiguousBase},
		{"no barcode", Read{Seq: "GGGG" + good[4:]}, ErrNoBarcodeMatch},
	}

	for _, tt := range tests {
		_, err := d.Decode(tt.read)
		if !errors.Is(err, tt.err) {
			t.Errorf("problem in TestDecodeRejections: %s: got %v, want %v", tt.name, err, tt.err)
		}
		if !IsRejection(err) {
			t.Errorf("problem in TestDecodeRejections: %s is not a rejection", tt.name)
		}
	}

	// a low quality base after the barcode+tag window is fine
	late := goodQual[:90] + "B" + goodQual[91:]
	if _, err := d.Decode(Read{Seq: good, Qual: late}); err != nil {
		t.Errorf("problem in TestDecodeRejections: late low quality: %v", err)
	}
}

func TestDecodeQseqAmbiguous(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = Qseq
	d := newTestDecoder(t, cfg)

	good := "CTCC" + "CAGC" + strings.Repeat("TTACG", 20)
	if _, err := d.Decode(Read{Seq: good[:10] + "." + good[11:]}); !errors.Is(err, ErrAmbiguousBase) {
		t.Errorf("problem in TestDecodeQseqAmbiguous: %v", err)
	}
}

func TestDecodeMismatchedBarcode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBarcodeMismatch = 1
	d := newTestDecoder(t, cfg)

	er, err := d.Decode(Read{Seq: "CTCA" + "CAGCTTACGGATTTG"})
	if err != nil {
		t.Fatal(err)
	}
	if er.Taxon != "B73:FC1:1:1" || er.Sequence() != "CAGCTTACGGATTTG" {
		t.Errorf("problem in TestDecodeMismatchedBarcode: %s %s", er.Taxon, er.Sequence())
	}
}

func TestDecodeIsPure(t *testing.T) {
	d := newTestDecoder(t, DefaultConfig())
	r := Read{Seq: "CTCC" + "CAGCAAAAGCTGCTTT"}

	a, errA := d.Decode(r)
	b, errB := d.Decode(r)
	if !reflect.DeepEqual(a, b) || errA != errB {
		t.Errorf("problem in TestDecodeIsPure")
	}
}

func TestNewDecoderValidates(t *testing.T) {
	p, _ := enzyme.Get("ApeKI")
	table, _ := barcode.Build([]keyfile.Row{{Flowcell: "F", Lane: "1", Barcode: "CTCC"}}, "F", "1", p)

	cfg := DefaultConfig()
	cfg.TagWords = 0
	if _, err := NewDecoder(p, table, cfg); err == nil {
		t.Errorf("problem in TestNewDecoderValidates: zero words")
	}
	cfg = DefaultConfig()
	cfg.MaxBarcodeMismatch = -1
	if _, err := NewDecoder(p, table, cfg); err == nil {
		t.Errorf("problem in TestNewDecoderValidates: negative mismatches")
	}
	if _, err := NewDecoder(p, nil, DefaultConfig()); err == nil {
		t.Errorf("problem in TestNewDecoderValidates: nil table")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("QSEQ"); err != nil || f != Qseq {
		t.Errorf("problem in TestParseFormat: qseq")
	}
	if f, err := ParseFormat("fastq"); err != nil || f != FASTQ {
		t.Errorf("problem in TestParseFormat: fastq")
	}
	if _, err := ParseFormat("bam"); err == nil {
		t.Errorf("problem in TestParseFormat: bam")
	}
}

func TestFindReadEnd(t *testing.T) {
	motifs := []string{"GCAGC", "GCTGC"}

	if p, m := findReadEnd("TTTTGCTGCAAGCAGC", motifs); p != 4 || m != "GCTGC" {
		t.Errorf("problem in TestFindReadEnd: %d %s", p, m)
	}
	// position 0 is never a read end
	if p, _ := findReadEnd("GCAGCTTTT", motifs); p != -1 {
		t.Errorf("problem in TestFindReadEnd: position 0 gave %d", p)
	}
	if p, _ := findReadEnd("A", motifs); p != -1 {
		t.Errorf("problem in TestFindReadEnd: short %d", p)
	}
}

func TestDecodeShortReadUsesLongestBarcode(t *testing.T) {
	p, err := enzyme.Get("ApeKI")
	if err != nil {
		t.Fatal(err)
	}
	rows := []keyfile.Row{
		{Flowcell: "FC1", Lane: "1", Barcode: "CTCC", Sample: "B73", LibraryPrepID: "1"},
		{Flowcell: "FC1", Lane: "1", Barcode: "ACGTGA", Sample: "Mo17", LibraryPrepID: "2"},
	}
	table, err := barcode.Build(rows, "FC1", "1", p)
	if err != nil {
		t.Fatal(err)
	}
	d, err := NewDecoder(p, table, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	// holds all of CTCC+CAGC but is shorter than ACGTGA+CAGC
	if _, err := d.Decode(Read{Seq: "CTCCCAGCA"}); !errors.Is(err, ErrMalformedRead) {
		t.Errorf("problem in TestDecodeShortReadUsesLongestBarcode: %v", err)
	}
}
