package decode

import (
	"errors"
	"testing"

	"github.com/gbs-tools/gogbs/pkg/encoding"
)

func TestDecodePair(t *testing.T) {
	d := newTestDecoder(t, DefaultConfig())

	f := Read{Seq: "CTCC" + "CAGCTTACGGATTTG"}
	b := Read{Seq: "CTGC" + "AATTCCGGAATTCCGGTTA"}

	pr, err := d.DecodePair(f, b)
	if err != nil {
		t.Fatal(err)
	}
	if pr.Taxon != "B73:FC1:1:1" {
		t.Errorf("problem in TestDecodePair: taxon %s", pr.Taxon)
	}
	if pr.Forward.Sequence() != "CAGCTTACGGATTTG" || pr.Backward.Sequence() != "CTGCAATTCCGGAATTCCGGTTA" {
		t.Errorf("problem in TestDecodePair: %s %s", pr.Forward.Sequence(), pr.Backward.Sequence())
	}
	if pr.Forward.Taxon != pr.Taxon || pr.Backward.Taxon != pr.Taxon {
		t.Errorf("problem in TestDecodePair: member taxa")
	}
}

func TestDecodePairCanonicalOrder(t *testing.T) {
	d := newTestDecoder(t, DefaultConfig())

	f := Read{Seq: "CTCC" + "CAGCTTACGGATTTG"}
	b := Read{Seq: "CAGCAAATTTCCCGG"}

	pr, err := d.DecodePair(f, b)
	if err != nil {
		t.Fatal(err)
	}
	if pr.Forward.Sequence() != "CAGCAAATTTCCCGG" || pr.Backward.Sequence() != "CAGCTTACGGATTTG" {
		t.Errorf("problem in TestDecodePairCanonicalOrder: %s %s", pr.Forward.Sequence(), pr.Backward.Sequence())
	}
	if encoding.CompareWords(pr.Forward.Words, pr.Backward.Words) > 0 {
		t.Errorf("problem in TestDecodePairCanonicalOrder: not ordered")
	}
}

func TestDecodePairReadThrough(t *testing.T) {
	d := newTestDecoder(t, DefaultConfig())

	// the backward read runs into the reverse complement of CTCC+CAGC
	f := Read{Seq: "CTCC" + "CAGCTTACGGATTTG"}
	b := Read{Seq: "CTGC" + "AAATTT" + "GCTGGGAG" + "TTTTTTTT"}

	pr, err := d.DecodePair(f, b)
	if err != nil {
		t.Fatal(err)
	}
	if pr.Backward.Sequence() != "CTGCAAATTTGCTG" {
		t.Errorf("problem in TestDecodePairReadThrough: %s", pr.Backward.Sequence())
	}
}

// The backward read's first scan uses the reverse motifs but the re-scan after
// an ApeKI overlap uses the forward ones: GCAGAGAT is only a forward motif.
func TestDecodePairApeKIRescanUsesForwardMotifs(t *testing.T) {
	d := newTestDecoder(t, DefaultConfig())

	f := Read{Seq: "CTCC" + "CAGCTTACGGATTTG"}
	b := Read{Seq: "CTGCTGC" + "TTAACC" + "GCAGAGAT" + "TTTTTTTT"}

	pr, err := d.DecodePair(f, b)
	if err != nil {
		t.Fatal(err)
	}
	if pr.Backward.Sequence() != "CTGCTTAACCGCAG" {
		t.Errorf("problem in TestDecodePairApeKIRescanUsesForwardMotifs: %s", pr.Backward.Sequence())
	}
}

func TestDecodePairRejections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinQuality = 20
	d := newTestDecoder(t, cfg)

	f := Read{Seq: "CTCC" + "CAGCTTACGGATTTG"}

	if _, err := d.DecodePair(f, Read{Seq: "GGGGAATTCC"}); !errors.Is(err, ErrMissingCutSite) {
		t.Errorf("problem in TestDecodePairRejections: remnant %v", err)
	}
	if _, err := d.DecodePair(f, Read{Seq: "CTGCANTTCC"}); !errors.Is(err, ErrAmbiguousBase) {
		t.Errorf("problem in TestDecodePairRejections: ambiguous %v", err)
	}
	if _, err := d.DecodePair(f, Read{Seq: "CTGCAATTCC", Qual: "hhhBhhhhhh"}); !errors.Is(err, ErrLowQuality) {
		t.Errorf("problem in TestDecodePairRejections: quality %v", err)
	}
	if _, err := d.DecodePair(f, Read{Seq: "CTGCAATTCC", Qual: "hh"}); !errors.Is(err, ErrMalformedRead) {
		t.Errorf("problem in TestDecodePairRejections: malformed %v", err)
	}
	if _, err := d.DecodePair(Read{Seq: "GGGGCAGCTTAC"}, Read{Seq: "CTGCAATTCC"}); !errors.Is(err, ErrNoBarcodeMatch) {
		t.Errorf("problem in TestDecodePairRejections: forward %v", err)
	}
}
