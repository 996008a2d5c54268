package decode

import (
	"strings"

	"github.com/gbs-tools/gogbs/pkg/encoding"
)

// PairedEncodedRead is a decoded read pair. The pair is ordered so that
// Forward.Words <= Backward.Words, whichever end each tag came from.
type PairedEncodedRead struct {
	Taxon    string
	Forward  EncodedRead
	Backward EncodedRead
}

// DecodePair decodes a forward read, which carries the barcode, and its mate.
//
// The backward read must start with one of the enzyme's cut-site remnants. When
// the fragment is short enough for the backward read to run into the barcode,
// it is cut just after the reverse complement of the forward read's first
// remnant-length genomic bases.
func (d *Decoder) DecodePair(f, b Read) (PairedEncodedRead, error) {
	fwd, bc, err := d.decodeForward(f)
	if err != nil {
		return PairedEncodedRead{}, err
	}

	if len(b.Qual) > 0 && len(b.Qual) != len(b.Seq) {
		return PairedEncodedRead{}, ErrMalformedRead
	}
	if err := d.screen(b, d.capacity); err != nil {
		return PairedEncodedRead{}, err
	}

	remnant := false
	for _, r := range d.profile.InitialCutSiteRemnant {
		if strings.HasPrefix(b.Seq, r) {
			remnant = true
			break
		}
	}
	if !remnant {
		return PairedEncodedRead{}, ErrMissingCutSite
	}

	bseq := b.Seq
	n := d.profile.ReadEndCutSiteRemnantLength
	if genomic := f.Seq[len(bc.Barcode):]; len(genomic) >= n {
		rc := encoding.ReverseComplement(bc.Barcode + genomic[:n])
		if i := strings.Index(bseq, rc); i >= 0 {
			bseq = bseq[:i+n]
		}
	}

	// the re-scan after an ApeKI overlap uses the forward motifs for both ends
	bwd := d.encode(d.trim(bseq, d.profile.ReverseReadEnd, d.profile.LikelyReadEnd), bc.Taxon)

	if encoding.CompareWords(fwd.Words, bwd.Words) > 0 {
		fwd, bwd = bwd, fwd
	}

	return PairedEncodedRead{Taxon: bc.Taxon, Forward: fwd, Backward: bwd}, nil
}
