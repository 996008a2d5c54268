/*
Package sam writes local alignments of query tags to reference tags in SAM format
*/
package sam

import (
	"io"

	biogosam "github.com/biogo/hts/sam"

	"github.com/gbs-tools/gogbs/pkg/align"
	"github.com/gbs-tools/gogbs/pkg/fastaio"
)

// mapping quality is not computed
const mapQUnavailable = 255

var (
	scoreTag      = biogosam.NewTag("AS")
	divergenceTag = biogosam.NewTag("XD")
)

// Hit is one alignment of a query tag to reference tag Target
type Hit struct {
	Target     int
	Divergence int
	Alignment  align.Alignment
}

// Writer writes SAM records against a fixed set of reference tags
type Writer struct {
	w    *biogosam.Writer
	refs []*biogosam.Reference
}

// NewWriter writes a header with one @SQ line per reference tag
func NewWriter(w io.Writer, targets []fastaio.TagRecord) (*Writer, error) {
	refs := make([]*biogosam.Reference, len(targets))
	for i, t := range targets {
		ref, err := biogosam.NewReference(t.ID, "", "", t.Length, nil, nil)
		if err != nil {
			return nil, err
		}
		refs[i] = ref
	}

	h, err := biogosam.NewHeader(nil, refs)
	if err != nil {
		return nil, err
	}

	sw, err := biogosam.NewWriter(w, h, biogosam.FlagDecimal)
	if err != nil {
		return nil, err
	}

	return &Writer{w: sw, refs: refs}, nil
}

func (sw *Writer) unmapped(query []byte, name string) error {
	r, err := biogosam.NewRecord(name, nil, nil, -1, -1, 0, 0, nil, query, nil, nil)
	if err != nil {
		return err
	}
	r.Flags = biogosam.Unmapped
	return sw.w.Write(r)
}

// Write writes one record per hit. The first hit is the primary alignment and
// the rest are flagged secondary. A query with no hit, or whose first hit has a
// zero score, is written once as unmapped.
func (sw *Writer) Write(query fastaio.TagRecord, hits []Hit) error {
	seq := []byte(query.Seq[:query.Length])

	if len(hits) == 0 || hits[0].Alignment.Score == 0 {
		return sw.unmapped(seq, query.ID)
	}

	for i, h := range hits {
		aln := h.Alignment
		if aln.Score == 0 {
			continue
		}

		as, err := biogosam.NewAux(scoreTag, int32(aln.Score))
		if err != nil {
			return err
		}
		xd, err := biogosam.NewAux(divergenceTag, int32(h.Divergence))
		if err != nil {
			return err
		}

		r, err := biogosam.NewRecord(query.ID, sw.refs[h.Target], nil, aln.BStart, -1, 0, mapQUnavailable,
			aln.Cigar, seq, nil, []biogosam.Aux{as, xd})
		if err != nil {
			return err
		}
		if i > 0 {
			r.Flags |= biogosam.Secondary
		}
		if err := sw.w.Write(r); err != nil {
			return err
		}
	}

	return nil
}
