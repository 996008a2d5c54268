/*
Package decode turns raw GBS reads into fixed-width packed tags.

A read is rejected if it is too short, has low quality or ambiguous bases in the
barcode+tag window, or starts with no recognisable barcode. Otherwise the barcode
is removed, the genomic remainder is cut after the first likely read end (a
second cut site or the adapter), padded with A to the tag capacity, and packed.

Decoders are immutable after construction and safe for concurrent use.
*/
package decode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gbs-tools/gogbs/pkg/barcode"
	"github.com/gbs-tools/gogbs/pkg/encoding"
	"github.com/gbs-tools/gogbs/pkg/enzyme"
)

// MaxTagWords caps the tag capacity at 256 bases
const MaxTagWords = 8

// Format is the input format of a read, which decides the ambiguous base symbol
type Format int

const (
	// FASTQ reads mark ambiguous bases with N
	FASTQ Format = iota
	// Qseq reads mark ambiguous bases with '.'
	Qseq
)

// ParseFormat reads "fastq" or "qseq"
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "fastq", "fq":
		return FASTQ, nil
	case "qseq":
		return Qseq, nil
	}
	return FASTQ, fmt.Errorf("unknown read format %q (must be fastq or qseq)", s)
}

func (f Format) String() string {
	if f == Qseq {
		return "qseq"
	}
	return "fastq"
}

func (f Format) ambiguous() byte {
	if f == Qseq {
		return '.'
	}
	return 'N'
}

// Per-read rejections. None of them is fatal.
var (
	ErrMalformedRead    = errors.New("read shorter than barcode and overhang")
	ErrLowQuality       = errors.New("low quality base in barcode and tag window")
	ErrAmbiguousBase    = errors.New("ambiguous base in barcode and tag window")
	ErrNoBarcodeMatch   = errors.New("no barcode match")
	ErrAmbiguousBarcode = errors.New("ambiguous barcode match")
	ErrMissingCutSite   = errors.New("backward read does not start with a cut site remnant")
)

// Rejections lists every rejection error, in reporting order
var Rejections = []error{
	ErrMalformedRead,
	ErrLowQuality,
	ErrAmbiguousBase,
	ErrNoBarcodeMatch,
	ErrAmbiguousBarcode,
	ErrMissingCutSite,
}

// IsRejection reports whether err is a per-read rejection
func IsRejection(err error) bool {
	for _, r := range Rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}

// Config holds the decoding parameters
type Config struct {
	// TagWords is the tag capacity in 32-base words
	TagWords int
	// MinQuality turns the quality gate on when > 0
	MinQuality int
	// QualityOffset is the ASCII offset of quality strings
	QualityOffset int
	// MaxBarcodeMismatch is how many mismatches a barcode+overhang may have
	MaxBarcodeMismatch int
	Format             Format
}

// DefaultConfig is a 64 base tag, no quality filter, exact barcodes, FASTQ
func DefaultConfig() Config {
	return Config{
		TagWords:           2,
		MinQuality:         0,
		QualityOffset:      encoding.QualityOffset,
		MaxBarcodeMismatch: 0,
		Format:             FASTQ,
	}
}

func (c Config) validate() error {
	switch {
	case c.TagWords < 1 || c.TagWords > MaxTagWords:
		return fmt.Errorf("tag length must be between 1 and %d words, got %d", MaxTagWords, c.TagWords)
	case c.MinQuality < 0:
		return fmt.Errorf("minimum quality must not be negative, got %d", c.MinQuality)
	case c.MaxBarcodeMismatch < 0:
		return fmt.Errorf("barcode mismatches must not be negative, got %d", c.MaxBarcodeMismatch)
	}
	return nil
}

// Read is one input read. Qual may be empty.
type Read struct {
	ID   string
	Seq  string
	Qual string
	Idx  int
}

// EncodedRead is a decoded tag. Bases past Length are always A.
type EncodedRead struct {
	Taxon  string
	Words  []uint64
	Length int
}

// Sequence unpacks the tag up to its effective length
func (e EncodedRead) Sequence() string {
	return encoding.Unpack(e.Words)[:e.Length]
}

// Decoder decodes the reads of one lane
type Decoder struct {
	profile  enzyme.Profile
	table    *barcode.Table
	cfg      Config
	capacity int
}

// NewDecoder checks cfg and returns a decoder for the given enzyme and barcodes
func NewDecoder(p enzyme.Profile, table *barcode.Table, cfg Config) (*Decoder, error) {
	if table == nil {
		return nil, errors.New("decoder needs a barcode table")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Decoder{
		profile:  p,
		table:    table,
		cfg:      cfg,
		capacity: cfg.TagWords * encoding.BasesPerWord,
	}, nil
}

// Capacity is the tag length in bases
func (d *Decoder) Capacity() int {
	return d.capacity
}

// Config returns the decoder's configuration
func (d *Decoder) Config() Config {
	return d.cfg
}

// screen applies the quality and ambiguous base gates to the first window bases
func (d *Decoder) screen(r Read, window int) error {
	if d.cfg.MinQuality > 0 && len(r.Qual) > 0 {
		p := encoding.FirstLowQualityPositionOffset(r.Qual, d.cfg.MinQuality, d.cfg.QualityOffset)
		if p >= 0 && p < window {
			return ErrLowQuality
		}
	}

	if window > len(r.Seq) {
		window = len(r.Seq)
	}
	if strings.IndexByte(r.Seq[:window], d.cfg.Format.ambiguous()) >= 0 {
		return ErrAmbiguousBase
	}

	return nil
}

// Decode decodes a single-end read
func (d *Decoder) Decode(r Read) (EncodedRead, error) {
	er, _, err := d.decodeForward(r)
	return er, err
}

func (d *Decoder) decodeForward(r Read) (EncodedRead, *barcode.Barcode, error) {
	// the bound is the longest barcode+overhang of the lane, even for reads
	// that would match a shorter barcode
	if len(r.Seq) < d.table.MaxLength() || (len(r.Qual) > 0 && len(r.Qual) != len(r.Seq)) {
		return EncodedRead{}, nil, ErrMalformedRead
	}

	if err := d.screen(r, d.table.MaxBarcodeLength()+d.capacity); err != nil {
		return EncodedRead{}, nil, err
	}

	bc, err := d.table.FindBestMatch(encoding.Pack(r.Seq, encoding.BasesPerWord), d.cfg.MaxBarcodeMismatch)
	if errors.Is(err, barcode.ErrAmbiguous) {
		return EncodedRead{}, nil, ErrAmbiguousBarcode
	} else if err != nil {
		return EncodedRead{}, nil, ErrNoBarcodeMatch
	}

	tag := d.trim(r.Seq[len(bc.Barcode):], d.profile.LikelyReadEnd, d.profile.LikelyReadEnd)

	return d.encode(tag, bc.Taxon), bc, nil
}

func (d *Decoder) encode(tag, taxon string) EncodedRead {
	return EncodedRead{
		Taxon:  taxon,
		Words:  encoding.Pack(tag, d.capacity),
		Length: len(tag),
	}
}

// findReadEnd returns the smallest position > 1 at which one of motifs starts
// and the motif found there, or -1. Only the first occurrence of each motif from
// position 1 on is considered.
func findReadEnd(seq string, motifs []string) (int, string) {
	pos := -1
	match := ""
	if len(seq) < 2 {
		return pos, match
	}

	for _, m := range motifs {
		p := strings.Index(seq[1:], m)
		if p < 0 {
			continue
		}
		p++
		if p > 1 && (pos < 0 || p < pos) {
			pos = p
			match = m
		}
	}

	return pos, match
}

// trim cuts seq after the first likely read end, keeping the enzyme's remnant of
// it, and limits it to the tag capacity. ApeKI's GCWGCWGC site, which starts
// with an overlapping second site at position 2, loses its first three bases and
// is scanned again with rescan.
func (d *Decoder) trim(seq string, motifs, rescan []string) string {
	pos, match := findReadEnd(seq, motifs)

	if d.profile.IsApeKI() && pos == 2 && (match == "GCAGC" || match == "GCTGC") {
		seq = seq[3:]
		pos, _ = findReadEnd(seq, rescan)
	}

	var length int
	switch {
	case pos >= 0 && pos < d.capacity:
		length = pos + d.profile.ReadEndCutSiteRemnantLength
	case len(seq) == 0:
		length = 0
	default:
		length = d.capacity
	}

	if length > len(seq) {
		length = len(seq)
	}
	if length > d.capacity {
		length = d.capacity
	}

	return seq[:length]
}
