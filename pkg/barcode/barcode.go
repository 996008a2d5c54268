/*
Package barcode matches the start of a read against the sample barcodes of one
sequencing lane.

Each barcode is stored once per initial cut-site remnant of the enzyme, as the
packed word of barcode+remnant right-padded with A. Because of the padding a
read that starts with a barcode+remnant sorts immediately after that word, so
exact matches are found with one binary search.
*/
package barcode

import (
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/exp/slices"

	"github.com/gbs-tools/gogbs/pkg/encoding"
	"github.com/gbs-tools/gogbs/pkg/enzyme"
	"github.com/gbs-tools/gogbs/pkg/keyfile"
)

var (
	// ErrNoBarcodes is returned by Build when no key file row is in the lane
	ErrNoBarcodes = errors.New("no barcodes for flowcell and lane")
	// ErrNoMatch means no barcode is within the allowed mismatches of the read
	ErrNoMatch = errors.New("no barcode match")
	// ErrAmbiguous means several barcodes match the read equally well
	ErrAmbiguous = errors.New("ambiguous barcode match")
	// ErrDuplicateBarcode is returned by Build when a lane lists a barcode twice
	ErrDuplicateBarcode = errors.New("barcode listed more than once")
)

// Barcode is one sample barcode with its barcode+overhang encodings
type Barcode struct {
	Barcode  string
	Taxon    string
	Flowcell string
	Lane     string
	// Length is the length of the barcode plus the first overhang
	Length int

	words   []uint64 // one per overhang
	lengths []int    // bases encoded in each word
}

// Words returns the packed barcode+overhang words, one per overhang
func (b *Barcode) Words() []uint64 {
	return slices.Clone(b.words)
}

// Divergence is the smallest number of mismatches between any of the
// barcode+overhang encodings and the start of query, bounded the way
// encoding.PrefixDistance is
func (b *Barcode) Divergence(query uint64, maxAllowed int) int {
	div := maxAllowed + 1
	for i, w := range b.words {
		if d := encoding.PrefixDistance(w, query, b.lengths[i], maxAllowed); d < div {
			div = d
		}
	}
	return div
}

// TaxonName is the sample identifier for a key file row: the library prep ID
// when it is an integer, otherwise plate and well.
func TaxonName(row keyfile.Row) string {
	if id, err := strconv.Atoi(row.LibraryPrepID); err == nil {
		return row.Sample + ":" + row.Flowcell + ":" + row.Lane + ":" + strconv.Itoa(id)
	}
	return row.Sample + ":" + row.Flowcell + ":" + row.Lane + ":" + row.Plate + ":" + row.Well()
}

func newBarcode(row keyfile.Row, overhangs []string) (Barcode, error) {
	bc := Barcode{
		Barcode:  row.Barcode,
		Taxon:    TaxonName(row),
		Flowcell: row.Flowcell,
		Lane:     row.Lane,
		Length:   len(row.Barcode) + len(overhangs[0]),
		words:    make([]uint64, len(overhangs)),
		lengths:  make([]int, len(overhangs)),
	}

	for i, o := range overhangs {
		s := row.Barcode + o
		if len(s) > encoding.BasesPerWord {
			return Barcode{}, fmt.Errorf("barcode %s with overhang %s is longer than %d bases", row.Barcode, o, encoding.BasesPerWord)
		}
		bc.words[i] = encoding.PackWord(s)
		bc.lengths[i] = len(s)
	}

	return bc, nil
}

type searchEntry struct {
	word    uint64
	barcode int
}

// Table holds the barcodes of one lane, sorted by their first encoding, and the
// search array of every (encoding, barcode index) pair sorted by encoding then
// index. A Table is never modified after Build.
type Table struct {
	barcodes []Barcode
	search   []searchEntry
	maxBar   int
	maxLen   int
}

// Build makes the table for the rows of one flowcell and lane
func Build(rows []keyfile.Row, flowcell, lane string, p enzyme.Profile) (*Table, error) {
	if len(p.InitialCutSiteRemnant) == 0 {
		return nil, fmt.Errorf("enzyme %s has no initial cut site remnant", p.Name)
	}

	overhangs := make([]string, 0, len(p.InitialCutSiteRemnant))
	for _, o := range p.InitialCutSiteRemnant {
		if !slices.Contains(overhangs, o) {
			overhangs = append(overhangs, o)
		}
	}

	t := &Table{barcodes: make([]Barcode, 0)}
	taxa := make(map[string]string)
	for _, row := range rows {
		if row.Flowcell != flowcell || row.Lane != lane {
			continue
		}
		bc, err := newBarcode(row, overhangs)
		if err != nil {
			return nil, err
		}
		if prev, ok := taxa[bc.Barcode]; ok {
			return nil, fmt.Errorf("%w: %s for %s and %s in flowcell %s lane %s",
				ErrDuplicateBarcode, bc.Barcode, prev, bc.Taxon, flowcell, lane)
		}
		taxa[bc.Barcode] = bc.Taxon
		t.barcodes = append(t.barcodes, bc)
	}

	if len(t.barcodes) == 0 {
		return nil, fmt.Errorf("%w: flowcell %s lane %s", ErrNoBarcodes, flowcell, lane)
	}

	slices.SortStableFunc(t.barcodes, func(a, b Barcode) bool {
		return a.words[0] < b.words[0]
	})

	t.search = make([]searchEntry, 0, len(t.barcodes)*len(overhangs))
	for i, bc := range t.barcodes {
		for _, w := range bc.words {
			t.search = append(t.search, searchEntry{word: w, barcode: i})
		}
		if len(bc.Barcode) > t.maxBar {
			t.maxBar = len(bc.Barcode)
		}
		if bc.Length > t.maxLen {
			t.maxLen = bc.Length
		}
	}
	slices.SortFunc(t.search, func(a, b searchEntry) bool {
		return a.word < b.word || (a.word == b.word && a.barcode < b.barcode)
	})

	return t, nil
}

// Len is the number of barcodes in the table
func (t *Table) Len() int {
	return len(t.barcodes)
}

// Barcodes returns the barcodes in sort order
func (t *Table) Barcodes() []Barcode {
	return slices.Clone(t.barcodes)
}

// MaxBarcodeLength is the length of the longest barcode
func (t *Table) MaxBarcodeLength() int {
	return t.maxBar
}

// MaxLength is the length of the longest barcode plus overhang
func (t *Table) MaxLength() int {
	return t.maxLen
}

// FindBestMatch returns the barcode that the packed read query starts with.
// An exact match is found by binary search. Otherwise, if maxMismatch > 0, every
// barcode is scored and the one with the fewest mismatches wins, the longer
// barcode+overhang winning between equals; a tie on both returns ErrAmbiguous.
func (t *Table) FindBestMatch(query []uint64, maxMismatch int) (*Barcode, error) {
	if len(query) == 0 {
		return nil, ErrNoMatch
	}
	q := query[0]

	pos, found := slices.BinarySearchFunc(t.search, searchEntry{word: q}, func(a, b searchEntry) int {
		switch {
		case a.word < b.word:
			return -1
		case a.word > b.word:
			return 1
		}
		return 0
	})

	if found {
		return &t.barcodes[t.search[pos].barcode], nil
	}
	if pos > 0 {
		bc := &t.barcodes[t.search[pos-1].barcode]
		if bc.Divergence(q, 0) == 0 {
			return bc, nil
		}
	}
	if maxMismatch <= 0 {
		return nil, ErrNoMatch
	}

	minDiv := maxMismatch + 1
	maxLen := 0
	ties := 0
	var best *Barcode

	for i := range t.barcodes {
		bc := &t.barcodes[i]
		div := bc.Divergence(q, maxMismatch)
		if div > maxMismatch {
			continue
		}
		switch {
		case div < minDiv || (div == minDiv && bc.Length > maxLen):
			minDiv = div
			maxLen = bc.Length
			best = bc
			ties = 1
		case div == minDiv && bc.Length == maxLen:
			ties++
		}
	}

	switch {
	case best == nil:
		return nil, ErrNoMatch
	case ties > 1:
		return nil, ErrAmbiguous
	}

	return best, nil
}
