package demux

import (
	"bufio"
	"io"
	"strconv"

	"github.com/kshedden/gonpy"
	"golang.org/x/exp/slices"

	"github.com/gbs-tools/gogbs/pkg/decode"
	"github.com/gbs-tools/gogbs/pkg/encoding"
)

type tagKey struct {
	words  [decode.MaxTagWords]uint64
	length int
}

func newTagKey(er decode.EncodedRead) tagKey {
	k := tagKey{length: er.Length}
	copy(k.words[:], er.Words)
	return k
}

func compareTagKeys(a, b tagKey) int {
	if c := encoding.CompareWords(a.words[:], b.words[:]); c != 0 {
		return c
	}
	return a.length - b.length
}

// TagCount is the number of times one tag was seen in one taxon
type TagCount struct {
	Taxon string
	Tag   decode.EncodedRead
	Count int
}

// Result holds the tallies of a run
type Result struct {
	Reads    int
	Accepted int
	// Rejected counts rejected reads (or pairs) by decode rejection error
	Rejected map[error]int

	tagWords int
	counts   map[string]map[tagKey]int
}

func newResult() *Result {
	return &Result{
		Rejected: make(map[error]int),
		counts:   make(map[string]map[tagKey]int),
	}
}

func (res *Result) count(er decode.EncodedRead) {
	if len(er.Words) > res.tagWords {
		res.tagWords = len(er.Words)
	}
	byTag, ok := res.counts[er.Taxon]
	if !ok {
		byTag = make(map[tagKey]int)
		res.counts[er.Taxon] = byTag
	}
	byTag[newTagKey(er)]++
}

// Taxa returns the taxa with at least one accepted tag, sorted by name
func (res *Result) Taxa() []string {
	taxa := make([]string, 0, len(res.counts))
	for t := range res.counts {
		taxa = append(taxa, t)
	}
	slices.Sort(taxa)
	return taxa
}

func (res *Result) tagKeys() []tagKey {
	seen := make(map[tagKey]bool)
	for _, byTag := range res.counts {
		for k := range byTag {
			seen[k] = true
		}
	}
	keys := make([]tagKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b tagKey) bool {
		return compareTagKeys(a, b) < 0
	})
	return keys
}

// DistinctTags is the number of different tags seen across all taxa
func (res *Result) DistinctTags() int {
	return len(res.tagKeys())
}

func (res *Result) encoded(taxon string, k tagKey) decode.EncodedRead {
	return decode.EncodedRead{
		Taxon:  taxon,
		Words:  slices.Clone(k.words[:res.tagWords]),
		Length: k.length,
	}
}

// Tags returns every distinct tag, trimmed to its length, in packed order
func (res *Result) Tags() []string {
	keys := res.tagKeys()
	tags := make([]string, len(keys))
	for i, k := range keys {
		tags[i] = res.encoded("", k).Sequence()
	}
	return tags
}

// TagCounts returns the counts sorted by taxon, then by tag
func (res *Result) TagCounts() []TagCount {
	var out []TagCount
	for _, taxon := range res.Taxa() {
		byTag := res.counts[taxon]
		keys := make([]tagKey, 0, len(byTag))
		for k := range byTag {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, func(a, b tagKey) bool {
			return compareTagKeys(a, b) < 0
		})
		for _, k := range keys {
			out = append(out, TagCount{Taxon: taxon, Tag: res.encoded(taxon, k), Count: byTag[k]})
		}
	}
	return out
}

// WriteTagCounts writes a tab separated table of taxon, tag, length and count
func (res *Result) WriteTagCounts(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("taxon\ttag\tlength\tcount\n"); err != nil {
		return err
	}
	for _, tc := range res.TagCounts() {
		_, err := bw.WriteString(tc.Taxon + "\t" + tc.Tag.Sequence() + "\t" +
			strconv.Itoa(tc.Tag.Length) + "\t" + strconv.Itoa(tc.Count) + "\n")
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// WriteNumpy writes the taxa by tags count matrix as an int32 .npy array and
// returns the row and column labels, in the order Taxa and Tags give them
func (res *Result) WriteNumpy(w io.Writer) ([]string, []string, error) {
	taxa := res.Taxa()
	keys := res.tagKeys()
	col := make(map[tagKey]int, len(keys))
	tags := make([]string, len(keys))
	for i, k := range keys {
		col[k] = i
		tags[i] = res.encoded("", k).Sequence()
	}

	out := make([]int32, len(taxa)*len(keys))
	for row, taxon := range taxa {
		for k, n := range res.counts[taxon] {
			out[row*len(keys)+col[k]] = int32(n)
		}
	}

	bufw := bufio.NewWriter(w)
	npw, err := gonpy.NewWriter(nopCloser{bufw})
	if err != nil {
		return nil, nil, err
	}
	npw.Shape = []int{len(taxa), len(keys)}
	if err := npw.WriteInt32(out); err != nil {
		return nil, nil, err
	}
	if err := bufw.Flush(); err != nil {
		return nil, nil, err
	}

	return taxa, tags, nil
}
