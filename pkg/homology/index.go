/*
Package homology finds the reference tags within a few substitutions of a query
tag.

Every packed word of every reference tag is cut into short sub-words, and the
(sub-word, tag) pairs are kept in one sorted array. A query looks up each of its
own sub-words and scores only the tags that share at least one of them, so any
reference within a Hamming distance smaller than the number of sub-words in the
query is found as long as one of the shared sub-words is not too common.
Insertions and deletions are not modelled; see package align for that.
*/
package homology

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/gbs-tools/gogbs/pkg/encoding"
)

const (
	// DefaultWordLength is the sub-word length in bases
	DefaultWordLength = 16
	// DefaultMaxDuplicates is the largest number of pairs a sub-word may have
	// before it is dropped from the index
	DefaultMaxDuplicates = 1000
	// maxWordLength is the most bases a uint32 sub-word can hold
	maxWordLength = 16
	// comparedWords is how many leading words of a query and a tag are compared
	comparedWords = 2
)

var (
	// ErrIndexOverflow means the sub-word length does not fit in 32 bits
	ErrIndexOverflow = errors.New("sub-word does not fit in 32 bits")
	// ErrWordLength means the sub-word length does not evenly divide a packed word
	ErrWordLength = errors.New("invalid sub-word length")
)

// Options configures Build
type Options struct {
	WordLength    int
	MaxDuplicates int
}

// DefaultOptions returns 16 base sub-words and a duplication limit of 1000
func DefaultOptions() Options {
	return Options{WordLength: DefaultWordLength, MaxDuplicates: DefaultMaxDuplicates}
}

type wordRef struct {
	word uint32
	tag  int32
}

// Index is a sub-word index over a fixed set of reference tags. It is never
// modified after Build, so any number of goroutines may query it.
type Index struct {
	tags       [][]uint64
	refs       []wordRef
	wordLength int
	excluded   int
}

// subWords cuts a packed word into 32/wordLength sub-words, first bases first
func subWords(w uint64, wordLength int, fn func(uint32)) {
	bitsPer := uint(2 * wordLength)
	mask := uint64(1)<<bitsPer - 1
	for shift := 64 - int(bitsPer); shift >= 0; shift -= int(bitsPer) {
		fn(uint32((w >> uint(shift)) & mask))
	}
}

func compareRefs(a, b wordRef) bool {
	return a.word < b.word || (a.word == b.word && a.tag < b.tag)
}

// Build indexes tags. Sub-words shared by more than opts.MaxDuplicates pairs are
// removed because they say little about which tag a query came from.
func Build(tags [][]uint64, opts Options) (*Index, error) {
	switch {
	case opts.WordLength > maxWordLength:
		return nil, fmt.Errorf("%w: %d bases", ErrIndexOverflow, opts.WordLength)
	case opts.WordLength < 1 || encoding.BasesPerWord%opts.WordLength != 0:
		return nil, fmt.Errorf("%w: %d bases does not divide %d", ErrWordLength, opts.WordLength, encoding.BasesPerWord)
	case opts.MaxDuplicates < 1:
		return nil, fmt.Errorf("duplication limit must be positive, got %d", opts.MaxDuplicates)
	}

	idx := &Index{
		tags:       make([][]uint64, len(tags)),
		wordLength: opts.WordLength,
	}
	for i, t := range tags {
		idx.tags[i] = slices.Clone(t)
	}

	n := 0
	for _, t := range tags {
		n += len(t) * (encoding.BasesPerWord / opts.WordLength)
	}

	all := make([]wordRef, 0, n)
	for i, t := range tags {
		tag := int32(i)
		for _, w := range t {
			subWords(w, opts.WordLength, func(v uint32) {
				all = append(all, wordRef{word: v, tag: tag})
			})
		}
	}
	slices.SortFunc(all, compareRefs)

	idx.refs = make([]wordRef, 0, len(all))
	for start := 0; start < len(all); {
		end := start + 1
		for end < len(all) && all[end].word == all[start].word {
			end++
		}
		if end-start > opts.MaxDuplicates {
			idx.excluded++
		} else {
			idx.refs = append(idx.refs, all[start:end]...)
		}
		start = end
	}

	return idx, nil
}

// Len is the number of (sub-word, tag) pairs in the index
func (idx *Index) Len() int {
	return len(idx.refs)
}

// TagCount is the number of reference tags
func (idx *Index) TagCount() int {
	return len(idx.tags)
}

// Excluded is the number of distinct sub-words dropped as too common
func (idx *Index) Excluded() int {
	return idx.excluded
}

// WordLength is the sub-word length in bases
func (idx *Index) WordLength() int {
	return idx.wordLength
}

// Tag returns the packed reference tag i
func (idx *Index) Tag(i int) []uint64 {
	return idx.tags[i]
}

func window(words []uint64) []uint64 {
	if len(words) > comparedWords {
		return words[:comparedWords]
	}
	return words
}

// Query returns the reference tags within maxDivergence substitutions of query,
// mapped to their divergence. Only the first two words of the query and of each
// tag are compared. With bestOnly, only the tags at the smallest divergence found
// are kept.
func (idx *Index) Query(query []uint64, maxDivergence int, bestOnly bool) map[int]int {
	result := make(map[int]int)
	if len(idx.refs) == 0 {
		return result
	}

	seen := make(map[int32]bool)
	best := maxDivergence + 1
	q := window(query)

	for _, w := range query {
		subWords(w, idx.wordLength, func(v uint32) {
			i, _ := slices.BinarySearchFunc(idx.refs, wordRef{word: v}, func(a, b wordRef) int {
				switch {
				case a.word < b.word:
					return -1
				case a.word > b.word:
					return 1
				}
				return 0
			})
			for ; i < len(idx.refs) && idx.refs[i].word == v; i++ {
				tag := idx.refs[i].tag
				if seen[tag] {
					continue
				}
				seen[tag] = true
				d := encoding.HammingDistance(q, window(idx.tags[tag]), maxDivergence)
				if d > maxDivergence {
					continue
				}
				result[int(tag)] = d
				if d < best {
					best = d
				}
			}
		})
	}

	if bestOnly {
		for tag, d := range result {
			if d != best {
				delete(result, tag)
			}
		}
	}

	return result
}
