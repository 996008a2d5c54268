/*
Package encoding packs nucleotide sequences into fixed-width arrays of 64-bit
words, two bits per base, and compares packed sequences base by base.

The first base of a sequence occupies the two most significant bits of the
first word, so ordering words numerically orders the sequences they encode.
*/
package encoding

import (
	"math/bits"
	"strings"

	"golang.org/x/exp/slices"
)

// BasesPerWord is the number of bases packed into one uint64
const BasesPerWord = 32

// QualityOffset is the ASCII offset of Illumina 1.3-1.7 quality strings
const QualityOffset = 64

const lowBits = 0x5555555555555555

// MakeEncodingArray is an array from the byte representation of a nucleotide
// to its 2-bit code: A=0, C=1, G=2, T=3. Every other byte maps to the A code, so
// ambiguous bases must be screened out before packing.
func MakeEncodingArray() [256]uint64 {
	var byteArray [256]uint64

	byteArray['A'] = 0
	byteArray['a'] = 0
	byteArray['C'] = 1
	byteArray['c'] = 1
	byteArray['G'] = 2
	byteArray['g'] = 2
	byteArray['T'] = 3
	byteArray['t'] = 3

	return byteArray
}

// MakeDecodingArray maps from 2-bit codes back to upper case nucleotides
func MakeDecodingArray() [4]byte {
	return [4]byte{'A', 'C', 'G', 'T'}
}

// MakeComplementArray maps a nucleotide to its complement. IUPAC ambiguity codes
// other than N are left as they are.
func MakeComplementArray() [256]byte {
	var compArray [256]byte
	for i := range compArray {
		compArray[i] = byte(i)
	}

	compArray['A'] = 'T'
	compArray['T'] = 'A'
	compArray['C'] = 'G'
	compArray['G'] = 'C'
	compArray['a'] = 't'
	compArray['t'] = 'a'
	compArray['c'] = 'g'
	compArray['g'] = 'c'

	return compArray
}

var (
	encodingArray   = MakeEncodingArray()
	decodingArray   = MakeDecodingArray()
	complementArray = MakeComplementArray()
)

// WordsFor returns the number of words needed to hold capacity bases
func WordsFor(capacity int) int {
	return (capacity + BasesPerWord - 1) / BasesPerWord
}

// Pack encodes seq into WordsFor(capacity) words. Sequences shorter than
// capacity are right-padded with A, longer ones are truncated.
func Pack(seq string, capacity int) []uint64 {
	words := make([]uint64, WordsFor(capacity))

	n := len(seq)
	if n > capacity {
		n = capacity
	}

	for i := 0; i < n; i++ {
		shift := uint(2 * (BasesPerWord - 1 - i%BasesPerWord))
		words[i/BasesPerWord] |= encodingArray[seq[i]] << shift
	}

	return words
}

// PackWord encodes the first (at most 32) bases of seq into a single word
func PackWord(seq string) uint64 {
	return Pack(seq, BasesPerWord)[0]
}

// Unpack decodes words into a string of exactly len(words)*32 bases
func Unpack(words []uint64) string {
	var sb strings.Builder
	sb.Grow(len(words) * BasesPerWord)

	for _, w := range words {
		for i := BasesPerWord - 1; i >= 0; i-- {
			sb.WriteByte(decodingArray[(w>>uint(2*i))&3])
		}
	}

	return sb.String()
}

// mismatches counts the bases that differ between two packed words
func mismatches(a, b uint64) int {
	x := a ^ b
	return bits.OnesCount64((x | x>>1) & lowBits)
}

// HammingDistance counts the bases that differ between a and b, stopping as soon
// as the count exceeds maxAllowed. In that case maxAllowed+1 is returned, which
// callers must read as "not within bound" rather than as a distance. Words
// missing from the shorter array compare as poly-A.
func HammingDistance(a, b []uint64, maxAllowed int) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}

	d := 0
	for i := 0; i < n; i++ {
		var wa, wb uint64
		if i < len(a) {
			wa = a[i]
		}
		if i < len(b) {
			wb = b[i]
		}
		d += mismatches(wa, wb)
		if d > maxAllowed {
			return maxAllowed + 1
		}
	}

	return d
}

// PrefixDistance counts the bases that differ within the first n bases of two
// packed words, with the same maxAllowed+1 sentinel as HammingDistance.
func PrefixDistance(a, b uint64, n, maxAllowed int) int {
	if n <= 0 {
		return 0
	}
	var mask uint64 = ^uint64(0)
	if n < BasesPerWord {
		mask <<= uint(2 * (BasesPerWord - n))
	}

	d := mismatches(a&mask, b&mask)
	if d > maxAllowed {
		return maxAllowed + 1
	}

	return d
}

// FirstLowQualityPosition returns the index of the first base whose quality,
// decoded with QualityOffset, is below minQual; or -1 if there is none.
func FirstLowQualityPosition(qual string, minQual int) int {
	return FirstLowQualityPositionOffset(qual, minQual, QualityOffset)
}

// FirstLowQualityPositionOffset is FirstLowQualityPosition for quality strings
// with a different ASCII offset (33 for Sanger / Illumina 1.8+)
func FirstLowQualityPositionOffset(qual string, minQual, offset int) int {
	for i := 0; i < len(qual); i++ {
		if int(qual[i])-offset < minQual {
			return i
		}
	}
	return -1
}

// ReverseComplement returns the reverse complement of seq
func ReverseComplement(seq string) string {
	rc := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		rc[len(seq)-1-i] = complementArray[seq[i]]
	}
	return string(rc)
}

// CompareWords orders two packed sequences lexicographically by word value
func CompareWords(a, b []uint64) int {
	return slices.Compare(a, b)
}
