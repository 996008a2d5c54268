/*
Package align scores and aligns pairs of tags with a linear gap Smith-Waterman
local alignment. It is the indel tolerant fallback to the substitution only
homology index.
*/
package align

import (
	"github.com/biogo/hts/sam"
	"golang.org/x/exp/constraints"
)

const (
	// Match is the score for two identical bases
	Match = 2
	// Mismatch is the score for two different bases
	Mismatch = 0
	// Gap is the score for a base aligned to a gap
	Gap = -1
)

func max[T constraints.Ordered](a T, rest ...T) T {
	for _, v := range rest {
		if v > a {
			a = v
		}
	}
	return a
}

func cost(x, y byte) int {
	if x == y {
		return Match
	}
	return Mismatch
}

// Score returns the best local alignment score of a and b. Only one row of the
// matrix is kept, over the shorter of the two sequences.
func Score(a, b string) int {
	if len(b) > len(a) {
		a, b = b, a
	}
	if len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	best := 0

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cur[j] = max(0,
				prev[j-1]+cost(a[i-1], b[j-1]),
				prev[j]+Gap,
				cur[j-1]+Gap)
			best = max(best, cur[j])
		}
		prev, cur = cur, prev
	}

	return best
}

// Alignment is a traced back local alignment of a query against a reference
type Alignment struct {
	Score int
	// A and B are the aligned parts of the query and the reference, with '-' for gaps
	A string
	B string
	// AStart and BStart are the 0-based offsets where the aligned parts begin
	AStart int
	BStart int
	// Cigar describes the query against the reference. Unaligned query bases
	// are soft clipped.
	Cigar sam.Cigar
}

// Align aligns query a against reference b using the full score matrix. The
// highest scoring cell nearest the start of both sequences is traced back,
// preferring diagonal moves, then gaps in b, then gaps in a.
func Align(a, b string) Alignment {
	h := make([][]int, len(a)+1)
	for i := range h {
		h[i] = make([]int, len(b)+1)
	}

	var best, bi, bj int
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			h[i][j] = max(0,
				h[i-1][j-1]+cost(a[i-1], b[j-1]),
				h[i-1][j]+Gap,
				h[i][j-1]+Gap)
			if h[i][j] > best {
				best, bi, bj = h[i][j], i, j
			}
		}
	}

	if best == 0 {
		var cigar sam.Cigar
		if len(a) > 0 {
			cigar = sam.Cigar{sam.NewCigarOp(sam.CigarSoftClipped, len(a))}
		}
		return Alignment{Cigar: cigar}
	}

	// built back to front
	var alnA, alnB []byte
	var ops []sam.CigarOpType

	i, j := bi, bj
	for i > 0 && j > 0 && h[i][j] > 0 {
		switch {
		case h[i][j] == h[i-1][j-1]+cost(a[i-1], b[j-1]):
			alnA = append(alnA, a[i-1])
			alnB = append(alnB, b[j-1])
			ops = append(ops, sam.CigarMatch)
			i--
			j--
		case h[i][j] == h[i-1][j]+Gap:
			alnA = append(alnA, a[i-1])
			alnB = append(alnB, '-')
			ops = append(ops, sam.CigarInsertion)
			i--
		default:
			alnA = append(alnA, '-')
			alnB = append(alnB, b[j-1])
			ops = append(ops, sam.CigarDeletion)
			j--
		}
	}

	reverse(alnA)
	reverse(alnB)
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}

	return Alignment{
		Score:  best,
		A:      string(alnA),
		B:      string(alnB),
		AStart: i,
		BStart: j,
		Cigar:  buildCigar(ops, i, len(a)-bi),
	}
}

func reverse(s []byte) {
	for l, r := 0, len(s)-1; l < r; l, r = l+1, r-1 {
		s[l], s[r] = s[r], s[l]
	}
}

func buildCigar(ops []sam.CigarOpType, leading, trailing int) sam.Cigar {
	var cigar sam.Cigar
	if leading > 0 {
		cigar = append(cigar, sam.NewCigarOp(sam.CigarSoftClipped, leading))
	}
	for k := 0; k < len(ops); {
		n := 1
		for k+n < len(ops) && ops[k+n] == ops[k] {
			n++
		}
		cigar = append(cigar, sam.NewCigarOp(ops[k], n))
		k += n
	}
	if trailing > 0 {
		cigar = append(cigar, sam.NewCigarOp(sam.CigarSoftClipped, trailing))
	}
	return cigar
}
