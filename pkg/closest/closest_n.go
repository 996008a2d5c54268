package closest

import (
	"golang.org/x/exp/slices"
)

// keepClosest orders matches by divergence, then by reference order, and keeps
// the first n of them. n <= 0 keeps all.
func keepClosest(matches []match, n int) []match {
	slices.SortFunc(matches, func(a, b match) bool {
		return a.divergence < b.divergence || (a.divergence == b.divergence && a.tidx < b.tidx)
	})
	if n > 0 && len(matches) > n {
		matches = matches[:n]
	}
	return matches
}
