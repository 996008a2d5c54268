package closest

import (
	"testing"
)

func TestKeepClosest(t *testing.T) {
	matches := []match{
		{tname: "c", tidx: 2, divergence: 1},
		{tname: "a", tidx: 0, divergence: 2},
		{tname: "b", tidx: 1, divergence: 1},
	}
	kept := keepClosest(matches, 2)
	if len(kept) != 2 || kept[0].tname != "b" || kept[1].tname != "c" {
		t.Errorf("problem in TestKeepClosest: %+v", kept)
	}
	if len(keepClosest(matches, 0)) != 3 {
		t.Errorf("problem in TestKeepClosest: keep all")
	}
}
