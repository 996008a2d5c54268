/*
Package enzyme holds the restriction enzyme profiles used to trim GBS reads: the
cut-site remnant every read starts with after its barcode, the motifs that mark
where genomic sequence ends, and how much of a second cut site is kept.
*/
package enzyme

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/slices"
)

// ErrUnknownEnzyme is returned by Get for a name that is not in the registry
var ErrUnknownEnzyme = errors.New("unknown enzyme")

// Profile describes one single or double digest. A Profile returned by Get owns
// its slices, so callers may share it between goroutines as long as nobody
// writes to it.
type Profile struct {
	Name string
	// InitialCutSiteRemnant are the prefixes a read must start with after its barcode
	InitialCutSiteRemnant []string
	// LikelyReadEnd are full cut sites (partial digests, chimeras) or the start of
	// the common adapter, any of which ends the genomic part of a forward read
	LikelyReadEnd []string
	// ReverseReadEnd plays the role of LikelyReadEnd for the backward read of a pair
	ReverseReadEnd []string
	// ReadEndCutSiteRemnantLength is how many bases of a second cut site are kept
	ReadEndCutSiteRemnantLength int
}

type entry struct {
	aliases []string
	profile Profile
}

// registry is ordered as the enzymes are listed to users
var registry = []entry{
	{[]string{"apeki", "apek1"}, Profile{
		Name:                        "ApeKI",
		InitialCutSiteRemnant:       []string{"CAGC", "CTGC"},
		LikelyReadEnd:               []string{"GCAGC", "GCTGC", "GCAGAGAT", "GCTGAGAT"},
		ReverseReadEnd:              []string{"GCAGC", "GCTGC", "GCAGAGATCGG", "GCTGAGATCGG"},
		ReadEndCutSiteRemnantLength: 4,
	}},
	{[]string{"psti", "pst1"}, Profile{
		Name:                        "PstI",
		InitialCutSiteRemnant:       []string{"TGCAG"},
		LikelyReadEnd:               []string{"CTGCAG", "CTGCAAGAT"},
		ReadEndCutSiteRemnantLength: 5,
	}},
	{[]string{"ecot22i", "ecot221"}, Profile{
		Name:                        "EcoT22I",
		InitialCutSiteRemnant:       []string{"TGCAT"},
		LikelyReadEnd:               []string{"ATGCAT", "ATGCAAGAT"},
		ReadEndCutSiteRemnantLength: 5,
	}},
	{[]string{"pasi", "pas1"}, Profile{
		Name:                        "PasI",
		InitialCutSiteRemnant:       []string{"CAGGG", "CTGGG"},
		LikelyReadEnd:               []string{"CCCAGGG", "CCCTGGG", "CCCTGAGAT", "CCCAGAGAT"},
		ReadEndCutSiteRemnantLength: 5,
	}},
	{[]string{"hpaii", "hpa2"}, Profile{
		Name:                        "HpaII",
		InitialCutSiteRemnant:       []string{"CGG"},
		LikelyReadEnd:               []string{"CCGG", "CCGAGATCGG"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"mspi", "msp1"}, Profile{
		Name:                        "MspI",
		InitialCutSiteRemnant:       []string{"CGG"},
		LikelyReadEnd:               []string{"CCGG", "CCGAGATCGG"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"psti-apeki", "pst1-apek1"}, Profile{
		Name:                        "PstI-ApeKI",
		InitialCutSiteRemnant:       []string{"TGCAG"},
		LikelyReadEnd:               []string{"GCAGC", "GCTGC", "CTGCAG", "GCAGAGAT", "GCTGAGAT"},
		ReadEndCutSiteRemnantLength: 4,
	}},
	{[]string{"psti-ecot22i", "pst1-ecot221"}, Profile{
		Name:                        "PstI-EcoT22I",
		InitialCutSiteRemnant:       []string{"TGCAG", "TGCAT"},
		LikelyReadEnd:               []string{"ATGCAT", "CTGCAG", "CTGCAAGAT", "ATGCAAGAT"},
		ReadEndCutSiteRemnantLength: 5,
	}},
	{[]string{"psti-mspi", "pst1-msp1"}, Profile{
		Name:                        "PstI-MspI",
		InitialCutSiteRemnant:       []string{"TGCAG"},
		LikelyReadEnd:               []string{"CCGG", "CTGCAG", "CCGAGATCGG", "CTGCAAGAT"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"psti-taqi", "pst1-taq1"}, Profile{
		Name:                        "PstI-TaqI",
		InitialCutSiteRemnant:       []string{"TGCAG"},
		LikelyReadEnd:               []string{"TCGA", "CTGCAG", "TCGAGATCGG", "CTGCAAGAT"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"paer7i-hhai", "paer71-hha1"}, Profile{
		Name:                        "PaeR7I-HhaI",
		InitialCutSiteRemnant:       []string{"TCGAG"},
		LikelyReadEnd:               []string{"GCGC", "CTCGAG", "GCGAGATCGG", "CTCGAAGAT"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"sbfi-mspi", "sbf1-msp1"}, Profile{
		Name:                        "SbfI-MspI",
		InitialCutSiteRemnant:       []string{"TGCAGG"},
		LikelyReadEnd:               []string{"CCGG", "CCTGCAGG", "CCGAGATCGG", "CCTGCAAGAT"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"asisi-mspi", "asis1-msp1"}, Profile{
		Name:                        "AsiSI-MspI",
		InitialCutSiteRemnant:       []string{"ATCGC"},
		LikelyReadEnd:               []string{"CCGG", "GCGATCGC", "CCGAGATCGG", "GCGATCAGAT"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"bsshii-mspi", "bssh2-msp1"}, Profile{
		Name:                        "BssHII-MspI",
		InitialCutSiteRemnant:       []string{"CGCGC"},
		LikelyReadEnd:               []string{"CCGG", "GCGCGC", "CCGAGATCGG", "GCGCGAGAT"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"fsei-mspi", "fse1-msp1"}, Profile{
		Name:                        "FseI-MspI",
		InitialCutSiteRemnant:       []string{"CCGGCC"},
		LikelyReadEnd:               []string{"CCGG", "GGCCGGCC", "CCGAGATCGG", "GGCCGAGAT"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"sali-mspi", "sal1-msp1"}, Profile{
		Name:                        "SalI-MspI",
		InitialCutSiteRemnant:       []string{"TCGAC"},
		LikelyReadEnd:               []string{"CCGG", "GTCGAC", "CCGAGATCGG", "GTCGAAGAT"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"ecori-mspi", "ecor1-msp1"}, Profile{
		Name:                        "EcoRI-MspI",
		InitialCutSiteRemnant:       []string{"AATTC"},
		LikelyReadEnd:               []string{"CCGG", "GAATTC", "CCGAGATCGG", "GAATTAGAT"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"hindiii-mspi", "hind3-msp1"}, Profile{
		Name:                        "HindIII-MspI",
		InitialCutSiteRemnant:       []string{"AGCTT"},
		LikelyReadEnd:               []string{"CCGG", "AAGCTT", "CCGAGATCGG", "AAGCTAGAT"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"sexai-sau3ai", "sexa1-sau3a1"}, Profile{
		Name:                        "SexAI-Sau3AI",
		InitialCutSiteRemnant:       []string{"CCAGG", "CCTGG"},
		LikelyReadEnd:               []string{"GATC", "ACCAGGT", "ACCTGGT", "GATCAGATCGG", "ACCAGAGAT", "ACCTGAGAT"},
		ReadEndCutSiteRemnantLength: 4,
	}},
	{[]string{"bamhi-mluci", "bamh1-mluc1", "bamhl-mluci"}, Profile{
		Name:                        "BamHI-MluCI",
		InitialCutSiteRemnant:       []string{"GATCC"},
		LikelyReadEnd:               []string{"AATT", "GGATCC", "AATTAGATCG", "GGATCAGATC"},
		ReadEndCutSiteRemnantLength: 4,
	}},
	{[]string{"psti-msei", "pst1-mse1"}, Profile{
		Name:                        "PstI-MseI",
		InitialCutSiteRemnant:       []string{"TGCAG"},
		LikelyReadEnd:               []string{"TTAA", "CTGCAG", "TTAAGATCGG", "CTGCAAGAT"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"avaii-msei", "ava2-mse1"}, Profile{
		Name:                        "AvaII-MseI",
		InitialCutSiteRemnant:       []string{"GACC", "GTCC"},
		LikelyReadEnd:               []string{"TTAA", "GGACC", "GGTCC", "TTAAGATCGG", "GGACAGATCG", "GGTCAGATCG"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"ecori-msei", "ecor1-mse1"}, Profile{
		Name:                        "EcoRI-MseI",
		InitialCutSiteRemnant:       []string{"AATTC"},
		LikelyReadEnd:               []string{"TTAA", "GAATTC", "TTAAGATCGG", "GAATTAGATC"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"ecori-avaii", "ecor1-ava2"}, Profile{
		Name:                        "EcoRI-AvaII",
		InitialCutSiteRemnant:       []string{"AATTC"},
		LikelyReadEnd:               []string{"GGACC", "GGTCC", "GAATTC", "GGACAGATCG", "GGTCAGATCG", "GAATTAGATC"},
		ReadEndCutSiteRemnantLength: 4,
	}},
	{[]string{"ecori-hinfi", "ecor1-hinf1"}, Profile{
		Name:                  "EcoRI-HinfI",
		InitialCutSiteRemnant: []string{"AATTC"},
		LikelyReadEnd: []string{"GAATC", "GACTC", "GAGTC", "GATTC", "GAATTC",
			"GAATAGATCG", "GACTAGATCG", "GAGTAGATCG", "GATTAGATCG", "GAATTAGATC"},
		ReadEndCutSiteRemnantLength: 4,
	}},
	{[]string{"bbvci-mspi", "bbvc1-msp1"}, Profile{
		Name:                        "BbvCI-MspI",
		InitialCutSiteRemnant:       []string{"TCAGC"},
		LikelyReadEnd:               []string{"CCGG", "CCTCAGC", "CCGAGATCGG", "CCTCAAGATC"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"mspi-apeki", "msp1-apek1"}, Profile{
		Name:                        "MspI-ApeKI",
		InitialCutSiteRemnant:       []string{"CGG"},
		LikelyReadEnd:               []string{"GCAGC", "GCTGC", "CCGG", "GCAGAGAT", "GCTGAGAT", "CCGAGATCGG"},
		ReadEndCutSiteRemnantLength: 4,
	}},
	{[]string{"apoi", "apo1"}, Profile{
		Name:                        "ApoI",
		InitialCutSiteRemnant:       []string{"AATTC", "AATTT"},
		LikelyReadEnd:               []string{"AAATTC", "AAATTT", "GAATTC", "GAATTT", "AAATTAGAT", "GAATTAGAT"},
		ReadEndCutSiteRemnantLength: 5,
	}},
	{[]string{"bamhi", "bamh1", "bamhl"}, Profile{
		Name:                        "BamHI",
		InitialCutSiteRemnant:       []string{"GATCC"},
		LikelyReadEnd:               []string{"GGATCC", "GGATCAGATC"},
		ReadEndCutSiteRemnantLength: 5,
	}},
	{[]string{"msei", "mse1"}, Profile{
		Name:                        "MseI",
		InitialCutSiteRemnant:       []string{"TAA"},
		LikelyReadEnd:               []string{"TTAA", "TTAAGATCGG"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"sau3ai", "sau3a1"}, Profile{
		Name:                        "Sau3AI",
		InitialCutSiteRemnant:       []string{"GATC"},
		LikelyReadEnd:               []string{"GATC", "GATCAGATCGG"},
		ReadEndCutSiteRemnantLength: 4,
	}},
	{[]string{"ndei", "nde1"}, Profile{
		Name:                        "NdeI",
		InitialCutSiteRemnant:       []string{"TATG"},
		LikelyReadEnd:               []string{"CATATG", "CATAAGATCG"},
		ReadEndCutSiteRemnantLength: 4,
	}},
	{[]string{"hinp1i", "hinp11"}, Profile{
		Name:                        "HinP1I",
		InitialCutSiteRemnant:       []string{"CGC"},
		LikelyReadEnd:               []string{"GCGC", "GCGAGATCGG"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"sbfi", "sbf1"}, Profile{
		Name:                        "SbfI",
		InitialCutSiteRemnant:       []string{"TGCAGG"},
		LikelyReadEnd:               []string{"CCTGCAGG", "CCTGCAAGAT"},
		ReadEndCutSiteRemnantLength: 6,
	}},
	{[]string{"rbsta"}, Profile{
		Name:                        "RBSTA",
		InitialCutSiteRemnant:       []string{"TA"},
		LikelyReadEnd:               []string{"TTAA", "GTAC", "CTAG", "TTAAGAT", "GTAAGAT", "CTAAGAT"},
		ReadEndCutSiteRemnantLength: 3,
	}},
	{[]string{"rbscg"}, Profile{
		Name:                        "RBSCG",
		InitialCutSiteRemnant:       []string{"CG"},
		LikelyReadEnd:               []string{"CCGC", "TCGA", "GCGC", "CCGG", "ACGT", "CCGAGAT", "TCGAGAT", "GCGAGAT", "ACGAGAT"},
		ReadEndCutSiteRemnantLength: 3,
	}},
}

var lookup = func() map[string]int {
	m := make(map[string]int)
	for i, e := range registry {
		for _, a := range e.aliases {
			m[a] = i
		}
	}
	return m
}()

// Get returns a copy of the profile registered under name. Lookup ignores case
// and accepts "1" in place of "I" (e.g. "apek1"). For an unknown name the error
// wraps ErrUnknownEnzyme and lists every supported enzyme.
func Get(name string) (Profile, error) {
	i, ok := lookup[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (supported enzymes: %s)", ErrUnknownEnzyme, name, strings.Join(Names(), ", "))
	}

	p := registry[i].profile
	p.InitialCutSiteRemnant = slices.Clone(p.InitialCutSiteRemnant)
	p.LikelyReadEnd = slices.Clone(p.LikelyReadEnd)
	if p.ReverseReadEnd == nil {
		p.ReverseReadEnd = slices.Clone(p.LikelyReadEnd)
	} else {
		p.ReverseReadEnd = slices.Clone(p.ReverseReadEnd)
	}

	return p, nil
}

// Names returns the canonical names of all registered enzymes, sorted
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, e := range registry {
		names = append(names, e.profile.Name)
	}
	sort.Strings(names)
	return names
}

// IsApeKI reports whether p is the single-enzyme ApeKI digest, whose
// self-overlapping GCWGCWGC site needs special handling when trimming
func (p Profile) IsApeKI() bool {
	return strings.EqualFold(p.Name, "ApeKI")
}

// MaxRemnantLength is the length of the longest initial cut-site remnant
func (p Profile) MaxRemnantLength() int {
	n := 0
	for _, r := range p.InitialCutSiteRemnant {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}
