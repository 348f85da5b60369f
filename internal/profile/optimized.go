package profile

import (
	"fmt"
	"math"

	"github.com/dshills/gohmmer/internal/alphabet"
	"github.com/dshills/gohmmer/internal/hmm"
	"github.com/dshills/gohmmer/pkg/types"
)

// Optimized is the search-time form of a profile. Match scores are laid out
// as one row per residue code so the inner loop over nodes reads a single
// contiguous slice. It is mutated in place by ReconfigLength and never rebuilt.
type Optimized struct {
	M    int
	Abc  *alphabet.Alphabet
	Mode Mode
	L    int

	// Rsc[x][k] is the match score of residue x at node k
	Rsc [][]float64
	// Tsc[k] are transition scores out of node k
	Tsc [][hmm.NTransitions]float64
	// Bsc[k] is the local entry score B->Mk
	Bsc []float64
	Xsc [4][2]float64

	// MSVEntry is the uniform B->Mk score used by the ungapped filter
	MSVEntry float64
	// NJ is the expected number of J state uses
	NJ float64

	Name        string
	Accession   string
	Description string
	Consensus   string

	MSV, Viterbi, Forward hmm.GumbelParams
	GA, TC, NC            hmm.Cutoff

	converted bool
}

// NewOptimized allocates an empty optimized profile for models of length m
func NewOptimized(m int, abc *alphabet.Alphabet) *Optimized {
	om := &Optimized{
		M:   m,
		Abc: abc,
		Rsc: make([][]float64, abc.Kp),
		Tsc: make([][hmm.NTransitions]float64, m+1),
		Bsc: make([]float64, m+1),
	}
	for x := range om.Rsc {
		om.Rsc[x] = make([]float64, m+1)
	}
	return om
}

// Convert copies the configured profile gm into om
func Convert(gm *Profile, om *Optimized) error {
	if gm.M != om.M {
		return fmt.Errorf("%w: convert profile of size %d into %d", types.ErrInternalInconsistency, gm.M, om.M)
	}
	if gm.Abc.Kind != om.Abc.Kind {
		return fmt.Errorf("%w: convert %s profile into %s", types.ErrInternalInconsistency, gm.Abc, om.Abc)
	}
	if gm.Mode == 0 {
		return fmt.Errorf("%w: profile is not configured", types.ErrInternalInconsistency)
	}

	for x := 0; x < om.Abc.Kp; x++ {
		om.Rsc[x][0] = negInf
		for k := 1; k <= om.M; k++ {
			om.Rsc[x][k] = gm.Msc[k][x]
		}
	}
	copy(om.Tsc, gm.Tsc)
	copy(om.Bsc, gm.Bsc)
	om.Xsc = gm.Xsc

	om.MSVEntry = math.Log(2.0 / (float64(om.M) * float64(om.M+1)))
	om.Mode = gm.Mode
	om.L = gm.L
	om.NJ = 0
	if gm.Mode.multihit() {
		om.NJ = 1
	}

	om.Name, om.Accession, om.Description = gm.Name, gm.Accession, gm.Description
	om.Consensus = gm.Consensus
	om.MSV, om.Viterbi, om.Forward = gm.MSV, gm.Viterbi, gm.Forward
	om.GA, om.TC, om.NC = gm.GA, gm.TC, gm.NC
	om.converted = true
	return nil
}

// ReconfigLength resets the length-dependent special transitions for a
// target of length L, leaving every other score untouched.
func (om *Optimized) ReconfigLength(L int) error {
	if !om.converted {
		return fmt.Errorf("%w: reconfigure unconverted profile", types.ErrInternalInconsistency)
	}
	if L < 0 {
		return fmt.Errorf("%w: target length %d", types.ErrInternalInconsistency, L)
	}
	om.L = L
	om.Xsc[XN], om.Xsc[XC], om.Xsc[XJ] = lengthScores(L, om.Mode)
	return nil
}

// Calibrated reports whether the score distributions needed for P-values are present
func (om *Optimized) Calibrated() bool {
	return om.MSV.Set && om.Viterbi.Set && om.Forward.Set
}

// Info returns the descriptive fields of the profile's model
func (om *Optimized) Info() types.ModelInfo {
	return types.ModelInfo{
		Name:        om.Name,
		Accession:   om.Accession,
		Description: om.Description,
		Length:      om.M,
	}
}
