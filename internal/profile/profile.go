package profile

import (
	"fmt"
	"math"

	"github.com/dshills/gohmmer/internal/alphabet"
	"github.com/dshills/gohmmer/internal/hmm"
	"github.com/dshills/gohmmer/pkg/types"
)

// Mode selects the alignment mode of a configured profile
type Mode int

const (
	// ModeMultiLocal allows multiple local domains per sequence
	ModeMultiLocal Mode = iota + 1
	// ModeUniLocal allows a single local domain per sequence
	ModeUniLocal
)

func (m Mode) String() string {
	switch m {
	case ModeMultiLocal:
		return "multihit local"
	case ModeUniLocal:
		return "unihit local"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) multihit() bool {
	return m == ModeMultiLocal
}

// Special states and their two transitions
const (
	XN = iota
	XE
	XC
	XJ
)

const (
	Loop = iota
	Move
)

var negInf = math.Inf(-1)

// Profile is a model configured into log-odds scores for one alignment mode.
// Scores are in nats.
type Profile struct {
	M    int
	Abc  *alphabet.Alphabet
	Mode Mode
	L    int

	// Tsc[k] are transition scores out of node k, indexed by hmm.TMM..hmm.TDD
	Tsc [][hmm.NTransitions]float64
	// Bsc[k] is the local entry score B->Mk, k = 1..M
	Bsc []float64
	// Msc[k][x] is the match score of residue code x at node k, x < Kp
	Msc [][]float64
	// Isc[k][x] is the insert score; always 0 for residues, -inf otherwise
	Isc [][]float64
	// Xsc[s][Loop|Move] are special state transition scores
	Xsc [4][2]float64

	Name        string
	Accession   string
	Description string
	Consensus   string

	MSV, Viterbi, Forward hmm.GumbelParams
	GA, TC, NC            hmm.Cutoff
}

// New allocates an unconfigured profile for models of length m
func New(m int, abc *alphabet.Alphabet) *Profile {
	gm := &Profile{
		M:   m,
		Abc: abc,
		Tsc: make([][hmm.NTransitions]float64, m+1),
		Bsc: make([]float64, m+1),
		Msc: make([][]float64, m+1),
		Isc: make([][]float64, m+1),
	}
	for k := 0; k <= m; k++ {
		gm.Msc[k] = make([]float64, abc.Kp)
		gm.Isc[k] = make([]float64, abc.Kp)
	}
	return gm
}

// Config configures gm from model hm against the null model bg, for an
// expected target length L and the given mode.
// It fails, wrapping types.ErrInternalInconsistency, when the parameters do
// not fit together.
func (gm *Profile) Config(hm *hmm.Model, bg *Background, L int, mode Mode) error {
	switch {
	case hm.M != gm.M:
		return fmt.Errorf("%w: profile size %d, model size %d", types.ErrInternalInconsistency, gm.M, hm.M)
	case hm.Abc.Kind != gm.Abc.Kind || bg.Abc.Kind != gm.Abc.Kind:
		return fmt.Errorf("%w: alphabet mismatch (model %s, profile %s, background %s)",
			types.ErrInternalInconsistency, hm.Abc, gm.Abc, bg.Abc)
	case L <= 0:
		return fmt.Errorf("%w: length hint %d", types.ErrInternalInconsistency, L)
	case mode != ModeMultiLocal && mode != ModeUniLocal:
		return fmt.Errorf("%w: unknown mode %v", types.ErrInternalInconsistency, mode)
	}

	gm.Mode = mode
	gm.Name, gm.Accession, gm.Description = hm.Name, hm.Accession, hm.Description
	gm.Consensus = hm.Consensus
	gm.MSV, gm.Viterbi, gm.Forward = hm.MSV, hm.Viterbi, hm.Forward
	gm.GA, gm.TC, gm.NC = hm.GA, hm.TC, hm.NC

	gm.configEntry(hm)

	for k := 0; k <= gm.M; k++ {
		for t := 0; t < hmm.NTransitions; t++ {
			gm.Tsc[k][t] = logp(hm.T[k][t])
		}
	}
	// Node M has no successor; its match and delete states only exit to E
	for t := range gm.Tsc[gm.M] {
		gm.Tsc[gm.M][t] = negInf
	}

	gm.configEmissions(hm, bg)

	if mode.multihit() {
		gm.Xsc[XE][Move] = math.Log(0.5)
		gm.Xsc[XE][Loop] = math.Log(0.5)
	} else {
		gm.Xsc[XE][Move] = 0
		gm.Xsc[XE][Loop] = negInf
	}
	gm.SetLength(L)
	return nil
}

// configEntry spreads local entry over match states in proportion to their
// occupancy, weighted by the number of ways to leave the model after them.
func (gm *Profile) configEntry(hm *hmm.Model) {
	occ := Occupancy(hm)
	var z float64
	for k := 1; k <= gm.M; k++ {
		z += occ[k] * float64(gm.M-k+1)
	}
	gm.Bsc[0] = negInf
	for k := 1; k <= gm.M; k++ {
		gm.Bsc[k] = logp(occ[k] / z)
	}
}

func (gm *Profile) configEmissions(hm *hmm.Model, bg *Background) {
	abc := gm.Abc
	for k := 0; k <= gm.M; k++ {
		for x := 0; x < abc.Kp; x++ {
			gm.Msc[k][x] = negInf
			gm.Isc[k][x] = negInf
		}
	}
	for k := 1; k <= gm.M; k++ {
		for x := 0; x < abc.K; x++ {
			gm.Msc[k][x] = logp(hm.Mat[k][x] / bg.F[x])
		}
		for x := abc.K + 1; x < abc.Kp; x++ {
			if len(abc.Degen[x]) == 0 {
				continue
			}
			gm.Msc[k][x] = expectedScore(gm.Msc[k], abc.Degen[x], bg)
		}
	}
	for k := 0; k <= gm.M; k++ {
		for x := 0; x < abc.Kp; x++ {
			if x != abc.K && len(abc.Degen[x]) > 0 {
				gm.Isc[k][x] = 0
			}
		}
	}
}

// expectedScore is the background-weighted mean score over a degenerate set
func expectedScore(sc []float64, set []byte, bg *Background) float64 {
	var num, den float64
	for _, y := range set {
		if math.IsInf(sc[y], -1) {
			continue
		}
		num += sc[y] * bg.F[y]
		den += bg.F[y]
	}
	if den == 0 {
		return negInf
	}
	return num / den
}

// SetLength sets the N, C and J loop scores for a target of mean length L
func (gm *Profile) SetLength(L int) {
	gm.L = L
	gm.Xsc[XN], gm.Xsc[XC], gm.Xsc[XJ] = lengthScores(L, gm.Mode)
}

// lengthScores returns the loop/move pair shared by N, C and J
func lengthScores(L int, mode Mode) ([2]float64, [2]float64, [2]float64) {
	nj := 0.0
	if mode.multihit() {
		nj = 1.0
	}
	pmove := (2.0 + nj) / (float64(L) + 2.0 + nj)
	ploop := 1.0 - pmove
	x := [2]float64{math.Log(ploop), math.Log(pmove)}
	return x, x, x
}

// Occupancy returns the probability that each match state k = 1..M is used
// by a path through the model. occ[0] is 0.
func Occupancy(hm *hmm.Model) []float64 {
	occ := make([]float64, hm.M+1)
	if hm.M == 0 {
		return occ
	}
	occ[1] = hm.T[0][hmm.TMI] + hm.T[0][hmm.TMM]
	for k := 2; k <= hm.M; k++ {
		t := hm.T[k-1]
		occ[k] = occ[k-1]*(t[hmm.TMM]+t[hmm.TMI]) + (1.0-occ[k-1])*t[hmm.TDM]
	}
	return occ
}

func logp(p float64) float64 {
	if p <= 0 {
		return negInf
	}
	return math.Log(p)
}
