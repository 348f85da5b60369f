package hmm

import (
	"github.com/dshills/gohmmer/internal/alphabet"
	"github.com/dshills/gohmmer/pkg/types"
)

// Transition indices into Model.T rows.
const (
	TMM = iota
	TMI
	TMD
	TIM
	TII
	TDM
	TDD
	NTransitions
)

// Cutoff is a pair of per-sequence and per-domain bit score thresholds
type Cutoff struct {
	Seq    float64
	Domain float64
	Set    bool
}

// GumbelParams are the location and slope of a calibrated score distribution.
// For the Forward tail, Mu holds tau.
type GumbelParams struct {
	Mu     float64
	Lambda float64
	Set    bool
}

// Model is a profile HMM as read from an HMMER3 save file.
// All parameters are stored as probabilities. A Model is read-only once loaded.
type Model struct {
	Name        string
	Accession   string
	Description string
	M           int
	Abc         *alphabet.Alphabet

	// T[k] holds the transitions out of node k, k = 0..M.
	T [][NTransitions]float64
	// Mat[k] holds match emissions for node k, k = 1..M; Mat[0] is unused.
	Mat [][]float64
	// Ins[k] holds insert emissions for node k, k = 0..M.
	Ins [][]float64

	Compo     []float64 // nil when the file has no COMPO line
	Consensus string    // upper case for highly conserved positions

	NSeq     int
	EffN     float64
	Checksum uint32

	GA, TC, NC Cutoff

	MSV     GumbelParams
	Viterbi GumbelParams
	Forward GumbelParams
}

// newModel allocates parameter storage for a model of length m
func newModel(m int, abc *alphabet.Alphabet) *Model {
	hm := &Model{
		M:   m,
		Abc: abc,
		T:   make([][NTransitions]float64, m+1),
		Mat: make([][]float64, m+1),
		Ins: make([][]float64, m+1),
	}
	for k := 0; k <= m; k++ {
		hm.Mat[k] = make([]float64, abc.K)
		hm.Ins[k] = make([]float64, abc.K)
	}
	return hm
}

// Calibrated reports whether all three score distributions are present
func (hm *Model) Calibrated() bool {
	return hm.MSV.Set && hm.Viterbi.Set && hm.Forward.Set
}

// Info returns the descriptive fields of the model
func (hm *Model) Info() types.ModelInfo {
	return types.ModelInfo{
		Name:        hm.Name,
		Accession:   hm.Accession,
		Description: hm.Description,
		Length:      hm.M,
	}
}
