package engine

import (
	"fmt"
	"math"

	"github.com/dshills/gohmmer/internal/pipeline"
	"github.com/dshills/gohmmer/internal/profile"
	"github.com/dshills/gohmmer/internal/sequence"
	"github.com/dshills/gohmmer/internal/tophits"
)

// Engine scores one target sequence against one profile and records what it
// finds. The executor calls NewSequence, SetBackgroundLength,
// ReconfigureLength and Score, in that order, for every target.
type Engine interface {
	// NewSequence accounts for a new target in the pipeline
	NewSequence(pli *pipeline.Pipeline, sq *sequence.Digital) error
	// SetBackgroundLength sets the null model length distribution
	SetBackgroundLength(bg *profile.Background, L int) error
	// ReconfigureLength sets the profile's length-dependent transitions
	ReconfigureLength(om *profile.Optimized, L int) error
	// Score runs the filters and, for a target that passes, appends a hit to th
	Score(pli *pipeline.Pipeline, om *profile.Optimized, bg *profile.Background, sq *sequence.Digital, th *tophits.List) error
}

// Generic is a reference Engine built on straightforward log-space dynamic
// programming. It keeps its matrices between calls, so one Generic must not
// be shared between goroutines.
type Generic struct {
	vit  matrix
	rows rowPair
}

// NewGeneric creates a Generic engine
func NewGeneric() *Generic {
	return &Generic{}
}

var _ Engine = (*Generic)(nil)

func (e *Generic) NewSequence(pli *pipeline.Pipeline, sq *sequence.Digital) error {
	pli.NewSeq(sq)
	return nil
}

func (e *Generic) SetBackgroundLength(bg *profile.Background, L int) error {
	return bg.SetLength(L)
}

func (e *Generic) ReconfigureLength(om *profile.Optimized, L int) error {
	return om.ReconfigLength(L)
}

// Score runs the MSV, Viterbi and Forward stages. A stage whose P-value
// exceeds the pipeline's filter threshold ends processing of the target
// without error. Targets that survive are split into domains along the
// Viterbi path and each domain is rescored with Forward.
func (e *Generic) Score(pli *pipeline.Pipeline, om *profile.Optimized, bg *profile.Background, sq *sequence.Digital, th *tophits.List) error {
	if sq.Alphabet().Kind != om.Abc.Kind {
		return fmt.Errorf("sequence %s is %s, profile %s is %s", sq.Name, sq.Alphabet(), om.Name, om.Abc)
	}
	if !om.Calibrated() {
		return fmt.Errorf("profile %s has no score statistics", om.Name)
	}
	L := sq.N
	if L == 0 {
		return nil
	}
	if len(sq.Dsq) != L+2 {
		return fmt.Errorf("sequence %s: digital buffer holds %d codes for length %d", sq.Name, len(sq.Dsq), L)
	}
	for i := 1; i <= L; i++ {
		if int(sq.Dsq[i]) >= om.Abc.Kp {
			return fmt.Errorf("sequence %s: invalid residue code %d at %d", sq.Name, sq.Dsq[i], i)
		}
	}

	null := bg.NullScore(L)
	trace := &pli.Last
	trace.NullScore = null

	msv := bits(e.rows.msv(om, sq.Dsq, 1, L), null)
	trace.Stage, trace.MSVScore = pipeline.StageMSV, msv
	if !pli.Max && math.Exp(gumbelLogSurv(msv, om.MSV.Mu, om.MSV.Lambda)) > pli.F1 {
		return nil
	}
	pli.NPastMSV++

	vsc := e.vit.viterbi(om, sq.Dsq, L)
	vit := bits(vsc, null)
	trace.Stage, trace.ViterbiScore = pipeline.StageViterbi, vit
	// no path emits the target, e.g. gaps or nonresidues only
	if math.IsInf(vsc, -1) || math.IsNaN(vsc) {
		return nil
	}
	if !pli.Max && math.Exp(gumbelLogSurv(vit, om.Viterbi.Mu, om.Viterbi.Lambda)) > pli.F2 {
		return nil
	}
	pli.NPastVit++

	fwd := bits(e.rows.forward(om, sq.Dsq, 1, L), null)
	lnP := expLogSurv(fwd, om.Forward.Mu, om.Forward.Lambda)
	trace.Stage, trace.ForwardScore = pipeline.StageForward, fwd
	if !pli.Max && math.Exp(lnP) > pli.F3 {
		return nil
	}
	pli.NPastFwd++

	domains, err := e.vit.domains(om, L)
	if err != nil {
		return fmt.Errorf("sequence %s: %w", sq.Name, err)
	}
	trace.Stage, trace.NDomains = pipeline.StageDomains, len(domains)
	if len(domains) == 0 {
		return nil
	}
	if err := e.rescore(om, sq, domains); err != nil {
		return err
	}

	hit := th.Add()
	hit.Name = sq.Name
	hit.Accession = sq.Accession
	hit.Description = sq.Description
	hit.SeqIndex = sq.Index
	hit.Length = L
	hit.Score = fwd
	hit.PreScore = fwd
	hit.LnP = lnP
	hit.SortKey = -lnP
	hit.Domains = domains
	for d := range domains {
		if domains[d].BitScore > domains[hit.Best].BitScore {
			hit.Best = d
		}
	}
	return nil
}

// rescore scores each domain envelope on its own with Forward, with the
// profile and null model set to the envelope length.
func (e *Generic) rescore(om *profile.Optimized, sq *sequence.Digital, domains []tophits.Domain) (err error) {
	L := om.L
	defer func() {
		if rerr := om.ReconfigLength(L); rerr != nil && err == nil {
			err = fmt.Errorf("restore profile length %d: %w", L, rerr)
		}
	}()

	for d := range domains {
		dom := &domains[d]
		Ld := dom.EnvTo - dom.EnvFrom + 1
		if err := om.ReconfigLength(Ld); err != nil {
			return err
		}
		fwd := e.rows.forward(om, sq.Dsq, dom.EnvFrom, dom.EnvTo)
		dom.BitScore = bits(fwd, nullScore(Ld))
		dom.LnP = expLogSurv(dom.BitScore, om.Forward.Mu, om.Forward.Lambda)
	}
	return nil
}

// nullScore is the null model log likelihood of a length L segment scored
// with the null length distribution set to L.
func nullScore(L int) float64 {
	p1 := float64(L) / float64(L+1)
	return float64(L)*math.Log(p1) + math.Log(1-p1)
}

func bits(sc, null float64) float64 {
	return (sc - null) / math.Ln2
}
