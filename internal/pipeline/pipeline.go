package pipeline

import (
	"fmt"
	"math"

	"github.com/dshills/gohmmer/internal/profile"
	"github.com/dshills/gohmmer/internal/sequence"
	"github.com/dshills/gohmmer/pkg/types"
)

// Default thresholds
const (
	DefaultReportE    = 10.0
	DefaultDomReportE = 10.0
	DefaultInclE      = 0.01
	DefaultDomInclE   = 0.01
	DefaultF1         = 0.02
	DefaultF2         = 1e-3
	DefaultF3         = 1e-5
)

// CutoffMode selects model-specific bit score thresholds
type CutoffMode int

const (
	CutoffNone CutoffMode = iota
	CutoffGA
	CutoffTC
	CutoffNC
)

func (c CutoffMode) String() string {
	switch c {
	case CutoffGA:
		return "GA"
	case CutoffTC:
		return "TC"
	case CutoffNC:
		return "NC"
	default:
		return "none"
	}
}

// Options configure a Pipeline. The zero value of a threshold means "use the
// default"; set Z or DomZ to a positive value to fix the search space size.
type Options struct {
	ReportE, DomReportE float64
	// ReportT and DomReportT switch reporting to bit score thresholds when > 0
	ReportT, DomReportT float64
	InclE, DomInclE     float64
	InclT, DomInclT     float64

	Z, DomZ float64

	F1, F2, F3 float64
	// Max turns off all filters
	Max bool

	Cutoff CutoffMode
}

// Stage is how far the last sequence got through the filters
type Stage int

const (
	StageNone Stage = iota
	StageMSV
	StageViterbi
	StageForward
	StageDomains
)

// SeqTrace records the filter scores of the sequence being processed.
// It is cleared by Reuse.
type SeqTrace struct {
	Stage        Stage
	NullScore    float64
	MSVScore     float64 // bits
	ViterbiScore float64
	ForwardScore float64
	NDomains     int
}

// Pipeline holds thresholds, search space size and accounting for one
// model searched against a stream of sequences.
type Pipeline struct {
	// Accounting
	NModels   int64
	NSeqs     int64
	NResidues int64
	NNodes    int64
	NPastMSV  int64
	NPastVit  int64
	NPastFwd  int64

	// Reporting thresholds; by E-value unless the bit score form is set
	ReportByE    bool
	ReportE      float64
	ReportT      float64
	DomReportByE bool
	DomReportE   float64
	DomReportT   float64

	InclByE    bool
	InclE      float64
	InclT      float64
	DomInclByE bool
	DomInclE   float64
	DomInclT   float64

	// Search space sizes for E-values. Unless fixed by option, Z tracks the
	// number of sequences seen and DomZ is set from the number of reported hits.
	Z         float64
	ZFixed    bool
	DomZ      float64
	DomZFixed bool

	F1, F2, F3 float64
	Max        bool
	Cutoff     CutoffMode

	Last SeqTrace

	opts Options
}

// New creates a pipeline from opts
func New(opts Options) (*Pipeline, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		ReportE:    orDefault(opts.ReportE, DefaultReportE),
		DomReportE: orDefault(opts.DomReportE, DefaultDomReportE),
		InclE:      orDefault(opts.InclE, DefaultInclE),
		DomInclE:   orDefault(opts.DomInclE, DefaultDomInclE),
		F1:         orDefault(opts.F1, DefaultF1),
		F2:         orDefault(opts.F2, DefaultF2),
		F3:         orDefault(opts.F3, DefaultF3),
		Max:        opts.Max,
		Cutoff:     opts.Cutoff,
		opts:       opts,
	}
	p.setThresholds(opts.ReportT, opts.DomReportT, opts.InclT, opts.DomInclT)
	if opts.Z > 0 {
		p.Z, p.ZFixed = opts.Z, true
	}
	if opts.DomZ > 0 {
		p.DomZ, p.DomZFixed = opts.DomZ, true
	}
	if p.Max {
		p.F1, p.F2, p.F3 = 1.0, 1.0, 1.0
	}
	return p, nil
}

func (p *Pipeline) setThresholds(reportT, domReportT, inclT, domInclT float64) {
	p.ReportT, p.ReportByE = reportT, reportT <= 0
	p.DomReportT, p.DomReportByE = domReportT, domReportT <= 0
	p.InclT, p.InclByE = inclT, inclT <= 0
	p.DomInclT, p.DomInclByE = domInclT, domInclT <= 0
}

func (o Options) validate() error {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"reporting E-value", o.ReportE},
		{"domain reporting E-value", o.DomReportE},
		{"inclusion E-value", o.InclE},
		{"domain inclusion E-value", o.DomInclE},
		{"Z", o.Z},
		{"domain Z", o.DomZ},
		{"F1", o.F1},
		{"F2", o.F2},
		{"F3", o.F3},
	} {
		if v.val < 0 || math.IsNaN(v.val) {
			return fmt.Errorf("%w: %s must not be negative, got %g", types.ErrInternalInconsistency, v.name, v.val)
		}
	}
	for _, f := range []float64{o.F1, o.F2, o.F3} {
		if f > 1 {
			return fmt.Errorf("%w: filter P-value threshold %g exceeds 1", types.ErrInternalInconsistency, f)
		}
	}
	return nil
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// NewModel prepares the pipeline for a new query profile.
//
// The profile must carry calibrated score distributions. When a cutoff mode
// is selected, the model's cutoff becomes the bit score threshold for both
// reporting and inclusion, and it is an error for the model to lack it.
func (p *Pipeline) NewModel(om *profile.Optimized, bg *profile.Background) error {
	if !om.Calibrated() {
		return fmt.Errorf("%w: model %s has no calibrated STATS", types.ErrInternalInconsistency, om.Name)
	}
	if bg.Abc.Kind != om.Abc.Kind {
		return fmt.Errorf("%w: background %s, model %s", types.ErrInternalInconsistency, bg.Abc, om.Abc)
	}

	if p.Cutoff != CutoffNone {
		var c = om.GA
		switch p.Cutoff {
		case CutoffTC:
			c = om.TC
		case CutoffNC:
			c = om.NC
		}
		if !c.Set {
			return fmt.Errorf("%w: model %s has no %s cutoff", types.ErrInternalInconsistency, om.Name, p.Cutoff)
		}
		p.setThresholds(c.Seq, c.Domain, c.Seq, c.Domain)
	}

	p.NModels++
	p.NNodes += int64(om.M)
	return nil
}

// NewSeq accounts for a new target sequence
func (p *Pipeline) NewSeq(sq *sequence.Digital) {
	p.NSeqs++
	p.NResidues += int64(sq.N)
	if !p.ZFixed {
		p.Z = float64(p.NSeqs)
	}
}

// Reuse clears per-sequence state, keeping accounting and thresholds
func (p *Pipeline) Reuse() {
	p.Last = SeqTrace{}
}

// ReportSeq decides whether a hit is reported
func (p *Pipeline) ReportSeq(score, lnP float64) bool {
	if p.ReportByE {
		return math.Exp(lnP)*p.Z <= p.ReportE
	}
	return score >= p.ReportT
}

// IncludeSeq decides whether a hit is included
func (p *Pipeline) IncludeSeq(score, lnP float64) bool {
	if p.InclByE {
		return math.Exp(lnP)*p.Z <= p.InclE
	}
	return score >= p.InclT
}

// ReportDomain decides whether a domain of a reported hit is reported
func (p *Pipeline) ReportDomain(score, lnP float64) bool {
	if p.DomReportByE {
		return math.Exp(lnP)*p.DomZ <= p.DomReportE
	}
	return score >= p.DomReportT
}

// IncludeDomain decides whether a domain of an included hit is included
func (p *Pipeline) IncludeDomain(score, lnP float64) bool {
	if p.DomInclByE {
		return math.Exp(lnP)*p.DomZ <= p.DomInclE
	}
	return score >= p.DomInclT
}

// EValue converts a log P-value to an E-value in the current search space
func (p *Pipeline) EValue(lnP float64) float64 {
	return math.Exp(lnP) * p.Z
}

// Options returns the options the pipeline was created with
func (p *Pipeline) Options() Options {
	return p.opts
}
