package search

import (
	"iter"
	"math"

	"github.com/dshills/gohmmer/internal/pipeline"
	"github.com/dshills/gohmmer/internal/tophits"
	"github.com/dshills/gohmmer/pkg/types"
)

// Result is the ranked hit list of one executor. Before Finalize it reports
// nothing. E-values are computed on every call from the executor's live
// search space size.
type Result struct {
	Model types.ModelInfo

	th        *tophits.List
	pli       *pipeline.Pipeline
	finalized bool
}

// Stats summarizes the work behind a result
type Stats struct {
	NSeqs     int64
	NResidues int64
	NPastMSV  int64
	NPastVit  int64
	NPastFwd  int64
	NHits     int
	NReported int
	NIncluded int
	Z         float64
	DomZ      float64
}

// ReportedCount returns the number of reported hits, 0 before finalization
func (r *Result) ReportedCount() int {
	if !r.finalized {
		return 0
	}
	return r.th.ReportedCount()
}

// IncludedCount returns the number of included hits, 0 before finalization
func (r *Result) IncludedCount() int {
	if !r.finalized {
		return 0
	}
	return r.th.IncludedCount()
}

// Hits yields the reported hits, best first
func (r *Result) Hits() iter.Seq[Hit] {
	return func(yield func(Hit) bool) {
		n := r.ReportedCount()
		for i := 0; i < n; i++ {
			h := r.th.At(i)
			if h == nil {
				return
			}
			if !yield(Hit{h: h, pli: r.pli}) {
				return
			}
		}
	}
}

// Hit returns reported hit i, or false when i is out of range
func (r *Result) Hit(i int) (Hit, bool) {
	if i < 0 || i >= r.ReportedCount() {
		return Hit{}, false
	}
	h := r.th.At(i)
	if h == nil {
		return Hit{}, false
	}
	return Hit{h: h, pli: r.pli}, true
}

// Stats returns pipeline accounting for the search
func (r *Result) Stats() Stats {
	return Stats{
		NSeqs:     r.pli.NSeqs,
		NResidues: r.pli.NResidues,
		NPastMSV:  r.pli.NPastMSV,
		NPastVit:  r.pli.NPastVit,
		NPastFwd:  r.pli.NPastFwd,
		NHits:     r.th.Len(),
		NReported: r.ReportedCount(),
		NIncluded: r.IncludedCount(),
		Z:         r.pli.Z,
		DomZ:      r.pli.DomZ,
	}
}

// Records flattens the reported hits and all their domains
func (r *Result) Records() []types.HitRecord {
	out := make([]types.HitRecord, 0, r.ReportedCount())
	rank := 0
	for h := range r.Hits() {
		rank++
		out = append(out, h.Record(rank))
	}
	return out
}

// Hit is a read-only view of one hit
type Hit struct {
	h   *tophits.Hit
	pli *pipeline.Pipeline
}

func (h Hit) Name() string        { return h.h.Name }
func (h Hit) Accession() string   { return h.h.Accession }
func (h Hit) Description() string { return h.h.Description }
func (h Hit) Length() int         { return h.h.Length }

// Score returns the bit score
func (h Hit) Score() float64 { return h.h.Score }

// LnP returns the natural log of the P-value
func (h Hit) LnP() float64 { return h.h.LnP }

// EValue returns exp(lnP) times the current search space size
func (h Hit) EValue() float64 {
	return math.Exp(h.h.LnP) * h.pli.Z
}

func (h Hit) Included() bool { return h.h.Included }

// DomainCount returns the number of domains of the hit
func (h Hit) DomainCount() int {
	return len(h.h.Domains)
}

// BestDomain returns the index of the highest scoring domain
func (h Hit) BestDomain() int {
	return h.h.Best
}

// Domains yields every domain of the hit in sequence order
func (h Hit) Domains() iter.Seq[Domain] {
	return func(yield func(Domain) bool) {
		for i := 0; i < h.DomainCount(); i++ {
			if !yield(Domain{d: &h.h.Domains[i], pli: h.pli}) {
				return
			}
		}
	}
}

// Domain returns domain i, or false when i is out of range
func (h Hit) Domain(i int) (Domain, bool) {
	if i < 0 || i >= h.DomainCount() {
		return Domain{}, false
	}
	return Domain{d: &h.h.Domains[i], pli: h.pli}, true
}

// Record flattens the hit at the given 1-based rank
func (h Hit) Record(rank int) types.HitRecord {
	rec := types.HitRecord{
		Rank:        rank,
		Name:        h.Name(),
		Accession:   h.Accession(),
		Description: h.Description(),
		Score:       h.Score(),
		LnP:         h.LnP(),
		EValue:      h.EValue(),
		Reported:    h.h.Reported,
		Included:    h.h.Included,
		Domains:     make([]types.DomainRecord, 0, h.DomainCount()),
	}
	i := 0
	for d := range h.Domains() {
		i++
		rec.Domains = append(rec.Domains, d.Record(i))
	}
	return rec
}

// Domain is a read-only view of one domain
type Domain struct {
	d   *tophits.Domain
	pli *pipeline.Pipeline
}

// BitScore returns the domain bit score
func (d Domain) BitScore() float64 { return d.d.BitScore }

// LnP returns the natural log of the domain P-value
func (d Domain) LnP() float64 { return d.d.LnP }

// EValue returns exp(lnP) times the pipeline's current Z. It is recomputed
// on every call.
func (d Domain) EValue() float64 {
	return math.Exp(d.d.LnP) * d.pli.Z
}

func (d Domain) EnvFrom() int   { return d.d.EnvFrom }
func (d Domain) EnvTo() int     { return d.d.EnvTo }
func (d Domain) AliFrom() int   { return d.d.AliFrom }
func (d Domain) AliTo() int     { return d.d.AliTo }
func (d Domain) HMMFrom() int   { return d.d.HMMFrom }
func (d Domain) HMMTo() int     { return d.d.HMMTo }
func (d Domain) Reported() bool { return d.d.Reported }
func (d Domain) Included() bool { return d.d.Included }

// Record flattens the domain with its 1-based index
func (d Domain) Record(index int) types.DomainRecord {
	return types.DomainRecord{
		Index:    index,
		BitScore: d.BitScore(),
		LnP:      d.LnP(),
		EValue:   d.EValue(),
		EnvFrom:  d.EnvFrom(),
		EnvTo:    d.EnvTo(),
		AliFrom:  d.AliFrom(),
		AliTo:    d.AliTo(),
		HMMFrom:  d.HMMFrom(),
		HMMTo:    d.HMMTo(),
		Reported: d.Reported(),
		Included: d.Included(),
	}
}
