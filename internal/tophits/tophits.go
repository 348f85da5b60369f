package tophits

import (
	"cmp"
	"slices"

	"github.com/dshills/gohmmer/internal/pipeline"
)

// Domain is one aligned region of a hit. Coordinates are 1-based and inclusive.
type Domain struct {
	EnvFrom, EnvTo int
	AliFrom, AliTo int
	HMMFrom, HMMTo int

	BitScore float64
	LnP      float64

	Reported bool
	Included bool
}

// Hit is one target sequence that scored against the query
type Hit struct {
	Name        string
	Accession   string
	Description string

	// SeqIndex is the 0-based record number of the target in its database
	SeqIndex int
	Length   int

	Score    float64 // bits
	PreScore float64 // bits, before domain definition
	LnP      float64
	SortKey  float64

	Reported bool
	Included bool

	Domains   []Domain
	NReported int // reported domains
	NIncluded int // included domains
	// Best is the index of the highest scoring domain
	Best int
}

// List accumulates hits in discovery order until sorted and thresholded
type List struct {
	hits      []*Hit
	sorted    bool
	nReported int
	nIncluded int
}

// New creates an empty hit list
func New() *List {
	return &List{}
}

// Add appends a new empty hit and returns it for the caller to fill in
func (l *List) Add() *Hit {
	h := &Hit{}
	l.hits = append(l.hits, h)
	l.sorted = false
	return h
}

// Len returns the number of hits in the list
func (l *List) Len() int {
	return len(l.hits)
}

// At returns hit i, or nil when i is out of range
func (l *List) At(i int) *Hit {
	if i < 0 || i >= len(l.hits) {
		return nil
	}
	return l.hits[i]
}

// Sorted reports whether the list is in sort key order
func (l *List) Sorted() bool {
	return l.sorted
}

// SortBySortkey orders hits by decreasing sort key. Ties break on name so
// the order does not depend on discovery order.
func (l *List) SortBySortkey() {
	if l.sorted {
		return
	}
	slices.SortStableFunc(l.hits, func(a, b *Hit) int {
		if c := cmp.Compare(b.SortKey, a.SortKey); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	l.sorted = true
}

// Threshold sets the reported and included flags of every hit and domain.
//
// It may be called more than once; every call recomputes all flags from
// scratch. Unless fixed by option, the pipeline's domain search space is set
// to the number of reported hits before domains are judged.
func (l *List) Threshold(p *pipeline.Pipeline) {
	l.nReported, l.nIncluded = 0, 0
	for _, h := range l.hits {
		h.Reported = p.ReportSeq(h.Score, h.LnP)
		h.Included = h.Reported && p.IncludeSeq(h.Score, h.LnP)
		if h.Reported {
			l.nReported++
		}
		if h.Included {
			l.nIncluded++
		}
	}

	if !p.DomZFixed {
		p.DomZ = float64(l.nReported)
	}

	for _, h := range l.hits {
		h.NReported, h.NIncluded = 0, 0
		for d := range h.Domains {
			dom := &h.Domains[d]
			dom.Reported = h.Reported && p.ReportDomain(dom.BitScore, dom.LnP)
			dom.Included = h.Included && p.IncludeDomain(dom.BitScore, dom.LnP)
			if dom.Reported {
				h.NReported++
			}
			if dom.Included {
				h.NIncluded++
			}
		}
	}
}

// ReportedCount returns the number of reported hits after Threshold
func (l *List) ReportedCount() int {
	return l.nReported
}

// IncludedCount returns the number of included hits after Threshold
func (l *List) IncludedCount() int {
	return l.nIncluded
}

// Merge moves every hit of other into l. Both lists must come from searches
// of the same query; other is left empty.
func (l *List) Merge(other *List) {
	if other == nil || len(other.hits) == 0 {
		return
	}
	l.hits = append(l.hits, other.hits...)
	other.hits = nil
	other.sorted = false
	other.nReported, other.nIncluded = 0, 0
	l.sorted = false
}

// Reset empties the list, keeping its storage
func (l *List) Reset() {
	clear(l.hits)
	l.hits = l.hits[:0]
	l.sorted = false
	l.nReported, l.nIncluded = 0, 0
}
