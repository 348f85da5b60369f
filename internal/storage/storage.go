package storage

import (
	"context"
	"math"
	"time"

	"github.com/dshills/gohmmer/pkg/types"
)

// Storage defines the interface for persisting search runs and their hits
type Storage interface {
	// Run operations
	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, runID int64) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	DeleteRun(ctx context.Context, runID int64) error

	// Hit operations
	SaveHit(ctx context.Context, runID int64, rec *types.HitRecord) (*Hit, error)
	ListHits(ctx context.Context, runID int64) ([]*Hit, error)
	ListDomains(ctx context.Context, hitID int64) ([]*Domain, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}

// Run is one model searched against one sequence source
type Run struct {
	ID             int64
	ModelName      string
	ModelAccession string
	ModelLength    int
	SeqSource      string // Path of the sequence file, or a label for ad hoc queries
	NSeqs          int64
	NResidues      int64
	Z              float64
	DomZ           float64
	NReported      int
	NIncluded      int
	CreatedAt      time.Time
}

// Hit is a stored hit. EValue is derived from LnP and the run's Z when read.
type Hit struct {
	ID          int64
	RunID       int64
	Rank        int
	Name        string
	Accession   string
	Description string
	Score       float64
	LnP         float64
	EValue      float64
	Reported    bool
	Included    bool
	NDomains    int
}

// Domain is a stored domain of a hit
type Domain struct {
	ID       int64
	HitID    int64
	Index    int
	BitScore float64
	LnP      float64
	EValue   float64
	EnvFrom  int
	EnvTo    int
	AliFrom  int
	AliTo    int
	HMMFrom  int
	HMMTo    int
	Reported bool
	Included bool
}

// ToRecord converts a stored hit and its domains back to a types.HitRecord
func (h *Hit) ToRecord(domains []*Domain) types.HitRecord {
	rec := types.HitRecord{
		Rank:        h.Rank,
		Name:        h.Name,
		Accession:   h.Accession,
		Description: h.Description,
		Score:       h.Score,
		LnP:         h.LnP,
		EValue:      h.EValue,
		Reported:    h.Reported,
		Included:    h.Included,
		Domains:     make([]types.DomainRecord, 0, len(domains)),
	}
	for _, d := range domains {
		rec.Domains = append(rec.Domains, types.DomainRecord{
			Index:    d.Index,
			BitScore: d.BitScore,
			LnP:      d.LnP,
			EValue:   d.EValue,
			EnvFrom:  d.EnvFrom,
			EnvTo:    d.EnvTo,
			AliFrom:  d.AliFrom,
			AliTo:    d.AliTo,
			HMMFrom:  d.HMMFrom,
			HMMTo:    d.HMMTo,
			Reported: d.Reported,
			Included: d.Included,
		})
	}
	return rec
}

func evalue(lnP, z float64) float64 {
	return math.Exp(lnP) * z
}
