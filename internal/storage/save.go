package storage

import (
	"context"
	"fmt"

	"github.com/dshills/gohmmer/internal/search"
)

// NewRun describes a finalized result as a run row
func NewRun(source string, res *search.Result) *Run {
	st := res.Stats()
	return &Run{
		ModelName:      res.Model.Name,
		ModelAccession: res.Model.Accession,
		ModelLength:    res.Model.Length,
		SeqSource:      source,
		NSeqs:          st.NSeqs,
		NResidues:      st.NResidues,
		Z:              st.Z,
		DomZ:           st.DomZ,
		NReported:      st.NReported,
		NIncluded:      st.NIncluded,
	}
}

// SaveResult stores a finalized result and all its reported hits in one
// transaction and returns the new run
func SaveResult(ctx context.Context, st Storage, source string, res *search.Result) (*Run, error) {
	tx, err := st.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	run := NewRun(source, res)
	if err := tx.CreateRun(ctx, run); err != nil {
		return nil, err
	}
	for _, rec := range res.Records() {
		if _, err := tx.SaveHit(ctx, run.ID, &rec); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}
	return run, nil
}
