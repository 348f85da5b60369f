package search

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/gohmmer/internal/hmm"
)

// RunConfig describes a multi-model database search
type RunConfig struct {
	SeqPath      string
	MaxSequences int
	// Workers bounds the number of models searched at once; <= 0 uses GOMAXPROCS
	Workers int
}

// Outcome is the finalized result of one model
type Outcome struct {
	Model  *hmm.Model
	Result *Result
}

// RunAll searches every model against the sequence file, one executor and
// one file handle per model, at most cfg.Workers at a time. Outcomes are in
// model order. The first failure cancels models that have not started yet
// and is returned.
func RunAll(ctx context.Context, models []*hmm.Model, cfg RunConfig, opts ...Option) ([]*Outcome, error) {
	if cfg.SeqPath == "-" && len(models) > 1 {
		return nil, errors.New("standard input can only be searched with a single model")
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	outcomes := make([]*Outcome, len(models))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, hm := range models {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := runOne(hm, cfg, opts)
			if err != nil {
				return err
			}
			outcomes[i] = &Outcome{Model: hm, Result: res}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func runOne(hm *hmm.Model, cfg RunConfig, opts []Option) (*Result, error) {
	x, err := New(hm, opts...)
	if err != nil {
		return nil, err
	}
	defer x.Close()

	if err := x.SearchFile(cfg.SeqPath, cfg.MaxSequences); err != nil {
		return nil, fmt.Errorf("search %s: %w", hm.Name, err)
	}
	return x.Finalize(), nil
}
