package search

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/dshills/gohmmer/internal/engine"
	"github.com/dshills/gohmmer/internal/hmm"
	"github.com/dshills/gohmmer/internal/pipeline"
	"github.com/dshills/gohmmer/internal/profile"
	"github.com/dshills/gohmmer/internal/seqfile"
	"github.com/dshills/gohmmer/internal/sequence"
	"github.com/dshills/gohmmer/internal/tophits"
	"github.com/dshills/gohmmer/pkg/types"
)

// ErrClosed is returned by operations on a closed Executor
var ErrClosed = errors.New("executor is closed")

// SequenceReader delivers target sequences one at a time. Read returns
// io.EOF when no sequences remain.
type SequenceReader interface {
	Read(sq *sequence.Digital) error
}

// Executor searches one model against sequences.
//
// It owns its background, optimized profile, pipeline and hit list, and is
// not safe for concurrent use. Search several models in parallel with one
// Executor per goroutine (see RunAll).
type Executor struct {
	model  *hmm.Model
	bg     *profile.Background
	om     *profile.Optimized
	pli    *pipeline.Pipeline
	th     *tophits.List
	eng    engine.Engine
	logger *log.Logger

	result *Result
	closed bool
}

// New builds an executor for hm: null model, optimized profile, hit list and
// pipeline, with the pipeline prepared for the model. Configuration failures
// wrap types.ErrInternalInconsistency.
func New(hm *hmm.Model, opts ...Option) (*Executor, error) {
	o := buildOptions(opts)

	bg := profile.NewBackground(hm.Abc)
	o.logger.Printf("model %s: background created (%s)", hm.Name, hm.Abc)

	om, err := profile.Build(hm, bg, o.lengthHint)
	if err != nil {
		return nil, fmt.Errorf("configure profile for %s: %w", hm.Name, err)
	}
	o.logger.Printf("model %s: profile configured, M=%d L=%d", hm.Name, om.M, om.L)

	th := tophits.New()
	pli, err := pipeline.New(o.pipeline)
	if err != nil {
		return nil, fmt.Errorf("create pipeline for %s: %w", hm.Name, err)
	}
	if err := pli.NewModel(om, bg); err != nil {
		return nil, fmt.Errorf("prepare pipeline for %s: %w", hm.Name, err)
	}
	o.logger.Printf("model %s: pipeline created", hm.Name)

	x := &Executor{
		model:  hm,
		bg:     bg,
		om:     om,
		pli:    pli,
		th:     th,
		eng:    o.newEngine(),
		logger: o.logger,
	}
	x.result = &Result{Model: hm.Info(), th: th, pli: pli}
	return x, nil
}

// Model returns the query model
func (x *Executor) Model() *hmm.Model {
	return x.model
}

// RunDatabase scores every sequence r delivers, stopping at end of input or
// after maxSequences sequences (Unlimited for no limit). Both are a clean
// stop. A reader error wrapping types.ErrFormat is returned unchanged; other
// reader errors are wrapped as unexpected. Engine failures wrap types.ErrEngine.
func (x *Executor) RunDatabase(r SequenceReader, maxSequences int) error {
	if x.closed {
		return ErrClosed
	}

	sq := sequence.New(x.model.Abc)
	n := 0
	for maxSequences < 0 || n < maxSequences {
		err := r.Read(sq)
		if errors.Is(err, io.EOF) {
			x.logger.Printf("model %s: read status: end of input after %d sequences", x.model.Name, n)
			return nil
		}
		if errors.Is(err, types.ErrFormat) {
			return err
		}
		if err != nil {
			return fmt.Errorf("unexpected error reading sequence %d: %w", n+1, err)
		}

		if err := x.score(sq); err != nil {
			return err
		}
		sq.Reuse()
		x.pli.Reuse()
		n++
	}
	x.logger.Printf("model %s: read status: stopped at %d sequences", x.model.Name, n)
	return nil
}

// SearchFile opens the sequence file at path in the model's alphabet and
// runs RunDatabase over it. Errors name the file.
func (x *Executor) SearchFile(path string, maxSequences int) error {
	if x.closed {
		return ErrClosed
	}
	f, err := seqfile.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	f.SetDigital(x.model.Abc)
	return x.RunDatabase(f, maxSequences)
}

// Query scores a single sequence. Any failure wraps types.ErrEngine.
func (x *Executor) Query(sq *sequence.Digital) error {
	if x.closed {
		return ErrClosed
	}
	return x.score(sq)
}

func (x *Executor) score(sq *sequence.Digital) error {
	if err := x.eng.NewSequence(x.pli, sq); err != nil {
		return x.engineErr(sq, "new sequence", err)
	}
	if err := x.eng.SetBackgroundLength(x.bg, sq.N); err != nil {
		return x.engineErr(sq, "set background length", err)
	}
	if err := x.eng.ReconfigureLength(x.om, sq.N); err != nil {
		return x.engineErr(sq, "reconfigure length", err)
	}
	if err := x.eng.Score(x.pli, x.om, x.bg, sq, x.th); err != nil {
		return x.engineErr(sq, "score", err)
	}
	return nil
}

func (x *Executor) engineErr(sq *sequence.Digital, step string, err error) error {
	return fmt.Errorf("%w: %s against %s: %s: %w", types.ErrEngine, x.model.Name, sq.Name, step, err)
}

// Finalize sorts the hits and applies the pipeline thresholds. It may be
// called any number of times; each call recomputes the flags. After Close it
// returns the last finalized result unchanged.
func (x *Executor) Finalize() *Result {
	if x.closed {
		return x.result
	}
	x.th.SortBySortkey()
	x.th.Threshold(x.pli)
	x.result.finalized = true
	x.logger.Printf("model %s: %d hits, %d reported", x.model.Name, x.th.Len(), x.th.ReportedCount())
	return x.result
}

// Close releases the executor's scoring state. A Result obtained from
// Finalize stays readable.
func (x *Executor) Close() error {
	if x.closed {
		return nil
	}
	x.closed = true
	x.bg, x.om, x.eng = nil, nil, nil
	return nil
}
