package search

import (
	"io"
	"log"

	"github.com/dshills/gohmmer/internal/engine"
	"github.com/dshills/gohmmer/internal/pipeline"
	"github.com/dshills/gohmmer/internal/profile"
)

// Unlimited is the maximum sequence count that reads the whole database
const Unlimited = -1

type options struct {
	logger     *log.Logger
	newEngine  func() engine.Engine
	pipeline   pipeline.Options
	lengthHint int
}

// Option configures an Executor
type Option func(*options)

// WithLogger sets the logger for debug traces. nil discards them.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithEngine sets the factory for the scoring engine. Every executor calls
// it once, so engines are never shared between executors.
func WithEngine(newEngine func() engine.Engine) Option {
	return func(o *options) {
		o.newEngine = newEngine
	}
}

// WithPipeline sets reporting, inclusion and filter thresholds
func WithPipeline(opts pipeline.Options) Option {
	return func(o *options) {
		o.pipeline = opts
	}
}

// WithLengthHint sets the target length the profile is first configured for
func WithLengthHint(L int) Option {
	return func(o *options) {
		o.lengthHint = L
	}
}

func buildOptions(opts []Option) options {
	o := options{
		newEngine:  func() engine.Engine { return engine.NewGeneric() },
		lengthHint: profile.DefaultLengthHint,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard, "", 0)
	}
	return o
}
