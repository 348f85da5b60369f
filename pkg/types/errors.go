package types

import "errors"

// Domain errors shared by the loader, readers, executor and engine.
var (
	// File access errors
	ErrOpenFailed = errors.New("failed to open file")

	// Malformed model or sequence record. Fatal for the current run.
	ErrFormat = errors.New("file format error")

	// A residue byte that is neither a valid symbol nor ignorable.
	ErrInvalidResidue = errors.New("invalid residue")

	// The scoring engine reported a failure for a sequence.
	ErrEngine = errors.New("scoring engine failure")

	// A profile or pipeline configuration call rejected its parameters.
	// Indicates a broken invariant rather than bad input.
	ErrInternalInconsistency = errors.New("internal inconsistency")
)
