// Package types provides shared type definitions for gohmmer.
//
// This package defines the types used across the loader, the search executor,
// the persistence layer and the MCP transport: the alphabet kinds, the error
// taxonomy, and flattened hit/domain records.
//
// # Error Taxonomy
//
// Every failure surfaced by the search layer wraps one of the sentinels in
// errors.go and can be tested with errors.Is:
//
//	models, err := hmm.LoadAll(path)
//	if errors.Is(err, types.ErrOpenFailed) {
//	    // missing or unreadable model file
//	}
//
//	if err := exec.SearchFile(dbPath, search.Unlimited); errors.Is(err, types.ErrFormat) {
//	    // malformed sequence record, run aborted
//	}
//
// End of file is never an error at this level: readers return io.EOF and the
// loader and executor treat it as a clean stop.
//
// # Records
//
// HitRecord and DomainRecord are value copies of a finalized result. They are
// what gets written to SQLite and returned by the MCP tools:
//
//	rec := types.HitRecord{
//	    Rank:   1,
//	    Name:   "seq1",
//	    Score:  150.0,
//	    LnP:    -110.1,
//	    EValue: 1.5e-48,
//	}
//
// E-values in records are a snapshot; the live result views in package search
// recompute them from the pipeline on every call.
package types
