// Package profile turns models into scoring profiles.
//
// A Background is the null model a profile is scored against. A Profile is
// a model configured into log-odds scores for one alignment mode; an
// Optimized profile is its search-time layout. Build runs the whole
// sequence: configure in multihit local mode at DefaultLengthHint, convert,
// drop the general profile.
//
// Before each target sequence the caller resets the length-dependent parts
// with Background.SetLength and Optimized.ReconfigLength. Neither object is
// safe for concurrent use; give each goroutine its own pair.
package profile
