package profile

import (
	"github.com/dshills/gohmmer/internal/hmm"
)

// DefaultLengthHint is the target length a profile is configured for before
// the first sequence is seen.
const DefaultLengthHint = 100

// Build turns a model into a search-ready optimized profile.
//
// The general profile is configured in multihit local mode for lengthHint,
// converted, and then discarded. Only invalid parameters make Build fail.
func Build(hm *hmm.Model, bg *Background, lengthHint int) (*Optimized, error) {
	gm := New(hm.M, hm.Abc)
	om := NewOptimized(hm.M, hm.Abc)
	if err := gm.Config(hm, bg, lengthHint, ModeMultiLocal); err != nil {
		return nil, err
	}
	if err := Convert(gm, om); err != nil {
		return nil, err
	}
	return om, nil
}
