package profile

import (
	"fmt"
	"math"

	"github.com/dshills/gohmmer/internal/alphabet"
	"github.com/dshills/gohmmer/pkg/types"
)

// aminoFrequencies are the Swiss-Prot residue frequencies used as the
// protein null model, in canonical amino alphabet order.
var aminoFrequencies = []float64{
	0.0787945, // A
	0.0151600, // C
	0.0535222, // D
	0.0668298, // E
	0.0397062, // F
	0.0695071, // G
	0.0229198, // H
	0.0590092, // I
	0.0594422, // K
	0.0963728, // L
	0.0237718, // M
	0.0414386, // N
	0.0482904, // P
	0.0395639, // Q
	0.0540978, // R
	0.0683364, // S
	0.0540687, // T
	0.0673417, // V
	0.0114135, // W
	0.0304133, // Y
}

// defaultP1 is the null self-transition before any sequence length is known
const defaultP1 = 350.0 / 351.0

// Background is the null model: a residue composition and a geometric
// length distribution with self-transition P1.
type Background struct {
	Abc *alphabet.Alphabet
	F   []float64 // canonical residue frequencies, length K
	P1  float64
	L   int
}

// NewBackground creates the default null model for abc
func NewBackground(abc *alphabet.Alphabet) *Background {
	bg := &Background{
		Abc: abc,
		F:   make([]float64, abc.K),
		P1:  defaultP1,
	}
	if abc.Kind == types.AlphabetProtein {
		copy(bg.F, aminoFrequencies)
	} else {
		for x := range bg.F {
			bg.F[x] = 1.0 / float64(abc.K)
		}
	}
	return bg
}

// SetLength sets the null length distribution to have mean L
func (bg *Background) SetLength(L int) error {
	if L < 0 {
		return fmt.Errorf("%w: background length %d", types.ErrInternalInconsistency, L)
	}
	bg.L = L
	bg.P1 = float64(L) / float64(L+1)
	return nil
}

// NullScore returns the log likelihood, in nats, of a sequence of length L
// under the null model with its current P1.
func (bg *Background) NullScore(L int) float64 {
	if L == 0 {
		return math.Log(1 - bg.P1)
	}
	return float64(L)*math.Log(bg.P1) + math.Log(1-bg.P1)
}

// degenerateFreq sums the background frequency over the residues x stands for
func (bg *Background) degenerateFreq(x byte) float64 {
	var f float64
	for _, y := range bg.Abc.Degen[x] {
		f += bg.F[y]
	}
	return f
}
