package profile

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gohmmer/internal/alphabet"
	"github.com/dshills/gohmmer/internal/hmm"
	"github.com/dshills/gohmmer/pkg/types"
)

func loadMotif(t *testing.T) *hmm.Model {
	t.Helper()
	models, err := hmm.LoadAll("../../testdata/motif.hmm")
	require.NoError(t, err)
	require.Len(t, models, 1)
	return models[0]
}

func TestBackground_Frequencies(t *testing.T) {
	tests := []struct {
		kind types.AlphabetKind
		k    int
	}{
		{types.AlphabetProtein, 20},
		{types.AlphabetDNA, 4},
		{types.AlphabetRNA, 4},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			bg := NewBackground(alphabet.New(tt.kind))
			require.Len(t, bg.F, tt.k)
			var sum float64
			for _, f := range bg.F {
				assert.Greater(t, f, 0.0)
				sum += f
			}
			assert.InDelta(t, 1.0, sum, 1e-4)
		})
	}
}

func TestBackground_SetLength(t *testing.T) {
	bg := NewBackground(alphabet.New(types.AlphabetProtein))
	require.NoError(t, bg.SetLength(400))
	assert.Equal(t, 400, bg.L)
	assert.InDelta(t, 400.0/401.0, bg.P1, 1e-12)

	want := 400*math.Log(400.0/401.0) + math.Log(1.0/401.0)
	assert.InDelta(t, want, bg.NullScore(400), 1e-9)

	require.NoError(t, bg.SetLength(0))
	assert.Equal(t, 0.0, bg.NullScore(0))

	err := bg.SetLength(-1)
	assert.True(t, errors.Is(err, types.ErrInternalInconsistency))
}

func TestOccupancy(t *testing.T) {
	hm := loadMotif(t)
	occ := Occupancy(hm)
	require.Len(t, occ, hm.M+1)
	assert.Zero(t, occ[0])
	assert.InDelta(t, 0.95, occ[1], 1e-4)
	for k := 1; k <= hm.M; k++ {
		assert.Greater(t, occ[k], 0.0)
		assert.LessOrEqual(t, occ[k], 1.0+1e-9)
	}
}

func TestConfig_EntryDistribution(t *testing.T) {
	hm := loadMotif(t)
	bg := NewBackground(hm.Abc)
	gm := New(hm.M, hm.Abc)
	require.NoError(t, gm.Config(hm, bg, 100, ModeMultiLocal))

	// entry probabilities weighted by exit paths sum to one
	var sum float64
	for k := 1; k <= gm.M; k++ {
		sum += math.Exp(gm.Bsc[k]) * float64(gm.M-k+1)
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.True(t, math.IsInf(gm.Bsc[0], -1))
}

func TestConfig_Emissions(t *testing.T) {
	hm := loadMotif(t)
	bg := NewBackground(hm.Abc)
	gm := New(hm.M, hm.Abc)
	require.NoError(t, gm.Config(hm, bg, 100, ModeMultiLocal))

	abc := hm.Abc
	w := abc.Index('W')
	assert.InDelta(t, math.Log(0.81/bg.F[w]), gm.Msc[1][w], 1e-4)
	assert.Less(t, gm.Msc[1][abc.Index('A')], 0.0)

	x := int(abc.InMap['X'])
	assert.False(t, math.IsInf(gm.Msc[1][x], 0))
	assert.True(t, math.IsInf(gm.Msc[1][abc.K], -1), "gap never matches")
	assert.True(t, math.IsInf(gm.Msc[1][int(abc.InMap['*'])], -1))

	assert.Zero(t, gm.Isc[3][w])
	assert.True(t, math.IsInf(gm.Isc[3][abc.K], -1))
}

func TestConfig_Modes(t *testing.T) {
	hm := loadMotif(t)
	bg := NewBackground(hm.Abc)

	multi := New(hm.M, hm.Abc)
	require.NoError(t, multi.Config(hm, bg, 100, ModeMultiLocal))
	assert.InDelta(t, math.Log(0.5), multi.Xsc[XE][Loop], 1e-12)
	assert.InDelta(t, math.Log(3.0/103.0), multi.Xsc[XN][Move], 1e-12)

	uni := New(hm.M, hm.Abc)
	require.NoError(t, uni.Config(hm, bg, 100, ModeUniLocal))
	assert.True(t, math.IsInf(uni.Xsc[XE][Loop], -1))
	assert.InDelta(t, math.Log(2.0/102.0), uni.Xsc[XN][Move], 1e-12)
}

func TestConfig_InvalidParameters(t *testing.T) {
	hm := loadMotif(t)
	bg := NewBackground(hm.Abc)
	dna := alphabet.New(types.AlphabetDNA)

	tests := []struct {
		name string
		gm   *Profile
		bg   *Background
		L    int
		mode Mode
	}{
		{"zero length", New(hm.M, hm.Abc), bg, 0, ModeMultiLocal},
		{"size mismatch", New(hm.M+1, hm.Abc), bg, 100, ModeMultiLocal},
		{"alphabet mismatch", New(hm.M, dna), bg, 100, ModeMultiLocal},
		{"background mismatch", New(hm.M, hm.Abc), NewBackground(dna), 100, ModeMultiLocal},
		{"unknown mode", New(hm.M, hm.Abc), bg, 100, Mode(42)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.gm.Config(hm, tt.bg, tt.L, tt.mode)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrInternalInconsistency))
		})
	}
}

func TestBuild(t *testing.T) {
	hm := loadMotif(t)
	bg := NewBackground(hm.Abc)

	om, err := Build(hm, bg, DefaultLengthHint)
	require.NoError(t, err)
	assert.Equal(t, hm.M, om.M)
	assert.Equal(t, ModeMultiLocal, om.Mode)
	assert.Equal(t, DefaultLengthHint, om.L)
	assert.Equal(t, "motif8", om.Name)
	assert.Equal(t, "wchmyfqn", om.Consensus)
	assert.True(t, om.Calibrated())
	assert.InDelta(t, math.Log(2.0/72.0), om.MSVEntry, 1e-12)

	w := hm.Abc.Index('W')
	assert.InDelta(t, math.Log(0.81/bg.F[w]), om.Rsc[w][1], 1e-4)
	assert.Equal(t, hm.Info(), om.Info())

	_, err = Build(hm, bg, 0)
	assert.True(t, errors.Is(err, types.ErrInternalInconsistency))
}

func TestReconfigLength(t *testing.T) {
	hm := loadMotif(t)
	om, err := Build(hm, NewBackground(hm.Abc), DefaultLengthHint)
	require.NoError(t, err)

	rsc := om.Rsc[0][3]
	entry := om.Bsc[2]
	require.NoError(t, om.ReconfigLength(250))
	assert.Equal(t, 250, om.L)
	assert.InDelta(t, math.Log(3.0/253.0), om.Xsc[XC][Move], 1e-12)
	assert.InDelta(t, math.Log(250.0/253.0), om.Xsc[XJ][Loop], 1e-12)
	assert.Equal(t, rsc, om.Rsc[0][3], "emission scores are not length dependent")
	assert.Equal(t, entry, om.Bsc[2])

	assert.Error(t, om.ReconfigLength(-5))
	assert.Error(t, NewOptimized(3, hm.Abc).ReconfigLength(10))
}
