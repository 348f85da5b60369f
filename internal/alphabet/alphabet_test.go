package alphabet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gohmmer/pkg/types"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		kind    types.AlphabetKind
		wantK   int
		wantKp  int
		symbols string
	}{
		{"protein", types.AlphabetProtein, 20, 29, "ACDEFGHIKLMNPQRSTVWY-BJZOUX*~"},
		{"dna", types.AlphabetDNA, 4, 18, "ACGT-RYMKSWHBVDN*~"},
		{"rna", types.AlphabetRNA, 4, 18, "ACGU-RYMKSWHBVDN*~"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(tt.kind)
			assert.Equal(t, tt.wantK, a.K)
			assert.Equal(t, tt.wantKp, a.Kp)
			assert.Equal(t, tt.symbols, a.Symbols)
			assert.Equal(t, tt.kind, a.Kind)

			for i := 0; i < len(tt.symbols); i++ {
				assert.Equal(t, byte(i), a.InMap[tt.symbols[i]], "symbol %c", tt.symbols[i])
			}
		})
	}
}

func TestNewUnknownKindPanics(t *testing.T) {
	assert.Panics(t, func() { New(types.AlphabetKind(42)) })
}

func TestInMapSpecialCodes(t *testing.T) {
	a := New(types.AlphabetProtein)

	t.Run("lower case maps like upper case", func(t *testing.T) {
		assert.Equal(t, a.InMap['W'], a.InMap['w'])
		assert.Equal(t, a.InMap['X'], a.InMap['x'])
	})

	t.Run("whitespace and digits are ignored", func(t *testing.T) {
		for _, c := range []byte(" \t\n\r0123456789") {
			assert.Equal(t, CodeIgnored, a.InMap[c], "byte %q", c)
		}
	})

	t.Run("gap synonyms", func(t *testing.T) {
		assert.Equal(t, a.InMap['-'], a.InMap['.'])
		assert.Equal(t, a.InMap['-'], a.InMap['_'])
		assert.True(t, a.IsGap(a.InMap['.']))
	})

	t.Run("unmapped bytes are illegal", func(t *testing.T) {
		for _, c := range []byte("!@#$%^&()=+[]{}<>/?;:'\",") {
			assert.Equal(t, CodeIllegal, a.InMap[c], "byte %q", c)
		}
	})
}

func TestNucleicSynonyms(t *testing.T) {
	dna := New(types.AlphabetDNA)
	rna := New(types.AlphabetRNA)

	assert.Equal(t, dna.InMap['T'], dna.InMap['U'])
	assert.Equal(t, rna.InMap['U'], rna.InMap['t'])
	assert.Equal(t, "ACGT", dna.Decode([]byte{0, 1, 2, 3}))
	assert.Equal(t, "ACGU", rna.Decode([]byte{0, 1, 2, 3}))
}

func TestDegeneracies(t *testing.T) {
	a := New(types.AlphabetProtein)

	x := a.InMap['X']
	require.Len(t, a.Degen[x], 20)

	b := a.InMap['B']
	assert.Equal(t, []byte{a.InMap['N'], a.InMap['D']}, a.Degen[b])

	assert.Empty(t, a.Degen[a.InMap['-']])
	assert.Equal(t, []byte{a.InMap['W']}, a.Degen[a.InMap['W']])

	n := New(types.AlphabetDNA)
	assert.Len(t, n.Degen[n.InMap['N']], 4)
}

func TestIndexAndSymbol(t *testing.T) {
	a := New(types.AlphabetProtein)

	assert.Equal(t, 0, a.Index('A'))
	assert.Equal(t, 19, a.Index('y'))
	assert.Equal(t, -1, a.Index('X'))
	assert.Equal(t, -1, a.Index('!'))
	assert.Equal(t, byte('?'), a.Symbol(CodeSentinel))
}
