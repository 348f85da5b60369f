// Package alphabet realizes the residue alphabets used to digitize sequences
// and to interpret model emission tables.
package alphabet

import (
	"fmt"

	"github.com/dshills/gohmmer/pkg/types"
)

// Reserved codes. Valid residue codes are always < Kp.
const (
	CodeEOD      byte = 251 // end of data, never written to a buffer
	CodeEOL      byte = 252 // end of line, never written to a buffer
	CodeIgnored  byte = 253
	CodeIllegal  byte = 254
	CodeSentinel byte = 255
)

// Canonical symbol strings. The first K symbols are the canonical residues,
// followed by the gap, the degeneracy codes, the nonresidue '*' and the
// missing-data '~'.
const (
	aminoSymbols = "ACDEFGHIKLMNPQRSTVWY-BJZOUX*~"
	dnaSymbols   = "ACGT-RYMKSWHBVDN*~"
	rnaSymbols   = "ACGU-RYMKSWHBVDN*~"
)

// Alphabet maps raw residue bytes to internal codes and back.
//
// An Alphabet is immutable after New returns and may be shared by any number
// of sequences, models and goroutines.
type Alphabet struct {
	Kind    types.AlphabetKind
	K       int    // canonical residues
	Kp      int    // all valid symbols, including gap and degeneracies
	Symbols string // code -> symbol, length Kp

	// InMap maps an input byte to its code, CodeIgnored or CodeIllegal.
	InMap [256]byte

	// Degen[x] lists the canonical codes that degenerate code x stands for.
	// For canonical codes it is the code itself; for gap, '*' and '~' it is empty.
	Degen [][]byte
}

// New realizes the alphabet of the given kind.
// It panics if kind is not one of the known kinds.
func New(kind types.AlphabetKind) *Alphabet {
	var a *Alphabet
	switch kind {
	case types.AlphabetProtein:
		a = build(kind, aminoSymbols, 20)
		setDegen(a, 'B', "ND")
		setDegen(a, 'J', "IL")
		setDegen(a, 'Z', "QE")
		setDegen(a, 'O', "K")
		setDegen(a, 'U', "C")
		setDegen(a, 'X', "ACDEFGHIKLMNPQRSTVWY")
	case types.AlphabetDNA:
		a = build(kind, dnaSymbols, 4)
		setNucleicDegen(a, "T")
		a.synonym('U', 'T')
	case types.AlphabetRNA:
		a = build(kind, rnaSymbols, 4)
		setNucleicDegen(a, "U")
		a.synonym('T', 'U')
	default:
		panic(fmt.Sprintf("alphabet: unknown kind %v", kind))
	}
	return a
}

func build(kind types.AlphabetKind, symbols string, k int) *Alphabet {
	a := &Alphabet{
		Kind:    kind,
		K:       k,
		Kp:      len(symbols),
		Symbols: symbols,
		Degen:   make([][]byte, len(symbols)),
	}

	for c := range a.InMap {
		a.InMap[c] = CodeIllegal
	}
	for i := 0; i < len(symbols); i++ {
		a.InMap[symbols[i]] = byte(i)
		if lc := lower(symbols[i]); lc != symbols[i] {
			a.InMap[lc] = byte(i)
		}
	}
	for x := 0; x < k; x++ {
		a.Degen[x] = []byte{byte(x)}
	}

	a.synonym('_', '-')
	a.synonym('.', '-')

	// Formatting bytes embedded in a record are skipped during digitization.
	for _, c := range []byte(" \t\n\r\v\f") {
		a.InMap[c] = CodeIgnored
	}
	for c := byte('0'); c <= '9'; c++ {
		a.InMap[c] = CodeIgnored
	}
	return a
}

func setNucleicDegen(a *Alphabet, tu string) {
	setDegen(a, 'R', "AG")
	setDegen(a, 'Y', "C"+tu)
	setDegen(a, 'M', "AC")
	setDegen(a, 'K', "G"+tu)
	setDegen(a, 'S', "CG")
	setDegen(a, 'W', "A"+tu)
	setDegen(a, 'H', "AC"+tu)
	setDegen(a, 'B', "CG"+tu)
	setDegen(a, 'V', "ACG")
	setDegen(a, 'D', "AG"+tu)
	setDegen(a, 'N', "ACG"+tu)
}

func setDegen(a *Alphabet, sym byte, canon string) {
	x := a.InMap[sym]
	set := make([]byte, 0, len(canon))
	for i := 0; i < len(canon); i++ {
		set = append(set, a.InMap[canon[i]])
	}
	a.Degen[x] = set
}

// synonym maps input byte c (both cases) to the code of symbol target
func (a *Alphabet) synonym(c, target byte) {
	x := a.InMap[target]
	a.InMap[c] = x
	a.InMap[lower(c)] = x
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

// IsValid reports whether x is a valid residue code
func (a *Alphabet) IsValid(x byte) bool {
	return int(x) < a.Kp
}

// IsCanonical reports whether x is one of the K canonical residues
func (a *Alphabet) IsCanonical(x byte) bool {
	return int(x) < a.K
}

// IsGap reports whether x is the gap code
func (a *Alphabet) IsGap(x byte) bool {
	return int(x) == a.K
}

// Symbol returns the residue character for code x, or '?' if x is not a valid code
func (a *Alphabet) Symbol(x byte) byte {
	if !a.IsValid(x) {
		return '?'
	}
	return a.Symbols[x]
}

// Decode converts a slice of residue codes back to text
func (a *Alphabet) Decode(codes []byte) string {
	out := make([]byte, len(codes))
	for i, x := range codes {
		out[i] = a.Symbol(x)
	}
	return string(out)
}

// Index returns the canonical code of residue c, or -1 when c does not map to a canonical residue
func (a *Alphabet) Index(c byte) int {
	x := a.InMap[c]
	if !a.IsCanonical(x) {
		return -1
	}
	return int(x)
}

// String returns the kind name
func (a *Alphabet) String() string {
	return a.Kind.String()
}
