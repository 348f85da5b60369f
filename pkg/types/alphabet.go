package types

import (
	"fmt"
	"strings"
)

// AlphabetKind identifies the residue alphabet of a model or sequence
type AlphabetKind int

const (
	AlphabetProtein AlphabetKind = iota + 1
	AlphabetRNA
	AlphabetDNA
)

// String returns the HMMER ALPH tag for the kind
func (k AlphabetKind) String() string {
	switch k {
	case AlphabetProtein:
		return "amino"
	case AlphabetRNA:
		return "RNA"
	case AlphabetDNA:
		return "DNA"
	default:
		return fmt.Sprintf("AlphabetKind(%d)", int(k))
	}
}

// Valid reports whether k is one of the known kinds
func (k AlphabetKind) Valid() bool {
	return k == AlphabetProtein || k == AlphabetRNA || k == AlphabetDNA
}

// ParseAlphabetKind parses an ALPH tag value (case-insensitive)
func ParseAlphabetKind(s string) (AlphabetKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "amino", "protein":
		return AlphabetProtein, nil
	case "rna":
		return AlphabetRNA, nil
	case "dna":
		return AlphabetDNA, nil
	default:
		return 0, fmt.Errorf("unknown alphabet %q", s)
	}
}
