// Package sequence holds digitized sequences and the digitizer that builds them.
package sequence

import (
	"fmt"

	"github.com/dshills/gohmmer/internal/alphabet"
	"github.com/dshills/gohmmer/pkg/types"
)

// Digital is a sequence in the internal alphabet representation.
//
// Dsq[0] and Dsq[N+1] are sentinels; Dsq[1..N] are residue codes, so
// len(Dsq) == N+2 at all times. Start, End, C, W and L describe the sequence
// as a single whole record: Start=1, End=N, C=0, W=N, L=N.
type Digital struct {
	Name        string
	Accession   string
	Description string

	Dsq []byte
	N   int

	Start, End int
	C, W, L    int

	// Index is the 0-based record number within its source file.
	Index int

	abc *alphabet.Alphabet
	buf []byte // scratch for Replace
}

// InvalidResidueError reports an input byte that is neither a valid symbol
// nor an ignored formatting byte.
type InvalidResidueError struct {
	Pos  int  // 0-based position in the raw input
	Char byte // offending input byte
}

func (e *InvalidResidueError) Error() string {
	return fmt.Sprintf("invalid residue %q at position %d", e.Char, e.Pos)
}

// Is lets errors.Is match the shared taxonomy sentinel.
func (e *InvalidResidueError) Is(target error) bool {
	return target == types.ErrInvalidResidue
}

// New creates an empty digital sequence bound to abc
func New(abc *alphabet.Alphabet) *Digital {
	sq := &Digital{abc: abc}
	sq.Reuse()
	return sq
}

// Digitize converts raw residue text into a new digital sequence
func Digitize(abc *alphabet.Alphabet, raw []byte) (*Digital, error) {
	sq := New(abc)
	if err := sq.Replace(raw); err != nil {
		return nil, err
	}
	return sq, nil
}

// FromString is Digitize for a name and residue string
func FromString(abc *alphabet.Alphabet, name, residues string) (*Digital, error) {
	sq, err := Digitize(abc, []byte(residues))
	if err != nil {
		return nil, err
	}
	sq.Name = name
	return sq, nil
}

// Alphabet returns the alphabet the sequence was digitized with
func (sq *Digital) Alphabet() *alphabet.Alphabet {
	return sq.abc
}

// Replace digitizes raw into the sequence, replacing its residues.
//
// Ignored bytes are skipped and do not occupy a residue slot. Any other byte
// that does not map to a valid code fails with *InvalidResidueError; in that
// case the sequence is left exactly as it was.
func (sq *Digital) Replace(raw []byte) error {
	need := len(raw) + 2
	if cap(sq.buf) < need {
		sq.buf = make([]byte, need)
	}
	buf := sq.buf[:need]

	buf[0] = alphabet.CodeSentinel
	j := 1
	for i, c := range raw {
		x := sq.abc.InMap[c]
		switch {
		case sq.abc.IsValid(x):
			buf[j] = x
			j++
		case x == alphabet.CodeIgnored:
			// skipped
		default:
			return &InvalidResidueError{Pos: i, Char: c}
		}
	}
	buf[j] = alphabet.CodeSentinel

	// Swap the scratch buffer in; the old residues become the next scratch.
	sq.buf, sq.Dsq = sq.Dsq, buf[:j+1]
	sq.setLength(j - 1)
	return nil
}

// Append digitizes raw onto the end of the current residues. It is used by
// readers that receive a record line by line. On error the sequence is unchanged.
func (sq *Digital) Append(raw []byte) error {
	for i, c := range raw {
		x := sq.abc.InMap[c]
		if !sq.abc.IsValid(x) && x != alphabet.CodeIgnored {
			return &InvalidResidueError{Pos: i, Char: c}
		}
	}

	dsq := sq.Dsq[:sq.N+1] // drop trailing sentinel
	for _, c := range raw {
		if x := sq.abc.InMap[c]; sq.abc.IsValid(x) {
			dsq = append(dsq, x)
		}
	}
	dsq = append(dsq, alphabet.CodeSentinel)
	sq.Dsq = dsq
	sq.setLength(len(dsq) - 2)
	return nil
}

func (sq *Digital) setLength(n int) {
	sq.N = n
	sq.Start = 1
	sq.End = n
	sq.C = 0
	sq.W = n
	sq.L = n
}

// Reuse resets the sequence to empty so it can receive the next record.
// The alphabet and allocated buffers are kept.
func (sq *Digital) Reuse() {
	sq.Name = ""
	sq.Accession = ""
	sq.Description = ""
	sq.Index = 0
	if cap(sq.Dsq) < 2 {
		sq.Dsq = make([]byte, 2, 256)
	}
	sq.Dsq = sq.Dsq[:2]
	sq.Dsq[0] = alphabet.CodeSentinel
	sq.Dsq[1] = alphabet.CodeSentinel
	sq.setLength(0)
}

// Residues returns the interior residue codes Dsq[1..N]
func (sq *Digital) Residues() []byte {
	return sq.Dsq[1 : sq.N+1]
}

// Text decodes the residues back to symbols
func (sq *Digital) Text() string {
	return sq.abc.Decode(sq.Residues())
}

// Clone returns a deep copy that shares only the alphabet
func (sq *Digital) Clone() *Digital {
	c := *sq
	c.Dsq = append([]byte(nil), sq.Dsq...)
	c.buf = nil
	return &c
}
