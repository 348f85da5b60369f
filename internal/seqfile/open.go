package seqfile

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/dshills/gohmmer/pkg/types"
)

// Sequence file errors
var (
	ErrNotFound           = errors.New("sequence file not found")
	ErrUndeterminedFormat = errors.New("could not determine sequence file format")
)

// Format is a sequence file format
type Format int

const (
	FormatUnknown Format = iota
	FormatFASTA
)

func (f Format) String() string {
	if f == FormatFASTA {
		return "fasta"
	}
	return "unknown"
}

// multiCloser closes every wrapped closer, returning the first error
type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var err error
	for _, c := range m {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Open opens a sequence file for reading. The path "-" reads standard input.
// Gzip compression is detected from the magic bytes.
//
// A missing file fails with ErrNotFound, an empty file with an error wrapping
// types.ErrFormat, and a file whose format cannot be recognized with
// ErrUndeterminedFormat. Other failures wrap types.ErrOpenFailed.
func Open(path string) (*File, error) {
	if path == "-" {
		return newFile("-", os.Stdin, nil)
	}

	fh, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrOpenFailed, path, err)
	}

	f, err := newFile(path, fh, multiCloser{fh})
	if err != nil {
		_ = fh.Close()
		return nil, err
	}
	return f, nil
}

// NewReader reads sequences from r. name is used in error messages.
// The caller keeps ownership of r.
func NewReader(name string, r io.Reader) (*File, error) {
	return newFile(name, r, nil)
}

func newFile(name string, r io.Reader, closers multiCloser) (*File, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	sig, _ := br.Peek(2)
	if len(sig) == 2 && sig[0] == 0x1f && sig[1] == 0x8b {
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: bad gzip stream: %w", types.ErrFormat, name, err)
		}
		closers = append(multiCloser{gr}, closers...)
		br = bufio.NewReaderSize(gr, 64*1024)
	}

	format, err := sniff(br)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &File{
		Name:   name,
		Format: format,
		r:      br,
		closer: closers,
	}, nil
}

// sniff looks at the first non-blank byte without consuming anything
func sniff(br *bufio.Reader) (Format, error) {
	for n := 1; ; n++ {
		buf, err := br.Peek(n)
		if len(buf) < n {
			if err != nil && !errors.Is(err, io.EOF) {
				return FormatUnknown, fmt.Errorf("%w: %w", types.ErrOpenFailed, err)
			}
			return FormatUnknown, fmt.Errorf("%w: empty file", types.ErrFormat)
		}
		switch c := buf[n-1]; c {
		case ' ', '\t', '\r', '\n':
			continue
		case '>':
			return FormatFASTA, nil
		default:
			return FormatUnknown, ErrUndeterminedFormat
		}
	}
}
