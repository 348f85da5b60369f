package seqfile

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"errors"
	"fmt"
	"io"

	"github.com/dshills/gohmmer/internal/alphabet"
	"github.com/dshills/gohmmer/internal/sequence"
	"github.com/dshills/gohmmer/pkg/types"
)

// File is an open sequence file
type File struct {
	Name   string
	Format Format

	r      *bufio.Reader
	closer io.Closer
	abc    *alphabet.Alphabet

	line    int
	pending []byte // header line read ahead of the record it starts
	nrec    int
	done    bool
}

// SetDigital sets the alphabet records are digitized into. It must be
// called before Read.
func (f *File) SetDigital(abc *alphabet.Alphabet) {
	f.abc = abc
}

// Read reads the next record into sq, replacing its contents.
//
// It returns io.EOF when no records remain. A malformed record, including
// one with a residue the alphabet rejects, fails with an error wrapping
// types.ErrFormat that names the file and line.
func (f *File) Read(sq *sequence.Digital) error {
	if f.abc == nil {
		return fmt.Errorf("%w: %s: digital alphabet not set", types.ErrInternalInconsistency, f.Name)
	}
	if sq.Alphabet().Kind != f.abc.Kind {
		return fmt.Errorf("%w: %s: reading %s records into a %s sequence",
			types.ErrInternalInconsistency, f.Name, f.abc, sq.Alphabet())
	}

	header, err := f.header()
	if err != nil {
		return err
	}
	name, desc := parseHeader(header)
	if name == "" {
		return f.formatErr("record has no name")
	}

	sq.Reuse()
	sq.Name = name
	sq.Description = desc
	sq.Index = f.nrec

	for {
		line, err := f.readLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if len(line) > 0 && line[0] == '>' {
			f.pending = line
			f.line--
			break
		}
		if err := sq.Append(line); err != nil {
			return fmt.Errorf("%w: %s: line %d: %w", types.ErrFormat, f.Name, f.line, err)
		}
	}

	f.nrec++
	return nil
}

// header returns the next header line, skipping blank lines
func (f *File) header() ([]byte, error) {
	if f.pending != nil {
		h := f.pending
		f.pending = nil
		f.line++
		return h, nil
	}
	for {
		line, err := f.readLine()
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if line[0] != '>' {
			return nil, f.formatErr("expected '>' at start of record")
		}
		return line, nil
	}
}

// readLine returns the next line without its terminator. Corrupt compressed
// input is a format error; other read failures are returned as they are.
func (f *File) readLine() ([]byte, error) {
	if f.done {
		return nil, io.EOF
	}
	line, err := f.r.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		if corrupt(err) {
			return nil, fmt.Errorf("%w: %s: line %d: %w", types.ErrFormat, f.Name, f.line+1, err)
		}
		return nil, fmt.Errorf("%s: line %d: %w", f.Name, f.line+1, err)
	}
	if len(line) == 0 && err != nil {
		f.done = true
		return nil, io.EOF
	}
	f.line++
	return bytes.TrimRight(line, "\r\n"), nil
}

func corrupt(err error) bool {
	var flateErr flate.CorruptInputError
	return errors.Is(err, gzip.ErrChecksum) || errors.Is(err, gzip.ErrHeader) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &flateErr)
}

func (f *File) formatErr(msg string) error {
	return fmt.Errorf("%w: %s: line %d: %s", types.ErrFormat, f.Name, f.line, msg)
}

// parseHeader splits ">name description" into its parts
func parseHeader(hdr []byte) (string, string) {
	hdr = bytes.TrimSpace(hdr[1:])
	if i := bytes.IndexAny(hdr, " \t"); i >= 0 {
		return string(hdr[:i]), string(bytes.TrimSpace(hdr[i+1:]))
	}
	return string(hdr), ""
}

// Records returns the number of records read so far
func (f *File) Records() int {
	return f.nrec
}

// Close releases the file. Closing a reader over standard input or a caller
// supplied reader is a no-op.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	err := f.closer.Close()
	f.closer = nil
	return err
}
