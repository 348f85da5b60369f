package hmm

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/dshills/gohmmer/internal/alphabet"
	"github.com/dshills/gohmmer/pkg/types"
)

const maxLineSize = 1 << 20

// Reader reads HMMER3 ASCII save files one model at a time
type Reader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	abcs    map[types.AlphabetKind]*alphabet.Alphabet
}

// NewReader wraps r. The caller keeps ownership of r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Reader{
		scanner: sc,
		abcs:    make(map[types.AlphabetKind]*alphabet.Alphabet),
	}
}

// Open opens the model file at path for reading
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrOpenFailed, path, err)
	}
	r := NewReader(f)
	r.closer = f
	return r, nil
}

// Close releases the underlying file, if the reader opened one
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// Read parses the next model. It returns io.EOF when no records remain.
// Malformed input yields an error wrapping types.ErrFormat that names the line.
func (r *Reader) Read() (*Model, error) {
	header, ok, err := r.nextNonBlank()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, io.EOF
	}
	if !strings.HasPrefix(header, "HMMER3/") {
		return nil, r.errorf("expected HMMER3 header, got %q", truncate(header))
	}

	hm, err := r.readHeader()
	if err != nil {
		return nil, err
	}
	if err := r.readBody(hm); err != nil {
		return nil, err
	}
	return hm, nil
}

type headerFields struct {
	name, acc, desc string
	m               int
	abc             *alphabet.Alphabet
}

// readHeader consumes tag lines up to and including the HMM line and
// returns a model shell sized from LENG.
func (r *Reader) readHeader() (*Model, error) {
	var h headerFields
	var nseq int
	var effn float64
	var cksum uint32
	var ga, tc, nc Cutoff
	var msv, vit, fwd GumbelParams

	for {
		line, ok := r.next()
		if !ok {
			return nil, r.truncated()
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		tag := fields[0]
		value := strings.TrimSpace(strings.TrimPrefix(strings.TrimLeftFunc(line, unicode.IsSpace), tag))

		var err error
		switch tag {
		case "NAME":
			if len(fields) < 2 {
				return nil, r.errorf("NAME has no value")
			}
			h.name = fields[1]
		case "ACC":
			h.acc = value
		case "DESC":
			h.desc = value
		case "LENG":
			h.m, err = r.positiveInt(fields, "LENG")
		case "ALPH":
			if len(fields) < 2 {
				return nil, r.errorf("ALPH has no value")
			}
			kind, perr := types.ParseAlphabetKind(fields[1])
			if perr != nil {
				return nil, r.errorf("%v", perr)
			}
			h.abc = r.alphabet(kind)
		case "NSEQ":
			nseq, err = r.positiveInt(fields, "NSEQ")
		case "EFFN":
			effn, err = r.float(fields, 1, "EFFN")
		case "CKSUM":
			var v uint64
			if len(fields) < 2 {
				return nil, r.errorf("CKSUM has no value")
			}
			v, err = strconv.ParseUint(fields[1], 10, 32)
			if err != nil {
				return nil, r.errorf("bad CKSUM %q", fields[1])
			}
			cksum = uint32(v)
		case "GA":
			ga, err = r.cutoff(fields)
		case "TC":
			tc, err = r.cutoff(fields)
		case "NC":
			nc, err = r.cutoff(fields)
		case "STATS":
			err = r.stats(fields, &msv, &vit, &fwd)
		case "HMM":
			if h.name == "" {
				return nil, r.errorf("model has no NAME")
			}
			if h.m == 0 {
				return nil, r.errorf("model %s has no LENG", h.name)
			}
			if h.abc == nil {
				return nil, r.errorf("model %s has no ALPH", h.name)
			}
			if len(fields)-1 != h.abc.K {
				return nil, r.errorf("HMM line has %d symbols, alphabet %s needs %d", len(fields)-1, h.abc, h.abc.K)
			}
			hm := newModel(h.m, h.abc)
			hm.Name, hm.Accession, hm.Description = h.name, h.acc, h.desc
			hm.NSeq, hm.EffN, hm.Checksum = nseq, effn, cksum
			hm.GA, hm.TC, hm.NC = ga, tc, nc
			hm.MSV, hm.Viterbi, hm.Forward = msv, vit, fwd
			return hm, nil
		default:
			// RF, MM, CONS, CS, MAP, DATE, COM and friends carry nothing we use
		}
		if err != nil {
			return nil, err
		}
	}
}

// readBody consumes the parameter section through the closing //
func (r *Reader) readBody(hm *Model) error {
	k := hm.Abc.K

	// transition column header
	if _, ok := r.next(); !ok {
		return r.truncated()
	}

	fields, err := r.fieldsLine()
	if err != nil {
		return err
	}
	if len(fields) > 0 && fields[0] == "COMPO" {
		hm.Compo = make([]float64, k)
		if err := r.probs(fields[1:], hm.Compo, "COMPO"); err != nil {
			return err
		}
		if fields, err = r.fieldsLine(); err != nil {
			return err
		}
	}

	if err := r.probs(fields, hm.Ins[0], "node 0 insert emissions"); err != nil {
		return err
	}
	if err := r.transitions(hm, 0); err != nil {
		return err
	}

	consensus := make([]byte, hm.M)
	for node := 1; node <= hm.M; node++ {
		fields, err := r.fieldsLine()
		if err != nil {
			return err
		}
		if len(fields) < k+1 {
			return r.errorf("node %d: match line has %d fields, need at least %d", node, len(fields), k+1)
		}
		if n, err := strconv.Atoi(fields[0]); err != nil || n != node {
			return r.errorf("expected node %d, got %q", node, fields[0])
		}
		if err := r.probs(fields[1:k+1], hm.Mat[node], fmt.Sprintf("node %d match emissions", node)); err != nil {
			return err
		}
		consensus[node-1] = consensusSymbol(hm, node, fields)

		if fields, err = r.fieldsLine(); err != nil {
			return err
		}
		if err := r.probs(fields, hm.Ins[node], fmt.Sprintf("node %d insert emissions", node)); err != nil {
			return err
		}
		if err := r.transitions(hm, node); err != nil {
			return err
		}
	}
	hm.Consensus = string(consensus)

	line, ok, err := r.nextNonBlank()
	if err != nil {
		return err
	}
	if !ok {
		return r.truncated()
	}
	if strings.TrimSpace(line) != "//" {
		return r.errorf("expected // after node %d, got %q", hm.M, truncate(line))
	}
	return nil
}

// consensusSymbol takes the CONS annotation column when present and falls
// back to the most probable match residue.
func consensusSymbol(hm *Model, node int, fields []string) byte {
	k := hm.Abc.K
	if len(fields) > k+2 && len(fields[k+2]) == 1 && fields[k+2] != "-" {
		return fields[k+2][0]
	}
	best := 0
	for x := 1; x < k; x++ {
		if hm.Mat[node][x] > hm.Mat[node][best] {
			best = x
		}
	}
	c := hm.Abc.Symbols[best]
	if hm.Mat[node][best] < 0.5 {
		c = byte(unicode.ToLower(rune(c)))
	}
	return c
}

func (r *Reader) transitions(hm *Model, node int) error {
	fields, err := r.fieldsLine()
	if err != nil {
		return err
	}
	if len(fields) != NTransitions {
		return r.errorf("node %d: expected %d transitions, got %d", node, NTransitions, len(fields))
	}
	return r.probs(fields, hm.T[node][:], fmt.Sprintf("node %d transitions", node))
}

// probs converts negative natural log fields into probabilities
func (r *Reader) probs(fields []string, dst []float64, what string) error {
	if len(fields) != len(dst) {
		return r.errorf("%s: expected %d values, got %d", what, len(dst), len(fields))
	}
	for i, f := range fields {
		if f == "*" {
			dst[i] = 0
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v < 0 {
			return r.errorf("%s: bad value %q", what, f)
		}
		dst[i] = math.Exp(-v)
	}
	return nil
}

func (r *Reader) stats(fields []string, msv, vit, fwd *GumbelParams) error {
	if len(fields) != 5 || fields[1] != "LOCAL" {
		return r.errorf("malformed STATS line")
	}
	mu, err := r.float(fields, 3, "STATS")
	if err != nil {
		return err
	}
	lambda, err := r.float(fields, 4, "STATS")
	if err != nil {
		return err
	}
	if lambda <= 0 {
		return r.errorf("STATS %s lambda must be positive", fields[2])
	}
	p := GumbelParams{Mu: mu, Lambda: lambda, Set: true}
	switch fields[2] {
	case "MSV":
		*msv = p
	case "VITERBI":
		*vit = p
	case "FORWARD":
		*fwd = p
	default:
		return r.errorf("unknown STATS distribution %q", fields[2])
	}
	return nil
}

func (r *Reader) cutoff(fields []string) (Cutoff, error) {
	if len(fields) < 3 {
		return Cutoff{}, r.errorf("%s needs two values", fields[0])
	}
	seq, err := strconv.ParseFloat(strings.TrimSuffix(fields[1], ";"), 64)
	if err != nil {
		return Cutoff{}, r.errorf("bad %s value %q", fields[0], fields[1])
	}
	dom, err := strconv.ParseFloat(strings.TrimSuffix(fields[2], ";"), 64)
	if err != nil {
		return Cutoff{}, r.errorf("bad %s value %q", fields[0], fields[2])
	}
	return Cutoff{Seq: seq, Domain: dom, Set: true}, nil
}

func (r *Reader) positiveInt(fields []string, tag string) (int, error) {
	if len(fields) < 2 {
		return 0, r.errorf("%s has no value", tag)
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n <= 0 {
		return 0, r.errorf("bad %s %q", tag, fields[1])
	}
	return n, nil
}

func (r *Reader) float(fields []string, i int, tag string) (float64, error) {
	if len(fields) <= i {
		return 0, r.errorf("%s is missing a value", tag)
	}
	v, err := strconv.ParseFloat(fields[i], 64)
	if err != nil {
		return 0, r.errorf("bad %s value %q", tag, fields[i])
	}
	return v, nil
}

func (r *Reader) alphabet(kind types.AlphabetKind) *alphabet.Alphabet {
	abc, ok := r.abcs[kind]
	if !ok {
		abc = alphabet.New(kind)
		r.abcs[kind] = abc
	}
	return abc
}

// fieldsLine returns the fields of the next line inside a record
func (r *Reader) fieldsLine() ([]string, error) {
	line, ok := r.next()
	if !ok {
		if err := r.scanner.Err(); err != nil {
			return nil, r.scanErr(err)
		}
		return nil, r.truncated()
	}
	return strings.Fields(line), nil
}

func (r *Reader) next() (string, bool) {
	if !r.scanner.Scan() {
		return "", false
	}
	r.line++
	return r.scanner.Text(), true
}

// nextNonBlank skips blank lines; ok is false at a clean end of input
func (r *Reader) nextNonBlank() (string, bool, error) {
	for {
		line, ok := r.next()
		if !ok {
			if err := r.scanner.Err(); err != nil {
				return "", false, r.scanErr(err)
			}
			return "", false, nil
		}
		if strings.TrimSpace(line) != "" {
			return line, true, nil
		}
	}
}

func (r *Reader) scanErr(err error) error {
	return fmt.Errorf("%w: line %d: %w", types.ErrFormat, r.line+1, err)
}

func (r *Reader) truncated() error {
	return r.errorf("unexpected end of file inside model record")
}

func (r *Reader) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", types.ErrFormat, r.line, fmt.Sprintf(format, args...))
}

func truncate(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
