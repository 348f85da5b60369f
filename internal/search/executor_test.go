package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gohmmer/internal/engine"
	"github.com/dshills/gohmmer/internal/hmm"
	"github.com/dshills/gohmmer/internal/pipeline"
	"github.com/dshills/gohmmer/internal/profile"
	"github.com/dshills/gohmmer/internal/seqfile"
	"github.com/dshills/gohmmer/internal/sequence"
	"github.com/dshills/gohmmer/internal/tophits"
	"github.com/dshills/gohmmer/pkg/types"
)

const (
	motifPath   = "../../testdata/motif.hmm"
	twoPath     = "../../testdata/two.hmm"
	targetsPath = "../../testdata/targets.fa"

	scenarioEValue = 1.4970530541655288e-48
	scenarioQuery  = "MVYSGPNAPIEVGNSLPLSEIPLATEIHNIELTPGKGGQLVRSAGSSAQLLAKEGNYVTLRLPSGEMRFVRKECYATIGQ"
)

// stubEngine reports fixed scores for named sequences
type stubEngine struct {
	hits   map[string]stubHit
	failOn string
	scored []string
}

type stubHit struct {
	score   float64
	lnP     float64
	domains []tophits.Domain
}

func (s *stubEngine) NewSequence(pli *pipeline.Pipeline, sq *sequence.Digital) error {
	pli.NewSeq(sq)
	return nil
}

func (s *stubEngine) SetBackgroundLength(bg *profile.Background, L int) error {
	return bg.SetLength(L)
}

func (s *stubEngine) ReconfigureLength(om *profile.Optimized, L int) error {
	return om.ReconfigLength(L)
}

func (s *stubEngine) Score(pli *pipeline.Pipeline, om *profile.Optimized, bg *profile.Background, sq *sequence.Digital, th *tophits.List) error {
	if sq.Name == s.failOn {
		return errors.New("matrix allocation failed")
	}
	s.scored = append(s.scored, sq.Name)
	want, ok := s.hits[sq.Name]
	if !ok {
		return nil
	}
	h := th.Add()
	h.Name = sq.Name
	h.Description = sq.Description
	h.Length = sq.N
	h.Score = want.score
	h.LnP = want.lnP
	h.SortKey = -want.lnP
	h.Domains = append([]tophits.Domain(nil), want.domains...)
	return nil
}

func withStub(s *stubEngine) Option {
	return WithEngine(func() engine.Engine { return s })
}

func loadModel(t *testing.T, path string) *hmm.Model {
	t.Helper()
	models, err := hmm.LoadAll(path)
	require.NoError(t, err)
	require.NotEmpty(t, models)
	return models[0]
}

func writeFasta(t *testing.T, records ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.fa")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(records, "")), 0o600))
	return path
}

// sliceReader serves digitized copies of fixed records, then err
type sliceReader struct {
	seqs []*sequence.Digital
	err  error
	pos  int
}

func (r *sliceReader) Read(sq *sequence.Digital) error {
	if r.pos >= len(r.seqs) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	src := r.seqs[r.pos]
	r.pos++
	if err := sq.Replace([]byte(src.Text())); err != nil {
		return err
	}
	sq.Name = src.Name
	return nil
}

func digital(t *testing.T, hm *hmm.Model, name, residues string) *sequence.Digital {
	t.Helper()
	sq, err := sequence.FromString(hm.Abc, name, residues)
	require.NoError(t, err)
	return sq
}

// Database search over a two record file with one true hit
func TestScenario_DatabaseSearch(t *testing.T) {
	hm := loadModel(t, motifPath)
	db := writeFasta(t,
		">target1 homolog\nWCHMYFQNAAAA\n",
		">decoy unrelated\nGGGGGGGGGGGG\n",
	)
	stub := &stubEngine{hits: map[string]stubHit{
		"target1": {
			score: 160.2,
			lnP:   math.Log(scenarioEValue / 2),
			domains: []tophits.Domain{{
				EnvFrom: 1, EnvTo: 8, AliFrom: 1, AliTo: 8, HMMFrom: 1, HMMTo: 8,
				BitScore: 160.0, LnP: math.Log(scenarioEValue / 2),
			}},
		},
	}}

	x, err := New(hm, withStub(stub))
	require.NoError(t, err)
	defer x.Close()

	require.NoError(t, x.SearchFile(db, Unlimited))
	res := x.Finalize()

	assert.Equal(t, 1, res.ReportedCount())
	assert.Equal(t, []string{"target1", "decoy"}, stub.scored)

	var hits []Hit
	for h := range res.Hits() {
		hits = append(hits, h)
	}
	require.Len(t, hits, 1)
	assert.Equal(t, "target1", hits[0].Name())
	assert.Equal(t, "homolog", hits[0].Description())
	assert.Equal(t, 1, hits[0].DomainCount())

	for d := range hits[0].Domains() {
		assert.InEpsilon(t, scenarioEValue, d.EValue(), 1e-12)
	}
	assert.Equal(t, 2.0, res.Stats().Z)
}

// Single sequence query with known scores
func TestScenario_Query(t *testing.T) {
	hm := loadModel(t, motifPath)
	stub := &stubEngine{hits: map[string]stubHit{
		"query": {
			score: 150.01991,
			lnP:   math.Log(scenarioEValue),
			domains: []tophits.Domain{{
				EnvFrom: 1, EnvTo: 80, AliFrom: 2, AliTo: 79, HMMFrom: 1, HMMTo: 8,
				BitScore: 149.90887, LnP: math.Log(scenarioEValue),
			}},
		},
	}}

	x, err := New(hm, withStub(stub))
	require.NoError(t, err)
	defer x.Close()

	require.NoError(t, x.Query(digital(t, hm, "query", scenarioQuery)))
	res := x.Finalize()
	require.Equal(t, 1, res.ReportedCount())

	hit, ok := res.Hit(0)
	require.True(t, ok)
	assert.InDelta(t, 150.01991, hit.Score(), 1e-5)
	dom, ok := hit.Domain(0)
	require.True(t, ok)
	assert.InDelta(t, 149.90887, dom.BitScore(), 1e-5)
	assert.InEpsilon(t, scenarioEValue, dom.EValue(), 1e-12)
	assert.InEpsilon(t, scenarioEValue, hit.EValue(), 1e-12)
}

func TestRunDatabase_MaxSequences(t *testing.T) {
	hm := loadModel(t, motifPath)

	tests := []struct {
		name string
		max  int
		want int64
	}{
		{"unlimited", Unlimited, 4},
		{"limit two", 2, 2},
		{"limit above size", 10, 4},
		{"zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubEngine{}
			x, err := New(hm, withStub(stub))
			require.NoError(t, err)
			defer x.Close()

			require.NoError(t, x.SearchFile(targetsPath, tt.max))
			assert.Equal(t, tt.want, x.Finalize().Stats().NSeqs)
			assert.Len(t, stub.scored, int(tt.want))
		})
	}
}

func TestRunDatabase_ReaderErrors(t *testing.T) {
	hm := loadModel(t, motifPath)
	formatErr := fmt.Errorf("%w: db.fa: line 7: bad residue", types.ErrFormat)
	ioErr := errors.New("connection reset")

	x, err := New(hm, withStub(&stubEngine{}))
	require.NoError(t, err)
	defer x.Close()

	r := &sliceReader{seqs: []*sequence.Digital{digital(t, hm, "a", "WCHM")}, err: formatErr}
	err = x.RunDatabase(r, Unlimited)
	assert.Same(t, formatErr, err, "format errors pass through unchanged")

	r = &sliceReader{err: ioErr}
	err = x.RunDatabase(r, Unlimited)
	require.Error(t, err)
	assert.ErrorIs(t, err, ioErr)
	assert.False(t, errors.Is(err, types.ErrFormat))
	assert.Contains(t, err.Error(), "unexpected error")
}

func TestRunDatabase_FileReadError(t *testing.T) {
	hm := loadModel(t, motifPath)
	ioErr := errors.New("input/output error")
	r, err := seqfile.NewReader("db.fa", io.MultiReader(strings.NewReader(">a\nWCHM\n"), iotest.ErrReader(ioErr)))
	require.NoError(t, err)
	r.SetDigital(hm.Abc)

	x, err := New(hm, withStub(&stubEngine{}))
	require.NoError(t, err)
	defer x.Close()

	err = x.RunDatabase(r, Unlimited)
	require.Error(t, err)
	assert.ErrorIs(t, err, ioErr)
	assert.False(t, errors.Is(err, types.ErrFormat))
	assert.Contains(t, err.Error(), "unexpected error")
}

func TestRunDatabase_EngineError(t *testing.T) {
	hm := loadModel(t, motifPath)
	x, err := New(hm, withStub(&stubEngine{failOn: "b"}))
	require.NoError(t, err)
	defer x.Close()

	r := &sliceReader{seqs: []*sequence.Digital{
		digital(t, hm, "a", "WCHM"),
		digital(t, hm, "b", "WCHM"),
	}}
	err = x.RunDatabase(r, Unlimited)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrEngine))
	assert.Contains(t, err.Error(), "matrix allocation failed")
}

func TestSearchFile_Errors(t *testing.T) {
	hm := loadModel(t, motifPath)
	x, err := New(hm)
	require.NoError(t, err)
	defer x.Close()

	err = x.SearchFile(filepath.Join(t.TempDir(), "missing.fa"), Unlimited)
	assert.True(t, errors.Is(err, seqfile.ErrNotFound))

	err = x.SearchFile("../../testdata/badresidue.fa", Unlimited)
	assert.True(t, errors.Is(err, types.ErrFormat))
	assert.Contains(t, err.Error(), "badresidue.fa")
}

func TestQuery_EngineError(t *testing.T) {
	hm := loadModel(t, motifPath)
	x, err := New(hm, withStub(&stubEngine{failOn: "q"}))
	require.NoError(t, err)
	defer x.Close()

	err = x.Query(digital(t, hm, "q", "WCHM"))
	assert.True(t, errors.Is(err, types.ErrEngine))
}

func TestNew_Uncalibrated(t *testing.T) {
	data, err := os.ReadFile(motifPath)
	require.NoError(t, err)
	var kept []string
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "STATS") {
			kept = append(kept, line)
		}
	}
	hm, err := hmm.NewReader(strings.NewReader(strings.Join(kept, "\n"))).Read()
	require.NoError(t, err)

	x, err := New(hm)
	assert.Nil(t, x)
	assert.True(t, errors.Is(err, types.ErrInternalInconsistency))
}

func TestNew_BadOptions(t *testing.T) {
	hm := loadModel(t, motifPath)

	_, err := New(hm, WithLengthHint(0))
	assert.True(t, errors.Is(err, types.ErrInternalInconsistency))

	_, err = New(hm, WithPipeline(pipeline.Options{ReportE: -1}))
	assert.True(t, errors.Is(err, types.ErrInternalInconsistency))
}

func TestResult_BeforeFinalize(t *testing.T) {
	hm := loadModel(t, motifPath)
	stub := &stubEngine{hits: map[string]stubHit{"a": {score: 50, lnP: -40, domains: []tophits.Domain{{BitScore: 50, LnP: -40}}}}}
	x, err := New(hm, withStub(stub))
	require.NoError(t, err)
	defer x.Close()

	require.NoError(t, x.Query(digital(t, hm, "a", "WCHM")))
	res := x.result
	assert.Zero(t, res.ReportedCount())
	for range res.Hits() {
		t.Fatal("no hits before finalize")
	}
	_, ok := res.Hit(0)
	assert.False(t, ok)
}

func TestFinalize_IdempotentAndLiveZ(t *testing.T) {
	hm := loadModel(t, motifPath)
	lnP := math.Log(1e-20)
	stub := &stubEngine{hits: map[string]stubHit{
		"a": {score: 60, lnP: lnP, domains: []tophits.Domain{{BitScore: 60, LnP: lnP}}},
		"b": {score: 70, lnP: lnP - 1, domains: []tophits.Domain{{BitScore: 70, LnP: lnP - 1}}},
	}}
	x, err := New(hm, withStub(stub))
	require.NoError(t, err)
	defer x.Close()

	require.NoError(t, x.Query(digital(t, hm, "a", "WCHM")))
	res := x.Finalize()
	require.Equal(t, 1, res.ReportedCount())
	hit, _ := res.Hit(0)
	dom, _ := hit.Domain(0)
	assert.InEpsilon(t, 1e-20, dom.EValue(), 1e-9)

	// a second target grows Z; existing views see it
	require.NoError(t, x.Query(digital(t, hm, "b", "WCHM")))
	assert.InEpsilon(t, 2e-20, dom.EValue(), 1e-9)

	res = x.Finalize()
	again := x.Finalize()
	assert.Same(t, res, again)
	require.Equal(t, 2, res.ReportedCount())
	first, _ := res.Hit(0)
	assert.Equal(t, "b", first.Name(), "hits are ranked by P-value")

	_, ok := res.Hit(2)
	assert.False(t, ok)
	_, ok = first.Domain(1)
	assert.False(t, ok)
}

func TestHits_EarlyBreak(t *testing.T) {
	hm := loadModel(t, motifPath)
	stub := &stubEngine{hits: map[string]stubHit{
		"a": {score: 60, lnP: -50, domains: []tophits.Domain{{LnP: -50}}},
		"b": {score: 70, lnP: -60, domains: []tophits.Domain{{LnP: -60}}},
	}}
	x, err := New(hm, withStub(stub))
	require.NoError(t, err)
	defer x.Close()
	require.NoError(t, x.Query(digital(t, hm, "a", "W")))
	require.NoError(t, x.Query(digital(t, hm, "b", "W")))

	n := 0
	for range x.Finalize().Hits() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestClose(t *testing.T) {
	hm := loadModel(t, motifPath)
	stub := &stubEngine{hits: map[string]stubHit{"a": {score: 60, lnP: -50, domains: []tophits.Domain{{LnP: -50}}}}}
	x, err := New(hm, withStub(stub))
	require.NoError(t, err)

	require.NoError(t, x.Query(digital(t, hm, "a", "W")))
	res := x.Finalize()
	require.NoError(t, x.Close())
	require.NoError(t, x.Close())

	assert.ErrorIs(t, x.Query(digital(t, hm, "a", "W")), ErrClosed)
	assert.ErrorIs(t, x.RunDatabase(&sliceReader{}, Unlimited), ErrClosed)
	assert.ErrorIs(t, x.SearchFile(targetsPath, Unlimited), ErrClosed)

	assert.Same(t, res, x.Finalize())
	assert.Equal(t, 1, res.ReportedCount(), "results outlive the executor")
}

func TestSearchFile_GenericEngine(t *testing.T) {
	hm := loadModel(t, motifPath)
	x, err := New(hm)
	require.NoError(t, err)
	defer x.Close()

	require.NoError(t, x.SearchFile(targetsPath, Unlimited))
	res := x.Finalize()

	require.Equal(t, 2, res.ReportedCount())
	var names []string
	for h := range res.Hits() {
		names = append(names, h.Name())
		assert.Less(t, h.EValue(), 1e-5)
		assert.True(t, h.Included())
	}
	assert.Equal(t, []string{"double", "embedded"}, names)

	double, _ := res.Hit(0)
	assert.Equal(t, 2, double.DomainCount())

	stats := res.Stats()
	assert.Equal(t, int64(4), stats.NSeqs)
	assert.Equal(t, int64(120), stats.NResidues)
	assert.Equal(t, 4.0, stats.Z)
	assert.Equal(t, 2.0, stats.DomZ)
	assert.Equal(t, int64(2), stats.NPastFwd)

	recs := res.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, 1, recs[0].Rank)
	assert.Equal(t, "double", recs[0].Name)
	require.Len(t, recs[0].Domains, 2)
	assert.Equal(t, 2, recs[0].Domains[1].Index)
	assert.Equal(t, 21, recs[0].Domains[1].AliFrom)
	for _, rec := range recs {
		assert.NoError(t, rec.Validate())
	}
}

func TestWithLogger(t *testing.T) {
	hm := loadModel(t, motifPath)
	var buf bytes.Buffer
	x, err := New(hm, WithLogger(log.New(&buf, "", 0)))
	require.NoError(t, err)
	defer x.Close()

	require.NoError(t, x.SearchFile(targetsPath, 1))
	out := buf.String()
	assert.Contains(t, out, "background created")
	assert.Contains(t, out, "profile configured")
	assert.Contains(t, out, "pipeline created")
	assert.Contains(t, out, "stopped at 1 sequences")
}

func TestRunAll(t *testing.T) {
	models, err := hmm.LoadAll(twoPath)
	require.NoError(t, err)

	outcomes, err := RunAll(context.Background(), models, RunConfig{SeqPath: targetsPath, MaxSequences: Unlimited, Workers: 2})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, "motif8", outcomes[0].Model.Name)
	assert.Equal(t, "hydro6", outcomes[1].Model.Name)
	assert.Equal(t, 2, outcomes[0].Result.ReportedCount())
	for _, o := range outcomes {
		assert.Equal(t, int64(4), o.Result.Stats().NSeqs)
		assert.Equal(t, o.Model.Name, o.Result.Model.Name)
	}
}

func TestRunAll_Errors(t *testing.T) {
	models, err := hmm.LoadAll(twoPath)
	require.NoError(t, err)

	_, err = RunAll(context.Background(), models, RunConfig{SeqPath: "-"})
	assert.Error(t, err)

	_, err = RunAll(context.Background(), models, RunConfig{SeqPath: "../../testdata/badresidue.fa", MaxSequences: Unlimited})
	assert.True(t, errors.Is(err, types.ErrFormat))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RunAll(ctx, models, RunConfig{SeqPath: targetsPath, MaxSequences: Unlimited})
	assert.ErrorIs(t, err, context.Canceled)
}
