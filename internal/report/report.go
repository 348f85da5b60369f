// Package report writes search results as text: the query header, per-target
// and per-domain tables, and pipeline statistics. Writers only use the
// read-only accessors of search.Result.
package report

import (
	"fmt"
	"io"

	"github.com/dshills/gohmmer/internal/search"
	"github.com/dshills/gohmmer/pkg/types"
)

// WriteQueryHeader writes the query block. Accession and description lines
// are omitted when the model has none.
func WriteQueryHeader(w io.Writer, info types.ModelInfo) error {
	ew := &errWriter{w: w}
	ew.printf("Query:       %s  [M=%d]\n", info.Name, info.Length)
	if info.Accession != "" {
		ew.printf("Accession:   %s\n", info.Accession)
	}
	if info.Description != "" {
		ew.printf("Description: %s\n", info.Description)
	}
	return ew.err
}

// WriteTargets writes one line per reported hit. With header set, the two
// comment lines naming the columns come first.
func WriteTargets(w io.Writer, res *search.Result, header bool) error {
	ew := &errWriter{w: w}
	q := res.Model
	if header {
		ew.printf("#%-19s %-10s %-20s %-10s %9s %6s %9s %6s %4s %4s %4s %s\n",
			" target name", "accession", "query name", "accession",
			"E-value", "score", "dom E", "dom sc", "ndom", "nrep", "ninc", "description of target")
		ew.printf("#%-19s %-10s %-20s %-10s %9s %6s %9s %6s %4s %4s %4s %s\n",
			"-------------------", "----------", "--------------------", "----------",
			"---------", "------", "---------", "------", "----", "----", "----", "---------------------")
	}
	for hit := range res.Hits() {
		best, _ := hit.Domain(hit.BestDomain())
		nrep, ninc := 0, 0
		for d := range hit.Domains() {
			if d.Reported() {
				nrep++
			}
			if d.Included() {
				ninc++
			}
		}
		ew.printf("%-20s %-10s %-20s %-10s %9.2g %6.1f %9.2g %6.1f %4d %4d %4d %s\n",
			hit.Name(), dash(hit.Accession()), q.Name, dash(q.Accession),
			hit.EValue(), hit.Score(), best.EValue(), best.BitScore(),
			hit.DomainCount(), nrep, ninc, dash(hit.Description()))
	}
	return ew.err
}

// WriteDomains writes one line per reported domain of every reported hit.
// The "#" and "of" columns count reported domains only.
func WriteDomains(w io.Writer, res *search.Result, header bool) error {
	ew := &errWriter{w: w}
	q := res.Model
	if header {
		ew.printf("#%-19s %-10s %5s %-20s %-10s %5s %9s %6s %3s %3s %9s %6s %5s %5s %5s %5s %5s %5s %s\n",
			" target name", "accession", "tlen", "query name", "accession", "qlen",
			"E-value", "score", "#", "of", "i-Evalue", "score",
			"hmm", "from", "ali", "from", "env", "from", "description of target")
		ew.printf("#%-19s %-10s %5s %-20s %-10s %5s %9s %6s %3s %3s %9s %6s %5s %5s %5s %5s %5s %5s %s\n",
			"-------------------", "----------", "-----", "--------------------", "----------", "-----",
			"---------", "------", "---", "---", "---------", "------",
			"-----", "-----", "-----", "-----", "-----", "-----", "---------------------")
	}
	for hit := range res.Hits() {
		n := 0
		for d := range hit.Domains() {
			if d.Reported() {
				n++
			}
		}
		i := 0
		for d := range hit.Domains() {
			if !d.Reported() {
				continue
			}
			i++
			ew.printf("%-20s %-10s %5d %-20s %-10s %5d %9.2g %6.1f %3d %3d %9.2g %6.1f %5d %5d %5d %5d %5d %5d %s\n",
				hit.Name(), dash(hit.Accession()), hit.Length(), q.Name, dash(q.Accession), q.Length,
				hit.EValue(), hit.Score(), i, n, d.EValue(), d.BitScore(),
				d.HMMFrom(), d.HMMTo(), d.AliFrom(), d.AliTo(), d.EnvFrom(), d.EnvTo(),
				dash(hit.Description()))
		}
	}
	return ew.err
}

// WriteSummary writes the pipeline accounting block
func WriteSummary(w io.Writer, res *search.Result) error {
	s := res.Stats()
	ew := &errWriter{w: w}
	ew.printf("Internal pipeline statistics summary:\n")
	ew.printf("-------------------------------------\n")
	ew.printf("Query model(s):                  %15d  (%d nodes)\n", 1, res.Model.Length)
	ew.printf("Target sequences:                %15d  (%d residues searched)\n", s.NSeqs, s.NResidues)
	ew.printf("Passed MSV filter:               %15d  (%.6g)\n", s.NPastMSV, fraction(s.NPastMSV, s.NSeqs))
	ew.printf("Passed Vit filter:               %15d  (%.6g)\n", s.NPastVit, fraction(s.NPastVit, s.NSeqs))
	ew.printf("Passed Fwd filter:               %15d  (%.6g)\n", s.NPastFwd, fraction(s.NPastFwd, s.NSeqs))
	ew.printf("Initial search space (Z):        %15.0f\n", s.Z)
	ew.printf("Domain search space  (domZ):     %15.0f\n", s.DomZ)
	ew.printf("Reported hits:                   %15d  (%d included)\n", s.NReported, s.NIncluded)
	return ew.err
}

func fraction(n, d int64) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// errWriter keeps the first write error and skips later writes
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
