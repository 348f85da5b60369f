package main

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dshills/gohmmer/internal/config"
	"github.com/dshills/gohmmer/internal/pipeline"
	"github.com/dshills/gohmmer/internal/profile"
	"github.com/dshills/gohmmer/internal/storage"
)

// app is the state shared by all commands of one invocation
type app struct {
	v          *viper.Viper
	cfg        config.Config
	out        io.Writer
	logger     *log.Logger
	configPath string
}

// newRootCmd builds the command tree. Results go to out; logs go to the
// standard logger.
func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{v: config.New(), out: out}

	root := &cobra.Command{
		Use:   "hmmsearch",
		Short: "Search profile HMMs against protein sequence databases",
		Long: `Search profile HMMs against protein sequence databases.

Models are read from HMMER3 ASCII files. Targets are FASTA files, optionally
gzip compressed; "-" reads standard input. Settings come from flags,
GOHMMER_* environment variables and an optional hmmsearch.yaml.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ./hmmsearch.yaml when present)")
	pf.String("db", "hmmsearch.db", "run database path")
	pf.BoolP("verbose", "v", false, "log pipeline progress to stderr")

	pf.Float64P("evalue", "E", pipeline.DefaultReportE, "report hits with E-value <= this")
	pf.Float64("dom-evalue", pipeline.DefaultDomReportE, "report domains with E-value <= this")
	pf.Float64P("score", "T", 0, "report hits with bit score >= this instead of by E-value")
	pf.Float64("dom-score", 0, "report domains with bit score >= this instead of by E-value")
	pf.Float64("incl-evalue", pipeline.DefaultInclE, "include hits with E-value <= this")
	pf.Float64("incl-dom-evalue", pipeline.DefaultDomInclE, "include domains with E-value <= this")
	pf.Float64("incl-score", 0, "include hits with bit score >= this instead of by E-value")
	pf.Float64("incl-dom-score", 0, "include domains with bit score >= this instead of by E-value")
	pf.Float64P("z", "Z", 0, "fix the number of comparisons for E-values")
	pf.Float64("dom-z", 0, "fix the number of significant targets for domain E-values")
	pf.Bool("max", false, "turn off all filters")
	pf.Float64("F1", pipeline.DefaultF1, "MSV filter P-value threshold")
	pf.Float64("F2", pipeline.DefaultF2, "Viterbi filter P-value threshold")
	pf.Float64("F3", pipeline.DefaultF3, "Forward filter P-value threshold")
	pf.String("cutoff", "none", "use model score cutoffs: none, ga, tc or nc")
	pf.Int("length-hint", profile.DefaultLengthHint, "target length the profile is configured for initially")

	a.bind(pf.Lookup("db"), "db-path")
	a.bind(pf.Lookup("verbose"), "verbose")
	a.bind(pf.Lookup("evalue"), "reporting.evalue")
	a.bind(pf.Lookup("dom-evalue"), "reporting.dom-evalue")
	a.bind(pf.Lookup("score"), "reporting.score")
	a.bind(pf.Lookup("dom-score"), "reporting.dom-score")
	a.bind(pf.Lookup("incl-evalue"), "inclusion.evalue")
	a.bind(pf.Lookup("incl-dom-evalue"), "inclusion.dom-evalue")
	a.bind(pf.Lookup("incl-score"), "inclusion.score")
	a.bind(pf.Lookup("incl-dom-score"), "inclusion.dom-score")
	a.bind(pf.Lookup("z"), "z")
	a.bind(pf.Lookup("dom-z"), "dom-z")
	a.bind(pf.Lookup("max"), "max")
	a.bind(pf.Lookup("F1"), "filters.f1")
	a.bind(pf.Lookup("F2"), "filters.f2")
	a.bind(pf.Lookup("F3"), "filters.f3")
	a.bind(pf.Lookup("cutoff"), "cutoff")
	a.bind(pf.Lookup("length-hint"), "length-hint")

	root.AddCommand(a.searchCmd(), a.queryCmd(), a.runsCmd())
	return root
}

// bind ties a flag to a viper key. Only flags set on the command line
// override the config file and environment.
func (a *app) bind(flag *pflag.Flag, key string) {
	if err := a.v.BindPFlag(key, flag); err != nil {
		log.Fatalf("bind %s: %v", key, err)
	}
}

// load resolves the settings once flags are parsed
func (a *app) load() error {
	if err := config.ReadFile(a.v, a.configPath); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if cfg.Verbose {
		a.logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return nil
}

func (a *app) openStorage() (*storage.SQLiteStorage, error) {
	return storage.NewSQLiteStorage(a.cfg.DBPath)
}
