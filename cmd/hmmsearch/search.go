package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/gohmmer/internal/hmm"
	"github.com/dshills/gohmmer/internal/report"
	"github.com/dshills/gohmmer/internal/search"
	"github.com/dshills/gohmmer/internal/storage"
)

type searchFlags struct {
	tblout    string
	domtblout string
	domains   bool
	noStats   bool
	save      bool
}

func (a *app) searchCmd() *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "search <hmmfile> <seqdb>",
		Short: "Search every model in hmmfile against a sequence database",
		Long: `Search every model in hmmfile against a sequence database.

Models are searched in parallel, each with its own handle on the database,
and reported in file order. Use "-" as seqdb to read standard input; this
needs a single model.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, args[0], args[1], f)
		},
	}

	fl := cmd.Flags()
	fl.IntP("max-sequences", "n", search.Unlimited, "stop after this many sequences (-1 for all)")
	fl.Int("workers", 0, "models searched at once (0 for GOMAXPROCS)")
	fl.StringVar(&f.tblout, "tblout", "", "write the per-target table to this file")
	fl.StringVar(&f.domtblout, "domtblout", "", "write the per-domain table to this file")
	fl.BoolVar(&f.domains, "domains", false, "print the per-domain table after each model")
	fl.BoolVar(&f.noStats, "no-stats", false, "omit the pipeline statistics")
	fl.BoolVar(&f.save, "save", false, "store each model's result in the run database")

	a.bind(fl.Lookup("max-sequences"), "max-sequences")
	a.bind(fl.Lookup("workers"), "workers")
	return cmd
}

func (a *app) runSearch(cmd *cobra.Command, hmmPath, seqPath string, f searchFlags) error {
	models, err := hmm.LoadAll(hmmPath)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return fmt.Errorf("%s: no models", hmmPath)
	}

	outcomes, err := search.RunAll(cmd.Context(), models, a.cfg.RunConfig(seqPath), a.cfg.SearchOptions(a.logger)...)
	if err != nil {
		return err
	}

	for _, o := range outcomes {
		if err := a.writeResult(o.Result, f.domains, !f.noStats); err != nil {
			return err
		}
	}

	if f.tblout != "" {
		if err := writeTable(f.tblout, outcomes, report.WriteTargets); err != nil {
			return err
		}
	}
	if f.domtblout != "" {
		if err := writeTable(f.domtblout, outcomes, report.WriteDomains); err != nil {
			return err
		}
	}

	if f.save {
		st, err := a.openStorage()
		if err != nil {
			return err
		}
		defer st.Close()
		for _, o := range outcomes {
			run, err := storage.SaveResult(cmd.Context(), st, seqPath, o.Result)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Saved run %d (%s)\n", run.ID, run.ModelName)
		}
	}
	return nil
}

// writeResult prints one model's block, terminated by "//"
func (a *app) writeResult(res *search.Result, domains, stats bool) error {
	if err := report.WriteQueryHeader(a.out, res.Model); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(a.out); err != nil {
		return err
	}
	if err := report.WriteTargets(a.out, res, true); err != nil {
		return err
	}
	if domains {
		if _, err := fmt.Fprintln(a.out); err != nil {
			return err
		}
		if err := report.WriteDomains(a.out, res, true); err != nil {
			return err
		}
	}
	if stats {
		if _, err := fmt.Fprintln(a.out); err != nil {
			return err
		}
		if err := report.WriteSummary(a.out, res); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(a.out, "//")
	return err
}

// writeTable writes one table for all models, with the column header once
func writeTable(path string, outcomes []*search.Outcome, write func(io.Writer, *search.Result, bool) error) (err error) {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fh.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for i, o := range outcomes {
		if err := write(fh, o.Result, i == 0); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
