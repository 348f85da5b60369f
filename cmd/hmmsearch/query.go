package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/gohmmer/internal/hmm"
	"github.com/dshills/gohmmer/internal/search"
	"github.com/dshills/gohmmer/internal/sequence"
)

func (a *app) queryCmd() *cobra.Command {
	var name string
	var domains bool

	cmd := &cobra.Command{
		Use:   "query <hmmfile> <residues>...",
		Short: "Score one sequence given on the command line against every model",
		Long: `Score one sequence given on the command line against every model.

Arguments after hmmfile are joined into one sequence; whitespace is ignored.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(args[0], strings.Join(args[1:], ""), name, domains)
		},
	}
	cmd.Flags().StringVar(&name, "name", "query", "name reported for the sequence")
	cmd.Flags().BoolVar(&domains, "domains", false, "print the per-domain table")
	return cmd
}

func (a *app) runQuery(hmmPath, residues, name string, domains bool) error {
	models, err := hmm.LoadAll(hmmPath)
	if err != nil {
		return err
	}

	for _, hm := range models {
		sq, err := sequence.FromString(hm.Abc, name, residues)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if sq.N == 0 {
			return fmt.Errorf("%s: sequence has no residues", name)
		}

		res, err := queryOne(hm, sq, a.cfg.SearchOptions(a.logger))
		if err != nil {
			return err
		}
		if err := a.writeResult(res, domains, false); err != nil {
			return err
		}
	}
	return nil
}

func queryOne(hm *hmm.Model, sq *sequence.Digital, opts []search.Option) (*search.Result, error) {
	x, err := search.New(hm, opts...)
	if err != nil {
		return nil, err
	}
	defer x.Close()

	if err := x.Query(sq); err != nil {
		return nil, err
	}
	return x.Finalize(), nil
}
