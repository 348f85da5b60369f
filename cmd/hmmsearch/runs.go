package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect searches stored with --save",
	}
	cmd.AddCommand(a.runsListCmd(), a.runsShowCmd(), a.runsDeleteCmd())
	return cmd
}

func (a *app) runsListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStorage()
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tMODEL\tSOURCE\tSEQS\tREPORTED\tINCLUDED\tCREATED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
					r.ID, r.ModelName, r.SeqSource, r.NSeqs, r.NReported, r.NIncluded,
					r.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs (0 for all)")
	return cmd
}

func (a *app) runsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the hits and domains of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			st, err := a.openStorage()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			run, err := st.GetRun(ctx, id)
			if err != nil {
				return fmt.Errorf("run %d: %w", id, err)
			}
			hits, err := st.ListHits(ctx, id)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Run %d: %s [M=%d] against %s\n", run.ID, run.ModelName, run.ModelLength, run.SeqSource)
			fmt.Fprintf(a.out, "Z=%.0f domZ=%.0f, %d reported, %d included\n\n", run.Z, run.DomZ, run.NReported, run.NIncluded)

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tTARGET\tE-VALUE\tSCORE\tDOMAIN\tENV\tALI\tHMM\tDOM E\tDOM SCORE")
			for _, h := range hits {
				domains, err := st.ListDomains(ctx, h.ID)
				if err != nil {
					return err
				}
				for _, d := range domains {
					fmt.Fprintf(tw, "%d\t%s\t%.2g\t%.1f\t%d/%d\t%d-%d\t%d-%d\t%d-%d\t%.2g\t%.1f\n",
						h.Rank, h.Name, h.EValue, h.Score, d.Index, len(domains),
						d.EnvFrom, d.EnvTo, d.AliFrom, d.AliTo, d.HMMFrom, d.HMMTo, d.EValue, d.BitScore)
				}
			}
			return tw.Flush()
		},
	}
}

func (a *app) runsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run with its hits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			st, err := a.openStorage()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteRun(cmd.Context(), id); err != nil {
				return fmt.Errorf("run %d: %w", id, err)
			}
			fmt.Fprintf(a.out, "Deleted run %d\n", id)
			return nil
		},
	}
}

func parseRunID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid run id %q", s)
	}
	return id, nil
}
