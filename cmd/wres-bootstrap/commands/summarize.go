package commands

import (
	"encoding/json"
	"fmt"
	"slices"

	"wres-bootstrap/internal/pool"
	"wres-bootstrap/internal/poolio"
	"wres-bootstrap/internal/simulation"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newSummarizeCmd() *cobra.Command {
	var (
		flags     bootstrapFlags
		workers   int
		statistic string
	)

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Estimate the sampling distribution of a statistic over bootstrap replicates",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.resolve(cmd)

			stat, ok := simulation.Statistics[statistic]
			if !ok {
				names := lo.Keys(simulation.Statistics)
				slices.Sort(names)
				return fmt.Errorf("unknown statistic %q, expected one of %v", statistic, names)
			}

			source, err := poolio.ReadPool[pool.Pair](flags.input)
			if err != nil {
				return err
			}

			engine, err := simulation.NewEngine(source, flags.blockSize, flags.seed, stat)
			if err != nil {
				return err
			}
			if workers == 0 {
				workers = cfg.Bootstrap.Workers
			}
			engine.SetWorkers(workers)

			res, err := engine.Run(cmd.Context(), flags.reps)
			if err != nil {
				return err
			}

			res.Statistic = statistic
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "replicates generated concurrently (default BOOTSTRAP_WORKERS)")
	cmd.Flags().StringVarP(&statistic, "statistic", "s", "mean_error", "statistic to summarise")
	return cmd
}
