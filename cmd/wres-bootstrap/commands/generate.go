package commands

import (
	"fmt"

	"wres-bootstrap/internal/poolio"
	"wres-bootstrap/internal/synthetic"

	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	gen := synthetic.DefaultConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic streamflow pool for trying out resampling",
		RunE: func(cmd *cobra.Command, args []string) error {
			out = dataFile(cmd, "out", out)
			p, err := synthetic.Generate(gen)
			if err != nil {
				return err
			}
			if err := poolio.WritePool(out, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d mini-pools (%d series) to %s\n", len(p.MiniPools()), len(p.Main()), out)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "pool.json", "output pool document, relative to DATA_PATH unless given")
	f.IntVar(&gen.Features, "features", gen.Features, "number of features (mini-pools)")
	f.IntVar(&gen.Series, "series", gen.Series, "forecasts per feature")
	f.IntVar(&gen.Events, "events", gen.Events, "events per series")
	f.DurationVar(&gen.Timestep, "timestep", gen.Timestep, "time between events")
	f.DurationVar(&gen.Offset, "offset", gen.Offset, "time between forecast issues")
	f.BoolVar(&gen.Observed, "observed", gen.Observed, "generate one simulated (non-forecast) series per feature")
	f.BoolVar(&gen.Baseline, "baseline", gen.Baseline, "add a persistence baseline")
	f.Uint64Var(&gen.Seed, "seed", gen.Seed, "random seed")
	return cmd
}
