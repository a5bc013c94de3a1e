package commands

import (
	"fmt"

	"wres-bootstrap/internal/pool"
	"wres-bootstrap/internal/poolio"
	"wres-bootstrap/internal/simulation"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newResampleCmd() *cobra.Command {
	var (
		flags bootstrapFlags
		out   string
	)

	cmd := &cobra.Command{
		Use:   "resample",
		Short: "Write bootstrap replicates of a pool as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.resolve(cmd)
			out = dataFile(cmd, "out", out)

			source, err := poolio.ReadPool[pool.Pair](flags.input)
			if err != nil {
				return err
			}

			engine, err := simulation.NewEngine[pool.Pair](source, flags.blockSize, flags.seed, nil)
			if err != nil {
				return err
			}

			w, err := poolio.NewReplicateWriter[pool.Pair](out)
			if err != nil {
				return err
			}
			for i := 0; i < flags.reps; i++ {
				if err := cmd.Context().Err(); err != nil {
					w.Abort()
					return err
				}
				if err := w.Write(i, engine.Replicate(i)); err != nil {
					w.Abort()
					return err
				}
			}
			if err := w.Close(); err != nil {
				return err
			}

			log.Info().
				Str("input", flags.input).
				Int("meanBlockSize", flags.blockSize).
				Uint64("seed", flags.seed).
				Msg("Resampling complete")
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d replicates to %s\n", flags.reps, out)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "replicates.jsonl", "output file (JSON lines), relative to DATA_PATH unless given")
	return cmd
}
