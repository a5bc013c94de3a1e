package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"wres-bootstrap/internal/config"
	"wres-bootstrap/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wres-bootstrap",
		Short: "Stationary block-bootstrap resampling of forecast verification pools",
		Long: `Generates pseudo-replicate pools of paired time-series with the stationary block bootstrap,
preserving within-series and cross-series dependence, and summarises the sampling uncertainty
of verification statistics computed from them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Init(verbose); err != nil {
				return err
			}

			var err error
			cfg, err = config.Load()
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to load configuration")
			}

			log.Debug().
				Str("version", Version).
				Str("commit", Commit).
				Str("buildDate", BuildDate).
				Str("dataPath", cfg.DataPath).
				Msg("wres-bootstrap starting")
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.AddCommand(newResampleCmd(), newSummarizeCmd(), newGenerateCmd(), newSchemaCmd())
	return root
}

// Execute runs the CLI. An interrupt cancels the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

// bootstrapFlags are shared by the commands that resample.
type bootstrapFlags struct {
	input     string
	blockSize int
	seed      uint64
	reps      int
}

func (f *bootstrapFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "pool.json", "pool document to resample (JSON), relative to DATA_PATH unless given")
	cmd.Flags().IntVarP(&f.blockSize, "block-size", "b", 0, "mean block size in timesteps (default BOOTSTRAP_MEAN_BLOCK_SIZE)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "random seed (default BOOTSTRAP_SEED, or the clock)")
	cmd.Flags().IntVarP(&f.reps, "replicates", "n", 0, "number of replicates (default BOOTSTRAP_REPLICATES)")
}

// resolve fills the flags the user did not set from the loaded configuration.
func (f *bootstrapFlags) resolve(cmd *cobra.Command) {
	flags := cmd.Flags()
	if !flags.Changed("block-size") {
		f.blockSize = cfg.Bootstrap.MeanBlockSize
	}
	if !flags.Changed("replicates") {
		f.reps = cfg.Bootstrap.Replicates
	}
	if !flags.Changed("seed") {
		f.seed = cfg.Bootstrap.ResolveSeed()
	}
	f.input = dataFile(cmd, "input", f.input)
}

// dataFile places a default file name under DATA_PATH. Paths given on the
// command line are used as they are.
func dataFile(cmd *cobra.Command, flag, path string) string {
	if cmd.Flags().Changed(flag) || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfg.DataPath, path)
}
