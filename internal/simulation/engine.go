package simulation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"wres-bootstrap/internal/bootstrap"
	"wres-bootstrap/internal/pool"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Statistic reduces one pool to a single number, e.g. a verification score.
type Statistic[T any] func(pool.Pool[T]) float64

// Engine generates bootstrap replicates of a pool and summarises a statistic over them.
// Replicate i always uses generator stream i+1, so results depend only on the
// seed, never on scheduling.
type Engine[T any] struct {
	source    pool.Pool[T]
	resampler *bootstrap.Resampler[T]
	seed      uint64
	workers   int
	statistic Statistic[T]
}

// Result holds the sampling distribution of the statistic.
type Result struct {
	Statistic     string    `json:"statistic,omitempty"`
	Replicates    int       `json:"replicates"`
	MeanBlockSize int       `json:"mean_block_size"`
	Seed          uint64    `json:"seed"`
	Observed      float64   `json:"observed"`
	Mean          float64   `json:"mean"`
	StdDev        float64   `json:"std_dev"`
	P05           float64   `json:"p05"`
	P50           float64   `json:"p50"`
	P95           float64   `json:"p95"`
	Values        []float64 `json:"-"`
}

// MarshalJSON writes non-finite values, such as the statistic of a pool without
// pairs, as null.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Statistic     string   `json:"statistic,omitempty"`
		Replicates    int      `json:"replicates"`
		MeanBlockSize int      `json:"mean_block_size"`
		Seed          uint64   `json:"seed"`
		Observed      *float64 `json:"observed"`
		Mean          *float64 `json:"mean"`
		StdDev        *float64 `json:"std_dev"`
		P05           *float64 `json:"p05"`
		P50           *float64 `json:"p50"`
		P95           *float64 `json:"p95"`
	}{
		Statistic:     r.Statistic,
		Replicates:    r.Replicates,
		MeanBlockSize: r.MeanBlockSize,
		Seed:          r.Seed,
		Observed:      finite(r.Observed),
		Mean:          finite(r.Mean),
		StdDev:        finite(r.StdDev),
		P05:           finite(r.P05),
		P50:           finite(r.P50),
		P95:           finite(r.P95),
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NewEngine validates the pool once, up front. Errors wrap bootstrap.ErrInvalidInput.
// The statistic may be nil when the engine only generates replicates; Run then fails.
func NewEngine[T any](source pool.Pool[T], meanBlockSize int, seed uint64, statistic Statistic[T]) (*Engine[T], error) {
	r, err := bootstrap.New(source, meanBlockSize, bootstrap.NewRandom(seed, 0))
	if err != nil {
		return nil, err
	}

	return &Engine[T]{
		source:    source,
		resampler: r,
		seed:      seed,
		workers:   runtime.GOMAXPROCS(0),
		statistic: statistic,
	}, nil
}

// SetWorkers bounds the number of replicates generated concurrently.
func (e *Engine[T]) SetWorkers(n int) {
	if n > 0 {
		e.workers = n
	}
}

// Replicate returns the i-th bootstrap replicate.
func (e *Engine[T]) Replicate(i int) pool.Pool[T] {
	return e.resampler.ResampleWith(bootstrap.NewRandom(e.seed, uint64(i)+1))
}

// Run performs the requested number of replicates and summarises the statistic.
func (e *Engine[T]) Run(ctx context.Context, replicates int) (Result, error) {
	if e.statistic == nil {
		return Result{}, errors.New("no statistic to summarise")
	}
	if replicates <= 0 {
		return Result{}, fmt.Errorf("replicates must be > 0, got %d", replicates)
	}

	start := time.Now()
	values := make([]float64, replicates)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < replicates; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			values[i] = e.statistic(e.Replicate(i))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("bootstrap interrupted: %w", err)
	}

	res := summarize(values)
	res.MeanBlockSize = e.resampler.MeanBlockSize()
	res.Seed = e.seed
	res.Observed = e.statistic(e.source)

	log.Info().
		Int("replicates", replicates).
		Int("workers", e.workers).
		Dur("elapsed", time.Since(start)).
		Msg("Bootstrap replicates complete")

	return res, nil
}

func summarize(values []float64) Result {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, stdDev := stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		// A single replicate has no spread.
		stdDev = 0
	}
	return Result{
		Replicates: len(values),
		Mean:       mean,
		StdDev:     stdDev,
		P05:        stat.Quantile(0.05, stat.Empirical, sorted, nil),
		P50:        stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P95:        stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Values:     values,
	}
}
