package bootstrap

import (
	"fmt"
	"slices"

	"wres-bootstrap/internal/pool"

	"github.com/rs/zerolog/log"
)

// Resampler generates pseudo-replicate pools with the stationary block bootstrap.
//
// It is built once per source pool and may be asked to Resample repeatedly. Each
// call draws a fresh plan from the generator given to New, so Resample is not
// safe for concurrent use; see ResampleWith.
//
// The plan of the first mini-pool with main data is applied verbatim to every
// mini-pool side with the same layout (kind, length and donor count of each
// target series). A side with a different layout cannot reuse those indexes, so
// each distinct layout gets its own plan, drawn from the same generator.
type Resampler[T any] struct {
	source        pool.Pool[T]
	meanBlockSize int
	p             float64
	q             float64
	rng           Random
	strategies    strategies

	main     []*BootstrapPool[T] // one per mini-pool
	baseline []*BootstrapPool[T] // one per mini-pool, nil without a baseline

	layouts        [][]shape // distinct target layouts, the plan source first
	mainLayout     []int     // index into layouts, per mini-pool
	baselineLayout []int
}

// New validates the pool and prepares the candidate structure of every mini-pool
// and its baseline. All errors wrap ErrInvalidInput.
func New[T any](p pool.Pool[T], meanBlockSize int, rng Random) (*Resampler[T], error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: a random number generator is required", ErrInvalidInput)
	}

	st, err := validate(p, meanBlockSize)
	if err != nil {
		return nil, err
	}

	r := &Resampler[T]{
		source:        p,
		meanBlockSize: meanBlockSize,
		rng:           rng,
	}
	r.p, r.q = transitionProbabilities(meanBlockSize, st)
	r.strategies = newStrategies(r.p, r.q)

	for _, mini := range p.MiniPools() {
		r.main = append(r.main, NewBootstrapPool(mini.Main))
		if mini.HasBaseline {
			r.baseline = append(r.baseline, NewBootstrapPool(mini.Baseline))
		}
	}

	if src := r.planSource(); src != nil {
		r.layouts = append(r.layouts, targetShapes(src))
	}
	for _, b := range r.main {
		r.mainLayout = append(r.mainLayout, r.layoutOf(b))
	}
	for _, b := range r.baseline {
		r.baselineLayout = append(r.baselineLayout, r.layoutOf(b))
	}

	log.Debug().
		Int("meanBlockSize", meanBlockSize).
		Dur("timestep", st.timestep).
		Dur("offset", st.offset).
		Float64("p", r.p).
		Float64("q", r.q).
		Int("miniPools", len(r.main)).
		Int("layouts", len(r.layouts)).
		Bool("baseline", p.HasBaseline()).
		Msg("Stationary bootstrap resampler ready")

	return r, nil
}

// P returns the probability of starting a new block within a series.
func (r *Resampler[T]) P() float64 {
	return r.p
}

// Q returns the probability of drawing a fresh series at the start of a target series.
func (r *Resampler[T]) Q() float64 {
	return r.q
}

// MeanBlockSize returns the mean block size in timesteps.
func (r *Resampler[T]) MeanBlockSize() int {
	return r.meanBlockSize
}

// Plan draws a resampling plan from the resampler's own generator.
func (r *Resampler[T]) Plan() Plan {
	return r.PlanWith(r.rng)
}

// PlanWith draws a resampling plan from the first mini-pool with main data,
// falling back to the first with baseline data. The plan is empty for an empty pool.
func (r *Resampler[T]) PlanWith(rng Random) Plan {
	if len(r.layouts) == 0 {
		return Plan{}
	}
	return r.strategies.plan(r.layouts[0], rng)
}

// Resample returns a new pool with the shape, times, metadata and climatology of
// the source pool and values drawn by one plan shared by every mini-pool and the baseline.
func (r *Resampler[T]) Resample() pool.Pool[T] {
	return r.Apply(r.Plan())
}

// ResampleWith is Resample with an explicit generator. The precomputed structure
// is read-only, so goroutines may call ResampleWith concurrently as long as each
// supplies its own generator.
func (r *Resampler[T]) ResampleWith(rng Random) pool.Pool[T] {
	return r.assemble(r.plans(r.PlanWith(rng), rng))
}

// Apply builds the output pool for a plan drawn by Plan. Sides laid out
// differently from the plan source draw their own plans from the resampler's generator.
func (r *Resampler[T]) Apply(plan Plan) pool.Pool[T] {
	return r.assemble(r.plans(plan, r.rng))
}

// plans pairs the source plan with a fresh plan for every other layout.
func (r *Resampler[T]) plans(source Plan, rng Random) []Plan {
	plans := make([]Plan, len(r.layouts))
	for i, l := range r.layouts {
		if i == 0 {
			plans[i] = source
			continue
		}
		plans[i] = r.strategies.plan(l, rng)
	}
	return plans
}

func (r *Resampler[T]) assemble(plans []Plan) pool.Pool[T] {
	minis := r.source.MiniPools()
	out := make([]pool.MiniPool[T], len(minis))

	for m, mini := range minis {
		resampled := mini
		resampled.Main = r.main[m].Apply(plans[r.mainLayout[m]])
		if mini.HasBaseline {
			resampled.Baseline = r.baseline[m].Apply(plans[r.baselineLayout[m]])
		}
		out[m] = resampled
	}

	return r.source.WithMiniPools(out)
}

func (r *Resampler[T]) planSource() *BootstrapPool[T] {
	for _, sides := range [][]*BootstrapPool[T]{r.main, r.baseline} {
		for _, b := range sides {
			if len(b.Targets()) > 0 {
				return b
			}
		}
	}
	return nil
}

func (r *Resampler[T]) layoutOf(b *BootstrapPool[T]) int {
	s := targetShapes(b)
	for i, l := range r.layouts {
		if slices.Equal(l, s) {
			return i
		}
	}
	r.layouts = append(r.layouts, s)
	return len(r.layouts) - 1
}
