package bootstrap

import (
	"slices"

	"wres-bootstrap/internal/pool"

	"github.com/samber/lo"
)

// BootstrapPool indexes one side (main or baseline) of one mini-pool so that,
// for a target series of n events, the donor series with at least n events
// can be found without rescanning the pool.
type BootstrapPool[T any] struct {
	targets     []pool.TimeSeries[T]
	lengths     []int                     // distinct forecast lengths, ascending
	forecasts   map[int][][]pool.Event[T] // keyed by a length in lengths
	nonForecast []pool.Event[T]
}

// NewBootstrapPool builds the candidate index for the given series. At most one
// series may be a non-forecast; callers validate that beforehand.
func NewBootstrapPool[T any](series []pool.TimeSeries[T]) *BootstrapPool[T] {
	b := &BootstrapPool[T]{
		targets:   slices.Clone(series),
		forecasts: make(map[int][][]pool.Event[T]),
	}

	var forecastEvents [][]pool.Event[T]
	for _, s := range series {
		if s.IsForecast() {
			forecastEvents = append(forecastEvents, s.Events())
		} else {
			b.nonForecast = s.Events()
		}
	}

	counts := lo.Uniq(lo.Map(forecastEvents, func(e []pool.Event[T], _ int) int {
		return len(e)
	}))
	slices.Sort(counts)
	b.lengths = counts
	for _, n := range counts {
		b.forecasts[n] = lo.Filter(forecastEvents, func(e []pool.Event[T], _ int) bool {
			return len(e) >= n
		})
	}

	return b
}

// Targets returns the series whose shape the resampled output takes.
func (b *BootstrapPool[T]) Targets() []pool.TimeSeries[T] {
	return b.targets
}

// Forecasts returns, in pool order, the event lists of every forecast series with
// at least n events.
func (b *BootstrapPool[T]) Forecasts(n int) [][]pool.Event[T] {
	// The donors of the shortest length >= n are exactly those with >= n events.
	i, _ := slices.BinarySearch(b.lengths, n)
	if i == len(b.lengths) {
		return nil
	}
	return b.forecasts[b.lengths[i]]
}

// NonForecast returns the events of the single non-forecast series, if any.
func (b *BootstrapPool[T]) NonForecast() []pool.Event[T] {
	return b.nonForecast
}

// candidates is the size of the donor set for a target of the given kind and length.
func (b *BootstrapPool[T]) candidates(kind pool.Kind, n int) int {
	if kind == pool.Forecast {
		return len(b.Forecasts(n))
	}
	return len(b.nonForecast)
}

// Apply builds one output series per target using the donors named in the plan.
// Times and metadata come from the target, values from the donor. The plan must
// have been drawn from the layout of this pool, see GeneratePlan.
func (b *BootstrapPool[T]) Apply(plan Plan) []pool.TimeSeries[T] {
	out := make([]pool.TimeSeries[T], len(b.targets))

	for i, target := range b.targets {
		indexes := plan[i]
		if len(indexes) == 0 {
			out[i] = target
			continue
		}

		values := make([]T, target.Len())
		for k, donor := range indexes {
			values[k] = b.donorValue(target.Kind(), target.Len(), k, donor)
		}
		out[i] = target.WithValues(values)
	}

	return out
}

func (b *BootstrapPool[T]) donorValue(kind pool.Kind, n, k int, donor DonorIndex) T {
	if kind == pool.Forecast {
		// Forecasts never cross lead positions: the donor event is always k.
		return b.Forecasts(n)[donor.Series][k].Value
	}
	return b.nonForecast[donor.Event].Value
}
