package bootstrap

import (
	"fmt"
	"math"
	"time"

	"wres-bootstrap/internal/pool"

	"github.com/samber/lo"
)

// structure summarises the temporal regularity of a validated pool.
type structure struct {
	timestep time.Duration // zero when no series has two events
	offset   time.Duration // zero when no side has two non-empty series
}

func validate[T any](p pool.Pool[T], meanBlockSize int) (structure, error) {
	if meanBlockSize <= 0 {
		return structure{}, fmt.Errorf("%w: the mean block size must be greater than zero, got %d", ErrInvalidInput, meanBlockSize)
	}

	var steps, offsets []time.Duration

	for m, mini := range p.MiniPools() {
		for _, sd := range sidesOf(mini) {
			nonForecasts := lo.CountBy(sd.series, func(s pool.TimeSeries[T]) bool {
				return !s.IsForecast()
			})
			if nonForecasts > 1 {
				return structure{}, fmt.Errorf("%w: found %d non-forecast time-series in the %s data of mini-pool %d; "+
					"non-forecast time-series must be consolidated into one before resampling", ErrInvalidInput, nonForecasts, sd.name, m)
			}

			for _, s := range sd.series {
				steps = append(steps, s.Timesteps()...)
			}
			offsets = append(offsets, seriesOffsets(sd.series)...)
		}
	}

	var st structure

	distinctSteps := lo.Uniq(steps)
	if len(distinctSteps) > 1 {
		return structure{}, fmt.Errorf("%w: the time-series have an irregular timestep, found %d distinct timesteps %v; "+
			"resampling requires a regular timestep", ErrInvalidInput, len(distinctSteps), distinctSteps)
	}
	if len(distinctSteps) == 1 {
		st.timestep = distinctSteps[0]
	}

	distinctOffsets := lo.Uniq(offsets)
	if len(distinctOffsets) > 1 {
		return structure{}, fmt.Errorf("%w: the time-series have irregular series spacing, found %d distinct offsets %v "+
			"between the first valid times of consecutive series", ErrInvalidInput, len(distinctOffsets), distinctOffsets)
	}
	if len(distinctOffsets) == 1 {
		st.offset = distinctOffsets[0]
	}

	return st, nil
}

type side[T any] struct {
	name   string
	series []pool.TimeSeries[T]
}

func sidesOf[T any](mini pool.MiniPool[T]) []side[T] {
	sides := []side[T]{{name: "main", series: mini.Main}}
	if mini.HasBaseline {
		sides = append(sides, side[T]{name: "baseline", series: mini.Baseline})
	}
	return sides
}

// seriesOffsets returns the durations between the first valid times of consecutive non-empty series.
func seriesOffsets[T any](series []pool.TimeSeries[T]) []time.Duration {
	var offsets []time.Duration
	var last time.Time
	seen := false

	for _, s := range series {
		first, ok := s.FirstValidTime()
		if !ok {
			continue
		}
		if seen {
			offsets = append(offsets, first.Sub(last))
		}
		last = first
		seen = true
	}

	return offsets
}

// transitionProbabilities derives p, the probability of a fresh event (or series)
// within a target, and q, the probability of a fresh series between targets.
// When the mean block does not span one inter-series offset, q saturates at 1.
func transitionProbabilities(meanBlockSize int, st structure) (p, q float64) {
	p = 1.0 / float64(meanBlockSize)

	meanBlocksPerOffset := 1.0
	if st.timestep != 0 && st.offset != 0 {
		timestepsPerOffset := float64(st.timestep) / float64(st.offset)
		meanBlocksPerOffset = math.Max(1.0, timestepsPerOffset*float64(meanBlockSize))
	}

	return p, 1.0 / meanBlocksPerOffset
}
