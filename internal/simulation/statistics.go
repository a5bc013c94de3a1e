package simulation

import (
	"math"

	"wres-bootstrap/internal/pool"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// MeanError is the average of right minus left over every main pair in the pool.
// It is NaN for a pool without pairs.
func MeanError(p pool.Pool[pool.Pair]) float64 {
	errs := pairErrors(p)
	if len(errs) == 0 {
		return math.NaN()
	}
	return stat.Mean(errs, nil)
}

// MeanAbsoluteError is the average magnitude of right minus left. It is NaN for a pool without pairs.
func MeanAbsoluteError(p pool.Pool[pool.Pair]) float64 {
	errs := pairErrors(p)
	if len(errs) == 0 {
		return math.NaN()
	}
	return stat.Mean(lo.Map(errs, func(e float64, _ int) float64 {
		return math.Abs(e)
	}), nil)
}

func pairErrors(p pool.Pool[pool.Pair]) []float64 {
	var errs []float64
	for _, ts := range p.Main() {
		for k := 0; k < ts.Len(); k++ {
			errs = append(errs, ts.Event(k).Value.Error())
		}
	}
	return errs
}

// Statistics names the statistics selectable from the command line.
var Statistics = map[string]Statistic[pool.Pair]{
	"mean_error":          MeanError,
	"mean_absolute_error": MeanAbsoluteError,
}
