package bootstrap

import (
	"wres-bootstrap/internal/pool"
)

// DonorIndex locates the donor of one target event: the position of the donor
// series within the candidate set and the position of the event within it.
type DonorIndex struct {
	Series int `json:"series"`
	Event  int `json:"event"`
}

// ResampleIndexes holds one DonorIndex per event of a target series.
type ResampleIndexes []DonorIndex

// Plan is the ordered list of ResampleIndexes for every target series. One plan
// is drawn per replicate and applied unchanged to every mini-pool and to the
// baseline, which imposes perfect statistical dependence between them.
type Plan []ResampleIndexes

// DonorIndexStrategy draws the donor indexes of one target series.
//
// events is the length of the target, candidates the size of its donor set and
// previous the first donor index of the preceding target of the same kind, nil
// when this is the first.
type DonorIndexStrategy interface {
	Indexes(events, candidates int, previous *DonorIndex, rng Random) ResampleIndexes
}

// forecastStrategy samples across series at a fixed lead position. Forecasts are
// assumed lead-duration stationary, so a donor is never taken from another lead.
type forecastStrategy struct {
	p float64 // probability of a fresh series within a target
	q float64 // probability of a fresh series between targets
}

func (f forecastStrategy) Indexes(events, candidates int, previous *DonorIndex, rng Random) ResampleIndexes {
	out := make(ResampleIndexes, events)

	for k := 0; k < events; k++ {
		var series int
		switch {
		case k == 0 && previous == nil:
			series = rng.IntN(candidates)
		case k == 0:
			if redraw(rng, f.q) {
				series = rng.IntN(candidates)
			} else {
				// Continue with the series adjacent to the one that started the previous target.
				series = (previous.Series + 1) % candidates
			}
		default:
			if redraw(rng, f.p) {
				series = rng.IntN(candidates)
			} else {
				series = out[k-1].Series
			}
		}
		out[k] = DonorIndex{Series: series, Event: k}
	}

	return out
}

// nonForecastStrategy samples blocks of consecutive events from the single
// non-forecast series, wrapping around at its end.
type nonForecastStrategy struct {
	p float64
}

func (n nonForecastStrategy) Indexes(events, candidates int, _ *DonorIndex, rng Random) ResampleIndexes {
	out := make(ResampleIndexes, events)

	for k := 0; k < events; k++ {
		var event int
		if k == 0 || redraw(rng, n.p) {
			event = rng.IntN(candidates)
		} else {
			event = (out[k-1].Event + 1) % candidates
		}
		out[k] = DonorIndex{Series: 0, Event: event}
	}

	return out
}

// strategies selects the DonorIndexStrategy for each kind of series.
type strategies map[pool.Kind]DonorIndexStrategy

func newStrategies(p, q float64) strategies {
	return strategies{
		pool.Forecast:    forecastStrategy{p: p, q: q},
		pool.NonForecast: nonForecastStrategy{p: p},
	}
}

// GeneratePlan draws one resampling plan from the structure of b. p is the
// within-series transition probability and q the between-series one. Every draw
// comes from rng, so the plan is reproducible for a given generator state.
func GeneratePlan[T any](b *BootstrapPool[T], p, q float64, rng Random) Plan {
	return newStrategies(p, q).plan(targetShapes(b), rng)
}

// shape is the part of a target series the index generator needs.
type shape struct {
	kind       pool.Kind
	events     int
	candidates int
}

func targetShapes[T any](b *BootstrapPool[T]) []shape {
	shapes := make([]shape, len(b.targets))
	for i, t := range b.targets {
		shapes[i] = shape{
			kind:       t.Kind(),
			events:     t.Len(),
			candidates: b.candidates(t.Kind(), t.Len()),
		}
	}
	return shapes
}

func (s strategies) plan(targets []shape, rng Random) Plan {
	plan := make(Plan, len(targets))
	var previous *DonorIndex

	for i, t := range targets {
		if t.events == 0 {
			plan[i] = ResampleIndexes{}
			continue
		}

		indexes := s[t.kind].Indexes(t.events, t.candidates, previous, rng)
		if t.kind == pool.Forecast {
			first := indexes[0]
			previous = &first
		}
		plan[i] = indexes
	}

	return plan
}
