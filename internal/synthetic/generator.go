package synthetic

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"wres-bootstrap/internal/pool"
)

// GeneratorConfig describes a synthetic streamflow pool.
type GeneratorConfig struct {
	Features int           // one mini-pool per feature
	Series   int           // forecasts per feature; ignored when Observed
	Events   int           // events per series
	Timestep time.Duration // between events
	Offset   time.Duration // between forecast issue times
	Observed bool          // one simulated (non-forecast) series per feature instead of forecasts
	Baseline bool          // add a persistence baseline
	Seed     uint64
	Start    time.Time
}

// DefaultConfig returns a small hourly forecast pool issued every six hours.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Features: 2,
		Series:   20,
		Events:   24,
		Timestep: time.Hour,
		Offset:   6 * time.Hour,
		Seed:     1,
		Start:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Generate builds a pool of observation/prediction pairs. Observations follow an
// AR(1) process around a per-feature mean flow; forecast error grows with lead time.
func Generate(cfg GeneratorConfig) (pool.Pool[pool.Pair], error) {
	if cfg.Features <= 0 || cfg.Events <= 0 || (!cfg.Observed && cfg.Series <= 0) {
		return pool.Pool[pool.Pair]{}, fmt.Errorf("features, series and events must be > 0")
	}
	if cfg.Timestep <= 0 || (!cfg.Observed && cfg.Offset <= 0) {
		return pool.Pool[pool.Pair]{}, fmt.Errorf("timestep and offset must be > 0")
	}
	if cfg.Start.IsZero() {
		cfg.Start = DefaultConfig().Start
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, 0x5eed))
	minis := make([]pool.MiniPool[pool.Pair], 0, cfg.Features)

	for f := 0; f < cfg.Features; f++ {
		feature := fmt.Sprintf("FEAT%02d", f+1)
		meanFlow := 50.0 + 100.0*rng.Float64()

		span := cfg.Events
		if !cfg.Observed {
			span = int((time.Duration(cfg.Series-1)*cfg.Offset)/cfg.Timestep) + cfg.Events + 1
		}
		obs := observations(rng, meanFlow, span)
		meta := pool.PoolMetadata{Feature: feature, Variable: "QINE", Unit: "CMS"}

		var mini pool.MiniPool[pool.Pair]
		if cfg.Observed {
			main := simulated(rng, cfg, feature, obs)
			mini = pool.NewMiniPool(meta, main)
			if cfg.Baseline {
				mini = mini.WithBaseline(meta, persistenceSimulation(cfg, feature, obs))
			}
		} else {
			main := make([]pool.TimeSeries[pool.Pair], cfg.Series)
			baseline := make([]pool.TimeSeries[pool.Pair], cfg.Series)
			for s := 0; s < cfg.Series; s++ {
				main[s] = forecast(rng, cfg, feature, obs, s)
				baseline[s] = persistenceForecast(cfg, feature, obs, s)
			}
			mini = pool.NewMiniPool(meta, main...)
			if cfg.Baseline {
				mini = mini.WithBaseline(meta, baseline...)
			}
		}
		minis = append(minis, mini)
	}

	return pool.New(pool.PoolMetadata{ID: fmt.Sprintf("synthetic-%d", cfg.Seed), Variable: "QINE", Unit: "CMS"}, nil, minis...)
}

func observations(rng *rand.Rand, mean float64, n int) []float64 {
	const phi = 0.9
	out := make([]float64, n)
	prev := mean
	for i := range out {
		v := mean + phi*(prev-mean) + 0.1*mean*rng.NormFloat64()
		out[i] = math.Max(0, v)
		prev = v
	}
	return out
}

// index of the observation valid at time tm.
func index(cfg GeneratorConfig, tm time.Time) int {
	return int(tm.Sub(cfg.Start) / cfg.Timestep)
}

func forecast(rng *rand.Rand, cfg GeneratorConfig, feature string, obs []float64, s int) pool.TimeSeries[pool.Pair] {
	issued := cfg.Start.Add(time.Duration(s) * cfg.Offset)
	events := make([]pool.Event[pool.Pair], cfg.Events)
	for k := range events {
		valid := issued.Add(time.Duration(k+1) * cfg.Timestep)
		o := obs[index(cfg, valid)]
		spread := 0.02 * float64(k+1) * o
		events[k] = pool.Event[pool.Pair]{Time: valid, Value: pool.Pair{Left: o, Right: math.Max(0, o+spread*rng.NormFloat64())}}
	}
	return pool.MustTimeSeries(forecastMetadata(feature, issued), events...)
}

func persistenceForecast(cfg GeneratorConfig, feature string, obs []float64, s int) pool.TimeSeries[pool.Pair] {
	issued := cfg.Start.Add(time.Duration(s) * cfg.Offset)
	last := obs[index(cfg, issued)]
	events := make([]pool.Event[pool.Pair], cfg.Events)
	for k := range events {
		valid := issued.Add(time.Duration(k+1) * cfg.Timestep)
		events[k] = pool.Event[pool.Pair]{Time: valid, Value: pool.Pair{Left: obs[index(cfg, valid)], Right: last}}
	}
	return pool.MustTimeSeries(forecastMetadata(feature, issued), events...)
}

func simulated(rng *rand.Rand, cfg GeneratorConfig, feature string, obs []float64) pool.TimeSeries[pool.Pair] {
	events := make([]pool.Event[pool.Pair], len(obs))
	for i, o := range obs {
		events[i] = pool.Event[pool.Pair]{
			Time:  cfg.Start.Add(time.Duration(i) * cfg.Timestep),
			Value: pool.Pair{Left: o, Right: math.Max(0, o*(1.05+0.05*rng.NormFloat64()))},
		}
	}
	return pool.MustTimeSeries(pool.Metadata{Feature: feature, Variable: "QINE", Unit: "CMS"}, events...)
}

func persistenceSimulation(cfg GeneratorConfig, feature string, obs []float64) pool.TimeSeries[pool.Pair] {
	events := make([]pool.Event[pool.Pair], len(obs))
	for i, o := range obs {
		prev := o
		if i > 0 {
			prev = obs[i-1]
		}
		events[i] = pool.Event[pool.Pair]{Time: cfg.Start.Add(time.Duration(i) * cfg.Timestep), Value: pool.Pair{Left: o, Right: prev}}
	}
	return pool.MustTimeSeries(pool.Metadata{Feature: feature, Variable: "QINE", Unit: "CMS"}, events...)
}

func forecastMetadata(feature string, issued time.Time) pool.Metadata {
	return pool.Metadata{
		ReferenceTimes: map[pool.ReferenceTimeType]time.Time{pool.T0: issued},
		Feature:        feature,
		Variable:       "QINE",
		Unit:           "CMS",
	}
}
