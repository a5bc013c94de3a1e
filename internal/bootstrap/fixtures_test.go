package bootstrap

import (
	"time"

	"wres-bootstrap/internal/pool"
)

var t0 = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// stubRandom reports a fixed Float64 and replays ints from a script, then zeros.
type stubRandom struct {
	float    float64
	ints     []int
	intCalls int
}

func (s *stubRandom) Float64() float64 {
	return s.float
}

func (s *stubRandom) IntN(n int) int {
	v := 0
	if s.intCalls < len(s.ints) {
		v = s.ints[s.intCalls]
	}
	s.intCalls++
	return v % n
}

// neverRedraw always continues the current block.
func neverRedraw(ints ...int) *stubRandom {
	return &stubRandom{float: 0.999999, ints: ints}
}

// forecast builds a forecast issued at issued with one event per value, the first
// at issued+firstLead and the rest a timestep apart.
func forecast(feature string, issued time.Time, firstLead, step time.Duration, values ...float64) pool.TimeSeries[float64] {
	meta := pool.Metadata{
		ReferenceTimes: map[pool.ReferenceTimeType]time.Time{pool.T0: issued},
		Feature:        feature,
		Variable:       "QINE",
		Unit:           "CMS",
	}
	events := make([]pool.Event[float64], len(values))
	for i, v := range values {
		events[i] = pool.Event[float64]{Time: issued.Add(firstLead + time.Duration(i)*step), Value: v}
	}
	return pool.MustTimeSeries(meta, events...)
}

// observed builds a non-forecast series starting at start.
func observed(feature string, start time.Time, step time.Duration, values ...float64) pool.TimeSeries[float64] {
	events := make([]pool.Event[float64], len(values))
	for i, v := range values {
		events[i] = pool.Event[float64]{Time: start.Add(time.Duration(i) * step), Value: v}
	}
	return pool.MustTimeSeries(pool.Metadata{Feature: feature, Variable: "QINE", Unit: "CMS"}, events...)
}

// encodedForecasts returns series issued hourly whose values encode
// base + 100*series + event, so donors can be recovered from resampled values.
func encodedForecasts(feature string, base float64, series, events int) []pool.TimeSeries[float64] {
	out := make([]pool.TimeSeries[float64], series)
	for i := range out {
		values := make([]float64, events)
		for k := range values {
			values[k] = base + float64(100*i+k)
		}
		out[i] = forecast(feature, t0.Add(time.Duration(i)*time.Hour), time.Hour, time.Hour, values...)
	}
	return out
}

func decode(v, base float64) DonorIndex {
	code := int(v - base)
	return DonorIndex{Series: code / 100, Event: code % 100}
}

func singlePool(main []pool.TimeSeries[float64], baseline []pool.TimeSeries[float64]) pool.Pool[float64] {
	mini := pool.NewMiniPool(pool.PoolMetadata{Feature: "DRRC2"}, main...)
	if baseline != nil {
		mini = mini.WithBaseline(pool.PoolMetadata{Feature: "DRRC2"}, baseline...)
	}
	return pool.Single(mini, []float64{1, 2, 3})
}
