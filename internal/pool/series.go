package pool

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"time"
)

// ErrDuplicateTime is returned when a series contains two events at the same valid time.
var ErrDuplicateTime = errors.New("duplicate event time")

// ReferenceTimeType names the role of a reference time (e.g. issue time).
type ReferenceTimeType string

const (
	// T0 is the forecast initialization time.
	T0 ReferenceTimeType = "T0"
	// IssuedTime is the time the forecast was published.
	IssuedTime ReferenceTimeType = "ISSUED"
	// Unknown is used when the source does not qualify its reference time.
	Unknown ReferenceTimeType = "UNKNOWN"
)

// Kind distinguishes forecast series from non-forecast (observed or simulated) series.
type Kind int

const (
	NonForecast Kind = iota
	Forecast
)

func (k Kind) String() string {
	if k == Forecast {
		return "forecast"
	}
	return "non-forecast"
}

// Event is a single timestamped value.
type Event[T any] struct {
	Time  time.Time
	Value T
}

// Metadata describes a time-series.
type Metadata struct {
	ReferenceTimes map[ReferenceTimeType]time.Time
	Feature        string
	Variable       string
	Unit           string
}

// TimeSeries is an immutable, time-ordered sequence of events.
type TimeSeries[T any] struct {
	metadata Metadata
	events   []Event[T]
}

// NewTimeSeries copies and sorts the events. Valid times must be unique.
func NewTimeSeries[T any](meta Metadata, events []Event[T]) (TimeSeries[T], error) {
	sorted := make([]Event[T], len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Time.Equal(sorted[i-1].Time) {
			return TimeSeries[T]{}, fmt.Errorf("%w: %s", ErrDuplicateTime, sorted[i].Time.Format(time.RFC3339))
		}
	}

	meta.ReferenceTimes = maps.Clone(meta.ReferenceTimes)
	return TimeSeries[T]{metadata: meta, events: sorted}, nil
}

// MustTimeSeries is like NewTimeSeries but panics on error. Intended for tests and fixtures.
func MustTimeSeries[T any](meta Metadata, events ...Event[T]) TimeSeries[T] {
	ts, err := NewTimeSeries(meta, events)
	if err != nil {
		panic(err)
	}
	return ts
}

// Metadata returns the series metadata. The reference time map is a copy.
func (s TimeSeries[T]) Metadata() Metadata {
	m := s.metadata
	m.ReferenceTimes = maps.Clone(s.metadata.ReferenceTimes)
	return m
}

// Len returns the number of events.
func (s TimeSeries[T]) Len() int {
	return len(s.events)
}

// Event returns the i-th event in time order.
func (s TimeSeries[T]) Event(i int) Event[T] {
	return s.events[i]
}

// Events returns a copy of the events in time order.
func (s TimeSeries[T]) Events() []Event[T] {
	out := make([]Event[T], len(s.events))
	copy(out, s.events)
	return out
}

// Kind reports whether the series is a forecast, i.e. has at least one reference time.
func (s TimeSeries[T]) Kind() Kind {
	if len(s.metadata.ReferenceTimes) > 0 {
		return Forecast
	}
	return NonForecast
}

// IsForecast is shorthand for Kind() == Forecast.
func (s TimeSeries[T]) IsForecast() bool {
	return s.Kind() == Forecast
}

// FirstValidTime returns the time of the earliest event, false when the series is empty.
func (s TimeSeries[T]) FirstValidTime() (time.Time, bool) {
	if len(s.events) == 0 {
		return time.Time{}, false
	}
	return s.events[0].Time, true
}

// Timesteps returns the durations between consecutive events, in order.
func (s TimeSeries[T]) Timesteps() []time.Duration {
	if len(s.events) < 2 {
		return nil
	}
	steps := make([]time.Duration, 0, len(s.events)-1)
	for i := 1; i < len(s.events); i++ {
		steps = append(steps, s.events[i].Time.Sub(s.events[i-1].Time))
	}
	return steps
}

// WithValues returns a series with the same metadata and times and the given values.
// It panics if len(values) != Len().
func (s TimeSeries[T]) WithValues(values []T) TimeSeries[T] {
	if len(values) != len(s.events) {
		panic(fmt.Sprintf("pool: %d values for a series of %d events", len(values), len(s.events)))
	}
	events := make([]Event[T], len(s.events))
	for i, e := range s.events {
		events[i] = Event[T]{Time: e.Time, Value: values[i]}
	}
	return TimeSeries[T]{metadata: s.metadata, events: events}
}
