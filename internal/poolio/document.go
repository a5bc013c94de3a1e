package poolio

import (
	"fmt"
	"time"

	"wres-bootstrap/internal/pool"
)

// Document is the JSON representation of a pool. Baseline metadata is carried by
// the mini-pools; the pool-level baseline metadata is that of the first one.
type Document[T any] struct {
	Metadata    pool.PoolMetadata     `json:"metadata"`
	Climatology []float64             `json:"climatology,omitempty"`
	MiniPools   []MiniPoolDocument[T] `json:"miniPools"`
}

// MiniPoolDocument is one feature's partition. The baseline is present when
// BaselineMetadata is set or the baseline array is given.
type MiniPoolDocument[T any] struct {
	Metadata         pool.PoolMetadata   `json:"metadata"`
	BaselineMetadata *pool.PoolMetadata  `json:"baselineMetadata,omitempty"`
	Main             []SeriesDocument[T] `json:"main"`
	Baseline         []SeriesDocument[T] `json:"baseline,omitempty"`
}

// SeriesDocument is one time-series. Forecasts carry at least one reference time.
type SeriesDocument[T any] struct {
	ReferenceTimes map[pool.ReferenceTimeType]time.Time `json:"referenceTimes,omitempty"`
	Feature        string                               `json:"feature,omitempty"`
	Variable       string                               `json:"variable,omitempty"`
	Unit           string                               `json:"unit,omitempty"`
	Events         []EventDocument[T]                   `json:"events"`
}

type EventDocument[T any] struct {
	Time  time.Time `json:"time"`
	Value T         `json:"value"`
}

// FromPool converts a pool to its document form.
func FromPool[T any](p pool.Pool[T]) Document[T] {
	doc := Document[T]{
		Metadata:    p.Metadata(),
		Climatology: p.Climatology(),
	}
	for _, mini := range p.MiniPools() {
		md := MiniPoolDocument[T]{
			Metadata: mini.Metadata,
			Main:     seriesDocuments(mini.Main),
		}
		if mini.HasBaseline {
			meta := mini.BaselineMetadata
			md.BaselineMetadata = &meta
			md.Baseline = seriesDocuments(mini.Baseline)
		}
		doc.MiniPools = append(doc.MiniPools, md)
	}

	return doc
}

// Pool converts the document to an immutable pool.
func (d Document[T]) Pool() (pool.Pool[T], error) {
	minis := make([]pool.MiniPool[T], 0, len(d.MiniPools))

	for m, md := range d.MiniPools {
		main, err := timeSeries(md.Main)
		if err != nil {
			return pool.Pool[T]{}, fmt.Errorf("mini-pool %d main: %w", m, err)
		}
		mini := pool.NewMiniPool(md.Metadata, main...)

		if md.BaselineMetadata != nil || md.Baseline != nil {
			baseline, err := timeSeries(md.Baseline)
			if err != nil {
				return pool.Pool[T]{}, fmt.Errorf("mini-pool %d baseline: %w", m, err)
			}
			meta := md.Metadata
			if md.BaselineMetadata != nil {
				meta = *md.BaselineMetadata
			}
			mini = mini.WithBaseline(meta, baseline...)
		}
		minis = append(minis, mini)
	}

	p, err := pool.New(d.Metadata, d.Climatology, minis...)
	if err != nil {
		return pool.Pool[T]{}, fmt.Errorf("invalid pool document: %w", err)
	}
	return p, nil
}

func seriesDocuments[T any](series []pool.TimeSeries[T]) []SeriesDocument[T] {
	out := make([]SeriesDocument[T], len(series))
	for i, s := range series {
		meta := s.Metadata()
		events := make([]EventDocument[T], s.Len())
		for k := range events {
			e := s.Event(k)
			events[k] = EventDocument[T]{Time: e.Time, Value: e.Value}
		}
		out[i] = SeriesDocument[T]{
			ReferenceTimes: meta.ReferenceTimes,
			Feature:        meta.Feature,
			Variable:       meta.Variable,
			Unit:           meta.Unit,
			Events:         events,
		}
	}
	return out
}

func timeSeries[T any](docs []SeriesDocument[T]) ([]pool.TimeSeries[T], error) {
	out := make([]pool.TimeSeries[T], len(docs))
	for i, sd := range docs {
		events := make([]pool.Event[T], len(sd.Events))
		for k, e := range sd.Events {
			events[k] = pool.Event[T]{Time: e.Time, Value: e.Value}
		}
		ts, err := pool.NewTimeSeries(pool.Metadata{
			ReferenceTimes: sd.ReferenceTimes,
			Feature:        sd.Feature,
			Variable:       sd.Variable,
			Unit:           sd.Unit,
		}, events)
		if err != nil {
			return nil, fmt.Errorf("series %d: %w", i, err)
		}
		out[i] = ts
	}
	return out, nil
}
