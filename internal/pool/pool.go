package pool

import (
	"errors"
	"slices"
)

// ErrMixedBaseline is returned when some mini-pools carry a baseline and others do not.
var ErrMixedBaseline = errors.New("baseline present in some mini-pools but not others")

// PoolMetadata describes one side (main or baseline) of a pool.
type PoolMetadata struct {
	ID       string `json:"id,omitempty"`
	Feature  string `json:"feature,omitempty"`
	Variable string `json:"variable,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Baseline bool   `json:"baseline,omitempty"`
}

// MiniPool is a leaf partition of a pool, typically one geographic feature.
// Mini-pools never contain further pools.
type MiniPool[T any] struct {
	Main             []TimeSeries[T]
	Baseline         []TimeSeries[T]
	HasBaseline      bool
	Metadata         PoolMetadata
	BaselineMetadata PoolMetadata
}

// NewMiniPool builds a leaf without a baseline.
func NewMiniPool[T any](meta PoolMetadata, main ...TimeSeries[T]) MiniPool[T] {
	return MiniPool[T]{
		Main:     slices.Clone(main),
		Metadata: meta,
	}
}

// WithBaseline returns a copy of the leaf carrying the given baseline series.
func (m MiniPool[T]) WithBaseline(meta PoolMetadata, baseline ...TimeSeries[T]) MiniPool[T] {
	m.Baseline = slices.Clone(baseline)
	m.HasBaseline = true
	meta.Baseline = true
	m.BaselineMetadata = meta
	return m
}

// Pool is the composite of one or more mini-pools. Main and Baseline are the
// concatenation of the mini-pools, which are the unit of resampling consistency.
type Pool[T any] struct {
	miniPools        []MiniPool[T]
	metadata         PoolMetadata
	baselineMetadata PoolMetadata
	climatology      []float64
}

// New builds a composite pool. All mini-pools must agree on baseline presence.
func New[T any](meta PoolMetadata, climatology []float64, miniPools ...MiniPool[T]) (Pool[T], error) {
	p := Pool[T]{
		miniPools:   slices.Clone(miniPools),
		metadata:    meta,
		climatology: slices.Clone(climatology),
	}

	for i, m := range p.miniPools {
		if m.HasBaseline != p.miniPools[0].HasBaseline {
			return Pool[T]{}, ErrMixedBaseline
		}
		if i == 0 && m.HasBaseline {
			p.baselineMetadata = m.BaselineMetadata
		}
	}

	return p, nil
}

// Single wraps one mini-pool as a composite pool.
func Single[T any](mini MiniPool[T], climatology []float64) Pool[T] {
	p, _ := New(mini.Metadata, climatology, mini)
	return p
}

// MiniPools returns the leaf partitions in order.
func (p Pool[T]) MiniPools() []MiniPool[T] {
	return slices.Clone(p.miniPools)
}

// Metadata returns the pool-level metadata of the main side.
func (p Pool[T]) Metadata() PoolMetadata {
	return p.metadata
}

// BaselineMetadata returns the pool-level metadata of the baseline side.
func (p Pool[T]) BaselineMetadata() PoolMetadata {
	return p.baselineMetadata
}

// Climatology returns a copy of the climatological data, nil when absent.
func (p Pool[T]) Climatology() []float64 {
	return slices.Clone(p.climatology)
}

// HasBaseline reports whether the pool carries baseline data.
func (p Pool[T]) HasBaseline() bool {
	return len(p.miniPools) > 0 && p.miniPools[0].HasBaseline
}

// Main returns the concatenated main series of all mini-pools.
func (p Pool[T]) Main() []TimeSeries[T] {
	var out []TimeSeries[T]
	for _, m := range p.miniPools {
		out = append(out, m.Main...)
	}
	return out
}

// Baseline returns the concatenated baseline series, nil when there is no baseline.
func (p Pool[T]) Baseline() []TimeSeries[T] {
	if !p.HasBaseline() {
		return nil
	}
	var out []TimeSeries[T]
	for _, m := range p.miniPools {
		out = append(out, m.Baseline...)
	}
	return out
}

// WithMiniPools returns a pool with the same metadata and climatology and new leaves.
// The leaves must have the same baseline presence as the original.
func (p Pool[T]) WithMiniPools(miniPools []MiniPool[T]) Pool[T] {
	return Pool[T]{
		miniPools:        miniPools,
		metadata:         p.metadata,
		baselineMetadata: p.baselineMetadata,
		climatology:      p.climatology,
	}
}
