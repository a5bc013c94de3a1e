package bootstrap

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"wres-bootstrap/internal/pool"
)

func TestNew_Validation(t *testing.T) {
	hourly := forecast("A", t0, time.Hour, time.Hour, 1, 2, 3)

	tests := []struct {
		name      string
		pool      pool.Pool[float64]
		blockSize int
		rng       Random
	}{
		{
			name:      "ZeroBlockSize",
			pool:      singlePool([]pool.TimeSeries[float64]{hourly}, nil),
			blockSize: 0,
			rng:       NewRandom(1, 1),
		},
		{
			name:      "NegativeBlockSize",
			pool:      singlePool([]pool.TimeSeries[float64]{hourly}, nil),
			blockSize: -3,
			rng:       NewRandom(1, 1),
		},
		{
			name: "TwoNonForecastSeries",
			pool: singlePool([]pool.TimeSeries[float64]{
				observed("A", t0, time.Hour, 1, 2, 3),
				observed("A", t0.Add(3*time.Hour), time.Hour, 4, 5, 6),
			}, nil),
			blockSize: 2,
			rng:       NewRandom(1, 1),
		},
		{
			name: "TwoNonForecastSeriesInBaseline",
			pool: singlePool([]pool.TimeSeries[float64]{hourly}, []pool.TimeSeries[float64]{
				observed("A", t0, time.Hour, 1, 2, 3),
				observed("A", t0.Add(3*time.Hour), time.Hour, 4, 5, 6),
			}),
			blockSize: 2,
			rng:       NewRandom(1, 1),
		},
		{
			name: "HourlyAndDailyTimesteps",
			pool: singlePool([]pool.TimeSeries[float64]{
				hourly,
				forecast("A", t0.Add(time.Hour), time.Hour, 24*time.Hour, 1, 2, 3),
			}, nil),
			blockSize: 2,
			rng:       NewRandom(1, 1),
		},
		{
			name: "IrregularSeriesSpacing",
			pool: singlePool([]pool.TimeSeries[float64]{
				forecast("A", t0, time.Hour, time.Hour, 1, 2),
				forecast("A", t0.Add(time.Hour), time.Hour, time.Hour, 1, 2),
				forecast("A", t0.Add(3*time.Hour), time.Hour, time.Hour, 1, 2),
			}, nil),
			blockSize: 2,
			rng:       NewRandom(1, 1),
		},
		{
			name:      "MissingGenerator",
			pool:      singlePool([]pool.TimeSeries[float64]{hourly}, nil),
			blockSize: 2,
			rng:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.pool, tt.blockSize, tt.rng)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if r != nil {
				t.Errorf("expected no resampler on error")
			}
		})
	}
}

func TestNew_AcceptsOneNonForecastPerSide(t *testing.T) {
	obs := observed("A", t0, time.Hour, 1, 2, 3)
	p := singlePool([]pool.TimeSeries[float64]{obs}, []pool.TimeSeries[float64]{obs})

	if _, err := New(p, 3, NewRandom(1, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransitionProbabilities(t *testing.T) {
	tests := []struct {
		name      string
		blockSize int
		st        structure
		wantP     float64
		wantQ     float64
	}{
		{"AdjacentHourly", 2, structure{timestep: time.Hour, offset: time.Hour}, 0.5, 0.5},
		{"SixHourlyIssueLongBlock", 24, structure{timestep: time.Hour, offset: 6 * time.Hour}, 1.0 / 24, 0.25},
		{"BlockShorterThanOffset", 2, structure{timestep: time.Hour, offset: 6 * time.Hour}, 0.5, 1},
		{"UnknownOffset", 4, structure{timestep: time.Hour}, 0.25, 1},
		{"UnknownTimestep", 4, structure{offset: time.Hour}, 0.25, 1},
		{"IID", 1, structure{timestep: time.Hour, offset: time.Hour}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, q := transitionProbabilities(tt.blockSize, tt.st)
			if math.Abs(p-tt.wantP) > 1e-12 {
				t.Errorf("p = %v, want %v", p, tt.wantP)
			}
			if math.Abs(q-tt.wantQ) > 1e-12 {
				t.Errorf("q = %v, want %v", q, tt.wantQ)
			}
		})
	}
}

// Two forecasts of three hourly events, the second starting an hour after the
// first, a mean block of two timesteps and a baseline identical to the main data.
func TestResample_TwoForecastScenario(t *testing.T) {
	a := forecast("A", t0, 0, time.Hour, 1, 2, 3)
	b := forecast("A", t0.Add(time.Hour), 0, time.Hour, 4, 5, 6)
	main := []pool.TimeSeries[float64]{a, b}
	baseline := []pool.TimeSeries[float64]{a, b}

	r, err := New(singlePool(main, baseline), 2, neverRedraw(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.P() != 0.5 || r.Q() != 0.5 {
		t.Fatalf("expected p=q=0.5, got p=%v q=%v", r.P(), r.Q())
	}

	plan := r.Plan()
	want := Plan{
		{{Series: 0, Event: 0}, {Series: 0, Event: 1}, {Series: 0, Event: 2}},
		{{Series: 1, Event: 0}, {Series: 1, Event: 1}, {Series: 1, Event: 2}},
	}
	if !reflect.DeepEqual(plan, want) {
		t.Fatalf("unexpected plan:\n got %v\nwant %v", plan, want)
	}

	out := r.Apply(plan)
	for _, side := range [][]pool.TimeSeries[float64]{out.Main(), out.Baseline()} {
		for i, ts := range side {
			for k := 0; k < ts.Len(); k++ {
				if got, want := ts.Event(k).Value, main[i].Event(k).Value; got != want {
					t.Errorf("series %d event %d: value %v, want %v", i, k, got, want)
				}
			}
		}
	}
}

func TestResample_ScenarioStartingFromSecondSeries(t *testing.T) {
	a := forecast("A", t0, 0, time.Hour, 1, 2, 3)
	b := forecast("A", t0.Add(time.Hour), 0, time.Hour, 4, 5, 6)

	r, err := New(singlePool([]pool.TimeSeries[float64]{a, b}, []pool.TimeSeries[float64]{a, b}), 2, neverRedraw(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := r.Resample()
	main := out.Main()

	// Target 0 takes series B's values, target 1 wraps around to series A.
	wantValues := [][]float64{{4, 5, 6}, {1, 2, 3}}
	originals := []pool.TimeSeries[float64]{a, b}
	for i, ts := range main {
		for k := 0; k < ts.Len(); k++ {
			if ts.Event(k).Value != wantValues[i][k] {
				t.Errorf("series %d event %d: value %v, want %v", i, k, ts.Event(k).Value, wantValues[i][k])
			}
			if !ts.Event(k).Time.Equal(originals[i].Event(k).Time) {
				t.Errorf("series %d event %d: time %v, want %v", i, k, ts.Event(k).Time, originals[i].Event(k).Time)
			}
		}
	}

	if !reflect.DeepEqual(out.Baseline(), main) {
		t.Errorf("baseline donors differ from main donors")
	}
}

func TestResample_ShapePreservation(t *testing.T) {
	p, err := pool.New(pool.PoolMetadata{ID: "shape"}, []float64{0.5, 1.5},
		pool.NewMiniPool(pool.PoolMetadata{Feature: "A"}, encodedForecasts("A", 0, 6, 5)...).
			WithBaseline(pool.PoolMetadata{Feature: "A"}, encodedForecasts("A", 0.25, 6, 5)...),
		pool.NewMiniPool(pool.PoolMetadata{Feature: "B"}, encodedForecasts("B", 10000, 6, 5)...).
			WithBaseline(pool.PoolMetadata{Feature: "B"}, encodedForecasts("B", 10000.25, 6, 5)...),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := New(p, 3, NewRandom(7, 11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for rep := 0; rep < 20; rep++ {
		out := r.Resample()

		if len(out.MiniPools()) != 2 || !out.HasBaseline() {
			t.Fatalf("replicate %d: partition or baseline lost", rep)
		}
		if !reflect.DeepEqual(out.Climatology(), p.Climatology()) || out.Metadata() != p.Metadata() {
			t.Fatalf("replicate %d: pool metadata or climatology changed", rep)
		}

		for _, pair := range [][2][]pool.TimeSeries[float64]{{p.Main(), out.Main()}, {p.Baseline(), out.Baseline()}} {
			in, got := pair[0], pair[1]
			if len(in) != len(got) {
				t.Fatalf("replicate %d: %d series, want %d", rep, len(got), len(in))
			}
			for i := range in {
				if in[i].Len() != got[i].Len() {
					t.Fatalf("replicate %d series %d: %d events, want %d", rep, i, got[i].Len(), in[i].Len())
				}
				if !reflect.DeepEqual(in[i].Metadata(), got[i].Metadata()) {
					t.Errorf("replicate %d series %d: metadata changed", rep, i)
				}
				for k := 0; k < in[i].Len(); k++ {
					if !in[i].Event(k).Time.Equal(got[i].Event(k).Time) {
						t.Errorf("replicate %d series %d event %d: time changed", rep, i, k)
					}
				}
			}
		}
	}
}

func TestResample_SharedStructureAcrossMiniPoolsAndBaseline(t *testing.T) {
	bases := []float64{0, 10000, 20000}
	var minis []pool.MiniPool[float64]
	for m, base := range bases {
		feature := string(rune('A' + m))
		minis = append(minis, pool.NewMiniPool(pool.PoolMetadata{Feature: feature}, encodedForecasts(feature, base, 8, 6)...).
			WithBaseline(pool.PoolMetadata{Feature: feature}, encodedForecasts(feature, base+50000, 8, 6)...))
	}
	p, err := pool.New(pool.PoolMetadata{}, nil, minis...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := New(p, 4, NewRandom(2024, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for rep := 0; rep < 10; rep++ {
		out := r.Resample().MiniPools()
		reference := out[0].Main

		for m, mini := range out {
			for i := range mini.Main {
				for k := 0; k < mini.Main[i].Len(); k++ {
					want := decode(reference[i].Event(k).Value, bases[0])
					if got := decode(mini.Main[i].Event(k).Value, bases[m]); got != want {
						t.Errorf("replicate %d mini-pool %d main series %d event %d: donor %v, want %v", rep, m, i, k, got, want)
					}
					if got := decode(mini.Baseline[i].Event(k).Value, bases[m]+50000); got != want {
						t.Errorf("replicate %d mini-pool %d baseline series %d event %d: donor %v, want %v", rep, m, i, k, got, want)
					}
					if want.Event != k {
						t.Errorf("replicate %d: forecast donor crossed lead positions (%d -> %d)", rep, k, want.Event)
					}
				}
			}
		}
	}
}

func TestResample_Reproducible(t *testing.T) {
	build := func() *Resampler[float64] {
		p := singlePool(encodedForecasts("A", 0, 10, 12), encodedForecasts("A", 0.5, 10, 12))
		r, err := New(p, 3, NewRandom(99, 3))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return r
	}

	r1, r2 := build(), build()
	for rep := 0; rep < 5; rep++ {
		if !reflect.DeepEqual(r1.Resample(), r2.Resample()) {
			t.Fatalf("replicate %d differs between identically seeded resamplers", rep)
		}
	}

	// Different streams give different replicates
	p := singlePool(encodedForecasts("A", 0, 10, 12), nil)
	r3, _ := New(p, 3, NewRandom(99, 4))
	r4, _ := New(p, 3, NewRandom(99, 5))
	if reflect.DeepEqual(r3.Resample(), r4.Resample()) {
		t.Errorf("expected different replicates for different streams")
	}
}

func TestResample_DoesNotMutateSource(t *testing.T) {
	main := encodedForecasts("A", 0, 4, 4)
	p := singlePool(main, nil)
	before := p.Main()

	r, err := New(p, 2, NewRandom(5, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		r.Resample()
	}

	if !reflect.DeepEqual(before, p.Main()) {
		t.Errorf("source pool changed after resampling")
	}
}

func TestResample_MiniPoolsOfDifferentShape(t *testing.T) {
	observedValues := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	p, err := pool.New(pool.PoolMetadata{}, nil,
		pool.NewMiniPool(pool.PoolMetadata{Feature: "A"}, encodedForecasts("A", 0, 5, 4)...),
		pool.NewMiniPool(pool.PoolMetadata{Feature: "B"}, encodedForecasts("B", 10000, 2, 6)...),
		pool.NewMiniPool(pool.PoolMetadata{Feature: "C"}, observed("C", t0, time.Hour, observedValues...)),
		pool.NewMiniPool(pool.PoolMetadata{Feature: "D"}, encodedForecasts("D", 20000, 5, 4)...),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := New(p, 2, NewRandom(3, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seenA := make(map[int]bool)
	seenB := make(map[int]bool)
	seenC := make(map[float64]bool)
	for rep := 0; rep < 500; rep++ {
		out := r.Resample().MiniPools()
		if out[1].Main[0].Len() != 6 || out[2].Main[0].Len() != 10 {
			t.Fatalf("replicate %d: event counts changed", rep)
		}

		for i, ts := range out[0].Main {
			for k := 0; k < ts.Len(); k++ {
				a := decode(ts.Event(k).Value, 0)
				d := decode(out[3].Main[i].Event(k).Value, 20000)
				if a != d {
					t.Fatalf("replicate %d series %d event %d: A drew %v but D drew %v", rep, i, k, a, d)
				}
				seenA[a.Series] = true
			}
		}
		for _, ts := range out[1].Main {
			for k := 0; k < ts.Len(); k++ {
				d := decode(ts.Event(k).Value, 10000)
				if d.Event != k {
					t.Errorf("replicate %d: lead %d took a donor from lead %d", rep, k, d.Event)
				}
				seenB[d.Series] = true
			}
		}
		for k := 0; k < out[2].Main[0].Len(); k++ {
			seenC[out[2].Main[0].Event(k).Value] = true
		}
	}

	if len(seenA) != 5 || len(seenB) != 2 {
		t.Errorf("donor series not fully used: A %v, B %v", seenA, seenB)
	}
	for _, v := range observedValues {
		if !seenC[v] {
			t.Errorf("observed value %v never drawn: %v", v, seenC)
		}
	}
}

func TestResample_ObservedBaselineForForecasts(t *testing.T) {
	baselineValues := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	p := singlePool(encodedForecasts("A", 0, 2, 3), []pool.TimeSeries[float64]{
		observed("A", t0, time.Hour, baselineValues...),
	})

	r, err := New(p, 3, NewRandom(8, 8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[float64]bool)
	for rep := 0; rep < 500; rep++ {
		out := r.Resample()
		if got := out.Baseline()[0].Len(); got != len(baselineValues) {
			t.Fatalf("replicate %d: baseline has %d events", rep, got)
		}
		for k := 0; k < out.Baseline()[0].Len(); k++ {
			seen[out.Baseline()[0].Event(k).Value] = true
		}
	}
	for _, v := range baselineValues {
		if !seen[v] {
			t.Errorf("baseline value %v never drawn: %v", v, seen)
		}
	}
}

func TestResample_EmptyPool(t *testing.T) {
	p, err := pool.New[float64](pool.PoolMetadata{ID: "empty"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := New(p, 2, NewRandom(1, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := r.Resample()
	if len(out.MiniPools()) != 0 || out.Metadata().ID != "empty" {
		t.Errorf("unexpected output for an empty pool: %+v", out.MiniPools())
	}
}
