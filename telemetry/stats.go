package telemetry

import (
	"sort"

	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Live       int `csv:"live"`
	Pending    int `csv:"pending"`
	LethalLive int `csv:"lethal_live"`
	Exempt     int `csv:"exempt"`

	// Lifecycle events during window
	Discovered  int `csv:"discovered"`
	Promotions  int `csv:"promotions"`
	Retirements int `csv:"retirements"`
	Dropped     int `csv:"dropped"`
	Despawns    int `csv:"despawns"`

	// Action transitions during window
	Requests  int `csv:"requests"`
	Cancels   int `csv:"cancels"`
	Successes int `csv:"successes"`
	Failures  int `csv:"failures"`
	Shots     int `csv:"shots"`

	// Current action per live danger (sampled at window end)
	Resting    int `csv:"resting"`
	Chasing    int `csv:"chasing"`
	Shooting   int `csv:"shooting"`
	Meandering int `csv:"meandering"`

	// Restlessness distribution (sampled at window end)
	RestlessMean float64 `csv:"restless_mean"`
	RestlessStd  float64 `csv:"restless_std"`
	RestlessP50  float64 `csv:"restless_p50"`
	RestlessP90  float64 `csv:"restless_p90"`
	RestlessMax  float64 `csv:"restless_max"`
}

// ActionCounts is the number of live dangers running each action.
type ActionCounts struct {
	Resting    int
	Chasing    int
	Shooting   int
	Meandering int
}

// Quantile returns the empirical p-quantile of a sorted slice.
// Returns 0 for an empty slice; p is clamped to [0, 1].
func Quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// RestlessnessSummary is the distribution of restlessness across live dangers.
type RestlessnessSummary struct {
	Mean, Std, P50, P90, Max float64
}

// ComputeRestlessnessStats summarizes values. The slice is sorted in place.
func ComputeRestlessnessStats(values []float64) RestlessnessSummary {
	if len(values) == 0 {
		return RestlessnessSummary{}
	}
	sort.Float64s(values)

	var s RestlessnessSummary
	if len(values) < 2 {
		s.Mean = values[0]
	} else {
		s.Mean, s.Std = stat.MeanStdDev(values, nil)
	}
	s.P50 = Quantile(values, 0.5)
	s.P90 = Quantile(values, 0.9)
	s.Max = values[len(values)-1]
	return s
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s WindowStats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt32("window_end", s.WindowEndTick)
	enc.AddFloat64("sim_time", s.SimTimeSec)
	enc.AddInt("live", s.Live)
	enc.AddInt("pending", s.Pending)
	enc.AddInt("lethal_live", s.LethalLive)
	enc.AddInt("promotions", s.Promotions)
	enc.AddInt("retirements", s.Retirements)
	enc.AddInt("requests", s.Requests)
	enc.AddInt("cancels", s.Cancels)
	enc.AddInt("shots", s.Shots)
	enc.AddInt("chasing", s.Chasing)
	enc.AddInt("shooting", s.Shooting)
	enc.AddInt("meandering", s.Meandering)
	enc.AddFloat64("restless_mean", s.RestlessMean)
	enc.AddFloat64("restless_p90", s.RestlessP90)
	return nil
}
