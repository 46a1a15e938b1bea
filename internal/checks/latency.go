package checks

import (
	"math"
	"slices"
	"time"
)

// LatencySummary агрегаты по выборке латентностей в миллисекундах.
type LatencySummary struct {
	Samples   int     `json:"samples"`
	AverageMs float64 `json:"average_ms"`
	P90Ms     float64 `json:"p90_ms"`
	P95Ms     float64 `json:"p95_ms"`
	P99Ms     float64 `json:"p99_ms"`
	MaxMs     float64 `json:"max_ms"`
}

// Summarize считает среднее, перцентили и максимум.
func Summarize(data []time.Duration) LatencySummary {
	if len(data) == 0 {
		return LatencySummary{}
	}
	samples := slices.Clone(data)
	slices.Sort(samples)

	var total time.Duration
	for _, d := range samples {
		total += d
	}
	return LatencySummary{
		Samples:   len(samples),
		AverageMs: ms(total) / float64(len(samples)),
		P90Ms:     ms(percentileSorted(samples, 90)),
		P95Ms:     ms(percentileSorted(samples, 95)),
		P99Ms:     ms(percentileSorted(samples, 99)),
		MaxMs:     ms(samples[len(samples)-1]),
	}
}

// Percentile возвращает p-й перцентиль (0 < p <= 100) по методу nearest-rank.
func Percentile(data []time.Duration, p float64) time.Duration {
	if len(data) == 0 {
		return 0
	}
	samples := slices.Clone(data)
	slices.Sort(samples)
	return percentileSorted(samples, p)
}

func percentileSorted(sorted []time.Duration, p float64) time.Duration {
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
