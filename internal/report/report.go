// Package report собирает итог прогона, проверяет пороги и выводит результат
// таблицами в консоль и JSON-файлом.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/AlekseyZapadovnikov/pr-loadgen/conf"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/checks"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/domain"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/scenario"
)

// Thresholds пороги, нарушение которых делает прогон неуспешным.
type Thresholds struct {
	DurationPercentile float64
	MaxDuration        time.Duration // 0 отключает порог
	MinCheckRate       float64       // 0 отключает порог
}

// ThresholdsFromConfig переносит секцию thresholds конфигурации.
func ThresholdsFromConfig(c conf.ThresholdsConf) Thresholds {
	return Thresholds{
		DurationPercentile: c.DurationPercentile,
		MaxDuration:        c.MaxDuration.Std(),
		MinCheckRate:       c.MinCheckRate,
	}
}

// Meta сведения о прогоне, которых нет в снимке статистики.
type Meta struct {
	BaseURL    string
	TargetRate float64 // итераций в секунду
	Elapsed    time.Duration
}

// Verdict результат проверки одного порога.
type Verdict struct {
	Name     string  `json:"name"`
	Observed float64 `json:"observed"`
	Passed   bool    `json:"passed"`
}

// ScenarioCount число итераций сценария и его доля.
type ScenarioCount struct {
	Name        string  `json:"name"`
	Iterations  uint64  `json:"iterations"`
	TargetShare float64 `json:"target_share"`
	ActualShare float64 `json:"actual_share"`
}

type totalsSummary struct {
	Requested uint64 `json:"requested"`
	Failed    uint64 `json:"failed"`
}

// Summary итог прогона.
type Summary struct {
	GeneratedAt      time.Time             `json:"generated_at"`
	BaseURL          string                `json:"base_url"`
	DurationSec      float64               `json:"duration_sec"`
	TargetRate       float64               `json:"target_rate"`
	ActualRate       float64               `json:"actual_rate"`
	Iterations       uint64                `json:"iterations"`
	Dropped          uint64                `json:"dropped_iterations"`
	Scenarios        []ScenarioCount       `json:"scenarios"`
	Checks           []checks.CheckStat    `json:"checks"`
	CheckRate        float64               `json:"check_rate"`
	LatencyCheckRate float64               `json:"latency_check_rate"`
	ContentCheckRate float64               `json:"content_check_rate"`
	Totals           totalsSummary         `json:"requests"`
	Latency          checks.LatencySummary `json:"http_req_duration_ms"`
	Endpoints        []checks.EndpointStat `json:"endpoints"`
	Thresholds       []Verdict             `json:"thresholds"`
}

// Build строит итог по снимку и проверяет пороги.
func Build(snap checks.Snapshot, meta Meta, th Thresholds) Summary {
	elapsed := meta.Elapsed
	if elapsed <= 0 {
		elapsed = snap.Elapsed
	}

	s := Summary{
		GeneratedAt:      time.Now(),
		BaseURL:          meta.BaseURL,
		DurationSec:      elapsed.Seconds(),
		TargetRate:       meta.TargetRate,
		Iterations:       snap.Iterations,
		Dropped:          snap.Dropped,
		Checks:           snap.Checks,
		CheckRate:        snap.CheckRate(),
		LatencyCheckRate: snap.CategoryRate(checks.CategoryLatency),
		ContentCheckRate: snap.CategoryRate(checks.CategoryContent),
		Totals:           totalsSummary{Requested: snap.Requests, Failed: snap.Failed},
		Latency:          snap.Latency,
		Endpoints:        snap.Endpoints,
	}
	if elapsed > 0 {
		s.ActualRate = float64(snap.Iterations) / elapsed.Seconds()
	}

	for _, kind := range scenario.Kinds() {
		sc := ScenarioCount{
			Name:        kind.String(),
			Iterations:  snap.Scenarios[kind.String()],
			TargetShare: scenario.Share(kind),
		}
		if snap.Iterations > 0 {
			sc.ActualShare = float64(sc.Iterations) / float64(snap.Iterations)
		}
		s.Scenarios = append(s.Scenarios, sc)
	}

	s.Thresholds = evaluate(snap, th)
	return s
}

func evaluate(snap checks.Snapshot, th Thresholds) []Verdict {
	var out []Verdict
	if th.MaxDuration > 0 {
		p := th.DurationPercentile
		if p <= 0 {
			p = 100
		}
		observed := snap.DurationPercentile(p)
		out = append(out, Verdict{
			Name:     fmt.Sprintf("http_req_duration p(%s)<%s", strconv.FormatFloat(p, 'f', -1, 64), th.MaxDuration),
			Observed: float64(observed.Microseconds()) / 1000.0,
			Passed:   observed < th.MaxDuration,
		})
	}
	if th.MinCheckRate > 0 {
		rate := snap.CheckRate()
		out = append(out, Verdict{
			Name:     fmt.Sprintf("checks rate>=%s", strconv.FormatFloat(th.MinCheckRate, 'f', -1, 64)),
			Observed: rate,
			Passed:   rate >= th.MinCheckRate,
		})
	}
	return out
}

// Crossed возвращает имена нарушенных порогов.
func (s Summary) Crossed() []string {
	var names []string
	for _, v := range s.Thresholds {
		if !v.Passed {
			names = append(names, v.Name)
		}
	}
	return names
}

// Err возвращает domain.ErrThresholdsCrossed, если хотя бы один порог нарушен.
func (s Summary) Err() error {
	if names := s.Crossed(); len(names) > 0 {
		return domain.NewThresholdsCrossedError(names)
	}
	return nil
}

// Write сохраняет итог в JSON. Пустой путь ничего не делает.
func Write(summary Summary, path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
