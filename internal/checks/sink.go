package checks

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// SinkConfig настройки Sink.
type SinkConfig struct {
	// MaxLatencySamples ограничивает число хранимых латентностей на эндпоинт.
	// Счётчики и максимум считаются по всем запросам независимо от лимита.
	MaxLatencySamples int
}

// DefaultSinkConfig возвращает настройки по умолчанию.
func DefaultSinkConfig() SinkConfig {
	return SinkConfig{MaxLatencySamples: 50_000}
}

type checkKey struct {
	scenario string
	name     string
	category Category
}

type checkCounter struct {
	passes uint64
	fails  uint64
}

type endpointStats struct {
	requests uint64
	failed   uint64
	max      time.Duration
	samples  []time.Duration
}

// Sink потокобезопасный приёмник результатов.
type Sink struct {
	maxSamples int
	startTime  time.Time

	dropped    atomic.Uint64
	iterations atomic.Uint64

	mu        sync.Mutex
	scenarios map[string]uint64
	checks    map[checkKey]*checkCounter
	endpoints map[string]*endpointStats
}

// NewSink создаёт приёмник.
func NewSink(cfg SinkConfig) *Sink {
	if cfg.MaxLatencySamples <= 0 {
		cfg.MaxLatencySamples = DefaultSinkConfig().MaxLatencySamples
	}
	return &Sink{
		maxSamples: cfg.MaxLatencySamples,
		startTime:  time.Now(),
		scenarios:  make(map[string]uint64),
		checks:     make(map[checkKey]*checkCounter),
		endpoints:  make(map[string]*endpointStats),
	}
}

// RecordCheck учитывает результат проверки.
func (s *Sink) RecordCheck(c Check) {
	key := checkKey{scenario: c.Scenario, name: c.Name, category: c.Category}

	s.mu.Lock()
	defer s.mu.Unlock()
	cnt, ok := s.checks[key]
	if !ok {
		cnt = &checkCounter{}
		s.checks[key] = cnt
	}
	if c.Passed {
		cnt.passes++
	} else {
		cnt.fails++
	}
}

// RecordRequest учитывает HTTP-обмен.
func (s *Sink) RecordRequest(r RequestSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ep, ok := s.endpoints[r.Endpoint]
	if !ok {
		ep = &endpointStats{}
		s.endpoints[r.Endpoint] = ep
	}
	ep.requests++
	if r.Failed() {
		ep.failed++
	}
	if r.Duration > ep.max {
		ep.max = r.Duration
	}
	if len(ep.samples) < s.maxSamples {
		ep.samples = append(ep.samples, r.Duration)
	}
}

// RecordIteration учитывает выполненную итерацию сценария.
func (s *Sink) RecordIteration(scenario string) {
	s.iterations.Add(1)
	s.mu.Lock()
	s.scenarios[scenario]++
	s.mu.Unlock()
}

// RecordDropped учитывает итерацию, для которой не нашлось свободного воркера.
func (s *Sink) RecordDropped() {
	s.dropped.Add(1)
}

// CheckStat агрегированный результат одной проверки.
type CheckStat struct {
	Scenario string   `json:"scenario"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Passes   uint64   `json:"passes"`
	Fails    uint64   `json:"fails"`
}

// EndpointStat агрегаты запросов к одному эндпоинту.
type EndpointStat struct {
	Endpoint string         `json:"endpoint"`
	Requests uint64         `json:"requests"`
	Failed   uint64         `json:"failed"`
	Latency  LatencySummary `json:"latency"`
}

// Snapshot срез состояния Sink.
type Snapshot struct {
	Elapsed    time.Duration     `json:"elapsed"`
	Iterations uint64            `json:"iterations"`
	Dropped    uint64            `json:"dropped_iterations"`
	Scenarios  map[string]uint64 `json:"scenarios"`
	Checks     []CheckStat       `json:"checks"`
	Endpoints  []EndpointStat    `json:"endpoints"`
	Requests   uint64            `json:"requests"`
	Failed     uint64            `json:"failed_requests"`
	Latency    LatencySummary    `json:"latency"`

	durations []time.Duration
	max       time.Duration
}

// Snapshot возвращает копию накопленных данных. Проверки и эндпоинты отсортированы.
func (s *Sink) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Elapsed:    time.Since(s.startTime),
		Iterations: s.iterations.Load(),
		Dropped:    s.dropped.Load(),
		Scenarios:  make(map[string]uint64, len(s.scenarios)),
		Checks:     make([]CheckStat, 0, len(s.checks)),
		Endpoints:  make([]EndpointStat, 0, len(s.endpoints)),
	}
	for k, v := range s.scenarios {
		snap.Scenarios[k] = v
	}
	for k, v := range s.checks {
		snap.Checks = append(snap.Checks, CheckStat{
			Scenario: k.scenario,
			Name:     k.name,
			Category: k.category,
			Passes:   v.passes,
			Fails:    v.fails,
		})
	}
	sort.Slice(snap.Checks, func(i, j int) bool {
		a, b := snap.Checks[i], snap.Checks[j]
		if a.Scenario != b.Scenario {
			return a.Scenario < b.Scenario
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Name < b.Name
	})

	for name, ep := range s.endpoints {
		samples := append([]time.Duration(nil), ep.samples...)
		stat := EndpointStat{
			Endpoint: name,
			Requests: ep.requests,
			Failed:   ep.failed,
			Latency:  Summarize(samples),
		}
		stat.Latency.MaxMs = ms(ep.max)
		snap.Endpoints = append(snap.Endpoints, stat)
		snap.Requests += ep.requests
		snap.Failed += ep.failed
		snap.durations = append(snap.durations, samples...)
		if ep.max > snap.max {
			snap.max = ep.max
		}
	}
	sort.Slice(snap.Endpoints, func(i, j int) bool { return snap.Endpoints[i].Endpoint < snap.Endpoints[j].Endpoint })
	snap.Latency = Summarize(snap.durations)
	snap.Latency.MaxMs = ms(snap.max)
	return snap
}

// DurationPercentile возвращает перцентиль длительности запросов по всем эндпоинтам.
// Для p=100 используется точный максимум, а не выборка.
func (s Snapshot) DurationPercentile(p float64) time.Duration {
	if p >= 100 {
		return s.max
	}
	return Percentile(s.durations, p)
}

// CheckRate доля успешных проверок; 1, если проверок не было.
func (s Snapshot) CheckRate() float64 {
	var passes, total uint64
	for _, c := range s.Checks {
		passes += c.Passes
		total += c.Passes + c.Fails
	}
	if total == 0 {
		return 1
	}
	return float64(passes) / float64(total)
}

// CategoryRate доля успешных проверок в категории; 1, если проверок не было.
func (s Snapshot) CategoryRate(cat Category) float64 {
	var passes, total uint64
	for _, c := range s.Checks {
		if c.Category != cat {
			continue
		}
		passes += c.Passes
		total += c.Passes + c.Fails
	}
	if total == 0 {
		return 1
	}
	return float64(passes) / float64(total)
}

// FindCheck ищет агрегат проверки по сценарию и имени.
func (s Snapshot) FindCheck(scenario, name string) (CheckStat, bool) {
	for _, c := range s.Checks {
		if c.Scenario == scenario && c.Name == name {
			return c, true
		}
	}
	return CheckStat{}, false
}
