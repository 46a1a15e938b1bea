package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AlekseyZapadovnikov/pr-loadgen/conf"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/checks"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/client"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/domain"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/executor"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/fixtures"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/report"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/scenario"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/stubtarget"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/web"
)

func TestE2E_LoadRunAgainstStub(t *testing.T) {
	suite := newE2ESuite(t, stubtarget.Options{}, scenario.DefaultOptions())

	var (
		wg        sync.WaitGroup
		midRunErr error
		midRun    liveStats
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(200 * time.Millisecond)
		midRun, midRunErr = suite.fetchStats()
	}()

	summary := suite.run(executor.Config{
		Rate:     100,
		TimeUnit: time.Second,
		Duration: 500 * time.Millisecond,
		Workers:  8,
	}, report.Thresholds{DurationPercentile: 100, MaxDuration: time.Second})
	wg.Wait()

	require.NoError(t, midRunErr)
	require.Positive(t, midRun.Iterations)

	require.Positive(t, summary.Iterations)
	require.NoError(t, summary.Err())

	// заглушка отвечает на эти запросы всегда успешно
	for _, c := range summary.Checks {
		switch c.Name {
		case "user reviews retrieved successfully", "stats returns 200",
			"repeat merge returns 200 (idempotent)", "repeat merge has MERGED status",
			"response has pull_requests array", "each assignment has required fields":
			require.Zero(t, c.Fails, "%s/%s", c.Scenario, c.Name)
		}
		if c.Category == checks.CategoryLatency {
			require.Zero(t, c.Fails, "%s/%s", c.Scenario, c.Name)
		}
	}
	require.Equal(t, 1.0, summary.LatencyCheckRate)

	var perScenario uint64
	for _, sc := range summary.Scenarios {
		perScenario += sc.Iterations
	}
	require.Equal(t, summary.Iterations, perScenario)
}

func TestE2E_SlowTargetSeparatesLatencyFromContent(t *testing.T) {
	opts := scenario.DefaultOptions()
	opts.LatencyBudget = 5 * time.Millisecond
	opts.TeamLatencyBudget = 5 * time.Millisecond
	suite := newE2ESuite(t, stubtarget.Options{Delay: 20 * time.Millisecond}, opts)

	summary := suite.run(executor.Config{
		Rate:     50,
		TimeUnit: time.Second,
		Duration: 400 * time.Millisecond,
		Workers:  20,
	}, report.Thresholds{DurationPercentile: 100, MaxDuration: 10 * time.Millisecond})

	require.Positive(t, summary.Iterations)
	require.Zero(t, summary.LatencyCheckRate)

	stat, ok := findCheck(summary, "get_review", "response has pull_requests array")
	if ok {
		require.Zero(t, stat.Fails)
	}

	err := summary.Err()
	require.ErrorIs(t, err, domain.ErrThresholdsCrossed)
	require.ErrorContains(t, err, "http_req_duration p(100)<10ms")
}

func TestE2E_SaturatedWorkersDropIterations(t *testing.T) {
	suite := newE2ESuite(t, stubtarget.Options{Delay: 200 * time.Millisecond}, scenario.DefaultOptions())

	summary := suite.run(executor.Config{
		Rate:     100,
		TimeUnit: time.Second,
		Duration: 300 * time.Millisecond,
		Workers:  1,
	}, report.Thresholds{})

	require.Positive(t, summary.Dropped)
	require.Empty(t, summary.Thresholds)
}

type e2eSuite struct {
	t       *testing.T
	store   *fixtures.Store
	target  *client.Client
	sink    *checks.Sink
	opts    scenario.Options
	status  *web.Server
	baseURL string
	errCh   chan error
	exec    *executor.Executor
	mu      sync.Mutex
}

type liveStats struct {
	Iterations    uint64 `json:"iterations"`
	ActiveWorkers int    `json:"active_workers"`
}

func newE2ESuite(t *testing.T, stubOpts stubtarget.Options, opts scenario.Options) *e2eSuite {
	t.Helper()

	store, err := fixtures.Generate(fixtures.GenerateOptions{
		Teams: 4, Users: 24, PullRequests: 80,
		ActiveShare: 0.9, MergedShare: 0.5, MaxReviewers: 2, Seed: 2024,
	})
	require.NoError(t, err)

	stub := stubtarget.New(stubOpts)
	stub.Seed(store)
	target := httptest.NewServer(stub)
	t.Cleanup(target.Close)

	sink := checks.NewSink(checks.DefaultSinkConfig())
	suite := &e2eSuite{
		t:      t,
		store:  store,
		target: client.New(target.URL, 3*time.Second),
		sink:   sink,
		opts:   opts,
		errCh:  make(chan error, 1),
	}
	require.NoError(t, suite.target.WaitHealthy(context.Background(), "/health", 2*time.Second))

	cfg := conf.StatusConf{Host: "127.0.0.1", Port: freePort(t)}
	suite.status = web.New(cfg, sink, suite)
	suite.baseURL = fmt.Sprintf("http://%s", suite.status.Address)
	suite.startStatus()
	suite.waitForReady()
	t.Cleanup(suite.shutdown)

	return suite
}

// ActiveWorkers отдаёт статус-серверу число занятых воркеров текущего исполнителя.
func (s *e2eSuite) ActiveWorkers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exec == nil {
		return 0
	}
	return s.exec.ActiveWorkers()
}

func (s *e2eSuite) run(cfg executor.Config, th report.Thresholds) report.Summary {
	s.t.Helper()

	exec, err := executor.New(cfg, s.sink)
	require.NoError(s.t, err)
	s.mu.Lock()
	s.exec = exec
	s.mu.Unlock()

	runner := scenario.NewRunner(s.target, s.store, s.sink, s.opts)
	res := exec.Run(context.Background(), func(ctx context.Context) {
		runner.RunIteration(ctx)
	})
	require.False(s.t, res.Interrupted)

	meta := report.Meta{
		BaseURL:    s.target.BaseURL(),
		TargetRate: cfg.Rate / cfg.TimeUnit.Seconds(),
		Elapsed:    res.Elapsed,
	}
	return report.Build(s.sink.Snapshot(), meta, th)
}

func (s *e2eSuite) startStatus() {
	go func() {
		s.errCh <- s.status.Start()
	}()
}

func (s *e2eSuite) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(s.t, s.status.Shutdown(ctx))
	err := <-s.errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.t.Fatalf("status server: %v", err)
	}
}

func (s *e2eSuite) waitForReady() {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(s.baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	s.t.Fatalf("status server at %s did not become ready", s.baseURL)
}

func (s *e2eSuite) fetchStats() (liveStats, error) {
	var out liveStats
	resp, err := http.Get(s.baseURL + "/stats/")
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return out, json.NewDecoder(resp.Body).Decode(&out)
}

func findCheck(s report.Summary, scenarioName, name string) (checks.CheckStat, bool) {
	for _, c := range s.Checks {
		if c.Scenario == scenarioName && c.Name == name {
			return c, true
		}
	}
	return checks.CheckStat{}, false
}

func freePort(tb testing.TB) string {
	tb.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(tb, err)
	defer ln.Close()
	addr := ln.Addr().(*net.TCPAddr)
	return strconv.Itoa(addr.Port)
}
