package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/AlekseyZapadovnikov/pr-loadgen/conf"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/fixtures"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/scenario"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/stubtarget"
)

func writeFixtures(t *testing.T) string {
	t.Helper()
	store, err := fixtures.Generate(fixtures.GenerateOptions{
		Teams: 3, Users: 15, PullRequests: 40,
		ActiveShare: 0.9, MergedShare: 0.5, MaxReviewers: 2, Seed: 7,
	})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, store.Save(fixtures.DirPaths(dir)))
	return dir
}

func TestRunLoadAgainstStub(t *testing.T) {
	c := conf.Default()
	c.Fixtures.Dir = writeFixtures(t)
	c.Load.Rate = 50
	c.Load.Duration = conf.Duration(300 * time.Millisecond)
	c.Load.Workers = 5
	c.Target.HealthTimeout = conf.Duration(2 * time.Second)
	c.Thresholds.MaxDuration = 0

	summary, err := runLoad(context.Background(), &c, &stubtarget.Options{})
	require.NoError(t, err)

	require.Positive(t, summary.Iterations)
	require.Positive(t, summary.Totals.Requested)
	require.Len(t, summary.Scenarios, len(scenario.Kinds()))
	require.NotEmpty(t, summary.Checks)
	require.Empty(t, summary.Thresholds)
	require.NoError(t, summary.Err())
	require.Contains(t, summary.BaseURL, "http://127.0.0.1:")
}

func TestRunLoadMissingFixtures(t *testing.T) {
	c := conf.Default()
	c.Fixtures.Dir = t.TempDir()

	_, err := runLoad(context.Background(), &c, &stubtarget.Options{})
	require.Error(t, err)
}

func TestApplyRunFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "run"}
	var f runFlags
	cmd.Flags().Float64Var(&f.rate, "rate", 0, "")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "")
	cmd.Flags().DurationVar(&f.duration, "duration", 0, "")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--rate", "12.5", "--duration", "3s"}))

	c := conf.Default()
	applyRunFlags(cmd, &c, f)

	require.InDelta(t, 12.5, c.Load.Rate, 1e-9)
	require.Equal(t, 3*time.Second, c.Load.Duration.Std())
	// не заданные флаги не затирают конфигурацию нулями
	require.Equal(t, conf.Default().Load.Workers, c.Load.Workers)
	require.Equal(t, conf.Default().Target.BaseURL, c.Target.BaseURL)
}

func TestSampleDispatch(t *testing.T) {
	const draws = 50_000
	counts := sampleDispatch(rand.New(rand.NewPCG(3, 3)), draws)

	total := 0
	for _, k := range scenario.Kinds() {
		total += counts[k]
		require.InDelta(t, scenario.Share(k), float64(counts[k])/draws, 0.015, k.String())
	}
	require.Equal(t, draws, total)
}

func TestSetupLogger(t *testing.T) {
	require.NoError(t, setupLogger("debug"))
	require.NoError(t, setupLogger("WARN"))
	require.Error(t, setupLogger("loud"))
	require.NoError(t, setupLogger("info"))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDispatchCommand(t *testing.T) {
	out, err := execute(t, "dispatch", "--draws", "1000", "--seed", "9")
	require.NoError(t, err)
	for _, k := range scenario.Kinds() {
		require.Contains(t, out, k.String())
	}
}

func TestFixturesGenCommand(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "fixtures", "gen", "--dir", dir, "--teams", "2", "--users", "6", "--prs", "10", "--seed", "5")
	require.NoError(t, err)

	store, err := fixtures.Load(fixtures.DirPaths(dir))
	require.NoError(t, err)
	require.Equal(t, 6, store.NumUsers())
	require.Equal(t, 2, store.NumTeams())
	require.Equal(t, 10, store.NumPullRequests())
}

func TestRunCommandWritesReport(t *testing.T) {
	dir := writeFixtures(t)
	reportPath := filepath.Join(t.TempDir(), "out", "summary.json")

	out, err := execute(t, "run", "--stub",
		"--fixtures", dir,
		"--rate", "40",
		"--duration", "250ms",
		"--workers", "4",
		"--report", reportPath,
	)
	// p(100)<300ms по умолчанию; заглушка в памяти отвечает за миллисекунды
	require.NoError(t, err)
	require.Contains(t, out, "get_review")

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Contains(t, doc, "dropped_iterations")
	require.Contains(t, doc, "http_req_duration_ms")
}

func TestRunCommandRejectsBadFlags(t *testing.T) {
	_, err := execute(t, "run", "--stub", "--fixtures", writeFixtures(t), "--rate", "-1")
	require.ErrorContains(t, err, "invalid config")
}
