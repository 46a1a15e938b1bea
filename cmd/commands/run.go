package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AlekseyZapadovnikov/pr-loadgen/conf"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/checks"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/client"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/executor"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/fixtures"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/report"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/scenario"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/stubtarget"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/web"
)

type runFlags struct {
	baseURL    string
	rate       float64
	duration   time.Duration
	workers    int
	fixtures   string
	reportPath string
	statusPort string
	mergeSrc   string
	stub       bool
	stubDelay  time.Duration
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs the constant-arrival-rate load test and prints the summary.",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRunFlags(cmd, cfg, runOpts)
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var stub *stubtarget.Options
		if runOpts.stub {
			stub = &stubtarget.Options{Delay: runOpts.stubDelay}
		}
		summary, err := runLoad(ctx, cfg, stub)
		if err != nil {
			return err
		}

		report.Print(cmd.OutOrStdout(), summary)
		if err := report.Write(summary, cfg.Report.Path); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		if cfg.Report.Path != "" {
			slog.Info("report written", "path", cfg.Report.Path)
		}
		return summary.Err()
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runOpts.baseURL, "base-url", "", "target base URL")
	f.Float64Var(&runOpts.rate, "rate", 0, "iterations per time unit")
	f.DurationVar(&runOpts.duration, "duration", 0, "test duration")
	f.IntVar(&runOpts.workers, "workers", 0, "pre-allocated workers")
	f.StringVar(&runOpts.fixtures, "fixtures", "", "directory with the fixture corpora")
	f.StringVar(&runOpts.reportPath, "report", "", "path of the JSON summary")
	f.StringVar(&runOpts.statusPort, "status-port", "", "port of the live status server")
	f.StringVar(&runOpts.mergeSrc, "merge-source", "", "merge targets: fixtures or mixed")
	f.BoolVar(&runOpts.stub, "stub", false, "run against an in-process stub seeded with the fixtures")
	f.DurationVar(&runOpts.stubDelay, "stub-delay", 0, "artificial latency of the stub")
	rootCmd.AddCommand(runCmd)
}

// applyRunFlags переносит в конфигурацию только явно заданные флаги.
func applyRunFlags(cmd *cobra.Command, c *conf.Config, f runFlags) {
	changed := cmd.Flags().Changed
	if changed("base-url") {
		c.Target.BaseURL = f.baseURL
	}
	if changed("rate") {
		c.Load.Rate = f.rate
	}
	if changed("duration") {
		c.Load.Duration = conf.Duration(f.duration)
	}
	if changed("workers") {
		c.Load.Workers = f.workers
	}
	if changed("fixtures") {
		c.Fixtures.Dir = f.fixtures
	}
	if changed("report") {
		c.Report.Path = f.reportPath
	}
	if changed("status-port") {
		c.Status.Port = f.statusPort
	}
	if changed("merge-source") {
		c.Scenario.MergeSource = f.mergeSrc
	}
}

// runLoad проводит один прогон: корпус, health-check, исполнитель, итог.
// stub != nil поднимает заглушку сервиса в этом же процессе вместо внешнего base_url.
func runLoad(ctx context.Context, c *conf.Config, stub *stubtarget.Options) (report.Summary, error) {
	store, err := fixtures.Load(fixtures.PathsFromConfig(c.Fixtures))
	if err != nil {
		return report.Summary{}, err
	}
	slog.Info("fixtures loaded",
		"users", store.NumUsers(),
		"teams", store.NumTeams(),
		"pull_requests", store.NumPullRequests(),
	)

	baseURL := c.Target.BaseURL
	if stub != nil {
		url, stopStub, err := startStub(store, *stub, "127.0.0.1:0")
		if err != nil {
			return report.Summary{}, err
		}
		defer stopStub()
		baseURL = url
	}

	target := client.New(baseURL, c.Target.RequestTimeout.Std())
	if c.Target.HealthTimeout > 0 && c.Target.HealthPath != "" {
		if err := target.WaitHealthy(ctx, c.Target.HealthPath, c.Target.HealthTimeout.Std()); err != nil {
			return report.Summary{}, err
		}
		slog.Info("target is healthy", "base_url", baseURL)
	}

	sink := checks.NewSink(checks.DefaultSinkConfig())
	execCfg := executor.ConfigFromLoad(c.Load)
	exec, err := executor.New(execCfg, sink)
	if err != nil {
		return report.Summary{}, err
	}
	runner := scenario.NewRunner(target, store, sink, scenario.OptionsFromConfig(c.Scenario))

	if c.Status.Enabled() {
		status := web.New(c.Status, sink, exec)
		go func() {
			if err := status.Start(); err != nil {
				slog.Error("status server failed", "error", err)
			}
		}()
		defer func() {
			if err := status.Shutdown(context.Background()); err != nil {
				slog.Warn("status server shutdown", "error", err)
			}
		}()
	}

	res := exec.Run(ctx, func(ctx context.Context) {
		runner.RunIteration(ctx)
	})
	if res.Interrupted {
		slog.Warn("run interrupted, summarizing partial results")
	}

	meta := report.Meta{
		BaseURL:    baseURL,
		TargetRate: execCfg.Rate / execCfg.TimeUnit.Seconds(),
		Elapsed:    res.Elapsed,
	}
	return report.Build(sink.Snapshot(), meta, report.ThresholdsFromConfig(c.Thresholds)), nil
}
