package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/fixtures"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/stubtarget"
)

var (
	stubAddr    string
	stubDelay   time.Duration
	stubLogReqs bool
)

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Serves the in-memory stub of the service API seeded with the fixtures.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := fixtures.Load(fixtures.PathsFromConfig(cfg.Fixtures))
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		url, stopStub, err := startStub(store, stubtarget.Options{Delay: stubDelay, LogRequests: stubLogReqs}, stubAddr)
		if err != nil {
			return err
		}
		defer stopStub()

		slog.Info("stub is serving, press Ctrl+C to stop", "base_url", url)
		<-ctx.Done()
		return nil
	},
}

func init() {
	stubCmd.Flags().StringVar(&stubAddr, "addr", "127.0.0.1:8080", "listen address")
	stubCmd.Flags().DurationVar(&stubDelay, "delay", 0, "artificial latency of every API response")
	stubCmd.Flags().BoolVar(&stubLogReqs, "log-requests", false, "log every request")
	rootCmd.AddCommand(stubCmd)
}

// startStub поднимает заглушку на addr и возвращает её базовый URL и функцию остановки.
func startStub(store *fixtures.Store, opts stubtarget.Options, addr string) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("listen stub on %s: %w", addr, err)
	}

	stub := stubtarget.New(opts)
	stub.Seed(store)
	srv := &http.Server{
		Handler:           stub,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("stub server failed", "error", err)
		}
	}()

	stopFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("stub shutdown", "error", err)
		}
	}
	return "http://" + ln.Addr().String(), stopFn, nil
}
