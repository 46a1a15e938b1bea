// Package commands собирает CLI генератора нагрузки на cobra.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AlekseyZapadovnikov/pr-loadgen/conf"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/domain"
)

// exitThresholdsCrossed код выхода при нарушенных порогах, как у k6.
const exitThresholdsCrossed = 99

var (
	configPath string
	logLevel   string

	// cfg заполняется в PersistentPreRunE до запуска любой подкоманды.
	cfg *conf.Config
)

var rootCmd = &cobra.Command{
	Use:           "pr-loadgen",
	Short:         "pr-loadgen generates synthetic load against the PR reviewer assignment service.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogger(logLevel); err != nil {
			return err
		}
		loaded, err := conf.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		slog.Debug("configuration loaded", "config_path", configPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to the JSON config; built-in defaults when empty")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level: debug, info, warn or error")
}

// ExecuteContext запускает CLI и завершает процесс с кодом, соответствующим ошибке.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, domain.ErrThresholdsCrossed) {
			os.Exit(exitThresholdsCrossed)
		}
		os.Exit(1)
	}
}

func setupLogger(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
