package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/client"
	"github.com/AlekseyZapadovnikov/pr-loadgen/internal/fixtures"
)

var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Generates, seeds and exports the fixture corpora.",
}

var (
	genOpts = fixtures.DefaultGenerateOptions()
	genDir  string
)

var fixturesGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generates a synthetic corpus and writes it to a directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := fixtures.Generate(genOpts)
		if err != nil {
			return err
		}
		dir := pick(genDir, cfg.Fixtures.Dir)
		if err := store.Save(fixtures.DirPaths(dir)); err != nil {
			return err
		}
		slog.Info("fixtures generated",
			"dir", dir,
			"users", store.NumUsers(),
			"teams", store.NumTeams(),
			"pull_requests", store.NumPullRequests(),
		)
		return nil
	},
}

var seedOut string

var fixturesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Creates the corpus teams and pull requests in the live service and rewrites reviewers with the assigned ones.",
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := fixtures.Load(fixtures.PathsFromConfig(cfg.Fixtures))
		if err != nil {
			return err
		}

		target := client.New(cfg.Target.BaseURL, cfg.Target.RequestTimeout.Std())
		if cfg.Target.HealthTimeout > 0 && cfg.Target.HealthPath != "" {
			if err := target.WaitHealthy(cmd.Context(), cfg.Target.HealthPath, cfg.Target.HealthTimeout.Std()); err != nil {
				return err
			}
		}

		seeded, err := fixtures.Seed(cmd.Context(), target, src)
		if err != nil {
			return err
		}
		dir := pick(seedOut, cfg.Fixtures.Dir)
		if err := seeded.Save(fixtures.DirPaths(dir)); err != nil {
			return err
		}
		slog.Info("fixtures seeded", "base_url", cfg.Target.BaseURL, "dir", dir)
		return nil
	},
}

var exportOut string

var fixturesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Exports the corpora straight from the service PostgreSQL database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateDB(); err != nil {
			return err
		}
		exporter, err := fixtures.NewExporter(cmd.Context(), &cfg.DBConf)
		if err != nil {
			return err
		}
		defer exporter.Close()

		store, err := exporter.Export(cmd.Context())
		if err != nil {
			return err
		}
		dir := pick(exportOut, cfg.Fixtures.Dir)
		if err := store.Save(fixtures.DirPaths(dir)); err != nil {
			return err
		}
		slog.Info("fixtures exported",
			"database", cfg.DBConf.Name,
			"dir", dir,
			"users", store.NumUsers(),
			"teams", store.NumTeams(),
			"pull_requests", store.NumPullRequests(),
		)
		return nil
	},
}

func init() {
	gf := fixturesGenCmd.Flags()
	gf.IntVar(&genOpts.Teams, "teams", genOpts.Teams, "number of teams")
	gf.IntVar(&genOpts.Users, "users", genOpts.Users, "number of users")
	gf.IntVar(&genOpts.PullRequests, "prs", genOpts.PullRequests, "number of pull requests")
	gf.Float64Var(&genOpts.ActiveShare, "active-share", genOpts.ActiveShare, "share of active users")
	gf.Float64Var(&genOpts.MergedShare, "merged-share", genOpts.MergedShare, "share of merged pull requests")
	gf.IntVar(&genOpts.MaxReviewers, "max-reviewers", genOpts.MaxReviewers, "max reviewers per pull request")
	gf.Uint64Var(&genOpts.Seed, "seed", 0, "random seed, 0 picks a random one")
	gf.StringVar(&genDir, "dir", "", "output directory, defaults to fixtures.dir from the config")

	fixturesSeedCmd.Flags().StringVar(&seedOut, "out", "", "output directory, defaults to fixtures.dir from the config")
	fixturesExportCmd.Flags().StringVar(&exportOut, "out", "", "output directory, defaults to fixtures.dir from the config")

	fixturesCmd.AddCommand(fixturesGenCmd, fixturesSeedCmd, fixturesExportCmd)
	rootCmd.AddCommand(fixturesCmd)
}

func pick(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
