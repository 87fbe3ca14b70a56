// internal/cli/app.go
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github-org-collector/internal/analytics"
	"github-org-collector/internal/collector"
	"github-org-collector/internal/config"
	"github-org-collector/internal/github"
	"github-org-collector/internal/storage/postgres"
)

// app bundles the wired application components shared by the commands.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	pool      *pgxpool.Pool
	store     *postgres.Store
	collector *collector.Collector
	analytics *analytics.Service
}

func (a *app) Close() {
	a.pool.Close()
}

// newApp loads configuration, connects to the database, applies migrations,
// and wires the ingestion pipeline.
func newApp(ctx context.Context) (*app, error) {
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("configuration loaded")

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("database connection established")

	if err := runMigrations(cfg.DBURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	logger.Info("database migrations applied")

	client, err := github.NewClient(cfg.GithubBaseURL, cfg.GithubToken, cfg.GithubTimeout, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create github client: %w", err)
	}
	retry := github.NewRetryPolicy(cfg.GithubMaxRetries, logger)
	fetcher := github.NewFetcher(client, retry, logger)

	store := postgres.NewStore(pool)
	coll := collector.New(fetcher, store, collector.Options{
		Organization:           cfg.Organization,
		MaxRepositories:        cfg.MaxRepositories,
		MaxPullRequestsPerRepo: cfg.MaxPullRequestsPerRepo,
		MaxReviewPullRequests:  cfg.MaxReviewPullRequests,
		MaxUsers:               cfg.MaxUsers,
		IncludeReviews:         cfg.IncludeReviews,
		IncludeUserProfiles:    cfg.IncludeUserProfiles,
		DryRun:                 cfg.DryRun,
		RepoPause:              cfg.RepoPause,
	}, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		store:     store,
		collector: coll,
		analytics: analytics.NewService(pool, logger),
	}, nil
}

func runMigrations(dbURL string) error {
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
