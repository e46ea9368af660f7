package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/pillarpress/internal/compiler"
	"github.com/cloo-solutions/pillarpress/internal/components"
	"github.com/cloo-solutions/pillarpress/internal/config"
	"github.com/cloo-solutions/pillarpress/internal/database"
	"github.com/cloo-solutions/pillarpress/internal/highlight"
	"github.com/cloo-solutions/pillarpress/internal/logfields"
	"github.com/cloo-solutions/pillarpress/internal/metrics"
	"github.com/cloo-solutions/pillarpress/internal/pipeline"
	"github.com/cloo-solutions/pillarpress/internal/repository"
	"github.com/cloo-solutions/pillarpress/internal/source"
	"github.com/cloo-solutions/pillarpress/internal/storage"
	"github.com/cloo-solutions/pillarpress/internal/structure"
	"github.com/cloo-solutions/pillarpress/internal/tags"
	"github.com/cloo-solutions/pillarpress/internal/telemetry"
)

// app holds the read side shared by serve, resolve and list.
type app struct {
	cfg      *config.Config
	pool     *pgxpool.Pool
	store    storage.BlobStore
	tags     *tags.Resolver
	sources  *source.FallbackSource
	pipeline *pipeline.Pipeline
	registry compiler.Components
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// newApp wires the content sources and pipeline from configuration. The
// relational source is optional: without a database, or when it cannot be
// reached at startup, only files are served.
func newApp(ctx context.Context, cfg *config.Config, recorder metrics.Recorder, migrate bool) (*app, error) {
	mode, err := source.ParseListingMode(cfg.ListingMode)
	if err != nil {
		return nil, fmt.Errorf("invalid listing mode: %w", err)
	}

	a := &app{cfg: cfg, registry: components.Default()}

	var primary source.ContentSource
	switch {
	case !cfg.HasDatabase():
		slog.Warn("no database configured, serving file content only")
	default:
		pool, err := openDatabase(ctx, cfg, migrate)
		if err != nil {
			slog.Warn("database unavailable, serving file content only", logfields.Error(err))
			telemetry.CaptureError(ctx, err)
			break
		}
		a.pool = pool
		a.tags = tags.NewResolver(repository.NewPillarRepository(pool), repository.NewPillarLinkRepository(pool))
		primary = source.NewRelationalSource(repository.NewContentRepository(pool), a.tags)
	}

	a.store, err = newBlobStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.sources = source.NewFallbackSource(primary, source.NewFileSource(a.store),
		source.WithListingMode(mode),
		source.WithRecorder(recorder),
	)

	hl := highlight.New(
		highlight.NewChromaEngine(highlight.WithLanguages(cfg.HighlightLanguages...)),
		highlight.WithThemes(cfg.HighlightLightTheme, cfg.HighlightDarkTheme),
		highlight.WithRecorder(recorder),
	)
	comp := compiler.New(compiler.WithKnownComponents(components.Names()...))

	a.pipeline = pipeline.New(a.sources, hl, comp,
		pipeline.WithExcerptChannel(structure.Channel(cfg.ExcerptMax)),
		pipeline.WithRecorder(recorder),
	)
	return a, nil
}

// openDatabase connects and, when asked, migrates. A failure here leaves the
// relational source out rather than stopping the process.
func openDatabase(ctx context.Context, cfg *config.Config, migrate bool) (*pgxpool.Pool, error) {
	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if migrate {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	slog.Info("connected to database")
	return pool, nil
}

func newBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	if !cfg.HasS3() {
		return storage.NewDirStore(cfg.ContentDir), nil
	}

	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		Prefix:          cfg.S3Prefix,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 store: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}
	slog.Info("S3 content bucket ready", slog.String("bucket", cfg.S3Bucket))
	return store, nil
}
