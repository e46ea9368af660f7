package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/pillarpress/internal/api/handlers"
	"github.com/cloo-solutions/pillarpress/internal/api/middleware"
	"github.com/cloo-solutions/pillarpress/internal/config"
	"github.com/cloo-solutions/pillarpress/internal/invalidate"
	"github.com/cloo-solutions/pillarpress/internal/jobs"
	"github.com/cloo-solutions/pillarpress/internal/logfields"
	"github.com/cloo-solutions/pillarpress/internal/metrics"
	"github.com/cloo-solutions/pillarpress/internal/repository"
	"github.com/cloo-solutions/pillarpress/internal/server"
	"github.com/cloo-solutions/pillarpress/internal/service"
	"github.com/cloo-solutions/pillarpress/internal/storage"
	"github.com/cloo-solutions/pillarpress/internal/telemetry"
)

const watchDebounce = 250 * time.Millisecond

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the content server",
		Long:  "Start the pillarpress HTTP server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logfields.Setup(cfg.Debug)

	shutdownTelemetry, err := telemetry.Init(telemetry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Debug:       cfg.Debug,
	})
	if err != nil {
		slog.Warn("telemetry init failed, continuing without tracing", logfields.Error(err))
	} else {
		defer shutdownTelemetry()
	}

	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetString("port")
	}

	registry := metrics.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	a, err := newApp(ctx, cfg, recorder, !noMigrate)
	if err != nil {
		return err
	}
	defer a.Close()

	signaler, closeSignaler, err := newSignaler(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSignaler()

	routerCfg := server.RouterConfig{
		ContentHandler: handlers.NewContentHandler(a.pipeline, a.registry),
		MetricsHandler: metrics.HTTPHandler(registry),
	}

	var outbox *jobs.Worker
	switch {
	case cfg.HasEditing() && a.pool == nil:
		slog.Warn("editing disabled: database unavailable")
	case cfg.HasEditing():
		contentSvc := service.NewContentService(
			repository.NewContentRepository(a.pool),
			a.tags,
			repository.NewTxRunner(a.pool),
		)
		routerCfg.AdminHandler = handlers.NewAdminHandler(contentSvc, a.sources)
		routerCfg.TokenValidator = middleware.NewStaticTokenValidator(cfg.AdminToken, "")

		processor := jobs.NewInvalidationWorker(repository.NewInvalidationJobRepository(a.pool), signaler, recorder)
		outbox = jobs.NewWorker(processor, cfg.OutboxPollInterval)
		go outbox.Start(ctx)
		slog.Info("editing enabled, invalidation worker started")
	case cfg.HasDatabase():
		slog.Info("editing disabled: ADMIN_TOKEN not set")
	}

	if cfg.WatchContent {
		if dir, ok := a.store.(*storage.DirStore); ok {
			watcher, err := invalidate.NewWatcher(dir.Root(), signaler, watchDebounce)
			if err != nil {
				return fmt.Errorf("failed to watch content dir: %w", err)
			}
			go func() {
				if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					slog.Error("content watcher stopped", logfields.Error(err))
				}
			}()
			slog.Info("watching content directory", slog.String("dir", dir.Root()))
		} else {
			slog.Warn("WATCH_CONTENT ignored: content is served from S3")
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}
	slog.Info("shutting down...")

	if outbox != nil {
		outbox.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exited")
	return nil
}

// newSignaler publishes to NATS when configured and logs otherwise.
func newSignaler(cfg *config.Config, logger *slog.Logger) (invalidate.Signaler, func(), error) {
	if !cfg.HasNATS() {
		return invalidate.NewLogSignaler(logger), func() {}, nil
	}

	conn, err := invalidate.ConnectNATS(cfg.NATSURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("publishing invalidations to NATS", slog.String("subject", cfg.NATSSubject))
	return invalidate.NewNATSSignaler(conn, cfg.NATSSubject), conn.Close, nil
}
