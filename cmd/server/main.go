package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-builder/internal/adapter/cache"
	httpadapter "resume-builder/internal/adapter/http"
	"resume-builder/internal/adapter/identity"
	"resume-builder/internal/adapter/payment"
	repo "resume-builder/internal/adapter/repository"
	"resume-builder/internal/config"
	"resume-builder/internal/infrastructure/migration"
	"resume-builder/internal/render"
	"resume-builder/internal/usecase"
	"resume-builder/pkg/ai"
	infra "resume-builder/pkg/infrastructure"

	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// no logger yet
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger, err := infra.NewLogger(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.App.SessionSecretGenerated {
		logger.Warn("SESSION_SECRET not set, using a random secret; sessions end on restart")
	}
	metrics := infra.NewMetrics("resume")

	// infra setup
	var sb *supabase.Client
	if cfg.Store.SupabaseURL != "" && cfg.Store.SupabaseServiceRoleKey != "" {
		client, err := supabase.NewClient(cfg.Store.SupabaseURL, cfg.Store.SupabaseServiceRoleKey, nil)
		if err != nil {
			return err
		}
		sb = client
	}

	var store usecase.ResumeRepository
	switch cfg.Store.Backend() {
	case "postgres":
		pool, err := infra.NewResumesPool(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := migration.RunMigrations(ctx, pool, logger); err != nil {
			return err
		}
		store = repo.NewResumesRepo(pool)
	case "supabase":
		store = repo.NewSupabaseRepo(sb)
	default:
		logger.Warn("no document store configured, saving and loading are disabled")
	}
	if store != nil {
		store = repo.NewBreakerRepo(store, repo.DefaultBreakerConfig("resumes"), logger)
	}

	var provider usecase.IdentityProvider
	if sb != nil {
		provider = identity.NewSupabaseProvider(sb)
	} else {
		provider = identity.NewLocalProvider(cfg.App.SessionSecret, cfg.App.BaseURL, logger)
	}

	renderer, err := render.New()
	if err != nil {
		return err
	}
	var archive usecase.ArtifactArchive
	if cfg.Export.Bucket != "" {
		a, err := infra.NewS3Archive(ctx, infra.S3Options{
			Bucket:    cfg.Export.Bucket,
			Endpoint:  cfg.Export.BucketEndpoint,
			Region:    cfg.Export.Region,
			AccessKey: cfg.Export.AccessKeyID,
			SecretKey: cfg.Export.SecretAccessKey,
		})
		if err != nil {
			return err
		}
		archive = a
	}
	exporter := usecase.NewExporter(renderer, infra.NewChromedpSurface(cfg.Export.ChromePath), archive, logger, metrics)

	var suggester usecase.Suggester = usecase.NewLocalSuggester(nil)
	if cfg.App.AIServiceURL != "" {
		suggester = &usecase.FallbackSuggester{
			Primary:  ai.NewClient(cfg.App.AIServiceURL, logger),
			Fallback: suggester,
			Logger:   logger,
		}
	}

	snapshots := cache.NewSnapshots(ctx, cfg.Redis.Addr, cfg.Redis.Password, logger)
	defer func() { _ = snapshots.Close() }()

	sched := usecase.RealScheduler{}
	deps := usecase.WorkspaceDeps{
		Repo:          store,
		Exporter:      exporter,
		Gateway:       payment.NewSimulated(sched, cfg.Checkout.CardDelay, cfg.Checkout.PixDelay, logger),
		Scheduler:     sched,
		ExportDelay:   cfg.Checkout.ApprovedExportDelay,
		MaxPhotoBytes: cfg.App.MaxPhotoBytes,
		Logger:        logger,
		Metrics:       metrics,
	}
	if snapshots.Enabled() {
		deps.Snapshots = snapshots
	}
	workspaces := usecase.NewWorkspaces(deps, cfg.App.WorkspaceTTL)
	go workspaces.Run(ctx, time.Minute)

	h := httpadapter.NewHandler(httpadapter.Config{
		Workspaces:   workspaces,
		WorkspaceTTL: cfg.App.WorkspaceTTL,
		Renderer:     renderer,
		Identity:     usecase.NewIdentity(provider, logger),
		Sessions:     identity.NewSessionTokens(cfg.App.SessionSecret, 0),
		Suggester:    suggester,
		Backend:      cfg.Store.Backend(),
		Metrics:      metrics.Handler(),
		Logger:       logger,
	})
	app := httpadapter.NewApp(h, metrics, int(cfg.App.MaxPhotoBytes)+(1<<20))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("port", cfg.App.Port), zap.String("persistence", orDisabled(cfg.Store.Backend())))
		errCh <- app.Listen(":" + cfg.App.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func orDisabled(backend string) string {
	if backend == "" {
		return "disabled"
	}
	return backend
}
