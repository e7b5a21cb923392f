package entrypoint

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/covers"
	auditrepo "github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/database/authors"
	"github.com/mrlokans/librarian/internal/database/books"
	http_controllers "github.com/mrlokans/librarian/internal/http"
	"github.com/mrlokans/librarian/internal/logging"
	"github.com/mrlokans/librarian/internal/scheduler"
	"github.com/mrlokans/librarian/internal/tasks"
)

// auditCleanupSchedule runs the audit retention job daily at 04:00.
const auditCleanupSchedule = "0 4 * * *"

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(handler http.Handler, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Dur("timeout", timeout).Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown")
	}

	// Handlers have returned; release what they were using.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info().Msg("Server exiting")
}

func Run(cfg *config.Config, version string) {
	logging.Init(cfg.Logging.Level, cfg.Logging.Format)
	log.Info().Str("version", version).Msg("Starting Librarian")

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	store, err := newFileStore(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize cover store")
	}
	coverAdapter, err := newCoverAdapter(cfg, store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize covers")
	}
	log.Info().
		Str("strategy", coverAdapter.Strategy()).
		Str("store", cfg.Covers.Store).
		Msg("Covers configured")

	authorRepo := authors.NewRepository(db.DB)
	bookRepo := books.NewRepository(db.DB, coverAdapter)
	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	sweeper := covers.NewSweeper(store, bookRepo)

	sessions, err := newSessionManager(cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize sessions")
	}

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskDBPath := cfg.Tasks.DBPath
		if taskDBPath == "" {
			taskDBPath = tasks.DBPathFor(cfg.Database.Path)
		}
		taskClient, err = tasks.NewClient(tasks.Config{
			DBPath:          taskDBPath,
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize task queue")
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing task client")
			}
		}()

		taskClient.Register(
			tasks.NewSweepCoversQueue(sweeper, auditService),
			tasks.NewCleanupAuditEventsQueue(auditService),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	sched := scheduler.New()
	if err := scheduleJobs(sched, cfg, taskClient, sweeper, auditService); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule jobs")
	}
	schedCtx, schedCancel := context.WithCancel(context.Background())
	sched.Start(schedCtx)

	csrfSecret, err := csrfKey(cfg.Session.CSRFSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to derive CSRF key")
	}
	if csrfSecret == nil {
		log.Warn().Msg("CSRF_SECRET is not set, form submissions are not CSRF protected")
	}
	if cfg.Global.ReadOnly {
		log.Info().Msg("Read-only mode enabled - write operations will be blocked")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Authors:        authorRepo,
		Books:          bookRepo,
		Covers:         coverAdapter,
		Auditor:        auditService,
		Database:       db,
		Sessions:       sessions,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Session.SecureCookies,
		ReadOnly:       cfg.Global.ReadOnly,
		MaxUploadBytes: cfg.Covers.MaxUploadBytes,
		TemplatesPath:  cfg.UI.TemplatesPath,
		StaticPath:     cfg.UI.StaticPath,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		auditService.Wait()
		sched.Stop()
		schedCancel()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	bodyLimit := http_controllers.RequestBodyLimit(cfg.Covers.MaxUploadBytes)
	Serve(http_controllers.MethodOverride(router, bodyLimit), cfg, onShutdown)
}

// scheduleJobs registers the periodic maintenance jobs. With the task queue
// enabled the jobs only enqueue work; otherwise they run in the scheduler's
// goroutine.
func scheduleJobs(sched *scheduler.Scheduler, cfg *config.Config, taskClient *tasks.Client, sweeper *covers.Sweeper, auditService *audit.Service) error {
	sweepTask := tasks.SweepCoversTask{Grace: cfg.CoverSweep.Grace}
	cleanupTask := tasks.CleanupAuditEventsTask{RetentionDays: cfg.Audit.RetentionDays}

	var sweepJob, cleanupJob func()
	if taskClient != nil {
		sweepJob = scheduler.Enqueue(taskClient, sweepTask)
		cleanupJob = scheduler.Enqueue(taskClient, cleanupTask)
	} else {
		sweepProcess := tasks.SweepCoversProcessor(sweeper, auditService)
		cleanupProcess := tasks.CleanupAuditEventsProcessor(auditService)
		sweepJob = func() {
			if err := sweepProcess(context.Background(), sweepTask); err != nil {
				log.Error().Err(err).Msg("Cover sweep failed")
			}
		}
		cleanupJob = func() {
			if err := cleanupProcess(context.Background(), cleanupTask); err != nil {
				log.Error().Err(err).Msg("Audit cleanup failed")
			}
		}
	}

	if cfg.CoverSweep.Enabled {
		if err := sched.Add("sweep-covers", cfg.CoverSweep.Schedule, sweepJob); err != nil {
			return err
		}
	}
	if cfg.Audit.RetentionDays > 0 {
		if err := sched.Add("cleanup-audit-events", auditCleanupSchedule, cleanupJob); err != nil {
			return err
		}
	}
	return nil
}

// RunSweep performs one orphan cover sweep outside the server and reports
// what it found.
func RunSweep(cfg *config.Config, grace time.Duration, dryRun bool) (covers.SweepResult, error) {
	logging.Init(cfg.Logging.Level, cfg.Logging.Format)

	db, err := openDatabase(cfg)
	if err != nil {
		return covers.SweepResult{}, fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	store, err := newFileStore(ctx, cfg)
	if err != nil {
		return covers.SweepResult{}, fmt.Errorf("initialize cover store: %w", err)
	}
	coverAdapter, err := newCoverAdapter(cfg, store)
	if err != nil {
		return covers.SweepResult{}, fmt.Errorf("initialize covers: %w", err)
	}

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	sweeper := covers.NewSweeper(store, books.NewRepository(db.DB, coverAdapter))

	result, err := sweeper.Run(ctx, grace, dryRun)
	auditService.LogSweep(result.Scanned, result.Removed, dryRun, err)
	auditService.Wait()
	return result, err
}
