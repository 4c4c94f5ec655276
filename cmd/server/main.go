package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appesl "github.com/erp/esl-addon/internal/application/esl"
	"github.com/erp/esl-addon/internal/infrastructure/config"
	"github.com/erp/esl-addon/internal/infrastructure/eslcloud"
	"github.com/erp/esl-addon/internal/infrastructure/logger"
	"github.com/erp/esl-addon/internal/infrastructure/persistence"
	"github.com/erp/esl-addon/internal/infrastructure/scheduler"
	"github.com/erp/esl-addon/internal/interfaces/http/handler"
	"github.com/erp/esl-addon/internal/interfaces/http/middleware"
	"github.com/erp/esl-addon/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting esl-addon",
		zap.String("version", version),
		zap.String("env", cfg.App.Env))

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// Repositories
	sessionRepo := persistence.NewGormSessionRepository(db.DB)
	templateRepo := persistence.NewGormTemplateRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)

	// Vendor adapter
	vendorCfg := eslcloud.NewConfig()
	if cfg.Vendor.APIBaseURL != "" {
		vendorCfg.APIBaseURL = cfg.Vendor.APIBaseURL
	}
	if cfg.Vendor.AssetBaseURL != "" {
		vendorCfg.AssetBaseURL = cfg.Vendor.AssetBaseURL
	}
	vendorCfg.LightTimeoutSeconds = cfg.Vendor.LightTimeoutSeconds
	vendorCfg.HeavyTimeoutSeconds = cfg.Vendor.HeavyTimeoutSeconds

	vendor, err := eslcloud.NewAdapter(vendorCfg, log.Named("eslcloud"))
	if err != nil {
		return fmt.Errorf("init vendor adapter: %w", err)
	}

	// Scheduler trigger, wired before the services so schedule changes
	// reach it through the listener interface.
	trigger := scheduler.NewAutoSyncTrigger(scheduler.AutoSyncConfig{
		TickInterval: cfg.Scheduler.TickInterval,
		JobTimeout:   cfg.Scheduler.JobTimeout,
		StartupDelay: cfg.Scheduler.StartupDelay,
	}, nil, log.Named("scheduler"))

	// Application services
	sessionSvc := appesl.NewSessionService(sessionRepo, vendor, trigger, log.Named("session"))
	exportSvc := appesl.NewExportService(productRepo, sessionSvc, vendor, log.Named("export"))
	templateSvc := appesl.NewTemplateService(templateRepo, sessionSvc, vendor, vendorCfg.AssetBaseURL, log.Named("template"))
	bindSvc := appesl.NewBindService(productRepo, templateRepo, sessionSvc, vendor, log.Named("bind"))
	workflowSvc := appesl.NewWorkflowService(sessionSvc, exportSvc, templateSvc, log.Named("workflow"))

	trigger.SetJob(workflowSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Scheduler.Enabled {
		if err := trigger.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		// Pick up the stored schedule, if a session already exists
		if session, err := sessionRepo.Get(ctx); err == nil {
			trigger.ScheduleChanged(session.SyncInterval(), session.SyncActive)
		}
	}

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return fmt.Errorf("set trusted proxies: %w", err)
	}
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	router.NewRouter(engine).
		Register(handler.NewSystemHandler(db, version)).
		Register(handler.NewSessionHandler(sessionSvc, workflowSvc)).
		Register(handler.NewExportHandler(exportSvc)).
		Register(handler.NewTemplateHandler(templateSvc)).
		Register(handler.NewBindHandler(bindSvc)).
		Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if cfg.Scheduler.Enabled {
		if err := trigger.Stop(shutdownCtx); err != nil {
			log.Warn("scheduler did not stop cleanly", zap.Error(err))
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("stopped")
	return nil
}
