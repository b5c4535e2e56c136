package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/treadstock/internal/config"
	"github.com/mamadbah2/treadstock/internal/repository/mongodb"
	"github.com/mamadbah2/treadstock/internal/repository/sheets"
	"github.com/mamadbah2/treadstock/internal/repository/sqlite"
	"github.com/mamadbah2/treadstock/internal/scheduler"
	"github.com/mamadbah2/treadstock/internal/server/handlers"
	"github.com/mamadbah2/treadstock/internal/server/router"
	inventorysvc "github.com/mamadbah2/treadstock/internal/service/inventory"
	reportingsvc "github.com/mamadbah2/treadstock/internal/service/reporting"
	"github.com/mamadbah2/treadstock/internal/service/staging"
	whatsappsvc "github.com/mamadbah2/treadstock/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/treadstock/pkg/clients/whatsapp"
	"github.com/mamadbah2/treadstock/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(ctx, cfg.Database.Path)
	if err != nil {
		baseLogger.Fatal("failed to open database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	inventorySvc := inventorysvc.NewService(
		sqlite.NewItemRepository(db),
		sqlite.NewAuditRepository(db),
		sqlite.NewTxManager(db),
		logger.Named(baseLogger, "svc.inventory"),
	)
	reportingSvc := reportingsvc.NewService(inventorySvc, cfg.Inventory.LowStockThreshold, logger.Named(baseLogger, "svc.reporting"))
	stager := staging.NewStore(cfg.Inventory.StagingTTL, logger.Named(baseLogger, "svc.staging"))

	deps := scheduler.Deps{Inventory: inventorySvc, Snapshots: reportingSvc}
	importOpts := handlers.ImportOptions{
		ImportRange:    cfg.Sheets.ImportRange,
		LocalFile:      cfg.Inventory.LocalImportFile,
		MaxUploadBytes: cfg.Server.MaxUploadMiB << 20,
	}

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		importOpts.Sheets = sheetsRepo
		deps.Mirror = sheetsRepo
		baseLogger.Info("google sheets import and mirror enabled")
	} else {
		baseLogger.Warn("google sheets credentials missing, sheet import and mirror disabled")
	}

	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		deps.Archive = mongoRepo
		baseLogger.Info("mongodb snapshot archive enabled")
	}

	var alertSvc whatsappsvc.AlertService
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, reportingSvc, logger.Named(baseLogger, "svc.whatsapp"))
		alertSvc = messagingSvc
		deps.Alerter = messagingSvc
		baseLogger.Info("whatsapp low-stock alerts enabled")
	}

	engine, err := router.New(router.Handlers{
		Inventory: handlers.NewInventoryHandler(inventorySvc, reportingSvc, cfg.Sheets.Enabled(), logger.Named(baseLogger, "handlers.inventory")),
		Imports:   handlers.NewImportHandler(inventorySvc, stager, importOpts, logger.Named(baseLogger, "handlers.imports")),
		Exports:   handlers.NewExportHandler(inventorySvc, logger.Named(baseLogger, "handlers.exports")),
		Alerts:    handlers.NewAlertHandler(alertSvc, logger.Named(baseLogger, "handlers.alerts")),
	}, importOpts.MaxUploadBytes, logger.Named(baseLogger, "router"))
	if err != nil {
		baseLogger.Fatal("failed to build router", zap.Error(err))
	}

	sched := scheduler.NewScheduler(*cfg, deps, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
