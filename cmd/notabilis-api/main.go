package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/notabilis-api/api/swagger"
	"github.com/noah-isme/notabilis-api/internal/handler"
	"github.com/noah-isme/notabilis-api/internal/middleware"
	"github.com/noah-isme/notabilis-api/internal/repository"
	"github.com/noah-isme/notabilis-api/internal/service"
	"github.com/noah-isme/notabilis-api/pkg/cache"
	"github.com/noah-isme/notabilis-api/pkg/config"
	"github.com/noah-isme/notabilis-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/notabilis-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/notabilis-api/pkg/middleware/requestid"
	"github.com/noah-isme/notabilis-api/pkg/storage"
)

// @title Notabilis API
// @version 1.0.0
// @description Grade file analysis: averages, ranks, chart and PDF report
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	checks := map[string]handler.ReadinessCheck{}
	var cacheSvc *service.CacheService
	if cfg.Analysis.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("redis unavailable", zap.Error(err))
		}
		repo := repository.NewCacheRepository(client, "notabilis")
		defer repo.Close() //nolint:errcheck
		cacheSvc = service.NewCacheService(repo, metricsSvc, cfg.Analysis.CacheTTL, logr, true)
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	analysisSvc := service.NewAnalysisService(service.AnalysisConfig{
		MaxFileSize: cfg.Upload.MaxFileSizeBytes,
		Keywords: service.ColumnKeywords{
			Name:        cfg.Columns.NameKeywords,
			Quiz:        cfg.Columns.QuizKeywords,
			Homework:    cfg.Columns.HomeworkKeywords,
			Coefficient: cfg.Columns.CoefficientKeywords,
		},
		Report:   service.ReportOptions{ChartTitle: cfg.Report.ChartTitle, ChartColor: cfg.Report.ChartColor},
		CacheTTL: cfg.Analysis.CacheTTL,
		Scores:   service.ScoreParsing{DecimalComma: cfg.Analysis.DecimalComma},
	}, cacheSvc, metricsSvc, validator.New(), logr)

	exportCfg := service.ExportConfig{
		APIPrefix:   cfg.APIPrefix,
		Title:       cfg.Report.Title,
		PDFFilename: cfg.Report.Filename,
		ResultTTL:   cfg.Reports.SignedURLTTL,
	}
	var exportSvc *service.ExportService
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("report storage unavailable", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc = service.NewExportService(exportCfg, store, signer, metricsSvc, logr, nil, nil, nil)
		go exportSvc.RunCleanup(ctx, cfg.Reports.CleanupInterval)
	} else {
		exportSvc = service.NewExportService(exportCfg, nil, nil, metricsSvc, logr, nil, nil, nil)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.Upload.MaxFileSizeBytes
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	handler.RegisterRoutes(r, handler.Handlers{
		Web:      handler.NewWebHandler(analysisSvc, exportSvc),
		Analysis: handler.NewAnalysisHandler(analysisSvc, exportSvc),
		Metrics:  handler.NewMetricsHandler(metricsSvc, checks),
	}, handler.RouteOptions{
		APIPrefix:      cfg.APIPrefix,
		MetricsEnabled: cfg.Metrics.Enabled,
		StorageEnabled: exportSvc.StorageEnabled(),
		CacheEnabled:   cacheSvc.Enabled(),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
