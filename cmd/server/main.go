package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mealreel/mealreel/internal/api"
	"github.com/mealreel/mealreel/internal/api/handler"
	"github.com/mealreel/mealreel/internal/config"
	"github.com/mealreel/mealreel/internal/domain"
	"github.com/mealreel/mealreel/internal/downloader"
	"github.com/mealreel/mealreel/internal/repository"
	"github.com/mealreel/mealreel/internal/service"
	"github.com/mealreel/mealreel/internal/storage"
	"github.com/mealreel/mealreel/pkg/ffmpeg"
	"github.com/mealreel/mealreel/pkg/gemini"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mealreel %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting mealreel",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Ensure storage directories exist
	paths := storage.NewPaths(cfg.Storage.DataDir, logger)
	if err := paths.EnsureDirs(); err != nil {
		logger.Error("failed to create storage directories", "error", err)
		os.Exit(1)
	}

	// Open database
	db, err := repository.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	recipeRepo := repository.NewRecipeRepository(db)

	// Video tooling
	processor, err := ffmpeg.NewVideoProcessor()
	if err != nil {
		logger.Error("ffmpeg not available", "error", err)
		os.Exit(1)
	}

	runner := downloader.NewYtDlpRunner(cfg.Download.YtDlpPath, cfg.Download.Timeout, cfg.Download.UserAgent)
	acquirer := downloader.NewAcquirer(
		map[domain.Platform]downloader.Provider{
			domain.PlatformTikTok:    downloader.NewTikTokProvider(runner),
			domain.PlatformInstagram: downloader.NewInstagramProvider(runner),
		},
		paths,
		processor,
		logger,
	)

	// Analysis client
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	analyzer, err := gemini.NewClient(ctx, cfg.Analysis, logger)
	if err != nil {
		logger.Error("failed to create analysis client", "error", err)
		os.Exit(1)
	}

	// Services
	extractSvc := service.NewExtractService(recipeRepo, acquirer, analyzer, processor, paths, cfg.Analysis, logger)
	exportSvc := service.NewExportService(recipeRepo, paths, logger)

	// Handlers and router
	recipeHandler := handler.NewRecipeHandler(extractSvc, exportSvc, paths, logger)
	healthHandler := handler.NewHealthHandler(recipeRepo)

	router := api.NewRouter(recipeHandler, healthHandler, paths, cfg.Server.MaxExtractions)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
