package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vbonduro/mealledger/internal/config"
	"github.com/vbonduro/mealledger/internal/db"
	"github.com/vbonduro/mealledger/internal/imagestore"
	"github.com/vbonduro/mealledger/internal/imagestore/local"
	"github.com/vbonduro/mealledger/internal/imagestore/s3store"
	"github.com/vbonduro/mealledger/internal/logging"
	"github.com/vbonduro/mealledger/internal/service"
	"github.com/vbonduro/mealledger/internal/store"
	"github.com/vbonduro/mealledger/internal/vision"
	claudevision "github.com/vbonduro/mealledger/internal/vision/claude"
	ollamavision "github.com/vbonduro/mealledger/internal/vision/ollama"
	"github.com/vbonduro/mealledger/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	userStore := store.NewUserStore(database)
	ledgerStore := store.NewLedgerStore(database)
	historyStore := store.NewHistoryStore(database)

	images, err := newImageStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize image store", "error", err)
		return
	}

	users := service.NewUserService(userStore, logger)
	ledgers := service.NewLedgerService(ledgerStore, userStore, loc, logger)
	history := service.NewHistoryService(historyStore, userStore, images, ledgers, logger)
	analysis := service.NewAnalysisService(newRecognizer(cfg, logger), userStore, cfg.AnalyzeRatePerMin, cfg.AnalyzeBurst, logger)

	server := web.NewServer(users, ledgers, history, analysis, logger)
	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

func newRecognizer(cfg *config.Config, logger *slog.Logger) vision.Recognizer {
	switch cfg.VisionBackend {
	case "claude":
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeRecognizer(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	default:
		logger.Info("using Ollama vision backend", "model", cfg.OllamaModel)
		return ollamavision.NewOllamaRecognizer(cfg.OllamaHost, cfg.OllamaModel)
	}
}

func newImageStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (imagestore.ImageStore, error) {
	switch cfg.PhotoBackend {
	case "s3":
		logger.Info("using S3 image store", "bucket", cfg.S3Bucket)
		return s3store.NewS3ImageStore(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint)
	default:
		logger.Info("using local image store", "path", cfg.PhotoPath)
		return local.NewLocalImageStore(cfg.PhotoPath)
	}
}
