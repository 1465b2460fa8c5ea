package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"terrain-bot/config"
	telegram "terrain-bot/internal/api"
	"terrain-bot/internal/container"
	"terrain-bot/internal/infrastructure/analysisclient"
	"terrain-bot/internal/infrastructure/storage"
	"terrain-bot/internal/infrastructure/vision"
	"terrain-bot/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	// Клиент сервиса анализа и декодер превью
	analyzer := analysisclient.New(cfg.AnalysisBaseURL, cfg.AnalysisTimeout, logger)
	previewer := vision.NewPreviewer(cfg.PreviewMaxSide)

	// Собираем сервисы приложения
	appContainer := container.New(storage.NewMemorySessionRepository(), analyzer, previewer, logger)

	// Создаём бота
	bot, err := telegram.NewBot(cfg.TelegramToken, appContainer)
	if err != nil {
		logger.Fatal("failed to create bot", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("bot is running", zap.String("analysis_url", cfg.AnalysisBaseURL))
	if err := bot.Run(ctx); err != nil {
		logger.Error("bot stopped with error", zap.Error(err))
		return
	}
	logger.Info("bot stopped")
}
