package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultPreviewMaxSide = 512

type Config struct {
	TelegramToken   string
	AnalysisBaseURL string        // адрес сервиса анализа, например http://localhost:8000
	AnalysisTimeout time.Duration // 0 означает без ограничения
	PreviewMaxSide  int
	LogMode         string // release или debug
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		AnalysisBaseURL: os.Getenv("ANALYSIS_BASE_URL"),
		PreviewMaxSide:  defaultPreviewMaxSide,
		LogMode:         getEnv("LOG_MODE", "debug"),
	}

	if raw := os.Getenv("ANALYSIS_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse ANALYSIS_TIMEOUT: %w", err)
		}
		cfg.AnalysisTimeout = timeout
	}

	if raw := os.Getenv("PREVIEW_MAX_SIDE"); raw != "" {
		side, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse PREVIEW_MAX_SIDE: %w", err)
		}
		cfg.PreviewMaxSide = side
	}

	return cfg, nil
}

// Validate проверяет обязательные параметры.
func (c *Config) Validate() error {
	var errs []error

	if c.TelegramToken == "" {
		errs = append(errs, errors.New("TELEGRAM_TOKEN is required"))
	}

	if c.AnalysisBaseURL == "" {
		errs = append(errs, errors.New("ANALYSIS_BASE_URL is required"))
	} else if u, err := url.Parse(c.AnalysisBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("ANALYSIS_BASE_URL must be an absolute URL, got %q", c.AnalysisBaseURL))
	}

	if c.AnalysisTimeout < 0 {
		errs = append(errs, errors.New("ANALYSIS_TIMEOUT must not be negative"))
	}

	if c.PreviewMaxSide <= 0 {
		errs = append(errs, errors.New("PREVIEW_MAX_SIDE must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
