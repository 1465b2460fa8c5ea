package container

import (
	"go.uber.org/zap"

	app "terrain-bot/internal/application"
	"terrain-bot/internal/domain/port"
)

type Container struct {
	SessionService *app.SessionService
	Logger         *zap.Logger
}

func New(sessionRepo port.SessionRepository, analyzer port.AnalysisService, previewer port.ImagePreviewer, logger *zap.Logger) *Container {
	sessionService := app.NewSessionService(sessionRepo, analyzer, previewer, logger)

	return &Container{
		SessionService: sessionService,
		Logger:         logger,
	}
}
