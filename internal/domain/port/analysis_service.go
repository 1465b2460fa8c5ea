package port

import (
	"context"

	"terrain-bot/internal/domain/entity"
)

// AnalysisService интерфейс удалённого сервиса анализа снимков
type AnalysisService interface {
	// Predict отправляет снимок на анализ и возвращает результат сегментации.
	// Транспортная ошибка оборачивает entity.ErrServiceUnreachable,
	// ответ со статусом ошибки возвращается как *entity.ServerError.
	Predict(ctx context.Context, requestID string, image entity.ImageFile) (*entity.AnalysisResult, error)
}
