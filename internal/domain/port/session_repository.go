package port

import (
	"context"

	"terrain-bot/internal/domain/entity"
)

// SessionRepository интерфейс хранилища сессий анализа
type SessionRepository interface {
	// Get возвращает сессию оператора в чате, создаёт пустую если не найдена
	Get(ctx context.Context, operatorID, chatID int64) (*entity.Session, error)

	// Save сохраняет сессию
	Save(ctx context.Context, session *entity.Session) error
}
