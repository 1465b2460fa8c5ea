package storage

import (
	"context"
	"errors"
	"sync"

	"terrain-bot/internal/domain/entity"
	"terrain-bot/internal/domain/port"
)

// MemorySessionRepository in-memory хранилище сессий анализа.
// Сессии живут до перезапуска бота, прошлые анализы не сохраняются.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[entity.SessionKey]*entity.Session
}

// NewMemorySessionRepository создаёт новое in-memory хранилище
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[entity.SessionKey]*entity.Session),
	}
}

// Get возвращает сессию оператора в чате, создаёт пустую если не найдена
func (r *MemorySessionRepository) Get(ctx context.Context, operatorID, chatID int64) (*entity.Session, error) {
	key := entity.SessionKey{OperatorID: operatorID, ChatID: chatID}

	r.mu.RLock()
	session, exists := r.sessions[key]
	r.mu.RUnlock()

	if exists {
		return session, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Могли создать, пока ждали блокировку
	if session, exists := r.sessions[key]; exists {
		return session, nil
	}

	session = entity.NewSession(operatorID, chatID)
	r.sessions[key] = session

	return session, nil
}

// Save сохраняет сессию
func (r *MemorySessionRepository) Save(ctx context.Context, session *entity.Session) error {
	if session == nil {
		return errors.New("nil session")
	}

	r.mu.Lock()
	r.sessions[session.Key()] = session
	r.mu.Unlock()

	return nil
}

// Проверка реализации интерфейса
var _ port.SessionRepository = (*MemorySessionRepository)(nil)
