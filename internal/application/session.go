package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"terrain-bot/internal/domain/entity"
	"terrain-bot/internal/domain/port"
)

// SessionService выдаёт каждому оператору в каждом чате единственный контроллер сессии.
type SessionService struct {
	repo      port.SessionRepository
	analyzer  port.AnalysisService
	previewer port.ImagePreviewer
	logger    *zap.Logger

	mu        sync.RWMutex
	observer  port.SessionObserver
	workflows map[entity.SessionKey]*Workflow
}

func NewSessionService(repo port.SessionRepository, analyzer port.AnalysisService, previewer port.ImagePreviewer, logger *zap.Logger) *SessionService {
	return &SessionService{
		repo:      repo,
		analyzer:  analyzer,
		previewer: previewer,
		logger:    logger.Named("workflow"),
		workflows: make(map[entity.SessionKey]*Workflow),
	}
}

// SetObserver подписывает наблюдателя на изменения всех сессий.
func (s *SessionService) SetObserver(observer port.SessionObserver) {
	s.mu.Lock()
	s.observer = observer
	s.mu.Unlock()
}

// Workflow возвращает контроллер сессии оператора в чате, создаёт его при первом обращении.
func (s *SessionService) Workflow(ctx context.Context, operatorID, chatID int64) (*Workflow, error) {
	key := entity.SessionKey{OperatorID: operatorID, ChatID: chatID}

	s.mu.RLock()
	w, ok := s.workflows[key]
	s.mu.RUnlock()
	if ok {
		return w, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if w, ok := s.workflows[key]; ok {
		return w, nil
	}

	session, err := s.repo.Get(ctx, operatorID, chatID)
	if err != nil {
		return nil, err
	}

	w = NewWorkflow(session, s.repo, s.analyzer, s.previewer, port.SessionObserverFunc(s.notify), s.logger)
	s.workflows[key] = w
	return w, nil
}

func (s *SessionService) notify(snapshot entity.Snapshot) {
	s.mu.RLock()
	observer := s.observer
	s.mu.RUnlock()

	if observer != nil {
		observer.OnSessionChange(snapshot)
	}
}
