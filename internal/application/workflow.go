package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"terrain-bot/internal/domain/entity"
	"terrain-bot/internal/domain/port"
	"terrain-bot/internal/logging"
)

const (
	MsgServiceUnreachable = "Не удаётся подключиться к серверу анализа. Проверьте, что бэкенд запущен."
	MsgUnknownServerError = "Произошла неизвестная ошибка на сервере анализа."
)

// Workflow управляет одной сессией анализа: выбор снимка, запуск анализа, сброс.
// Все переходы состояния сериализуются мьютексом, наблюдатель вызывается вне блокировки.
type Workflow struct {
	mu        sync.Mutex
	session   *entity.Session
	repo      port.SessionRepository
	analyzer  port.AnalysisService
	previewer port.ImagePreviewer
	observer  port.SessionObserver
	logger    *zap.Logger
}

// NewWorkflow создаёт контроллер для сессии. previewer и observer могут быть nil.
func NewWorkflow(
	session *entity.Session,
	repo port.SessionRepository,
	analyzer port.AnalysisService,
	previewer port.ImagePreviewer,
	observer port.SessionObserver,
	logger *zap.Logger,
) *Workflow {
	return &Workflow{
		session:   session,
		repo:      repo,
		analyzer:  analyzer,
		previewer: previewer,
		observer:  observer,
		logger: logger.With(
			zap.Int64("operator_id", session.OperatorID),
			zap.Int64("chat_id", session.ChatID)),
	}
}

// Snapshot возвращает текущее состояние сессии.
func (w *Workflow) Snapshot() entity.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.Snapshot()
}

// SelectImage принимает новый снимок. Результат и ошибка сбрасываются сразу,
// превью декодируется асинхронно. Пустой файл игнорируется.
func (w *Workflow) SelectImage(ctx context.Context, image entity.ImageFile) entity.Snapshot {
	if image.Empty() {
		return w.Snapshot()
	}

	var generation uint64
	snap, _ := w.transition(ctx, func(s *entity.Session) bool {
		generation = s.Load(image)
		return true
	})

	w.logger.Debug("image selected",
		zap.String("name", image.Name),
		zap.String("content_type", image.ContentType),
		zap.Int("size", image.Size()),
		zap.Uint64("generation", generation))

	if w.previewer != nil {
		go w.decodePreview(context.WithoutCancel(ctx), generation, image)
	}
	return snap
}

// Analyze запускает анализ выбранного снимка. Состояние StateAnalyzing
// выставляется до возврата; итоговый снимок сессии приходит в канал один раз,
// после чего канал закрывается. Если сессию сбросили или выбрали другой снимок,
// канал закрывается без значения.
//
// Без снимка возвращает entity.ErrNoImage, во время анализа entity.ErrAnalysisInProgress.
// В обоих случаях состояние не меняется.
func (w *Workflow) Analyze(ctx context.Context) (<-chan entity.Snapshot, error) {
	var (
		generation uint64
		image      entity.ImageFile
		err        error
	)
	w.transition(ctx, func(s *entity.Session) bool {
		generation, image, err = s.BeginAnalysis()
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	done := make(chan entity.Snapshot, 1)
	go w.runAnalysis(context.WithoutCancel(ctx), uuid.NewString(), generation, image, done)
	return done, nil
}

// Reset очищает сессию. Незавершённые операции не отменяются, их итог будет отброшен.
func (w *Workflow) Reset(ctx context.Context) entity.Snapshot {
	snap, _ := w.transition(ctx, func(s *entity.Session) bool {
		s.Reset()
		return true
	})
	return snap
}

func (w *Workflow) runAnalysis(ctx context.Context, requestID string, generation uint64, image entity.ImageFile, done chan<- entity.Snapshot) {
	log := logging.WithOperation(w.logger, "workflow.analyze", requestID)
	started := time.Now()

	var (
		result *entity.AnalysisResult
		err    error
	)

	// Единственная точка выхода из StateAnalyzing для этого запроса.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panicked: %v", r)
		}

		snap, applied := w.transition(ctx, func(s *entity.Session) bool {
			if err != nil {
				return s.Fail(generation, FailureMessage(err))
			}
			return s.Succeed(generation, result)
		})

		switch {
		case !applied:
			log.Info("discarding stale analysis outcome", zap.Uint64("generation", generation))
		case err != nil:
			log.Warn("analysis failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
			done <- snap
		default:
			log.Info("analysis completed",
				zap.String("status", result.Viability.Status.String()),
				zap.Duration("elapsed", time.Since(started)))
			done <- snap
		}
		close(done)
	}()

	log.Debug("sending image to analysis service", zap.String("name", image.Name), zap.Int("size", image.Size()))
	result, err = w.analyzer.Predict(ctx, requestID, image)
	if err == nil && result == nil {
		err = errors.New("analysis service returned no result")
	}
}

func (w *Workflow) decodePreview(ctx context.Context, generation uint64, image entity.ImageFile) {
	uri, err := w.previewer.Preview(ctx, image)
	if err != nil {
		w.logger.Warn("preview decode failed", zap.Error(err), zap.String("name", image.Name))
		return
	}

	if _, applied := w.transition(ctx, func(s *entity.Session) bool {
		return s.AttachPreview(generation, uri)
	}); !applied {
		w.logger.Debug("discarding stale preview", zap.Uint64("generation", generation))
	}
}

// transition применяет fn под блокировкой, сохраняет сессию и уведомляет наблюдателя,
// если fn сообщила об изменении.
func (w *Workflow) transition(ctx context.Context, fn func(s *entity.Session) bool) (entity.Snapshot, bool) {
	w.mu.Lock()
	changed := fn(w.session)
	snap := w.session.Snapshot()
	if changed {
		if err := w.repo.Save(ctx, w.session); err != nil {
			w.logger.Warn("failed to save session", zap.Error(err))
		}
	}
	w.mu.Unlock()

	if changed && w.observer != nil {
		w.observer.OnSessionChange(snap)
	}
	return snap, changed
}

// FailureMessage переводит ошибку анализа в сообщение для оператора.
func FailureMessage(err error) string {
	if errors.Is(err, entity.ErrServiceUnreachable) {
		return MsgServiceUnreachable
	}

	var serverErr *entity.ServerError
	if errors.As(err, &serverErr) && serverErr.Detail != "" {
		return serverErr.Detail
	}

	return MsgUnknownServerError
}
