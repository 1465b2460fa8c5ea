package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNoImage анализ запрошен до выбора снимка.
	ErrNoImage = errors.New("no image selected")

	// ErrAnalysisInProgress предыдущий запрос анализа ещё не завершён.
	ErrAnalysisInProgress = errors.New("analysis already in progress")

	// ErrServiceUnreachable сервис анализа недоступен на транспортном уровне.
	ErrServiceUnreachable = errors.New("analysis service is unreachable")
)

// ServerError сервис ответил статусом ошибки.
type ServerError struct {
	StatusCode int
	Detail     string // поле detail из тела ответа, может быть пустым
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("analysis service returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("analysis service returned %d", e.StatusCode)
}
