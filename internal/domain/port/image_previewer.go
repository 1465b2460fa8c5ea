package port

import (
	"context"

	"terrain-bot/internal/domain/entity"
)

// ImagePreviewer интерфейс декодера превью
type ImagePreviewer interface {
	// Preview декодирует снимок и возвращает его представление для показа (data URI)
	Preview(ctx context.Context, image entity.ImageFile) (string, error)
}
