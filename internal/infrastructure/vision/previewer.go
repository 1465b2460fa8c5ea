package vision

import (
	"context"
	"errors"
	"fmt"

	"terrain-bot/internal/domain/entity"
	"terrain-bot/internal/domain/port"
)

const (
	DefaultPreviewMaxSide = 512
	defaultJPEGQuality    = 85
	previewMediaType      = "image/jpeg"
)

// Previewer декодирует снимок, уменьшает его и отдаёт JPEG в виде data URI.
type Previewer struct {
	MaxSide int // максимальная сторона превью в пикселях
	Quality int // качество JPEG
}

// NewPreviewer создаёт декодер превью. maxSide <= 0 заменяется значением по умолчанию.
func NewPreviewer(maxSide int) *Previewer {
	if maxSide <= 0 {
		maxSide = DefaultPreviewMaxSide
	}
	return &Previewer{
		MaxSide: maxSide,
		Quality: defaultJPEGQuality,
	}
}

// Preview строит превью снимка.
func (p *Previewer) Preview(ctx context.Context, image entity.ImageFile) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if image.Empty() {
		return "", errors.New("empty image")
	}

	data, err := p.render(image.Data)
	if err != nil {
		return "", fmt.Errorf("preview %s: %w", image.Name, err)
	}

	return EncodeDataURI(previewMediaType, data), nil
}

// fitWithin вписывает размеры в квадрат maxSide, сохраняя пропорции.
func fitWithin(width, height, maxSide int) (int, int) {
	if maxSide <= 0 || (width <= maxSide && height <= maxSide) {
		return width, height
	}

	scale := float64(maxSide) / float64(maxInt(width, height))
	w := maxInt(1, int(float64(width)*scale))
	h := maxInt(1, int(float64(height)*scale))
	return w, h
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Проверка реализации интерфейса
var _ port.ImagePreviewer = (*Previewer)(nil)
