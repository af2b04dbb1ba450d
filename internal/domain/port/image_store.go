package port

import (
	"context"

	"inpainter/internal/domain/entity"
)

// ImageSource источник изображений для пакетной обработки
type ImageSource interface {
	// List возвращает имена изображений в порядке обработки
	List(ctx context.Context) ([]string, error)

	// Load читает изображение по имени
	Load(ctx context.Context, name string) (*entity.Image, error)
}

// ImageSink приёмник результатов пакетной обработки
type ImageSink interface {
	// Exists сообщает, есть ли уже результат с таким именем
	Exists(ctx context.Context, name string) bool

	// Save записывает результат
	Save(ctx context.Context, name string, img *entity.Image) error
}
