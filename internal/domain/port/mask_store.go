package port

import (
	"context"

	"inpainter/internal/domain/entity"
)

// MaskTemplateStore хранилище масок-шаблонов пользователей
type MaskTemplateStore interface {
	// Get возвращает шаблон пользователя или nil, если его нет
	Get(ctx context.Context, userID int64) (*entity.Mask, error)

	// Save сохраняет шаблон пользователя
	Save(ctx context.Context, userID int64, mask *entity.Mask) error

	// Delete удаляет шаблон пользователя
	Delete(ctx context.Context, userID int64) error
}
