package port

import (
	"context"

	"inpainter/internal/domain/entity"
)

// ResultCache кэш готовых результатов по ключу входных данных
type ResultCache interface {
	// Get возвращает результат или nil при промахе
	Get(ctx context.Context, key string) (*entity.Image, error)

	// Set сохраняет результат
	Set(ctx context.Context, key string, img *entity.Image) error
}
