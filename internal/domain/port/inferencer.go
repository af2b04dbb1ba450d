package port

import (
	"context"

	"inpainter/internal/domain/entity"
)

// Inferencer загруженная модель закрашивания с фиксированным тензорным контрактом
type Inferencer interface {
	// InputNames возвращает имена входов модели (изображение, маска)
	InputNames() []string

	// OutputNames возвращает имена выходов модели
	OutputNames() []string

	// Run выполняет модель и возвращает тензор выхода с именем output
	Run(ctx context.Context, feeds map[string]*entity.Tensor, output string) (*entity.Tensor, error)
}
