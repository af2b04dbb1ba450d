package fallback

import (
	"errors"
	"fmt"
)

// Значения по умолчанию для локального синтеза.
const (
	DefaultPatchSize     = 5
	DefaultIterations    = 3
	DefaultMaxCandidates = 50
	DefaultMaxSide       = 800
)

// ErrInvalidParams неверные параметры синтеза.
var ErrInvalidParams = errors.New("invalid fallback params")

// Params параметры двухэтапного синтеза.
type Params struct {
	PatchSize     int   // сторона сравниваемого патча, нечётная
	Iterations    int   // число проходов уточнения текстуры
	MaxCandidates int   // сколько известных патчей сравнивать на пиксель
	Shuffle       bool  // перемешивать порядок обхода пикселей
	Seed          int64 // зерно перемешивания, 0 значит от текущего времени
}

// DefaultParams возвращает параметры по умолчанию.
func DefaultParams() Params {
	return Params{
		PatchSize:     DefaultPatchSize,
		Iterations:    DefaultIterations,
		MaxCandidates: DefaultMaxCandidates,
		Shuffle:       true,
	}
}

func (p Params) String() string {
	return fmt.Sprintf("patch=%d iterations=%d candidates=%d shuffle=%t seed=%d",
		p.PatchSize, p.Iterations, p.MaxCandidates, p.Shuffle, p.Seed)
}

// Validate проверяет параметры.
func (p Params) Validate() error {
	if p.PatchSize < 1 || p.PatchSize%2 == 0 {
		return fmt.Errorf("%w: patch size %d must be odd and positive", ErrInvalidParams, p.PatchSize)
	}
	if p.Iterations < 0 {
		return fmt.Errorf("%w: iterations %d", ErrInvalidParams, p.Iterations)
	}
	if p.MaxCandidates < 1 {
		return fmt.Errorf("%w: max candidates %d", ErrInvalidParams, p.MaxCandidates)
	}
	return nil
}
