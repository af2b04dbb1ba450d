package inpaint

import (
	"errors"
	"fmt"
)

// Значения по умолчанию для параметров движка.
const (
	DefaultTileSize        = 512
	DefaultMinPadding      = 64
	DefaultPaddingFraction = 0.5
	DefaultOverlapFraction = 0.25
	DefaultFeatherRadius   = 3

	MinTileSize = 64
	MaxTileSize = 4096
)

// ErrInvalidOptions неверные параметры движка.
var ErrInvalidOptions = errors.New("invalid inpaint options")

// Options параметры конвейера закрашивания.
type Options struct {
	TileSize        int     // сторона тайла модели
	MinPadding      int     // минимальный отступ контекста вокруг маски, px
	PaddingFraction float64 // отступ как доля размера bbox
	OverlapFraction float64 // перекрытие тайлов как доля стороны
	FeatherRadius   int     // радиус растушёвки маски при наложении
}

// DefaultOptions возвращает параметры по умолчанию.
func DefaultOptions() Options {
	return Options{
		TileSize:        DefaultTileSize,
		MinPadding:      DefaultMinPadding,
		PaddingFraction: DefaultPaddingFraction,
		OverlapFraction: DefaultOverlapFraction,
		FeatherRadius:   DefaultFeatherRadius,
	}
}

// Validate проверяет параметры.
func (o Options) Validate() error {
	if o.TileSize < MinTileSize || o.TileSize > MaxTileSize || o.TileSize%8 != 0 {
		return fmt.Errorf("%w: tile size %d must be a multiple of 8 in [%d, %d]", ErrInvalidOptions, o.TileSize, MinTileSize, MaxTileSize)
	}
	if o.MinPadding < 0 {
		return fmt.Errorf("%w: min padding %d", ErrInvalidOptions, o.MinPadding)
	}
	if o.PaddingFraction < 0 {
		return fmt.Errorf("%w: padding fraction %.2f", ErrInvalidOptions, o.PaddingFraction)
	}
	if o.OverlapFraction <= 0 || o.OverlapFraction >= 0.5 {
		return fmt.Errorf("%w: overlap fraction %.2f must be in (0, 0.5)", ErrInvalidOptions, o.OverlapFraction)
	}
	if o.FeatherRadius < 0 {
		return fmt.Errorf("%w: feather radius %d", ErrInvalidOptions, o.FeatherRadius)
	}
	return nil
}
