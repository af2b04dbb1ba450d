package inpaint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"inpainter/internal/domain/entity"
	"inpainter/internal/domain/port"
)

// ErrNoBackend не настроены ни модель, ни локальный синтез.
var ErrNoBackend = errors.New("neither inference model nor fallback synthesizer is configured")

// ProgressFunc получает долю выполненной работы в диапазоне [0, 1].
type ProgressFunc func(fraction float64)

// Synthesizer локальный синтез по всей рабочей области, используется без модели.
type Synthesizer interface {
	Synthesize(ctx context.Context, img *entity.Image, mask *entity.Mask, progress func(float64)) (*entity.Image, error)
}

// Engine конвейер закрашивания: маска → область → тайлы → наложение.
type Engine struct {
	opts     Options
	adapter  *Adapter
	fallback Synthesizer
	logger   *zap.Logger
}

// NewEngine собирает движок. Если model == nil, используется fallback.
func NewEngine(model port.Inferencer, fallback Synthesizer, opts Options, logger *zap.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if model == nil && fallback == nil {
		return nil, ErrNoBackend
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{opts: opts, fallback: fallback, logger: logger}
	if model != nil {
		adapter, err := NewAdapter(model, opts.TileSize)
		if err != nil {
			return nil, err
		}
		e.adapter = adapter
	}
	return e, nil
}

// Settings описывает всё, от чего зависит результат: способ синтеза,
// параметры движка и, если есть, параметры локального синтеза.
func (e *Engine) Settings() string {
	s := fmt.Sprintf("backend=%s tile=%d pad=%d/%g overlap=%g feather=%d",
		e.Backend(), e.opts.TileSize, e.opts.MinPadding, e.opts.PaddingFraction,
		e.opts.OverlapFraction, e.opts.FeatherRadius)
	if e.adapter == nil {
		if d, ok := e.fallback.(fmt.Stringer); ok {
			s += " " + d.String()
		}
	}
	return s
}

// Backend возвращает имя активного способа синтеза.
func (e *Engine) Backend() string {
	if e.adapter != nil {
		return "onnx"
	}
	return "fallback"
}

// Inpaint закрашивает помеченную маской область и возвращает новое изображение.
// Исходные буферы не изменяются.
func (e *Engine) Inpaint(ctx context.Context, img *entity.Image, mask *entity.Mask, progress ProgressFunc) (*entity.Image, error) {
	if progress == nil {
		progress = func(float64) {}
	}
	if img.Width != mask.Width || img.Height != mask.Height {
		return nil, fmt.Errorf("%w: image %dx%d, mask %dx%d", entity.ErrSizeMismatch, img.Width, img.Height, mask.Width, mask.Height)
	}

	bbox, err := AnalyzeMask(mask)
	if err != nil {
		return nil, err
	}

	region, err := ExtractRegion(img, mask, bbox, e.opts.MinPadding, e.opts.PaddingFraction)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	e.logger.Debug("region extracted",
		zap.String("backend", e.Backend()),
		zap.Int("bbox_w", bbox.Width()),
		zap.Int("bbox_h", bbox.Height()),
		zap.Int("bbox_area", bbox.Area()),
		zap.Int("region_w", region.Width()),
		zap.Int("region_h", region.Height()))

	var synth *entity.Image
	if e.adapter != nil {
		synth, err = e.inferRegion(ctx, region, progress)
	} else {
		synth, err = e.fallback.Synthesize(ctx, region.Image.Clone(), region.Mask.Clone(), progress)
		if err != nil {
			var invErr *entity.InferenceInvocationError
			if !errors.As(err, &invErr) {
				err = &entity.InferenceInvocationError{Backend: "fallback", Err: err}
			}
		}
	}
	if err != nil {
		return nil, err
	}

	blended := Composite(region.Image, synth, region.Mask, e.opts.FeatherRadius)
	out := img.Clone()
	out.Paste(blended, region.Bounds.X1, region.Bounds.Y1)

	e.logger.Debug("region synthesized",
		zap.String("backend", e.Backend()),
		zap.Duration("cost", time.Since(start)))
	progress(1)
	return out, nil
}

// inferRegion прогоняет область через модель одним тайлом или сеткой с перекрытием.
func (e *Engine) inferRegion(ctx context.Context, region *Region, progress ProgressFunc) (*entity.Image, error) {
	t := e.adapter.TileSize()
	plan := PlanTiles(region.Width(), region.Height(), t, e.opts.OverlapFraction)

	if plan.Single {
		tileImg, tileMask := padTile(region, plan.Tiles[0], t)
		out, err := e.adapter.Infer(ctx, tileImg, tileMask)
		if err != nil {
			return nil, err
		}
		progress(1)
		return out.Crop(0, 0, region.Width(), region.Height()), nil
	}

	e.logger.Debug("multi-tile inference",
		zap.Int("tiles_x", plan.TilesX),
		zap.Int("tiles_y", plan.TilesY),
		zap.Int("overlap", plan.Overlap))

	weights := NewWeightMap(t, plan.Overlap)
	acc := NewAccumulator(region.Width(), region.Height())
	for i, tile := range plan.Tiles {
		tileImg, tileMask := padTile(region, tile, t)
		result := tileImg
		if tile.HasMask(region.Mask) {
			out, err := e.adapter.Infer(ctx, tileImg, tileMask)
			if err != nil {
				return nil, fmt.Errorf("tile %d/%d: %w", i+1, len(plan.Tiles), err)
			}
			result = out
		}
		acc.Add(tile, result, weights)
		progress(float64(i+1) / float64(len(plan.Tiles)))
	}
	return acc.Resolve(region.Image), nil
}
