package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"inpainter/internal/domain/entity"
	"inpainter/internal/domain/port"
)

// BatchProgress вызывается после каждого изображения пакета.
type BatchProgress func(done, total int, outcome entity.ImageOutcome)

// BatchService закрашивает набор изображений одной маской.
type BatchService struct {
	inpaint *InpaintService
	logger  *zap.Logger
}

func NewBatchService(inpaint *InpaintService, logger *zap.Logger) *BatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{inpaint: inpaint, logger: logger}
}

// Run обрабатывает изображения по очереди. Ошибка одного изображения не
// прерывает пакет. Отмена ctx проверяется между изображениями, текущее
// изображение при этом дорабатывается.
func (s *BatchService) Run(ctx context.Context, src port.ImageSource, sink port.ImageSink, mask *entity.Mask, progress BatchProgress) (*entity.BatchReport, error) {
	if mask.FilledCount() == 0 {
		return nil, entity.ErrEmptyMask
	}

	names, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	report := &entity.BatchReport{Total: len(names)}
	s.logger.Info("batch started", zap.Int("images", len(names)), zap.String("backend", s.inpaint.Backend()))

	for i, name := range names {
		if ctx.Err() != nil {
			report.Cancelled = true
			s.logger.Warn("batch cancelled", zap.Int("done", i), zap.Int("total", len(names)))
			break
		}

		outcome := s.processOne(context.WithoutCancel(ctx), src, sink, name, mask)
		report.Add(outcome)
		if progress != nil {
			progress(i+1, len(names), outcome)
		}
	}

	s.logger.Info("batch finished",
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Bool("cancelled", report.Cancelled))
	return report, nil
}

func (s *BatchService) processOne(ctx context.Context, src port.ImageSource, sink port.ImageSink, name string, mask *entity.Mask) entity.ImageOutcome {
	if sink.Exists(ctx, name) {
		s.logger.Debug("result exists, skipping", zap.String("image", name))
		return entity.ImageOutcome{Name: name, Status: entity.StatusSkipped}
	}

	fail := func(err error) entity.ImageOutcome {
		s.logger.Error("failed to inpaint image", zap.String("image", name), zap.Error(err))
		return entity.ImageOutcome{Name: name, Status: entity.StatusFailed, Err: err}
	}

	img, err := src.Load(ctx, name)
	if err != nil {
		return fail(err)
	}
	res, err := s.inpaint.Process(ctx, img, mask, nil)
	if err != nil {
		return fail(err)
	}
	if err := sink.Save(ctx, name, res.Image); err != nil {
		return fail(err)
	}

	s.logger.Info("image saved", zap.String("image", name), zap.Duration("cost", res.Cost))
	return entity.ImageOutcome{Name: name, Status: entity.StatusProcessed}
}
