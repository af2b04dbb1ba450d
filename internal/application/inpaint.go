package app

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"inpainter/internal/domain/entity"
	"inpainter/internal/domain/port"
	"inpainter/internal/inpaint"
)

// ErrQueueTimeout изображение не дождалось своей очереди.
var ErrQueueTimeout = errors.New("processing queue is full, try again later")

// Inpainter движок закрашивания.
type Inpainter interface {
	Inpaint(ctx context.Context, img *entity.Image, mask *entity.Mask, progress inpaint.ProgressFunc) (*entity.Image, error)
	Backend() string
	Settings() string
}

// MaskResizer приводит маску к размеру изображения.
type MaskResizer func(mask *entity.Mask, width, height int) *entity.Mask

// InpaintResult результат обработки одного изображения.
type InpaintResult struct {
	Image  *entity.Image
	Cached bool
	Cost   time.Duration
}

// InpaintService запускает движок по одному изображению за раз: модель и
// фоновый воркер общие для бота, HTTP и пакетной обработки.
type InpaintService struct {
	engine       Inpainter
	cache        port.ResultCache
	resize       MaskResizer
	semaphore    chan struct{}
	queueTimeout time.Duration
	logger       *zap.Logger
}

// NewInpaintService создаёт сервис. cache и resize могут быть nil.
func NewInpaintService(engine Inpainter, cache port.ResultCache, resize MaskResizer, queueTimeout time.Duration, logger *zap.Logger) *InpaintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InpaintService{
		engine:       engine,
		cache:        cache,
		resize:       resize,
		semaphore:    make(chan struct{}, 1),
		queueTimeout: queueTimeout,
		logger:       logger,
	}
}

// Backend возвращает имя активного способа синтеза.
func (s *InpaintService) Backend() string {
	return s.engine.Backend()
}

// Process закрашивает изображение по маске. Маска другого размера
// масштабируется методом ближайшего соседа.
func (s *InpaintService) Process(ctx context.Context, img *entity.Image, mask *entity.Mask, progress inpaint.ProgressFunc) (*InpaintResult, error) {
	if mask.Width != img.Width || mask.Height != img.Height {
		if s.resize == nil {
			return nil, fmt.Errorf("%w: image %dx%d, mask %dx%d", entity.ErrSizeMismatch, img.Width, img.Height, mask.Width, mask.Height)
		}
		mask = s.resize(mask, img.Width, img.Height)
	}
	if mask.FilledCount() == 0 {
		return nil, entity.ErrEmptyMask
	}

	key := s.cacheKey(img, mask)
	if cached := s.lookup(ctx, key); cached != nil {
		return &InpaintResult{Image: cached, Cached: true}, nil
	}

	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer func() { <-s.semaphore }()

	start := time.Now()
	out, err := s.engine.Inpaint(ctx, img, mask, progress)
	if err != nil {
		return nil, err
	}
	cost := time.Since(start)

	s.logger.Info("image inpainted",
		zap.String("backend", s.engine.Backend()),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Int("masked", mask.FilledCount()),
		zap.Duration("cost", cost))

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, out); err != nil {
			s.logger.Warn("failed to cache result", zap.String("key", key), zap.Error(err))
		}
	}
	return &InpaintResult{Image: out, Cost: cost}, nil
}

func (s *InpaintService) acquire(ctx context.Context) error {
	timer := time.NewTimer(s.queueTimeout)
	defer timer.Stop()

	select {
	case s.semaphore <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrQueueTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *InpaintService) lookup(ctx context.Context, key string) *entity.Image {
	if s.cache == nil {
		return nil
	}
	img, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("result cache unavailable", zap.Error(err))
		return nil
	}
	if img != nil {
		s.logger.Debug("result cache hit", zap.String("key", key))
	}
	return img
}

// cacheKey md5 от настроек движка, размеров и пикселей изображения и маски.
func (s *InpaintService) cacheKey(img *entity.Image, mask *entity.Mask) string {
	h := md5.New()
	h.Write([]byte(s.engine.Settings()))
	h.Write([]byte{0})

	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[:4], uint32(img.Width))
	binary.LittleEndian.PutUint32(dims[4:], uint32(img.Height))
	h.Write(dims[:])
	h.Write(img.Pix)
	h.Write(mask.Pix)
	return hex.EncodeToString(h.Sum(nil))
}
