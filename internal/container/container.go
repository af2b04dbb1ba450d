package container

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"inpainter/config"
	app "inpainter/internal/application"
	"inpainter/internal/domain/port"
	"inpainter/internal/infrastructure/imageio"
	"inpainter/internal/infrastructure/storage"
	"inpainter/internal/infrastructure/vision"
	"inpainter/internal/inpaint"
	"inpainter/internal/inpaint/fallback"
)

type Container struct {
	UserService    *app.UserService
	MaskService    *app.MaskService
	InpaintService *app.InpaintService
	BatchService   *app.BatchService
}

// New собирает сервисы приложения поверх готовых адаптеров. cache может быть nil.
func New(userRepo port.UserRepository, masks port.MaskTemplateStore, engine app.Inpainter, cache port.ResultCache, queueTimeout time.Duration, logger *zap.Logger) *Container {
	userService := app.NewUserService(userRepo)
	maskService := app.NewMaskService(userService, masks)
	inpaintService := app.NewInpaintService(engine, cache, imageio.ResizeMask, queueTimeout, logger)
	batchService := app.NewBatchService(inpaintService, logger)

	return &Container{
		UserService:    userService,
		MaskService:    maskService,
		InpaintService: inpaintService,
		BatchService:   batchService,
	}
}

// Build создаёт адаптеры по конфигурации и собирает контейнер. Возвращаемая
// функция освобождает модель, воркер и соединение с Redis.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var model port.Inferencer
	if cfg.Inference.ModelPath != "" {
		onnx, err := vision.NewONNXInferencer(cfg.Inference.ModelPath, cfg.Inference.InputNames, cfg.Inference.OutputNames)
		if err != nil {
			logger.Warn("failed to load model, using local synthesis",
				zap.String("model", cfg.Inference.ModelPath), zap.Error(err))
		} else {
			model = onnx
			closers = append(closers, func() { _ = onnx.Close() })
			logger.Info("model loaded",
				zap.String("model", cfg.Inference.ModelPath),
				zap.Int("tile_size", cfg.Inference.TileSize))
		}
	}

	var synth inpaint.Synthesizer
	if model == nil {
		workerCtx, cancel := context.WithCancel(ctx)
		worker := fallback.NewWorker(cfg.FallbackParams())
		worker.Start(workerCtx)
		closers = append(closers, func() {
			worker.Stop()
			cancel()
		})
		synth = fallback.NewSynthesizer(worker, cfg.Fallback.MaxSide)
	}

	engine, err := inpaint.NewEngine(model, synth, cfg.EngineOptions(), logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var cache port.ResultCache
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rc := storage.NewRedisResultCache(client, cfg.Redis.TTL, logger)
		if err := rc.Ping(ctx); err != nil {
			logger.Warn("redis connection failed, cache disabled", zap.Error(err))
			_ = rc.Close()
		} else {
			logger.Info("redis connected successfully", zap.String("addr", cfg.Redis.Addr))
			cache = rc
			closers = append(closers, func() { _ = rc.Close() })
		}
	}

	c := New(
		storage.NewMemoryUserRepository(cfg.Bot.SessionTTL),
		storage.NewMemoryMaskStore(cfg.Masks.TemplateTTL),
		engine,
		cache,
		cfg.Inpaint.QueueTimeout,
		logger,
	)
	logger.Info("inpainting engine ready", zap.String("backend", engine.Backend()))
	return c, cleanup, nil
}
