package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"inpainter/internal/domain/entity"
	"inpainter/internal/domain/port"
)

const resultKeyPrefix = "inpaint:"

// RedisResultCache кэш готовых результатов в Redis.
type RedisResultCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

type cachedImage struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Pix    []byte `json:"pix"`
}

// NewRedisResultCache создаёт кэш поверх готового клиента.
func NewRedisResultCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisResultCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisResultCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisResultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get возвращает результат из кэша, nil при промахе.
func (c *RedisResultCache) Get(ctx context.Context, key string) (*entity.Image, error) {
	data, err := c.client.Get(ctx, resultKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // промах
		}
		return nil, err
	}

	img, err := decodeCached(data)
	if err != nil {
		c.logger.Error("failed to unmarshal cached result",
			zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return img, nil
}

// Set сохраняет результат на время ttl.
func (c *RedisResultCache) Set(ctx context.Context, key string, img *entity.Image) error {
	data, err := encodeCached(img)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, resultKeyPrefix+key, data, c.ttl).Err()
}

func (c *RedisResultCache) Close() error {
	return c.client.Close()
}

func encodeCached(img *entity.Image) ([]byte, error) {
	return json.Marshal(cachedImage{Width: img.Width, Height: img.Height, Pix: img.Pix})
}

func decodeCached(data []byte) (*entity.Image, error) {
	var ci cachedImage
	if err := json.Unmarshal(data, &ci); err != nil {
		return nil, err
	}
	return entity.NewImageFromPix(ci.Width, ci.Height, ci.Pix)
}

var _ port.ResultCache = (*RedisResultCache)(nil)
