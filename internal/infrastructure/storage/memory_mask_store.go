package storage

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"inpainter/internal/domain/entity"
	"inpainter/internal/domain/port"
)

// MemoryMaskStore хранит маски-шаблоны пользователей с ограниченным временем жизни.
type MemoryMaskStore struct {
	masks *cache.Cache
}

// NewMemoryMaskStore создаёт хранилище. ttl <= 0 хранит шаблоны бессрочно.
func NewMemoryMaskStore(ttl time.Duration) *MemoryMaskStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemoryMaskStore{masks: cache.New(ttl, cleanupInterval(ttl))}
}

// Get возвращает копию шаблона или nil, если его нет или он истёк.
func (s *MemoryMaskStore) Get(ctx context.Context, userID int64) (*entity.Mask, error) {
	v, ok := s.masks.Get(userKey(userID))
	if !ok {
		return nil, nil
	}
	return v.(*entity.Mask).Clone(), nil
}

// Save сохраняет копию шаблона, заменяя предыдущий.
func (s *MemoryMaskStore) Save(ctx context.Context, userID int64, mask *entity.Mask) error {
	s.masks.SetDefault(userKey(userID), mask.Clone())
	return nil
}

// Delete удаляет шаблон пользователя.
func (s *MemoryMaskStore) Delete(ctx context.Context, userID int64) error {
	s.masks.Delete(userKey(userID))
	return nil
}

var _ port.MaskTemplateStore = (*MemoryMaskStore)(nil)
