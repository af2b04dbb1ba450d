package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"inpainter/internal/domain/entity"
	"inpainter/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище сессий бота. Сессия, к которой
// давно не обращались, забывается, и пользователь начинает с главного меню.
type MemoryUserRepository struct {
	users *cache.Cache
}

// NewMemoryUserRepository создаёт хранилище с временем жизни сессии ttl.
// ttl <= 0 хранит сессии без ограничения.
func NewMemoryUserRepository(ttl time.Duration) *MemoryUserRepository {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemoryUserRepository{
		users: cache.New(ttl, cleanupInterval(ttl)),
	}
}

// Get возвращает пользователя по ID, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	key := userKey(userID)
	if v, ok := r.users.Get(key); ok {
		user := v.(*entity.User)
		r.users.SetDefault(key, user) // продлеваем сессию
		return user, nil
	}

	newUser := entity.NewUser(userID, chatID)
	if err := r.users.Add(key, newUser, cache.DefaultExpiration); err != nil {
		// параллельный запрос успел создать сессию
		if v, ok := r.users.Get(key); ok {
			return v.(*entity.User), nil
		}
		r.users.SetDefault(key, newUser)
	}
	return newUser, nil
}

// Save сохраняет состояние пользователя
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	r.users.SetDefault(userKey(user.ID), user)
	return nil
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl == cache.NoExpiration {
		return 0
	}
	return max(ttl/2, time.Minute)
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
