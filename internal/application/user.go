package app

import (
	"context"
	"errors"
	"sync"

	"inpainter/internal/domain/entity"
	"inpainter/internal/domain/port"
)

// ErrBusy у пользователя уже обрабатывается изображение.
var ErrBusy = errors.New("user already has an image in progress")

type UserService struct {
	mu   sync.Mutex // смена состояния атомарна относительно BeginProcessing
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setState(ctx, userID, chatID, state)
}

func (s *UserService) setState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// BeginMask ждёт от пользователя новую маску-шаблон.
func (s *UserService) BeginMask(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingMask)
}

// BeginProcessing помечает пользователя занятым. Второе изображение, пока
// первое не готово, отклоняется с ErrBusy.
func (s *UserService) BeginProcessing(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if user.Busy() {
		return nil, ErrBusy
	}
	return s.setState(ctx, userID, chatID, entity.StateProcessing)
}

// FinishProcessing возвращает пользователя к ожиданию следующего фото.
func (s *UserService) FinishProcessing(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}
