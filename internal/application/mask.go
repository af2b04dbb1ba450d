package app

import (
	"context"
	"errors"

	"inpainter/internal/domain/entity"
	"inpainter/internal/domain/port"
)

// ErrNoTemplate у пользователя нет сохранённой маски.
var ErrNoTemplate = errors.New("mask template is not set")

// MaskService управляет масками-шаблонами: одна маска применяется ко всем
// следующим фото пользователя.
type MaskService struct {
	users *UserService
	store port.MaskTemplateStore
}

func NewMaskService(users *UserService, store port.MaskTemplateStore) *MaskService {
	return &MaskService{users: users, store: store}
}

// AcceptTemplate сохраняет маску и переводит пользователя к ожиданию фото.
func (s *MaskService) AcceptTemplate(ctx context.Context, userID, chatID int64, mask *entity.Mask) (*entity.User, error) {
	if mask.FilledCount() == 0 {
		return nil, entity.ErrEmptyMask
	}
	if err := s.store.Save(ctx, userID, mask); err != nil {
		return nil, err
	}
	return s.users.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

// Template возвращает сохранённую маску или ErrNoTemplate.
func (s *MaskService) Template(ctx context.Context, userID int64) (*entity.Mask, error) {
	mask, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if mask == nil {
		return nil, ErrNoTemplate
	}
	return mask, nil
}

// Clear удаляет маску и возвращает пользователя в главное меню.
func (s *MaskService) Clear(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	if err := s.store.Delete(ctx, userID); err != nil {
		return nil, err
	}
	return s.users.Cancel(ctx, userID, chatID)
}
