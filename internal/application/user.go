package app

import (
	"context"
	"fmt"

	"sightcom/internal/domain/entity"
	"sightcom/internal/domain/port"
)

// UserService ведёт диалоговое состояние и язык пользователя
type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

// SetState переводит пользователя в состояние state и возвращает его актуальную копию.
func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}

	if err := s.repo.UpdateState(ctx, userID, state); err != nil {
		return nil, fmt.Errorf("update state of user %d: %w", userID, err)
	}

	user.SetState(state)
	return user, nil
}

// SetLanguage меняет язык и возвращает пользователя в главное меню.
func (s *UserService) SetLanguage(ctx context.Context, userID, chatID int64, language string) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}

	user.SetLanguage(language)
	user.SetState(entity.StateMainMenu)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save user %d: %w", userID, err)
	}

	return user, nil
}

// BeginDescribe открывает вкладку камеры
func (s *UserService) BeginDescribe(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

// BeginLanguage открывает выбор языка
func (s *UserService) BeginLanguage(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingLanguage)
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}
