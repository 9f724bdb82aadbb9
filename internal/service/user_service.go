package service

import (
	"context"
	"log/slog"

	"github.com/maheshrc27/glowpost/internal/models"
	"github.com/maheshrc27/glowpost/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
}

type userService struct {
	u repository.UserRepository
}

func NewUserService(u repository.UserRepository) UserService {
	return &userService{
		u: u,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	user, isExist, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get user", id, err)
	}

	if !isExist {
		slog.Info("user not found", "user_id", id)
		return nil, &NotFoundError{Message: "User not found"}
	}

	return user, nil
}
