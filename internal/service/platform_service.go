package service

import (
	"context"
	"log/slog"

	"github.com/maheshrc27/glowpost/internal/models"
	"github.com/maheshrc27/glowpost/internal/repository"
)

type PlatformService interface {
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	Disconnect(ctx context.Context, userID, accountID int64, purge bool) error
}

type platformService struct {
	sa repository.SocialAccountRepository
}

func NewPlatformService(sa repository.SocialAccountRepository) PlatformService {
	return &platformService{
		sa: sa,
	}
}

func (s *platformService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	if userID <= 0 {
		return nil, &ValidationError{Message: "User is not valid"}
	}

	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, storeError("list social accounts", userID, err)
	}
	return accounts, nil
}

// Disconnect marks the account disconnected and drops its pending posts;
// published and failed posts stay as history. With purge the account row is
// deleted and every post goes with it.
func (s *platformService) Disconnect(ctx context.Context, userID, accountID int64, purge bool) error {
	isValid, err := s.sa.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return storeError("check social account owner", accountID, err)
	}
	if !isValid {
		slog.Info("disconnect rejected: account not owned", "account_id", accountID, "user_id", userID)
		return errAccountNotFound
	}

	if purge {
		if err := s.sa.Remove(ctx, accountID); err != nil {
			return storeError("remove social account", accountID, err)
		}
		slog.Info("social account removed", "account_id", accountID)
		return nil
	}

	removed, err := s.sa.Disconnect(ctx, accountID)
	if err != nil {
		return storeError("disconnect social account", accountID, err)
	}

	slog.Info("social account disconnected", "account_id", accountID, "removed_posts", removed)
	return nil
}
