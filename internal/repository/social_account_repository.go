package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/maheshrc27/glowpost/internal/models"
)

type SocialAccountRepository interface {
	Upsert(ctx context.Context, sa *models.SocialAccount) (*models.SocialAccount, error)
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error)
	Disconnect(ctx context.Context, id int64) (int64, error)
	Remove(ctx context.Context, id int64) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const socialAccountColumns = `id, user_id, platform, provider_account_id, username, display_name,
	avatar_url, access_token, refresh_token, token_expires_at, followers, engagement, status,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSocialAccount(row rowScanner) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	var expiresAt sql.NullTime
	err := row.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.ProviderAccountID, &sa.Username,
		&sa.DisplayName, &sa.AvatarURL, &sa.AccessToken, &sa.RefreshToken, &expiresAt,
		&sa.Followers, &sa.Engagement, &sa.Status, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		sa.TokenExpiresAt = &expiresAt.Time
	}
	return &sa, nil
}

// Upsert inserts the account or, when (platform, provider_account_id) already
// exists, refreshes it in place. When the row changes owner the previous
// owner's scheduled posts are deleted in the same transaction, so they never
// run under the new owner's credentials.
func (r *socialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) (*models.SocialAccount, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer tx.Rollback()

	var existingID, previousOwner int64
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id FROM social_accounts
		WHERE platform = $1 AND provider_account_id = $2
		FOR UPDATE`, sa.Platform, sa.ProviderAccountID).Scan(&existingID, &previousOwner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		slog.Info(err.Error())
		return nil, err
	case previousOwner != sa.UserID:
		result, err := tx.ExecContext(ctx,
			`DELETE FROM social_posts WHERE account_id = $1 AND status = 'scheduled'`, existingID)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		removed, _ := result.RowsAffected()
		slog.Info("social account changed owner", "account_id", existingID,
			"previous_user_id", previousOwner, "user_id", sa.UserID, "removed_posts", removed)
	}

	query := `
		INSERT INTO social_accounts (
			user_id,
			platform,
			provider_account_id,
			username,
			display_name,
			avatar_url,
			access_token,
			refresh_token,
			token_expires_at,
			followers,
			engagement,
			status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'connected')
		ON CONFLICT (platform, provider_account_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			username = EXCLUDED.username,
			display_name = EXCLUDED.display_name,
			avatar_url = EXCLUDED.avatar_url,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			followers = EXCLUDED.followers,
			engagement = EXCLUDED.engagement,
			status = 'connected',
			updated_at = now()
		RETURNING ` + socialAccountColumns

	row := tx.QueryRowContext(ctx, query,
		sa.UserID,
		sa.Platform,
		sa.ProviderAccountID,
		sa.Username,
		sa.DisplayName,
		sa.AvatarURL,
		sa.AccessToken,
		sa.RefreshToken,
		sa.TokenExpiresAt,
		sa.Followers,
		sa.Engagement,
	)

	stored, err := scanSocialAccount(row)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return stored, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE id = $1`

	sa, err := scanSocialAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sa, nil
}

func (r *socialAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	accounts := []*models.SocialAccount{}
	for rows.Next() {
		sa, err := scanSocialAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

func (r *socialAccountRepository) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	query := "SELECT 1 FROM social_accounts WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, accountID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

// Disconnect flips the account to disconnected, drops its credentials and
// deletes its still-scheduled posts in one transaction. The row and terminal
// posts are kept so posting history still resolves. It returns how many posts
// were removed.
func (r *socialAccountRepository) Disconnect(ctx context.Context, id int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	defer tx.Rollback()

	query := `
		UPDATE social_accounts
		SET status = 'disconnected',
			access_token = '',
			refresh_token = '',
			token_expires_at = NULL,
			updated_at = now()
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query, id); err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM social_posts WHERE account_id = $1 AND status = 'scheduled'`, id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	removed, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return removed, nil
}

func (r *socialAccountRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM social_accounts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
