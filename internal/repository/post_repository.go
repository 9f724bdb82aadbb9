package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/glowpost/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	CheckByUserID(ctx context.Context, postID, userID int64) (bool, error)
	ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.Post, error)
	ListScheduled(ctx context.Context, userID int64, now time.Time) ([]*models.Post, error)
	ListOverdue(ctx context.Context, before time.Time, limit int) ([]*models.Post, error)
	Transition(ctx context.Context, postID int64, status, reason string, at time.Time) (bool, error)
	Remove(ctx context.Context, postID, userID int64) (bool, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, account_id, platform, tip_id, routine_id, content, media_urls,
	scheduled_for, status, failure_reason, published_at, created_at, updated_at`

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var tipID, routineID sql.NullInt64
	var publishedAt sql.NullTime
	var mediaURLs pq.StringArray

	err := row.Scan(&post.ID, &post.UserID, &post.AccountID, &post.Platform, &tipID, &routineID,
		&post.Content, &mediaURLs, &post.ScheduledFor, &post.Status, &post.FailureReason,
		&publishedAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if tipID.Valid {
		post.TipID = &tipID.Int64
	}
	if routineID.Valid {
		post.RoutineID = &routineID.Int64
	}
	if publishedAt.Valid {
		post.PublishedAt = &publishedAt.Time
	}
	post.MediaURLs = []string(mediaURLs)
	if post.MediaURLs == nil {
		post.MediaURLs = []string{}
	}
	return &post, nil
}

func (r *postRepository) queryPosts(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

// Create inserts a scheduled post only while its account is connected and
// owned by post.UserID; the check and the insert are one statement. It returns
// nil when the account no longer qualifies. The platform is taken from the
// account row.
func (r *postRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	query := `
		INSERT INTO social_posts (user_id, account_id, platform, tip_id, routine_id, content, media_urls, scheduled_for, status)
		SELECT $1::bigint, a.id, a.platform, $3::bigint, $4::bigint, $5::text, $6::text[], $7::timestamptz, 'scheduled'
		FROM social_accounts a
		WHERE a.id = $2 AND a.user_id = $1 AND a.status = 'connected'
		RETURNING ` + postColumns

	mediaURLs := post.MediaURLs
	if mediaURLs == nil {
		mediaURLs = []string{}
	}

	row := r.db.QueryRowContext(ctx, query,
		post.UserID,
		post.AccountID,
		post.TipID,
		post.RoutineID,
		post.Content,
		pq.StringArray(mediaURLs),
		post.ScheduledFor,
	)

	created, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return created, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM social_posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	query := "SELECT 1 FROM social_posts WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

// ListByUserID returns the newest posts first. A non-positive limit returns all of them.
func (r *postRepository) ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM social_posts WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT $2`
		return r.queryPosts(ctx, query, userID, limit)
	}
	return r.queryPosts(ctx, query, userID)
}

func (r *postRepository) ListScheduled(ctx context.Context, userID int64, now time.Time) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM social_posts
		WHERE user_id = $1 AND status = 'scheduled' AND scheduled_for > $2
		ORDER BY scheduled_for ASC, id ASC`
	return r.queryPosts(ctx, query, userID, now)
}

func (r *postRepository) ListOverdue(ctx context.Context, before time.Time, limit int) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM social_posts
		WHERE status = 'scheduled' AND scheduled_for < $1
		ORDER BY scheduled_for ASC
		LIMIT $2`
	return r.queryPosts(ctx, query, before, limit)
}

// Transition moves a scheduled post into a terminal status and records the
// change in posting_history. It reports false when the post was not in the
// scheduled state (or does not exist), in which case nothing is written.
func (r *postRepository) Transition(ctx context.Context, postID int64, status, reason string, at time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	defer tx.Rollback()

	var publishedAt *time.Time
	if status == models.PostStatusPublished {
		publishedAt = &at
	}

	updateQuery := `
		UPDATE social_posts
		SET status = $1,
			failure_reason = $2,
			published_at = $3,
			updated_at = $4
		WHERE id = $5 AND status = 'scheduled'
		RETURNING user_id, account_id
	`

	var userID, accountID int64
	err = tx.QueryRowContext(ctx, updateQuery, status, reason, publishedAt, at, postID).Scan(&userID, &accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	historyQuery := `
		INSERT INTO posting_history (user_id, post_id, account_id, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err = tx.ExecContext(ctx, historyQuery, userID, postID, accountID, status, reason, at); err != nil {
		slog.Info(err.Error())
		return false, err
	}

	if err = tx.Commit(); err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return true, nil
}

// Remove deletes a scheduled post owned by userID. Ownership and status are
// part of the statement, so a foreign or terminal post is never removed.
func (r *postRepository) Remove(ctx context.Context, postID, userID int64) (bool, error) {
	query := `DELETE FROM social_posts WHERE id = $1 AND user_id = $2 AND status = 'scheduled'`
	result, err := r.db.ExecContext(ctx, query, postID, userID)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}
