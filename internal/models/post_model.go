package models

import "time"

type Post struct {
	ID            int64      `db:"id" json:"id"`
	UserID        int64      `db:"user_id" json:"userId"`
	AccountID     int64      `db:"account_id" json:"accountId"`
	Platform      string     `db:"platform" json:"platform"`
	TipID         *int64     `db:"tip_id" json:"tipId,omitempty"`
	RoutineID     *int64     `db:"routine_id" json:"routineId,omitempty"`
	Content       string     `db:"content" json:"content"`
	MediaURLs     []string   `db:"media_urls" json:"mediaUrls"`
	ScheduledFor  time.Time  `db:"scheduled_for" json:"scheduledFor"`
	Status        string     `db:"status" json:"status"` // scheduled, published, failed
	FailureReason string     `db:"failure_reason" json:"failureReason,omitempty"`
	PublishedAt   *time.Time `db:"published_at" json:"publishedAt,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

const (
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)

// IsTerminal reports whether status admits no further transition.
func IsTerminal(status string) bool {
	return status == PostStatusPublished || status == PostStatusFailed
}
