package models

import "time"

type PostingHistory struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"userId"`
	PostID       int64     `db:"post_id" json:"postId"`
	AccountID    int64     `db:"account_id" json:"accountId"`
	Status       string    `db:"status" json:"status"`
	ErrorMessage string    `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
