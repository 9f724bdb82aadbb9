package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	config "github.com/maheshrc27/glowpost/configs"
	"github.com/maheshrc27/glowpost/internal/metrics"
	"github.com/maheshrc27/glowpost/internal/models"
	"github.com/maheshrc27/glowpost/internal/repository"
	"github.com/maheshrc27/glowpost/internal/transfer"
)

// scheduledTimeLayout is the datetime-local form sent by browser inputs.
const scheduledTimeLayout = "2006-01-02T15:04"

var (
	errPostNotFound    = &NotFoundError{Message: "Post not found or not authorized"}
	errAccountNotFound = &NotFoundError{Message: "Account not found or not authorized"}
)

type PostService interface {
	Schedule(ctx context.Context, userID int64, req *transfer.SchedulePostRequest) (*models.Post, error)
	ListScheduled(ctx context.Context, userID int64) ([]*models.Post, error)
	ListAll(ctx context.Context, userID int64, limit int) ([]*models.Post, error)
	Get(ctx context.Context, userID, postID int64) (*models.Post, error)
	History(ctx context.Context, userID, postID int64) ([]*models.PostingHistory, error)
	Delete(ctx context.Context, userID, postID int64) error
	UpdateStatus(ctx context.Context, userID, postID int64, req *transfer.UpdatePostStatusRequest) (*models.Post, error)
	MarkPublished(ctx context.Context, postID int64) (*models.Post, error)
	MarkFailed(ctx context.Context, postID int64, reason string) (*models.Post, error)
}

type postService struct {
	cfg      config.Config
	pr       repository.PostRepository
	ac       repository.SocialAccountRepository
	ph       repository.PostingHistoryRepository
	validate *validator.Validate
	now      func() time.Time
}

func NewPostService(
	cfg config.Config,
	pr repository.PostRepository,
	ac repository.SocialAccountRepository,
	ph repository.PostingHistoryRepository) PostService {
	return &postService{
		cfg:      cfg,
		pr:       pr,
		ac:       ac,
		ph:       ph,
		validate: newValidator(),
		now:      time.Now,
	}
}

func (s *postService) Schedule(ctx context.Context, userID int64, req *transfer.SchedulePostRequest) (*models.Post, error) {
	if userID <= 0 {
		return nil, &ValidationError{Message: "User is not valid"}
	}
	if req == nil {
		return nil, &ValidationError{Message: "Request body is required"}
	}

	req.Content = strings.TrimSpace(req.Content)
	if err := s.validate.Struct(req); err != nil {
		slog.Info(err.Error())
		return nil, &ValidationError{Message: validationMessage(err)}
	}
	for _, raw := range req.MediaURLs {
		if !isHTTPURL(raw) {
			return nil, &ValidationError{Message: fmt.Sprintf("media URL %q must be an absolute http(s) URL", raw)}
		}
	}

	scheduledFor, err := parseScheduledFor(req.ScheduledFor)
	if err != nil {
		slog.Info(err.Error())
		return nil, &ValidationError{Message: "scheduledFor must be an RFC 3339 timestamp"}
	}
	if !s.cfg.AllowPastSchedule && scheduledFor.Before(s.now()) {
		return nil, &ValidationError{Message: "scheduledFor must not be in the past"}
	}

	account, err := s.ac.GetByID(ctx, req.AccountID)
	if err != nil {
		return nil, storeError("get social account", req.AccountID, err)
	}
	if account == nil || account.UserID != userID {
		slog.Info("schedule rejected: account not owned", "account_id", req.AccountID, "user_id", userID)
		return nil, errAccountNotFound
	}
	if !account.IsConnected() {
		return nil, &ValidationError{Message: "Account is disconnected"}
	}
	if req.Platform != "" && req.Platform != account.Platform {
		return nil, &ValidationError{Message: fmt.Sprintf("Account belongs to %s, not %s", account.Platform, req.Platform)}
	}

	post, err := s.pr.Create(ctx, &models.Post{
		UserID:       userID,
		AccountID:    account.ID,
		Platform:     account.Platform,
		TipID:        req.TipID,
		RoutineID:    req.RoutineID,
		Content:      req.Content,
		MediaURLs:    req.MediaURLs,
		ScheduledFor: scheduledFor,
	})
	if err != nil {
		return nil, storeError("create post", 0, err)
	}
	if post == nil {
		slog.Info("schedule rejected: account changed during insert", "account_id", account.ID, "user_id", userID)
		return nil, &ValidationError{Message: "Account is disconnected"}
	}

	metrics.RecordScheduled(post.Platform)
	slog.Info("post scheduled", "post_id", post.ID, "account_id", post.AccountID, "scheduled_for", post.ScheduledFor)
	return post, nil
}

// ListScheduled returns the caller's posts that are still waiting to go out,
// soonest first.
func (s *postService) ListScheduled(ctx context.Context, userID int64) ([]*models.Post, error) {
	posts, err := s.pr.ListScheduled(ctx, userID, s.now())
	if err != nil {
		return nil, storeError("list scheduled posts", userID, err)
	}
	return posts, nil
}

func (s *postService) ListAll(ctx context.Context, userID int64, limit int) ([]*models.Post, error) {
	if limit < 0 {
		return nil, &ValidationError{Message: "limit must not be negative"}
	}
	posts, err := s.pr.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, storeError("list posts", userID, err)
	}
	return posts, nil
}

func (s *postService) Get(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, storeError("get post", postID, err)
	}
	if post == nil || post.UserID != userID {
		return nil, errPostNotFound
	}
	return post, nil
}

func (s *postService) History(ctx context.Context, userID, postID int64) ([]*models.PostingHistory, error) {
	if _, err := s.Get(ctx, userID, postID); err != nil {
		return nil, err
	}
	entries, err := s.ph.ListByPostID(ctx, postID)
	if err != nil {
		return nil, storeError("list posting history", postID, err)
	}
	return entries, nil
}

func (s *postService) Delete(ctx context.Context, userID, postID int64) error {
	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return storeError("check post owner", postID, err)
	}
	if !isValid {
		slog.Info("delete rejected: post not owned", "post_id", postID, "user_id", userID)
		return errPostNotFound
	}

	removed, err := s.pr.Remove(ctx, postID, userID)
	if err != nil {
		return storeError("remove post", postID, err)
	}
	if !removed {
		return &ValidationError{Message: "Only scheduled posts can be deleted"}
	}
	return nil
}

// UpdateStatus applies a publisher-reported outcome to one of the caller's posts.
func (s *postService) UpdateStatus(ctx context.Context, userID, postID int64, req *transfer.UpdatePostStatusRequest) (*models.Post, error) {
	if req == nil {
		return nil, &ValidationError{Message: "Request body is required"}
	}
	if err := s.validate.Struct(req); err != nil {
		slog.Info(err.Error())
		return nil, &ValidationError{Message: validationMessage(err)}
	}
	if _, err := s.Get(ctx, userID, postID); err != nil {
		return nil, err
	}

	if req.Status == models.PostStatusPublished {
		return s.MarkPublished(ctx, postID)
	}
	return s.MarkFailed(ctx, postID, req.Reason)
}

func (s *postService) MarkPublished(ctx context.Context, postID int64) (*models.Post, error) {
	return s.transition(ctx, postID, models.PostStatusPublished, "")
}

func (s *postService) MarkFailed(ctx context.Context, postID int64, reason string) (*models.Post, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown error"
	}
	return s.transition(ctx, postID, models.PostStatusFailed, reason)
}

// transition leaves terminal posts untouched and returns them as they are.
func (s *postService) transition(ctx context.Context, postID int64, status, reason string) (*models.Post, error) {
	changed, err := s.pr.Transition(ctx, postID, status, reason, s.now().UTC())
	if err != nil {
		return nil, storeError("transition post", postID, err)
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, storeError("get post", postID, err)
	}
	if post == nil {
		return nil, errPostNotFound
	}

	if !changed {
		slog.Warn("ignoring transition of non-scheduled post", "post_id", postID, "status", post.Status, "requested", status)
		return post, nil
	}

	metrics.RecordTransition(status)
	return post, nil
}

func parseScheduledFor(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(scheduledTimeLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid scheduled time format: %w", err)
	}
	return t, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// validationMessage turns the first validator failure into a client message.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "Invalid request"
	}

	fe := ve[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "url":
		return field + " must be a valid URL"
	default:
		return field + " is invalid"
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
