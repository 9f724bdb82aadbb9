// Package memstore keeps users, accounts and posts in process memory. It mirrors the
// Postgres repositories closely enough for service and handler tests and is
// never wired into the server.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/maheshrc27/glowpost/internal/models"
	"github.com/maheshrc27/glowpost/internal/repository"
)

type Store struct {
	mu            sync.Mutex
	now           func() time.Time
	users         map[int64]*models.User
	accounts      map[int64]*models.SocialAccount
	posts         map[int64]*models.Post
	history       []*models.PostingHistory
	nextUserID    int64
	nextAccountID int64
	nextPostID    int64
	nextHistoryID int64
}

func New() *Store {
	return &Store{
		now:      time.Now,
		users:    make(map[int64]*models.User),
		accounts: make(map[int64]*models.SocialAccount),
		posts:    make(map[int64]*models.Post),
	}
}

// WithClock replaces the clock used for created/updated timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Users() repository.UserRepository { return &userStore{s} }

func (s *Store) Accounts() repository.SocialAccountRepository { return &accountStore{s} }

func (s *Store) Posts() repository.PostRepository { return &postStore{s} }

func (s *Store) History() repository.PostingHistoryRepository { return &historyStore{s} }

func copyAccount(sa *models.SocialAccount) *models.SocialAccount {
	c := *sa
	return &c
}

func copyPost(p *models.Post) *models.Post {
	c := *p
	c.MediaURLs = append([]string{}, p.MediaURLs...)
	return &c
}

type userStore struct{ s *Store }

func (u *userStore) GetByID(_ context.Context, id int64) (*models.User, bool, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	user, ok := u.s.users[id]
	if !ok {
		return nil, false, nil
	}
	c := *user
	return &c, true, nil
}

func (u *userStore) GetByEmail(_ context.Context, email string) (*models.User, bool, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, user := range u.s.users {
		if strings.EqualFold(user.Email, email) {
			c := *user
			return &c, true, nil
		}
	}
	return nil, false, nil
}

func (u *userStore) Create(_ context.Context, user *models.User) (int64, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	u.s.nextUserID++
	stored := *user
	stored.ID = u.s.nextUserID
	stored.CreatedAt = u.s.now()
	stored.UpdatedAt = stored.CreatedAt
	u.s.users[stored.ID] = &stored
	return stored.ID, nil
}

func (u *userStore) Update(_ context.Context, user *models.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	existing, ok := u.s.users[user.ID]
	if !ok {
		return nil
	}
	existing.GoogleID = user.GoogleID
	existing.Name = user.Name
	existing.ProfilePicture = user.ProfilePicture
	existing.UpdatedAt = u.s.now()
	return nil
}

type accountStore struct{ s *Store }

func (a *accountStore) Upsert(_ context.Context, sa *models.SocialAccount) (*models.SocialAccount, error) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, existing := range s.accounts {
		if existing.Platform == sa.Platform && existing.ProviderAccountID == sa.ProviderAccountID {
			if existing.UserID != sa.UserID {
				s.removeScheduled(existing.ID)
			}
			existing.UserID = sa.UserID
			existing.Username = sa.Username
			existing.DisplayName = sa.DisplayName
			existing.AvatarURL = sa.AvatarURL
			existing.AccessToken = sa.AccessToken
			existing.RefreshToken = sa.RefreshToken
			existing.TokenExpiresAt = sa.TokenExpiresAt
			existing.Followers = sa.Followers
			existing.Engagement = sa.Engagement
			existing.Status = models.AccountStatusConnected
			existing.UpdatedAt = now
			return copyAccount(existing), nil
		}
	}

	s.nextAccountID++
	stored := copyAccount(sa)
	stored.ID = s.nextAccountID
	stored.Status = models.AccountStatusConnected
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.accounts[stored.ID] = stored
	return copyAccount(stored), nil
}

func (a *accountStore) GetByID(_ context.Context, id int64) (*models.SocialAccount, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	sa, ok := a.s.accounts[id]
	if !ok {
		return nil, nil
	}
	return copyAccount(sa), nil
}

func (a *accountStore) ListByUserID(_ context.Context, userID int64) ([]*models.SocialAccount, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	accounts := []*models.SocialAccount{}
	for _, sa := range a.s.accounts {
		if sa.UserID == userID {
			accounts = append(accounts, copyAccount(sa))
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (a *accountStore) CheckByUserID(_ context.Context, accountID, userID int64) (bool, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	sa, ok := a.s.accounts[accountID]
	return ok && sa.UserID == userID, nil
}

func (a *accountStore) Disconnect(_ context.Context, id int64) (int64, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	sa, ok := a.s.accounts[id]
	if !ok {
		return 0, nil
	}
	sa.Status = models.AccountStatusDisconnected
	sa.AccessToken = ""
	sa.RefreshToken = ""
	sa.TokenExpiresAt = nil
	sa.UpdatedAt = a.s.now()
	return a.s.removeScheduled(id), nil
}

// removeScheduled must be called with the lock held.
func (s *Store) removeScheduled(accountID int64) int64 {
	var removed int64
	for id, post := range s.posts {
		if post.AccountID == accountID && post.Status == models.PostStatusScheduled {
			delete(s.posts, id)
			removed++
		}
	}
	return removed
}

// Remove deletes the account and every post that references it, matching the
// ON DELETE CASCADE foreign key.
func (a *accountStore) Remove(_ context.Context, id int64) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	delete(a.s.accounts, id)
	for postID, p := range a.s.posts {
		if p.AccountID == id {
			delete(a.s.posts, postID)
		}
	}
	return nil
}

type postStore struct{ s *Store }

func (p *postStore) Create(_ context.Context, post *models.Post) (*models.Post, error) {
	s := p.s
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[post.AccountID]
	if !ok || account.UserID != post.UserID || !account.IsConnected() {
		return nil, nil
	}

	s.nextPostID++
	stored := copyPost(post)
	stored.ID = s.nextPostID
	stored.Platform = account.Platform
	stored.Status = models.PostStatusScheduled
	stored.CreatedAt = s.now()
	stored.UpdatedAt = stored.CreatedAt
	s.posts[stored.ID] = stored
	return copyPost(stored), nil
}

func (p *postStore) GetByID(_ context.Context, id int64) (*models.Post, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	post, ok := p.s.posts[id]
	if !ok {
		return nil, nil
	}
	return copyPost(post), nil
}

func (p *postStore) CheckByUserID(_ context.Context, postID, userID int64) (bool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	post, ok := p.s.posts[postID]
	return ok && post.UserID == userID, nil
}

func (p *postStore) ListByUserID(_ context.Context, userID int64, limit int) ([]*models.Post, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	posts := p.filter(func(post *models.Post) bool { return post.UserID == userID })
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (p *postStore) ListScheduled(_ context.Context, userID int64, now time.Time) ([]*models.Post, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	posts := p.filter(func(post *models.Post) bool {
		return post.UserID == userID && post.Status == models.PostStatusScheduled && post.ScheduledFor.After(now)
	})
	sortByScheduledFor(posts)
	return posts, nil
}

func (p *postStore) ListOverdue(_ context.Context, before time.Time, limit int) ([]*models.Post, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	posts := p.filter(func(post *models.Post) bool {
		return post.Status == models.PostStatusScheduled && post.ScheduledFor.Before(before)
	})
	sortByScheduledFor(posts)
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (p *postStore) Transition(_ context.Context, postID int64, status, reason string, at time.Time) (bool, error) {
	s := p.s
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok || post.Status != models.PostStatusScheduled {
		return false, nil
	}

	post.Status = status
	post.FailureReason = reason
	post.UpdatedAt = at
	if status == models.PostStatusPublished {
		publishedAt := at
		post.PublishedAt = &publishedAt
	}

	s.nextHistoryID++
	s.history = append(s.history, &models.PostingHistory{
		ID:           s.nextHistoryID,
		UserID:       post.UserID,
		PostID:       post.ID,
		AccountID:    post.AccountID,
		Status:       status,
		ErrorMessage: reason,
		CreatedAt:    at,
	})
	return true, nil
}

func (p *postStore) Remove(_ context.Context, postID, userID int64) (bool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	post, ok := p.s.posts[postID]
	if !ok || post.UserID != userID || post.Status != models.PostStatusScheduled {
		return false, nil
	}
	delete(p.s.posts, postID)
	return true, nil
}

// filter must be called with the lock held.
func (p *postStore) filter(keep func(*models.Post) bool) []*models.Post {
	posts := []*models.Post{}
	for _, post := range p.s.posts {
		if keep(post) {
			posts = append(posts, copyPost(post))
		}
	}
	return posts
}

func sortByScheduledFor(posts []*models.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].ScheduledFor.Equal(posts[j].ScheduledFor) {
			return posts[i].ID < posts[j].ID
		}
		return posts[i].ScheduledFor.Before(posts[j].ScheduledFor)
	})
}

type historyStore struct{ s *Store }

func (h *historyStore) ListByPostID(_ context.Context, postID int64) ([]*models.PostingHistory, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	entries := []*models.PostingHistory{}
	for _, ph := range h.s.history {
		if ph.PostID == postID {
			c := *ph
			entries = append(entries, &c)
		}
	}
	return entries, nil
}
