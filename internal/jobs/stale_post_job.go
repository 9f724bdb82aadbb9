package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/glowpost/internal/models"
	"github.com/maheshrc27/glowpost/internal/repository"
	"github.com/maheshrc27/glowpost/internal/service"
	"github.com/robfig/cron"
)

// StaleReason is recorded on posts the sweeper gives up on.
const StaleReason = "publish window expired"

const sweepBatchSize = 100

// StalePostJob fails posts that stayed scheduled long past their time. It
// never publishes anything.
type StalePostJob struct {
	pr    repository.PostRepository
	ps    service.PostService
	grace time.Duration
	now   func() time.Time
}

func NewStalePostJob(pr repository.PostRepository, ps service.PostService, grace time.Duration) *StalePostJob {
	return &StalePostJob{
		pr:    pr,
		ps:    ps,
		grace: grace,
		now:   time.Now,
	}
}

// Schedule registers the sweep on c. A zero grace disables it.
func (j *StalePostJob) Schedule(c *cron.Cron, spec string) error {
	if j.grace <= 0 {
		slog.Info("stale post sweep disabled")
		return nil
	}
	return c.AddFunc(spec, j.ExpireStalePosts)
}

func (j *StalePostJob) ExpireStalePosts() {
	if _, err := j.Sweep(context.Background()); err != nil {
		slog.Info(err.Error())
	}
}

// Sweep moves overdue posts to failed in batches and returns how many it
// touched.
func (j *StalePostJob) Sweep(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.grace)
	total := 0

	for {
		posts, err := j.pr.ListOverdue(ctx, cutoff, sweepBatchSize)
		if err != nil {
			return total, err
		}
		if len(posts) == 0 {
			return total, nil
		}

		var wg sync.WaitGroup
		var mu sync.Mutex
		expired := 0

		concurrencyLimit := 10
		semaphore := make(chan struct{}, concurrencyLimit)

		for _, post := range posts {
			wg.Add(1)
			semaphore <- struct{}{}

			go func(post *models.Post) {
				defer wg.Done()
				defer func() { <-semaphore }()

				updated, err := j.ps.MarkFailed(ctx, post.ID, StaleReason)
				if err != nil {
					slog.Info(err.Error(), "post_id", post.ID)
					return
				}
				if updated.Status == models.PostStatusFailed {
					mu.Lock()
					expired++
					mu.Unlock()
				}
			}(post)
		}
		wg.Wait()

		total += expired
		if expired == 0 || len(posts) < sweepBatchSize {
			slog.Info("stale post sweep finished", "expired", total)
			return total, nil
		}
	}
}
