package schedule

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrLockHeld is returned by Locker.TryLock when another replica owns the key.
var ErrLockHeld = errors.New("schedule: lock held elsewhere")

// Lease is a held lock.
type Lease interface {
	Release(ctx context.Context) error
}

type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner ticks every job on its own interval. When a Locker is set, each tick first takes a
// lock named after the job so that only one replica runs it.
type Runner struct {
	Jobs   []Job
	Locker Locker
	Logger *slog.Logger
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range r.Jobs {
		if job.Interval <= 0 || job.Run == nil {
			r.logger().Info("job disabled", "job", job.Name)
			continue
		}
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			r.loop(ctx, job)
		}(job)
	}
	wg.Wait()
}

func (r *Runner) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick(ctx, job)
		}
	}
}

// Tick runs job once, under the lock when one is configured.
func (r *Runner) Tick(ctx context.Context, job Job) {
	if r.Locker != nil {
		lease, err := r.Locker.TryLock(ctx, "staycal:job:"+job.Name, job.Interval)
		if errors.Is(err, ErrLockHeld) {
			r.logger().DebugContext(ctx, "job skipped, lock held", "job", job.Name)
			return
		}
		if err != nil {
			r.logger().WarnContext(ctx, "job lock failed", "job", job.Name, "error", err)
			return
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				r.logger().WarnContext(ctx, "job unlock failed", "job", job.Name, "error", err)
			}
		}()
	}
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		r.logger().ErrorContext(ctx, "job failed", "job", job.Name, "error", err)
		return
	}
	r.logger().InfoContext(ctx, "job finished", "job", job.Name, "duration", time.Since(start))
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
