package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-widget/internal/widget"
)

const pruneInterval = time.Minute

// Scheduler periodically refreshes live widgets and evicts idle ones.
type Scheduler struct {
	scheduler *gocron.Scheduler
	registry  *widget.Registry
	refresh   time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. A zero refresh interval disables auto-refresh.
func New(registry *widget.Registry, refresh, timeout time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		registry:  registry,
		refresh:   refresh,
		timeout:   timeout,
	}
}

// Start schedules the jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(pruneInterval).WaitForSchedule().Do(s.prune); err != nil {
		return err
	}

	if s.refresh > 0 {
		if _, err := s.scheduler.Every(s.refresh).WaitForSchedule().Do(s.RefreshAll); err != nil {
			return err
		}
	} else {
		slog.Info("scheduler: auto-refresh disabled")
	}

	s.scheduler.StartAsync()
	return nil
}

// RefreshAll re-runs the current lookup of every live widget.
func (s *Scheduler) RefreshAll() {
	slog.Debug("scheduler: refreshing widgets", "widgets", s.registry.Len())

	var wg sync.WaitGroup
	s.registry.Each(func(id string, c *widget.Controller) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx := context.Background()
			if s.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, s.timeout)
				defer cancel()
			}

			v := c.Refresh(ctx)
			if v.State == widget.StateError {
				slog.Warn("scheduler: refresh failed", "widget", id, "city", v.City, "error", v.Error)
			}
		}()
	})
	wg.Wait()
}

func (s *Scheduler) prune() {
	if n := s.registry.Prune(); n > 0 {
		slog.Info("scheduler: evicted idle widgets", "count", n)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
