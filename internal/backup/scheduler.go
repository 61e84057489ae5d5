package backup

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler fires a Runner once at Start and then daily at a fixed hour.
// It is an explicitly owned handle with a start/stop lifecycle, so tests can
// exercise the schedule computation without a live timer.
type Scheduler struct {
	runner Runner
	hour   int
	log    zerolog.Logger

	closeChan chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewScheduler creates a scheduler firing daily at the given hour (0-23).
func NewScheduler(runner Runner, hour int, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		runner:    runner,
		hour:      hour,
		log:       log,
		closeChan: make(chan struct{}),
	}
}

// Start launches the schedule loop in the background. The first run fires
// immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.fire(ctx)

		for {
			wait := time.Until(nextRunAfter(time.Now(), s.hour))
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
				s.fire(ctx)
			case <-s.closeChan:
				timer.Stop()
				return
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}
	}()
}

// Stop stops the schedule loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.closeOnce.Do(func() { close(s.closeChan) })
	s.wg.Wait()
}

// fire runs the runner once. Failures are logged only, never escalated.
func (s *Scheduler) fire(ctx context.Context) {
	if err := s.runner.Run(ctx); err != nil {
		s.log.Error().Err(err).Msg("Scheduled backup failed")
		return
	}
	s.log.Debug().Msg("Scheduled backup completed")
}

// nextRunAfter returns the next occurrence of hour:00 strictly after now.
func nextRunAfter(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
