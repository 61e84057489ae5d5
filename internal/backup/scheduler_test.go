package backup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingRunner struct {
	mu   sync.Mutex
	runs int
	err  error
}

func (r *countingRunner) Run(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	return r.err
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func TestNextRunAfter(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		hour int
		want time.Time
	}{
		{
			name: "before the hour fires same day",
			now:  time.Date(2024, 11, 30, 1, 15, 0, 0, time.UTC),
			hour: 2,
			want: time.Date(2024, 11, 30, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "after the hour fires next day",
			now:  time.Date(2024, 11, 30, 14, 0, 0, 0, time.UTC),
			hour: 2,
			want: time.Date(2024, 12, 1, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly on the hour fires next day",
			now:  time.Date(2024, 11, 30, 2, 0, 0, 0, time.UTC),
			hour: 2,
			want: time.Date(2024, 12, 1, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "month rollover",
			now:  time.Date(2024, 12, 31, 23, 30, 0, 0, time.UTC),
			hour: 2,
			want: time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "midnight hour",
			now:  time.Date(2024, 11, 30, 0, 0, 1, 0, time.UTC),
			hour: 0,
			want: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextRunAfter(tt.now, tt.hour); !got.Equal(tt.want) {
				t.Errorf("nextRunAfter(%v, %d) = %v, want %v", tt.now, tt.hour, got, tt.want)
			}
		})
	}
}

func TestSchedulerFiresImmediatelyOnStart(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, 2, zerolog.Nop())

	s.Start(context.Background())
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for runner.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("runner never fired after Start")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, 2, zerolog.Nop())

	s.Start(context.Background())
	s.Stop()
	s.Stop()
}

func TestSchedulerRunFailureDoesNotStopLoop(t *testing.T) {
	runner := &countingRunner{err: errors.New("bucket unreachable")}
	s := NewScheduler(runner, 2, zerolog.Nop())

	s.Start(context.Background())
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for runner.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("runner never fired after Start")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSchedulerContextCancelStopsLoop(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, 2, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()
	s.Stop()
}
