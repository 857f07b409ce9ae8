package playback

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/spacegirl-bot/spacegirl/internal/observe"
)

// DefaultTickInterval is the scheduler polling period.
const DefaultTickInterval = 100 * time.Millisecond

// Scheduler is the background playback loop. Each tick it scans every guild
// with a live, idle connection and starts playback of the next queued
// artifact. Exactly one playback runs per guild at a time; guilds without a
// connection are skipped with their queues intact.
type Scheduler struct {
	state    *State
	interval time.Duration
	logger   *slog.Logger
	metrics  *observe.Metrics
}

// SchedulerOption is a functional option for configuring a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTickInterval overrides the polling period.
func WithTickInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.interval = d }
}

// WithSchedulerMetrics attaches metric instruments.
func WithSchedulerMetrics(m *observe.Metrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// NewScheduler creates a Scheduler over the given state.
func NewScheduler(state *State, logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		state:    state,
		interval: DefaultTickInterval,
		logger:   logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run drives the loop until ctx is cancelled. It always returns nil so it can
// sit in an errgroup without tearing down the process on shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Dispatch()
		}
	}
}

// Dispatch performs one scheduling pass. Exported so tests can tick the
// scheduler deterministically.
func (s *Scheduler) Dispatch() {
	for _, guildID := range s.state.GuildIDs() {
		conn := s.state.Connection(guildID)
		if conn == nil || !conn.IsConnected() || conn.IsPlaying() {
			continue
		}

		path, ok := s.state.PopNext(guildID)
		if !ok {
			continue
		}

		gid := guildID
		err := conn.Play(path, func(playErr error) {
			s.finish(gid, path, playErr)
		})
		if err != nil {
			// Play refused synchronously; the completion callback will not
			// fire, so clean up here.
			s.finish(gid, path, err)
			continue
		}
		if s.metrics != nil {
			s.metrics.PlaybackStarted.Add(context.Background(), 1)
		}
	}
}

// finish is the playback-completion path: delete the artifact (a missing
// file is fine) and log, never propagate, transport errors.
func (s *Scheduler) finish(guildID, path string, playErr error) {
	if playErr != nil {
		s.logger.Warn("playback failed", "guild_id", guildID, "artifact", path, "error", playErr)
		if s.metrics != nil {
			s.metrics.PlaybackErrors.Add(context.Background(), 1)
		}
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("artifact cleanup failed", "artifact", path, "error", err)
	}
}
