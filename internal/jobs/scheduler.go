package jobs

import (
	"context"
	"fmt"
	"time"

	"exercise-service/internal/config"
	"exercise-service/internal/logging"

	"github.com/robfig/cron/v3"
)

type SessionSweeper interface {
	Sweep(maxIdle time.Duration) int
}

type LeaderboardPruner interface {
	Prune(ctx context.Context, at time.Time) (int, error)
}

// NewScheduler registers the housekeeping jobs. The caller starts and stops
// the returned cron.
func NewScheduler(cfg config.ExerciseConfig, sessions SessionSweeper, leaderboard LeaderboardPruner) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))

	if _, err := c.AddFunc(cfg.SessionSweepCron, SweepSessionsJob(sessions, cfg.SessionIdleTimeout)); err != nil {
		return nil, fmt.Errorf("invalid session sweep schedule %q: %w", cfg.SessionSweepCron, err)
	}
	logging.Info("Session sweep scheduled %q, idle timeout %s", cfg.SessionSweepCron, cfg.SessionIdleTimeout)

	if leaderboard != nil {
		if _, err := c.AddFunc(cfg.LeaderboardResetCron, PruneLeaderboardsJob(leaderboard)); err != nil {
			return nil, fmt.Errorf("invalid leaderboard reset schedule %q: %w", cfg.LeaderboardResetCron, err)
		}
		logging.Info("Leaderboard rollover scheduled %q", cfg.LeaderboardResetCron)
	}
	return c, nil
}

func SweepSessionsJob(sessions SessionSweeper, maxIdle time.Duration) func() {
	return func() {
		if n := sessions.Sweep(maxIdle); n > 0 {
			logging.Info("Closed %d idle runner sessions", n)
		}
	}
}

func PruneLeaderboardsJob(leaderboard LeaderboardPruner) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		n, err := leaderboard.Prune(ctx, time.Now())
		if err != nil {
			logging.Error("Leaderboard rollover failed after %d keys: %v", n, err)
			return
		}
		logging.Info("Leaderboard rollover removed %d past weeks", n)
	}
}
