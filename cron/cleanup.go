package cron

import (
	"context"

	"go.uber.org/zap"

	robfig "github.com/robfig/cron/v3"
)

// SessionSweeper is the part of the orchestrator the cleanup job drives.
type SessionSweeper interface {
	CleanupInactiveSessions(ctx context.Context) int
}

// StartSessionCleanup runs the sweeper on schedule (a cron expression such as "@every 10m").
// The returned scheduler must be stopped on shutdown.
func StartSessionCleanup(ctx context.Context, schedule string, sweeper SessionSweeper, logger *zap.Logger) (*robfig.Cron, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schedule == "" {
		schedule = "@every 10m"
	}

	c := robfig.New(robfig.WithChain(robfig.Recover(robfig.DefaultLogger)))
	_, err := c.AddFunc(schedule, func() {
		if ctx.Err() != nil {
			return
		}
		if n := sweeper.CleanupInactiveSessions(ctx); n > 0 {
			logger.Info("Session cleanup finished", zap.Int("evicted", n))
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logger.Info("Session cleanup scheduled", zap.String("schedule", schedule))
	return c, nil
}
