package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/porton/gate-relay/internal/clock"
)

// LogPurger deletes access log entries older than a given age.
type LogPurger interface {
	DeleteOlderThan(ctx context.Context, now time.Time, age time.Duration) (int64, error)
}

// RetentionJob periodically trims the access log to the retention window.
type RetentionJob struct {
	logs      LogPurger
	clock     clock.Clock
	retention time.Duration
	interval  time.Duration
}

func NewRetentionJob(logs LogPurger, clk clock.Clock, retention, interval time.Duration) *RetentionJob {
	return &RetentionJob{
		logs:      logs,
		clock:     clk,
		retention: retention,
		interval:  interval,
	}
}

// Run purges once immediately and then on every tick until ctx is done.
func (j *RetentionJob) Run(ctx context.Context) error {
	if j.retention <= 0 {
		log.Info().Msg("log retention disabled, keeping all entries")
		return nil
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	log.Info().
		Dur("interval", j.interval).
		Dur("retention", j.retention).
		Msg("retention job started")

	j.purge(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("retention job stopped")
			return nil
		case <-ticker.C:
			j.purge(ctx)
		}
	}
}

func (j *RetentionJob) purge(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	count, err := j.logs.DeleteOlderThan(ctx, j.clock.Now(), j.retention)
	if err != nil {
		log.Error().Err(err).Msg("failed to purge access logs")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("purged expired access logs")
	}
}
