package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/porton/gate-relay/internal/errors"
	"github.com/porton/gate-relay/internal/model"
	"github.com/porton/gate-relay/internal/repository"
)

// LogService reads the access history for operators and applies the
// retention policy.
type LogService struct {
	logs repository.AccessLogRepository
	loc  *time.Location
}

func NewLogService(logs repository.AccessLogRepository, loc *time.Location) *LogService {
	if loc == nil {
		loc = time.UTC
	}
	return &LogService{logs: logs, loc: loc}
}

// ListRecent returns entries newest first with timestamps in the display zone.
func (s *LogService) ListRecent(ctx context.Context, limit, offset int) ([]model.AccessLogEntry, error) {
	entries, err := s.logs.ListRecent(ctx, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list access logs")
		return nil, apperrors.Store(err)
	}

	out := make([]model.AccessLogEntry, len(entries))
	for i, e := range entries {
		out[i] = e.In(s.loc)
	}
	return out, nil
}

// DeleteOlderThan removes entries recorded before now-age.
func (s *LogService) DeleteOlderThan(ctx context.Context, now time.Time, age time.Duration) (int64, error) {
	return s.logs.DeleteBefore(ctx, now.Add(-age).UTC())
}
