package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/porton/gate-relay/internal/database"
	"github.com/porton/gate-relay/internal/model"
)

// AccessLogRepository is the append-only history of open attempts.
type AccessLogRepository interface {
	Append(ctx context.Context, entry model.AccessLogEntry) error
	// ListRecent returns entries newest first.
	ListRecent(ctx context.Context, limit, offset int) ([]model.AccessLogEntry, error)
	// DeleteBefore removes entries older than cutoff and reports how many went.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type accessLogRepo struct {
	db database.DBTX
}

// NewAccessLogRepository returns an AccessLogRepository over a postgres or sqlite connection.
func NewAccessLogRepository(db database.DBTX) AccessLogRepository {
	return &accessLogRepo{db: db}
}

func (r *accessLogRepo) Append(ctx context.Context, entry model.AccessLogEntry) error {
	prepareEntry(&entry)
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO access_logs (id, occurred_at, pin, username, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?)
	`), entry.ID, entry.Timestamp, entry.PIN, entry.Username, entry.Success, entry.ErrorMessage)
	return err
}

func (r *accessLogRepo) ListRecent(ctx context.Context, limit, offset int) ([]model.AccessLogEntry, error) {
	entries := []model.AccessLogEntry{}
	err := r.db.SelectContext(ctx, &entries, r.db.Rebind(`
		SELECT id, occurred_at, pin, username, success, error_message
		FROM access_logs
		ORDER BY occurred_at DESC
		LIMIT ? OFFSET ?
	`), limit, offset)
	for i := range entries {
		entries[i].Timestamp = entries[i].Timestamp.UTC()
	}
	return entries, err
}

func (r *accessLogRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM access_logs WHERE occurred_at < ?
	`), cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// prepareEntry fills the id and timestamp when the caller left them empty
// and pins the timestamp to UTC.
func prepareEntry(entry *model.AccessLogEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.Timestamp = entry.Timestamp.UTC()
	if entry.Username == "" {
		entry.Username = model.UnknownUsername
	}
}
