package repository

import (
	"context"
	"time"

	"github.com/porton/gate-relay/internal/database"
	"github.com/porton/gate-relay/internal/model"
)

// CodeRepository stores access codes keyed by PIN.
type CodeRepository interface {
	List(ctx context.Context) ([]model.AccessCode, error)
	// FindByPIN returns nil, nil when no code has the PIN.
	FindByPIN(ctx context.Context, pin string) (*model.AccessCode, error)
	Create(ctx context.Context, code model.AccessCode) error
	Update(ctx context.Context, code model.AccessCode) error
	Delete(ctx context.Context, pin string) error
}

type codeRepo struct {
	db database.DBTX
}

// NewCodeRepository returns a CodeRepository over a postgres or sqlite connection.
func NewCodeRepository(db database.DBTX) CodeRepository {
	return &codeRepo{db: db}
}

func (r *codeRepo) List(ctx context.Context) ([]model.AccessCode, error) {
	codes := []model.AccessCode{}
	err := r.db.SelectContext(ctx, &codes, `
		SELECT pin, username, days, start_time, end_time, created_at, updated_at
		FROM access_codes
		ORDER BY pin
	`)
	return codes, err
}

func (r *codeRepo) FindByPIN(ctx context.Context, pin string) (*model.AccessCode, error) {
	var code model.AccessCode
	err := r.db.GetContext(ctx, &code, r.db.Rebind(`
		SELECT pin, username, days, start_time, end_time, created_at, updated_at
		FROM access_codes
		WHERE pin = ?
	`), pin)
	return HandleNotFound(&code, err)
}

func (r *codeRepo) Create(ctx context.Context, code model.AccessCode) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO access_codes (pin, username, days, start_time, end_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), code.PIN, code.Username, code.Days, code.StartTime, code.EndTime, now, now)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicatePIN
	}
	return err
}

func (r *codeRepo) Update(ctx context.Context, code model.AccessCode) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE access_codes
		SET username = ?, days = ?, start_time = ?, end_time = ?, updated_at = ?
		WHERE pin = ?
	`), code.Username, code.Days, code.StartTime, code.EndTime, time.Now().UTC(), code.PIN)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCodeNotFound
	}
	return nil
}

func (r *codeRepo) Delete(ctx context.Context, pin string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM access_codes WHERE pin = ?`), pin)
	return err
}
