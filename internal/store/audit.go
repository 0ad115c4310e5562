package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/techradar/apiserver/types"
)

// LoginAuditRepository appends login attempt records. Rows are never
// updated or deleted here.
type LoginAuditRepository struct {
	db *sql.DB
}

func NewLoginAuditRepository(db *sql.DB) *LoginAuditRepository {
	return &LoginAuditRepository{db: db}
}

func (r *LoginAuditRepository) Create(ctx context.Context, entry types.LoginAudit) error {
	if entry.AttemptedAt.IsZero() {
		entry.AttemptedAt = time.Now()
	}

	const query = `
		INSERT INTO login_audit (id, user_id, attempted_at, ip_address, user_agent, login_successful, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.UserID,
		entry.AttemptedAt,
		entry.IPAddress,
		entry.UserAgent,
		entry.Success,
		entry.FailureReason,
	)
	return err
}

// CountByUser reports how many attempts are recorded for a user, split by
// outcome.
func (r *LoginAuditRepository) CountByUser(ctx context.Context, userID string) (successes, failures int, err error) {
	const query = `
		SELECT COUNT(1) FILTER (WHERE login_successful),
			COUNT(1) FILTER (WHERE NOT login_successful)
		FROM login_audit
		WHERE user_id = $1`
	err = r.db.QueryRowContext(ctx, query, userID).Scan(&successes, &failures)
	return successes, failures, err
}
