package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/smartlegal/internal/auth/domain"
)

type auditLogsRepo struct {
	db *sql.DB
}

func (r *auditLogsRepo) Append(ctx context.Context, e domain.AuditEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, event, actor_id, outcome, ip_address, user_agent, details, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Event, mapInt64Null(e.ActorID), e.Outcome, e.IP, e.UserAgent, e.Details, dbTime(e.OccurredAt),
	)
	return mapConstraint(err)
}

func (r *auditLogsRepo) ListByActor(ctx context.Context, actorID int64, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event, actor_id, outcome, ip_address, user_agent, details, occurred_at
		FROM audit_logs
		WHERE actor_id = ?
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?`,
		actorID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEvent
	for rows.Next() {
		var (
			e     domain.AuditEvent
			actor sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.Event, &actor, &e.Outcome, &e.IP, &e.UserAgent, &e.Details, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.ActorID = mapNullInt64(actor)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *auditLogsRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM audit_logs WHERE occurred_at < ?`, dbTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
