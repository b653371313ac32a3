package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/smartlegal/internal/auth/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type auditLogsRepo struct {
	pool *pgxpool.Pool
}

func (r *auditLogsRepo) Append(ctx context.Context, e domain.AuditEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, event, actor_id, outcome, ip_address, user_agent, details, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Event, nullableActor(e.ActorID), e.Outcome, e.IP, e.UserAgent, e.Details, e.OccurredAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *auditLogsRepo) ListByActor(ctx context.Context, actorID int64, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, event, actor_id, outcome, ip_address, user_agent, details, occurred_at
		FROM audit_logs
		WHERE actor_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2`,
		actorID, limit,
	)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AuditEvent, error) {
		var (
			e     domain.AuditEvent
			actor *int64
		)
		err := row.Scan(&e.ID, &e.Event, &actor, &e.Outcome, &e.IP, &e.UserAgent, &e.Details, &e.OccurredAt)
		if actor != nil {
			e.ActorID = *actor
		}
		return e, err
	})
}

func (r *auditLogsRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
