package postgres

import (
	"context"

	"github.com/aussiebroadwan/smartlegal/internal/auth/domain"
	"github.com/aussiebroadwan/smartlegal/internal/auth/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const principalColumns = `id, email, password_hash, display_name, role, active, oab, phone, created_at, updated_at`

type principalsRepo struct {
	pool *pgxpool.Pool
}

func (r *principalsRepo) FindByEmail(ctx context.Context, email string) (domain.Principal, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE email = $1`,
		domain.NormalizeEmail(email),
	)
	return scanPrincipal(row)
}

func (r *principalsRepo) FindByID(ctx context.Context, id int64) (domain.Principal, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE id = $1`,
		id,
	)
	return scanPrincipal(row)
}

func (r *principalsRepo) Save(ctx context.Context, p domain.Principal) (domain.Principal, error) {
	p.Email = domain.NormalizeEmail(p.Email)

	if p.ID == 0 {
		row := r.pool.QueryRow(ctx, `
			INSERT INTO principals (email, password_hash, display_name, role, active, oab, phone)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+principalColumns,
			p.Email, p.PasswordHash, p.DisplayName, p.Role, p.Active, p.OAB, p.Phone,
		)
		saved, err := scanPrincipal(row)
		if err != nil {
			return domain.Principal{}, mapConstraint(err)
		}
		return saved, nil
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE principals
		SET email = $1, password_hash = $2, display_name = $3, role = $4, active = $5,
		    oab = $6, phone = $7, updated_at = now()
		WHERE id = $8
		RETURNING `+principalColumns,
		p.Email, p.PasswordHash, p.DisplayName, p.Role, p.Active, p.OAB, p.Phone, p.ID,
	)
	saved, err := scanPrincipal(row)
	if err != nil {
		return domain.Principal{}, mapConstraint(err)
	}
	return saved, nil
}

func scanPrincipal(row pgx.Row) (domain.Principal, error) {
	var p domain.Principal
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.PasswordHash,
		&p.DisplayName,
		&p.Role,
		&p.Active,
		&p.OAB,
		&p.Phone,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.Principal{}, mapNotFound(err)
	}
	return p, nil
}

var _ store.Principals = (*principalsRepo)(nil)
