package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/smartlegal/internal/auth/domain"
	"github.com/aussiebroadwan/smartlegal/internal/auth/store"
)

const principalColumns = `id, email, password_hash, display_name, role, active, oab, phone, created_at, updated_at`

type principalsRepo struct {
	db *sql.DB
}

func (r *principalsRepo) FindByEmail(ctx context.Context, email string) (domain.Principal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE email = ?`,
		domain.NormalizeEmail(email),
	)
	return scanPrincipal(row)
}

func (r *principalsRepo) FindByID(ctx context.Context, id int64) (domain.Principal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE id = ?`,
		id,
	)
	return scanPrincipal(row)
}

func (r *principalsRepo) Save(ctx context.Context, p domain.Principal) (domain.Principal, error) {
	now := dbTime(time.Now())
	p.Email = domain.NormalizeEmail(p.Email)
	p.UpdatedAt = now

	if p.ID == 0 {
		p.CreatedAt = now
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO principals (email, password_hash, display_name, role, active, oab, phone, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Email, p.PasswordHash, p.DisplayName, p.Role, p.Active, p.OAB, p.Phone, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return domain.Principal{}, mapConstraint(err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return domain.Principal{}, err
		}
		return p, nil
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE principals
		SET email = ?, password_hash = ?, display_name = ?, role = ?, active = ?, oab = ?, phone = ?, updated_at = ?
		WHERE id = ?`,
		p.Email, p.PasswordHash, p.DisplayName, p.Role, p.Active, p.OAB, p.Phone, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return domain.Principal{}, mapConstraint(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Principal{}, err
	}
	if n == 0 {
		return domain.Principal{}, store.ErrNotFound
	}

	return r.FindByID(ctx, p.ID)
}

func scanPrincipal(row *sql.Row) (domain.Principal, error) {
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
