package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/smartlegal/internal/auth/domain"
	"github.com/aussiebroadwan/smartlegal/internal/auth/store"
	"github.com/aussiebroadwan/smartlegal/pkg/cryptox"
	"github.com/aussiebroadwan/smartlegal/pkg/slogx"
)

type UserService struct {
	Principals store.Principals
	Hasher     *cryptox.PasswordHasher
}

// Registration is the self-service sign-up of a lawyer.
type Registration struct {
	Name     string
	Email    string
	Password string
	OAB      string
	Phone    string
}

// Register creates an active principal with the lawyer role.
func (s *UserService) Register(ctx context.Context, r Registration) (domain.Principal, error) {
	email := domain.NormalizeEmail(r.Email)
	if !domain.ValidEmail(email) {
		return domain.Principal{}, ErrInvalidEmail
	}
	if err := cryptox.CreationPolicy.Validate(r.Password); err != nil {
		return domain.Principal{}, err
	}

	hash, err := s.Hasher.Hash(r.Password)
	if err != nil {
		return domain.Principal{}, err
	}

	p, err := s.Principals.Save(ctx, domain.Principal{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(r.Name),
		Role:         domain.RoleLawyer,
		Active:       true,
		OAB:          strings.ToUpper(strings.TrimSpace(r.OAB)),
		Phone:        strings.TrimSpace(r.Phone),
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Principal{}, ErrEmailTaken
		}
		return domain.Principal{}, err
	}

	slogx.FromContext(ctx).Info("principal registered", slog.Int64("user_id", p.ID))
	return p, nil
}

// GetUserByID fetches a principal by id.
func (s *UserService) GetUserByID(ctx context.Context, userID int64) (domain.Principal, error) {
	p, err := s.Principals.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Principal{}, ErrNotFound
	}
	return p, err
}
