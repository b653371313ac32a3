package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/smartlegal/internal/auth/domain"
	"github.com/aussiebroadwan/smartlegal/internal/auth/reset"
	"github.com/aussiebroadwan/smartlegal/internal/auth/store"
	"github.com/aussiebroadwan/smartlegal/pkg/cryptox"
	"github.com/aussiebroadwan/smartlegal/pkg/slogx"
)

const (
	MessageResetSent     = "Email com instruções para reset de senha foi enviado"
	MessagePasswordReset = "Senha resetada com sucesso. Faça login com sua nova senha."
	MessagePasswordSaved = "Senha alterada com sucesso"
)

// ResetNotifier delivers a reset token to its owner out of band.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, to domain.Principal, token string, ttl time.Duration) error
}

// ForgotResult is returned by ForgotPassword. Token is only set when the
// service runs with ExposeResetToken.
type ForgotResult struct {
	Message string
	Token   string
}

type PasswordService struct {
	Principals store.Principals
	Hasher     *cryptox.PasswordHasher
	Resets     *reset.Registry
	Notifier   ResetNotifier

	// ExposeResetToken returns the raw reset token to the caller. Only for
	// development setups without mail delivery.
	ExposeResetToken bool
}

// ChangePassword replaces the password of an authenticated principal after
// checking the current one.
func (s *PasswordService) ChangePassword(ctx context.Context, userID int64, current, next, confirm string) error {
	p, err := s.Principals.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !s.Hasher.Verify(current, p.PasswordHash) {
		slogx.FromContext(ctx).Info("password change rejected: wrong current password", slog.Int64("user_id", userID))
		return ErrInvalidCredentials
	}

	if err := checkNewPassword(next, confirm); err != nil {
		return err
	}
	if next == current {
		return policyError("new password must differ from the current one")
	}

	return s.persist(ctx, p, next)
}

// ForgotPassword issues a reset token for the principal behind email and
// hands it to the notifier. An unknown email fails with ErrNotFound.
func (s *PasswordService) ForgotPassword(ctx context.Context, email string) (ForgotResult, error) {
	l := slogx.FromContext(ctx)

	p, err := s.Principals.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Warn("password reset requested for unknown email")
			return ForgotResult{}, ErrNotFound
		}
		return ForgotResult{}, err
	}

	token, err := s.Resets.Generate(ctx, p.ID, p.Email)
	if err != nil {
		return ForgotResult{}, fmt.Errorf("generate reset token: %w", err)
	}

	if s.Notifier != nil {
		if err := s.Notifier.SendPasswordReset(ctx, p, token, s.Resets.TTL()); err != nil {
			_ = s.Resets.Invalidate(ctx, token)
			return ForgotResult{}, fmt.Errorf("deliver reset token: %w", err)
		}
	}

	l.Info("reset token issued", slog.Int64("user_id", p.ID), slog.Duration("ttl", s.Resets.TTL()))

	res := ForgotResult{Message: MessageResetSent}
	if s.ExposeResetToken {
		res.Token = token
	}
	return res, nil
}

// ResetPassword sets a new password using a reset token. The token is
// consumed only once the new hash has been stored; a rejected password
// leaves it redeemable.
func (s *PasswordService) ResetPassword(ctx context.Context, token, next, confirm string) error {
	err := s.Resets.Redeem(ctx, token, func(userID int64) error {
		p, err := s.Principals.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := checkNewPassword(next, confirm); err != nil {
			return err
		}
		return s.persist(ctx, p, next)
	})
	if errors.Is(err, reset.ErrInvalidToken) {
		return ErrInvalidToken
	}
	return err
}

func (s *PasswordService) persist(ctx context.Context, p domain.Principal, password string) error {
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return err
	}

	p.PasswordHash = hash
	if _, err := s.Principals.Save(ctx, p); err != nil {
		return fmt.Errorf("save principal: %w", err)
	}

	slogx.FromContext(ctx).Info("password updated", slog.Int64("user_id", p.ID))
	return nil
}

func checkNewPassword(next, confirm string) error {
	if next != confirm {
		return policyError("passwords do not match")
	}
	return cryptox.ChangePolicy.Validate(next)
}
