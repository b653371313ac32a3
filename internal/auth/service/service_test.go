package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/smartlegal/internal/auth/domain"
	"github.com/aussiebroadwan/smartlegal/internal/auth/reset"
	"github.com/aussiebroadwan/smartlegal/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/smartlegal/pkg/cryptox"
	"github.com/aussiebroadwan/smartlegal/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "SmartLegalApi"
	testPassword = "senha123"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type sentReset struct {
	to    domain.Principal
	token string
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []sentReset
	err  error
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, to domain.Principal, token string, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentReset{to: to, token: token})
	return nil
}

func (n *captureNotifier) last(t *testing.T) sentReset {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent)
	return n.sent[len(n.sent)-1]
}

type fixture struct {
	store    *sqlite.Store
	hasher   *cryptox.PasswordHasher
	codec    *jwtx.Codec
	resets   *reset.Registry
	notifier *captureNotifier

	auth      *AuthService
	passwords *PasswordService
	users     *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	codec, err := jwtx.NewCodec(testSecret, testIssuer)
	require.NoError(t, err)

	hasher := cryptox.NewPasswordHasher("test-pepper")
	resets := reset.NewRegistry(reset.NewMemoryStore())
	notifier := &captureNotifier{}

	return &fixture{
		store:    st,
		hasher:   hasher,
		codec:    codec,
		resets:   resets,
		notifier: notifier,
		auth: &AuthService{
			Codec:      codec,
			Principals: st.Principals(),
			Hasher:     hasher,
			AccessTTL:  time.Hour,
			RefreshTTL: 24 * time.Hour,
		},
		passwords: &PasswordService{
			Principals: st.Principals(),
			Hasher:     hasher,
			Resets:     resets,
			Notifier:   notifier,
		},
		users: &UserService{Principals: st.Principals(), Hasher: hasher},
	}
}

func (f *fixture) register(t *testing.T, email string) domain.Principal {
	t.Helper()
	p, err := f.users.Register(context.Background(), Registration{
		Name:     "Ana Lima",
		Email:    email,
		Password: testPassword,
		OAB:      "sp123456",
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) deactivate(t *testing.T, id int64) {
	t.Helper()
	ctx := context.Background()
	p, err := f.store.Principals().FindByID(ctx, id)
	require.NoError(t, err)
	p.Active = false
	_, err = f.store.Principals().Save(ctx, p)
	require.NoError(t, err)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p := f.register(t, " Ana@Example.com ")
	require.Equal(t, "ana@example.com", p.Email)
	require.Equal(t, domain.RoleLawyer, p.Role)
	require.Equal(t, "SP123456", p.OAB)
	require.True(t, p.Active)
	require.NotEqual(t, testPassword, p.PasswordHash)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.users.Register(ctx, Registration{Email: "ana@example.com", Password: testPassword})
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := f.users.Register(ctx, Registration{Email: "not-an-email", Password: testPassword})
		require.ErrorIs(t, err, ErrInvalidEmail)
	})

	t.Run("creation policy", func(t *testing.T) {
		_, err := f.users.Register(ctx, Registration{Email: "short@example.com", Password: "12345"})
		require.ErrorIs(t, err, ErrPolicyViolation)

		var pe *cryptox.PolicyError
		require.True(t, errors.As(err, &pe))
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := f.users.GetUserByID(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, "Ana Lima", got.DisplayName)

		_, err = f.users.GetUserByID(ctx, 999)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.register(t, "ana@example.com")

	res, err := f.auth.Login(ctx, "ANA@example.com", testPassword)
	require.NoError(t, err)
	require.Equal(t, p.ID, res.Principal.ID)
	require.Equal(t, TokenTypeBearer, res.Tokens.TokenType)
	require.Equal(t, time.Hour, res.Tokens.ExpiresIn)

	access, err := f.codec.Verify(res.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, jwtx.KindAccess, access.Type)
	require.Equal(t, "ana@example.com", access.Subject)
	require.Equal(t, p.ID, access.UserID)
	require.Equal(t, domain.RoleLawyer, access.Role)
	require.Equal(t, testIssuer, access.Issuer)

	refresh, err := f.codec.Verify(res.Tokens.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, jwtx.KindRefresh, refresh.Type)
	require.Equal(t, p.ID, refresh.UserID)
	require.True(t, refresh.ExpiresAt.After(access.ExpiresAt.Time))

	failures := []struct {
		name, email, password string
	}{
		{"unknown email", "ghost@example.com", testPassword},
		{"wrong password", "ana@example.com", "wrong123"},
		{"empty password", "ana@example.com", ""},
	}
	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.auth.Login(ctx, tc.email, tc.password)
			require.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}

	t.Run("inactive principal", func(t *testing.T) {
		other := f.register(t, "inactive@example.com")
		f.deactivate(t, other.ID)

		_, err := f.auth.Login(ctx, "inactive@example.com", testPassword)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.register(t, "ana@example.com")

	res, err := f.auth.Login(ctx, "ana@example.com", testPassword)
	require.NoError(t, err)

	pair, err := f.auth.Refresh(ctx, res.Tokens.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, res.Tokens.RefreshToken, pair.RefreshToken, "refresh tokens are not rotated")

	v := f.auth.Validate(ctx, pair.AccessToken)
	require.True(t, v.Valid)
	require.Equal(t, p.ID, v.UserID)

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := f.auth.Refresh(ctx, res.Tokens.AccessToken)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := f.auth.Refresh(ctx, "not.a.token")
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		old := jwtx.NewRefreshClaims(p.Email, p.ID, testIssuer, time.Hour, time.Now().Add(-2*time.Hour))
		token, err := f.codec.Issue(old)
		require.NoError(t, err)

		_, err = f.auth.Refresh(ctx, token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("principal deactivated", func(t *testing.T) {
		f.deactivate(t, p.ID)
		_, err := f.auth.Refresh(ctx, res.Tokens.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "ana@example.com")

	res, err := f.auth.Login(ctx, "ana@example.com", testPassword)
	require.NoError(t, err)

	v := f.auth.Validate(ctx, res.Tokens.AccessToken)
	require.Equal(t, domain.Validation{
		Valid:  true,
		UserID: res.Principal.ID,
		Email:  "ana@example.com",
		Role:   domain.RoleLawyer,
	}, v)

	for name, token := range map[string]string{
		"empty":         "",
		"garbage":       "abc",
		"refresh token": res.Tokens.RefreshToken,
		"tampered":      res.Tokens.AccessToken + "x",
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, domain.Validation{}, f.auth.Validate(ctx, token))
		})
	}

	t.Run("other issuer", func(t *testing.T) {
		other, err := jwtx.NewCodec(testSecret, "someone-else")
		require.NoError(t, err)
		token, err := other.Issue(jwtx.NewAccessClaims("ana@example.com", 1, domain.RoleLawyer, "someone-else", time.Hour, time.Now()))
		require.NoError(t, err)
		require.False(t, f.auth.Validate(ctx, token).Valid)
	})

	t.Run("principal no longer exists", func(t *testing.T) {
		token, err := f.codec.Issue(jwtx.NewAccessClaims("ghost@example.com", 99, domain.RoleLawyer, testIssuer, time.Hour, time.Now()))
		require.NoError(t, err)
		require.Equal(t, domain.Validation{}, f.auth.Validate(ctx, token))
	})

	t.Run("role read from the store", func(t *testing.T) {
		p, err := f.store.Principals().FindByID(ctx, res.Principal.ID)
		require.NoError(t, err)
		p.Role = "SOCIO"
		_, err = f.store.Principals().Save(ctx, p)
		require.NoError(t, err)

		v := f.auth.Validate(ctx, res.Tokens.AccessToken)
		require.True(t, v.Valid)
		require.Equal(t, "SOCIO", v.Role)
	})

	t.Run("principal deactivated", func(t *testing.T) {
		f.deactivate(t, res.Principal.ID)
		require.Equal(t, domain.Validation{}, f.auth.Validate(ctx, res.Tokens.AccessToken))
	})
}

func TestLogin_RejectionsVerifyAHash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.Empty(t, f.auth.decoy)

	_, err := f.auth.Login(ctx, "ghost@example.com", testPassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.NotEmpty(t, f.auth.decoy, "unknown email pays for a hash check")
	require.True(t, f.hasher.Verify(decoyPassword, f.auth.decoy))

	g := newFixture(t)
	p := g.register(t, "ana@example.com")
	g.deactivate(t, p.ID)
	_, err = g.auth.Login(ctx, "ana@example.com", testPassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.NotEmpty(t, g.auth.decoy, "inactive principal pays for a hash check")
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.register(t, "ana@example.com")

	claims := jwtx.NewAccessClaims(p.Email, p.ID, p.Role, testIssuer, time.Hour, time.Now())
	id, err := f.auth.Resolve(ctx, claims)
	require.NoError(t, err)
	require.Equal(t, p.Identity(), id)

	_, err = f.auth.Resolve(ctx, jwtx.NewRefreshClaims(p.Email, p.ID, testIssuer, time.Hour, time.Now()))
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = f.auth.Resolve(ctx, jwtx.NewAccessClaims("ghost@example.com", 77, "", testIssuer, time.Hour, time.Now()))
	require.ErrorIs(t, err, ErrInvalidToken)
}
