package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/smartlegal/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestSessionLifecycle covers register, login, refresh, validate, me and
// logout against a running container.
func TestSessionLifecycle(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewClient(baseURL)
	ctx := t.Context()

	reg := registerLawyer(t, client, "ana@example.com")

	login, err := client.LoginRaw(ctx, "ana@example.com", testPassword)
	require.NoError(t, err)
	assertTokenResponse(t, &login.TokenResponse)
	require.Equal(t, reg.ID, login.UserID)
	require.Equal(t, "ADVOGADO", login.Role)
	require.Equal(t, int64(86400), login.ExpiresIn)

	refreshed, err := client.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assertTokenResponse(t, refreshed)
	require.Equal(t, login.RefreshToken, refreshed.RefreshToken, "refresh tokens are not rotated")

	v, err := client.Validate(ctx, refreshed.AccessToken)
	require.NoError(t, err)
	require.True(t, v.Valid)
	require.Equal(t, reg.ID, v.UserID)

	session := client.NewSession(*refreshed)
	me, err := session.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, testName, me.Name)
	require.Equal(t, testOAB, me.OAB)

	_, err = session.Logout(ctx)
	require.NoError(t, err)
}

// TestInvalidCredentials verifies that login with a wrong password or an
// unknown email is rejected the same way.
func TestInvalidCredentials(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewClient(baseURL)
	registerLawyer(t, client, "ana@example.com")

	_, err := client.LoginRaw(t.Context(), "ana@example.com", "wrong-password1")
	assertAPIError(t, err, authsdk.ErrInvalidCredentials, "Invalid password should be rejected")

	_, err = client.LoginRaw(t.Context(), "ghost@example.com", testPassword)
	assertAPIError(t, err, authsdk.ErrInvalidCredentials, "Unknown email should be rejected")
}

// TestInvalidAccessToken verifies that protected routes reject bad tokens
// and refresh tokens used as bearer credentials.
func TestInvalidAccessToken(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewClient(baseURL)
	registerLawyer(t, client, "ana@example.com")
	login, err := client.LoginRaw(t.Context(), "ana@example.com", testPassword)
	require.NoError(t, err)

	invalid := client.NewSession(authsdk.TokenResponse{AccessToken: "invalid-token-12345", ExpiresIn: 3600})
	_, err = invalid.Me(t.Context())
	assertAPIError(t, err, authsdk.ErrUnauthorized, "Invalid token should be rejected")

	refreshAsBearer := client.NewSession(authsdk.TokenResponse{AccessToken: login.RefreshToken, ExpiresIn: 3600})
	_, err = refreshAsBearer.Me(t.Context())
	assertAPIError(t, err, authsdk.ErrUnauthorized, "Refresh token must not authenticate requests")

	_, err = client.Refresh(t.Context(), login.AccessToken)
	assertAPIError(t, err, authsdk.ErrInvalidToken, "Access token must not refresh")

	v, err := client.Validate(t.Context(), login.RefreshToken)
	require.NoError(t, err)
	require.False(t, v.Valid)
}
