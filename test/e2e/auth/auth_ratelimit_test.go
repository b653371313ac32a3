package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/smartlegal/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRateLimitLoginEndpoint verifies that login is rate limited per IP.
// This endpoint has strict limits (5 req/min) to prevent brute force attacks.
func TestRateLimitLoginEndpoint(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := authsdk.NewClient(baseURL)
	ctx := t.Context()

	// Make requests until we hit the rate limit (strict limit is 5 req/min)
	var lastErr error
	for i := range 6 {
		_, err := client.LoginRaw(ctx, "ghost@example.com", "wrong-password1")
		if i < 5 {
			assertAPIError(t, err, authsdk.ErrInvalidCredentials, "Invalid credentials should fail")
		} else {
			lastErr = err
		}
	}

	var apiErr *authsdk.APIError
	require.ErrorAs(t, lastErr, &apiErr)
	require.Equal(t, 429, apiErr.StatusCode, "Should be rate limited after 5 requests")
	require.Equal(t, authsdk.ErrorCodeRateLimited, apiErr.Code)
}

// TestRateLimitForgotPasswordEndpoint verifies the reset request is rate
// limited so it cannot be used to flood mailboxes.
func TestRateLimitForgotPasswordEndpoint(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := authsdk.NewClient(baseURL)

	var lastErr error
	for range 6 {
		_, lastErr = client.ForgotPassword(t.Context(), "ghost@example.com")
	}

	var apiErr *authsdk.APIError
	require.ErrorAs(t, lastErr, &apiErr)
	require.Equal(t, 429, apiErr.StatusCode)
}
