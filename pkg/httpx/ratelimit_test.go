package httpx_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/smartlegal/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func loginRequest(ip, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.RemoteAddr = ip + ":40000"
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIPKeyExtractor(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"remote addr", nil, "192.168.1.1"},
		{"first forwarded hop", map[string]string{"X-Forwarded-For": "203.0.113.1, 192.168.1.1"}, "203.0.113.1"},
		{"real ip", map[string]string{"X-Real-IP": " 203.0.113.2 "}, "203.0.113.2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tc.want, httpx.IPKeyExtractor(req))
		})
	}
}

func TestEmailKeyExtractor(t *testing.T) {
	t.Run("normalizes and restores the body", func(t *testing.T) {
		body := `{"email":"  Ana@Example.COM ","senha":"x"}`
		req := loginRequest("10.0.0.1", body)

		require.Equal(t, "ana@example.com", httpx.EmailKeyExtractor(req))

		rest, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.Equal(t, body, string(rest))
	})

	t.Run("no email", func(t *testing.T) {
		require.Empty(t, httpx.EmailKeyExtractor(loginRequest("10.0.0.1", `{"token":"abc"}`)))
		require.Empty(t, httpx.EmailKeyExtractor(loginRequest("10.0.0.1", `not json`)))
		require.Empty(t, httpx.EmailKeyExtractor(httptest.NewRequest(http.MethodGet, "/", nil)))
	})
}

func TestCredentialKeyExtractor(t *testing.T) {
	req := loginRequest("10.0.0.1", `{"email":"ana@example.com"}`)
	require.Equal(t, "10.0.0.1|ana@example.com", httpx.CredentialKeyExtractor(req))

	req = loginRequest("10.0.0.1", `{}`)
	require.Equal(t, "10.0.0.1", httpx.CredentialKeyExtractor(req), "falls back to the IP")
}

func TestUserKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	require.Empty(t, httpx.UserIDKeyExtractor(req))

	req = req.WithContext(httpx.WithIdentity(req.Context(), httpx.Identity{UserID: 42}))
	require.Equal(t, "42", httpx.UserIDKeyExtractor(req))
}

func TestRateLimitMiddleware(t *testing.T) {
	limit := httpx.RateLimit{Requests: 3, Window: time.Minute, Burst: 3}

	t.Run("rejects once the burst is spent", func(t *testing.T) {
		h := httpx.RateLimitByIP(limit)(okHandler())

		for i := range 3 {
			rec := serve(h, loginRequest("10.0.0.1", ""))
			require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		}

		rec := serve(h, loginRequest("10.0.0.1", ""))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Contains(t, rec.Body.String(), "rate_limit_exceeded")
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))

		require.Equal(t, http.StatusOK, serve(h, loginRequest("10.0.0.2", "")).Code, "other IPs are unaffected")
	})

	t.Run("empty key is not limited", func(t *testing.T) {
		h := httpx.RateLimitMiddleware(limit, func(*http.Request) string { return "" })(okHandler())
		for range 10 {
			require.Equal(t, http.StatusOK, serve(h, loginRequest("10.0.0.1", "")).Code)
		}
	})

	t.Run("refills over time", func(t *testing.T) {
		fast := httpx.RateLimit{Requests: 1, Window: 50 * time.Millisecond, Burst: 1}
		h := httpx.RateLimitByIP(fast)(okHandler())

		require.Equal(t, http.StatusOK, serve(h, loginRequest("10.0.0.1", "")).Code)
		require.Equal(t, http.StatusTooManyRequests, serve(h, loginRequest("10.0.0.1", "")).Code)

		time.Sleep(80 * time.Millisecond)
		require.Equal(t, http.StatusOK, serve(h, loginRequest("10.0.0.1", "")).Code)
	})
}

func TestRateLimitByCredential(t *testing.T) {
	limit := httpx.RateLimit{Requests: 2, Window: time.Minute, Burst: 2}
	var seen []string
	h := httpx.RateLimitByCredential(limit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = append(seen, string(b))
		w.WriteHeader(http.StatusOK)
	}))

	ana := `{"email":"ana@example.com"}`
	require.Equal(t, http.StatusOK, serve(h, loginRequest("10.0.0.1", ana)).Code)
	require.Equal(t, http.StatusOK, serve(h, loginRequest("10.0.0.1", `{"email":"ANA@example.com"}`)).Code)
	require.Equal(t, http.StatusTooManyRequests, serve(h, loginRequest("10.0.0.1", ana)).Code)

	require.Equal(t, http.StatusOK, serve(h, loginRequest("10.0.0.1", `{"email":"bia@example.com"}`)).Code)
	require.Equal(t, http.StatusOK, serve(h, loginRequest("10.0.0.9", ana)).Code)

	require.Equal(t, ana, seen[0], "handler still reads the body")
}

func TestRateLimitByUser(t *testing.T) {
	limit := httpx.RateLimit{Requests: 1, Window: time.Minute, Burst: 1}
	h := httpx.RateLimitByUser(limit)(okHandler())

	as := func(userID int64) *http.Request {
		req := loginRequest("10.0.0.1", "")
		return req.WithContext(httpx.WithIdentity(req.Context(), httpx.Identity{UserID: userID}))
	}

	require.Equal(t, http.StatusOK, serve(h, as(1)).Code)
	require.Equal(t, http.StatusTooManyRequests, serve(h, as(1)).Code)
	require.Equal(t, http.StatusOK, serve(h, as(2)).Code, "users behind one IP are limited separately")
}

func TestLoadRateLimits(t *testing.T) {
	env := map[string]string{
		"RATELIMIT_STRICT_REQUESTS":   "50",
		"RATELIMIT_STRICT_WINDOW_SEC": "10",
		"RATELIMIT_STRICT_BURST":      "7",
		"RATELIMIT_PUBLIC_REQUESTS":   "-1",
		"RATELIMIT_LENIENT_BURST":     "abc",
	}
	limits := httpx.LoadRateLimits(func(k string) string { return env[k] })
	defaults := httpx.DefaultRateLimits()

	require.Equal(t, httpx.RateLimit{Requests: 50, Window: 10 * time.Second, Burst: 7}, limits.Strict)
	require.Equal(t, defaults.Moderate, limits.Moderate)
	require.Equal(t, defaults.Lenient, limits.Lenient, "malformed values are ignored")
	require.Equal(t, defaults.Public, limits.Public, "non-positive values are ignored")

	require.Equal(t, httpx.RateLimit{Requests: 5, Window: time.Minute, Burst: 5}, defaults.Strict)
}
