package slogx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/smartlegal/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var inner *slog.Logger
	h := slogx.HTTPMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = slogx.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("generates a request id", func(t *testing.T) {
		buf.Reset()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

		require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		require.NotNil(t, inner)

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "http_request", line["msg"])
		require.EqualValues(t, http.StatusTeapot, line["status"])
		require.Equal(t, rec.Header().Get("X-Request-ID"), line["req_id"])
	})

	t.Run("reuses the caller's id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		h.ServeHTTP(rec, req)
		require.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	})
}

func TestWithUser(t *testing.T) {
	var buf bytes.Buffer
	ctx := slogx.WithContext(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	slogx.FromContext(slogx.WithUser(ctx, 42)).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.EqualValues(t, 42, line["user_id"])
}

func TestFromContextDefault(t *testing.T) {
	require.Equal(t, slog.Default(), slogx.FromContext(context.Background()))
}

func TestNew(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	decode := func(t *testing.T, buf *bytes.Buffer) map[string]any {
		t.Helper()
		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		return line
	}

	t.Run("redacts credentials outside dev", func(t *testing.T) {
		var buf bytes.Buffer
		l := slogx.New(slogx.Config{Service: "svc", Env: "prod", Output: &buf})
		l.Info("reset", "token", "tok_123", "user_id", 7)

		line := decode(t, &buf)
		require.Equal(t, slogx.Redacted, line["token"])
		require.EqualValues(t, 7, line["user_id"])
		require.Equal(t, "svc", line["service"])
	})

	t.Run("keeps them in dev", func(t *testing.T) {
		var buf bytes.Buffer
		l := slogx.New(slogx.Config{Env: "dev", Output: &buf})
		l.Warn("reset", "token", "tok_123")

		require.Equal(t, "tok_123", decode(t, &buf)["token"])
	})

	t.Run("level filter", func(t *testing.T) {
		var buf bytes.Buffer
		l := slogx.New(slogx.Config{Env: "prod", Level: "warn", Output: &buf})
		l.Info("dropped")
		require.Zero(t, buf.Len())
	})
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, slogx.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, slogx.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, slogx.ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, slogx.ParseLevel("nonsense"))
}
