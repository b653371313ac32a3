package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/smartlegal/pkg/slogx"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimit is a token bucket: Requests per Window, refilled continuously,
// with up to Burst requests at once.
type RateLimit struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// RateLimits groups the profiles the routes pick from.
type RateLimits struct {
	Strict   RateLimit // credential endpoints, keyed by caller and account
	Moderate RateLimit // refresh and password change
	Lenient  RateLimit // session reads and health checks
	Public   RateLimit // token validation polled by other services
}

// DefaultRateLimits returns the production profiles.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Strict:   RateLimit{Requests: 5, Window: time.Minute, Burst: 5},
		Moderate: RateLimit{Requests: 20, Window: time.Minute, Burst: 20},
		Lenient:  RateLimit{Requests: 100, Window: time.Minute, Burst: 100},
		Public:   RateLimit{Requests: 1000, Window: time.Minute, Burst: 1000},
	}
}

// LoadRateLimits overrides the defaults from RATELIMIT_<PROFILE>_REQUESTS,
// _WINDOW_SEC and _BURST, looked up through get. Non-positive or malformed
// values are ignored.
func LoadRateLimits(get func(key string) string) RateLimits {
	l := DefaultRateLimits()
	l.Strict = l.Strict.override(get, "STRICT")
	l.Moderate = l.Moderate.override(get, "MODERATE")
	l.Lenient = l.Lenient.override(get, "LENIENT")
	l.Public = l.Public.override(get, "PUBLIC")
	return l
}

func (rl RateLimit) override(get func(string) string, profile string) RateLimit {
	positive := func(field string) (int, bool) {
		n, err := strconv.Atoi(get("RATELIMIT_" + profile + "_" + field))
		return n, err == nil && n > 0
	}
	if n, ok := positive("REQUESTS"); ok {
		rl.Requests = n
	}
	if n, ok := positive("WINDOW_SEC"); ok {
		rl.Window = time.Duration(n) * time.Second
	}
	if n, ok := positive("BURST"); ok {
		rl.Burst = n
	}
	return rl
}

// refill is how long an idle bucket takes to fill up again. A bucket idle
// for that long is indistinguishable from a new one.
func (rl RateLimit) refill() time.Duration {
	d := time.Duration(float64(rl.Window) * float64(rl.Burst) / float64(rl.Requests))
	return max(d, rl.Window)
}

// KeyExtractor picks the bucket a request is charged to. An empty key
// means the request is not limited.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor returns the client IP, preferring X-Forwarded-For and
// X-Real-IP when the service runs behind a proxy.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// UserIDKeyExtractor returns the authenticated user id, or "".
func UserIDKeyExtractor(r *http.Request) string {
	return userIDFromCtx(r.Context())
}

// maxPeekBody bounds how much of a credential request is read to find the
// account it targets.
const maxPeekBody = 64 << 10

// EmailKeyExtractor returns the lower-cased "email" field of a JSON body,
// or "". The body is restored for the handler.
func EmailKeyExtractor(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ""
	}

	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}

// CompositeKeyExtractor joins the non-empty keys of extractors with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		var parts []string
		for _, extractor := range extractors {
			if key := extractor(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// CredentialKeyExtractor charges a request to the client IP and the account
// named in the body, so one account cannot be hammered from one address
// while unrelated logins from a shared NAT keep their own budget.
var CredentialKeyExtractor = CompositeKeyExtractor("|", IPKeyExtractor, EmailKeyExtractor)

// buckets holds one limiter per key. Idle buckets expire once they would
// have refilled completely.
type buckets struct {
	limit   RateLimit
	idle    time.Duration
	entries *cache.Cache
}

func newBuckets(limit RateLimit) *buckets {
	idle := limit.refill()
	return &buckets{
		limit:   limit,
		idle:    idle,
		entries: cache.New(idle, idle),
	}
}

func (b *buckets) get(key string) *rate.Limiter {
	if v, ok := b.entries.Get(key); ok {
		lim := v.(*rate.Limiter)
		b.entries.Set(key, lim, b.idle)
		return lim
	}

	every := rate.Limit(float64(b.limit.Requests) / b.limit.Window.Seconds())
	lim := rate.NewLimiter(every, b.limit.Burst)
	if err := b.entries.Add(key, lim, b.idle); err != nil {
		// Lost the race to another request for the same key.
		if v, ok := b.entries.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// RateLimitMiddleware rejects requests over limit with 429 and a
// Retry-After header. Requests are grouped by key.
func RateLimitMiddleware(limit RateLimit, key KeyExtractor) Middleware {
	b := newBuckets(limit)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			lim := b.get(k)
			if lim.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			res := lim.Reserve()
			retryAfter := max(int(res.Delay().Seconds()), 1)
			res.Cancel()

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"key", k,
				"endpoint", r.URL.Path,
				"retry_after", retryAfter,
			)

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
			w.Header().Set("X-RateLimit-Window", limit.Window.String())
			WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "rate_limit_exceeded",
				"error_description": "Muitas requisições. Tente novamente mais tarde.",
			})
		})
	}
}

// RateLimitByIP limits per client IP.
func RateLimitByIP(limit RateLimit) Middleware {
	return RateLimitMiddleware(limit, IPKeyExtractor)
}

// RateLimitByUser limits per authenticated user, falling back to the IP.
func RateLimitByUser(limit RateLimit) Middleware {
	return RateLimitMiddleware(limit, CompositeKeyExtractor(":", UserIDKeyExtractor, IPKeyExtractor))
}

// RateLimitByCredential limits per client IP and target account.
func RateLimitByCredential(limit RateLimit) Middleware {
	return RateLimitMiddleware(limit, CredentialKeyExtractor)
}
