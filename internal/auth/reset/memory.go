package reset

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/smartlegal/internal/auth/domain"
	"github.com/aussiebroadwan/smartlegal/pkg/cryptox"
	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps entries in process. Tokens do not survive a restart and
// are not shared between instances.
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewMemoryStore returns an empty store. The go-cache janitor is disabled;
// expired entries go when Sweep runs.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryStore) Put(_ context.Context, entry domain.ResetTokenEntry) error {
	d := time.Until(entry.ExpiresAt)
	if d <= 0 {
		d = cache.NoExpiration
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Set(cryptox.FingerprintToken(entry.Token), entry, d)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (domain.ResetTokenEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(cryptox.FingerprintToken(token))
	if !ok {
		return domain.ResetTokenEntry{}, ErrNotFound
	}
	return v.(domain.ResetTokenEntry), nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) (bool, error) {
	key := cryptox.FingerprintToken(token)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.cache.Get(key)
	s.cache.Delete(key)
	return ok, nil
}

func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.cache.ItemCount()
	s.cache.DeleteExpired()
	for key, item := range s.cache.Items() {
		if entry, ok := item.Object.(domain.ResetTokenEntry); ok && entry.Expired(now) {
			s.cache.Delete(key)
		}
	}
	return before - s.cache.ItemCount(), nil
}

// Len reports how many entries are held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.ItemCount()
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Flush()
	return nil
}

var _ Store = (*MemoryStore)(nil)
