package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/smartlegal/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

type memoryAuditLogs struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	block  chan struct{}
}

func (m *memoryAuditLogs) Append(_ context.Context, e domain.AuditEvent) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memoryAuditLogs) ListByActor(context.Context, int64, int) ([]domain.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditEvent(nil), m.events...), nil
}

func (m *memoryAuditLogs) DeleteBefore(context.Context, time.Time) (int64, error) { return 0, nil }

func TestAsyncAuditSink(t *testing.T) {
	ctx := context.Background()

	t.Run("close drains the queue", func(t *testing.T) {
		logs := &memoryAuditLogs{}
		sink := NewAsyncAuditSink(logs, slog.Default(), 8)

		sink.Record(ctx, NewAuditEvent(domain.EventLogin, 1, domain.OutcomeSuccess))
		sink.Record(ctx, domain.AuditEvent{Event: domain.EventLogout, ActorID: 1, Outcome: domain.OutcomeSuccess})
		sink.Close()

		events, _ := logs.ListByActor(ctx, 1, 10)
		require.Len(t, events, 2)
		require.NotEmpty(t, events[1].ID)
		require.False(t, events[1].OccurredAt.IsZero())
		require.Zero(t, sink.Dropped())
	})

	t.Run("full buffer drops", func(t *testing.T) {
		logs := &memoryAuditLogs{block: make(chan struct{})}
		sink := NewAsyncAuditSink(logs, slog.Default(), 1)

		for range 10 {
			sink.Record(ctx, NewAuditEvent(domain.EventLogin, 0, domain.OutcomeFailure))
		}
		require.Positive(t, sink.Dropped())

		close(logs.block)
		sink.Close()
		sink.Close()

		sink.Record(ctx, NewAuditEvent(domain.EventLogin, 0, domain.OutcomeFailure))
		events, _ := logs.ListByActor(ctx, 0, 10)
		require.Equal(t, uint64(10+1), sink.Dropped()+uint64(len(events)))
	})

	t.Run("writes to sqlite", func(t *testing.T) {
		f := newFixture(t)
		p := f.register(t, "ana@example.com")

		sink := NewAsyncAuditSink(f.store.AuditLogs(), slog.Default(), 0)
		e := NewAuditEvent(domain.EventPasswordChange, p.ID, domain.OutcomeSuccess)
		e.IP = "127.0.0.1"
		sink.Record(ctx, e)
		sink.Close()

		list, err := f.store.AuditLogs().ListByActor(ctx, p.ID, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, "127.0.0.1", list[0].IP)
	})
}

func TestHousekeeping_Cleanup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.register(t, "ana@example.com")

	old := NewAuditEvent(domain.EventLogin, p.ID, domain.OutcomeSuccess)
	old.OccurredAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, f.store.AuditLogs().Append(ctx, old))
	require.NoError(t, f.store.AuditLogs().Append(ctx, NewAuditEvent(domain.EventLogin, p.ID, domain.OutcomeSuccess)))

	hk := NewHousekeepingService(f.store, f.resets, slog.Default(), time.Hour, 24*time.Hour)
	swept := -1
	hk.OnSweep = func(n int) { swept = n }
	hk.Cleanup(ctx)
	require.Equal(t, 0, swept)

	list, err := f.store.AuditLogs().ListByActor(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	hk.Start()
	hk.Stop()
}
