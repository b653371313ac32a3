package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/smartlegal/internal/auth/domain"
	"github.com/aussiebroadwan/smartlegal/internal/auth/store"
	"github.com/aussiebroadwan/smartlegal/pkg/idx"
)

// DefaultAuditBuffer is the queue size of an AsyncAuditSink.
const DefaultAuditBuffer = 256

const auditWriteTimeout = 5 * time.Second

// AuditSink records security events. Recording never fails the request
// that triggered it.
type AuditSink interface {
	Record(ctx context.Context, e domain.AuditEvent)
}

// NewAuditEvent stamps an event with a fresh id and the current time.
func NewAuditEvent(event string, actorID int64, outcome string) domain.AuditEvent {
	return domain.AuditEvent{
		ID:         idx.New().String(),
		Event:      event,
		ActorID:    actorID,
		Outcome:    outcome,
		OccurredAt: time.Now().UTC(),
	}
}

// AsyncAuditSink queues events and writes them from a single worker. When
// the queue is full new events are dropped and counted.
type AsyncAuditSink struct {
	logs   store.AuditLogs
	logger *slog.Logger

	mu      sync.RWMutex
	closed  bool
	events  chan domain.AuditEvent
	done    chan struct{}
	dropped atomic.Uint64
}

func NewAsyncAuditSink(logs store.AuditLogs, logger *slog.Logger, buffer int) *AsyncAuditSink {
	if buffer <= 0 {
		buffer = DefaultAuditBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &AsyncAuditSink{
		logs:   logs,
		logger: logger,
		events: make(chan domain.AuditEvent, buffer),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *AsyncAuditSink) Record(_ context.Context, e domain.AuditEvent) {
	if _, err := idx.Parse(e.ID); err != nil {
		e.ID = idx.New().String()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.dropped.Add(1)
		return
	}

	select {
	case s.events <- e:
	default:
		s.dropped.Add(1)
		s.logger.Warn("audit buffer full, event dropped", slog.String("event", e.Event))
	}
}

// Dropped reports how many events never reached the store.
func (s *AsyncAuditSink) Dropped() uint64 { return s.dropped.Load() }

// Close stops accepting events and waits for the queue to drain.
func (s *AsyncAuditSink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()

	<-s.done
}

func (s *AsyncAuditSink) run() {
	defer close(s.done)

	for e := range s.events {
		ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
		if err := s.logs.Append(ctx, e); err != nil {
			s.logger.Error("failed to write audit event",
				slog.String("event", e.Event),
				slog.String("audit_id", e.ID),
				slog.Any("error", err),
			)
		}
		cancel()
	}
}

var _ AuditSink = (*AsyncAuditSink)(nil)
