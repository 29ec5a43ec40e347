// KaungMyatLinn | 2026
// recorder.go

package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kaungmyat1inn/digitalmartpos/internal/events"
)

const persistTimeout = 5 * time.Second

// Recorder accepts entries from request paths and persists them off the hot
// path. Record never blocks and never returns an error: audit persistence
// failures must not fail the business operation that triggered them. A single
// writer goroutine drains the buffer, which keeps per-tenant entry order equal
// to submission order.
type Recorder struct {
	repo    Repository
	bus     *events.Bus[Entry]
	logger  *slog.Logger
	entries chan Entry
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewRecorder(
	repo Repository,
	bus *events.Bus[Entry],
	bufferSize int,
	logger *slog.Logger,
) *Recorder {
	if bufferSize < 1 {
		bufferSize = 1
	}

	r := &Recorder{
		repo:    repo,
		bus:     bus,
		logger:  logger,
		entries: make(chan Entry, bufferSize),
		done:    make(chan struct{}),
	}

	go r.run()

	return r
}

// Record submits an entry for persistence. Missing ID and timestamp are
// filled here so callers only describe what happened. If the buffer is full
// the entry is dropped and logged; the caller is never slowed down.
func (r *Recorder) Record(entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Status == "" {
		entry.Status = StatusSuccess
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.logger.Warn("audit entry submitted after shutdown",
			"action", entry.Action,
			"tenant_id", entry.TenantID,
		)
		return
	}

	select {
	case r.entries <- entry:
	default:
		r.logger.Warn("audit buffer full, entry dropped",
			"action", entry.Action,
			"tenant_id", entry.TenantID,
			"user_id", entry.UserID,
		)
	}
}

func (r *Recorder) run() {
	defer close(r.done)

	for entry := range r.entries {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		err := r.repo.Append(ctx, &entry)
		cancel()

		if err != nil {
			r.logger.Error("audit entry persistence failed",
				"action", entry.Action,
				"tenant_id", entry.TenantID,
				"user_id", entry.UserID,
				"error", err,
			)
			continue
		}

		if r.bus != nil {
			r.bus.Publish(entry)
		}
	}
}

// Close stops accepting entries and drains whatever is already buffered
// before returning. Safe to call more than once.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	close(r.entries)
	<-r.done
}
