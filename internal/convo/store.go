package convo

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rileyzt/highiq-voiceagent/internal/models"
)

const (
	// maxHistory caps per-call memory at 16 turns (8 exchanges).
	maxHistory = 16
	// DefaultMaxAge is how long an idle conversation survives before the
	// eviction sweep drops it.
	DefaultMaxAge = time.Hour
	// summaryTail is how many recent turns a summary includes.
	summaryTail = 4
)

// Record is the volatile per-call conversation state.
type Record struct {
	Messages    []models.Turn
	Context     models.ConversationContext
	LastUpdated time.Time
}

// MemoryStore keeps conversation records in memory, keyed by call SID.
// It is safe for concurrent use. Records are never persisted; a terminal
// call status or the hourly sweep removes them.
type MemoryStore struct {
	mu    sync.RWMutex
	calls map[string]*Record
	now   func() time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithClock overrides the store's time source. Used by tests.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates an empty conversation store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		calls: make(map[string]*Record),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate returns the record for the call, creating a fresh one in the
// greeting stage when the SID is new.
func (s *MemoryStore) GetOrCreate(callSID string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(callSID)
}

func (s *MemoryStore) getOrCreateLocked(callSID string) *Record {
	rec, ok := s.calls[callSID]
	if !ok {
		rec = &Record{
			Context:     models.ConversationContext{Stage: models.StageGreeting},
			LastUpdated: s.now(),
		}
		s.calls[callSID] = rec
		slog.Debug("MemoryStore.GetOrCreate: created conversation memory", "callSID", callSID)
	}
	return rec
}

// Append adds a turn to the call's history, truncating to the most recent
// maxHistory turns and refreshing the eviction timestamp.
func (s *MemoryStore) Append(callSID string, role models.Role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.getOrCreateLocked(callSID)
	rec.Messages = append(rec.Messages, models.Turn{Role: role, Text: text, CreatedAt: s.now()})
	if len(rec.Messages) > maxHistory {
		rec.Messages = rec.Messages[len(rec.Messages)-maxHistory:]
	}
	rec.LastUpdated = s.now()
	slog.Debug("MemoryStore.Append: added turn", "callSID", callSID, "role", role, "messages", len(rec.Messages))
}

// UpdateContext applies fn to the call's context under the store lock.
func (s *MemoryStore) UpdateContext(callSID string, fn func(rec *Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.getOrCreateLocked(callSID))
}

// Clear removes the call's record. It reports whether a record existed.
func (s *MemoryStore) Clear(callSID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calls[callSID]; !ok {
		return false
	}
	delete(s.calls, callSID)
	slog.Debug("MemoryStore.Clear: removed conversation memory", "callSID", callSID)
	return true
}

// EvictStale removes every record idle longer than maxAge and returns how
// many were dropped. Calling it repeatedly with the same inputs is a no-op
// after the first pass.
func (s *MemoryStore) EvictStale(now time.Time, maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-maxAge)
	evicted := 0
	for sid, rec := range s.calls {
		if rec.LastUpdated.Before(cutoff) {
			delete(s.calls, sid)
			evicted++
			slog.Debug("MemoryStore.EvictStale: dropped stale conversation", "callSID", sid)
		}
	}
	if evicted > 0 {
		slog.Info("MemoryStore.EvictStale: sweep complete", "evicted", evicted, "remaining", len(s.calls))
	}
	return evicted
}

// Summary returns a diagnostic view of the call's memory, or nil when no
// record exists. It never creates a record.
func (s *MemoryStore) Summary(callSID string) *models.ConversationSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.calls[callSID]
	if !ok {
		return nil
	}
	tail := rec.Messages
	if len(tail) > summaryTail {
		tail = tail[len(tail)-summaryTail:]
	}
	recent := make([]models.Turn, len(tail))
	copy(recent, tail)
	ctx := rec.Context
	ctx.KeyPoints = append([]models.PainPoint(nil), rec.Context.KeyPoints...)
	return &models.ConversationSummary{
		CallSID:        callSID,
		MessageCount:   len(rec.Messages),
		Context:        ctx,
		LastUpdated:    rec.LastUpdated,
		RecentMessages: recent,
	}
}

// ActiveCount returns how many conversations are currently in memory.
func (s *MemoryStore) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.calls)
}

// snapshot returns copies of the call's history and context for use outside
// the lock. ok is false when the record does not exist.
func (s *MemoryStore) snapshot(callSID string) (msgs []models.Turn, ctx models.ConversationContext, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, found := s.calls[callSID]
	if !found {
		return nil, models.ConversationContext{}, false
	}
	msgs = make([]models.Turn, len(rec.Messages))
	copy(msgs, rec.Messages)
	ctx = rec.Context
	ctx.KeyPoints = append([]models.PainPoint(nil), rec.Context.KeyPoints...)
	return msgs, ctx, true
}
