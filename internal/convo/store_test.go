package convo

import (
	"fmt"
	"testing"
	"time"

	"github.com/rileyzt/highiq-voiceagent/internal/models"
)

func TestMemoryStoreGetOrCreate(t *testing.T) {
	s := NewMemoryStore()

	rec := s.GetOrCreate("CA001")
	if rec.Context.Stage != models.StageGreeting {
		t.Errorf("new record stage = %q, want %q", rec.Context.Stage, models.StageGreeting)
	}
	if s.ActiveCount() != 1 {
		t.Errorf("ActiveCount() = %d, want 1", s.ActiveCount())
	}

	// Same SID returns the same record.
	again := s.GetOrCreate("CA001")
	if again != rec {
		t.Error("GetOrCreate returned a different record for the same SID")
	}
}

func TestMemoryStoreAppendTruncatesHistory(t *testing.T) {
	s := NewMemoryStore()

	for i := 0; i < maxHistory+6; i++ {
		s.Append("CA001", models.RoleCaller, fmt.Sprintf("turn %d", i))
	}

	msgs, _, ok := s.snapshot("CA001")
	if !ok {
		t.Fatal("snapshot() not found after appends")
	}
	if len(msgs) != maxHistory {
		t.Fatalf("history length = %d, want %d", len(msgs), maxHistory)
	}
	// Oldest turns are dropped, the most recent kept.
	if msgs[0].Text != "turn 6" {
		t.Errorf("oldest kept turn = %q, want %q", msgs[0].Text, "turn 6")
	}
	if msgs[len(msgs)-1].Text != fmt.Sprintf("turn %d", maxHistory+5) {
		t.Errorf("newest turn = %q, want %q", msgs[len(msgs)-1].Text, fmt.Sprintf("turn %d", maxHistory+5))
	}
}

func TestMemoryStoreClear(t *testing.T) {
	s := NewMemoryStore()
	s.Append("CA001", models.RoleCaller, "hello")

	if !s.Clear("CA001") {
		t.Error("Clear() = false for existing record")
	}
	if s.Clear("CA001") {
		t.Error("Clear() = true for already-removed record")
	}
	if s.ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d after clear, want 0", s.ActiveCount())
	}
}

func TestMemoryStoreEvictStale(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	current := base
	s := NewMemoryStore(WithClock(func() time.Time { return current }))

	s.Append("CAold", models.RoleCaller, "hello")
	current = base.Add(30 * time.Minute)
	s.Append("CAnew", models.RoleCaller, "hello")

	now := base.Add(61 * time.Minute)
	if evicted := s.EvictStale(now, DefaultMaxAge); evicted != 1 {
		t.Fatalf("EvictStale() = %d, want 1", evicted)
	}
	if s.Summary("CAold") != nil {
		t.Error("stale conversation still present after sweep")
	}
	if s.Summary("CAnew") == nil {
		t.Error("fresh conversation dropped by sweep")
	}

	// A second sweep with the same inputs evicts nothing.
	if evicted := s.EvictStale(now, DefaultMaxAge); evicted != 0 {
		t.Errorf("second EvictStale() = %d, want 0", evicted)
	}
}

func TestMemoryStoreSummary(t *testing.T) {
	s := NewMemoryStore()

	if s.Summary("CAmissing") != nil {
		t.Error("Summary() for unknown SID should be nil")
	}
	if s.ActiveCount() != 0 {
		t.Error("Summary() created a record for an unknown SID")
	}

	for i := 0; i < 6; i++ {
		s.Append("CA001", models.RoleCaller, fmt.Sprintf("turn %d", i))
	}
	s.UpdateContext("CA001", func(rec *Record) {
		rec.Context.KeyPoints = []models.PainPoint{models.PainHighVolume}
	})

	sum := s.Summary("CA001")
	if sum == nil {
		t.Fatal("Summary() = nil for existing record")
	}
	if sum.MessageCount != 6 {
		t.Errorf("MessageCount = %d, want 6", sum.MessageCount)
	}
	if len(sum.RecentMessages) != summaryTail {
		t.Fatalf("RecentMessages length = %d, want %d", len(sum.RecentMessages), summaryTail)
	}
	if sum.RecentMessages[0].Text != "turn 2" {
		t.Errorf("first recent message = %q, want %q", sum.RecentMessages[0].Text, "turn 2")
	}

	// Mutating the summary must not leak into the store.
	sum.RecentMessages[0].Text = "mutated"
	sum.Context.KeyPoints[0] = models.PainStaffing
	fresh := s.Summary("CA001")
	if fresh.RecentMessages[0].Text != "turn 2" {
		t.Error("summary mutation leaked into stored messages")
	}
	if fresh.Context.KeyPoints[0] != models.PainHighVolume {
		t.Error("summary mutation leaked into stored key points")
	}
}
