package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rileyzt/highiq-voiceagent/internal/models"
)

// InMemoryStore keeps the activity log in process memory. Used by tests
// and deployments that run without a database DSN.
type InMemoryStore struct {
	mu            sync.RWMutex
	calls         map[string]models.CallRecord
	conversations []models.ConversationLogEntry
	smsLogs       []models.SMSRecord
	nextConvID    int64
	nextSMSID     int64
}

// NewInMemoryStore creates an empty in-memory activity log.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{calls: make(map[string]models.CallRecord)}
}

// LogCall inserts or replaces the call keyed by SID.
func (s *InMemoryStore) LogCall(call models.CallRecord) error {
	if call.CallSID == "" {
		return models.ErrEmptyCallSID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.calls[call.CallSID]; ok {
		// Preserve flags an update does not carry.
		call.DemoRequested = call.DemoRequested || existing.DemoRequested
		if call.Duration == 0 {
			call.Duration = existing.Duration
		}
	}
	s.calls[call.CallSID] = call
	return nil
}

// UpdateCallStatus sets the call's status and duration.
func (s *InMemoryStore) UpdateCallStatus(callSID, status string, durationSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	call, ok := s.calls[callSID]
	if !ok {
		return fmt.Errorf("call %s not found", callSID)
	}
	call.Status = status
	call.Duration = durationSeconds
	s.calls[callSID] = call
	return nil
}

// MarkDemoRequested flags the call as demo-requested.
func (s *InMemoryStore) MarkDemoRequested(callSID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	call, ok := s.calls[callSID]
	if !ok {
		return fmt.Errorf("call %s not found", callSID)
	}
	call.DemoRequested = true
	s.calls[callSID] = call
	return nil
}

// LogConversation appends an exchange with an assigned ID.
func (s *InMemoryStore) LogConversation(entry models.ConversationLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextConvID++
	entry.ID = s.nextConvID
	s.conversations = append(s.conversations, entry)
	return nil
}

// LogSMS appends an SMS record with an assigned ID.
func (s *InMemoryStore) LogSMS(rec models.SMSRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSMSID++
	rec.ID = s.nextSMSID
	s.smsLogs = append(s.smsLogs, rec)
	return nil
}

// GetCalls returns calls most recent first.
func (s *InMemoryStore) GetCalls() ([]models.CallRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	calls := make([]models.CallRecord, 0, len(s.calls))
	for _, c := range s.calls {
		calls = append(calls, c)
	}
	sort.Slice(calls, func(i, j int) bool { return calls[i].CallDate.After(calls[j].CallDate) })
	return calls, nil
}

// GetConversations returns exchanges most recent first.
func (s *InMemoryStore) GetConversations() ([]models.ConversationLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ConversationLogEntry, len(s.conversations))
	copy(out, s.conversations)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// GetSMSLogs returns SMS records most recent first.
func (s *InMemoryStore) GetSMSLogs() ([]models.SMSRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SMSRecord, len(s.smsLogs))
	copy(out, s.smsLogs)
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }
