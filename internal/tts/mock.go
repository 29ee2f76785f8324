package tts

import (
	"context"
	"fmt"
	"sync"
)

// MockSynthesizer implements Synthesizer for tests.
type MockSynthesizer struct {
	mu       sync.Mutex
	Err      error
	Requests []string
}

// SpeakToURL records the text and returns a deterministic fake URL.
func (m *MockSynthesizer) SpeakToURL(_ context.Context, text, callSID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.Requests = append(m.Requests, text)
	return fmt.Sprintf("http://localhost/audio/mock_%s_%d.mp3", callSID, len(m.Requests)), nil
}

// Healthy reports the configured error.
func (m *MockSynthesizer) Healthy() error { return m.Err }
