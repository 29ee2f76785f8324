package twiliovoice

import (
	"context"
	"fmt"
	"sync"
)

// MockClient implements Sender for tests, recording every SMS and call.
type MockClient struct {
	mu           sync.Mutex
	From         string
	SMSErr       error
	CallErr      error
	SentMessages []SentMessage
	CreatedCalls []CreatedCall
}

// SentMessage records one SendSMS invocation.
type SentMessage struct {
	To   string
	Body string
}

// CreatedCall records one CreateCall invocation.
type CreatedCall struct {
	To                string
	WebhookURL        string
	StatusCallbackURL string
}

// NewMockClient creates a mock sender with the given from number.
func NewMockClient(from string) *MockClient {
	return &MockClient{From: from}
}

func (m *MockClient) SendSMS(_ context.Context, to string, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SMSErr != nil {
		return "", m.SMSErr
	}
	if to == m.From {
		return TestModeSID, nil
	}
	m.SentMessages = append(m.SentMessages, SentMessage{To: to, Body: body})
	return fmt.Sprintf("SM%04d", len(m.SentMessages)), nil
}

func (m *MockClient) CreateCall(_ context.Context, to, webhookURL, statusCallbackURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CallErr != nil {
		return "", m.CallErr
	}
	m.CreatedCalls = append(m.CreatedCalls, CreatedCall{To: to, WebhookURL: webhookURL, StatusCallbackURL: statusCallbackURL})
	return fmt.Sprintf("CA%04d", len(m.CreatedCalls)), nil
}

func (m *MockClient) FromNumber() string { return m.From }

// Sent returns a copy of the recorded SMS sends.
func (m *MockClient) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.SentMessages))
	copy(out, m.SentMessages)
	return out
}
