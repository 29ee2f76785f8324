package convo

import (
	"context"
	"errors"
	"testing"

	"github.com/rileyzt/highiq-voiceagent/internal/genai"
	"github.com/rileyzt/highiq-voiceagent/internal/models"
)

func TestGenerateReplyValidation(t *testing.T) {
	tests := []struct {
		name      string
		callSID   string
		utterance string
		wantErr   error
	}{
		{"empty call SID", "", "hello", models.ErrEmptyCallSID},
		{"blank call SID", "   ", "hello", models.ErrEmptyCallSID},
		{"empty utterance", "CA001", "", models.ErrEmptyUtterance},
		{"blank utterance", "CA001", "   ", models.ErrEmptyUtterance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &genai.MockClient{}
			engine := NewEngine(NewMemoryStore(), mock)

			_, err := engine.GenerateReply(context.Background(), tt.callSID, tt.utterance)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GenerateReply() error = %v, want %v", err, tt.wantErr)
			}
			// Validation failures must not create conversation state.
			if engine.Store().ActiveCount() != 0 {
				t.Error("validation failure created a conversation record")
			}
			if mock.CallCount() != 0 {
				t.Error("validation failure reached the chat model")
			}
		})
	}
}

func TestGenerateReplyAppendsBothTurns(t *testing.T) {
	mock := &genai.MockClient{Responses: []string{"We automate phone support. How many calls daily?"}}
	engine := NewEngine(NewMemoryStore(), mock)

	reply, err := engine.GenerateReply(context.Background(), "CA001", "we get too many phone calls")
	if err != nil {
		t.Fatalf("GenerateReply() error = %v", err)
	}
	if reply != "We automate phone support. How many calls daily?" {
		t.Errorf("reply = %q", reply)
	}

	sum := engine.GetSummary("CA001")
	if sum == nil {
		t.Fatal("no conversation recorded")
	}
	if sum.MessageCount != 2 {
		t.Fatalf("MessageCount = %d, want 2", sum.MessageCount)
	}
	if sum.RecentMessages[0].Role != models.RoleCaller || sum.RecentMessages[1].Role != models.RoleAgent {
		t.Errorf("turn roles = %q, %q, want caller then agent", sum.RecentMessages[0].Role, sum.RecentMessages[1].Role)
	}
	if sum.Context.ServiceInterest != models.ServiceVoiceAgent {
		t.Errorf("ServiceInterest = %q, want %q", sum.Context.ServiceInterest, models.ServiceVoiceAgent)
	}
}

func TestGenerateReplySendsSystemPromptAndHistory(t *testing.T) {
	mock := &genai.MockClient{Responses: []string{"First reply.", "Second reply."}}
	engine := NewEngine(NewMemoryStore(), mock)

	if _, err := engine.GenerateReply(context.Background(), "CA001", "we run an online store"); err != nil {
		t.Fatalf("GenerateReply() error = %v", err)
	}
	if _, err := engine.GenerateReply(context.Background(), "CA001", "tell me more about that"); err != nil {
		t.Fatalf("GenerateReply() error = %v", err)
	}

	if mock.CallCount() != 2 {
		t.Fatalf("CallCount() = %d, want 2", mock.CallCount())
	}
	// System prompt plus caller turn on the first call; system prompt,
	// first exchange and the new caller turn on the second.
	if got := len(mock.Calls[0]); got != 2 {
		t.Errorf("first call message count = %d, want 2", got)
	}
	if got := len(mock.Calls[1]); got != 4 {
		t.Errorf("second call message count = %d, want 4", got)
	}
}

func TestGenerateReplyFallbacks(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"rate limit", errors.New("429: rate limit exceeded"), fallbackRateLimited},
		{"bad api key", errors.New("401: invalid api key provided"), fallbackAuthFailure},
		{"anything else", errors.New("connection reset by peer"), fallbackGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &genai.MockClient{Err: tt.err}
			engine := NewEngine(NewMemoryStore(), mock)

			reply, err := engine.GenerateReply(context.Background(), "CA001", "hello there")
			if err != nil {
				t.Fatalf("GenerateReply() error = %v, want spoken fallback instead", err)
			}
			if reply != tt.want {
				t.Errorf("reply = %q, want %q", reply, tt.want)
			}

			// The caller turn stays so the next attempt has context, but no
			// agent turn is recorded for the fallback.
			sum := engine.GetSummary("CA001")
			if sum == nil {
				t.Fatal("conversation record missing after fallback")
			}
			if sum.MessageCount != 1 {
				t.Errorf("MessageCount = %d, want 1", sum.MessageCount)
			}
		})
	}
}

func TestGenerateReplyEmailBlockLatchesDemoReady(t *testing.T) {
	mock := &genai.MockClient{Responses: []string{"I can send the brochure to your email address."}}
	engine := NewEngine(NewMemoryStore(), mock)

	reply, err := engine.GenerateReply(context.Background(), "CA001", "that sounds useful")
	if err != nil {
		t.Fatalf("GenerateReply() error = %v", err)
	}
	if reply != replySMSOnlyDemo {
		t.Errorf("reply = %q, want %q", reply, replySMSOnlyDemo)
	}
	sum := engine.GetSummary("CA001")
	if !sum.Context.ReadyForDemo {
		t.Error("ReadyForDemo not latched after blocked email solicitation")
	}
}

func TestEndConversation(t *testing.T) {
	engine := NewEngine(NewMemoryStore(), &genai.MockClient{})

	if engine.EndConversation("CAmissing") {
		t.Error("EndConversation() = true for unknown SID")
	}

	if _, err := engine.GenerateReply(context.Background(), "CA001", "hello"); err != nil {
		t.Fatalf("GenerateReply() error = %v", err)
	}
	if !engine.EndConversation("CA001") {
		t.Error("EndConversation() = false for active conversation")
	}
	if engine.GetSummary("CA001") != nil {
		t.Error("conversation still present after EndConversation")
	}
}

func TestDemoBookingSignaled(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		utterance string
		want      bool
	}{
		{"agent promises text", "Perfect! I'm texting you the demo video and booking link right now!", "great", true},
		{"caller asks for demo", "Happy to help.", "can I get a demo", true},
		{"caller agrees", "Want to see it in action?", "yes", true},
		{"neither side", "We support most CRMs.", "which integrations exist", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DemoBookingSignaled(tt.reply, tt.utterance); got != tt.want {
				t.Errorf("DemoBookingSignaled(%q, %q) = %v, want %v", tt.reply, tt.utterance, got, tt.want)
			}
		})
	}
}

func TestIsClosingAndIsDemoBooked(t *testing.T) {
	if !IsClosing("Thank you for calling HighIQ AI!", "ok") {
		t.Error("IsClosing() missed the agent's farewell")
	}
	if !IsClosing("Anything else?", "no thank you, bye") {
		t.Error("IsClosing() missed the caller's farewell")
	}
	if IsClosing("What challenges do you face?", "we are growing fast") {
		t.Error("IsClosing() fired on an open exchange")
	}

	if !IsDemoBooked("Perfect! Check your messages in a few seconds.") {
		t.Error("IsDemoBooked() missed the delivery confirmation")
	}
	if IsDemoBooked("What's your biggest bottleneck?") {
		t.Error("IsDemoBooked() fired on a question")
	}
}
