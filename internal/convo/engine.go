package convo

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"

	"github.com/rileyzt/highiq-voiceagent/internal/genai"
	"github.com/rileyzt/highiq-voiceagent/internal/models"
)

// Spoken fallbacks for upstream failures, chosen by error classification.
const (
	fallbackRateLimited = "I'm experiencing high demand right now. Let me connect you with a human representative."
	fallbackAuthFailure = "I'm having authentication issues. Please hold while I connect you to support."
	fallbackGeneric     = "I apologize for the technical difficulty. Let me get a human agent to assist you right away."
)

// Engine is the reply engine: it owns the conversation memory and turns a
// caller utterance into a sanitized spoken reply via the chat model.
type Engine struct {
	store  *MemoryStore
	client genai.ClientInterface
}

// NewEngine creates a reply engine over the given conversation store and
// chat client.
func NewEngine(store *MemoryStore, client genai.ClientInterface) *Engine {
	return &Engine{store: store, client: client}
}

// Store exposes the underlying conversation memory for sweeps and summaries.
func (e *Engine) Store() *MemoryStore { return e.store }

// GenerateReply produces the agent's next spoken line for the call. It
// updates the conversation context from the utterance, appends the caller
// turn, sends the full history to the chat model, sanitizes the completion
// and appends it as the agent turn.
//
// Validation failures return an error without touching state. Upstream
// chat failures are absorbed: the caller turn stays in history, no agent
// turn is recorded, and a fixed spoken fallback is returned so the call
// can continue. One attempt per turn, no retries.
func (e *Engine) GenerateReply(ctx context.Context, callSID, utterance string) (string, error) {
	if strings.TrimSpace(callSID) == "" {
		return "", models.ErrEmptyCallSID
	}
	if strings.TrimSpace(utterance) == "" {
		return "", models.ErrEmptyUtterance
	}

	slog.Debug("Engine.GenerateReply: processing utterance", "callSID", callSID, "utterance", utterance)

	e.store.UpdateContext(callSID, func(rec *Record) {
		ObserveUtterance(rec, utterance)
	})
	e.store.Append(callSID, models.RoleCaller, utterance)

	history, convCtx, _ := e.store.snapshot(callSID)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	messages = append(messages, openai.SystemMessage(ComposeSystemPrompt(convCtx)))
	for _, turn := range history {
		if turn.Role == models.RoleCaller {
			messages = append(messages, openai.UserMessage(turn.Text))
		} else {
			messages = append(messages, openai.AssistantMessage(turn.Text))
		}
	}

	raw, err := e.client.GenerateWithMessages(ctx, messages)
	if err != nil {
		fallback := classifyFallback(err)
		slog.Error("Engine.GenerateReply: chat model failed, using spoken fallback",
			"callSID", callSID, "error", err)
		return fallback, nil
	}

	reply, forceDemoReady := Sanitize(raw, convCtx, len(history))
	if forceDemoReady {
		e.store.UpdateContext(callSID, func(rec *Record) {
			rec.Context.ReadyForDemo = true
		})
	}

	e.store.Append(callSID, models.RoleAgent, reply)
	slog.Info("Engine.GenerateReply: reply generated",
		"callSID", callSID, "stage", convCtx.Stage, "readyForDemo", convCtx.ReadyForDemo || forceDemoReady)
	return reply, nil
}

// classifyFallback maps an upstream error to one of the fixed spoken
// fallbacks by inspecting the message text.
func classifyFallback(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"):
		return fallbackRateLimited
	case strings.Contains(msg, "api key"):
		return fallbackAuthFailure
	default:
		return fallbackGeneric
	}
}

// EndConversation drops the call's memory. It reports whether a
// conversation existed.
func (e *Engine) EndConversation(callSID string) bool {
	return e.store.Clear(callSID)
}

// GetSummary returns the call's diagnostic summary, or nil when the call
// has no memory. It never mutates state.
func (e *Engine) GetSummary(callSID string) *models.ConversationSummary {
	return e.store.Summary(callSID)
}

// HealthCheck verifies the chat endpoint is reachable.
func (e *Engine) HealthCheck(ctx context.Context) error {
	return e.client.Ping(ctx)
}

// EvictStale drops conversations idle longer than maxAge.
func (e *Engine) EvictStale(now time.Time, maxAge time.Duration) int {
	return e.store.EvictStale(now, maxAge)
}

// agentBookingSignals are phrases in the agent's reply that promise demo
// delivery.
var agentBookingSignals = []string{
	"texting you",
	"text you",
	"sending you",
	"i'm texting",
	"texting the demo",
	"demo video and booking",
	"texting you the demo",
	"text the demo link",
	"sending the demo",
}

// callerBookingSignals are phrases in caller speech that ask for a demo.
var callerBookingSignals = []string{
	"demo",
	"show me",
	"book",
	"schedule",
	"yes please",
	"sounds good",
	"let's do it",
	"sign me up",
	"interested",
	"yes",
	"sure",
	"okay",
}

// DemoBookingSignaled reports whether either side of the exchange asked
// for or promised a demo, which triggers the SMS with the video and
// booking links.
func DemoBookingSignaled(agentReply, callerUtterance string) bool {
	reply := strings.ToLower(agentReply)
	utterance := strings.ToLower(callerUtterance)
	return containsAny(reply, agentBookingSignals) || containsAny(utterance, callerBookingSignals)
}

// endingSignals in either side's text mean the call should wrap up.
var closingSignals = []string{
	"goodbye", "thank you for calling", "have a great day", "talk soon",
}

var callerClosingSignals = []string{
	"goodbye", "thank you", "bye",
}

// demoBookedSignals in the agent's reply mean an SMS was promised and the
// call can end on a confirmation line.
var demoBookedSignals = []string{
	"texting you", "text you", "demo link", "check your messages", "sending you",
}

// IsClosing reports whether the exchange signals the conversation ending.
func IsClosing(agentReply, callerUtterance string) bool {
	return containsAny(strings.ToLower(agentReply), closingSignals) ||
		containsAny(strings.ToLower(callerUtterance), callerClosingSignals)
}

// IsDemoBooked reports whether the agent's reply confirms demo delivery.
func IsDemoBooked(agentReply string) bool {
	return containsAny(strings.ToLower(agentReply), demoBookedSignals)
}
