// Package models defines the core data structures for the HighIQ voice agent.
//
// It includes conversation state types shared by the reply engine, the
// activity log records persisted by the store, and the API response envelope.
package models

import (
	"errors"
	"time"
)

// Role identifies who produced a conversation turn.
type Role string

const (
	// RoleCaller marks a turn spoken by the customer on the phone.
	RoleCaller Role = "caller"
	// RoleAgent marks a turn produced by the AI agent.
	RoleAgent Role = "agent"
)

// Stage is the coarse phase of a sales conversation.
type Stage string

const (
	StageGreeting    Stage = "greeting"
	StageDiscovery   Stage = "discovery"
	StageInformation Stage = "information"
	StageClosing     Stage = "closing"
)

// IsValidStage checks whether the given stage is one of the defined phases.
func IsValidStage(s Stage) bool {
	switch s {
	case StageGreeting, StageDiscovery, StageInformation, StageClosing:
		return true
	default:
		return false
	}
}

// Intent is the caller's inferred immediate goal.
type Intent string

const (
	IntentWantsDemo    Intent = "wants_demo"
	IntentWantsPricing Intent = "wants_pricing"
	IntentReadyToMove  Intent = "ready_to_move"
	IntentNeedsInfo    Intent = "needs_info"
	IntentHasConcerns  Intent = "has_concerns"
)

// ServiceInterest is the product category the caller has shown interest in.
type ServiceInterest string

const (
	ServiceCustomerSupport    ServiceInterest = "customer support automation"
	ServiceSalesAutomation    ServiceInterest = "sales automation"
	ServiceWebsiteChatbot     ServiceInterest = "chatbot for website"
	ServiceVoiceAgent         ServiceInterest = "voice agent"
	ServiceAppointmentBooking ServiceInterest = "appointment booking"
	ServiceOrderProcessing    ServiceInterest = "order processing"
)

// PainPoint is a business-context tag inferred from caller speech.
type PainPoint string

const (
	PainHighVolume   PainPoint = "high volume business"
	PainCostConcerns PainPoint = "cost concerns"
	PainAvailability PainPoint = "availability issues"
	PainScaling      PainPoint = "scaling problems"
	PainManualWork   PainPoint = "manual work"
	PainStaffing     PainPoint = "staff issues"
)

// Turn is a single message in a call's conversation history.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationContext holds what the agent has inferred about the caller so far.
type ConversationContext struct {
	ServiceInterest ServiceInterest `json:"service_interest,omitempty"`
	Stage           Stage           `json:"stage"`
	KeyPoints       []PainPoint     `json:"key_points,omitempty"`
	CurrentIntent   Intent          `json:"current_intent,omitempty"`
	ReadyForDemo    bool            `json:"ready_for_demo"`
}

// HasKeyPoint reports whether the pain point was already recorded.
func (c *ConversationContext) HasKeyPoint(p PainPoint) bool {
	for _, kp := range c.KeyPoints {
		if kp == p {
			return true
		}
	}
	return false
}

// ConversationSummary is the read-only diagnostic view of one call's memory.
type ConversationSummary struct {
	CallSID        string              `json:"call_sid"`
	MessageCount   int                 `json:"message_count"`
	Context        ConversationContext `json:"context"`
	LastUpdated    time.Time           `json:"last_updated"`
	RecentMessages []Turn              `json:"recent_messages"`
}

// Validation errors shared by the reply engine and HTTP handlers.
var (
	ErrEmptyCallSID    = errors.New("call SID cannot be empty")
	ErrEmptyUtterance  = errors.New("caller utterance cannot be empty")
	ErrEmptyRecipient  = errors.New("recipient cannot be empty")
	ErrEmptySpeechText = errors.New("text is required for speech synthesis")
)

// Twilio call lifecycle statuses observed on the status webhook.
const (
	CallStatusAnswered  = "answered"
	CallStatusCompleted = "completed"
	CallStatusFailed    = "failed"
	CallStatusBusy      = "busy"
	CallStatusNoAnswer  = "no-answer"
	CallStatusCanceled  = "canceled"
)

// IsTerminalCallStatus reports whether the call status means the call ended
// and its conversation memory should be released.
func IsTerminalCallStatus(status string) bool {
	switch status {
	case CallStatusCompleted, CallStatusFailed, CallStatusBusy, CallStatusNoAnswer, CallStatusCanceled:
		return true
	default:
		return false
	}
}

// CallRecord is one logged telephony session.
type CallRecord struct {
	CallSID       string    `json:"call_sid"`
	CustomerPhone string    `json:"customer_phone"`
	ToNumber      string    `json:"to_number"`
	Status        string    `json:"call_status"`
	Duration      int       `json:"call_duration"`
	DemoRequested bool      `json:"demo_requested"`
	CallDate      time.Time `json:"call_date"`
}

// ConversationLogEntry is one logged caller/agent exchange.
type ConversationLogEntry struct {
	ID              int64     `json:"id"`
	CallSID         string    `json:"call_sid"`
	CustomerPhone   string    `json:"customer_phone"`
	CustomerMessage string    `json:"customer_message"`
	AgentReply      string    `json:"agent_reply"`
	ResponseTimeMs  int64     `json:"response_time_ms"`
	STTConfidence   string    `json:"stt_confidence"`
	Timestamp       time.Time `json:"timestamp"`
}

// SMSRecord is one logged outbound text message.
type SMSRecord struct {
	ID             int64     `json:"id"`
	CustomerPhone  string    `json:"customer_phone"`
	MessageType    string    `json:"message_type"`
	Body           string    `json:"body"`
	MessageSID     string    `json:"message_sid"`
	DeliveryStatus string    `json:"delivery_status"`
	SentAt         time.Time `json:"sent_at"`
}

// SMS message types recorded in the activity log.
const (
	SMSTypeDemoDelivery = "demo_delivery"
	SMSTypeFollowUp     = "follow_up"
	SMSTypeConfirmation = "confirmation"
)

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse is the standard JSON envelope returned by every endpoint.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
