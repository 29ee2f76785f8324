package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rileyzt/highiq-voiceagent/internal/convo"
	"github.com/rileyzt/highiq-voiceagent/internal/genai"
	"github.com/rileyzt/highiq-voiceagent/internal/models"
	"github.com/rileyzt/highiq-voiceagent/internal/store"
	"github.com/rileyzt/highiq-voiceagent/internal/tts"
	"github.com/rileyzt/highiq-voiceagent/internal/twiliovoice"
)

// testServer bundles a server with the mocks behind it.
type testServer struct {
	server *Server
	genai  *genai.MockClient
	store  *store.InMemoryStore
	sms    *twiliovoice.MockClient
	tts    *tts.MockSynthesizer
}

func newTestServer(t *testing.T, responses ...string) *testServer {
	t.Helper()
	mockGenAI := &genai.MockClient{Responses: responses}
	st := store.NewInMemoryStore()
	sms := twiliovoice.NewMockClient("+15559990000")
	synth := &tts.MockSynthesizer{}
	engine := convo.NewEngine(convo.NewMemoryStore(), mockGenAI)
	srv := NewServer(engine, st, sms, synth, nil, nil,
		WithServerBaseURL("https://agent.example.com"),
		WithDemoVideoURL("https://youtu.be/demo123"),
		WithBookingURL("https://calendly.com/highiq/demo"),
	)
	return &testServer{server: srv, genai: mockGenAI, store: st, sms: sms, tts: synth}
}

func postForm(t *testing.T, handler http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestIncomingCallHandler(t *testing.T) {
	ts := newTestServer(t)

	w := postForm(t, ts.server.incomingCallHandler, url.Values{
		"CallSid": {"CA001"},
		"From":    {"+15551234567"},
		"To":      {"+15559990000"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/xml" {
		t.Errorf("Content-Type = %q, want text/xml", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Welcome to HighIQ AI") {
		t.Errorf("greeting missing from TwiML: %q", body)
	}
	if !strings.Contains(body, `action="https://agent.example.com/voice/process-speech"`) {
		t.Errorf("gather action missing from TwiML: %q", body)
	}

	calls, err := ts.store.GetCalls()
	if err != nil || len(calls) != 1 {
		t.Fatalf("GetCalls() = %v, %v, want one logged call", calls, err)
	}
	if calls[0].CallSID != "CA001" || calls[0].Status != models.CallStatusAnswered {
		t.Errorf("logged call = %+v", calls[0])
	}
}

func TestIncomingCallHandlerGET(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/voice/incoming", nil)
	w := httptest.NewRecorder()
	ts.server.incomingCallHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Status != string(models.APIStatusOK) {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestProcessSpeechHandlerEmptySpeech(t *testing.T) {
	ts := newTestServer(t)

	w := postForm(t, ts.server.processSpeechHandler, url.Values{
		"CallSid": {"CA001"},
		"From":    {"+15551234567"},
	})

	body := w.Body.String()
	if !strings.Contains(body, "hear anything") {
		t.Errorf("re-prompt missing: %q", body)
	}
	if ts.genai.CallCount() != 0 {
		t.Error("empty speech reached the chat model")
	}
}

func TestProcessSpeechHandlerLowConfidence(t *testing.T) {
	ts := newTestServer(t)

	w := postForm(t, ts.server.processSpeechHandler, url.Values{
		"CallSid":      {"CA001"},
		"From":         {"+15551234567"},
		"SpeechResult": {"mumbled words"},
		"Confidence":   {"0.30"},
	})

	body := w.Body.String()
	if !strings.Contains(body, "quite catch that") {
		t.Errorf("clarification prompt missing: %q", body)
	}
	if ts.genai.CallCount() != 0 {
		t.Error("low-confidence speech reached the chat model")
	}
}

func TestProcessSpeechHandlerConversationTurn(t *testing.T) {
	ts := newTestServer(t, "We automate support lines. How many inquiries daily?")

	w := postForm(t, ts.server.processSpeechHandler, url.Values{
		"CallSid":      {"CA001"},
		"From":         {"+15551234567"},
		"SpeechResult": {"we struggle with customer support"},
		"Confidence":   {"0.95"},
	})

	body := w.Body.String()
	if !strings.Contains(body, "<Play>") {
		t.Errorf("synthesized audio missing from TwiML: %q", body)
	}
	if !strings.Contains(body, "What else would you like to know?") {
		t.Errorf("continuation prompt missing: %q", body)
	}
	if strings.Contains(body, "<Hangup>") {
		t.Errorf("open conversation was hung up: %q", body)
	}

	convs, err := ts.store.GetConversations()
	if err != nil || len(convs) != 1 {
		t.Fatalf("GetConversations() = %v, %v, want one entry", convs, err)
	}
	if convs[0].CustomerMessage != "we struggle with customer support" {
		t.Errorf("logged message = %q", convs[0].CustomerMessage)
	}
	if convs[0].STTConfidence != "0.95" {
		t.Errorf("logged confidence = %q", convs[0].STTConfidence)
	}
}

func TestProcessSpeechHandlerTTSFallback(t *testing.T) {
	ts := newTestServer(t, "Our chat agents convert more visitors.")
	ts.tts.Err = errors.New("synthesis unavailable")

	w := postForm(t, ts.server.processSpeechHandler, url.Values{
		"CallSid":      {"CA001"},
		"From":         {"+15551234567"},
		"SpeechResult": {"tell me about the chatbot"},
	})

	body := w.Body.String()
	if strings.Contains(body, "<Play>") {
		t.Errorf("Play present despite synthesis failure: %q", body)
	}
	if !strings.Contains(body, "Our chat agents convert more visitors.") {
		t.Errorf("spoken fallback missing: %q", body)
	}
}

func TestProcessSpeechHandlerDemoDelivery(t *testing.T) {
	ts := newTestServer(t, "Perfect! I'm texting you the demo video and booking link right now!")

	w := postForm(t, ts.server.processSpeechHandler, url.Values{
		"CallSid":      {"CA001"},
		"From":         {"+15551234567"},
		"SpeechResult": {"yes, show me a demo, then goodbye"},
	})

	sent := ts.sms.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d SMS, want 1", len(sent))
	}
	if sent[0].To != "+15551234567" {
		t.Errorf("SMS to = %q", sent[0].To)
	}
	if !strings.Contains(sent[0].Body, "https://youtu.be/demo123") ||
		!strings.Contains(sent[0].Body, "https://calendly.com/highiq/demo") {
		t.Errorf("SMS body missing links: %q", sent[0].Body)
	}

	smsLogs, err := ts.store.GetSMSLogs()
	if err != nil || len(smsLogs) != 1 {
		t.Fatalf("GetSMSLogs() = %v, %v, want one record", smsLogs, err)
	}
	if smsLogs[0].MessageType != models.SMSTypeDemoDelivery {
		t.Errorf("SMS type = %q", smsLogs[0].MessageType)
	}

	body := w.Body.String()
	if !strings.Contains(body, "Check your messages in a few seconds") {
		t.Errorf("demo-booked closing line missing: %q", body)
	}
	if !strings.Contains(body, "<Hangup>") {
		t.Errorf("closing exchange did not hang up: %q", body)
	}
}

func TestProcessSpeechHandlerSMSFailure(t *testing.T) {
	ts := newTestServer(t, "Great choice.")
	ts.sms.SMSErr = errors.New("carrier rejected")

	w := postForm(t, ts.server.processSpeechHandler, url.Values{
		"CallSid":      {"CA001"},
		"From":         {"+15551234567"},
		"SpeechResult": {"sure, book me a demo"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	convs, _ := ts.store.GetConversations()
	if len(convs) != 1 {
		t.Fatalf("want one logged conversation, got %d", len(convs))
	}
	if !strings.Contains(convs[0].AgentReply, "I'll have someone follow up with demo details shortly.") {
		t.Errorf("follow-up promise missing from reply: %q", convs[0].AgentReply)
	}
	if calls, _ := ts.store.GetCalls(); len(calls) != 0 {
		// No call record exists, so the demo flag has nowhere to land; the
		// handler must still answer without error.
		t.Errorf("unexpected call records: %v", calls)
	}
}

func TestCallStatusHandlerReleasesMemory(t *testing.T) {
	ts := newTestServer(t, "Hello!")

	// Start a conversation and log the call.
	postForm(t, ts.server.incomingCallHandler, url.Values{
		"CallSid": {"CA001"}, "From": {"+15551234567"}, "To": {"+15559990000"},
	})
	postForm(t, ts.server.processSpeechHandler, url.Values{
		"CallSid": {"CA001"}, "From": {"+15551234567"}, "SpeechResult": {"we need automation"},
	})
	if ts.server.engine.GetSummary("CA001") == nil {
		t.Fatal("conversation memory missing before status callback")
	}

	w := postForm(t, ts.server.callStatusHandler, url.Values{
		"CallSid":      {"CA001"},
		"CallStatus":   {models.CallStatusCompleted},
		"CallDuration": {"95"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	if ts.server.engine.GetSummary("CA001") != nil {
		t.Error("conversation memory survived terminal call status")
	}
	calls, _ := ts.store.GetCalls()
	if len(calls) != 1 || calls[0].Status != models.CallStatusCompleted || calls[0].Duration != 95 {
		t.Errorf("call after status update = %+v", calls)
	}
}

func TestCallStatusHandlerKeepsMemoryForInterimStatus(t *testing.T) {
	ts := newTestServer(t, "Hello!")

	postForm(t, ts.server.incomingCallHandler, url.Values{
		"CallSid": {"CA001"}, "From": {"+15551234567"}, "To": {"+15559990000"},
	})
	postForm(t, ts.server.processSpeechHandler, url.Values{
		"CallSid": {"CA001"}, "From": {"+15551234567"}, "SpeechResult": {"hi, we need help"},
	})

	postForm(t, ts.server.callStatusHandler, url.Values{
		"CallSid": {"CA001"}, "CallStatus": {"in-progress"},
	})
	if ts.server.engine.GetSummary("CA001") == nil {
		t.Error("conversation memory dropped on interim call status")
	}
}

func TestCallMeHandler(t *testing.T) {
	ts := newTestServer(t)

	w := postForm(t, ts.server.callMeHandler, url.Values{"to": {"+15557654321"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	if len(ts.sms.CreatedCalls) != 1 {
		t.Fatalf("created %d calls, want 1", len(ts.sms.CreatedCalls))
	}
	call := ts.sms.CreatedCalls[0]
	if call.To != "+15557654321" {
		t.Errorf("call to = %q", call.To)
	}
	if call.WebhookURL != "https://agent.example.com/voice/incoming" {
		t.Errorf("webhook URL = %q", call.WebhookURL)
	}
	if call.StatusCallbackURL != "https://agent.example.com/voice/status" {
		t.Errorf("status callback URL = %q", call.StatusCallbackURL)
	}
}

func TestCallMeHandlerRequiresNumber(t *testing.T) {
	ts := newTestServer(t)

	w := postForm(t, ts.server.callMeHandler, url.Values{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestBookDemoHandler(t *testing.T) {
	ts := newTestServer(t)

	w := postForm(t, ts.server.bookDemoHandler, url.Values{})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	links, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("result = %T, want object", resp.Result)
	}
	if links["booking_url"] != "https://calendly.com/highiq/demo" {
		t.Errorf("booking_url = %v", links["booking_url"])
	}
	if links["demo_video_url"] != "https://youtu.be/demo123" {
		t.Errorf("demo_video_url = %v", links["demo_video_url"])
	}

	req := httptest.NewRequest(http.MethodGet, "/voice/book-demo", nil)
	rec := httptest.NewRecorder()
	ts.server.bookDemoHandler(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status for GET = %d, want 405", rec.Code)
	}
}

func TestDebugConversationHandler(t *testing.T) {
	ts := newTestServer(t, "Hi!")

	req := httptest.NewRequest(http.MethodGet, "/voice/debug/conversation?call_sid=CAmissing", nil)
	w := httptest.NewRecorder()
	ts.server.debugConversationHandler(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status for unknown SID = %d, want 404", w.Code)
	}

	postForm(t, ts.server.processSpeechHandler, url.Values{
		"CallSid": {"CA001"}, "From": {"+15551234567"}, "SpeechResult": {"hello, tell me more"},
	})
	req = httptest.NewRequest(http.MethodGet, "/voice/debug/conversation?call_sid=CA001", nil)
	w = httptest.NewRecorder()
	ts.server.debugConversationHandler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"call_sid":"CA001"`) {
		t.Errorf("summary missing call SID: %q", w.Body.String())
	}
}

func TestCalendlyWebhookHandler(t *testing.T) {
	ts := newTestServer(t)

	payload := `{"event":"invitee.created","payload":{"name":"Dana","email":"dana@example.com","event":{"start_time":"2026-09-02T15:00:00Z","name":"Product Demo"}}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/calendly", strings.NewReader(payload))
	w := httptest.NewRecorder()
	ts.server.calendlyWebhookHandler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhooks/calendly", strings.NewReader("not json"))
	w = httptest.NewRecorder()
	ts.server.calendlyWebhookHandler(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status for bad payload = %d, want 400", w.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	ts.server.healthHandler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	ts.genai.PingErr = errors.New("upstream down")
	w = httptest.NewRecorder()
	ts.server.healthHandler(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status with failing chat model = %d, want 503", w.Code)
	}
}
