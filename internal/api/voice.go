package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rileyzt/highiq-voiceagent/internal/calendly"
	"github.com/rileyzt/highiq-voiceagent/internal/convo"
	"github.com/rileyzt/highiq-voiceagent/internal/models"
	"github.com/rileyzt/highiq-voiceagent/internal/twiliovoice"
)

// Caller speech gather parameters tuned for phone audio.
const (
	gatherHints = "artificial intelligence, machine learning, customer service, chatbot, automation, sales, lead generation, demo, pricing"

	greetingText = "Hello! Welcome to HighIQ AI. What business challenge can I help you solve today?"

	lowConfidenceThreshold = 0.5
)

// newSpeechGather builds a Gather configured for conversational speech.
func (s *Server) newSpeechGather(timeout int) Gather {
	return Gather{
		Input:           "speech",
		Timeout:         timeout,
		SpeechTimeout:   "auto",
		Action:          s.serverBaseURL + "/voice/process-speech",
		Method:          "POST",
		Language:        "en-US",
		Hints:           gatherHints,
		SpeechModel:     "phone_call",
		ProfanityFilter: "false",
	}
}

// incomingCallHandler answers a new call with the greeting and the first
// speech gather. GET requests return a JSON status so the webhook URL can
// be checked from a browser.
func (s *Server) incomingCallHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Voice webhook is reachable. Point Twilio's incoming call webhook here with POST.", nil))
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	callSID := r.FormValue("CallSid")
	from := r.FormValue("From")
	to := r.FormValue("To")
	slog.Info("Server.incomingCallHandler: incoming call", "callSid", callSID, "from", from)

	if err := s.store.LogCall(models.CallRecord{
		CallSID:       callSID,
		CustomerPhone: from,
		ToNumber:      to,
		Status:        models.CallStatusAnswered,
		CallDate:      s.now(),
	}); err != nil {
		slog.Error("Server.incomingCallHandler: failed to log call", "callSid", callSID, "error", err)
	}

	resp := &VoiceResponse{}
	gather := s.newSpeechGather(10)
	resp.Add(
		Say{Voice: "alice", Text: greetingText},
		gather,
		Say{Voice: "alice", Text: "I didn't catch that. Please call back when you're ready to chat. Goodbye!"},
	)
	writeTwiML(w, resp)
}

// processSpeechHandler is the conversation loop: transcribed caller speech
// comes in, the agent's reply goes out as TwiML.
func (s *Server) processSpeechHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	callSID := r.FormValue("CallSid")
	from := r.FormValue("From")
	speech := r.FormValue("SpeechResult")
	confidence := r.FormValue("Confidence")

	if speech == "" {
		slog.Debug("Server.processSpeechHandler: empty speech result", "callSid", callSID)
		resp := &VoiceResponse{}
		resp.Add(
			Say{Voice: "alice", Text: "I didn't hear anything. Could you please repeat that?"},
			s.newSpeechGather(15),
			Say{Voice: "alice", Text: "Thank you for calling HighIQ AI. Goodbye!"},
		)
		writeTwiML(w, resp)
		return
	}

	if conf, err := strconv.ParseFloat(confidence, 64); err == nil && conf < lowConfidenceThreshold {
		slog.Debug("Server.processSpeechHandler: low transcription confidence", "callSid", callSID, "confidence", conf)
		resp := &VoiceResponse{}
		resp.Add(
			Say{Voice: "alice", Text: "Sorry, I didn't quite catch that. Could you say it again a bit more clearly?"},
			s.newSpeechGather(15),
			Say{Voice: "alice", Text: "Thank you for calling HighIQ AI. Goodbye!"},
		)
		writeTwiML(w, resp)
		return
	}

	slog.Info("Server.processSpeechHandler: caller speech", "callSid", callSID, "speech", speech, "confidence", confidence)

	start := s.now()
	reply, err := s.engine.GenerateReply(r.Context(), callSID, speech)
	elapsed := time.Since(start)
	if err != nil {
		// GenerateReply only errors on invalid input; service failures
		// already come back as spoken fallbacks.
		slog.Error("Server.processSpeechHandler: reply generation rejected input", "callSid", callSID, "error", err)
		resp := &VoiceResponse{}
		resp.Add(Say{Voice: "alice", Text: "Sorry, something went wrong on our end. Please call back in a moment."}, Hangup{})
		writeTwiML(w, resp)
		return
	}

	if convo.DemoBookingSignaled(reply, speech) {
		reply = s.deliverDemo(r, callSID, from, reply)
	}

	if err := s.store.LogConversation(models.ConversationLogEntry{
		CallSID:         callSID,
		CustomerPhone:   from,
		CustomerMessage: speech,
		AgentReply:      reply,
		ResponseTimeMs:  elapsed.Milliseconds(),
		STTConfidence:   confidence,
		Timestamp:       s.now(),
	}); err != nil {
		slog.Error("Server.processSpeechHandler: failed to log conversation", "callSid", callSID, "error", err)
	}

	resp := &VoiceResponse{}
	s.addSpokenReply(r, resp, callSID, reply)

	if convo.IsClosing(reply, speech) {
		if convo.IsDemoBooked(reply) {
			resp.Add(Say{Voice: "alice", Text: "Perfect! Check your messages in a few seconds. Have a great day!"})
		} else {
			resp.Add(Say{Voice: "alice", Text: "Thank you for your interest in HighIQ AI. Have a great day!"})
		}
		resp.Add(Hangup{})
	} else {
		resp.Add(
			s.newSpeechGather(15),
			Pause{Length: 1},
			Say{Voice: "alice", Text: "What else would you like to know?"},
			s.newSpeechGather(20),
			Say{Voice: "alice", Text: "It seems we got disconnected. Thank you for calling HighIQ AI. Goodbye!"},
		)
	}
	writeTwiML(w, resp)
}

// addSpokenReply plays synthesized audio when available and falls back to
// Twilio's built-in voice.
func (s *Server) addSpokenReply(r *http.Request, resp *VoiceResponse, callSID, reply string) {
	audioURL, err := s.tts.SpeakToURL(r.Context(), reply, callSID)
	if err != nil {
		slog.Warn("Server.addSpokenReply: speech synthesis failed, using built-in voice", "callSid", callSID, "error", err)
		resp.Add(Say{Voice: "alice", Text: reply})
		return
	}
	resp.Add(Play{URL: audioURL})
}

// deliverDemo texts the caller the demo video and booking link, records the
// outcome and adjusts the spoken reply to match what actually happened.
func (s *Server) deliverDemo(r *http.Request, callSID, from, reply string) string {
	bookingURL := s.bookingURL
	if s.cal != nil {
		bookingURL = s.cal.PersonalizedBookingURL(r.Context(), "", "", from, "")
	}

	body := twiliovoice.DemoLinkMessage(s.demoVideoURL, bookingURL)
	msgSID, err := s.sms.SendSMS(r.Context(), from, body)
	if err != nil {
		if errors.Is(err, twiliovoice.ErrSameNumber) {
			slog.Info("Server.deliverDemo: skipping SMS to agent's own number", "callSid", callSID)
		} else {
			slog.Error("Server.deliverDemo: failed to send demo SMS", "callSid", callSID, "error", err)
		}
		return reply + " I'll have someone follow up with demo details shortly."
	}

	slog.Info("Server.deliverDemo: demo SMS sent", "callSid", callSID, "messageSid", msgSID)
	if err := s.store.MarkDemoRequested(callSID); err != nil {
		slog.Error("Server.deliverDemo: failed to mark demo requested", "callSid", callSID, "error", err)
	}
	if err := s.store.LogSMS(models.SMSRecord{
		CustomerPhone:  from,
		MessageType:    models.SMSTypeDemoDelivery,
		Body:           body,
		MessageSID:     msgSID,
		DeliveryStatus: "sent",
		SentAt:         s.now(),
	}); err != nil {
		slog.Error("Server.deliverDemo: failed to log SMS", "callSid", callSID, "error", err)
	}

	if !containsFold(reply, "text") {
		reply += " I'm texting you the demo video and booking link right now!"
	}
	return reply
}

// callStatusHandler receives Twilio call lifecycle callbacks and releases
// conversation memory once the call ends.
func (s *Server) callStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	callSID := r.FormValue("CallSid")
	status := r.FormValue("CallStatus")
	duration, _ := strconv.Atoi(r.FormValue("CallDuration"))
	slog.Info("Server.callStatusHandler: call status update", "callSid", callSID, "status", status, "duration", duration)

	if err := s.store.UpdateCallStatus(callSID, status, duration); err != nil {
		slog.Error("Server.callStatusHandler: failed to update call status", "callSid", callSID, "error", err)
	}

	if models.IsTerminalCallStatus(status) {
		if s.engine.EndConversation(callSID) {
			slog.Debug("Server.callStatusHandler: conversation memory released", "callSid", callSID)
		}
	}
	w.WriteHeader(http.StatusOK)
}

// callMeHandler starts an outbound call to the given number for testing
// the agent without dialing in.
func (s *Server) callMeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	to := r.FormValue("to")
	if to == "" {
		to = r.URL.Query().Get("to")
	}
	if to == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required parameter: to"))
		return
	}

	callSID, err := s.sms.CreateCall(r.Context(), to, s.serverBaseURL+"/voice/incoming", s.serverBaseURL+"/voice/status")
	if err != nil {
		slog.Error("Server.callMeHandler: failed to create call", "to", to, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to start call"))
		return
	}

	slog.Info("Server.callMeHandler: outbound call started", "to", to, "callSid", callSID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Call started", map[string]string{"call_sid": callSID}))
}

// bookDemoHandler returns the demo booking link and video for channels
// that fetch them directly instead of receiving the SMS.
func (s *Server) bookDemoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	bookingURL := s.bookingURL
	if s.cal != nil {
		bookingURL = s.cal.DemoBookingURL(r.Context())
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Demo booking link ready", map[string]string{
		"booking_url":    bookingURL,
		"demo_video_url": s.demoVideoURL,
	}))
}

// debugConversationHandler exposes in-memory conversation state for a call.
func (s *Server) debugConversationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	callSID := r.URL.Query().Get("call_sid")
	if callSID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required parameter: call_sid"))
		return
	}

	summary := s.engine.GetSummary(callSID)
	if summary == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("No active conversation for this call"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(summary))
}

// healthHandler reports the readiness of each dependency.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := contextWithTimeout(r, DefaultHealthTimeout)
	defer cancel()

	checks := map[string]string{
		"llm":      "ok",
		"tts":      "ok",
		"sms":      "ok",
		"database": "ok",
	}
	healthy := true

	if err := s.engine.HealthCheck(ctx); err != nil {
		checks["llm"] = err.Error()
		healthy = false
	}
	if err := s.tts.Healthy(); err != nil {
		checks["tts"] = err.Error()
		healthy = false
	}
	if s.sms.FromNumber() == "" {
		checks["sms"] = "no agent phone number configured"
		healthy = false
	}
	if _, err := s.store.GetCalls(); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}

	status := http.StatusOK
	result := map[string]interface{}{
		"healthy":              healthy,
		"checks":               checks,
		"active_conversations": s.engine.Store().ActiveCount(),
	}
	if !healthy {
		status = http.StatusServiceUnavailable
		writeJSONResponse(w, status, models.Error("One or more dependencies are unhealthy"))
		return
	}
	writeJSONResponse(w, status, models.Success(result))
}

// calendlyWebhookHandler records bookings and sends the confirmation email
// when a mailer is configured.
func (s *Server) calendlyWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Failed to read request body"))
		return
	}

	booking, err := calendly.ParseWebhook(body)
	if err != nil {
		slog.Error("Server.calendlyWebhookHandler: failed to parse webhook", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid webhook payload"))
		return
	}

	slog.Info("Server.calendlyWebhookHandler: booking event", "event", booking.Event, "email", booking.Email)

	if booking.Event == calendly.EventInviteeCreated && s.mailer != nil && booking.Email != "" {
		if err := s.mailer.SendBookingConfirmation(r.Context(), booking.Email, booking.Name, booking.MeetingTime, booking.MeetingURL, booking.EventName); err != nil {
			slog.Error("Server.calendlyWebhookHandler: failed to send confirmation email", "email", booking.Email, "error", err)
		}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(nil))
}
