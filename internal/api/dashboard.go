package api

import (
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/rileyzt/highiq-voiceagent/internal/models"
)

// Dashboard aggregation windows and thresholds.
const (
	recentWindow   = 24 * time.Hour
	realtimeWindow = time.Hour
	activeCustomer = 7 * 24 * time.Hour

	fastResponseMs = 1000
	slowResponseMs = 3000

	defaultVolumeDays = 7
	defaultListLimit  = 50
)

// statsHandler returns call, conversation and SMS totals with response
// time performance buckets.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	calls, err := s.store.GetCalls()
	if err != nil {
		slog.Error("Server.statsHandler: failed to load calls", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load call statistics"))
		return
	}
	conversations, err := s.store.GetConversations()
	if err != nil {
		slog.Error("Server.statsHandler: failed to load conversations", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load conversation statistics"))
		return
	}
	smsLogs, err := s.store.GetSMSLogs()
	if err != nil {
		slog.Error("Server.statsHandler: failed to load SMS logs", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load SMS statistics"))
		return
	}

	now := s.now()
	callsByStatus := make(map[string]int)
	demoRequests := 0
	recentCalls := 0
	for _, c := range calls {
		callsByStatus[c.Status]++
		if c.DemoRequested {
			demoRequests++
		}
		if now.Sub(c.CallDate) <= recentWindow {
			recentCalls++
		}
	}

	// A call counts as successful once Twilio reports it completed.
	successRate := 0.0
	if len(calls) > 0 {
		successRate = float64(callsByStatus[models.CallStatusCompleted]) / float64(len(calls)) * 100
	}

	recentConversations := 0
	fast, slow := 0, 0
	var totalResponseMs int64
	for _, c := range conversations {
		if now.Sub(c.Timestamp) <= recentWindow {
			recentConversations++
		}
		totalResponseMs += c.ResponseTimeMs
		if c.ResponseTimeMs < fastResponseMs {
			fast++
		} else if c.ResponseTimeMs > slowResponseMs {
			slow++
		}
	}
	avgResponseMs := int64(0)
	if len(conversations) > 0 {
		avgResponseMs = totalResponseMs / int64(len(conversations))
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"overview": map[string]interface{}{
			"total_calls":         len(calls),
			"calls_by_status":     callsByStatus,
			"success_rate":        successRate,
			"demo_requests":       demoRequests,
			"total_conversations": len(conversations),
			"total_sms":           len(smsLogs),
		},
		"recent_24h": map[string]interface{}{
			"calls":         recentCalls,
			"conversations": recentConversations,
		},
		"performance": map[string]interface{}{
			"avg_response_time_ms": avgResponseMs,
			"fast_responses":       fast,
			"slow_responses":       slow,
		},
	}))
}

// callsHandler lists recent calls.
func (s *Server) callsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	calls, err := s.store.GetCalls()
	if err != nil {
		slog.Error("Server.callsHandler: failed to load calls", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load calls"))
		return
	}

	limit := parseLimit(r, defaultListLimit)
	if len(calls) > limit {
		calls = calls[:limit]
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"calls": calls,
		"count": len(calls),
	}))
}

// conversationsHandler lists recent exchanges, optionally for one call.
func (s *Server) conversationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	conversations, err := s.store.GetConversations()
	if err != nil {
		slog.Error("Server.conversationsHandler: failed to load conversations", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load conversations"))
		return
	}

	if callSID := r.URL.Query().Get("call_sid"); callSID != "" {
		filtered := conversations[:0:0]
		for _, c := range conversations {
			if c.CallSID == callSID {
				filtered = append(filtered, c)
			}
		}
		conversations = filtered
	}

	limit := parseLimit(r, defaultListLimit)
	if len(conversations) > limit {
		conversations = conversations[:limit]
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"conversations": conversations,
		"count":         len(conversations),
	}))
}

// callVolumeHandler returns per-day call counts with empty days zero-filled
// so charts render a continuous series.
func (s *Server) callVolumeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	days := defaultVolumeDays
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 90 {
			days = n
		}
	}

	calls, err := s.store.GetCalls()
	if err != nil {
		slog.Error("Server.callVolumeHandler: failed to load calls", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load call volume"))
		return
	}

	now := s.now()
	counts := make(map[string]int, days)
	for _, c := range calls {
		day := c.CallDate.Format("2006-01-02")
		counts[day]++
	}

	type dayVolume struct {
		Date  string `json:"date"`
		Calls int    `json:"calls"`
	}
	volume := make([]dayVolume, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format("2006-01-02")
		volume = append(volume, dayVolume{Date: day, Calls: counts[day]})
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"days":   days,
		"volume": volume,
	}))
}

// customersHandler aggregates calls per caller phone number.
func (s *Server) customersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	calls, err := s.store.GetCalls()
	if err != nil {
		slog.Error("Server.customersHandler: failed to load calls", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load customers"))
		return
	}

	type customer struct {
		Phone         string    `json:"phone"`
		TotalCalls    int       `json:"total_calls"`
		DemoRequested bool      `json:"demo_requested"`
		FirstCall     time.Time `json:"first_call"`
		LastCall      time.Time `json:"last_call"`
	}

	byPhone := make(map[string]*customer)
	for _, c := range calls {
		cust, ok := byPhone[c.CustomerPhone]
		if !ok {
			cust = &customer{Phone: c.CustomerPhone, FirstCall: c.CallDate, LastCall: c.CallDate}
			byPhone[c.CustomerPhone] = cust
		}
		cust.TotalCalls++
		if c.DemoRequested {
			cust.DemoRequested = true
		}
		if c.CallDate.Before(cust.FirstCall) {
			cust.FirstCall = c.CallDate
		}
		if c.CallDate.After(cust.LastCall) {
			cust.LastCall = c.CallDate
		}
	}

	now := s.now()
	active := 0
	customers := make([]customer, 0, len(byPhone))
	for _, cust := range byPhone {
		if now.Sub(cust.LastCall) <= activeCustomer {
			active++
		}
		customers = append(customers, *cust)
	}
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].LastCall.After(customers[j].LastCall)
	})

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"customers":        customers,
		"total_customers":  len(customers),
		"active_customers": active,
	}))
}

// realtimeHandler returns last-hour activity plus live conversation count.
func (s *Server) realtimeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	calls, err := s.store.GetCalls()
	if err != nil {
		slog.Error("Server.realtimeHandler: failed to load calls", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load realtime activity"))
		return
	}
	conversations, err := s.store.GetConversations()
	if err != nil {
		slog.Error("Server.realtimeHandler: failed to load conversations", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load realtime activity"))
		return
	}

	now := s.now()
	recentCalls := 0
	for _, c := range calls {
		if now.Sub(c.CallDate) <= realtimeWindow {
			recentCalls++
		}
	}
	recentConversations := 0
	for _, c := range conversations {
		if now.Sub(c.Timestamp) <= realtimeWindow {
			recentConversations++
		}
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"last_hour": map[string]interface{}{
			"calls":         recentCalls,
			"conversations": recentConversations,
		},
		"active_conversations": s.engine.Store().ActiveCount(),
		"timestamp":            now,
	}))
}

// dashboardHealthHandler checks the activity log alone; the voice health
// endpoint covers the external services.
func (s *Server) dashboardHealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	calls, err := s.store.GetCalls()
	if err != nil {
		slog.Error("Server.dashboardHealthHandler: store unreachable", "error", err)
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Activity log unreachable"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"database":    "ok",
		"total_calls": len(calls),
	}))
}

// parseLimit reads a positive limit query parameter.
func parseLimit(r *http.Request, def int) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
