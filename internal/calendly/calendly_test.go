package calendly

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]Option{
		WithToken("test-token"),
		WithUserURI("https://api.calendly.com/users/USER123"),
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
	}, opts...)
	c, err := NewClient(opts...)
	if err != nil {
		t.Fatalf("NewClient error = %v", err)
	}
	return c
}

func TestNewClientRequiresToken(t *testing.T) {
	t.Setenv("CALENDLY_TOKEN", "")
	if _, err := NewClient(); err == nil {
		t.Fatal("NewClient without token succeeded, want error")
	}
}

func TestGetUserInfo(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/me" {
			t.Errorf("path = %q, want /users/me", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"resource":{"uri":"https://api.calendly.com/users/USER123","name":"Pat","email":"pat@highiq.ai"}}`))
	}))

	user, err := c.GetUserInfo(context.Background())
	if err != nil {
		t.Fatalf("GetUserInfo error = %v", err)
	}
	if user.Name != "Pat" || user.Email != "pat@highiq.ai" {
		t.Errorf("user = %+v", user)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization header = %q, want bearer token", gotAuth)
	}
}

func TestDemoBookingURL(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"demo event preferred",
			`{"collection":[
				{"name":"Intro Chat","scheduling_url":"https://calendly.com/highiq/intro"},
				{"name":"Product Demo","scheduling_url":"https://calendly.com/highiq/demo"}]}`,
			"https://calendly.com/highiq/demo",
		},
		{
			"meeting name accepted",
			`{"collection":[{"name":"Discovery Meeting","scheduling_url":"https://calendly.com/highiq/meet"}]}`,
			"https://calendly.com/highiq/meet",
		},
		{
			"first event when nothing matches",
			`{"collection":[
				{"name":"Coffee","scheduling_url":"https://calendly.com/highiq/coffee"},
				{"name":"Workshop","scheduling_url":"https://calendly.com/highiq/workshop"}]}`,
			"https://calendly.com/highiq/coffee",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/event_types" {
					t.Errorf("path = %q, want /event_types", r.URL.Path)
				}
				if got := r.URL.Query().Get("user"); got != "https://api.calendly.com/users/USER123" {
					t.Errorf("user query = %q", got)
				}
				w.Write([]byte(tt.body))
			}))
			if got := c.DemoBookingURL(context.Background()); got != tt.want {
				t.Errorf("DemoBookingURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDemoBookingURLFallback(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}), WithFallbackBookingURL("https://calendly.com/fallback"))

	if got := c.DemoBookingURL(context.Background()); got != "https://calendly.com/fallback" {
		t.Errorf("DemoBookingURL() = %q, want fallback", got)
	}
}

func TestPersonalizedBookingURL(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"collection":[{"name":"Product Demo","scheduling_url":"https://calendly.com/highiq/demo"}]}`))
	}))

	got := c.PersonalizedBookingURL(context.Background(), "Dana", "", "+15551234567", "support automation")
	if !strings.HasPrefix(got, "https://calendly.com/highiq/demo?") {
		t.Fatalf("PersonalizedBookingURL() = %q", got)
	}
	for _, param := range []string{"name=Dana", "phone=%2B15551234567", "a1=support+automation"} {
		if !strings.Contains(got, param) {
			t.Errorf("PersonalizedBookingURL() = %q, missing %q", got, param)
		}
	}
	if strings.Contains(got, "email=") {
		t.Errorf("PersonalizedBookingURL() = %q, empty email should be omitted", got)
	}
}

func TestParseWebhook(t *testing.T) {
	body := []byte(`{
		"event": "invitee.created",
		"payload": {
			"name": "Dana Smith",
			"email": "dana@example.com",
			"text_reminder_number": "+15551234567",
			"event": {
				"start_time": "2026-09-02T15:00:00Z",
				"name": "Product Demo",
				"location": {"join_url": "https://zoom.example.com/j/123"}
			}
		}
	}`)

	booking, err := ParseWebhook(body)
	if err != nil {
		t.Fatalf("ParseWebhook error = %v", err)
	}
	want := Booking{
		Event:       EventInviteeCreated,
		Name:        "Dana Smith",
		Email:       "dana@example.com",
		Phone:       "+15551234567",
		MeetingTime: "2026-09-02T15:00:00Z",
		MeetingURL:  "https://zoom.example.com/j/123",
		EventName:   "Product Demo",
	}
	if *booking != want {
		t.Errorf("ParseWebhook() = %+v, want %+v", *booking, want)
	}
}

func TestParseWebhookRejectsBadPayloads(t *testing.T) {
	if _, err := ParseWebhook([]byte(`not json`)); err == nil {
		t.Error("ParseWebhook accepted invalid JSON")
	}
	if _, err := ParseWebhook([]byte(`{"payload":{}}`)); err == nil {
		t.Error("ParseWebhook accepted payload without event name")
	}
}
