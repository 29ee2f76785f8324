// Package calendly is a small REST client for the Calendly v2 API: user
// lookup, event type listing and booking URL resolution, plus webhook
// payload handling for invitee events.
//
// Calendly publishes no Go SDK, so this wraps net/http directly.
package calendly

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.calendly.com"

// Webhook event names Calendly delivers for bookings.
const (
	EventInviteeCreated  = "invitee.created"
	EventInviteeCanceled = "invitee.canceled"
)

// User is a Calendly account.
type User struct {
	URI   string `json:"uri"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EventType is a bookable meeting type.
type EventType struct {
	URI           string `json:"uri"`
	Name          string `json:"name"`
	Duration      int    `json:"duration"`
	SchedulingURL string `json:"scheduling_url"`
}

// Booking is the invitee data extracted from a webhook payload.
type Booking struct {
	Event       string
	Name        string
	Email       string
	Phone       string
	MeetingTime string
	MeetingURL  string
	EventName   string
}

// Opts holds configuration options for the Calendly client.
type Opts struct {
	Token   string
	UserURI string
	BaseURL string
	// FallbackBookingURL is returned when the API cannot be reached or no
	// event types exist.
	FallbackBookingURL string
	HTTPClient         *http.Client
}

// Option configures the Calendly client.
type Option func(*Opts)

// WithToken sets the personal access token.
func WithToken(token string) Option {
	return func(o *Opts) { o.Token = token }
}

// WithUserURI sets the Calendly user URI used to scope listings.
func WithUserURI(uri string) Option {
	return func(o *Opts) { o.UserURI = uri }
}

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(u string) Option {
	return func(o *Opts) { o.BaseURL = u }
}

// WithFallbackBookingURL sets the booking URL used when resolution fails.
func WithFallbackBookingURL(u string) Option {
	return func(o *Opts) { o.FallbackBookingURL = u }
}

// WithHTTPClient overrides the HTTP client. Used by tests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

// Client calls the Calendly API.
type Client struct {
	token       string
	userURI     string
	baseURL     string
	fallbackURL string
	http        *http.Client
}

// NewClient creates a Calendly client. Options missing from the call fall
// back to CALENDLY_TOKEN and CALENDLY_USER_URI.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv("CALENDLY_TOKEN")
	}
	if cfg.UserURI == "" {
		cfg.UserURI = os.Getenv("CALENDLY_USER_URI")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("Calendly token must be provided")
	}
	return &Client{
		token:       cfg.Token,
		userURI:     cfg.UserURI,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		fallbackURL: cfg.FallbackBookingURL,
		http:        cfg.HTTPClient,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build Calendly request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("Calendly request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("Calendly returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode Calendly response: %w", err)
	}
	return nil
}

// GetUserInfo fetches the authenticated user.
func (c *Client) GetUserInfo(ctx context.Context) (*User, error) {
	var payload struct {
		Resource User `json:"resource"`
	}
	if err := c.get(ctx, "/users/me", nil, &payload); err != nil {
		slog.Error("calendly.GetUserInfo failed", "error", err)
		return nil, err
	}
	return &payload.Resource, nil
}

// GetEventTypes lists the user's bookable event types.
func (c *Client) GetEventTypes(ctx context.Context) ([]EventType, error) {
	if c.userURI == "" {
		return nil, fmt.Errorf("Calendly user URI not set")
	}
	var payload struct {
		Collection []EventType `json:"collection"`
	}
	q := url.Values{"user": {c.userURI}}
	if err := c.get(ctx, "/event_types", q, &payload); err != nil {
		slog.Error("calendly.GetEventTypes failed", "error", err)
		return nil, err
	}
	return payload.Collection, nil
}

// DemoBookingURL resolves the scheduling URL for demo bookings: the first
// event type whose name mentions a demo or meeting, else the first event
// type, else the configured fallback URL.
func (c *Client) DemoBookingURL(ctx context.Context) string {
	types, err := c.GetEventTypes(ctx)
	if err != nil || len(types) == 0 {
		if c.fallbackURL != "" {
			slog.Warn("calendly.DemoBookingURL: using fallback URL", "error", err)
			return c.fallbackURL
		}
		slog.Error("calendly.DemoBookingURL: no event types and no fallback", "error", err)
		return ""
	}
	for _, et := range types {
		name := strings.ToLower(et.Name)
		if strings.Contains(name, "demo") || strings.Contains(name, "meeting") {
			return et.SchedulingURL
		}
	}
	return types[0].SchedulingURL
}

// PersonalizedBookingURL appends prefill parameters to the booking URL.
func (c *Client) PersonalizedBookingURL(ctx context.Context, name, emailAddr, phone, businessNeeds string) string {
	base := c.DemoBookingURL(ctx)
	if base == "" {
		return ""
	}
	params := url.Values{}
	if name != "" {
		params.Set("name", name)
	}
	if emailAddr != "" {
		params.Set("email", emailAddr)
	}
	if phone != "" {
		params.Set("phone", phone)
	}
	if businessNeeds != "" {
		params.Set("a1", businessNeeds)
	}
	if len(params) == 0 {
		return base
	}
	return base + "?" + params.Encode()
}

// ParseWebhook extracts booking details from a Calendly webhook body.
func ParseWebhook(body []byte) (*Booking, error) {
	var payload struct {
		Event   string `json:"event"`
		Payload struct {
			Name               string `json:"name"`
			Email              string `json:"email"`
			TextReminderNumber string `json:"text_reminder_number"`
			Event              struct {
				StartTime string `json:"start_time"`
				Name      string `json:"name"`
				Location  struct {
					JoinURL string `json:"join_url"`
				} `json:"location"`
			} `json:"event"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse Calendly webhook: %w", err)
	}
	if payload.Event == "" {
		return nil, fmt.Errorf("Calendly webhook missing event name")
	}
	return &Booking{
		Event:       payload.Event,
		Name:        payload.Payload.Name,
		Email:       payload.Payload.Email,
		Phone:       payload.Payload.TextReminderNumber,
		MeetingTime: payload.Payload.Event.StartTime,
		MeetingURL:  payload.Payload.Event.Location.JoinURL,
		EventName:   payload.Payload.Event.Name,
	}, nil
}

// HealthCheck verifies the token by fetching the user.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.GetUserInfo(ctx)
	return err
}
