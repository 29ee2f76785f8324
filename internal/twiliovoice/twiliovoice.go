// Package twiliovoice wraps the Twilio REST API for the voice agent:
// outbound SMS (demo links, follow-ups, confirmations) and outbound call
// creation.
package twiliovoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TestModeSID is returned instead of a real message SID when a send is
// short-circuited because the destination equals the agent's own number.
const TestModeSID = "TEST_MODE"

// twilioErrSameNumber is Twilio's error code for To == From on a message.
const twilioErrSameNumber = 21266

// ErrSameNumber indicates the destination is the agent's own number.
var ErrSameNumber = errors.New("cannot send SMS to the agent's own number")

// Sender is the Twilio surface the webhook handlers need. MockClient
// implements it for tests.
type Sender interface {
	// SendSMS sends a text message and returns the message SID.
	SendSMS(ctx context.Context, to string, body string) (string, error)
	// CreateCall starts an outbound call handled by the given webhook URL
	// and returns the call SID.
	CreateCall(ctx context.Context, to, webhookURL, statusCallbackURL string) (string, error)
	// FromNumber returns the agent's phone number.
	FromNumber() string
}

// Opts holds configuration options for the Twilio client.
type Opts struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Option defines a configuration option for the Twilio client.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFromNumber sets the agent's phone number in E.164 format.
func WithFromNumber(from string) Option {
	return func(o *Opts) { o.FromNumber = from }
}

// Client wraps the Twilio REST API.
type Client struct {
	client *twilio.RestClient
	from   string
}

// NewClient creates a Twilio client. Options missing from the call fall
// back to TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_PHONE_NUMBER.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromNumber == "" {
		cfg.FromNumber = os.Getenv("TWILIO_PHONE_NUMBER")
	}
	slog.Debug("Twilio client config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"FromNumber_set", cfg.FromNumber != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("from number must be provided")
	}

	client := twilio.NewRestClientWithParams(
		twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		},
	)

	return &Client{client: client, from: cfg.FromNumber}, nil
}

// FromNumber returns the agent's phone number.
func (c *Client) FromNumber() string { return c.from }

// SendSMS sends a text message. Sending to the agent's own number is
// short-circuited and reported as test mode so local testing against a
// single Twilio number does not hard-fail.
func (c *Client) SendSMS(ctx context.Context, to string, body string) (string, error) {
	if to == "" {
		return "", fmt.Errorf("SMS destination must be provided")
	}
	if to == c.from {
		slog.Warn("Twilio SendSMS short-circuited, destination equals from number", "to", to)
		return TestModeSID, nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetBody(body)

	resp, err := c.client.Api.CreateMessage(params)
	if err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) && restErr.Code == twilioErrSameNumber {
			slog.Warn("Twilio SendSMS rejected: destination equals from number", "to", to)
			return "", fmt.Errorf("send SMS to %s: %w", to, ErrSameNumber)
		}
		slog.Error("Twilio SendSMS failed", "to", to, "error", err)
		return "", fmt.Errorf("failed to send SMS to %s: %w", to, err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	slog.Debug("Twilio SMS sent", "to", to, "sid", sid)
	return sid, nil
}

// CreateCall starts an outbound call. webhookURL receives the TwiML
// request when the callee answers; statusCallbackURL receives lifecycle
// status updates.
func (c *Client) CreateCall(ctx context.Context, to, webhookURL, statusCallbackURL string) (string, error) {
	if to == "" {
		return "", fmt.Errorf("call destination must be provided")
	}

	params := &twilioApi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetUrl(webhookURL)
	if statusCallbackURL != "" {
		params.SetStatusCallback(statusCallbackURL)
		params.SetStatusCallbackEvent([]string{"completed", "failed", "busy", "no-answer"})
	}

	resp, err := c.client.Api.CreateCall(params)
	if err != nil {
		slog.Error("Twilio CreateCall failed", "to", to, "error", err)
		return "", fmt.Errorf("failed to create call to %s: %w", to, err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	slog.Info("Twilio outbound call created", "to", to, "sid", sid)
	return sid, nil
}
