// Package email sends transactional email through SendGrid: demo
// invitations and booking confirmations triggered by the Calendly webhook.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const fromName = "HighIQ AI Team"

// Mailer is the email surface the webhook handlers need.
type Mailer interface {
	// SendDemoLink emails the booking link to a customer.
	SendDemoLink(ctx context.Context, toEmail, toName, bookingURL, businessNeeds string) error
	// SendBookingConfirmation emails meeting details after a booking.
	SendBookingConfirmation(ctx context.Context, toEmail, toName, meetingTime, meetingURL, eventName string) error
}

// Opts holds configuration options for the email service.
type Opts struct {
	APIKey    string
	FromEmail string
}

// Option configures the email service.
type Option func(*Opts)

// WithAPIKey sets the SendGrid API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithFromEmail sets the sender address.
func WithFromEmail(from string) Option {
	return func(o *Opts) { o.FromEmail = from }
}

// Service sends email through SendGrid.
type Service struct {
	client    *sendgrid.Client
	fromEmail string
}

// NewService creates the email service. Options missing from the call fall
// back to SENDGRID_API_KEY and SENDGRID_FROM_EMAIL.
func NewService(opts ...Option) (*Service, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("SENDGRID_API_KEY")
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = os.Getenv("SENDGRID_FROM_EMAIL")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("SendGrid API key must be provided")
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("SendGrid from address must be provided")
	}
	slog.Debug("email.NewService: service ready", "from", cfg.FromEmail)
	return &Service{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
	}, nil
}

// SendDemoLink emails the demo booking invitation.
func (s *Service) SendDemoLink(ctx context.Context, toEmail, toName, bookingURL, businessNeeds string) error {
	if toEmail == "" {
		return fmt.Errorf("customer email is required to send demo link")
	}
	html, text := demoEmailTemplate(toName, bookingURL, businessNeeds)
	return s.send(ctx, toEmail, toName, "Your HighIQ AI Demo - Book Your Slot Now!", text, html)
}

// SendBookingConfirmation emails the meeting details after a Calendly
// booking lands.
func (s *Service) SendBookingConfirmation(ctx context.Context, toEmail, toName, meetingTime, meetingURL, eventName string) error {
	if toEmail == "" {
		return fmt.Errorf("customer email is required for booking confirmation")
	}
	html, text := confirmationEmailTemplate(toName, meetingTime, meetingURL, eventName)
	return s.send(ctx, toEmail, toName, "Demo Confirmed! Your HighIQ AI Meeting is Scheduled", text, html)
}

func (s *Service) send(ctx context.Context, toEmail, toName, subject, text, html string) error {
	from := mail.NewEmail(fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, text, html)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		slog.Error("email.send failed", "to", toEmail, "error", err)
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}
	if resp.StatusCode >= 400 {
		slog.Error("email.send rejected", "to", toEmail, "status", resp.StatusCode, "body", resp.Body)
		return fmt.Errorf("sendgrid rejected email to %s with status %d", toEmail, resp.StatusCode)
	}
	slog.Info("email.send succeeded", "to", toEmail, "subject", subject, "status", resp.StatusCode)
	return nil
}
