package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rileyzt/highiq-voiceagent/internal/calendly"
	"github.com/rileyzt/highiq-voiceagent/internal/convo"
	"github.com/rileyzt/highiq-voiceagent/internal/email"
	"github.com/rileyzt/highiq-voiceagent/internal/genai"
	"github.com/rileyzt/highiq-voiceagent/internal/scheduler"
	"github.com/rileyzt/highiq-voiceagent/internal/store"
	"github.com/rileyzt/highiq-voiceagent/internal/tts"
	"github.com/rileyzt/highiq-voiceagent/internal/twiliovoice"
)

// Defaults for the HTTP server.
const (
	DefaultAddr = ":8080"
	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
	// DefaultHealthTimeout bounds each dependency health probe.
	DefaultHealthTimeout = 5 * time.Second
	// DefaultDemoVideoURL is the product demo video sent by SMS.
	DefaultDemoVideoURL = "https://youtu.be/6MLu3fbNsdY"
	// DefaultBookingURL is the consultation booking page used when
	// Calendly resolution is unavailable.
	DefaultBookingURL = "https://calendly.com/pervezonboard"
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr          string
	ServerBaseURL string
	DemoVideoURL  string
	BookingURL    string
	AudioDir      string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithServerBaseURL sets the externally reachable base URL used in
// webhook and audio links.
func WithServerBaseURL(u string) Option {
	return func(o *Opts) { o.ServerBaseURL = u }
}

// WithDemoVideoURL sets the demo video link sent by SMS.
func WithDemoVideoURL(u string) Option {
	return func(o *Opts) { o.DemoVideoURL = u }
}

// WithBookingURL sets the fallback consultation booking link.
func WithBookingURL(u string) Option {
	return func(o *Opts) { o.BookingURL = u }
}

// WithAudioDir sets the directory served under /audio/.
func WithAudioDir(dir string) Option {
	return func(o *Opts) { o.AudioDir = dir }
}

// Server wires the voice webhooks and dashboard to their services.
type Server struct {
	engine        *convo.Engine
	store         store.Store
	sms           twiliovoice.Sender
	tts           tts.Synthesizer
	mailer        email.Mailer
	cal           *calendly.Client
	addr          string
	serverBaseURL string
	demoVideoURL  string
	bookingURL    string
	audioDir      string
	now           func() time.Time
}

// NewServer assembles a server from its dependencies. mailer and cal may
// be nil; the Calendly webhook then skips confirmation email and booking
// URL resolution falls back to the configured link.
func NewServer(engine *convo.Engine, st store.Store, sms twiliovoice.Sender, synth tts.Synthesizer, mailer email.Mailer, cal *calendly.Client, opts ...Option) *Server {
	cfg := Opts{
		Addr:          DefaultAddr,
		ServerBaseURL: "http://localhost:8080",
		DemoVideoURL:  DefaultDemoVideoURL,
		BookingURL:    DefaultBookingURL,
		AudioDir:      "public/audio",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		engine:        engine,
		store:         st,
		sms:           sms,
		tts:           synth,
		mailer:        mailer,
		cal:           cal,
		addr:          cfg.Addr,
		serverBaseURL: strings.TrimRight(cfg.ServerBaseURL, "/"),
		demoVideoURL:  cfg.DemoVideoURL,
		bookingURL:    cfg.BookingURL,
		audioDir:      cfg.AudioDir,
		now:           time.Now,
	}
}

// Routes builds the request mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/voice/incoming", s.incomingCallHandler)
	mux.HandleFunc("/voice/process-speech", s.processSpeechHandler)
	mux.HandleFunc("/voice/status", s.callStatusHandler)
	mux.HandleFunc("/voice/call-me", s.callMeHandler)
	mux.HandleFunc("/voice/book-demo", s.bookDemoHandler)
	mux.HandleFunc("/voice/health", s.healthHandler)
	mux.HandleFunc("/voice/debug/conversation", s.debugConversationHandler)
	mux.HandleFunc("/webhooks/calendly", s.calendlyWebhookHandler)
	mux.HandleFunc("/dashboard/stats", s.statsHandler)
	mux.HandleFunc("/dashboard/calls", s.callsHandler)
	mux.HandleFunc("/dashboard/conversations", s.conversationsHandler)
	mux.HandleFunc("/dashboard/analytics/call-volume", s.callVolumeHandler)
	mux.HandleFunc("/dashboard/customers", s.customersHandler)
	mux.HandleFunc("/dashboard/realtime", s.realtimeHandler)
	mux.HandleFunc("/dashboard/health", s.dashboardHealthHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.Handle("/audio/", http.StripPrefix("/audio/", http.FileServer(http.Dir(s.audioDir))))
	return mux
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	srv := &http.Server{Addr: s.addr, Handler: s.Routes()}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Start: listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case sig := <-sigCh:
		slog.Info("Server.Start: shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// Run constructs every service from the option sets, wires the background
// sweeps and serves until shutdown.
func Run(genaiOpts []genai.Option, storeOpts []store.Option, twilioOpts []twiliovoice.Option, ttsOpts []tts.Option, apiOpts []Option) error {
	gaClient, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return fmt.Errorf("failed to create chat client: %w", err)
	}

	st, err := buildStore(storeOpts)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer st.Close()

	sms, err := twiliovoice.NewClient(twilioOpts...)
	if err != nil {
		return fmt.Errorf("failed to create Twilio client: %w", err)
	}

	synth, err := tts.NewService(ttsOpts...)
	if err != nil {
		return fmt.Errorf("failed to create TTS service: %w", err)
	}

	mailer := buildMailer()
	cal := buildCalendly(apiOpts)

	engine := convo.NewEngine(convo.NewMemoryStore(), gaClient)
	server := NewServer(engine, st, sms, synth, mailer, cal, apiOpts...)

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := sched.AddJob(scheduler.HourlySweep, func() {
		engine.EvictStale(time.Now(), convo.DefaultMaxAge)
	}); err != nil {
		return fmt.Errorf("failed to schedule conversation sweep: %w", err)
	}
	if err := sched.AddJob(scheduler.AudioCleanupSweep, func() {
		synth.CleanupStale(time.Now())
	}); err != nil {
		return fmt.Errorf("failed to schedule audio cleanup: %w", err)
	}

	return server.Start()
}

// buildStore selects a backend from the DSN: none configured means
// in-memory, otherwise SQLite or Postgres by detection.
func buildStore(storeOpts []store.Option) (store.Store, error) {
	var cfg store.Opts
	for _, opt := range storeOpts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Info("Run: no database DSN configured, using in-memory activity log")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(cfg.DSN) == "postgres" {
		return store.NewPostgresStore(storeOpts...)
	}
	return store.NewSQLiteStore(storeOpts...)
}

// buildMailer creates the SendGrid mailer when credentials are present.
func buildMailer() email.Mailer {
	if os.Getenv("SENDGRID_API_KEY") == "" {
		slog.Info("Run: SendGrid not configured, booking confirmation email disabled")
		return nil
	}
	mailer, err := email.NewService()
	if err != nil {
		slog.Warn("Run: failed to create email service, continuing without it", "error", err)
		return nil
	}
	return mailer
}

// buildCalendly creates the Calendly client when a token is present.
func buildCalendly(apiOpts []Option) *calendly.Client {
	if os.Getenv("CALENDLY_TOKEN") == "" {
		slog.Info("Run: Calendly not configured, using fallback booking URL")
		return nil
	}
	cfg := Opts{BookingURL: DefaultBookingURL}
	for _, opt := range apiOpts {
		opt(&cfg)
	}
	cal, err := calendly.NewClient(calendly.WithFallbackBookingURL(cfg.BookingURL))
	if err != nil {
		slog.Warn("Run: failed to create Calendly client, continuing without it", "error", err)
		return nil
	}
	return cal
}
