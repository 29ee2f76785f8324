// Package store provides the activity log for the voice agent: calls,
// per-turn conversation history and outbound SMS records.
//
// Three backends implement the same interface: an in-memory store for
// tests and ephemeral deployments, SQLite for single-node installs, and
// PostgreSQL for shared deployments. The backend is chosen from the DSN.
package store

import (
	"strings"

	"github.com/rileyzt/highiq-voiceagent/internal/models"
)

// Store is the persistence interface for call activity. Conversation
// memory used for reply generation lives in the convo package and is
// never persisted here; this log exists for the dashboard.
type Store interface {
	// LogCall inserts the call or updates it when the SID already exists.
	LogCall(call models.CallRecord) error
	// UpdateCallStatus sets the call's lifecycle status and duration.
	UpdateCallStatus(callSID, status string, durationSeconds int) error
	// MarkDemoRequested flags the call as having triggered demo delivery.
	MarkDemoRequested(callSID string) error
	// LogConversation appends one caller/agent exchange.
	LogConversation(entry models.ConversationLogEntry) error
	// LogSMS appends one outbound SMS record.
	LogSMS(rec models.SMSRecord) error
	// GetCalls returns calls ordered most recent first.
	GetCalls() ([]models.CallRecord, error)
	// GetConversations returns exchanges ordered most recent first.
	GetConversations() ([]models.ConversationLogEntry, error)
	// GetSMSLogs returns SMS records ordered most recent first.
	GetSMSLogs() ([]models.SMSRecord, error)
	// Close releases the backend's resources.
	Close() error
}

// Opts holds configuration options for store construction.
type Opts struct {
	// DSN is the database connection string.
	DSN string
}

// Option configures store construction.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports which driver a DSN belongs to: "postgres" for
// URL-style or key=value connection strings, "sqlite3" for file paths.
func DetectDSNType(dsn string) string {
	if strings.Contains(dsn, "postgres://") || strings.Contains(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite3"
}
