// This file implements the PostgreSQL-backed activity log.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"
	"github.com/rileyzt/highiq-voiceagent/internal/models"
)

// Database connection pool configuration constants.
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool.
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is the PostgreSQL-backed activity log.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres store from the DSN option.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("PostgresStore: failed to open database", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("PostgresStore: ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("PostgresStore: failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("PostgresStore: database ready")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) LogCall(call models.CallRecord) error {
	if call.CallSID == "" {
		return models.ErrEmptyCallSID
	}
	_, err := s.db.Exec(`INSERT INTO calls (call_sid, customer_phone, to_number, call_status, call_duration, demo_requested, call_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (call_sid) DO UPDATE SET
			customer_phone = EXCLUDED.customer_phone,
			to_number = EXCLUDED.to_number,
			call_status = EXCLUDED.call_status`,
		call.CallSID, call.CustomerPhone, call.ToNumber, call.Status, call.Duration, call.DemoRequested, call.CallDate)
	if err != nil {
		slog.Error("PostgresStore.LogCall failed", "error", err, "callSID", call.CallSID)
		return fmt.Errorf("failed to log call %s: %w", call.CallSID, err)
	}
	return nil
}

func (s *PostgresStore) UpdateCallStatus(callSID, status string, durationSeconds int) error {
	_, err := s.db.Exec(`UPDATE calls SET call_status = $1, call_duration = $2 WHERE call_sid = $3`,
		status, durationSeconds, callSID)
	if err != nil {
		slog.Error("PostgresStore.UpdateCallStatus failed", "error", err, "callSID", callSID)
		return fmt.Errorf("failed to update call %s status: %w", callSID, err)
	}
	return nil
}

func (s *PostgresStore) MarkDemoRequested(callSID string) error {
	_, err := s.db.Exec(`UPDATE calls SET demo_requested = TRUE WHERE call_sid = $1`, callSID)
	if err != nil {
		slog.Error("PostgresStore.MarkDemoRequested failed", "error", err, "callSID", callSID)
		return fmt.Errorf("failed to mark demo requested for %s: %w", callSID, err)
	}
	return nil
}

func (s *PostgresStore) LogConversation(entry models.ConversationLogEntry) error {
	_, err := s.db.Exec(`INSERT INTO conversations (call_sid, customer_phone, customer_message, agent_reply, response_time_ms, stt_confidence, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.CallSID, entry.CustomerPhone, entry.CustomerMessage, entry.AgentReply, entry.ResponseTimeMs, entry.STTConfidence, entry.Timestamp)
	if err != nil {
		slog.Error("PostgresStore.LogConversation failed", "error", err, "callSID", entry.CallSID)
		return fmt.Errorf("failed to log conversation for %s: %w", entry.CallSID, err)
	}
	return nil
}

func (s *PostgresStore) LogSMS(rec models.SMSRecord) error {
	_, err := s.db.Exec(`INSERT INTO sms_log (customer_phone, message_type, body, message_sid, delivery_status, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.CustomerPhone, rec.MessageType, rec.Body, rec.MessageSID, rec.DeliveryStatus, rec.SentAt)
	if err != nil {
		slog.Error("PostgresStore.LogSMS failed", "error", err, "to", rec.CustomerPhone)
		return fmt.Errorf("failed to log SMS to %s: %w", rec.CustomerPhone, err)
	}
	return nil
}

func (s *PostgresStore) GetCalls() ([]models.CallRecord, error) {
	rows, err := s.db.Query(`SELECT call_sid, customer_phone, to_number, call_status, call_duration, demo_requested, call_date
		FROM calls ORDER BY call_date DESC`)
	if err != nil {
		slog.Error("PostgresStore.GetCalls query failed", "error", err)
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}
	defer rows.Close()
	return scanCalls(rows)
}

func (s *PostgresStore) GetConversations() ([]models.ConversationLogEntry, error) {
	rows, err := s.db.Query(`SELECT id, call_sid, customer_phone, customer_message, agent_reply, response_time_ms, stt_confidence, timestamp
		FROM conversations ORDER BY timestamp DESC`)
	if err != nil {
		slog.Error("PostgresStore.GetConversations query failed", "error", err)
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()
	return scanConversations(rows)
}

func (s *PostgresStore) GetSMSLogs() ([]models.SMSRecord, error) {
	rows, err := s.db.Query(`SELECT id, customer_phone, message_type, body, message_sid, delivery_status, sent_at
		FROM sms_log ORDER BY sent_at DESC`)
	if err != nil {
		slog.Error("PostgresStore.GetSMSLogs query failed", "error", err)
		return nil, fmt.Errorf("failed to query sms log: %w", err)
	}
	defer rows.Close()
	return scanSMSLogs(rows)
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
