// This file implements the SQLite-backed activity log.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/rileyzt/highiq-voiceagent/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore is the SQLite-backed activity log.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates an SQLite store from the DSN option. The DSN is a
// file path; missing parent directories are created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("SQLiteStore: failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("SQLiteStore: failed to open database", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLiteStore: ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("SQLiteStore: failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLiteStore: database ready", "path", cfg.DSN)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) LogCall(call models.CallRecord) error {
	if call.CallSID == "" {
		return models.ErrEmptyCallSID
	}
	_, err := s.db.Exec(`INSERT INTO calls (call_sid, customer_phone, to_number, call_status, call_duration, demo_requested, call_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(call_sid) DO UPDATE SET
			customer_phone = excluded.customer_phone,
			to_number = excluded.to_number,
			call_status = excluded.call_status`,
		call.CallSID, call.CustomerPhone, call.ToNumber, call.Status, call.Duration, call.DemoRequested, call.CallDate)
	if err != nil {
		slog.Error("SQLiteStore.LogCall failed", "error", err, "callSID", call.CallSID)
		return fmt.Errorf("failed to log call %s: %w", call.CallSID, err)
	}
	slog.Debug("SQLiteStore.LogCall succeeded", "callSID", call.CallSID, "status", call.Status)
	return nil
}

func (s *SQLiteStore) UpdateCallStatus(callSID, status string, durationSeconds int) error {
	_, err := s.db.Exec(`UPDATE calls SET call_status = ?, call_duration = ? WHERE call_sid = ?`,
		status, durationSeconds, callSID)
	if err != nil {
		slog.Error("SQLiteStore.UpdateCallStatus failed", "error", err, "callSID", callSID)
		return fmt.Errorf("failed to update call %s status: %w", callSID, err)
	}
	return nil
}

func (s *SQLiteStore) MarkDemoRequested(callSID string) error {
	_, err := s.db.Exec(`UPDATE calls SET demo_requested = 1 WHERE call_sid = ?`, callSID)
	if err != nil {
		slog.Error("SQLiteStore.MarkDemoRequested failed", "error", err, "callSID", callSID)
		return fmt.Errorf("failed to mark demo requested for %s: %w", callSID, err)
	}
	return nil
}

func (s *SQLiteStore) LogConversation(entry models.ConversationLogEntry) error {
	_, err := s.db.Exec(`INSERT INTO conversations (call_sid, customer_phone, customer_message, agent_reply, response_time_ms, stt_confidence, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.CallSID, entry.CustomerPhone, entry.CustomerMessage, entry.AgentReply, entry.ResponseTimeMs, entry.STTConfidence, entry.Timestamp)
	if err != nil {
		slog.Error("SQLiteStore.LogConversation failed", "error", err, "callSID", entry.CallSID)
		return fmt.Errorf("failed to log conversation for %s: %w", entry.CallSID, err)
	}
	return nil
}

func (s *SQLiteStore) LogSMS(rec models.SMSRecord) error {
	_, err := s.db.Exec(`INSERT INTO sms_log (customer_phone, message_type, body, message_sid, delivery_status, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.CustomerPhone, rec.MessageType, rec.Body, rec.MessageSID, rec.DeliveryStatus, rec.SentAt)
	if err != nil {
		slog.Error("SQLiteStore.LogSMS failed", "error", err, "to", rec.CustomerPhone)
		return fmt.Errorf("failed to log SMS to %s: %w", rec.CustomerPhone, err)
	}
	return nil
}

func (s *SQLiteStore) GetCalls() ([]models.CallRecord, error) {
	rows, err := s.db.Query(`SELECT call_sid, customer_phone, to_number, call_status, call_duration, demo_requested, call_date
		FROM calls ORDER BY call_date DESC`)
	if err != nil {
		slog.Error("SQLiteStore.GetCalls query failed", "error", err)
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}
	defer rows.Close()
	return scanCalls(rows)
}

func (s *SQLiteStore) GetConversations() ([]models.ConversationLogEntry, error) {
	rows, err := s.db.Query(`SELECT id, call_sid, customer_phone, customer_message, agent_reply, response_time_ms, stt_confidence, timestamp
		FROM conversations ORDER BY timestamp DESC`)
	if err != nil {
		slog.Error("SQLiteStore.GetConversations query failed", "error", err)
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()
	return scanConversations(rows)
}

func (s *SQLiteStore) GetSMSLogs() ([]models.SMSRecord, error) {
	rows, err := s.db.Query(`SELECT id, customer_phone, message_type, body, message_sid, delivery_status, sent_at
		FROM sms_log ORDER BY sent_at DESC`)
	if err != nil {
		slog.Error("SQLiteStore.GetSMSLogs query failed", "error", err)
		return nil, fmt.Errorf("failed to query sms log: %w", err)
	}
	defer rows.Close()
	return scanSMSLogs(rows)
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
