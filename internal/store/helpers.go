package store

import (
	"database/sql"
	"fmt"

	"github.com/rileyzt/highiq-voiceagent/internal/models"
)

// scanCalls reads call rows into records. Shared by both SQL backends.
func scanCalls(rows *sql.Rows) ([]models.CallRecord, error) {
	var calls []models.CallRecord
	for rows.Next() {
		var c models.CallRecord
		if err := rows.Scan(&c.CallSID, &c.CustomerPhone, &c.ToNumber, &c.Status, &c.Duration, &c.DemoRequested, &c.CallDate); err != nil {
			return nil, fmt.Errorf("failed to scan call row: %w", err)
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate call rows: %w", err)
	}
	return calls, nil
}

// scanConversations reads conversation rows into entries.
func scanConversations(rows *sql.Rows) ([]models.ConversationLogEntry, error) {
	var entries []models.ConversationLogEntry
	for rows.Next() {
		var e models.ConversationLogEntry
		if err := rows.Scan(&e.ID, &e.CallSID, &e.CustomerPhone, &e.CustomerMessage, &e.AgentReply, &e.ResponseTimeMs, &e.STTConfidence, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation rows: %w", err)
	}
	return entries, nil
}

// scanSMSLogs reads SMS rows into records.
func scanSMSLogs(rows *sql.Rows) ([]models.SMSRecord, error) {
	var recs []models.SMSRecord
	for rows.Next() {
		var r models.SMSRecord
		if err := rows.Scan(&r.ID, &r.CustomerPhone, &r.MessageType, &r.Body, &r.MessageSID, &r.DeliveryStatus, &r.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan sms row: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sms rows: %w", err)
	}
	return recs, nil
}
