// Package queue defines message payloads exchanged over the message broker
// together with the publisher and consumer for them.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/sgp-controller/internal/model"
)

// DefaultLedgerQueue is the durable queue carrying committed history entries.
const DefaultLedgerQueue = "ledger.recorded"

// LedgerRecordedEvent is published after a ledger operation commits.  It
// carries enough information for downstream consumers to audit or notify
// without querying the primary database.
type LedgerRecordedEvent struct {
	EventID    string `json:"event_id"`
	EntryID    int64  `json:"entry_id"`
	SessionID  int64  `json:"session_id"`
	Kind       string `json:"kind"`
	Detail     string `json:"detail"`
	Amount     int64  `json:"amount"`
	RecordedAt string `json:"recorded_at"`
}

// NewLedgerRecordedEvent builds the event for a committed entry.  Each call
// gets a fresh event ID so consumers can de-duplicate redeliveries.
func NewLedgerRecordedEvent(e model.HistoryEntry, amount int64) LedgerRecordedEvent {
	return LedgerRecordedEvent{
		EventID:    uuid.NewString(),
		EntryID:    e.ID,
		SessionID:  e.SessionID,
		Kind:       string(e.Kind),
		Detail:     e.Detail,
		Amount:     amount,
		RecordedAt: e.At.UTC().Format(time.RFC3339Nano),
	}
}
