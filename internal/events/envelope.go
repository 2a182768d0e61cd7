package events

import (
	"encoding/json"
	"time"
)

// Op is the change-feed operation kind.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Envelope is one change-feed event: a row-level mutation on one of the
// replicated tables, carrying the full record as JSON.
type Envelope struct {
	Op         Op              `json:"op"`
	Table      string          `json:"table"`
	OccurredAt time.Time       `json:"occurred_at"`
	Record     json.RawMessage `json:"record"`
}
