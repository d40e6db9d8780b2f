// Package events carries the engine's SSE fan-out: cron runs and job
// mutations publish JSON envelopes that connected dashboards stream live.
package events

import (
	"encoding/json"
	"time"
)

// Event types published by the engine.
const (
	TypeSearchDone   = "search_done"
	TypeValidateDone = "validate_done"
	TypeEmailDone    = "email_done"
	TypeJobDeleted   = "job_deleted"
	TypeJobApplied   = "job_applied"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
