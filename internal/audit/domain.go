// Package audit exposes the read side of the audit trail written by
// shared.AuditLogger.
package audit

import (
	"encoding/json"
	"time"
)

// Entry is one row of the audit trail.
type Entry struct {
	At        time.Time       `json:"at"`
	ActorName string          `json:"actor_name"`
	ActorRole string          `json:"actor_role"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entity_id"`
	Meta      json.RawMessage `json:"meta,omitempty"`
}

// TimelineFilters narrows the audit timeline. Zero values mean no filter.
type TimelineFilters struct {
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Actor   string    `json:"actor"`
	Entity  string    `json:"entity"`
	Action  string    `json:"action"`
	Page    int       `json:"page"`
	PerPage int       `json:"per_page"`
}
