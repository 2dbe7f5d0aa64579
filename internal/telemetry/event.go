// Package telemetry emits security events for monitoring pipelines.
package telemetry

import "time"

// Event is one security-monitoring event (e.g. an authenticated RPC, a
// refresh-reuse detection). Serialized as JSON on the wire.
type Event struct {
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	EventType string    `json:"event_type"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
