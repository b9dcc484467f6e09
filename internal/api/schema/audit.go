package schema

import (
	"encoding/json"
	"time"
)

// AuditLog represents a single audit log entry returned by GET /v1/audit-logs.
type AuditLog struct {
	ID        string           `json:"id"`
	Actor     string           `json:"actor"`
	Action    string           `json:"action"`
	ServerID  int64            `json:"serverId"`
	Before    *json.RawMessage `json:"before,omitempty"`
	After     *json.RawMessage `json:"after,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// RawJSON returns doc as a raw message, nil when empty.
func RawJSON(doc string) *json.RawMessage {
	if doc == "" {
		return nil
	}
	raw := json.RawMessage(doc)
	return &raw
}
