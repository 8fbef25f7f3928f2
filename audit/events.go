// Package audit persists authorization decision events for after-the-fact
// review: who was denied what, and why. The default sink logs; the
// ClickHouse writer batches events for deployments that keep a durable
// trail.
package audit

import "time"

// EventWriter is the sink for decision events.
// Write must NEVER block the caller.
type EventWriter interface {
	Write(event *DecisionEvent)
	Close()
}

// DecisionEvent records one authorization check result.
type DecisionEvent struct {
	RequestID          string
	Timestamp          time.Time
	SubjectType        string
	SubjectID          string
	ResourceType       string
	ResourceID         string
	Action             string
	Allowed            bool
	Reason             string
	FailMode           string
	Attempts           uint8
	ServiceUnavailable bool
	ToolName           string
	UserID             string
	SessionID          string
	LatencyMs          float32
}
