package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention.
type EventCategory string

const (
	// CategoryCompliance covers reviewer decisions and intake, which must be
	// traceable for the lifetime of the case file.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity such as evidence appended by
	// upstream processes.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted after a state change has been committed. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	// Subject is the verification request id.
	Subject    string `json:"subject"`
	ActorID    string `json:"actor_id,omitempty"`
	Decision   string `json:"decision,omitempty"`
	Reason     string `json:"reason,omitempty"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	ClientIP   string `json:"client_ip,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	Client     string `json:"client,omitempty"`
}

type AuditEvent string

const (
	EventRequestReceived  AuditEvent = "request_received"
	EventDecisionApplied  AuditEvent = "decision_applied"
	EventEvidenceAppended AuditEvent = "evidence_appended"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRequestReceived:  CategoryCompliance,
	EventDecisionApplied:  CategoryCompliance,
	EventEvidenceAppended: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
