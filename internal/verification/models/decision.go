package models

import (
	"strings"

	id "verifdesk/pkg/domain"
	dErrors "verifdesk/pkg/domain-errors"
)

// DecisionKind is the action a reviewer takes on an open request.
type DecisionKind string

const (
	DecisionApprove     DecisionKind = "approve"
	DecisionReject      DecisionKind = "reject"
	DecisionEscalate    DecisionKind = "escalate"
	DecisionRequestInfo DecisionKind = "request_info"
)

const (
	maxReasonLength    = 2000
	maxConditions      = 20
	maxConditionLength = 200
)

func ParseDecisionKind(s string) (DecisionKind, error) {
	k := DecisionKind(s)
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unrecognized decision: "+s)
	}
	return k, nil
}

func (k DecisionKind) IsValid() bool {
	_, ok := notifications[k]
	return ok
}

// ResultingStatus applies the transition table to an open status:
//
//	approve      -> approved
//	reject       -> rejected
//	escalate     -> escalated
//	request_info -> unchanged
//
// Terminal statuses accept no decision.
func (k DecisionKind) ResultingStatus(current Status) (Status, error) {
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unrecognized decision: "+string(k))
	}
	if !current.IsOpen() {
		return "", dErrors.New(dErrors.CodeInvalidTransition, "verification request is already closed")
	}
	switch k {
	case DecisionApprove:
		return StatusApproved, nil
	case DecisionReject:
		return StatusRejected, nil
	case DecisionEscalate:
		return StatusEscalated, nil
	default:
		return current, nil
	}
}

// NoteType is the category of the note recorded for this decision.
func (k DecisionKind) NoteType() NoteType {
	if k == DecisionReject || k == DecisionEscalate {
		return NoteActionRequired
	}
	return NoteInfo
}

// Decision is a reviewer command. It is consumed once; its effects are stored
// as a status transition plus a Note.
type Decision struct {
	RequestID  id.VerificationID
	Kind       DecisionKind
	Reason     string
	Notes      string
	Conditions []string
}

// Validate normalizes free text and rejects malformed decisions before any
// store access.
func (d *Decision) Validate() error {
	if d.RequestID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "request id is required")
	}
	if !d.Kind.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unrecognized decision: "+string(d.Kind))
	}
	d.Reason = strings.TrimSpace(d.Reason)
	d.Notes = strings.TrimSpace(d.Notes)
	if len(d.Reason) > maxReasonLength || len(d.Notes) > maxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "reason and notes must be at most 2000 characters")
	}
	d.Conditions = normalizeConditions(d.Conditions)
	if len(d.Conditions) > maxConditions {
		return dErrors.New(dErrors.CodeValidation, "too many conditions")
	}
	for _, c := range d.Conditions {
		if len(c) > maxConditionLength {
			return dErrors.New(dErrors.CodeValidation, "condition must be at most 200 characters")
		}
	}
	return nil
}

// NoteContent is the reason, else the notes, else the notification text.
// Conditions are appended on a trailing line.
func (d Decision) NoteContent() string {
	content := d.Reason
	if content == "" {
		content = d.Notes
	}
	if content == "" {
		content = NotificationFor(d.Kind).Description
	}
	if len(d.Conditions) > 0 {
		content += "\nConditions : " + strings.Join(d.Conditions, "; ")
	}
	return content
}

// normalizeConditions trims, drops empties and removes duplicates, keeping
// first-seen order.
func normalizeConditions(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Notification is the toast payload returned to the reviewer UI.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// notifications is the single table of reviewer-facing messages, keyed by
// decision kind. It also defines the set of recognized kinds.
var notifications = map[DecisionKind]Notification{
	DecisionApprove: {
		Title:       "✅ Demande approuvée",
		Description: "La demande a été approuvée avec succès.",
	},
	DecisionReject: {
		Title:       "❌ Demande rejetée",
		Description: "La demande a été rejetée.",
	},
	DecisionEscalate: {
		Title:       "⬆️ Demande escaladée",
		Description: "La demande a été transférée à un superviseur.",
	},
	DecisionRequestInfo: {
		Title:       "📝 Informations demandées",
		Description: "Une demande d'informations complémentaires a été envoyée.",
	},
}

// NotificationFor returns the message for kind; unknown kinds yield the zero value.
func NotificationFor(kind DecisionKind) Notification {
	return notifications[kind]
}
