package models

import (
	dErrors "verifdesk/pkg/domain-errors"
)

// Status is the lifecycle state of a verification request.
//
// Open statuses (pending, in_review, flagged, escalated) accept further
// decisions and appear in the review queue. Terminal statuses (approved,
// rejected) are immutable here; reopening a case happens outside this service.
type Status string

const (
	StatusPending   Status = "pending"
	StatusInReview  Status = "in_review"
	StatusFlagged   Status = "flagged"
	StatusEscalated Status = "escalated"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

var statusLabels = map[Status]string{
	StatusPending:   "En Attente",
	StatusInReview:  "En Cours",
	StatusFlagged:   "Signalé",
	StatusEscalated: "Escaladé",
	StatusApproved:  "Approuvé",
	StatusRejected:  "Rejeté",
}

// OpenStatuses lists the statuses shown in the review queue, in display order.
func OpenStatuses() []Status {
	return []Status{StatusPending, StatusInReview, StatusFlagged, StatusEscalated}
}

// TerminalStatuses lists the statuses shown in the history view.
func TerminalStatuses() []Status {
	return []Status{StatusApproved, StatusRejected}
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid status: "+s)
	}
	return st, nil
}

func (s Status) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s Status) IsOpen() bool {
	switch s {
	case StatusPending, StatusInReview, StatusFlagged, StatusEscalated:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Label returns the French display label.
func (s Status) Label() string {
	return statusLabels[s]
}

func (s Status) String() string {
	return string(s)
}
