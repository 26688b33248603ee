package models

import (
	"strings"
	"time"

	id "verifdesk/pkg/domain"
	dErrors "verifdesk/pkg/domain-errors"
)

// Applicant is the identity subject of a request. It is immutable once
// attached; corrections go through a new request.
type Applicant struct {
	ID                   string `json:"id"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	DateOfBirth          string `json:"date_of_birth"`
	PlaceOfBirth         string `json:"place_of_birth"`
	Nationality          string `json:"nationality"`
	Gender               Gender `json:"gender"`
	Address              string `json:"address"`
	Phone                string `json:"phone"`
	Email                string `json:"email,omitempty"`
	PhotoURL             string `json:"photo_url,omitempty"`
	IdentificationNumber string `json:"identification_number,omitempty"`
}

// Document is an evidentiary artifact owned by its request.
type Document struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
	Verified   bool      `json:"verified"`
	Issues     []string  `json:"issues,omitempty"`
}

// VerificationCheck is the append-only result of one automated or manual check.
type VerificationCheck struct {
	ID          string      `json:"id"`
	Method      CheckMethod `json:"method"`
	Result      CheckResult `json:"result"`
	Score       *int        `json:"score,omitempty"`
	Details     string      `json:"details"`
	PerformedAt time.Time   `json:"performed_at"`
	PerformedBy string      `json:"performed_by"`
}

// Note is an append-only annotation. Decision is set when the note records a
// reviewer decision.
type Note struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	CreatedBy string       `json:"created_by"`
	CreatedAt time.Time    `json:"created_at"`
	Type      NoteType     `json:"type"`
	Decision  DecisionKind `json:"decision,omitempty"`
}

// VerificationRequest is the aggregate root.
//
// Invariants:
//   - ID is assigned at intake and never changes
//   - Status changes only through ApplyDecision, following the transition table
//   - RiskLevel and Priority are inputs from risk scoring and never mutated here
//   - Documents, Verifications and Notes are append-only
//   - ResolvedAt/ResolvedBy are set exactly once, on entering a terminal status
type VerificationRequest struct {
	ID                         id.VerificationID
	Applicant                  Applicant
	DocumentType               DocumentType
	Status                     Status
	RiskLevel                  RiskLevel
	Priority                   int
	RequestedAt                time.Time
	AssignedTo                 id.ReviewerID
	Source                     Source
	Location                   string
	EstimatedProcessingMinutes int
	Documents                  []Document
	Verifications              []VerificationCheck
	Notes                      []Note
	ResolvedAt                 *time.Time
	ResolvedBy                 id.ReviewerID
	UpdatedAt                  time.Time
}

// CanApply reports whether kind may be applied in the current status.
// Use with ApplyDecision inside store Execute callbacks.
func (r *VerificationRequest) CanApply(kind DecisionKind) error {
	_, err := kind.ResultingStatus(r.Status)
	return err
}

// ApplyDecision transitions the status and appends the decision note. An
// illegal transition returns the CanApply error and leaves r unchanged.
func (r *VerificationRequest) ApplyDecision(kind DecisionKind, note Note, now time.Time) error {
	next, err := kind.ResultingStatus(r.Status)
	if err != nil {
		return err
	}
	note.Decision = kind
	note.Type = kind.NoteType()
	r.Notes = append(r.Notes, note)
	if next.IsTerminal() {
		resolved := now
		r.ResolvedAt = &resolved
		r.ResolvedBy = id.ReviewerID(note.CreatedBy)
	}
	r.Status = next
	r.UpdatedAt = now
	return nil
}

// Overdue reports whether an open request has exceeded its processing estimate.
func (r *VerificationRequest) Overdue(asOf time.Time) bool {
	if !r.Status.IsOpen() || r.EstimatedProcessingMinutes <= 0 {
		return false
	}
	deadline := r.RequestedAt.Add(time.Duration(r.EstimatedProcessingMinutes) * time.Minute)
	return deadline.Before(asOf)
}

// ValidateForIntake checks a request handed over by the intake process.
func (r *VerificationRequest) ValidateForIntake() error {
	if r.ID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "id is required")
	}
	if r.Status != StatusPending {
		return dErrors.New(dErrors.CodeValidation, "new requests must be pending")
	}
	if strings.TrimSpace(r.Applicant.FirstName) == "" || strings.TrimSpace(r.Applicant.LastName) == "" {
		return dErrors.New(dErrors.CodeValidation, "applicant first and last name are required")
	}
	if r.Applicant.Gender != "" {
		if _, err := ParseGender(string(r.Applicant.Gender)); err != nil {
			return err
		}
	}
	if _, err := ParseDocumentType(string(r.DocumentType)); err != nil {
		return err
	}
	if _, err := ParseRiskLevel(string(r.RiskLevel)); err != nil {
		return err
	}
	if _, err := ParseSource(string(r.Source)); err != nil {
		return err
	}
	if r.Priority < 1 {
		return dErrors.New(dErrors.CodeValidation, "priority must be at least 1")
	}
	if r.RequestedAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "requested_at is required")
	}
	if r.EstimatedProcessingMinutes < 0 {
		return dErrors.New(dErrors.CodeValidation, "estimated processing time cannot be negative")
	}
	if r.ResolvedAt != nil || !r.ResolvedBy.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "new requests cannot be resolved")
	}
	for i := range r.Documents {
		if err := r.Documents[i].Validate(); err != nil {
			return err
		}
	}
	for i := range r.Verifications {
		if err := r.Verifications[i].Validate(); err != nil {
			return err
		}
	}
	for i := range r.Notes {
		if err := r.Notes[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *VerificationCheck) Validate() error {
	if _, err := ParseCheckMethod(string(c.Method)); err != nil {
		return err
	}
	if _, err := ParseCheckResult(string(c.Result)); err != nil {
		return err
	}
	if c.Score != nil && (*c.Score < 0 || *c.Score > 100) {
		return dErrors.New(dErrors.CodeValidation, "check score must be between 0 and 100")
	}
	return nil
}

// Validate checks notes appended by external processes. Decision notes are
// only produced by ApplyDecision.
func (n *Note) Validate() error {
	if strings.TrimSpace(n.Content) == "" {
		return dErrors.New(dErrors.CodeValidation, "note content is required")
	}
	if _, err := ParseNoteType(string(n.Type)); err != nil {
		return err
	}
	if n.Decision != "" {
		return dErrors.New(dErrors.CodeValidation, "decision notes cannot be appended directly")
	}
	return nil
}

func (d *Document) Validate() error {
	if strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.URL) == "" {
		return dErrors.New(dErrors.CodeValidation, "document name and url are required")
	}
	return nil
}

// Clone returns a deep copy so callers never alias stored state.
func (r *VerificationRequest) Clone() *VerificationRequest {
	if r == nil {
		return nil
	}
	c := *r
	if r.Documents != nil {
		c.Documents = make([]Document, len(r.Documents))
		for i, d := range r.Documents {
			if d.Issues != nil {
				d.Issues = append([]string(nil), d.Issues...)
			}
			c.Documents[i] = d
		}
	}
	if r.Verifications != nil {
		c.Verifications = make([]VerificationCheck, len(r.Verifications))
		for i, v := range r.Verifications {
			if v.Score != nil {
				score := *v.Score
				v.Score = &score
			}
			c.Verifications[i] = v
		}
	}
	if r.Notes != nil {
		c.Notes = append([]Note(nil), r.Notes...)
	}
	if r.ResolvedAt != nil {
		resolved := *r.ResolvedAt
		c.ResolvedAt = &resolved
	}
	return &c
}
