package handler

import (
	"strings"
	"time"

	"verifdesk/internal/verification/models"
	id "verifdesk/pkg/domain"
	dErrors "verifdesk/pkg/domain-errors"
)

const (
	maxIntakeItems   = 100
	maxContentLength = 4000
)

// DecisionRequest is the HTTP request body for POST /controller/requests/{id}/decision.
type DecisionRequest struct {
	Decision   string   `json:"decision"`
	Reason     string   `json:"reason"`
	Notes      string   `json:"notes"`
	Conditions []string `json:"conditions"`

	parsedKind models.DecisionKind
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *DecisionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Decision = strings.TrimSpace(r.Decision)
	if r.Decision == "" {
		return dErrors.New(dErrors.CodeValidation, "decision is required")
	}
	kind, err := models.ParseDecisionKind(r.Decision)
	if err != nil {
		return err
	}
	r.parsedKind = kind
	return nil
}

// ToDecision builds the domain command; the service validates the rest.
func (r *DecisionRequest) ToDecision(requestID id.VerificationID) models.Decision {
	return models.Decision{
		RequestID:  requestID,
		Kind:       r.parsedKind,
		Reason:     r.Reason,
		Notes:      r.Notes,
		Conditions: r.Conditions,
	}
}

// IntakeRequest is the HTTP request body for POST /intake/requests. Risk and
// priority arrive already assigned by the upstream scoring process.
type IntakeRequest struct {
	ID                         string                     `json:"id"`
	Applicant                  models.Applicant           `json:"applicant"`
	DocumentType               string                     `json:"document_type"`
	Status                     string                     `json:"status"`
	RiskLevel                  string                     `json:"risk_level"`
	Priority                   int                        `json:"priority"`
	RequestedAt                time.Time                  `json:"requested_at"`
	AssignedTo                 string                     `json:"assigned_to"`
	Source                     string                     `json:"source"`
	Location                   string                     `json:"location"`
	EstimatedProcessingMinutes int                        `json:"estimated_processing_minutes"`
	Documents                  []models.Document          `json:"documents"`
	Verifications              []models.VerificationCheck `json:"verifications"`
	Notes                      []models.Note              `json:"notes"`
}

func (r *IntakeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Documents) > maxIntakeItems || len(r.Verifications) > maxIntakeItems || len(r.Notes) > maxIntakeItems {
		return dErrors.New(dErrors.CodeValidation, "too many documents, verifications or notes")
	}
	r.ID = strings.TrimSpace(r.ID)
	r.Applicant.FirstName = strings.TrimSpace(r.Applicant.FirstName)
	r.Applicant.LastName = strings.TrimSpace(r.Applicant.LastName)
	if r.Applicant.FirstName == "" || r.Applicant.LastName == "" {
		return dErrors.New(dErrors.CodeValidation, "applicant.first_name and applicant.last_name are required")
	}
	if strings.TrimSpace(r.DocumentType) == "" {
		return dErrors.New(dErrors.CodeValidation, "document_type is required")
	}
	if strings.TrimSpace(r.RiskLevel) == "" {
		return dErrors.New(dErrors.CodeValidation, "risk_level is required")
	}
	r.AssignedTo = strings.TrimSpace(r.AssignedTo)
	if r.AssignedTo != "" {
		if _, err := id.ParseReviewerID(r.AssignedTo); err != nil {
			return err
		}
	}
	return nil
}

func (r *IntakeRequest) ToModel() *models.VerificationRequest {
	return &models.VerificationRequest{
		ID:                         id.VerificationID(r.ID),
		Applicant:                  r.Applicant,
		DocumentType:               models.DocumentType(strings.TrimSpace(r.DocumentType)),
		Status:                     models.Status(strings.TrimSpace(r.Status)),
		RiskLevel:                  models.RiskLevel(strings.TrimSpace(r.RiskLevel)),
		Priority:                   r.Priority,
		RequestedAt:                r.RequestedAt,
		AssignedTo:                 id.ReviewerID(r.AssignedTo),
		Source:                     models.Source(strings.TrimSpace(r.Source)),
		Location:                   strings.TrimSpace(r.Location),
		EstimatedProcessingMinutes: r.EstimatedProcessingMinutes,
		Documents:                  r.Documents,
		Verifications:              r.Verifications,
		Notes:                      r.Notes,
	}
}

// AppendDocumentRequest is the body for POST /intake/requests/{id}/documents.
type AppendDocumentRequest struct {
	Type     string   `json:"type"`
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	Verified bool     `json:"verified"`
	Issues   []string `json:"issues"`
}

func (r *AppendDocumentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.URL = strings.TrimSpace(r.URL)
	if r.Name == "" || r.URL == "" {
		return dErrors.New(dErrors.CodeValidation, "name and url are required")
	}
	return nil
}

func (r *AppendDocumentRequest) ToModel() models.Document {
	return models.Document{
		Type:     strings.TrimSpace(r.Type),
		Name:     r.Name,
		URL:      r.URL,
		Verified: r.Verified,
		Issues:   r.Issues,
	}
}

// AppendCheckRequest is the body for POST /intake/requests/{id}/checks.
type AppendCheckRequest struct {
	Method      string `json:"method"`
	Result      string `json:"result"`
	Score       *int   `json:"score"`
	Details     string `json:"details"`
	PerformedBy string `json:"performed_by"`

	parsedMethod models.CheckMethod
	parsedResult models.CheckResult
}

func (r *AppendCheckRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Details) > maxContentLength {
		return dErrors.New(dErrors.CodeValidation, "details must be at most 4000 characters")
	}
	method, err := models.ParseCheckMethod(strings.TrimSpace(r.Method))
	if err != nil {
		return err
	}
	result, err := models.ParseCheckResult(strings.TrimSpace(r.Result))
	if err != nil {
		return err
	}
	r.parsedMethod = method
	r.parsedResult = result
	return nil
}

func (r *AppendCheckRequest) ToModel() models.VerificationCheck {
	return models.VerificationCheck{
		Method:      r.parsedMethod,
		Result:      r.parsedResult,
		Score:       r.Score,
		Details:     strings.TrimSpace(r.Details),
		PerformedBy: strings.TrimSpace(r.PerformedBy),
	}
}

// AppendNoteRequest is the body for POST /intake/requests/{id}/notes.
type AppendNoteRequest struct {
	Content   string `json:"content"`
	CreatedBy string `json:"created_by"`
	Type      string `json:"type"`
}

func (r *AppendNoteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return dErrors.New(dErrors.CodeValidation, "content is required")
	}
	if len(r.Content) > maxContentLength {
		return dErrors.New(dErrors.CodeValidation, "content must be at most 4000 characters")
	}
	return nil
}

func (r *AppendNoteRequest) ToModel() models.Note {
	return models.Note{
		Content:   r.Content,
		CreatedBy: strings.TrimSpace(r.CreatedBy),
		Type:      models.NoteType(strings.TrimSpace(r.Type)),
	}
}
