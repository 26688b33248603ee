package handler

import (
	"time"

	"verifdesk/internal/verification/models"
	"verifdesk/internal/verification/service"
)

// RequestResponse is the full view of one request, with French display labels.
type RequestResponse struct {
	ID                         string                     `json:"id"`
	Applicant                  models.Applicant           `json:"applicant"`
	DocumentType               string                     `json:"document_type"`
	DocumentTypeLabel          string                     `json:"document_type_label"`
	Status                     string                     `json:"status"`
	StatusLabel                string                     `json:"status_label"`
	RiskLevel                  string                     `json:"risk_level"`
	RiskLabel                  string                     `json:"risk_label"`
	Priority                   int                        `json:"priority"`
	RequestedAt                time.Time                  `json:"requested_at"`
	AssignedTo                 string                     `json:"assigned_to,omitempty"`
	Source                     string                     `json:"source"`
	Location                   string                     `json:"location,omitempty"`
	EstimatedProcessingMinutes int                        `json:"estimated_processing_minutes,omitempty"`
	Overdue                    bool                       `json:"overdue"`
	Documents                  []models.Document          `json:"documents"`
	Verifications              []models.VerificationCheck `json:"verifications"`
	Notes                      []models.Note              `json:"notes"`
	ResolvedAt                 *time.Time                 `json:"resolved_at,omitempty"`
	ResolvedBy                 string                     `json:"resolved_by,omitempty"`
	UpdatedAt                  time.Time                  `json:"updated_at"`
}

// QueueItem is one row of the queue or history list.
type QueueItem struct {
	ID                string    `json:"id"`
	ApplicantName     string    `json:"applicant_name"`
	DocumentType      string    `json:"document_type"`
	DocumentTypeLabel string    `json:"document_type_label"`
	Status            string    `json:"status"`
	StatusLabel       string    `json:"status_label"`
	RiskLevel         string    `json:"risk_level"`
	RiskLabel         string    `json:"risk_label"`
	Priority          int       `json:"priority"`
	RequestedAt       time.Time `json:"requested_at"`
	AssignedTo        string    `json:"assigned_to,omitempty"`
	Overdue           bool      `json:"overdue"`
}

type QueueResponse struct {
	Items []QueueItem `json:"items"`
	Total int         `json:"total"`
}

// DecisionResponse is the HTTP response for a decision.
type DecisionResponse struct {
	Request      RequestResponse     `json:"request"`
	Notification models.Notification `json:"notification"`
}

func FromRequest(r *models.VerificationRequest, asOf time.Time) RequestResponse {
	resp := RequestResponse{
		ID:                         r.ID.String(),
		Applicant:                  r.Applicant,
		DocumentType:               string(r.DocumentType),
		DocumentTypeLabel:          r.DocumentType.Label(),
		Status:                     string(r.Status),
		StatusLabel:                r.Status.Label(),
		RiskLevel:                  string(r.RiskLevel),
		RiskLabel:                  r.RiskLevel.Label(),
		Priority:                   r.Priority,
		RequestedAt:                r.RequestedAt,
		AssignedTo:                 r.AssignedTo.String(),
		Source:                     string(r.Source),
		Location:                   r.Location,
		EstimatedProcessingMinutes: r.EstimatedProcessingMinutes,
		Overdue:                    r.Overdue(asOf),
		Documents:                  r.Documents,
		Verifications:              r.Verifications,
		Notes:                      r.Notes,
		ResolvedAt:                 r.ResolvedAt,
		ResolvedBy:                 r.ResolvedBy.String(),
		UpdatedAt:                  r.UpdatedAt,
	}
	// empty lists render as [] rather than null
	if resp.Documents == nil {
		resp.Documents = []models.Document{}
	}
	if resp.Verifications == nil {
		resp.Verifications = []models.VerificationCheck{}
	}
	if resp.Notes == nil {
		resp.Notes = []models.Note{}
	}
	return resp
}

func FromQueue(requests []*models.VerificationRequest, asOf time.Time) QueueResponse {
	items := make([]QueueItem, 0, len(requests))
	for _, r := range requests {
		items = append(items, QueueItem{
			ID:                r.ID.String(),
			ApplicantName:     r.Applicant.FirstName + " " + r.Applicant.LastName,
			DocumentType:      string(r.DocumentType),
			DocumentTypeLabel: r.DocumentType.Label(),
			Status:            string(r.Status),
			StatusLabel:       r.Status.Label(),
			RiskLevel:         string(r.RiskLevel),
			RiskLabel:         r.RiskLevel.Label(),
			Priority:          r.Priority,
			RequestedAt:       r.RequestedAt,
			AssignedTo:        r.AssignedTo.String(),
			Overdue:           r.Overdue(asOf),
		})
	}
	return QueueResponse{Items: items, Total: len(items)}
}

func FromDecisionResult(result *service.DecisionResult, asOf time.Time) DecisionResponse {
	return DecisionResponse{
		Request:      FromRequest(result.Request, asOf),
		Notification: result.Notification,
	}
}
