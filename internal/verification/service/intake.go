package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"verifdesk/internal/verification/models"
	id "verifdesk/pkg/domain"
	dErrors "verifdesk/pkg/domain-errors"
	"verifdesk/pkg/platform/audit"
	"verifdesk/pkg/requestcontext"
)

// CreateRequest accepts a fully formed pending request from intake. Missing
// identifiers are generated and a missing RequestedAt defaults to now.
func (s *Service) CreateRequest(ctx context.Context, request *models.VerificationRequest) (*models.VerificationRequest, error) {
	if request == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	r := request.Clone()
	now := requestcontext.Now(ctx)

	if r.ID.IsNil() {
		r.ID = id.VerificationID(uuid.NewString())
	} else {
		parsed, err := id.ParseVerificationID(r.ID.String())
		if err != nil {
			return nil, err
		}
		r.ID = parsed
	}
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	if r.RequestedAt.IsZero() {
		r.RequestedAt = now
	}
	r.UpdatedAt = now
	for i := range r.Documents {
		fillDocument(&r.Documents[i], now)
	}
	for i := range r.Verifications {
		fillCheck(&r.Verifications[i], now)
	}
	for i := range r.Notes {
		fillNote(&r.Notes[i], now)
	}

	if err := r.ValidateForIntake(); err != nil {
		s.logger.WarnContext(ctx, "intake request rejected",
			"request_id", requestcontext.RequestID(ctx),
			"verification_id", r.ID.String(),
			"error", err,
		)
		return nil, err
	}

	if err := s.store.Create(ctx, r); err != nil {
		err = translateStoreError(err, "failed to create verification request")
		s.logger.WarnContext(ctx, "failed to create verification request",
			"request_id", requestcontext.RequestID(ctx),
			"verification_id", r.ID.String(),
			"error", err,
		)
		return nil, err
	}

	s.invalidateStats(ctx)
	s.metrics.IncrementIntake()
	s.emitAudit(ctx, audit.EventRequestReceived, audit.Event{
		Subject:  r.ID.String(),
		ToStatus: string(r.Status),
	})
	s.logger.InfoContext(ctx, "verification request received",
		"request_id", requestcontext.RequestID(ctx),
		"verification_id", r.ID.String(),
		"risk_level", string(r.RiskLevel),
		"priority", r.Priority,
	)
	return r, nil
}

// ListRequests returns every stored request in intake order.
func (s *Service) ListRequests(ctx context.Context) ([]*models.VerificationRequest, error) {
	requests, err := s.store.List(ctx)
	if err != nil {
		return nil, translateStoreError(err, "failed to list verification requests")
	}
	return requests, nil
}

// AppendDocument attaches a document uploaded after intake.
func (s *Service) AppendDocument(ctx context.Context, requestID id.VerificationID, doc models.Document) (*models.VerificationRequest, error) {
	now := requestcontext.Now(ctx)
	fillDocument(&doc, now)
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return s.appendEvidence(ctx, requestID, "document", doc.ID, func(r *models.VerificationRequest) {
		r.Documents = append(r.Documents, doc)
	})
}

// AppendCheck records the outcome of an automated or manual check.
func (s *Service) AppendCheck(ctx context.Context, requestID id.VerificationID, check models.VerificationCheck) (*models.VerificationRequest, error) {
	now := requestcontext.Now(ctx)
	fillCheck(&check, now)
	if err := check.Validate(); err != nil {
		return nil, err
	}
	return s.appendEvidence(ctx, requestID, "check", check.ID, func(r *models.VerificationRequest) {
		r.Verifications = append(r.Verifications, check)
	})
}

// AppendNote adds a free-form note. Decision notes come only from
// ApplyDecision.
func (s *Service) AppendNote(ctx context.Context, requestID id.VerificationID, note models.Note) (*models.VerificationRequest, error) {
	now := requestcontext.Now(ctx)
	fillNote(&note, now)
	if err := note.Validate(); err != nil {
		return nil, err
	}
	return s.appendEvidence(ctx, requestID, "note", note.ID, func(r *models.VerificationRequest) {
		r.Notes = append(r.Notes, note)
	})
}

func (s *Service) appendEvidence(ctx context.Context, requestID id.VerificationID, kind, itemID string, add func(*models.VerificationRequest)) (*models.VerificationRequest, error) {
	now := requestcontext.Now(ctx)
	updated, err := s.store.Execute(ctx, requestID, nil, func(r *models.VerificationRequest) error {
		add(r)
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		err = translateStoreError(err, "failed to append "+kind)
		s.logger.WarnContext(ctx, "failed to append evidence",
			"request_id", requestcontext.RequestID(ctx),
			"verification_id", requestID.String(),
			"kind", kind,
			"error", err,
		)
		return nil, err
	}

	s.metrics.IncrementEvidence(kind)
	s.emitAudit(ctx, audit.EventEvidenceAppended, audit.Event{
		Subject: requestID.String(),
		Reason:  kind + " " + itemID,
	})
	return updated, nil
}

func fillDocument(d *models.Document, now time.Time) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = now
	}
}

func fillCheck(c *models.VerificationCheck, now time.Time) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.PerformedAt.IsZero() {
		c.PerformedAt = now
	}
}

func fillNote(n *models.Note, now time.Time) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Type == "" {
		n.Type = models.NoteInfo
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
}
