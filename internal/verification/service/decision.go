package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"verifdesk/internal/verification/models"
	id "verifdesk/pkg/domain"
	dErrors "verifdesk/pkg/domain-errors"
	"verifdesk/pkg/platform/audit"
	"verifdesk/pkg/requestcontext"
)

// DecisionResult is what the reviewer UI needs after a decision: the updated
// request and the confirmation message.
type DecisionResult struct {
	Request      *models.VerificationRequest
	Notification models.Notification
}

// ApplyDecision validates decision, then transitions the request and appends
// the decision note in one atomic store operation. Of two racing decisions on
// the same request exactly one succeeds; the other sees a closed request.
func (s *Service) ApplyDecision(ctx context.Context, reviewer id.ReviewerID, decision models.Decision) (*DecisionResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "verification.ApplyDecision", trace.WithAttributes(
		attribute.String("verification.id", decision.RequestID.String()),
		attribute.String("verification.decision", string(decision.Kind)),
	))
	defer span.End()

	if reviewer.IsNil() {
		err := dErrors.New(dErrors.CodeValidation, "reviewer is required")
		s.rejectDecision(ctx, span, reviewer, decision, err)
		return nil, err
	}
	if err := decision.Validate(); err != nil {
		s.rejectDecision(ctx, span, reviewer, decision, err)
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var from models.Status
	updated, err := s.store.Execute(ctx, decision.RequestID,
		func(r *models.VerificationRequest) error {
			from = r.Status
			return r.CanApply(decision.Kind)
		},
		func(r *models.VerificationRequest) error {
			return r.ApplyDecision(decision.Kind, models.Note{
				ID:        uuid.NewString(),
				Content:   decision.NoteContent(),
				CreatedBy: string(reviewer),
				CreatedAt: now,
			}, now)
		},
	)
	if err != nil {
		err = translateStoreError(err, "failed to apply decision")
		s.rejectDecision(ctx, span, reviewer, decision, err)
		return nil, err
	}

	s.invalidateStats(ctx)
	s.metrics.IncrementDecision(string(decision.Kind), "applied")
	s.metrics.ObserveDecisionLatency(time.Since(start))
	s.emitAudit(ctx, audit.EventDecisionApplied, audit.Event{
		Subject:    updated.ID.String(),
		ActorID:    string(reviewer),
		Decision:   string(decision.Kind),
		Reason:     decision.Reason,
		FromStatus: string(from),
		ToStatus:   string(updated.Status),
	})
	s.logger.InfoContext(ctx, "decision applied",
		"request_id", requestcontext.RequestID(ctx),
		"reviewer_id", string(reviewer),
		"verification_id", updated.ID.String(),
		"decision", string(decision.Kind),
		"from_status", string(from),
		"to_status", string(updated.Status),
	)

	return &DecisionResult{
		Request:      updated,
		Notification: models.NotificationFor(decision.Kind),
	}, nil
}

func (s *Service) rejectDecision(ctx context.Context, span trace.Span, reviewer id.ReviewerID, decision models.Decision, err error) {
	recordSpanError(span, err)
	s.metrics.IncrementDecision(kindLabel(decision.Kind), decisionOutcome(err))

	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"reviewer_id", string(reviewer),
		"verification_id", decision.RequestID.String(),
		"decision", string(decision.Kind),
		"error", err,
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		s.logger.ErrorContext(ctx, "failed to apply decision", attrs...)
		return
	}
	s.logger.WarnContext(ctx, "decision rejected", attrs...)
}

func decisionOutcome(err error) string {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInvalidTransition:
		return "closed"
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeValidation:
		return "invalid"
	default:
		return "error"
	}
}

// kindLabel bounds the metric label set to known kinds.
func kindLabel(kind models.DecisionKind) string {
	if !kind.IsValid() {
		return "unknown"
	}
	return string(kind)
}
