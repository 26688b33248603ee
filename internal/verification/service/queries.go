package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"verifdesk/internal/verification/models"
	"verifdesk/internal/verification/queue"
	"verifdesk/internal/verification/stats"
	id "verifdesk/pkg/domain"
	dErrors "verifdesk/pkg/domain-errors"
	"verifdesk/pkg/requestcontext"
)

// Get returns one request with its full history.
func (s *Service) Get(ctx context.Context, requestID id.VerificationID) (*models.VerificationRequest, error) {
	request, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return nil, translateStoreError(err, "failed to load verification request")
	}
	return request, nil
}

// Query runs spec over the store. The queue and history screens differ only
// in the spec they pass. A zero AsOf is taken from the request clock.
func (s *Service) Query(ctx context.Context, spec queue.Spec) ([]*models.VerificationRequest, error) {
	ctx, span := s.tracer.Start(ctx, "verification.Query", trace.WithAttributes(
		attribute.String("queue.view", string(spec.View)),
		attribute.String("queue.sort", string(spec.SortField)+" "+string(spec.SortOrder)),
	))
	defer span.End()

	if spec.AsOf.IsZero() {
		spec.AsOf = requestcontext.Now(ctx)
	}

	var statuses []models.Status
	switch spec.View {
	case queue.ViewQueue, "":
		statuses = models.OpenStatuses()
	case queue.ViewHistory:
		statuses = models.TerminalStatuses()
	}
	requests, err := s.store.List(ctx, statuses...)
	if err != nil {
		err = translateStoreError(err, "failed to list verification requests")
		recordSpanError(span, err)
		s.logger.ErrorContext(ctx, "failed to list verification requests",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, err
	}

	result := s.engine.Query(requests, spec)
	span.SetAttributes(attribute.Int("queue.results", len(result)))
	return result, nil
}

// Stats returns the dashboard counters for reviewer, always derived from the
// store. Snapshots are cached per reviewer and day until the next decision or
// intake; concurrent misses for the same key share one computation.
func (s *Service) Stats(ctx context.Context, reviewer id.ReviewerID) (*models.ControllerStats, error) {
	ctx, span := s.tracer.Start(ctx, "verification.Stats")
	defer span.End()

	if reviewer.IsNil() {
		err := dErrors.New(dErrors.CodeValidation, "reviewer is required")
		recordSpanError(span, err)
		return nil, err
	}

	now := requestcontext.Now(ctx)
	key := stats.Key{Reviewer: reviewer, Day: stats.DayWindow(now, s.location).Key()}

	cacheable := false
	var generation int64
	if s.cache != nil {
		snapshot, gen, err := s.cache.Lookup(ctx, key)
		switch {
		case err != nil:
			s.metrics.IncrementStatsCache("error")
			s.logger.WarnContext(ctx, "stats cache lookup failed",
				"reviewer_id", string(reviewer),
				"error", err,
			)
		case snapshot != nil:
			s.metrics.IncrementStatsCache("hit")
			span.SetAttributes(attribute.Bool("stats.cached", true))
			return snapshot, nil
		default:
			s.metrics.IncrementStatsCache("miss")
			cacheable = true
			generation = gen
		}
	}

	v, err, _ := s.statsGroup.Do(string(reviewer)+"|"+key.Day, func() (any, error) {
		requests, err := s.store.List(ctx)
		if err != nil {
			return nil, translateStoreError(err, "failed to compute stats")
		}
		snapshot := stats.Compute(requests, now, reviewer, s.location)
		if cacheable {
			if err := s.cache.Store(ctx, generation, key, snapshot); err != nil {
				s.logger.WarnContext(ctx, "stats cache store failed",
					"reviewer_id", string(reviewer),
					"error", err,
				)
			}
		}
		return snapshot, nil
	})
	if err != nil {
		recordSpanError(span, err)
		s.logger.ErrorContext(ctx, "failed to compute stats",
			"request_id", requestcontext.RequestID(ctx),
			"reviewer_id", string(reviewer),
			"error", err,
		)
		return nil, err
	}
	snapshot := v.(models.ControllerStats)
	return &snapshot, nil
}
