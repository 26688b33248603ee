// Package service holds the verification use cases: the decision processor,
// the reviewer queue and stats projections, and the intake side that feeds
// requests in.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"verifdesk/internal/verification/metrics"
	"verifdesk/internal/verification/models"
	"verifdesk/internal/verification/ports"
	"verifdesk/internal/verification/queue"
	"verifdesk/internal/verification/stats"
	id "verifdesk/pkg/domain"
	dErrors "verifdesk/pkg/domain-errors"
	"verifdesk/pkg/platform/audit"
	"verifdesk/pkg/platform/sentinel"
)

// Store persists verification requests. Execute runs validate then mutate
// atomically for one request; an error from either leaves it unchanged.
type Store interface {
	Create(ctx context.Context, request *models.VerificationRequest) error
	FindByID(ctx context.Context, requestID id.VerificationID) (*models.VerificationRequest, error)
	List(ctx context.Context, statuses ...models.Status) ([]*models.VerificationRequest, error)
	Execute(ctx context.Context, requestID id.VerificationID, validate func(*models.VerificationRequest) error, mutate func(*models.VerificationRequest) error) (*models.VerificationRequest, error)
}

var tracer = otel.Tracer("verifdesk/verification")

// Service is the single point of mutation for verification requests. Every
// other read is a projection over the store.
type Service struct {
	store    Store
	engine   *queue.Engine
	cache    stats.Cache
	audit    ports.AuditPort
	metrics  *metrics.Metrics
	logger   *slog.Logger
	location *time.Location
	tracer   trace.Tracer

	statsGroup singleflight.Group
}

var _ ports.RequestSource = (*Service)(nil)

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithStatsCache caches controller stats snapshots. Without it stats are
// computed on every call.
func WithStatsCache(cache stats.Cache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithAudit(port ports.AuditPort) Option {
	return func(s *Service) {
		s.audit = port
	}
}

// WithLocation sets the zone whose calendar day bounds "today" in stats.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithEngine(engine *queue.Engine) Option {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		engine:   queue.NewEngine(language.French),
		logger:   slog.New(slog.DiscardHandler),
		location: time.UTC,
		tracer:   tracer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// translateStoreError maps storage sentinels to domain codes. Coded errors
// pass through; anything else becomes internal with msg.
func translateStoreError(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "verification request not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "verification request already exists")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// emitAudit hands an event to the audit port. Failures are logged and counted;
// the state change they describe has already been committed.
func (s *Service) emitAudit(ctx context.Context, action audit.AuditEvent, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, action, event); err != nil {
		s.metrics.IncrementAuditFailure()
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", string(action),
			"verification_id", event.Subject,
			"error", err,
		)
	}
}

// invalidateStats moves the stats cache to a new generation.
func (s *Service) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to invalidate stats cache",
			"error", err,
		)
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
}
