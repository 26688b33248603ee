package audit

import (
	"context"
	"fmt"
	"log/slog"

	"verifdesk/pkg/requestcontext"
)

// Emitter enriches events with request metadata and hands them to a Store.
type Emitter struct {
	store  Store
	logger *slog.Logger
}

type EmitterOption func(*Emitter)

func WithLogger(logger *slog.Logger) EmitterOption {
	return func(e *Emitter) {
		e.logger = logger
	}
}

func NewEmitter(store Store, opts ...EmitterOption) *Emitter {
	e := &Emitter{store: store}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit fills in category, timestamp and request metadata from ctx before
// appending. Action is required.
func (e *Emitter) Emit(ctx context.Context, action AuditEvent, event Event) error {
	if action == "" {
		return fmt.Errorf("audit event requires action")
	}
	event.Action = string(action)
	event.Category = action.Category()
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = requestcontext.UserAgent(ctx)
	}
	if event.Client == "" {
		event.Client = requestcontext.Client(ctx)
	}

	if err := e.store.Append(ctx, event); err != nil {
		if e.logger != nil {
			e.logger.ErrorContext(ctx, "audit emit failed",
				"action", event.Action,
				"verification_id", event.Subject,
				"error", err,
			)
		}
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}
