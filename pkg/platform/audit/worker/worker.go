package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	audit "verifdesk/pkg/platform/audit"
)

// ErrBufferFull is returned by Append when the worker cannot keep up.
var ErrBufferFull = errors.New("audit buffer full")

const drainTimeout = 5 * time.Second

// Worker decouples request handling from a slow audit sink. Append enqueues;
// Run forwards queued events to the sink until ctx is done, then drains what
// is left.
type Worker struct {
	sink      audit.Store
	inbox     chan audit.Event
	logger    *slog.Logger
	onFailure func(error)
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithFailureHook is called for every event the sink rejects.
func WithFailureHook(fn func(error)) Option {
	return func(w *Worker) {
		w.onFailure = fn
	}
}

func NewWorker(sink audit.Store, buffer int, opts ...Option) *Worker {
	if buffer <= 0 {
		buffer = 256
	}
	w := &Worker{sink: sink, inbox: make(chan audit.Event, buffer)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Append implements audit.Store without blocking the caller.
func (w *Worker) Append(_ context.Context, event audit.Event) error {
	select {
	case w.inbox <- event:
		return nil
	default:
		return ErrBufferFull
	}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.forward(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case event := <-w.inbox:
			w.forward(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) forward(ctx context.Context, event audit.Event) {
	if err := w.sink.Append(ctx, event); err != nil {
		if w.logger != nil {
			w.logger.ErrorContext(ctx, "audit sink rejected event",
				"action", event.Action,
				"verification_id", event.Subject,
				"error", err,
			)
		}
		if w.onFailure != nil {
			w.onFailure(err)
		}
	}
}
