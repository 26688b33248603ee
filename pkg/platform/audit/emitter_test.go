package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "verifdesk/pkg/platform/audit"
	"verifdesk/pkg/platform/audit/store/memory"
	"verifdesk/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("broker down") }

func TestEmitterEnrichesFromContext(t *testing.T) {
	store := memory.NewInMemoryStore()
	emitter := audit.NewEmitter(store)

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-42")
	ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.1", "Mozilla/5.0", "Firefox on Linux")

	err := emitter.Emit(ctx, audit.EventDecisionApplied, audit.Event{Subject: "VER-1", ActorID: "ctrl-1"})
	require.NoError(t, err)

	events, err := store.ListBySubject(ctx, "VER-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	got := events[0]
	assert.Equal(t, "decision_applied", got.Action)
	assert.Equal(t, audit.CategoryCompliance, got.Category)
	assert.Equal(t, now, got.Timestamp)
	assert.Equal(t, "req-42", got.RequestID)
	assert.Equal(t, "10.0.0.1", got.ClientIP)
	assert.Equal(t, "Firefox on Linux", got.Client)
}

func TestEmitterRequiresAction(t *testing.T) {
	emitter := audit.NewEmitter(memory.NewInMemoryStore())
	require.Error(t, emitter.Emit(context.Background(), "", audit.Event{Subject: "VER-1"}))
}

func TestEmitterPropagatesStoreFailure(t *testing.T) {
	emitter := audit.NewEmitter(failingStore{})
	err := emitter.Emit(context.Background(), audit.EventRequestReceived, audit.Event{Subject: "VER-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestCategoryDefaults(t *testing.T) {
	assert.Equal(t, audit.CategoryOperations, audit.EventEvidenceAppended.Category())
	assert.Equal(t, audit.CategoryOperations, audit.AuditEvent("unknown").Category())
}
