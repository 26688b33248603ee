//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"verifdesk/internal/verification/models"
	"verifdesk/internal/verification/store"
	id "verifdesk/pkg/domain"
	dErrors "verifdesk/pkg/domain-errors"
	"verifdesk/pkg/platform/sentinel"
	txcontext "verifdesk/pkg/platform/tx"
	"verifdesk/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "verification_requests")
	s.Require().NoError(err)
}

func newTestRequest(reqID string, st models.Status) *models.VerificationRequest {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	score := 87
	documents := []models.Document{
		{ID: "doc-1", Type: "cni", Name: "recto.jpg", URL: "s3://bucket/recto.jpg", UploadedAt: now},
	}
	checks := []models.VerificationCheck{
		{ID: "chk-1", Method: models.CheckBiometric, Result: models.CheckPass, Score: &score, PerformedAt: now, PerformedBy: "system"},
	}
	return &models.VerificationRequest{
		ID: id.VerificationID(reqID),
		Applicant: models.Applicant{
			ID:                   "APP-" + reqID,
			FirstName:            "Moussa",
			LastName:             "Traoré",
			DateOfBirth:          "1988-04-12",
			Gender:               models.GenderMale,
			IdentificationNumber: "ML-001",
		},
		DocumentType:  models.DocumentTypeNationalID,
		Status:        st,
		RiskLevel:     models.RiskHigh,
		Priority:      1,
		RequestedAt:   now,
		Source:        models.SourceAgent,
		Location:      "Bamako",
		Documents:     documents,
		Verifications: checks,
		UpdatedAt:     now,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	request := newTestRequest("VER-PG-1", models.StatusPending)
	s.Require().NoError(s.store.Create(ctx, request))

	found, err := s.store.FindByID(ctx, request.ID)
	s.Require().NoError(err)
	s.Equal(request.Applicant, found.Applicant)
	s.Equal(request.Status, found.Status)
	s.Equal(request.Location, found.Location)
	s.True(request.RequestedAt.Equal(found.RequestedAt))
	s.Require().Len(found.Verifications, 1)
	s.Equal(87, *found.Verifications[0].Score)
	s.Nil(found.Notes)
	s.Nil(found.ResolvedAt)
}

func (s *PostgresStoreSuite) TestDuplicateCreate() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newTestRequest("VER-PG-dup", models.StatusPending)))
	err := s.store.Create(ctx, newTestRequest("VER-PG-dup", models.StatusPending))
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestListFiltersByStatusInIntakeOrder() {
	ctx := context.Background()
	for _, r := range []*models.VerificationRequest{
		newTestRequest("z", models.StatusPending),
		newTestRequest("y", models.StatusApproved),
		newTestRequest("x", models.StatusEscalated),
	} {
		s.Require().NoError(s.store.Create(ctx, r))
	}

	open, err := s.store.List(ctx, models.OpenStatuses()...)
	s.Require().NoError(err)
	s.Require().Len(open, 2)
	s.Equal(id.VerificationID("z"), open[0].ID)
	s.Equal(id.VerificationID("x"), open[1].ID)

	all, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *PostgresStoreSuite) TestExecutePersistsDecision() {
	ctx := context.Background()
	request := newTestRequest("VER-PG-exec", models.StatusFlagged)
	s.Require().NoError(s.store.Create(ctx, request))
	now := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)

	_, err := s.store.Execute(ctx, request.ID,
		func(r *models.VerificationRequest) error { return r.CanApply(models.DecisionReject) },
		func(r *models.VerificationRequest) error {
			return r.ApplyDecision(models.DecisionReject, models.Note{ID: "n1", Content: "forged", CreatedBy: "ctrl-1", CreatedAt: now}, now)
		},
	)
	s.Require().NoError(err)

	found, err := s.store.FindByID(ctx, request.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, found.Status)
	s.Require().NotNil(found.ResolvedAt)
	s.True(now.Equal(*found.ResolvedAt))
	s.Equal(id.ReviewerID("ctrl-1"), found.ResolvedBy)
	s.Require().Len(found.Notes, 1)
	s.Equal(models.DecisionReject, found.Notes[0].Decision)
	s.Equal(models.RiskHigh, found.RiskLevel)

	s.Run("closed request rejects further decisions", func() {
		_, err := s.store.Execute(ctx, request.ID,
			func(r *models.VerificationRequest) error { return r.CanApply(models.DecisionApprove) },
			func(r *models.VerificationRequest) error { return nil },
		)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *PostgresStoreSuite) TestExecuteInCallerTransaction() {
	ctx := context.Background()
	request := newTestRequest("VER-PG-tx", models.StatusPending)
	s.Require().NoError(s.store.Create(ctx, request))

	tx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)
	txCtx := txcontext.WithTx(ctx, tx)
	_, err = s.store.Execute(txCtx, request.ID, nil, func(r *models.VerificationRequest) error {
		r.AssignedTo = "ctrl-7"
		return nil
	})
	s.Require().NoError(err)
	s.Require().NoError(tx.Rollback())

	found, err := s.store.FindByID(ctx, request.ID)
	s.Require().NoError(err)
	s.True(found.AssignedTo.IsNil(), "rollback discards the caller-owned transaction")
}

// TestConcurrentDecisions verifies that FOR UPDATE serializes racing decisions.
func (s *PostgresStoreSuite) TestConcurrentDecisions() {
	ctx := context.Background()
	request := newTestRequest("VER-PG-race", models.StatusPending)
	s.Require().NoError(s.store.Create(ctx, request))
	now := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)

	const goroutines = 20
	var wg sync.WaitGroup
	var successCount, closedCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, request.ID,
				func(r *models.VerificationRequest) error { return r.CanApply(models.DecisionApprove) },
				func(r *models.VerificationRequest) error {
					return r.ApplyDecision(models.DecisionApprove, models.Note{Content: "ok", CreatedBy: "ctrl-1"}, now)
				},
			)
			switch {
			case err == nil:
				successCount.Add(1)
			case dErrors.HasCode(err, dErrors.CodeInvalidTransition):
				closedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), closedCount.Load())
}
