package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"verifdesk/internal/verification/models"
	id "verifdesk/pkg/domain"
	dErrors "verifdesk/pkg/domain-errors"
	"verifdesk/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func newRequest(reqID string, st models.Status) *models.VerificationRequest {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return &models.VerificationRequest{
		ID:           id.VerificationID(reqID),
		Applicant:    models.Applicant{ID: "APP-" + reqID, FirstName: "Awa", LastName: "Sow"},
		DocumentType: models.DocumentTypePassport,
		Status:       st,
		RiskLevel:    models.RiskMedium,
		Priority:     2,
		RequestedAt:  now,
		Source:       models.SourceOnline,
		UpdatedAt:    now,
	}
}

func (s *InMemoryStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds request by ID", func() {
		s.Require().NoError(s.store.Create(s.ctx, newRequest("VER-1", models.StatusPending)))

		found, err := s.store.FindByID(s.ctx, "VER-1")
		s.Require().NoError(err)
		s.Equal("Awa", found.Applicant.FirstName)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, "VER-missing")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate ID", func() {
		err := s.store.Create(s.ctx, newRequest("VER-1", models.StatusPending))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})
}

func (s *InMemoryStoreSuite) TestListKeepsIntakeOrder() {
	for _, r := range []*models.VerificationRequest{
		newRequest("c", models.StatusPending),
		newRequest("a", models.StatusApproved),
		newRequest("b", models.StatusFlagged),
	} {
		s.Require().NoError(s.store.Create(s.ctx, r))
	}

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(id.VerificationID("c"), all[0].ID)
	s.Equal(id.VerificationID("a"), all[1].ID)
	s.Equal(id.VerificationID("b"), all[2].ID)

	open, err := s.store.List(s.ctx, models.OpenStatuses()...)
	s.Require().NoError(err)
	s.Len(open, 2)
}

func (s *InMemoryStoreSuite) TestReadsAreCopies() {
	s.Require().NoError(s.store.Create(s.ctx, newRequest("VER-1", models.StatusPending)))

	found, err := s.store.FindByID(s.ctx, "VER-1")
	s.Require().NoError(err)
	found.Status = models.StatusApproved
	found.Notes = append(found.Notes, models.Note{ID: "rogue"})

	again, err := s.store.FindByID(s.ctx, "VER-1")
	s.Require().NoError(err)
	s.Equal(models.StatusPending, again.Status)
	s.Empty(again.Notes)
}

func (s *InMemoryStoreSuite) TestExecute() {
	s.Require().NoError(s.store.Create(s.ctx, newRequest("VER-1", models.StatusPending)))
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	s.Run("failed validation leaves state untouched", func() {
		before, _ := s.store.FindByID(s.ctx, "VER-1")
		_, err := s.store.Execute(s.ctx, "VER-1",
			func(r *models.VerificationRequest) error {
				r.Status = models.StatusRejected // mutations during validate are discarded
				return errors.New("nope")
			},
			func(r *models.VerificationRequest) error { r.Priority = 99; return nil },
		)
		s.Require().Error(err)
		after, _ := s.store.FindByID(s.ctx, "VER-1")
		s.Equal(before, after)
	})

	s.Run("applies mutation", func() {
		updated, err := s.store.Execute(s.ctx, "VER-1",
			func(r *models.VerificationRequest) error { return r.CanApply(models.DecisionApprove) },
			func(r *models.VerificationRequest) error {
				return r.ApplyDecision(models.DecisionApprove, models.Note{ID: "n1", Content: "ok", CreatedBy: "ctrl-1"}, now)
			},
		)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, updated.Status)

		stored, _ := s.store.FindByID(s.ctx, "VER-1")
		s.Equal(models.StatusApproved, stored.Status)
		s.Len(stored.Notes, 1)
	})

	s.Run("unknown ID", func() {
		_, err := s.store.Execute(s.ctx, "VER-404", nil, func(*models.VerificationRequest) error { return nil })
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("ID cannot be changed", func() {
		_, err := s.store.Execute(s.ctx, "VER-1", nil, func(r *models.VerificationRequest) error {
			r.ID = "other"
			return nil
		})
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("illegal transition in mutate aborts without validate", func() {
		before, _ := s.store.FindByID(s.ctx, "VER-1")
		s.Require().True(before.Status.IsTerminal())

		_, err := s.store.Execute(s.ctx, "VER-1", nil, func(r *models.VerificationRequest) error {
			r.UpdatedAt = now.Add(time.Hour)
			return r.ApplyDecision(models.DecisionReject, models.Note{ID: "n2", Content: "late", CreatedBy: "ctrl-2"}, now)
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		after, _ := s.store.FindByID(s.ctx, "VER-1")
		s.Equal(before, after)
	})
}

// TestConcurrentDecisions verifies that racing decisions on one request
// produce exactly one winner.
func (s *InMemoryStoreSuite) TestConcurrentDecisions() {
	s.Require().NoError(s.store.Create(s.ctx, newRequest("VER-race", models.StatusFlagged)))
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	const goroutines = 50
	var wg sync.WaitGroup
	var successCount, closedCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		kind := models.DecisionApprove
		if i%2 == 1 {
			kind = models.DecisionReject
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(s.ctx, "VER-race",
				func(r *models.VerificationRequest) error { return r.CanApply(kind) },
				func(r *models.VerificationRequest) error {
					return r.ApplyDecision(kind, models.Note{Content: string(kind), CreatedBy: "ctrl-1"}, now)
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

	stored, err := s.store.FindByID(s.ctx, "VER-race")
	s.Require().NoError(err)
	s.Len(stored.Notes, 1)
	s.True(stored.Status.IsTerminal())
}
