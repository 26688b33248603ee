package seed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"verifdesk/internal/verification/models"
	"verifdesk/internal/verification/ports/mocks"
	"verifdesk/internal/verification/service"
	"verifdesk/internal/verification/store"
	id "verifdesk/pkg/domain"
	dErrors "verifdesk/pkg/domain-errors"
	"verifdesk/pkg/requestcontext"
)

type SeedSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemory
	service *service.Service
}

func TestSeedSuite(t *testing.T) {
	suite.Run(t, new(SeedSuite))
}

func (s *SeedSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	s.store = store.NewInMemory()
	s.service = service.New(s.store)
}

func (s *SeedSuite) TestLoadFile() {
	res, err := LoadFile(s.ctx, "testdata/requests.yaml", s.service, nil)
	s.Require().NoError(err)
	s.Equal(Result{Created: 2}, res)

	first, err := s.store.FindByID(s.ctx, "VER-001")
	s.Require().NoError(err)
	s.Equal(models.StatusPending, first.Status)
	s.Equal("Aminata", first.Applicant.FirstName)
	s.Equal(models.GenderFemale, first.Applicant.Gender)
	s.True(time.Date(2026, 3, 2, 8, 15, 0, 0, time.UTC).Equal(first.RequestedAt))
	s.Require().Len(first.Verifications, 1)
	s.Equal(94, *first.Verifications[0].Score)
	s.Require().Len(first.Documents, 1)
	s.True(first.Documents[0].Verified)

	second, err := s.store.FindByID(s.ctx, "VER-002")
	s.Require().NoError(err)
	s.Equal(models.RiskCritical, second.RiskLevel)
	s.Require().Len(second.Notes, 1)
	s.NotEmpty(second.Notes[0].ID, "missing note ids are generated")
	s.Equal(models.NoteWarning, second.Notes[0].Type)

	s.Run("reloading skips existing requests", func() {
		res, err := LoadFile(s.ctx, "testdata/requests.yaml", s.service, nil)
		s.Require().NoError(err)
		s.Equal(Result{Skipped: 2}, res)
	})
}

func (s *SeedSuite) TestParse() {
	s.Run("unknown keys are rejected", func() {
		_, err := Parse(strings.NewReader("requests:\n  - id: VER-1\n    risk: high\n"))
		s.Require().Error(err)
	})

	s.Run("empty document yields no requests", func() {
		f, err := Parse(strings.NewReader(""))
		s.Require().NoError(err)
		s.Empty(f.Requests)
	})
}

func (s *SeedSuite) TestLoadStopsOnInvalidRequest() {
	f, err := Parse(strings.NewReader(`
requests:
  - id: VER-ok
    applicant: {first_name: Awa, last_name: Sow}
    document_type: cni
    risk_level: low
    priority: 2
    source: online
  - id: VER-bad
    applicant: {first_name: Awa, last_name: Sow}
    document_type: cni
    risk_level: extreme
    priority: 2
    source: online
`))
	s.Require().NoError(err)

	res, err := Load(s.ctx, f, s.service, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Contains(err.Error(), "VER-bad")
	s.Equal(1, res.Created)
}

func (s *SeedSuite) TestLoadPropagatesSourceErrors() {
	ctrl := gomock.NewController(s.T())
	source := mocks.NewMockRequestSource(ctrl)
	source.EXPECT().CreateRequest(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *models.VerificationRequest) (*models.VerificationRequest, error) {
			s.Equal(id.VerificationID("VER-1"), r.ID)
			s.Equal(models.StatusPending, r.Status, "seeded requests are always pending")
			return nil, errors.New("store unavailable")
		})

	_, err := Load(s.ctx, &File{Requests: []Request{{ID: "VER-1"}}}, source, nil)
	s.Require().ErrorContains(err, "store unavailable")
}
