package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/text/language"

	"verifdesk/internal/verification/models"
	"verifdesk/internal/verification/queue"
	id "verifdesk/pkg/domain"
)

type EngineSuite struct {
	suite.Suite
	engine *queue.Engine
	base   time.Time
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.engine = queue.NewEngine(language.French)
	s.base = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
}

func (s *EngineSuite) newRequest(reqID string, st models.Status, risk models.RiskLevel, priority int) *models.VerificationRequest {
	return &models.VerificationRequest{
		ID:           id.VerificationID(reqID),
		Status:       st,
		RiskLevel:    risk,
		Priority:     priority,
		DocumentType: models.DocumentTypeNationalID,
		RequestedAt:  s.base,
		Applicant:    models.Applicant{FirstName: "Awa", LastName: "Sow"},
	}
}

func ids(requests []*models.VerificationRequest) []string {
	out := make([]string, len(requests))
	for i, r := range requests {
		out[i] = r.ID.String()
	}
	return out
}

func (s *EngineSuite) TestViews() {
	requests := []*models.VerificationRequest{
		s.newRequest("A", models.StatusPending, models.RiskLow, 1),
		s.newRequest("B", models.StatusApproved, models.RiskLow, 1),
		s.newRequest("C", models.StatusEscalated, models.RiskLow, 1),
		s.newRequest("D", models.StatusRejected, models.RiskLow, 1),
	}

	s.Run("zero spec shows open requests only", func() {
		s.Equal([]string{"A", "C"}, ids(s.engine.Query(requests, queue.Spec{})))
	})

	s.Run("history shows terminal requests only", func() {
		s.Equal([]string{"B", "D"}, ids(s.engine.Query(requests, queue.Spec{View: queue.ViewHistory})))
	})

	s.Run("all shows everything", func() {
		s.Len(s.engine.Query(requests, queue.Spec{View: queue.ViewAll}), 4)
	})
}

// TestSearchScenario mirrors a reviewer typing a surname into the search box.
func (s *EngineSuite) TestSearchScenario() {
	first := s.newRequest("VER-001", models.StatusPending, models.RiskLow, 3)
	first.Applicant = models.Applicant{FirstName: "Aminata", LastName: "Traoré"}
	second := s.newRequest("VER-002", models.StatusFlagged, models.RiskHigh, 1)
	second.Applicant = models.Applicant{FirstName: "Moussa", LastName: "TRAORÉ"}
	third := s.newRequest("VER-003", models.StatusPending, models.RiskLow, 2)
	third.Applicant = models.Applicant{FirstName: "Fatou", LastName: "Ndiaye", IdentificationNumber: "SN-7788"}
	requests := []*models.VerificationRequest{first, second, third}

	s.Run("matches case-insensitively on names", func() {
		got := s.engine.Query(requests, queue.Spec{SearchText: "traoré"})
		s.Equal([]string{"VER-002", "VER-001"}, ids(got))
	})

	s.Run("matches request id and identification number", func() {
		s.Equal([]string{"VER-003"}, ids(s.engine.Query(requests, queue.Spec{SearchText: "ver-003"})))
		s.Equal([]string{"VER-003"}, ids(s.engine.Query(requests, queue.Spec{SearchText: "sn-77"})))
	})

	s.Run("composes with other filters", func() {
		got := s.engine.Query(requests, queue.Spec{SearchText: "traoré", Risk: models.RiskLow})
		s.Equal([]string{"VER-001"}, ids(got))
	})

	s.Run("no match yields empty non-nil slice", func() {
		got := s.engine.Query(requests, queue.Spec{SearchText: "zzz"})
		s.NotNil(got)
		s.Empty(got)
	})
}

// TestRiskSortScenario checks critical requests surface first and ties keep
// their input order.
func (s *EngineSuite) TestRiskSortScenario() {
	requests := []*models.VerificationRequest{
		s.newRequest("low-1", models.StatusPending, models.RiskLow, 1),
		s.newRequest("crit-1", models.StatusPending, models.RiskCritical, 5),
		s.newRequest("med-1", models.StatusInReview, models.RiskMedium, 2),
		s.newRequest("crit-2", models.StatusFlagged, models.RiskCritical, 1),
		s.newRequest("high-1", models.StatusEscalated, models.RiskHigh, 4),
	}

	asc := s.engine.Query(requests, queue.Spec{SortField: queue.SortByRisk, SortOrder: queue.SortAsc})
	s.Equal([]string{"crit-1", "crit-2", "high-1", "med-1", "low-1"}, ids(asc))

	desc := s.engine.Query(requests, queue.Spec{SortField: queue.SortByRisk, SortOrder: queue.SortDesc})
	s.Equal([]string{"low-1", "med-1", "high-1", "crit-1", "crit-2"}, ids(desc))
}

func (s *EngineSuite) TestSortStability() {
	requests := []*models.VerificationRequest{
		s.newRequest("a", models.StatusPending, models.RiskLow, 2),
		s.newRequest("b", models.StatusPending, models.RiskLow, 1),
		s.newRequest("c", models.StatusPending, models.RiskLow, 2),
		s.newRequest("d", models.StatusPending, models.RiskLow, 1),
	}

	got := s.engine.Query(requests, queue.Spec{SortField: queue.SortByPriority})
	s.Equal([]string{"b", "d", "a", "c"}, ids(got))

	s.Run("input slice is not reordered", func() {
		s.Equal([]string{"a", "b", "c", "d"}, ids(requests))
	})

	s.Run("repeated queries agree", func() {
		again := s.engine.Query(requests, queue.Spec{SortField: queue.SortByPriority})
		s.Equal(ids(got), ids(again))
	})
}

func (s *EngineSuite) TestDescReversesAscForDistinctKeys() {
	requests := make([]*models.VerificationRequest, 0, 5)
	for i, name := range []string{"c", "a", "e", "b", "d"} {
		r := s.newRequest(name, models.StatusPending, models.RiskLow, i+1)
		r.RequestedAt = s.base.Add(time.Duration(i*7%5) * time.Hour)
		requests = append(requests, r)
	}

	for _, field := range []queue.SortField{queue.SortByDate, queue.SortByPriority} {
		asc := ids(s.engine.Query(requests, queue.Spec{SortField: field, SortOrder: queue.SortAsc}))
		desc := ids(s.engine.Query(requests, queue.Spec{SortField: field, SortOrder: queue.SortDesc}))
		for i := range asc {
			s.Equal(asc[i], desc[len(desc)-1-i], "field %s", field)
		}
	}
}

func (s *EngineSuite) TestNameCollation() {
	names := []struct{ id, last, first string }{
		{"1", "Zongo", "Ali"},
		{"2", "Étienne", "Marie"},
		{"3", "diallo", "Binta"},
		{"4", "Eboa", "Paul"},
	}
	requests := make([]*models.VerificationRequest, 0, len(names))
	for _, n := range names {
		r := s.newRequest(n.id, models.StatusPending, models.RiskLow, 1)
		r.Applicant = models.Applicant{FirstName: n.first, LastName: n.last}
		requests = append(requests, r)
	}

	got := s.engine.Query(requests, queue.Spec{SortField: queue.SortByName})
	s.Equal([]string{"3", "4", "2", "1"}, ids(got))
}

func (s *EngineSuite) TestNameCollationConcatenatesLastAndFirst() {
	a := s.newRequest("a", models.StatusPending, models.RiskLow, 1)
	a.Applicant = models.Applicant{FirstName: "Zoe", LastName: "Obame"}
	b := s.newRequest("b", models.StatusPending, models.RiskLow, 1)
	b.Applicant = models.Applicant{FirstName: "Jean", LastName: "Obamea"}

	got := s.engine.Query([]*models.VerificationRequest{a, b}, queue.Spec{SortField: queue.SortByName})
	s.Equal([]string{"b", "a"}, ids(got))
}

func (s *EngineSuite) TestOverdueFilter() {
	asOf := s.base.Add(3 * time.Hour)
	late := s.newRequest("late", models.StatusPending, models.RiskLow, 1)
	late.EstimatedProcessingMinutes = 60
	onTime := s.newRequest("on-time", models.StatusPending, models.RiskLow, 1)
	onTime.EstimatedProcessingMinutes = 600
	noEstimate := s.newRequest("no-estimate", models.StatusPending, models.RiskLow, 1)

	got := s.engine.Query([]*models.VerificationRequest{late, onTime, noEstimate}, queue.Spec{OverdueOnly: true, AsOf: asOf})
	s.Equal([]string{"late"}, ids(got))
}

func (s *EngineSuite) TestFilterComposition() {
	requests := []*models.VerificationRequest{
		s.newRequest("a", models.StatusPending, models.RiskHigh, 1),
		s.newRequest("b", models.StatusFlagged, models.RiskHigh, 1),
		s.newRequest("c", models.StatusFlagged, models.RiskLow, 1),
	}
	requests[1].DocumentType = models.DocumentTypePassport

	spec := queue.Spec{Status: models.StatusFlagged, Risk: models.RiskHigh, DocumentType: models.DocumentTypePassport}
	got := s.engine.Query(requests, spec)
	s.Equal([]string{"b"}, ids(got))

	// every result satisfies every predicate
	for _, r := range s.engine.Query(requests, queue.Spec{Risk: models.RiskHigh}) {
		s.Equal(models.RiskHigh, r.RiskLevel)
		s.True(r.Status.IsOpen())
	}
}

func TestPackageQueryUsesDefaultEngine(t *testing.T) {
	r := &models.VerificationRequest{ID: "x", Status: models.StatusPending}
	got := queue.Query([]*models.VerificationRequest{nil, r}, queue.Spec{})
	if len(got) != 1 || got[0] != r {
		t.Fatalf("expected single request, got %v", got)
	}
}
