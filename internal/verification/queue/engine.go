package queue

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"verifdesk/internal/verification/models"
)

// Engine filters and orders requests for the reviewer queue and history.
// It holds no request state; Query is safe for concurrent use.
type Engine struct {
	locale language.Tag
}

// NewEngine returns an engine that collates names for locale.
func NewEngine(locale language.Tag) *Engine {
	return &Engine{locale: locale}
}

var defaultEngine = NewEngine(language.French)

// Query runs spec with the default French collation.
func Query(requests []*models.VerificationRequest, spec Spec) []*models.VerificationRequest {
	return defaultEngine.Query(requests, spec)
}

// Query returns the requests matching every filter in spec, stably sorted.
// The input slice is not reordered. An empty result is returned as an empty,
// non-nil slice.
func (e *Engine) Query(requests []*models.VerificationRequest, spec Spec) []*models.VerificationRequest {
	// collators and casers keep internal buffers and are not safe to share
	var folder cases.Caser
	needle := ""
	if spec.SearchText != "" {
		folder = cases.Fold()
		needle = folder.String(spec.SearchText)
	}

	out := make([]*models.VerificationRequest, 0, len(requests))
	for _, r := range requests {
		if r == nil || !matchView(spec.View, r.Status) {
			continue
		}
		if spec.Status != "" && r.Status != spec.Status {
			continue
		}
		if spec.DocumentType != "" && r.DocumentType != spec.DocumentType {
			continue
		}
		if spec.Risk != "" && r.RiskLevel != spec.Risk {
			continue
		}
		if spec.OverdueOnly && !r.Overdue(spec.AsOf) {
			continue
		}
		if needle != "" && !matchSearch(folder, needle, r) {
			continue
		}
		out = append(out, r)
	}

	compare := e.comparator(spec.SortField)
	if spec.SortOrder == SortDesc {
		asc := compare
		compare = func(a, b *models.VerificationRequest) int { return -asc(a, b) }
	}
	slices.SortStableFunc(out, compare)
	return out
}

func matchView(view View, st models.Status) bool {
	switch view {
	case ViewHistory:
		return st.IsTerminal()
	case ViewAll:
		return true
	default:
		return st.IsOpen()
	}
}

func matchSearch(folder cases.Caser, needle string, r *models.VerificationRequest) bool {
	for _, field := range []string{
		r.Applicant.FirstName,
		r.Applicant.LastName,
		r.ID.String(),
		r.Applicant.IdentificationNumber,
	} {
		if field != "" && strings.Contains(folder.String(field), needle) {
			return true
		}
	}
	return false
}

func (e *Engine) comparator(field SortField) func(a, b *models.VerificationRequest) int {
	switch field {
	case SortByDate:
		return func(a, b *models.VerificationRequest) int {
			return a.RequestedAt.Compare(b.RequestedAt)
		}
	case SortByRisk:
		return func(a, b *models.VerificationRequest) int {
			return cmp.Compare(a.RiskLevel.Severity(), b.RiskLevel.Severity())
		}
	case SortByName:
		col := collate.New(e.locale, collate.IgnoreCase)
		return func(a, b *models.VerificationRequest) int {
			return col.CompareString(sortName(a), sortName(b))
		}
	default:
		return func(a, b *models.VerificationRequest) int {
			return cmp.Compare(a.Priority, b.Priority)
		}
	}
}

// sortName joins last and first name with no separator, so "Obamea Jean"
// sorts before "Obame Zoe".
func sortName(r *models.VerificationRequest) string {
	return r.Applicant.LastName + r.Applicant.FirstName
}
