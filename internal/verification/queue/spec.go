package queue

import (
	"strconv"
	"strings"
	"time"

	"verifdesk/internal/verification/models"
	dErrors "verifdesk/pkg/domain-errors"
)

// View selects which part of the lifecycle a query covers.
type View string

const (
	ViewQueue   View = "queue"
	ViewHistory View = "history"
	ViewAll     View = "all"
)

type SortField string

const (
	SortByDate     SortField = "date"
	SortByPriority SortField = "priority"
	SortByRisk     SortField = "risk"
	SortByName     SortField = "name"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// filterAll is the sentinel value the reviewer UI sends for "no filter".
const filterAll = "all"

const maxSearchLength = 200

// Spec describes one query over the request set. Zero values pass through.
type Spec struct {
	View         View
	SearchText   string
	Status       models.Status
	DocumentType models.DocumentType
	Risk         models.RiskLevel
	OverdueOnly  bool
	AsOf         time.Time
	SortField    SortField
	SortOrder    SortOrder
}

// DefaultSpec returns the spec used when the reviewer sets nothing for view.
func DefaultSpec(view View) Spec {
	spec := Spec{View: view, SortField: SortByPriority, SortOrder: SortAsc}
	if view == ViewHistory {
		spec.SortField = SortByDate
		spec.SortOrder = SortDesc
	}
	return spec
}

// RawSpec carries untrusted query-string values.
type RawSpec struct {
	View         string
	Search       string
	Status       string
	DocumentType string
	Risk         string
	Overdue      string
	SortBy       string
	SortOrder    string
}

// ParseSpec validates raw values and fills in the view's defaults. AsOf is
// left to the caller.
func ParseSpec(raw RawSpec) (Spec, error) {
	view := View(strings.TrimSpace(raw.View))
	switch view {
	case "":
		view = ViewQueue
	case ViewQueue, ViewHistory, ViewAll:
	default:
		return Spec{}, dErrors.New(dErrors.CodeValidation, "invalid view: "+raw.View)
	}
	spec := DefaultSpec(view)

	spec.SearchText = strings.TrimSpace(raw.Search)
	if len(spec.SearchText) > maxSearchLength {
		return Spec{}, dErrors.New(dErrors.CodeValidation, "search text must be at most 200 characters")
	}

	if v := filterValue(raw.Status); v != "" {
		st, err := models.ParseStatus(v)
		if err != nil {
			return Spec{}, err
		}
		if (view == ViewQueue && !st.IsOpen()) || (view == ViewHistory && !st.IsTerminal()) {
			return Spec{}, dErrors.New(dErrors.CodeValidation, "status "+v+" is not shown in the "+string(view)+" view")
		}
		spec.Status = st
	}
	if v := filterValue(raw.DocumentType); v != "" {
		dt, err := models.ParseDocumentType(v)
		if err != nil {
			return Spec{}, err
		}
		spec.DocumentType = dt
	}
	if v := filterValue(raw.Risk); v != "" {
		rl, err := models.ParseRiskLevel(v)
		if err != nil {
			return Spec{}, err
		}
		spec.Risk = rl
	}
	if v := strings.TrimSpace(raw.Overdue); v != "" {
		overdue, err := strconv.ParseBool(v)
		if err != nil {
			return Spec{}, dErrors.New(dErrors.CodeValidation, "overdue must be a boolean")
		}
		spec.OverdueOnly = overdue
	}

	if v := strings.TrimSpace(raw.SortBy); v != "" {
		switch f := SortField(v); f {
		case SortByDate, SortByPriority, SortByRisk, SortByName:
			spec.SortField = f
		default:
			return Spec{}, dErrors.New(dErrors.CodeValidation, "invalid sort field: "+v)
		}
	}
	if v := strings.TrimSpace(raw.SortOrder); v != "" {
		switch o := SortOrder(v); o {
		case SortAsc, SortDesc:
			spec.SortOrder = o
		default:
			return Spec{}, dErrors.New(dErrors.CodeValidation, "invalid sort order: "+v)
		}
	}
	return spec, nil
}

func filterValue(s string) string {
	s = strings.TrimSpace(s)
	if s == filterAll {
		return ""
	}
	return s
}
