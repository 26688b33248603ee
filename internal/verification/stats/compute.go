package stats

import (
	"time"

	"verifdesk/internal/verification/models"
	id "verifdesk/pkg/domain"
)

// Window is the half-open [Start, End) calendar day containing asOf in loc.
type Window struct {
	Start time.Time
	End   time.Time
}

// DayWindow returns the calendar day of asOf in loc. A nil loc means UTC.
func DayWindow(asOf time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	local := asOf.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Key is the day label used for cache keys, e.g. "2026-03-02".
func (w Window) Key() string {
	return w.Start.Format(time.DateOnly)
}

// Compute reduces requests to dashboard counters. It never mutates its input
// and is deterministic for a given asOf.
func Compute(requests []*models.VerificationRequest, asOf time.Time, reviewer id.ReviewerID, loc *time.Location) models.ControllerStats {
	today := DayWindow(asOf, loc)
	out := models.ControllerStats{AsOf: asOf}

	var processingTotal time.Duration
	resolvedToday := 0

	for _, r := range requests {
		if r == nil {
			continue
		}
		switch r.Status {
		case models.StatusPending:
			out.PendingCount++
		case models.StatusInReview:
			out.InReviewCount++
		case models.StatusFlagged:
			out.FlaggedCount++
		case models.StatusEscalated:
			out.EscalatedCount++
		}

		if r.Status.IsTerminal() && r.ResolvedAt != nil && today.Contains(*r.ResolvedAt) {
			if r.Status == models.StatusApproved {
				out.ApprovedToday++
			} else {
				out.RejectedToday++
			}
			resolvedToday++
			processingTotal += r.ResolvedAt.Sub(r.RequestedAt)
		}

		if reviewer.IsNil() {
			continue
		}
		if r.Status.IsOpen() && r.AssignedTo == reviewer {
			out.MyPendingCount++
		}
		for _, n := range r.Notes {
			if n.Decision != "" && n.CreatedBy == reviewer.String() && today.Contains(n.CreatedAt) {
				out.MyProcessedToday++
			}
		}
	}

	if resolvedToday > 0 {
		out.AverageProcessingMinutes = processingTotal.Minutes() / float64(resolvedToday)
	}
	return out
}
