package models

import "time"

// ControllerStats is a derived snapshot for the controller dashboard. It is
// always recomputed from the request set and never adjusted in place.
type ControllerStats struct {
	PendingCount             int       `json:"pending_count"`
	InReviewCount            int       `json:"in_review_count"`
	FlaggedCount             int       `json:"flagged_count"`
	EscalatedCount           int       `json:"escalated_count"`
	ApprovedToday            int       `json:"approved_today"`
	RejectedToday            int       `json:"rejected_today"`
	AverageProcessingMinutes float64   `json:"average_processing_minutes"`
	MyProcessedToday         int       `json:"my_processed_today"`
	MyPendingCount           int       `json:"my_pending_count"`
	AsOf                     time.Time `json:"as_of"`
}
