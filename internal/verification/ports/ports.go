// Package ports declares the boundaries of the verification module: the
// intake side that feeds requests in, and the audit side that records what
// reviewers did.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"verifdesk/internal/verification/models"
	"verifdesk/pkg/platform/audit"
)

// RequestSource is the intake contract. Upstream processes hand over fully
// formed pending requests, with risk and priority already assigned.
type RequestSource interface {
	ListRequests(ctx context.Context) ([]*models.VerificationRequest, error)
	CreateRequest(ctx context.Context, request *models.VerificationRequest) (*models.VerificationRequest, error)
}

// AuditPort defines the interface for emitting audit events.
// This matches audit.Emitter but is defined here to keep the service
// independent of the audit transport.
type AuditPort interface {
	Emit(ctx context.Context, action audit.AuditEvent, event audit.Event) error
}
