package domain

import (
	"strings"
	"unicode"

	dErrors "verifdesk/pkg/domain-errors"
)

const (
	maxVerificationIDLength = 64
	maxReviewerIDLength     = 128
)

// VerificationID identifies a verification request. It is assigned at intake
// and never changes.
//
// Usage: construct via ParseVerificationID at trust boundaries; direct casting
// skips validation and is reserved for values read back from storage.
type VerificationID string

// ReviewerID identifies the controller acting on a request.
type ReviewerID string

// ParseVerificationID validates external input. Allowed characters are ASCII
// letters, digits, '-' and '_'.
func ParseVerificationID(s string) (VerificationID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "verification id is required")
	}
	if len(s) > maxVerificationIDLength {
		return "", dErrors.New(dErrors.CodeValidation, "verification id is too long")
	}
	for _, r := range s {
		if !isIDRune(r) {
			return "", dErrors.New(dErrors.CodeValidation, "verification id contains invalid characters")
		}
	}
	return VerificationID(s), nil
}

// ParseReviewerID validates a reviewer identity taken from token claims.
func ParseReviewerID(s string) (ReviewerID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "reviewer id is required")
	}
	if len(s) > maxReviewerIDLength {
		return "", dErrors.New(dErrors.CodeValidation, "reviewer id is too long")
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", dErrors.New(dErrors.CodeValidation, "reviewer id contains invalid characters")
		}
	}
	return ReviewerID(s), nil
}

func isIDRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
}

func (id VerificationID) String() string { return string(id) }
func (id VerificationID) IsNil() bool    { return id == "" }

func (id ReviewerID) String() string { return string(id) }
func (id ReviewerID) IsNil() bool    { return id == "" }
