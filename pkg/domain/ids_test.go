package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "verifdesk/pkg/domain-errors"
)

// TestParseVerificationID_Invariants validates the parsing invariant:
// "verification IDs are non-empty, bounded, and limited to [A-Za-z0-9_-]".
func TestParseVerificationID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseVerificationID("   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects overly long input", func(t *testing.T) {
		_, err := ParseVerificationID(strings.Repeat("a", maxVerificationIDLength+1))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects path and quote characters", func(t *testing.T) {
		for _, in := range []string{"vr/001", "vr 001", "vr'001", "vr\x00"} {
			_, err := ParseVerificationID(in)
			assert.Error(t, err, "input %q", in)
		}
	})

	t.Run("accepts and trims a valid id", func(t *testing.T) {
		id, err := ParseVerificationID("  vr-2024_001 ")
		require.NoError(t, err)
		assert.Equal(t, VerificationID("vr-2024_001"), id)
		assert.False(t, id.IsNil())
	})
}

func TestParseReviewerID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseReviewerID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects embedded whitespace", func(t *testing.T) {
		_, err := ParseReviewerID("agent 007")
		require.Error(t, err)
	})

	t.Run("accepts email-like identities", func(t *testing.T) {
		id, err := ParseReviewerID("controleur.mba@idn.ga")
		require.NoError(t, err)
		assert.Equal(t, "controleur.mba@idn.ga", id.String())
	})
}
