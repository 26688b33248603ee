package testutil

import "testing"

// Given, When and Then nest subtests so a failing step reports the whole
// scenario path, e.g. "Given_a_flagged_request/When_escalated/Then_...".
func Given(t *testing.T, context string, steps func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+context, steps)
}

func When(t *testing.T, action string, steps func(t *testing.T)) {
	t.Helper()
	t.Run("When "+action, steps)
}

func Then(t *testing.T, outcome string, check func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+outcome, check)
}
