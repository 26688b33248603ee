package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and services translate them into coded domain errors:
//   - ErrNotFound: no verification request with that identifier
//   - ErrAlreadyUsed: identifier already taken at intake
//   - ErrInvalidState: a stored request is corrupt or a mutation tried to change its id
//
// Validation failures do not belong here; use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
)
