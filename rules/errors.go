package rules

import (
	"errors"
	"fmt"
)

// Error kinds returned by the rule layer. Callers branch with errors.Is and
// the transport layer maps each kind to a status code.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("duplicate")
	ErrPermission         = errors.New("permission denied")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrRateLimited        = errors.New("rate limited")
	ErrConflict           = errors.New("concurrent modification")
)

var (
	ErrAlreadyUnlocked = fmt.Errorf("%w: already unlocked", ErrDuplicate)
	ErrConditionNotMet = fmt.Errorf("%w: unlock conditions not met", ErrValidation)
)
