package bracket

import "errors"

// All of these are caller errors. The engine never retries and never
// swallows them.
var (
	ErrInsufficientEntrants = errors.New("insufficient entrants")
	ErrUnsupportedFormat    = errors.New("unsupported format")
	ErrNotFound             = errors.New("not found")
	ErrInconsistentResult   = errors.New("inconsistent result")
	ErrAlreadyCompleted     = errors.New("match already completed")
	ErrMatchNotReady        = errors.New("match not ready")
	ErrInvalidEntrant       = errors.New("invalid entrant")
)
