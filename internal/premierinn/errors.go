package premierinn

import "github.com/cockroachdb/errors"

// Failure kinds surfaced by the client. Callers distinguish them with
// errors.Is rather than by message text.
//
// ErrAuthentication means the booking lookup itself was refused and a retry
// with the same query cannot succeed; the owning configuration should be
// re-entered. The other kinds are retryable on the next poll.
var (
	ErrAuthentication = errors.New("premierinn: booking lookup refused")
	ErrRateLimit      = errors.New("premierinn: rate limited")
	ErrValidation     = errors.New("premierinn: malformed response")
	ErrUnknown        = errors.New("premierinn: request failed")
)
