package sessiongate

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineNotReady is returned when the engine is used before Build
	// completed or after required dependencies were lost.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidConfiguration is returned by Build for config the engine
	// refuses to run with.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrSessionLimitReached is the sentinel wrapped by RejectionError.
	ErrSessionLimitReached = errors.New("session limit reached")
	// ErrStoreUnavailable wraps backend failures from the session store.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrSessionNotFound is returned by lookups of unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrOverrideInvalid is returned when an override token fails
	// signature, claim, or principal checks.
	ErrOverrideInvalid = errors.New("invalid override token")
	// ErrOverrideReplayed is returned when an override token is redeemed
	// a second time.
	ErrOverrideReplayed = errors.New("override token already used")
	// ErrOverrideUnavailable wraps backend failures from the override
	// redemption tracker.
	ErrOverrideUnavailable = errors.New("override backend unavailable")
)

// RejectionError is the expected, recoverable outcome of AttemptLogin when
// the principal is at their session limit under Block or SemiBlock. It wraps
// ErrSessionLimitReached so callers can match with errors.Is.
type RejectionError struct {
	// Principal that was denied.
	Principal string
	// Message is safe to show to the end user.
	Message string
	// OverrideToken is a freshly issued one-time opt-in credential.
	// Empty unless the strategy is SemiBlock and an override manager is
	// configured.
	OverrideToken string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%v: %s", ErrSessionLimitReached, e.Message)
}

func (e *RejectionError) Unwrap() error {
	return ErrSessionLimitReached
}

// IsRejection reports whether err is a session-limit rejection and, if so,
// returns the RejectionError for access to the message and override token.
func IsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
