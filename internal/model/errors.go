package model

import "errors"

// NotFound
var (
	ErrEventNotFound = errors.New("event not found")
	ErrUserNotFound  = errors.New("user not found")
)

// Registration and review rules.
var (
	ErrCapacityExceeded      = errors.New("event is fully booked")
	ErrDuplicateRegistration = errors.New("already registered for this event")
	ErrNotRegistered         = errors.New("no active registration found for this event")
	ErrNotEligible           = errors.New("only registered users can review this event")
	ErrDuplicateReview       = errors.New("event already reviewed by this user")
	ErrInvalidRating         = errors.New("rating must be an integer between 1 and 5")
	ErrCommentTooLong        = errors.New("comment must be at most 500 characters")
	ErrEventHasRegistrations = errors.New("event still has active registrations")
)

// Identity and access.
var (
	ErrUnauthorized       = errors.New("missing or invalid token")
	ErrTokenExpired       = errors.New("login expired")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("cannot act on behalf of another user")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ErrValidation wraps request input problems.
var ErrValidation = errors.New("validation error")

// ErrTransientConflict marks lock or serialization contention. Nothing was
// committed, so the caller may retry the whole operation.
var ErrTransientConflict = errors.New("transient store conflict")

// businessErrors are failures a client is expected to see verbatim.
var businessErrors = []error{
	ErrEventNotFound,
	ErrUserNotFound,
	ErrCapacityExceeded,
	ErrDuplicateRegistration,
	ErrNotRegistered,
	ErrNotEligible,
	ErrDuplicateReview,
	ErrInvalidRating,
	ErrCommentTooLong,
	ErrEventHasRegistrations,
	ErrForbidden,
	ErrUsernameTaken,
	ErrInvalidCredentials,
}

// BusinessError returns the taxonomy sentinel err wraps, if any.
func BusinessError(err error) (error, bool) {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return target, true
		}
	}
	return nil, false
}
