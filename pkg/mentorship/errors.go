package mentorship

import "errors"

// Pre-flight failures, raised locally before any network call.
var (
	// ErrSelfRequest is returned when a user targets themselves.
	ErrSelfRequest = errors.New("cannot request a relationship with yourself")

	// ErrMissingTarget is returned when the counterparty could not be
	// resolved from a username.
	ErrMissingTarget = errors.New("target user not found")

	// ErrDuplicateLive is returned when a pending or accepted relationship
	// already exists between the two users in the locally cached data.
	ErrDuplicateLive = errors.New("a live relationship already exists")
)

// Store-reported failures, surfaced unmodified.
var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrConflict          = errors.New("relationship conflict")
	ErrNotFound          = errors.New("relationship not found")
	ErrForbidden         = errors.New("not allowed to act on this relationship")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ErrNetworkFailure marks a transport-level failure, including a cancelled
// request. The state of a mutation that failed this way is unknown.
var ErrNetworkFailure = errors.New("network failure")

// NeedsRefetch reports whether err leaves the caller's view stale. The
// recovery for these is a re-read of the relationship list, never a retry of
// the mutation.
func NeedsRefetch(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNetworkFailure)
}

// Describe turns err into a user-legible explanation.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSelfRequest):
		return "You can't send a mentorship request to yourself."
	case errors.Is(err, ErrMissingTarget):
		return "No user with that username exists."
	case errors.Is(err, ErrDuplicateLive):
		return "You already have a pending or active mentorship with this user."
	case errors.Is(err, ErrConflict):
		return "A mentorship request between you two already exists."
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotFound):
		return "This action is no longer available. The request may already have been answered."
	case errors.Is(err, ErrForbidden):
		return "You are not allowed to do that on this mentorship."
	case errors.Is(err, ErrInvalidRequest):
		return "The request was not valid."
	case errors.Is(err, ErrNetworkFailure):
		return "Could not reach the server. Refresh to see the current state."
	default:
		return "Something went wrong."
	}
}
