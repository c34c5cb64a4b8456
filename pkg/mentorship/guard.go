package mentorship

import "fmt"

// NoUser is the id of a counterparty that could not be looked up.
const NoUser uint = 0

// GuardCreate runs the local checks before a create request is sent.
// It fails fast with ErrSelfRequest, ErrMissingTarget or ErrDuplicateLive.
// Passing it does not guarantee the store accepts the request: a concurrent
// writer can still cause ErrConflict.
func GuardCreate(me, other uint, existing []Relationship) error {
	if me == other {
		return ErrSelfRequest
	}
	if other == NoUser {
		return ErrMissingTarget
	}
	if r := Resolve(existing, me, other); r != nil && r.Status.Live() {
		return fmt.Errorf("%w: relationship %d is %s", ErrDuplicateLive, r.ID, r.Status)
	}
	return nil
}

// GuardTransition runs the local checks before a status change is sent.
// rel is the locally cached row for relationshipID, or nil if the cache has
// no such row.
func GuardTransition(relationshipID uint, to Status, me uint, rel *Relationship) error {
	if rel == nil || rel.ID != relationshipID {
		return fmt.Errorf("%w: relationship %d", ErrNotFound, relationshipID)
	}
	return AuthorizeTransition(*rel, me, to)
}
