package mentorship

import "fmt"

// actorRule names who may perform a transition.
type actorRule int

const (
	receiverOnly actorRule = iota
	anyParticipant
)

type edge struct {
	from, to Status
}

// transitions is the complete set of legal edges.
var transitions = map[edge]actorRule{
	{StatusPending, StatusAccepted}:    receiverOnly,
	{StatusPending, StatusRejected}:    anyParticipant, // receiver rejects, sender cancels
	{StatusAccepted, StatusTerminated}: anyParticipant,
}

// CanTransition reports whether to is reachable from from in one step.
// Same-state moves are never legal.
func CanTransition(from, to Status) bool {
	_, ok := transitions[edge{from, to}]
	return ok
}

// CanAct reports whether actor is the party allowed to move r to status to.
// It does not check that the edge itself is legal.
func CanAct(r Relationship, actor uint, to Status) bool {
	rule, ok := transitions[edge{r.Status, to}]
	if !ok || !r.Involves(actor) {
		return false
	}
	if rule == receiverOnly {
		return r.Receiver == actor
	}
	return true
}

// AuthorizeTransition validates that actor may move r to status to.
// A non-participant gets ErrForbidden, an edge outside the state machine
// gets ErrInvalidTransition, and a participant who is not the allowed
// actor for the edge (a sender accepting their own request) gets ErrForbidden.
func AuthorizeTransition(r Relationship, actor uint, to Status) error {
	if !r.Involves(actor) {
		return fmt.Errorf("%w: user %d is not mentor or mentee of relationship %d", ErrForbidden, actor, r.ID)
	}
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
	}
	if !CanAct(r, actor, to) {
		return fmt.Errorf("%w: only the receiver can move %s -> %s", ErrForbidden, r.Status, to)
	}
	return nil
}
