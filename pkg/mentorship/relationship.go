// Package mentorship holds the mentor–mentee relationship model, its status
// state machine, the resolver that derives UI-facing views from a user's
// relationship set, and the pre-flight guard run before any mutation.
//
// Everything in this package is pure: no I/O, no hidden state.
package mentorship

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a relationship row.
type Status string

const (
	// StatusPending is the initial state: the receiver has not answered yet.
	StatusPending Status = "PENDING"
	// StatusAccepted means the coaching relationship is active.
	StatusAccepted Status = "ACCEPTED"
	// StatusRejected is terminal: the request was declined or cancelled.
	StatusRejected Status = "REJECTED"
	// StatusTerminated is terminal: an accepted relationship was ended.
	StatusTerminated Status = "TERMINATED"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusTerminated:
		return true
	}
	return false
}

// Live reports whether s is PENDING or ACCEPTED.
func (s Status) Live() bool {
	return s == StatusPending || s == StatusAccepted
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusTerminated
}

// ParseStatus converts the wire form of a status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, s)
	}
	return st, nil
}

// User is a directory record. Only the id is authoritative.
type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// Relationship is a directed coaching relationship between two users.
type Relationship struct {
	ID             uint      `json:"id"`
	Mentor         uint      `json:"mentor"`
	Mentee         uint      `json:"mentee"`
	Sender         uint      `json:"sender"`
	Receiver       uint      `json:"receiver"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	MentorUsername string    `json:"mentor_username,omitempty"`
	MenteeUsername string    `json:"mentee_username,omitempty"`
}

// SelfReferential reports whether the row pairs a user with themselves.
// Such rows are malformed and excluded from every derived view.
func (r Relationship) SelfReferential() bool {
	return r.Mentor == r.Mentee
}

// Involves reports whether userID is the mentor or the mentee.
func (r Relationship) Involves(userID uint) bool {
	return r.Mentor == userID || r.Mentee == userID
}

// Between reports whether the row connects a and b, in either direction.
func (r Relationship) Between(a, b uint) bool {
	return (r.Mentor == a && r.Mentee == b) || (r.Mentor == b && r.Mentee == a)
}

// Counterparty returns the participant that is not userID.
func (r Relationship) Counterparty(userID uint) User {
	if r.Mentor == userID {
		return User{ID: r.Mentee, Username: r.MenteeUsername}
	}
	return User{ID: r.Mentor, Username: r.MentorUsername}
}

// Validate checks the per-row invariants: distinct mentor and mentee, and
// sender and receiver being the two distinct participants.
func (r Relationship) Validate() error {
	switch {
	case r.SelfReferential():
		return fmt.Errorf("%w: mentor and mentee are the same user", ErrInvalidRequest)
	case !r.Involves(r.Sender) || !r.Involves(r.Receiver):
		return fmt.Errorf("%w: sender and receiver must be participants", ErrInvalidRequest)
	case r.Sender == r.Receiver:
		return fmt.Errorf("%w: sender and receiver are the same user", ErrInvalidRequest)
	case !r.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, r.Status)
	}
	return nil
}

// NewRequest builds the PENDING row a sender submits for the (mentor, mentee)
// pair. The counterparty of the sender becomes the receiver.
func NewRequest(sender, mentor, mentee uint) (Relationship, error) {
	if mentor == mentee {
		return Relationship{}, fmt.Errorf("%w: mentor and mentee are the same user", ErrInvalidRequest)
	}
	if sender != mentor && sender != mentee {
		return Relationship{}, fmt.Errorf("%w: requester is not part of the relationship", ErrForbidden)
	}
	r := Relationship{
		Mentor: mentor,
		Mentee: mentee,
		Sender: sender,
		Status: StatusPending,
	}
	r.Receiver = r.Counterparty(sender).ID
	return r, nil
}
