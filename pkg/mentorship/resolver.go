package mentorship

// selection rules in priority order; the first rule with a match wins.
var selectionRules = []func(r Relationship, me uint) bool{
	// I am their mentor.
	func(r Relationship, me uint) bool { return r.Status == StatusAccepted && r.Mentor == me },
	// I am their mentee.
	func(r Relationship, me uint) bool { return r.Status == StatusAccepted && r.Mentee == me },
	// They asked me.
	func(r Relationship, me uint) bool { return r.Status == StatusPending && r.Receiver == me },
	// I asked them.
	func(r Relationship, me uint) bool { return r.Status == StatusPending && r.Sender == me },
}

// Resolve picks the single relationship that matters between me and other
// out of relationships. It returns nil when no live relationship connects
// them, in which case either party may start a request in either direction.
//
// Rows that fail Validate are skipped. The result does not depend on the
// order of relationships: when a rule matches several rows, the one with
// the highest id wins.
func Resolve(relationships []Relationship, me, other uint) *Relationship {
	if me == other {
		return nil
	}

	var candidates []Relationship
	for _, r := range relationships {
		if r.Validate() != nil || !r.Between(me, other) {
			continue
		}
		candidates = append(candidates, r)
	}

	for _, rule := range selectionRules {
		var best *Relationship
		for i := range candidates {
			c := candidates[i]
			if !rule(c, me) {
				continue
			}
			if best == nil || c.ID > best.ID {
				best = &c
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

// PairView is the resolved state between the viewer and another user.
type PairView struct {
	Me           uint          `json:"me"`
	Other        uint          `json:"other"`
	Relationship *Relationship `json:"relationship,omitempty"`

	IsSender        bool `json:"is_sender"`
	IsReceiver      bool `json:"is_receiver"`
	IsMentorOfOther bool `json:"is_mentor_of_other"`
	IsMenteeOfOther bool `json:"is_mentee_of_other"`
}

// ResolvePair resolves the relationship between me and other and derives the
// role predicates from it. All predicates are false when nothing resolves.
func ResolvePair(relationships []Relationship, me, other uint) PairView {
	v := PairView{Me: me, Other: other}
	r := Resolve(relationships, me, other)
	if r == nil {
		return v
	}
	v.Relationship = r
	v.IsSender = r.Sender == me
	v.IsReceiver = r.Receiver == me
	v.IsMentorOfOther = r.Status == StatusAccepted && r.Mentor == me
	v.IsMenteeOfOther = r.Status == StatusAccepted && r.Mentee == me
	return v
}

// Pending reports whether the resolved relationship awaits an answer.
func (v PairView) Pending() bool {
	return v.Relationship != nil && v.Relationship.Status == StatusPending
}

// Actions lists which relationship actions the viewer may take.
type Actions struct {
	RequestAsMentor bool `json:"request_as_mentor"`
	RequestAsMentee bool `json:"request_as_mentee"`
	Accept          bool `json:"accept"`
	Reject          bool `json:"reject"`
	Cancel          bool `json:"cancel"`
	Terminate       bool `json:"terminate"`
}

// Actions derives the enabled actions from the view's predicates.
func (v PairView) Actions() Actions {
	var a Actions
	if v.Relationship == nil {
		canRequest := v.Me != v.Other && v.Other != 0
		a.RequestAsMentor = canRequest
		a.RequestAsMentee = canRequest
		return a
	}

	switch v.Relationship.Status {
	case StatusPending:
		a.Accept = v.IsReceiver
		a.Reject = v.IsReceiver
		a.Cancel = v.IsSender
	case StatusAccepted:
		a.Terminate = v.IsMentorOfOther || v.IsMenteeOfOther
	}
	return a
}

// PendingRequest is a pending row annotated from the viewer's side.
type PendingRequest struct {
	Relationship
	AmReceiver bool `json:"am_receiver"`
	AmMentor   bool `json:"am_mentor"`
}

// Other returns the counterparty of the viewer on this request.
func (p PendingRequest) Other() User {
	if p.AmMentor {
		return User{ID: p.Mentee, Username: p.MenteeUsername}
	}
	return User{ID: p.Mentor, Username: p.MentorUsername}
}

// Profile is the aggregate view over everything a user is part of.
type Profile struct {
	Me              uint             `json:"me"`
	Mentors         []User           `json:"mentors"`
	Mentees         []User           `json:"mentees"`
	PendingRequests []PendingRequest `json:"pending_requests"`
}

// Aggregate partitions relationships into the viewer's mentors, mentees and
// pending requests. Malformed rows, self-referential ones included, are
// dropped before anything else.
func Aggregate(relationships []Relationship, me uint) Profile {
	p := Profile{
		Me:              me,
		Mentors:         []User{},
		Mentees:         []User{},
		PendingRequests: []PendingRequest{},
	}

	for _, r := range relationships {
		if r.Validate() != nil {
			continue
		}
		switch r.Status {
		case StatusAccepted:
			if r.Mentee == me {
				p.Mentors = append(p.Mentors, User{ID: r.Mentor, Username: r.MentorUsername})
			}
			if r.Mentor == me {
				p.Mentees = append(p.Mentees, User{ID: r.Mentee, Username: r.MenteeUsername})
			}
		case StatusPending:
			if r.Sender == me || r.Receiver == me {
				p.PendingRequests = append(p.PendingRequests, PendingRequest{
					Relationship: r,
					AmReceiver:   r.Receiver == me,
					AmMentor:     r.Mentor == me,
				})
			}
		}
	}
	return p
}

// Contacts returns mentors and mentees as one list, unique by user id, in
// first-seen order.
func (p Profile) Contacts() []User {
	return DedupUsers(p.Mentors, p.Mentees)
}

// DedupUsers concatenates lists keeping the first occurrence of each id.
func DedupUsers(lists ...[]User) []User {
	seen := make(map[uint]struct{})
	out := []User{}
	for _, list := range lists {
		for _, u := range list {
			if _, ok := seen[u.ID]; ok {
				continue
			}
			seen[u.ID] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}
