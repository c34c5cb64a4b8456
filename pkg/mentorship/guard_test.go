package mentorship

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []Status{StatusPending, StatusAccepted, StatusRejected, StatusTerminated}

func TestGuardCreateSelfRequest(t *testing.T) {
	for _, id := range []uint{0, 1, 2, 42, 1 << 20} {
		assert.ErrorIs(t, GuardCreate(id, id, nil), ErrSelfRequest, "id %d", id)
	}
}

func TestGuardCreate(t *testing.T) {
	tests := []struct {
		name    string
		other   uint
		rows    []Relationship
		wantErr error
	}{
		{name: "no rows", other: 2},
		{name: "missing target", other: NoUser, wantErr: ErrMissingTarget},
		{
			name:    "pending outgoing",
			other:   2,
			rows:    []Relationship{rel(1, 1, 2, 1, 2, StatusPending)},
			wantErr: ErrDuplicateLive,
		},
		{
			name:    "accepted in reverse direction",
			other:   2,
			rows:    []Relationship{rel(1, 2, 1, 2, 1, StatusAccepted)},
			wantErr: ErrDuplicateLive,
		},
		{
			name:  "only historical rows",
			other: 2,
			rows: []Relationship{
				rel(1, 1, 2, 1, 2, StatusRejected),
				rel(2, 2, 1, 1, 2, StatusTerminated),
			},
		},
		{
			name:  "live row with another user",
			other: 2,
			rows:  []Relationship{rel(1, 1, 3, 1, 3, StatusAccepted)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := GuardCreate(1, tt.other, tt.rows)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// authorizedActor picks a participant allowed to take the edge, if any.
func authorizedActor(r Relationship, to Status) uint {
	if r.Status == StatusPending && to == StatusAccepted {
		return r.Receiver
	}
	return r.Mentor
}

func TestGuardTransitionStateMachine(t *testing.T) {
	legal := map[[2]Status]bool{
		{StatusPending, StatusAccepted}:    true,
		{StatusPending, StatusRejected}:    true,
		{StatusAccepted, StatusTerminated}: true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			t.Run(fmt.Sprintf("%s->%s", from, to), func(t *testing.T) {
				r := rel(5, 1, 2, 1, 2, from)
				err := GuardTransition(5, to, authorizedActor(r, to), &r)
				if legal[[2]Status{from, to}] {
					assert.NoError(t, err)
					assert.True(t, CanTransition(from, to))
				} else {
					assert.ErrorIs(t, err, ErrInvalidTransition)
					assert.False(t, CanTransition(from, to))
				}
			})
		}
	}
}

func TestGuardTransitionActors(t *testing.T) {
	pending := rel(5, 1, 2, 1, 2, StatusPending)
	accepted := rel(6, 1, 2, 1, 2, StatusAccepted)

	assert.ErrorIs(t, GuardTransition(5, StatusAccepted, 3, &pending), ErrForbidden)
	assert.ErrorIs(t, GuardTransition(5, StatusAccepted, 1, &pending), ErrForbidden, "sender cannot accept")
	assert.NoError(t, GuardTransition(5, StatusAccepted, 2, &pending))
	assert.NoError(t, GuardTransition(5, StatusRejected, 1, &pending), "sender cancels")
	assert.NoError(t, GuardTransition(5, StatusRejected, 2, &pending), "receiver rejects")
	assert.NoError(t, GuardTransition(6, StatusTerminated, 1, &accepted))
	assert.NoError(t, GuardTransition(6, StatusTerminated, 2, &accepted))
	assert.ErrorIs(t, GuardTransition(6, StatusTerminated, 3, &accepted), ErrForbidden)
}

func TestGuardTransitionUnknownRow(t *testing.T) {
	r := rel(5, 1, 2, 1, 2, StatusPending)
	assert.ErrorIs(t, GuardTransition(5, StatusAccepted, 2, nil), ErrNotFound)
	assert.ErrorIs(t, GuardTransition(6, StatusAccepted, 2, &r), ErrNotFound)
}

func TestNewRequest(t *testing.T) {
	r, err := NewRequest(1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(1), r.Sender)
	assert.Equal(t, uint(2), r.Receiver)
	assert.Equal(t, StatusPending, r.Status)
	assert.NoError(t, r.Validate())

	r, err = NewRequest(2, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(2), r.Sender)
	assert.Equal(t, uint(1), r.Receiver)

	_, err = NewRequest(1, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = NewRequest(3, 1, 2)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, rel(1, 1, 1, 1, 1, StatusPending).Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, rel(1, 1, 2, 3, 2, StatusPending).Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, rel(1, 1, 2, 2, 2, StatusPending).Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, rel(1, 1, 2, 1, 2, Status("DONE")).Validate(), ErrInvalidRequest)
	assert.NoError(t, rel(1, 1, 2, 2, 1, StatusAccepted).Validate())
}

func TestDescribeAndRefetch(t *testing.T) {
	wrapped := fmt.Errorf("create: %w", ErrConflict)
	assert.True(t, NeedsRefetch(wrapped))
	assert.True(t, NeedsRefetch(ErrNetworkFailure))
	assert.False(t, NeedsRefetch(ErrSelfRequest))
	assert.False(t, NeedsRefetch(ErrForbidden))

	assert.NotEqual(t, Describe(ErrSelfRequest), Describe(ErrDuplicateLive))
	assert.NotEqual(t, Describe(ErrDuplicateLive), Describe(ErrConflict))
	assert.Equal(t, Describe(ErrInvalidTransition), Describe(ErrNotFound))
	assert.Empty(t, Describe(nil))

	_, err := ParseStatus("accepted")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	st, err := ParseStatus("ACCEPTED")
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, st)
}
