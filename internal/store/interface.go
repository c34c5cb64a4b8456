package store

import (
	"context"
	"errors"

	"mentorship/backend/internal/models"
	"mentorship/backend/pkg/mentorship"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("username or email already exists")
)

// RelationshipStore is the authoritative relationship store. It enforces
// every row invariant and the status state machine.
type RelationshipStore interface {
	ListForUser(ctx context.Context, userID uint) ([]mentorship.Relationship, error)
	Get(ctx context.Context, id uint) (mentorship.Relationship, error)
	Create(ctx context.Context, actorID, mentorID, menteeID uint) (mentorship.Relationship, error)
	Transition(ctx context.Context, actorID, id uint, to mentorship.Status) (mentorship.Relationship, error)
}

// UserStore is the user directory.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id uint) (models.User, error)
	FindByLogin(ctx context.Context, login string) (models.User, error)
	Search(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
}

// UserFilter selects directory entries. Username is an exact match and
// Query a case-insensitive substring match; both are optional.
type UserFilter struct {
	Username  string
	Query     string
	ExcludeID uint
	Page      int
	Limit     int
}
