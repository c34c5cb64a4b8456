package client

import (
	"context"
	"fmt"
	"strings"

	"mentorship/backend/pkg/mentorship"
)

// UserSearcher is the directory endpoint the lookup needs.
type UserSearcher interface {
	SearchUsers(ctx context.Context, username string) ([]mentorship.User, error)
}

// Directory resolves usernames to user ids.
type Directory struct {
	users UserSearcher
}

// NewDirectory creates a username lookup over users.
func NewDirectory(users UserSearcher) *Directory {
	return &Directory{users: users}
}

// LookupUsername returns the id of the user named username, or
// ErrMissingTarget when there is no such user.
func (d *Directory) LookupUsername(ctx context.Context, username string) (uint, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return mentorship.NoUser, fmt.Errorf("%w: empty username", mentorship.ErrMissingTarget)
	}

	users, err := d.users.SearchUsers(ctx, username)
	if err != nil {
		return mentorship.NoUser, err
	}
	for _, u := range users {
		if u.Username == username {
			return u.ID, nil
		}
	}
	return mentorship.NoUser, fmt.Errorf("%w: %q", mentorship.ErrMissingTarget, username)
}
