package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mentorship/backend/pkg/mentorship"

	"github.com/rs/zerolog"
)

// refetchTimeout bounds a list fetch. Fetches and the reconciling re-read
// after a failed mutation run even when the caller's context is cancelled.
const refetchTimeout = 5 * time.Second

// UserLookup resolves a username to a user id.
type UserLookup interface {
	LookupUsername(ctx context.Context, username string) (uint, error)
}

// Engine is what UI code calls. Every mutation runs the local guard first,
// then the repository, and never retries: a failure that leaves the local
// view stale is followed by a re-read of the list instead.
type Engine struct {
	repo  *Repository
	users UserLookup
	log   zerolog.Logger
}

// NewEngine creates an engine for the repository's user.
func NewEngine(repo *Repository, users UserLookup, log zerolog.Logger) *Engine {
	return &Engine{repo: repo, users: users, log: log}
}

// Me returns the viewer's user id.
func (e *Engine) Me() uint {
	return e.repo.Me()
}

// PairView resolves the viewer's relationship with other.
func (e *Engine) PairView(ctx context.Context, other uint) (mentorship.PairView, error) {
	rows, err := e.repo.ListRelationships(ctx)
	if err != nil {
		return mentorship.PairView{}, err
	}
	return mentorship.ResolvePair(rows, e.Me(), other), nil
}

// Profile returns the viewer's mentors, mentees and pending requests.
func (e *Engine) Profile(ctx context.Context) (mentorship.Profile, error) {
	rows, err := e.repo.ListRelationships(ctx)
	if err != nil {
		return mentorship.Profile{}, err
	}
	return mentorship.Aggregate(rows, e.Me()), nil
}

// RequestAsMentor asks username to become the viewer's mentee.
func (e *Engine) RequestAsMentor(ctx context.Context, username string) (mentorship.Relationship, error) {
	return e.request(ctx, username, func(me, other uint) (uint, uint) { return me, other })
}

// RequestAsMentee asks username to become the viewer's mentor.
func (e *Engine) RequestAsMentee(ctx context.Context, username string) (mentorship.Relationship, error) {
	return e.request(ctx, username, func(me, other uint) (uint, uint) { return other, me })
}

func (e *Engine) request(ctx context.Context, username string, roles func(me, other uint) (mentor, mentee uint)) (mentorship.Relationship, error) {
	me := e.Me()

	other, err := e.users.LookupUsername(ctx, username)
	if err != nil && !errors.Is(err, mentorship.ErrMissingTarget) {
		return mentorship.Relationship{}, err
	}
	if errors.Is(err, mentorship.ErrMissingTarget) {
		other = mentorship.NoUser
	}

	rows, err := e.repo.ListRelationships(ctx)
	if err != nil {
		return mentorship.Relationship{}, err
	}
	if err := mentorship.GuardCreate(me, other, rows); err != nil {
		return mentorship.Relationship{}, err
	}

	mentor, mentee := roles(me, other)
	rel, err := e.repo.CreateRelationship(ctx, mentor, mentee)
	if err != nil {
		return mentorship.Relationship{}, e.reconcile(ctx, err)
	}
	e.log.Info().Uint("relationship_id", rel.ID).Uint("mentor_id", mentor).Uint("mentee_id", mentee).Msg("relationship requested")
	return rel, nil
}

// Accept accepts a pending request the viewer received.
func (e *Engine) Accept(ctx context.Context, relationshipID uint) (mentorship.Relationship, error) {
	return e.transition(ctx, relationshipID, mentorship.StatusAccepted, nil)
}

// Reject declines a pending request the viewer received.
func (e *Engine) Reject(ctx context.Context, relationshipID uint) (mentorship.Relationship, error) {
	return e.transition(ctx, relationshipID, mentorship.StatusRejected, func(r mentorship.Relationship, me uint) bool {
		return r.Receiver == me
	})
}

// Cancel withdraws a pending request the viewer sent.
func (e *Engine) Cancel(ctx context.Context, relationshipID uint) (mentorship.Relationship, error) {
	return e.transition(ctx, relationshipID, mentorship.StatusRejected, func(r mentorship.Relationship, me uint) bool {
		return r.Sender == me
	})
}

// Terminate ends an accepted relationship.
func (e *Engine) Terminate(ctx context.Context, relationshipID uint) (mentorship.Relationship, error) {
	return e.transition(ctx, relationshipID, mentorship.StatusTerminated, nil)
}

// transition guards and sends a status change. role narrows the allowed
// actor for actions that share a target status.
func (e *Engine) transition(ctx context.Context, id uint, to mentorship.Status, role func(mentorship.Relationship, uint) bool) (mentorship.Relationship, error) {
	me := e.Me()

	rel, err := e.cachedRow(ctx, id)
	if err != nil {
		return mentorship.Relationship{}, err
	}
	if err := mentorship.GuardTransition(id, to, me, rel); err != nil {
		return mentorship.Relationship{}, err
	}
	if role != nil && !role(*rel, me) {
		return mentorship.Relationship{}, fmt.Errorf("%w: relationship %d", mentorship.ErrForbidden, id)
	}

	updated, err := e.repo.TransitionStatus(ctx, id, to)
	if err != nil {
		return mentorship.Relationship{}, e.reconcile(ctx, err)
	}
	e.log.Info().Uint("relationship_id", id).Str("status", string(to)).Msg("relationship status changed")
	return updated, nil
}

// cachedRow finds id in the cached list, re-reading once if it is absent.
// It returns nil when the store does not list the row either.
func (e *Engine) cachedRow(ctx context.Context, id uint) (*mentorship.Relationship, error) {
	rows, err := e.repo.ListRelationships(ctx)
	if err != nil {
		return nil, err
	}
	if r := findRow(rows, id); r != nil {
		return r, nil
	}

	rows, err = e.repo.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return findRow(rows, id), nil
}

func findRow(rows []mentorship.Relationship, id uint) *mentorship.Relationship {
	for i := range rows {
		if rows[i].ID == id {
			return &rows[i]
		}
	}
	return nil
}

// reconcile re-reads the list when err leaves the local view stale and
// returns err unchanged.
func (e *Engine) reconcile(ctx context.Context, err error) error {
	if !mentorship.NeedsRefetch(err) {
		return err
	}

	refetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refetchTimeout)
	defer cancel()
	if _, rerr := e.repo.Reload(refetchCtx); rerr != nil {
		e.log.Warn().Err(rerr).AnErr("cause", err).Msg("refetch after failed mutation failed")
	} else {
		e.log.Debug().Err(err).Msg("mutation failed, view refetched")
	}
	return err
}
