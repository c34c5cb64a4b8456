package client

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"mentorship/backend/pkg/mentorship"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// RelationshipAPI is the store surface the Repository drives.
type RelationshipAPI interface {
	ListRelationships(ctx context.Context) ([]mentorship.Relationship, error)
	CreateRelationship(ctx context.Context, mentor, mentee uint) (mentorship.Relationship, error)
	TransitionStatus(ctx context.Context, id uint, status mentorship.Status) (mentorship.Relationship, error)
}

// Repository owns the current user's relationship list. Reads are served
// from the injected cache; writes invalidate it and re-fetch the full list
// instead of patching rows locally.
type Repository struct {
	api   RelationshipAPI
	cache Cache
	me    uint
	sf    singleflight.Group
	log   zerolog.Logger

	// gen counts writes. A fetch only fills the cache if no write happened
	// since it started, and fetches of different generations never share
	// a flight.
	mu  sync.Mutex
	gen uint64
}

// NewRepository creates a repository for the user me.
func NewRepository(api RelationshipAPI, cache Cache, me uint, log zerolog.Logger) *Repository {
	return &Repository{
		api:   api,
		cache: cache,
		me:    me,
		log:   log.With().Uint("user_id", me).Logger(),
	}
}

// Me returns the user this repository reads for.
func (r *Repository) Me() uint {
	return r.me
}

// ListRelationships returns the cached list, fetching it on a miss.
func (r *Repository) ListRelationships(ctx context.Context) ([]mentorship.Relationship, error) {
	rows, ok, err := r.cache.Get(ctx, r.me)
	if err != nil {
		r.log.Warn().Err(err).Msg("relationship cache read failed, fetching")
	}
	if ok {
		return rows, nil
	}
	return r.Refresh(ctx)
}

// Refresh fetches the list from the store and replaces the cache entry.
// Concurrent refreshes started after the same write share one request;
// each caller stops waiting when its own ctx is done.
func (r *Repository) Refresh(ctx context.Context) ([]mentorship.Relationship, error) {
	r.mu.Lock()
	gen := r.gen
	r.mu.Unlock()

	key := "relationships:" + strconv.FormatUint(uint64(r.me), 10) + ":" + strconv.FormatUint(gen, 10)
	ch := r.sf.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refetchTimeout)
		defer cancel()
		return r.fetch(fetchCtx, gen)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", mentorship.ErrNetworkFailure, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		rows, ok := res.Val.([]mentorship.Relationship)
		if !ok {
			return nil, fmt.Errorf("unexpected result type from singleflight")
		}
		return slices.Clone(rows), nil
	}
}

// Reload discards the cached list and fetches a fresh one that no earlier
// in-flight fetch can overwrite.
func (r *Repository) Reload(ctx context.Context) ([]mentorship.Relationship, error) {
	r.bump(ctx)
	return r.Refresh(ctx)
}

func (r *Repository) fetch(ctx context.Context, gen uint64) ([]mentorship.Relationship, error) {
	rows, err := r.api.ListRelationships(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		r.log.Debug().Uint64("gen", gen).Msg("discarding list fetched before a write")
		return rows, nil
	}
	if err := r.cache.Set(ctx, r.me, rows); err != nil {
		r.log.Warn().Err(err).Msg("relationship cache write failed")
	}
	return rows, nil
}

// bump starts a new generation and drops the cache entries of the given
// users, or of the repository's user when none are given.
func (r *Repository) bump(ctx context.Context, userIDs ...uint) {
	if len(userIDs) == 0 {
		userIDs = []uint{r.me}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	if err := r.cache.Invalidate(ctx, userIDs...); err != nil {
		r.log.Warn().Err(err).Msg("relationship cache invalidation failed")
	}
}

// CreateRelationship creates a PENDING row and re-fetches the list.
func (r *Repository) CreateRelationship(ctx context.Context, mentor, mentee uint) (mentorship.Relationship, error) {
	if mentor == mentee {
		return mentorship.Relationship{}, fmt.Errorf("%w: mentor and mentee are the same user", mentorship.ErrInvalidRequest)
	}

	rel, err := r.api.CreateRelationship(ctx, mentor, mentee)
	if err != nil {
		return mentorship.Relationship{}, err
	}
	r.afterWrite(ctx, rel)
	return rel, nil
}

// TransitionStatus moves a row to status and re-fetches the list.
func (r *Repository) TransitionStatus(ctx context.Context, id uint, status mentorship.Status) (mentorship.Relationship, error) {
	rel, err := r.api.TransitionStatus(ctx, id, status)
	if err != nil {
		return mentorship.Relationship{}, err
	}
	r.afterWrite(ctx, rel)
	return rel, nil
}

// afterWrite drops both parties' cache entries and re-reads the list. A
// failed re-read leaves the cache empty so the next read goes to the store.
func (r *Repository) afterWrite(ctx context.Context, rel mentorship.Relationship) {
	r.bump(ctx, r.me, rel.Counterparty(r.me).ID)
	if _, err := r.Refresh(ctx); err != nil {
		r.log.Warn().Err(err).Uint("relationship_id", rel.ID).Str("status", string(rel.Status)).Msg("refetch after write failed")
	}
}
