package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"mentorship/backend/internal/database/dbtest"
	"mentorship/backend/internal/handler"
	"mentorship/backend/internal/store"
	"mentorship/backend/pkg/jwt"
	"mentorship/backend/pkg/mentorship"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type session struct {
	api    *API
	user   mentorship.User
	repo   *Repository
	engine *Engine
}

func newStoreServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	h := handler.NewHandler(
		store.NewGormUserStore(db),
		store.NewGormRelationshipStore(db, 0),
		jwt.NewManager("test-secret", time.Hour),
	)
	r := gin.New()
	h.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL + "/api/v1"
}

func newSession(t *testing.T, baseURL, username string, cache Cache) *session {
	t.Helper()
	api := NewAPI(baseURL, 5*time.Second)
	s, err := api.Register(context.Background(), username, username+"@example.com", "password123")
	require.NoError(t, err)

	repo := NewRepository(api, cache, s.User.ID, zerolog.Nop())
	return &session{
		api:    api,
		user:   s.User,
		repo:   repo,
		engine: NewEngine(repo, NewDirectory(api), zerolog.Nop()),
	}
}

func TestEngineRequestLifecycle(t *testing.T) {
	baseURL := newStoreServer(t)
	ctx := context.Background()
	alice := newSession(t, baseURL, "alice", NewMemoryCache(0))
	bob := newSession(t, baseURL, "bob", NewMemoryCache(0))

	view, err := alice.engine.PairView(ctx, bob.user.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Relationship)
	assert.Equal(t, mentorship.Actions{RequestAsMentor: true, RequestAsMentee: true}, view.Actions())

	rel, err := alice.engine.RequestAsMentor(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, alice.user.ID, rel.Mentor)
	assert.Equal(t, bob.user.ID, rel.Mentee)
	assert.Equal(t, mentorship.StatusPending, rel.Status)

	view, err = alice.engine.PairView(ctx, bob.user.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Relationship, "list is refetched after the write")
	assert.True(t, view.IsSender)
	assert.Equal(t, mentorship.Actions{Cancel: true}, view.Actions())

	_, err = alice.engine.RequestAsMentee(ctx, "bob")
	assert.ErrorIs(t, err, mentorship.ErrDuplicateLive)

	_, err = alice.engine.Accept(ctx, rel.ID)
	assert.ErrorIs(t, err, mentorship.ErrForbidden, "sender cannot accept")

	_, err = bob.engine.Cancel(ctx, rel.ID)
	assert.ErrorIs(t, err, mentorship.ErrForbidden, "receiver rejects, not cancels")

	accepted, err := bob.engine.Accept(ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, mentorship.StatusAccepted, accepted.Status)

	bobProfile, err := bob.engine.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, []mentorship.User{alice.user}, bobProfile.Mentors)
	assert.Empty(t, bobProfile.Mentees)
	assert.Empty(t, bobProfile.PendingRequests)

	// alice still holds the pending row in her own cache. The store refuses
	// the stale cancel and the engine refetches instead of retrying.
	_, err = alice.engine.Cancel(ctx, rel.ID)
	assert.ErrorIs(t, err, mentorship.ErrInvalidTransition)
	assert.Equal(t, "This action is no longer available. The request may already have been answered.", mentorship.Describe(err))

	view, err = alice.engine.PairView(ctx, bob.user.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Relationship)
	assert.Equal(t, mentorship.StatusAccepted, view.Relationship.Status)
	assert.True(t, view.IsMentorOfOther)
	assert.Equal(t, mentorship.Actions{Terminate: true}, view.Actions())

	terminated, err := alice.engine.Terminate(ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, mentorship.StatusTerminated, terminated.Status)

	// bob's cache still shows the accepted row until he re-reads.
	_, err = bob.engine.RequestAsMentee(ctx, "alice")
	assert.ErrorIs(t, err, mentorship.ErrDuplicateLive)
	_, err = bob.repo.Refresh(ctx)
	require.NoError(t, err)

	again, err := bob.engine.RequestAsMentee(ctx, "alice")
	require.NoError(t, err, "a terminated row does not block a new request")
	assert.NotEqual(t, rel.ID, again.ID)
}

func TestEngineCreatePreflight(t *testing.T) {
	baseURL := newStoreServer(t)
	ctx := context.Background()
	alice := newSession(t, baseURL, "alice", NewMemoryCache(0))

	_, err := alice.engine.RequestAsMentor(ctx, "alice")
	assert.ErrorIs(t, err, mentorship.ErrSelfRequest)

	_, err = alice.engine.RequestAsMentee(ctx, "nobody")
	assert.ErrorIs(t, err, mentorship.ErrMissingTarget)

	_, err = alice.engine.Reject(ctx, 777)
	assert.ErrorIs(t, err, mentorship.ErrNotFound)
}

func TestServerConflictSurfacesWhenCacheIsStale(t *testing.T) {
	baseURL := newStoreServer(t)
	ctx := context.Background()
	alice := newSession(t, baseURL, "alice", NewMemoryCache(0))
	bob := newSession(t, baseURL, "bob", NewMemoryCache(0))

	_, err := alice.engine.Profile(ctx)
	require.NoError(t, err)

	_, err = bob.engine.RequestAsMentee(ctx, "alice")
	require.NoError(t, err)

	// alice's cached list predates bob's request, so the guard passes and
	// the store is the one to refuse.
	_, err = alice.engine.RequestAsMentor(ctx, "bob")
	assert.ErrorIs(t, err, mentorship.ErrConflict)

	profile, err := alice.engine.Profile(ctx)
	require.NoError(t, err)
	require.Len(t, profile.PendingRequests, 1, "conflict triggers a refetch")
	assert.True(t, profile.PendingRequests[0].AmReceiver)
	assert.True(t, profile.PendingRequests[0].AmMentor)
}

func TestSharedCacheInvalidatesCounterparty(t *testing.T) {
	baseURL := newStoreServer(t)
	ctx := context.Background()
	shared := NewMemoryCache(0)
	alice := newSession(t, baseURL, "alice", shared)
	bob := newSession(t, baseURL, "bob", shared)

	view, err := bob.engine.PairView(ctx, alice.user.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Relationship)

	_, err = alice.engine.RequestAsMentee(ctx, "bob")
	require.NoError(t, err)

	view, err = bob.engine.PairView(ctx, alice.user.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Relationship)
	assert.True(t, view.IsReceiver)
	assert.Equal(t, mentorship.Actions{Accept: true, Reject: true}, view.Actions())
}

func TestDirectoryLookup(t *testing.T) {
	baseURL := newStoreServer(t)
	ctx := context.Background()
	alice := newSession(t, baseURL, "alice", NewMemoryCache(0))
	dir := NewDirectory(alice.api)

	id, err := dir.LookupUsername(ctx, " alice ")
	require.NoError(t, err)
	assert.Equal(t, alice.user.ID, id)

	_, err = dir.LookupUsername(ctx, "ghost")
	assert.ErrorIs(t, err, mentorship.ErrMissingTarget)

	_, err = dir.LookupUsername(ctx, "")
	assert.ErrorIs(t, err, mentorship.ErrMissingTarget)
}

func TestAPIErrors(t *testing.T) {
	baseURL := newStoreServer(t)
	ctx := context.Background()

	anon := NewAPI(baseURL, time.Second)
	_, err := anon.ListRelationships(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	alice := newSession(t, baseURL, "alice", NewMemoryCache(0))
	_, err = alice.api.TransitionStatus(ctx, 999, mentorship.StatusAccepted)
	assert.ErrorIs(t, err, mentorship.ErrNotFound)

	_, err = alice.api.CreateRelationship(ctx, alice.user.ID, alice.user.ID)
	assert.ErrorIs(t, err, mentorship.ErrInvalidRequest)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = alice.api.ListRelationships(cancelled)
	assert.ErrorIs(t, err, mentorship.ErrNetworkFailure)

	down := NewAPI("http://127.0.0.1:1/api/v1", time.Second)
	_, err = down.ListRelationships(ctx)
	assert.ErrorIs(t, err, mentorship.ErrNetworkFailure)
	assert.True(t, mentorship.NeedsRefetch(err))
}
