package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mentorship/backend/internal/database/dbtest"
	"mentorship/backend/internal/store"
	"mentorship/backend/pkg/jwt"
	"mentorship/backend/pkg/mentorship"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorInfo      `json:"error"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	h := NewHandler(
		store.NewGormUserStore(db),
		store.NewGormRelationshipStore(db, 0),
		jwt.NewManager("test-secret", time.Hour),
	)
	r := gin.New()
	h.RegisterRoutes(r)
	return &testServer{t: t, router: r}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (s *testServer) register(name string) (string, mentorship.User) {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/v1/auth/register", "", RegisterInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "password123",
	})
	require.Equal(s.t, http.StatusCreated, code)
	var tr TokenResponse
	require.NoError(s.t, json.Unmarshal(env.Data, &tr))
	return tr.Token, tr.User
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.register("alice")
	assert.Equal(t, "alice", alice.Username)

	code, env := s.do(http.MethodPost, "/api/v1/auth/register", "", RegisterInput{
		Username: "alice", Email: "other@example.com", Password: "password123",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, CodeConflict, env.Error.Code)

	code, env = s.do(http.MethodPost, "/api/v1/auth/login", "", LoginInput{Login: "alice@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, code)
	var tr TokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &tr))
	assert.NotEmpty(t, tr.Token)

	code, env = s.do(http.MethodGet, "/api/v1/users/me", tr.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var me mentorship.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, alice, me)

	code, env = s.do(http.MethodPost, "/api/v1/auth/login", "", LoginInput{Login: "alice", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, CodeUnauthorized, env.Error.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodGet, "/api/v1/relationships", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, CodeUnauthorized, env.Error.Code)

	code, _ = s.do(http.MethodGet, "/api/v1/relationships", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSearchUsers(t *testing.T) {
	s := newTestServer(t)
	aliceToken, _ := s.register("alice")
	_, bob := s.register("bob")
	s.register("bobby")

	code, env := s.do(http.MethodGet, "/api/v1/users?username=bob", "", nil)
	require.Equal(t, http.StatusOK, code)
	var page PaginatedResponse[mentorship.User]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, []mentorship.User{bob}, page.Data)

	code, env = s.do(http.MethodGet, "/api/v1/users?q=B", aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(2), page.Meta.TotalItems)

	code, env = s.do(http.MethodGet, "/api/v1/users?username=nobody", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Empty(t, page.Data)

	code, env = s.do(http.MethodGet, "/api/v1/users/9999", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, CodeNotFound, env.Error.Code)
}

func TestRelationshipFlow(t *testing.T) {
	s := newTestServer(t)
	aliceToken, alice := s.register("alice")
	bobToken, bob := s.register("bob")
	carolToken, _ := s.register("carol")

	code, env := s.do(http.MethodPost, "/api/v1/relationships", aliceToken, CreateRelationshipInput{Mentor: alice.ID, Mentee: bob.ID})
	require.Equal(t, http.StatusCreated, code)
	var r mentorship.Relationship
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, mentorship.StatusPending, r.Status)
	assert.Equal(t, alice.ID, r.Sender)
	assert.Equal(t, bob.ID, r.Receiver)

	code, env = s.do(http.MethodPost, "/api/v1/relationships", bobToken, CreateRelationshipInput{Mentor: alice.ID, Mentee: bob.ID})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, CodeConflict, env.Error.Code)

	code, env = s.do(http.MethodPost, "/api/v1/relationships", carolToken, CreateRelationshipInput{Mentor: alice.ID, Mentee: bob.ID})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, CodeForbidden, env.Error.Code)

	code, env = s.do(http.MethodPost, "/api/v1/relationships", aliceToken, CreateRelationshipInput{Mentor: alice.ID, Mentee: alice.ID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, CodeInvalidRequest, env.Error.Code)

	statusPath := fmt.Sprintf("/api/v1/relationships/%d/status", r.ID)

	code, env = s.do(http.MethodPost, statusPath, aliceToken, TransitionInput{Status: "ACCEPTED"})
	assert.Equal(t, http.StatusForbidden, code, "sender cannot accept")
	assert.Equal(t, CodeForbidden, env.Error.Code)

	code, env = s.do(http.MethodPost, statusPath, bobToken, TransitionInput{Status: "BOGUS"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, CodeInvalidRequest, env.Error.Code)

	code, env = s.do(http.MethodPost, statusPath, bobToken, TransitionInput{Status: "ACCEPTED"})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, mentorship.StatusAccepted, r.Status)

	code, env = s.do(http.MethodPost, statusPath, aliceToken, TransitionInput{Status: "REJECTED"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, CodeInvalidTransition, env.Error.Code)

	code, env = s.do(http.MethodPost, "/api/v1/relationships/4242/status", aliceToken, TransitionInput{Status: "TERMINATED"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, CodeNotFound, env.Error.Code)

	code, env = s.do(http.MethodGet, "/api/v1/relationships", bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	var rows []mentorship.Relationship
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, r.ID, rows[0].ID)
	assert.Equal(t, "alice", rows[0].MentorUsername)

	code, env = s.do(http.MethodGet, "/api/v1/relationships", carolToken, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	assert.Empty(t, rows)
}
