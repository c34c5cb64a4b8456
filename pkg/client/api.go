// Package client is the relationship client library: the HTTP transport to
// the relationship store, the cached Repository, the guarded Engine that UI
// code calls, and a Poller that keeps views fresh.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"mentorship/backend/pkg/mentorship"

	"github.com/go-resty/resty/v2"
)

// ErrUnauthorized is returned when the store rejects the session token.
var ErrUnauthorized = errors.New("unauthorized")

// errorCodes maps the store's error codes onto the relationship taxonomy.
var errorCodes = map[string]error{
	"INVALID_REQUEST":    mentorship.ErrInvalidRequest,
	"UNAUTHORIZED":       ErrUnauthorized,
	"FORBIDDEN":          mentorship.ErrForbidden,
	"NOT_FOUND":          mentorship.ErrNotFound,
	"CONFLICT":           mentorship.ErrConflict,
	"INVALID_TRANSITION": mentorship.ErrInvalidTransition,
}

type envelope[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data"`
	Error   *apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type page[T any] struct {
	Data []T `json:"data"`
}

// Session is what the store hands back on login or registration.
type Session struct {
	Token string          `json:"token"`
	User  mentorship.User `json:"user"`
}

// API is the HTTP transport to the relationship store.
type API struct {
	http *resty.Client
}

// NewAPI creates a transport for the store at baseURL, e.g.
// "http://localhost:8080/api/v1".
func NewAPI(baseURL string, timeout time.Duration) *API {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &API{http: c}
}

// SetToken sets the bearer token sent with every request. Call it before
// the API is shared between goroutines.
func (a *API) SetToken(token string) {
	a.http.SetAuthToken(token)
}

// Login authenticates and stores the returned token on the API.
func (a *API) Login(ctx context.Context, login, password string) (Session, error) {
	s, err := call[Session](ctx, a, http.MethodPost, "/auth/login", map[string]string{
		"login":    login,
		"password": password,
	}, nil)
	if err != nil {
		return Session{}, err
	}
	a.SetToken(s.Token)
	return s, nil
}

// Register creates an account and stores the returned token on the API.
func (a *API) Register(ctx context.Context, username, email, password string) (Session, error) {
	s, err := call[Session](ctx, a, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, nil)
	if err != nil {
		return Session{}, err
	}
	a.SetToken(s.Token)
	return s, nil
}

// Me returns the authenticated user.
func (a *API) Me(ctx context.Context) (mentorship.User, error) {
	return call[mentorship.User](ctx, a, http.MethodGet, "/users/me", nil, nil)
}

// SearchUsers queries the user directory by exact username.
func (a *API) SearchUsers(ctx context.Context, username string) ([]mentorship.User, error) {
	p, err := call[page[mentorship.User]](ctx, a, http.MethodGet, "/users", nil, map[string]string{
		"username": username,
	})
	if err != nil {
		return nil, err
	}
	return p.Data, nil
}

// ListRelationships returns every row the caller is mentor or mentee of.
func (a *API) ListRelationships(ctx context.Context) ([]mentorship.Relationship, error) {
	return call[[]mentorship.Relationship](ctx, a, http.MethodGet, "/relationships", nil, nil)
}

// CreateRelationship asks the store for a new PENDING row.
func (a *API) CreateRelationship(ctx context.Context, mentor, mentee uint) (mentorship.Relationship, error) {
	return call[mentorship.Relationship](ctx, a, http.MethodPost, "/relationships", map[string]uint{
		"mentor": mentor,
		"mentee": mentee,
	}, nil)
}

// TransitionStatus asks the store to move a row to status.
func (a *API) TransitionStatus(ctx context.Context, id uint, status mentorship.Status) (mentorship.Relationship, error) {
	path := "/relationships/" + strconv.FormatUint(uint64(id), 10) + "/status"
	return call[mentorship.Relationship](ctx, a, http.MethodPost, path, map[string]mentorship.Status{
		"status": status,
	}, nil)
}

// call performs one request and unwraps the response envelope.
func call[T any](ctx context.Context, a *API, method, path string, body interface{}, query map[string]string) (T, error) {
	var (
		zero T
		env  envelope[T]
	)

	req := a.http.R().
		SetContext(ctx).
		SetResult(&env).
		SetError(&env)
	if body != nil {
		req.SetBody(body)
	}
	if query != nil {
		req.SetQueryParams(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return zero, fmt.Errorf("%w: %s %s: %v", mentorship.ErrNetworkFailure, method, path, err)
	}
	if resp.IsError() {
		return zero, decodeError(resp.StatusCode(), env.Error)
	}
	return env.Data, nil
}

// decodeError turns an error envelope into a taxonomy error. Responses the
// store did not classify leave the outcome unknown and are reported as
// network failures.
func decodeError(status int, e *apiError) error {
	if e != nil {
		if sentinel, ok := errorCodes[e.Code]; ok {
			return fmt.Errorf("%w: %s", sentinel, e.Message)
		}
		return fmt.Errorf("%w: status %d: %s: %s", mentorship.ErrNetworkFailure, status, e.Code, e.Message)
	}
	return fmt.Errorf("%w: status %d", mentorship.ErrNetworkFailure, status)
}
