package handler

import (
	"errors"
	"net/http"
	"strconv"

	"mentorship/backend/internal/auth"
	"mentorship/backend/internal/models"
	"mentorship/backend/internal/store"
	"mentorship/backend/pkg/mentorship"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Username string `json:"username" binding:"required" example:"alice"`
	Email    string `json:"email" binding:"required,email" example:"alice@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"password123"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Login    string `json:"login" binding:"required" example:"alice"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// TokenResponse carries a session token.
type TokenResponse struct {
	Token string          `json:"token"`
	User  mentorship.User `json:"user"`
}

// endregion

// region --- Auth Handlers ---

// RegisterUser godoc
// @Summary      Register a new user
// @Description  Creates a new user and returns an authentication token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) RegisterUser(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		failWith(c, err, "failed to hash password")
		return
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
	}
	if err := h.users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			fail(c, http.StatusConflict, CodeConflict, "username or email already exists")
			return
		}
		failWith(c, err, "failed to create user")
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

// LoginUser godoc
// @Summary      Log in a user
// @Description  Authenticates a user with username/email and password, and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      500  {object}  ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) LoginUser(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	user, err := h.users.FindByLogin(c.Request.Context(), input.Login)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			fail(c, http.StatusUnauthorized, CodeUnauthorized, "invalid credentials")
			return
		}
		failWith(c, err, "failed to look up user")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		fail(c, http.StatusUnauthorized, CodeUnauthorized, "invalid credentials")
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user models.User) {
	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		failWith(c, err, "failed to generate token")
		return
	}
	c.JSON(status, Response{Success: true, Data: TokenResponse{Token: token, User: user.ToDomain()}})
}

// endregion

// region --- User Directory Handlers ---

// SearchUsers godoc
// @Summary      Search the user directory
// @Description  Lists users, optionally filtered by exact username or by a substring of it. The caller is left out of substring searches.
// @Tags         users
// @Produce      json
// @Param        username query     string  false  "Exact username"
// @Param        q        query     string  false  "Username substring"
// @Param        page     query     int     false  "Page number" default(1)
// @Param        limit    query     int     false  "Items per page" default(10)
// @Success      200      {object}  PaginatedResponse[mentorship.User]
// @Failure      500      {object}  ErrorResponse
// @Router       /users [get]
func (h *Handler) SearchUsers(c *gin.Context) {
	page, limit := pageParams(c)
	filter := store.UserFilter{
		Username: c.Query("username"),
		Query:    c.Query("q"),
		Page:     page,
		Limit:    limit,
	}
	if filter.Query != "" {
		filter.ExcludeID = auth.UserID(c)
	}

	users, total, err := h.users.Search(c.Request.Context(), filter)
	if err != nil {
		failWith(c, err, "failed to retrieve users")
		return
	}

	out := make([]mentorship.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToDomain())
	}
	success(c, NewPaginatedResponse(out, total, page, limit))
}

// GetUserByID godoc
// @Summary      Get user by ID
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  mentorship.User
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
func (h *Handler) GetUserByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		fail(c, http.StatusBadRequest, CodeInvalidRequest, "invalid user id")
		return
	}
	h.writeUser(c, uint(id))
}

// GetMe godoc
// @Summary      Get current user's info
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  mentorship.User
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	h.writeUser(c, auth.UserID(c))
}

func (h *Handler) writeUser(c *gin.Context, id uint) {
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			fail(c, http.StatusNotFound, CodeNotFound, "user not found")
			return
		}
		failWith(c, err, "failed to retrieve user")
		return
	}
	success(c, user.ToDomain())
}

// endregion
