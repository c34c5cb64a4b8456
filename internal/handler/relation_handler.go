package handler

import (
	"net/http"
	"strconv"

	"mentorship/backend/internal/auth"
	"mentorship/backend/internal/logger"
	"mentorship/backend/pkg/mentorship"

	"github.com/gin-gonic/gin"
)

// CreateRelationshipInput is the body of a relationship request.
type CreateRelationshipInput struct {
	Mentor uint `json:"mentor" binding:"required" example:"1"`
	Mentee uint `json:"mentee" binding:"required" example:"2"`
}

// TransitionInput is the body of a status change.
type TransitionInput struct {
	Status string `json:"status" binding:"required" example:"ACCEPTED"`
}

// ListRelationships godoc
// @Summary      List my relationships
// @Description  Returns every relationship where the caller is mentor or mentee, live and historical.
// @Tags         relationships
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   mentorship.Relationship
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /relationships [get]
func (h *Handler) ListRelationships(c *gin.Context) {
	rows, err := h.relationships.ListForUser(c.Request.Context(), auth.UserID(c))
	if err != nil {
		failWith(c, err, "failed to fetch relationships")
		return
	}
	success(c, rows)
}

// CreateRelationship godoc
// @Summary      Request a mentorship
// @Description  Creates a PENDING relationship. The caller must be the mentor or the mentee and becomes the sender.
// @Tags         relationships
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CreateRelationshipInput true "Mentor and mentee ids"
// @Success      201  {object}  mentorship.Relationship
// @Failure      400  {object}  ErrorResponse "Mentor equals mentee or unknown user"
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Caller is not part of the relationship"
// @Failure      409  {object}  ErrorResponse "A live relationship already exists"
// @Failure      500  {object}  ErrorResponse
// @Router       /relationships [post]
func (h *Handler) CreateRelationship(c *gin.Context) {
	var input CreateRelationshipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	r, err := h.relationships.Create(c.Request.Context(), auth.UserID(c), input.Mentor, input.Mentee)
	if err != nil {
		l := logger.Ctx(c.Request.Context())
		l.Debug().Err(err).Uint("mentor_id", input.Mentor).Uint("mentee_id", input.Mentee).Msg("create relationship rejected")
		failWith(c, err, "failed to create relationship")
		return
	}
	created(c, r)
}

// TransitionStatus godoc
// @Summary      Change a relationship's status
// @Description  Accept (receiver), reject or cancel (receiver or sender) a pending request, or terminate an accepted relationship (mentor or mentee).
// @Tags         relationships
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int              true  "Relationship ID"
// @Param        input body      TransitionInput  true  "New status"
// @Success      200   {object}  mentorship.Relationship
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse "Caller may not perform this transition"
// @Failure      404   {object}  ErrorResponse "Relationship not found"
// @Failure      409   {object}  ErrorResponse "Transition not allowed from the current status"
// @Failure      500   {object}  ErrorResponse
// @Router       /relationships/{id}/status [post]
func (h *Handler) TransitionStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		fail(c, http.StatusBadRequest, CodeInvalidRequest, "invalid relationship id")
		return
	}

	var input TransitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	to, err := mentorship.ParseStatus(input.Status)
	if err != nil {
		failWith(c, err, "invalid status")
		return
	}

	r, err := h.relationships.Transition(c.Request.Context(), auth.UserID(c), uint(id), to)
	if err != nil {
		failWith(c, err, "failed to update relationship")
		return
	}
	success(c, r)
}
