package handler

import (
	"errors"
	"net/http"

	"mentorship/backend/internal/logger"
	"mentorship/backend/pkg/mentorship"

	"github.com/gin-gonic/gin"
)

// Error codes carried in the error envelope.
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeInternal          = "INTERNAL_ERROR"
)

// Response represents a standard API response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Code    string `json:"code" example:"CONFLICT"`
	Message string `json:"message" example:"a live relationship already exists"`
}

// ErrorResponse is the error envelope, named for the API docs.
type ErrorResponse struct {
	Success bool      `json:"success" example:"false"`
	Error   ErrorInfo `json:"error"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
	})
}

// errorStatus maps the relationship error taxonomy onto HTTP.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{mentorship.ErrInvalidRequest, http.StatusBadRequest, CodeInvalidRequest},
	{mentorship.ErrForbidden, http.StatusForbidden, CodeForbidden},
	{mentorship.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{mentorship.ErrInvalidTransition, http.StatusConflict, CodeInvalidTransition},
	{mentorship.ErrConflict, http.StatusConflict, CodeConflict},
}

// failWith writes the envelope for err. Errors outside the taxonomy are
// logged and reported as internal errors.
func failWith(c *gin.Context, err error, internalMessage string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			fail(c, e.status, e.code, err.Error())
			return
		}
	}

	l := logger.Ctx(c.Request.Context())
	l.Error().Err(err).Msg(internalMessage)
	fail(c, http.StatusInternalServerError, CodeInternal, internalMessage)
}
