package auth

import (
	"net/http"
	"strings"

	"mentorship/backend/internal/logger"
	"mentorship/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// TokenParser resolves a bearer token to a user id.
type TokenParser interface {
	ParseToken(token string) (uint, error)
}

var _ TokenParser = (*jwt.Manager)(nil)

// AuthMiddleware rejects requests without a valid bearer token and stores
// the caller's id under logger.UserIDKey.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "missing or malformed authorization header")
			return
		}

		userID, err := tokens.ParseToken(token)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(logger.UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated caller, or 0 when there is none.
func UserID(c *gin.Context) uint {
	v, ok := c.Get(logger.UserIDKey)
	if !ok {
		return 0
	}
	id, _ := v.(uint)
	return id
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   gin.H{"code": "UNAUTHORIZED", "message": message},
	})
}
