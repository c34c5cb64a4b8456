package auth

import (
	"mentorship/backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// OptionalAuthMiddleware inspects for a token and sets the caller's id if
// present and valid, but does not fail if the token is missing or invalid.
func OptionalAuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if userID, err := tokens.ParseToken(token); err == nil {
				c.Set(logger.UserIDKey, userID)
			}
		}
		c.Next()
	}
}
