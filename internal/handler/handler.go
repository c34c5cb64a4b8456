package handler

import (
	"net/http"

	"mentorship/backend/internal/auth"
	"mentorship/backend/internal/store"
	"mentorship/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// Handler serves the auth, user directory and relationship endpoints.
type Handler struct {
	users         store.UserStore
	relationships store.RelationshipStore
	tokens        *jwt.Manager
}

// NewHandler creates a new HTTP handler.
func NewHandler(users store.UserStore, relationships store.RelationshipStore, tokens *jwt.Manager) *Handler {
	return &Handler{
		users:         users,
		relationships: relationships,
		tokens:        tokens,
	}
}

// RegisterRoutes registers all routes onto the Gin engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := r.Group("/api/v1")
	{
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", h.RegisterUser)
			authRoutes.POST("/login", h.LoginUser)
		}

		userRoutes := apiV1.Group("/users")
		{
			userRoutes.GET("", auth.OptionalAuthMiddleware(h.tokens), h.SearchUsers)
			userRoutes.GET("/me", auth.AuthMiddleware(h.tokens), h.GetMe) // must be before /:id
			userRoutes.GET("/:id", auth.AuthMiddleware(h.tokens), h.GetUserByID)
		}

		relRoutes := apiV1.Group("/relationships")
		relRoutes.Use(auth.AuthMiddleware(h.tokens))
		{
			relRoutes.GET("", h.ListRelationships)
			relRoutes.POST("", h.CreateRelationship)
			relRoutes.POST("/:id/status", h.TransitionStatus)
		}
	}
}
