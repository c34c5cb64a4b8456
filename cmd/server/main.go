package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mentorship/backend/internal/config"
	"mentorship/backend/internal/database"
	"mentorship/backend/internal/handler"
	"mentorship/backend/internal/logger"
	"mentorship/backend/internal/store"
	"mentorship/backend/pkg/jwt"

	"github.com/gin-gonic/gin"

	// Swagger imports
	_ "mentorship/backend/docs"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Mentorship API
// @version         1.0
// @description     Mentor and mentee relationship service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load configuration
	cfg, err := config.Load(config.New())
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		l := logger.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// 2. Initialize structured logger
	logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "mentorship-server",
	})
	log := logger.L()

	// 3. Connect to the database and migrate
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get underlying sql.DB")
	}
	defer sqlDB.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")

	// 4. Stores and handlers
	h := handler.NewHandler(
		store.NewGormUserStore(db),
		store.NewGormRelationshipStore(db, cfg.Relationship.RerequestCooldown),
		jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL),
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware(log))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	h.RegisterRoutes(router)

	// 5. Serve until signalled
	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("mentorship server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server forced to shutdown")
	}
	log.Info().Msg("mentorship server stopped")
}
