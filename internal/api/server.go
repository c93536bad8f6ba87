package api

import (
	"context"
	"net/http"
	"time"

	"example.com/govevents/config"
	"example.com/govevents/internal/api/handlers"
	"example.com/govevents/internal/api/middleware"
	"example.com/govevents/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Server represents the HTTP server
type Server struct {
	config           config.Config
	router           *gin.Engine
	httpServer       *http.Server
	eventService     *services.EventService
	structureService *services.GovStructureService
	userService      *services.UserService
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, eventService *services.EventService,
	structureService *services.GovStructureService, userService *services.UserService) *Server {

	server := &Server{
		config:           cfg,
		eventService:     eventService,
		structureService: structureService,
		userService:      userService,
	}

	server.router = server.setupRouter()
	server.httpServer = &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: server.router,
	}

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	if s.config.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	registerValidations()

	eventHandler := handlers.NewEventHandler(s.eventService)
	eventHandler.RegisterRoutes(router)

	structureHandler := handlers.NewGovStructureHandler(s.structureService)
	structureHandler.RegisterRoutes(router)

	userHandler := handlers.NewUserHandler(s.userService)
	userHandler.RegisterRoutes(router)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
